package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ParquetArchive keeps an on-disk archive of daily closing prices, one
// Parquet file per symbol and year. The importer writes here and backfills
// the SQLite price table from the same files.
type ParquetArchive struct {
	DataDir string
}

// NewParquetArchive creates an archive rooted at dataDir.
func NewParquetArchive(dataDir string) *ParquetArchive {
	return &ParquetArchive{DataDir: dataDir}
}

// DailyRecord is the Parquet schema for archived daily closes.
type DailyRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, midnight UTC
	Close     float64 `parquet:"close"`
}

// WriteDaily merges daily prices into the archive, deduplicating by
// (symbol, date) with incoming rows winning.
//
// Layout: <dataDir>/daily/<SYMBOL>/<YYYY>.parquet
func (a *ParquetArchive) WriteDaily(prices []DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}

	type key struct {
		symbol string
		year   int
	}
	groups := make(map[key][]DailyRecord)
	for _, p := range prices {
		k := key{symbol: strings.ToUpper(p.Symbol), year: p.Date.Year()}
		groups[k] = append(groups[k], DailyRecord{
			Symbol:    strings.ToUpper(p.Symbol),
			Timestamp: p.Date.UTC().Truncate(24 * time.Hour).UnixMilli(),
			Close:     p.ClosingPrice,
		})
	}

	for k, records := range groups {
		path := a.dailyPath(k.symbol, k.year)

		existing, _ := readParquetFile[DailyRecord](path)
		merged := mergeDailyRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing daily prices for %s/%d: %w", k.symbol, k.year, err)
		}
	}
	return nil
}

// ReadDaily reads archived daily prices for symbol in [start, end].
func (a *ParquetArchive) ReadDaily(symbol string, start, end time.Time) ([]DailyPrice, error) {
	var prices []DailyPrice
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[DailyRecord](a.dailyPath(strings.ToUpper(symbol), year))
		if err != nil {
			// No file for this year.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if ts.Before(start) || ts.After(end) {
				continue
			}
			prices = append(prices, DailyPrice{
				Symbol:       r.Symbol,
				Date:         ts,
				ClosingPrice: r.Close,
			})
		}
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i].Date.Before(prices[j].Date) })
	return prices, nil
}

// ListSymbols lists all symbols present in the archive.
func (a *ParquetArchive) ListSymbols() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(a.DataDir, "daily"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var symbols []string
	for _, e := range entries {
		if e.IsDir() {
			symbols = append(symbols, e.Name())
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (a *ParquetArchive) dailyPath(symbol string, year int) string {
	return filepath.Join(a.DataDir, "daily", symbol, fmt.Sprintf("%d.parquet", year))
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

func mergeDailyRecords(existing, incoming []DailyRecord) []DailyRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]DailyRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]DailyRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Symbol != merged[j].Symbol {
			return merged[i].Symbol < merged[j].Symbol
		}
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
