package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	md "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/bguntupallics/TradingSandbox/internal/store"
	"github.com/bguntupallics/TradingSandbox/internal/util"
)

// importBatchSize is how many symbols one multi-bar request covers.
const importBatchSize = 100

// Importer backfills the local stores from Alpaca: the symbol reference
// table into SQLite, daily closes into both SQLite and the parquet archive.
// It feeds LocalSource so the server can run without upstream credentials.
type Importer struct {
	trading *alpaca.Client
	data    *md.Client
	store   *store.Store
	archive *store.ParquetArchive
	log     *slog.Logger
}

func NewImporter(apiKey, apiSecret, baseURL, dataURL string, st *store.Store, archive *store.ParquetArchive, log *slog.Logger) *Importer {
	tradingOpts := alpaca.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if baseURL != "" {
		tradingOpts.BaseURL = baseURL
	}
	dataOpts := md.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if dataURL != "" {
		dataOpts.BaseURL = dataURL
	}
	return &Importer{
		trading: alpaca.NewClient(tradingOpts),
		data:    md.NewClient(dataOpts),
		store:   st,
		archive: archive,
		log:     log.With("source", "importer"),
	}
}

// SeedFromArchive loads daily closes from an existing parquet archive into
// SQLite, no upstream calls. With no symbols given it seeds every symbol the
// archive holds. It returns the number of price rows written.
func SeedFromArchive(ctx context.Context, archive *store.ParquetArchive, st *store.Store, symbols []string, start, end time.Time, log *slog.Logger) (int, error) {
	var err error
	if len(symbols) == 0 {
		symbols, err = archive.ListSymbols()
		if err != nil {
			return 0, fmt.Errorf("listing archive symbols: %w", err)
		}
	}

	total := 0
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		prices, err := archive.ReadDaily(symbol, start, end)
		if err != nil {
			return total, fmt.Errorf("reading archive for %s: %w", symbol, err)
		}
		if len(prices) == 0 {
			continue
		}
		if err := st.UpsertDailyPrices(ctx, prices); err != nil {
			return total, err
		}
		total += len(prices)
	}
	log.Info("seeded prices from archive", "symbols", len(symbols), "rows", total)
	return total, nil
}

// SyncSymbols replaces the symbol reference table with Alpaca's active,
// tradable US equities. It returns the number of symbols written.
func (im *Importer) SyncSymbols(ctx context.Context) (int, error) {
	assets, err := im.trading.GetAssets(alpaca.GetAssetsRequest{Status: "active"})
	if err != nil {
		return 0, fmt.Errorf("listing assets: %w", err)
	}

	symbols := make([]store.Symbol, 0, len(assets))
	for _, a := range assets {
		if !a.Tradable {
			continue
		}
		symbols = append(symbols, store.Symbol{
			Symbol:   a.Symbol,
			Name:     a.Name,
			Exchange: string(a.Exchange),
		})
	}
	if err := im.store.UpsertSymbols(ctx, symbols); err != nil {
		return 0, err
	}
	im.log.Info("synced symbol table", "count", len(symbols))
	return len(symbols), nil
}

// BackfillDaily fetches daily closes for the given symbols over [start, end]
// and writes them to SQLite and the parquet archive. It returns the number
// of price rows written.
func (im *Importer) BackfillDaily(ctx context.Context, symbols []string, start, end time.Time) (int, error) {
	total := 0
	for len(symbols) > 0 {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		batch := symbols
		if len(batch) > importBatchSize {
			batch = batch[:importBatchSize]
		}
		symbols = symbols[len(batch):]

		var bars map[string][]md.Bar
		err := util.Retry(ctx, 3, time.Second, func() error {
			var err error
			bars, err = im.data.GetMultiBars(batch, md.GetBarsRequest{
				TimeFrame: md.OneDay,
				Start:     start,
				End:       end,
			})
			return err
		})
		if err != nil {
			return total, fmt.Errorf("fetching daily bars: %w", err)
		}

		var prices []store.DailyPrice
		for symbol, symbolBars := range bars {
			for _, b := range symbolBars {
				prices = append(prices, store.DailyPrice{
					Symbol:       symbol,
					Date:         b.Timestamp,
					ClosingPrice: b.Close,
				})
			}
		}
		if len(prices) == 0 {
			continue
		}
		if err := im.store.UpsertDailyPrices(ctx, prices); err != nil {
			return total, err
		}
		if err := im.archive.WriteDaily(prices); err != nil {
			return total, err
		}
		total += len(prices)
		im.log.Info("backfilled batch", "symbols", len(batch), "rows", len(prices))
	}
	return total, nil
}
