package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bguntupallics/TradingSandbox/internal/config"
	"github.com/bguntupallics/TradingSandbox/internal/marketdata"
	"github.com/bguntupallics/TradingSandbox/internal/store"
	"github.com/bguntupallics/TradingSandbox/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to backfill (default: every synced symbol)")
	daysFlag := flag.Int("days", 90, "how many calendar days of daily closes to backfill")
	skipSync := flag.Bool("skip-sync", false, "skip refreshing the symbol reference table")
	fromParquet := flag.Bool("from-parquet", false, "seed SQLite from the local parquet archive instead of Alpaca")
	flag.Parse()

	cfgPath := "config/sandbox.yaml"
	if p := os.Getenv("SANDBOX_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if !*fromParquet && cfg.Alpaca.APIKey == "" {
		log.Fatal("Alpaca credentials required (config or APCA_API_KEY_ID/APCA_API_SECRET_KEY), or pass -from-parquet")
	}

	logFileName := fmt.Sprintf("/tmp/sandbox-import-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()
	logger := util.NewLogger(io.MultiWriter(os.Stdout, logFile), cfg.Logging.Level)

	st, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	parquetDir := cfg.Storage.ParquetDir
	if parquetDir == "" {
		parquetDir = "data"
	}
	archive := store.NewParquetArchive(parquetDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	end := time.Now()
	start := end.AddDate(0, 0, -*daysFlag)

	if *fromParquet {
		rows, err := marketdata.SeedFromArchive(ctx, archive, st, splitSymbols(*symbolsFlag), start, end, logger)
		if err != nil {
			log.Fatalf("seeding from archive failed after %d rows: %v", rows, err)
		}
		logger.Info("seed complete", "rows", rows)
		return
	}

	importer := marketdata.NewImporter(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.BaseURL,
		cfg.Alpaca.DataURL,
		st,
		archive,
		logger,
	)

	if !*skipSync {
		count, err := importer.SyncSymbols(ctx)
		if err != nil {
			log.Fatalf("syncing symbols: %v", err)
		}
		logger.Info("symbol sync complete", "count", count)
	}

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		symbols, err = st.ListSymbols(ctx)
		if err != nil {
			log.Fatalf("listing symbols: %v", err)
		}
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols to backfill; pass -symbols or run a symbol sync first")
	}

	logger.Info("backfilling daily closes", "symbols", len(symbols), "start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	rows, err := importer.BackfillDaily(ctx, symbols, start, end)
	if err != nil {
		log.Fatalf("backfill failed after %d rows: %v", rows, err)
	}
	logger.Info("backfill complete", "rows", rows)
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if sym := strings.ToUpper(strings.TrimSpace(part)); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}
