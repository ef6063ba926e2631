package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bguntupallics/TradingSandbox/internal/config"
	"github.com/bguntupallics/TradingSandbox/internal/marketdata"
	"github.com/bguntupallics/TradingSandbox/internal/server"
	"github.com/bguntupallics/TradingSandbox/internal/store"
	"github.com/bguntupallics/TradingSandbox/internal/util"
)

func main() {
	cfgPath := "config/sandbox.yaml"
	if p := os.Getenv("SANDBOX_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	var w io.Writer = os.Stdout
	if cfg.Logging.File != "" {
		logFile, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("opening log file: %v", err)
		}
		defer logFile.Close()
		w = io.MultiWriter(os.Stdout, logFile)
	}
	logger := util.NewLogger(w, cfg.Logging.Level)

	st, err := store.Open(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer st.Close()

	// With Alpaca credentials the server serves live data; without them it
	// serves whatever sandbox-import has loaded into SQLite.
	var source marketdata.Source
	if cfg.Alpaca.APIKey != "" {
		source = marketdata.NewAlpacaSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL, logger)
		logger.Info("using Alpaca market data source")
	} else {
		calendar, err := util.NewTradingCalendar()
		if err != nil {
			log.Fatalf("loading trading calendar: %v", err)
		}
		source = marketdata.NewLocalSource(st, calendar)
		logger.Info("no Alpaca credentials, using local market data source")
	}

	engine := server.NewEngine(st, source, logger)
	auth := server.NewAuth(st, decimal.NewFromFloat(cfg.Auth.StartingCashBalance), logger)
	srv := server.New(engine, auth, source, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("sandbox server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down sandbox server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
