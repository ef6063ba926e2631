// Package marketdata provides symbol reference and price history lookups.
// Two sources exist: AlpacaSource backed by the Alpaca market-data API, and
// LocalSource backed by previously imported data in SQLite. The trading
// server picks one at startup and serves the same HTTP API either way.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// ErrUnknownSymbol is returned by Validate and price lookups when the symbol
// does not exist upstream.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Source resolves symbols and serves historical and latest prices.
type Source interface {
	// Search returns up to limit suggestions matching the query prefix.
	Search(ctx context.Context, query string, limit int) ([]domain.Suggestion, error)

	// Validate checks a ticker and returns its reference data. Returns
	// ErrUnknownSymbol when the ticker does not resolve.
	Validate(ctx context.Context, symbol string) (domain.Validation, error)

	// Series returns the closing-price series for symbol over the period,
	// oldest first. An empty series is reported as an error.
	Series(ctx context.Context, symbol string, period domain.Period) ([]domain.PricePoint, error)

	// LatestTrade returns the most recent trade price for symbol.
	LatestTrade(ctx context.Context, symbol string) (domain.LatestTrade, error)

	// MarketStatus reports whether the market is open and when it next
	// opens and closes.
	MarketStatus(ctx context.Context) (domain.MarketStatus, error)
}

// easternTime is the chart label timezone. Price labels always render in
// US market time regardless of server locale.
var easternTime = mustLoadEastern()

func mustLoadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("loading America/New_York: %v", err))
	}
	return loc
}

// PointLabel formats the chart label for a bar timestamp: time of day for
// intraday windows, month/day otherwise.
func PointLabel(ts time.Time, period domain.Period) string {
	et := ts.In(easternTime)
	if period.Intraday() {
		return et.Format("3:04 PM")
	}
	return fmt.Sprintf("%d/%d", int(et.Month()), et.Day())
}

// NoPriceDataError reports an empty series for a symbol.
type NoPriceDataError struct {
	Symbol string
}

func (e *NoPriceDataError) Error() string {
	return fmt.Sprintf("no price data found for %s", e.Symbol)
}
