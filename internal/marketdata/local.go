package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
	"github.com/bguntupallics/TradingSandbox/internal/store"
	"github.com/bguntupallics/TradingSandbox/internal/util"
)

var _ Source = (*LocalSource)(nil)

// LocalSource serves symbols and prices from previously imported SQLite
// data. It needs no network or credentials, which makes the sandbox usable
// offline; market hours come from the weekday trading calendar. Only daily
// resolution exists locally, so intraday periods degrade to daily closes.
type LocalSource struct {
	store    *store.Store
	calendar *util.TradingCalendar
}

// NewLocalSource creates a source over the given store.
func NewLocalSource(s *store.Store, cal *util.TradingCalendar) *LocalSource {
	return &LocalSource{store: s, calendar: cal}
}

func (s *LocalSource) Search(ctx context.Context, query string, limit int) ([]domain.Suggestion, error) {
	symbols, err := s.store.SearchSymbols(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching symbols: %w", err)
	}
	out := make([]domain.Suggestion, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, domain.Suggestion{
			Symbol:   sym.Symbol,
			Name:     sym.Name,
			Exchange: sym.Exchange,
		})
	}
	return out, nil
}

func (s *LocalSource) Validate(ctx context.Context, symbol string) (domain.Validation, error) {
	sym, err := s.store.GetSymbol(ctx, strings.TrimSpace(symbol))
	if errors.Is(err, store.ErrNotFound) {
		return domain.Validation{}, ErrUnknownSymbol
	}
	if err != nil {
		return domain.Validation{}, fmt.Errorf("looking up symbol: %w", err)
	}
	return domain.Validation{
		Valid:    true,
		Symbol:   sym.Symbol,
		Name:     sym.Name,
		Exchange: sym.Exchange,
		Tradable: true,
	}, nil
}

func (s *LocalSource) Series(ctx context.Context, symbol string, period domain.Period) ([]domain.PricePoint, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -period.DaysBack())

	prices, err := s.store.PricesBetween(ctx, sym, start, end)
	if err != nil {
		return nil, fmt.Errorf("reading prices for %s: %w", sym, err)
	}
	if len(prices) == 0 {
		return nil, &NoPriceDataError{Symbol: sym}
	}

	points := make([]domain.PricePoint, 0, len(prices))
	for _, p := range prices {
		points = append(points, domain.PricePoint{
			Symbol:       sym,
			Timestamp:    p.Date,
			Label:        PointLabel(p.Date, period),
			ClosingPrice: p.ClosingPrice,
		})
	}
	return points, nil
}

// LatestTrade reports the newest stored daily close. With no live feed the
// last close is the best available price.
func (s *LocalSource) LatestTrade(ctx context.Context, symbol string) (domain.LatestTrade, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	price, err := s.store.LatestPrice(ctx, sym)
	if errors.Is(err, store.ErrNotFound) {
		return domain.LatestTrade{}, &NoPriceDataError{Symbol: sym}
	}
	if err != nil {
		return domain.LatestTrade{}, fmt.Errorf("reading latest price for %s: %w", sym, err)
	}
	return domain.LatestTrade{
		Symbol:    sym,
		Price:     price.ClosingPrice,
		Timestamp: price.Date,
	}, nil
}

func (s *LocalSource) MarketStatus(_ context.Context) (domain.MarketStatus, error) {
	now := time.Now()
	return domain.MarketStatus{
		Open:      s.calendar.IsMarketOpen(now),
		NextOpen:  s.calendar.NextOpen(now),
		NextClose: s.calendar.NextClose(now),
	}, nil
}
