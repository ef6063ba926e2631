package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
	"github.com/bguntupallics/TradingSandbox/internal/marketdata"
	"github.com/bguntupallics/TradingSandbox/internal/store"
)

// fakeSource serves a fixed price table with a switchable market clock.
type fakeSource struct {
	prices     map[string]float64
	marketOpen bool
}

var _ marketdata.Source = (*fakeSource)(nil)

func (f *fakeSource) Search(_ context.Context, query string, _ int) ([]domain.Suggestion, error) {
	var out []domain.Suggestion
	for sym := range f.prices {
		if sym == query {
			out = append(out, domain.Suggestion{Symbol: sym})
		}
	}
	return out, nil
}

func (f *fakeSource) Validate(_ context.Context, symbol string) (domain.Validation, error) {
	if _, ok := f.prices[symbol]; !ok {
		return domain.Validation{}, marketdata.ErrUnknownSymbol
	}
	return domain.Validation{Valid: true, Symbol: symbol, Tradable: true}, nil
}

func (f *fakeSource) Series(_ context.Context, symbol string, period domain.Period) ([]domain.PricePoint, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return nil, &marketdata.NoPriceDataError{Symbol: symbol}
	}
	return []domain.PricePoint{
		{Symbol: symbol, Timestamp: time.Now().Add(-24 * time.Hour), Label: "7/8", ClosingPrice: price - 1},
		{Symbol: symbol, Timestamp: time.Now(), Label: "7/9", ClosingPrice: price},
	}, nil
}

func (f *fakeSource) LatestTrade(_ context.Context, symbol string) (domain.LatestTrade, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return domain.LatestTrade{}, &marketdata.NoPriceDataError{Symbol: symbol}
	}
	return domain.LatestTrade{Symbol: symbol, Price: price, Timestamp: time.Now()}, nil
}

func (f *fakeSource) MarketStatus(_ context.Context) (domain.MarketStatus, error) {
	return domain.MarketStatus{Open: f.marketOpen}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, src *fakeSource) (*Engine, int64) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	acct, err := s.CreateAccount(context.Background(), "test@example.com", "hash", decimal.NewFromInt(10000))
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return NewEngine(s, src, discardLogger()), acct.ID
}

func TestExecuteBuy(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 150.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)

	result, err := eng.Execute(context.Background(), acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideBuy,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.TotalCost != 1500.0 {
		t.Errorf("TotalCost = %v, want 1500", result.TotalCost)
	}
	if result.RemainingCashBalance != 8500.0 {
		t.Errorf("RemainingCashBalance = %v, want 8500", result.RemainingCashBalance)
	}
	if result.TradeID == 0 {
		t.Error("TradeID is zero")
	}
	if result.Side != domain.SideBuy || result.Symbol != "AAPL" {
		t.Errorf("result = %+v, want AAPL BUY", result)
	}
}

func TestExecuteBuyInsufficientFunds(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 150.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)

	_, err := eng.Execute(context.Background(), acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 100, Side: domain.SideBuy,
	})
	var tradeErr *TradeError
	if !errors.As(err, &tradeErr) {
		t.Fatalf("Execute error = %v, want TradeError", err)
	}
	want := "Insufficient funds. Required: $15000.00, Available: $10000.00"
	if tradeErr.Message != want {
		t.Errorf("message = %q, want %q", tradeErr.Message, want)
	}
}

func TestExecuteMarketClosed(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 150.0}, marketOpen: false}
	eng, acctID := newTestEngine(t, src)

	_, err := eng.Execute(context.Background(), acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideBuy,
	})
	var tradeErr *TradeError
	if !errors.As(err, &tradeErr) {
		t.Fatalf("Execute error = %v, want TradeError", err)
	}
	want := "Market is currently closed. Trading is only available during market hours."
	if tradeErr.Message != want {
		t.Errorf("message = %q, want %q", tradeErr.Message, want)
	}
}

func TestExecuteSellWithoutShares(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 150.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)

	_, err := eng.Execute(context.Background(), acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 1, Side: domain.SideSell,
	})
	var tradeErr *TradeError
	if !errors.As(err, &tradeErr) {
		t.Fatalf("Execute error = %v, want TradeError", err)
	}
	if want := "You don't own any shares of AAPL"; tradeErr.Message != want {
		t.Errorf("message = %q, want %q", tradeErr.Message, want)
	}
}

func TestExecuteSellInsufficientShares(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 150.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)
	ctx := context.Background()

	if _, err := eng.Execute(ctx, acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 5, Side: domain.SideBuy,
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	_, err := eng.Execute(ctx, acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideSell,
	})
	var tradeErr *TradeError
	if !errors.As(err, &tradeErr) {
		t.Fatalf("Execute error = %v, want TradeError", err)
	}
	if want := "Insufficient shares. You own 5 shares of AAPL"; tradeErr.Message != want {
		t.Errorf("message = %q, want %q", tradeErr.Message, want)
	}
}

func TestExecuteBuyAveragesCost(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 100.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)
	ctx := context.Background()

	if _, err := eng.Execute(ctx, acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideBuy,
	}); err != nil {
		t.Fatalf("first buy: %v", err)
	}

	// Second buy at a higher price moves the average to the weighted mean.
	src.prices["AAPL"] = 200.0
	if _, err := eng.Execute(ctx, acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideBuy,
	}); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	p, err := eng.Portfolio(ctx, acctID)
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(p.Holdings) != 1 {
		t.Fatalf("holdings = %d, want 1", len(p.Holdings))
	}
	if p.Holdings[0].AverageCost != 150.0 {
		t.Errorf("AverageCost = %v, want 150", p.Holdings[0].AverageCost)
	}
	if p.Holdings[0].Quantity != 20.0 {
		t.Errorf("Quantity = %v, want 20", p.Holdings[0].Quantity)
	}
}

func TestExecuteSellAllRemovesHolding(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 150.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)
	ctx := context.Background()

	if _, err := eng.Execute(ctx, acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideBuy,
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}
	result, err := eng.Execute(ctx, acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideSell,
	})
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if result.RemainingCashBalance != 10000.0 {
		t.Errorf("RemainingCashBalance = %v, want 10000", result.RemainingCashBalance)
	}

	p, err := eng.Portfolio(ctx, acctID)
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(p.Holdings) != 0 {
		t.Errorf("holdings after sell-all = %+v, want none", p.Holdings)
	}
}

func TestExecuteQuantityTooSmall(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 150.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)

	_, err := eng.Execute(context.Background(), acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 0, Side: domain.SideBuy,
	})
	var tradeErr *TradeError
	if !errors.As(err, &tradeErr) {
		t.Fatalf("Execute error = %v, want TradeError", err)
	}
}

func TestPortfolioValuation(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 100.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)
	ctx := context.Background()

	if _, err := eng.Execute(ctx, acctID, domain.TradeRequest{
		Symbol: "AAPL", Quantity: 10, Side: domain.SideBuy,
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// Price rises 20% after the fill.
	src.prices["AAPL"] = 120.0
	p, err := eng.Portfolio(ctx, acctID)
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if p.CashBalance != 9000.0 {
		t.Errorf("CashBalance = %v, want 9000", p.CashBalance)
	}
	if p.HoldingsValue != 1200.0 {
		t.Errorf("HoldingsValue = %v, want 1200", p.HoldingsValue)
	}
	if p.TotalPortfolioValue != 10200.0 {
		t.Errorf("TotalPortfolioValue = %v, want 10200", p.TotalPortfolioValue)
	}
	if p.TotalGainLoss != 200.0 {
		t.Errorf("TotalGainLoss = %v, want 200", p.TotalGainLoss)
	}
	if p.Holdings[0].TotalGainLossPercent != 20.0 {
		t.Errorf("TotalGainLossPercent = %v, want 20", p.Holdings[0].TotalGainLossPercent)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	src := &fakeSource{prices: map[string]float64{"AAPL": 100.0, "MSFT": 400.0}, marketOpen: true}
	eng, acctID := newTestEngine(t, src)
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "MSFT"} {
		if _, err := eng.Execute(ctx, acctID, domain.TradeRequest{
			Symbol: sym, Quantity: 1, Side: domain.SideBuy,
		}); err != nil {
			t.Fatalf("buy %s: %v", sym, err)
		}
	}

	items, err := eng.History(ctx, acctID, 50)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("history length = %d, want 2", len(items))
	}
	if items[0].Symbol != "MSFT" {
		t.Errorf("newest trade = %s, want MSFT", items[0].Symbol)
	}
}
