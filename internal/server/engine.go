package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
	"github.com/bguntupallics/TradingSandbox/internal/marketdata"
	"github.com/bguntupallics/TradingSandbox/internal/store"
)

// TradeError is a user-facing trade refusal. Its message is shown to the
// user verbatim, so wording here is part of the API.
type TradeError struct {
	Message string
}

func (e *TradeError) Error() string { return e.Message }

func tradeErrorf(format string, args ...any) *TradeError {
	return &TradeError{Message: fmt.Sprintf(format, args...)}
}

// Engine executes simulated trades against an account. All money math uses
// decimal arithmetic; floats appear only at the JSON boundary.
type Engine struct {
	store  *store.Store
	source marketdata.Source
	log    *slog.Logger
}

// NewEngine creates a trade engine over the given store and price source.
func NewEngine(s *store.Store, src marketdata.Source, log *slog.Logger) *Engine {
	return &Engine{store: s, source: src, log: log.With("component", "engine")}
}

// Execute fills a trade request at the latest market price. It refuses when
// the market is closed, the quantity is invalid, funds are insufficient on
// a buy, or shares are insufficient on a sell. Balance, holding, and trade
// record move in one transaction.
func (e *Engine) Execute(ctx context.Context, accountID int64, req domain.TradeRequest) (domain.TradeResult, error) {
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return domain.TradeResult{}, tradeErrorf("Invalid trade type '%s'. Must be BUY or SELL.", req.Side)
	}
	qty := decimal.NewFromFloat(req.Quantity)
	if qty.LessThan(decimal.NewFromFloat(domain.MinQuantity)) {
		return domain.TradeResult{}, tradeErrorf("Quantity must be at least %v shares", domain.MinQuantity)
	}

	status, err := e.source.MarketStatus(ctx)
	if err != nil {
		return domain.TradeResult{}, fmt.Errorf("checking market status: %w", err)
	}
	if !status.Open {
		return domain.TradeResult{}, &TradeError{
			Message: "Market is currently closed. Trading is only available during market hours.",
		}
	}

	latest, err := e.source.LatestTrade(ctx, req.Symbol)
	if err != nil {
		var noData *marketdata.NoPriceDataError
		if errors.As(err, &noData) {
			return domain.TradeResult{}, &TradeError{Message: noData.Error()}
		}
		return domain.TradeResult{}, fmt.Errorf("fetching price for %s: %w", req.Symbol, err)
	}
	price := decimal.NewFromFloat(latest.Price)
	total := price.Mul(qty).Round(2)

	var result domain.TradeResult
	err = e.store.InTx(ctx, func(tx *store.Tx) error {
		acct, err := tx.Account(accountID)
		if err != nil {
			return fmt.Errorf("loading account: %w", err)
		}

		var balance decimal.Decimal
		switch req.Side {
		case domain.SideBuy:
			balance, err = e.applyBuy(tx, acct, latest.Symbol, qty, price, total)
		case domain.SideSell:
			balance, err = e.applySell(tx, acct, latest.Symbol, qty, price, total)
		}
		if err != nil {
			return err
		}

		executedAt := time.Now().UTC()
		tradeID, err := tx.InsertTrade(store.Trade{
			AccountID:     acct.ID,
			Symbol:        latest.Symbol,
			Side:          string(req.Side),
			Quantity:      qty,
			PricePerShare: price,
			TotalCost:     total,
			ExecutedAt:    executedAt,
		})
		if err != nil {
			return fmt.Errorf("recording trade: %w", err)
		}

		result = domain.TradeResult{
			TradeID:              tradeID,
			Symbol:               latest.Symbol,
			Side:                 req.Side,
			Quantity:             qty.InexactFloat64(),
			PricePerShare:        price.InexactFloat64(),
			TotalCost:            total.InexactFloat64(),
			RemainingCashBalance: balance.InexactFloat64(),
			ExecutedAt:           executedAt,
		}
		return nil
	})
	if err != nil {
		return domain.TradeResult{}, err
	}

	e.log.Info("trade executed",
		"account", accountID,
		"symbol", result.Symbol,
		"side", result.Side,
		"quantity", result.Quantity,
		"total", result.TotalCost,
	)
	return result, nil
}

// applyBuy debits cash and folds the fill into the position at weighted
// average cost. Returns the new cash balance.
func (e *Engine) applyBuy(tx *store.Tx, acct store.Account, symbol string, qty, price, total decimal.Decimal) (decimal.Decimal, error) {
	if acct.CashBalance.LessThan(total) {
		return decimal.Decimal{}, tradeErrorf("Insufficient funds. Required: $%s, Available: $%s",
			total.StringFixed(2), acct.CashBalance.StringFixed(2))
	}

	holding, err := tx.Holding(acct.ID, symbol)
	switch {
	case errors.Is(err, store.ErrNotFound):
		holding = store.Holding{AccountID: acct.ID, Symbol: symbol, Quantity: qty, AverageCost: price}
	case err != nil:
		return decimal.Decimal{}, fmt.Errorf("loading holding: %w", err)
	default:
		oldValue := holding.AverageCost.Mul(holding.Quantity)
		newQty := holding.Quantity.Add(qty)
		holding.AverageCost = oldValue.Add(total).Div(newQty)
		holding.Quantity = newQty
	}
	if err := tx.UpsertHolding(holding); err != nil {
		return decimal.Decimal{}, fmt.Errorf("updating holding: %w", err)
	}

	balance := acct.CashBalance.Sub(total)
	if err := tx.SetBalance(acct.ID, balance); err != nil {
		return decimal.Decimal{}, fmt.Errorf("updating balance: %w", err)
	}
	return balance, nil
}

// applySell credits cash and reduces the position, deleting it when fully
// sold. Returns the new cash balance.
func (e *Engine) applySell(tx *store.Tx, acct store.Account, symbol string, qty, price, total decimal.Decimal) (decimal.Decimal, error) {
	holding, err := tx.Holding(acct.ID, symbol)
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Decimal{}, tradeErrorf("You don't own any shares of %s", symbol)
	}
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("loading holding: %w", err)
	}
	if holding.Quantity.LessThan(qty) {
		return decimal.Decimal{}, tradeErrorf("Insufficient shares. You own %s shares of %s",
			holding.Quantity.String(), symbol)
	}

	remaining := holding.Quantity.Sub(qty)
	if remaining.IsZero() {
		if err := tx.DeleteHolding(acct.ID, symbol); err != nil {
			return decimal.Decimal{}, fmt.Errorf("removing holding: %w", err)
		}
	} else {
		holding.Quantity = remaining
		if err := tx.UpsertHolding(holding); err != nil {
			return decimal.Decimal{}, fmt.Errorf("updating holding: %w", err)
		}
	}

	balance := acct.CashBalance.Add(total)
	if err := tx.SetBalance(acct.ID, balance); err != nil {
		return decimal.Decimal{}, fmt.Errorf("updating balance: %w", err)
	}
	return balance, nil
}

// Portfolio values the account's positions at the latest available prices.
// A position with no price falls back to its cost basis.
func (e *Engine) Portfolio(ctx context.Context, accountID int64) (domain.Portfolio, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("loading account: %w", err)
	}
	rows, err := e.store.ListHoldings(ctx, accountID)
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("listing holdings: %w", err)
	}

	holdings := make([]domain.Holding, 0, len(rows))
	holdingsValue := decimal.Zero
	totalCost := decimal.Zero
	for _, h := range rows {
		price := h.AverageCost
		if latest, err := e.source.LatestTrade(ctx, h.Symbol); err == nil {
			price = decimal.NewFromFloat(latest.Price)
		}

		marketValue := price.Mul(h.Quantity)
		costBasis := h.AverageCost.Mul(h.Quantity)
		gain := marketValue.Sub(costBasis)
		gainPct := decimal.Zero
		if !costBasis.IsZero() {
			gainPct = gain.Div(costBasis).Mul(decimal.NewFromInt(100))
		}

		holdingsValue = holdingsValue.Add(marketValue)
		totalCost = totalCost.Add(costBasis)
		holdings = append(holdings, domain.Holding{
			Symbol:               h.Symbol,
			Quantity:             h.Quantity.InexactFloat64(),
			AverageCost:          h.AverageCost.Round(2).InexactFloat64(),
			MarketValue:          marketValue.Round(2).InexactFloat64(),
			TotalGainLoss:        gain.Round(2).InexactFloat64(),
			TotalGainLossPercent: gainPct.Round(2).InexactFloat64(),
		})
	}

	return domain.Portfolio{
		CashBalance:         acct.CashBalance.Round(2).InexactFloat64(),
		HoldingsValue:       holdingsValue.Round(2).InexactFloat64(),
		TotalPortfolioValue: acct.CashBalance.Add(holdingsValue).Round(2).InexactFloat64(),
		TotalGainLoss:       holdingsValue.Sub(totalCost).Round(2).InexactFloat64(),
		Holdings:            holdings,
	}, nil
}

// History returns the account's executed trades, most recent first.
func (e *Engine) History(ctx context.Context, accountID int64, limit int) ([]domain.TradeHistoryItem, error) {
	trades, err := e.store.ListTrades(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	items := make([]domain.TradeHistoryItem, 0, len(trades))
	for _, t := range trades {
		items = append(items, domain.TradeHistoryItem{
			ID:            t.ID,
			Symbol:        t.Symbol,
			Side:          domain.TradeSide(t.Side),
			Quantity:      t.Quantity.InexactFloat64(),
			PricePerShare: t.PricePerShare.InexactFloat64(),
			TotalCost:     t.TotalCost.InexactFloat64(),
			ExecutedAt:    t.ExecutedAt,
		})
	}
	return items, nil
}

// Balance returns the account's cash balance rounded to cents.
func (e *Engine) Balance(ctx context.Context, accountID int64) (float64, error) {
	acct, err := e.store.GetAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("loading account: %w", err)
	}
	return acct.CashBalance.Round(2).InexactFloat64(), nil
}
