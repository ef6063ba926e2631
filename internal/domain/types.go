// Package domain defines the shared types of the trading sandbox: symbol
// suggestions, price series, trade requests and results, and the small pure
// functions the client computes over them.
package domain

import "time"

// Suggestion is a single autocomplete candidate returned by symbol search.
type Suggestion struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// CommittedSymbol is a symbol accepted as the subject of price and trade
// operations, either by selecting a suggestion or by passing validation.
// It is replaced wholesale on every commit and never mutated.
type CommittedSymbol struct {
	Symbol string
	Name   string
}

// Validation is the server's answer to a validate-symbol request.
type Validation struct {
	Valid    bool   `json:"valid"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Tradable bool   `json:"tradable"`
	Error    string `json:"error,omitempty"`
}

// PricePoint is one closing price in a historical series.
type PricePoint struct {
	Symbol       string    `json:"symbol"`
	Timestamp    time.Time `json:"timestamp"`
	Label        string    `json:"dateLabel"`
	ClosingPrice float64   `json:"closingPrice"`
}

// LatestTrade is the most recent trade price for a symbol.
type LatestTrade struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketStatus reports whether the market is open and the next transitions.
type MarketStatus struct {
	Open      bool      `json:"open"`
	NextOpen  time.Time `json:"nextOpen"`
	NextClose time.Time `json:"nextClose"`
}

// TradeSide is the direction of an order.
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// Toggle returns the opposite side.
func (s TradeSide) Toggle() TradeSide {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// TradeRequest is an order submitted for execution.
type TradeRequest struct {
	Symbol   string    `json:"symbol"`
	Quantity float64   `json:"quantity"`
	Side     TradeSide `json:"type"`
}

// TradeResult is the fill receipt for an executed trade. RemainingCashBalance
// is authoritative: clients display it as-is instead of recomputing.
type TradeResult struct {
	TradeID              int64     `json:"tradeId"`
	Symbol               string    `json:"symbol"`
	Side                 TradeSide `json:"type"`
	Quantity             float64   `json:"quantity"`
	PricePerShare        float64   `json:"pricePerShare"`
	TotalCost            float64   `json:"totalCost"`
	RemainingCashBalance float64   `json:"remainingCashBalance"`
	ExecutedAt           time.Time `json:"executedAt"`
}

// Holding is one position in a portfolio.
type Holding struct {
	Symbol               string  `json:"symbol"`
	Quantity             float64 `json:"quantity"`
	AverageCost          float64 `json:"averageCost"`
	MarketValue          float64 `json:"marketValue"`
	TotalGainLoss        float64 `json:"totalGainLoss"`
	TotalGainLossPercent float64 `json:"totalGainLossPercent"`
}

// Portfolio is the account snapshot served by the portfolio endpoint.
type Portfolio struct {
	CashBalance         float64   `json:"cashBalance"`
	HoldingsValue       float64   `json:"holdingsValue"`
	TotalPortfolioValue float64   `json:"totalPortfolioValue"`
	TotalGainLoss       float64   `json:"totalGainLoss"`
	Holdings            []Holding `json:"holdings"`
}

// TradeHistoryItem is one executed trade in the account history.
type TradeHistoryItem struct {
	ID            int64     `json:"id"`
	Symbol        string    `json:"symbol"`
	Side          TradeSide `json:"type"`
	Quantity      float64   `json:"quantity"`
	PricePerShare float64   `json:"pricePerShare"`
	TotalCost     float64   `json:"totalCost"`
	ExecutedAt    time.Time `json:"executedAt"`
}
