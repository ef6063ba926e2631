// Package store persists the sandbox's reference data and account state:
// known symbols, daily closing prices, accounts, holdings, executed trades,
// and sessions.
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is one listed security in the reference table.
type Symbol struct {
	Symbol   string
	Name     string
	Exchange string
}

// DailyPrice is one closing price for a symbol on a trading day.
type DailyPrice struct {
	Symbol       string
	Date         time.Time
	ClosingPrice float64
}

// Account is a sandbox trading account. CashBalance is exact decimal; it is
// only converted to float at the JSON boundary.
type Account struct {
	ID           int64
	Email        string
	PasswordHash string
	CashBalance  decimal.Decimal
}

// Holding is one position held by an account.
type Holding struct {
	AccountID   int64
	Symbol      string
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// Trade is one executed order.
type Trade struct {
	ID            int64
	AccountID     int64
	Symbol        string
	Side          string
	Quantity      decimal.Decimal
	PricePerShare decimal.Decimal
	TotalCost     decimal.Decimal
	ExecutedAt    time.Time
}
