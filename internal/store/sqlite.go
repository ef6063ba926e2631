package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// Store is the SQLite-backed sandbox store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS symbols (
	symbol   TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	exchange TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS daily_prices (
	symbol        TEXT NOT NULL,
	date          TEXT NOT NULL,
	closing_price REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);
CREATE TABLE IF NOT EXISTS accounts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	cash_balance  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS holdings (
	account_id   INTEGER NOT NULL,
	symbol       TEXT NOT NULL,
	quantity     TEXT NOT NULL,
	average_cost TEXT NOT NULL,
	PRIMARY KEY (account_id, symbol)
);
CREATE TABLE IF NOT EXISTS trades (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id      INTEGER NOT NULL,
	symbol          TEXT NOT NULL,
	side            TEXT NOT NULL,
	quantity        TEXT NOT NULL,
	price_per_share TEXT NOT NULL,
	total_cost      TEXT NOT NULL,
	executed_at     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	account_id INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
`

// Open opens (or creates) the SQLite database at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// The sandbox is a single-process server; one writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Symbols
// ---------------------------------------------------------------------------

// UpsertSymbols inserts or replaces reference rows for the given symbols.
func (s *Store) UpsertSymbols(ctx context.Context, symbols []Symbol) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO symbols (symbol, name, exchange) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, sym := range symbols {
		if _, err := stmt.ExecContext(ctx, sym.Symbol, sym.Name, sym.Exchange); err != nil {
			return fmt.Errorf("upserting %s: %w", sym.Symbol, err)
		}
	}
	return tx.Commit()
}

// SearchSymbols returns up to limit symbols whose ticker or name starts with
// the query, exact ticker matches first, then by ticker.
func (s *Store) SearchSymbols(ctx context.Context, query string, limit int) ([]Symbol, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, name, exchange FROM symbols
		WHERE symbol LIKE ? OR UPPER(name) LIKE ?
		ORDER BY (symbol = ?) DESC, symbol ASC
		LIMIT ?`,
		q+"%", q+"%", q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Symbol
	for rows.Next() {
		var sym Symbol
		if err := rows.Scan(&sym.Symbol, &sym.Name, &sym.Exchange); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// ListSymbols returns every ticker in the reference table.
func (s *Store) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM symbols ORDER BY symbol ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// GetSymbol looks up one symbol. Returns ErrNotFound when unknown.
func (s *Store) GetSymbol(ctx context.Context, symbol string) (Symbol, error) {
	var sym Symbol
	err := s.db.QueryRowContext(ctx,
		`SELECT symbol, name, exchange FROM symbols WHERE symbol = ?`,
		strings.ToUpper(symbol)).Scan(&sym.Symbol, &sym.Name, &sym.Exchange)
	if errors.Is(err, sql.ErrNoRows) {
		return Symbol{}, ErrNotFound
	}
	return sym, err
}

// ---------------------------------------------------------------------------
// Daily prices
// ---------------------------------------------------------------------------

const dateLayout = "2006-01-02"

// UpsertDailyPrices inserts or replaces daily closing prices.
func (s *Store) UpsertDailyPrices(ctx context.Context, prices []DailyPrice) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO daily_prices (symbol, date, closing_price) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx, p.Symbol, p.Date.Format(dateLayout), p.ClosingPrice); err != nil {
			return fmt.Errorf("upserting %s@%s: %w", p.Symbol, p.Date.Format(dateLayout), err)
		}
	}
	return tx.Commit()
}

// PricesBetween returns daily prices for symbol in [start, end], ascending.
func (s *Store) PricesBetween(ctx context.Context, symbol string, start, end time.Time) ([]DailyPrice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, date, closing_price FROM daily_prices
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		strings.ToUpper(symbol), start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyPrice
	for rows.Next() {
		var p DailyPrice
		var date string
		if err := rows.Scan(&p.Symbol, &date, &p.ClosingPrice); err != nil {
			return nil, err
		}
		p.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parsing stored date %q: %w", date, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestPrice returns the most recent stored closing price for symbol.
func (s *Store) LatestPrice(ctx context.Context, symbol string) (DailyPrice, error) {
	var p DailyPrice
	var date string
	err := s.db.QueryRowContext(ctx, `
		SELECT symbol, date, closing_price FROM daily_prices
		WHERE symbol = ? ORDER BY date DESC LIMIT 1`,
		strings.ToUpper(symbol)).Scan(&p.Symbol, &date, &p.ClosingPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return DailyPrice{}, ErrNotFound
	}
	if err != nil {
		return DailyPrice{}, err
	}
	p.Date, err = time.Parse(dateLayout, date)
	return p, err
}

// ---------------------------------------------------------------------------
// Accounts and sessions
// ---------------------------------------------------------------------------

// CreateAccount inserts a new account with the given starting balance.
func (s *Store) CreateAccount(ctx context.Context, email, passwordHash string, startingCash decimal.Decimal) (Account, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (email, password_hash, cash_balance) VALUES (?, ?, ?)`,
		email, passwordHash, startingCash.String())
	if err != nil {
		return Account{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Account{}, err
	}
	return Account{ID: id, Email: email, PasswordHash: passwordHash, CashBalance: startingCash}, nil
}

func scanAccount(row *sql.Row) (Account, error) {
	var a Account
	var balance string
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	a.CashBalance, err = decimal.NewFromString(balance)
	return a, err
}

// GetAccountByEmail looks up an account by email.
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, cash_balance FROM accounts WHERE email = ?`, email))
}

// GetAccount looks up an account by ID.
func (s *Store) GetAccount(ctx context.Context, id int64) (Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, cash_balance FROM accounts WHERE id = ?`, id))
}

// CreateSession records a session token for an account.
func (s *Store) CreateSession(ctx context.Context, token string, accountID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, account_id, created_at) VALUES (?, ?, ?)`,
		token, accountID, time.Now().UTC().Format(time.RFC3339))
	return err
}

// GetSession resolves a session token to its account ID.
func (s *Store) GetSession(ctx context.Context, token string) (int64, error) {
	var accountID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT account_id FROM sessions WHERE token = ?`, token).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return accountID, err
}

// DeleteSession removes a session token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// ---------------------------------------------------------------------------
// Holdings and trades (transactional)
// ---------------------------------------------------------------------------

// Tx wraps one account-mutating transaction.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// InTx runs fn inside a transaction, committing on nil and rolling back on
// error. Trade execution uses this so balance, holding, and trade row move
// together.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	t := &Tx{tx: sqlTx, ctx: ctx}
	if err := fn(t); err != nil {
		sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// Account fetches the account row inside the transaction.
func (t *Tx) Account(id int64) (Account, error) {
	var a Account
	var balance string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT id, email, password_hash, cash_balance FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Email, &a.PasswordHash, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	a.CashBalance, err = decimal.NewFromString(balance)
	return a, err
}

// SetBalance updates the account's cash balance.
func (t *Tx) SetBalance(accountID int64, balance decimal.Decimal) error {
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE accounts SET cash_balance = ? WHERE id = ?`, balance.String(), accountID)
	return err
}

// Holding fetches one position. Returns ErrNotFound when the account holds
// no shares of symbol.
func (t *Tx) Holding(accountID int64, symbol string) (Holding, error) {
	var h Holding
	var qty, avg string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT account_id, symbol, quantity, average_cost FROM holdings
		 WHERE account_id = ? AND symbol = ?`, accountID, symbol).
		Scan(&h.AccountID, &h.Symbol, &qty, &avg)
	if errors.Is(err, sql.ErrNoRows) {
		return Holding{}, ErrNotFound
	}
	if err != nil {
		return Holding{}, err
	}
	if h.Quantity, err = decimal.NewFromString(qty); err != nil {
		return Holding{}, err
	}
	h.AverageCost, err = decimal.NewFromString(avg)
	return h, err
}

// UpsertHolding inserts or replaces a position.
func (t *Tx) UpsertHolding(h Holding) error {
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT OR REPLACE INTO holdings (account_id, symbol, quantity, average_cost)
		 VALUES (?, ?, ?, ?)`,
		h.AccountID, h.Symbol, h.Quantity.String(), h.AverageCost.String())
	return err
}

// DeleteHolding removes a fully-sold position.
func (t *Tx) DeleteHolding(accountID int64, symbol string) error {
	_, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM holdings WHERE account_id = ? AND symbol = ?`, accountID, symbol)
	return err
}

// InsertTrade records an executed trade and returns its ID.
func (t *Tx) InsertTrade(trade Trade) (int64, error) {
	res, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO trades (account_id, symbol, side, quantity, price_per_share, total_cost, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		trade.AccountID, trade.Symbol, trade.Side,
		trade.Quantity.String(), trade.PricePerShare.String(), trade.TotalCost.String(),
		trade.ExecutedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListHoldings returns all positions for an account, by symbol.
func (s *Store) ListHoldings(ctx context.Context, accountID int64) ([]Holding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, symbol, quantity, average_cost FROM holdings
		 WHERE account_id = ? ORDER BY symbol ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holding
	for rows.Next() {
		var h Holding
		var qty, avg string
		if err := rows.Scan(&h.AccountID, &h.Symbol, &qty, &avg); err != nil {
			return nil, err
		}
		if h.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if h.AverageCost, err = decimal.NewFromString(avg); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListTrades returns an account's trades, most recent first.
func (s *Store) ListTrades(ctx context.Context, accountID int64, limit int) ([]Trade, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, symbol, side, quantity, price_per_share, total_cost, executed_at
		 FROM trades WHERE account_id = ? ORDER BY executed_at DESC, id DESC LIMIT ?`,
		accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var tr Trade
		var qty, price, cost, executed string
		if err := rows.Scan(&tr.ID, &tr.AccountID, &tr.Symbol, &tr.Side, &qty, &price, &cost, &executed); err != nil {
			return nil, err
		}
		if tr.Quantity, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if tr.PricePerShare, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		if tr.TotalCost, err = decimal.NewFromString(cost); err != nil {
			return nil, err
		}
		if tr.ExecutedAt, err = time.Parse(time.RFC3339, executed); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}
