package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bguntupallics/TradingSandbox/internal/store"
)

// ErrInvalidCredentials is returned when the email or password is wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Auth manages sandbox accounts and bearer sessions. Passwords are stored
// as unsalted SHA-256 digests: this is a paper-trading sandbox, not a
// system of record for real credentials.
type Auth struct {
	store        *store.Store
	startingCash decimal.Decimal
	log          *slog.Logger
}

// NewAuth creates an Auth over the given store. New accounts start with
// startingCash in their balance.
func NewAuth(s *store.Store, startingCash decimal.Decimal, log *slog.Logger) *Auth {
	return &Auth{store: s, startingCash: startingCash, log: log.With("component", "auth")}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Login verifies credentials and returns a fresh session token. An unknown
// email registers a new account with the starting balance.
func (a *Auth) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	acct, err := a.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		acct, err = a.store.CreateAccount(ctx, email, hashPassword(password), a.startingCash)
		if err != nil {
			return "", fmt.Errorf("creating account: %w", err)
		}
		a.log.Info("account created", "email", email, "startingCash", a.startingCash)
	} else if err != nil {
		return "", fmt.Errorf("loading account: %w", err)
	} else if acct.PasswordHash != hashPassword(password) {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := a.store.CreateSession(ctx, token, acct.ID); err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}

// Logout invalidates a session token. Unknown tokens are a no-op.
func (a *Auth) Logout(ctx context.Context, token string) error {
	return a.store.DeleteSession(ctx, token)
}

// Resolve maps a bearer token to its account ID.
func (a *Auth) Resolve(ctx context.Context, token string) (int64, error) {
	id, err := a.store.GetSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrInvalidCredentials
	}
	return id, err
}
