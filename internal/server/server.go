// Package server implements the sandbox trading HTTP API: auth, symbol
// search and validation, price history, and simulated trade execution.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
	"github.com/bguntupallics/TradingSandbox/internal/marketdata"
)

// defaultSearchLimit caps autocomplete responses when the client does not
// pass an explicit limit.
const defaultSearchLimit = 10

const defaultHistoryLimit = 100

// Server wires the HTTP routes to the engine, auth, and price source.
type Server struct {
	engine *Engine
	auth   *Auth
	source marketdata.Source
	log    *slog.Logger
}

// New creates a Server.
func New(engine *Engine, auth *Auth, source marketdata.Source, log *slog.Logger) *Server {
	return &Server{engine: engine, auth: auth, source: source, log: log.With("component", "http")}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /api/stocks/search", s.handleSearch)
	mux.HandleFunc("GET /api/stocks/validate/{symbol}", s.handleValidate)
	mux.HandleFunc("GET /api/prices/{symbol}/period/{period}", s.handlePrices)
	mux.HandleFunc("GET /api/prices/{symbol}/latest-trade", s.handleLatestTrade)
	mux.HandleFunc("GET /api/prices/market-status", s.handleMarketStatus)
	mux.HandleFunc("POST /api/trade/execute", s.requireAuth(s.handleExecute))
	mux.HandleFunc("GET /api/trade/portfolio", s.requireAuth(s.handlePortfolio))
	mux.HandleFunc("GET /api/trade/history", s.requireAuth(s.handleHistory))
	mux.HandleFunc("GET /api/account/balance", s.requireAuth(s.handleBalance))
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

type accountKey struct{}

// requireAuth resolves the bearer token and stashes the account ID in the
// request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		accountID, err := s.auth.Resolve(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		ctx := context.WithValue(r.Context(), accountKey{}, accountID)
		next(w, r.WithContext(ctx))
	}
}

func accountID(r *http.Request) int64 {
	id, _ := r.Context().Value(accountKey{}).(int64)
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		s.log.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.auth.Logout(r.Context(), token); err != nil {
		s.log.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := s.source.Search(r.Context(), q, limit)
	if err != nil {
		s.log.Error("symbol search failed", "q", q, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if results == nil {
		results = []domain.Suggestion{}
	}
	writeJSON(w, map[string]any{"results": results})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))

	v, err := s.source.Validate(r.Context(), symbol)
	if errors.Is(err, marketdata.ErrUnknownSymbol) {
		writeJSON(w, domain.Validation{
			Valid: false,
			Error: fmt.Sprintf("Stock symbol '%s' not found. Please check the ticker and try again.", symbol),
		})
		return
	}
	if err != nil {
		s.log.Error("validate failed", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "validation failed")
		return
	}
	writeJSON(w, v)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
	period, ok := domain.ParsePeriod(r.PathValue("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid period '%s'", r.PathValue("period")))
		return
	}

	points, err := s.source.Series(r.Context(), symbol, period)
	if err != nil {
		var noData *marketdata.NoPriceDataError
		if errors.As(err, &noData) {
			writeError(w, http.StatusNotFound, noData.Error())
			return
		}
		s.log.Error("price series failed", "symbol", symbol, "period", period, "error", err)
		writeError(w, http.StatusInternalServerError, "fetching prices failed")
		return
	}
	writeJSON(w, points)
}

func (s *Server) handleLatestTrade(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))

	latest, err := s.source.LatestTrade(r.Context(), symbol)
	if err != nil {
		var noData *marketdata.NoPriceDataError
		if errors.As(err, &noData) {
			writeError(w, http.StatusNotFound, noData.Error())
			return
		}
		s.log.Error("latest trade failed", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "fetching latest trade failed")
		return
	}
	writeJSON(w, latest)
}

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.source.MarketStatus(r.Context())
	if err != nil {
		s.log.Error("market status failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fetching market status failed")
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req domain.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))

	result, err := s.engine.Execute(r.Context(), accountID(r), req)
	if err != nil {
		var tradeErr *TradeError
		if errors.As(err, &tradeErr) {
			writeError(w, http.StatusBadRequest, tradeErr.Message)
			return
		}
		s.log.Error("trade execution failed", "symbol", req.Symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "trade execution failed")
		return
	}
	writeJSON(w, result)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.engine.Portfolio(r.Context(), accountID(r))
	if err != nil {
		s.log.Error("portfolio failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fetching portfolio failed")
		return
	}
	if p.Holdings == nil {
		p.Holdings = []domain.Holding{}
	}
	writeJSON(w, p)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items, err := s.engine.History(r.Context(), accountID(r), limit)
	if err != nil {
		s.log.Error("history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fetching history failed")
		return
	}
	if items == nil {
		items = []domain.TradeHistoryItem{}
	}
	writeJSON(w, items)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.engine.Balance(r.Context(), accountID(r))
	if err != nil {
		s.log.Error("balance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "fetching balance failed")
		return
	}
	writeJSON(w, balance)
}
