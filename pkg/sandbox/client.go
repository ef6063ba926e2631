// Package sandbox provides a Go SDK for the TradingSandbox API.
package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// Error is a non-success API response. Message carries the server's error
// body verbatim so callers can render it unmodified.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Client talks to a TradingSandbox API server.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Session token obtained by Login; sent as a bearer header.
	token string
}

// NewClient creates a new sandbox API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do issues a request and decodes the JSON response into out (when non-nil).
// Non-2xx responses become *Error with the response body as the message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(readBody(resp.Body)))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func readBody(r io.Reader) []byte {
	data, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	// The server wraps errors as {"error": "..."}; unwrap when it does.
	var wrapped struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &wrapped) == nil && wrapped.Error != "" {
		return []byte(wrapped.Error)
	}
	return data
}

// Login authenticates and stores the session token for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

// Logout invalidates the current session.
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.token = ""
	return err
}

// Authenticated reports whether the client holds a session token.
func (c *Client) Authenticated() bool { return c.token != "" }

// SearchSymbols returns ranked symbol suggestions for a partial query.
func (c *Client) SearchSymbols(ctx context.Context, query string, limit int) ([]domain.Suggestion, error) {
	var resp struct {
		Results []domain.Suggestion `json:"results"`
	}
	path := fmt.Sprintf("/api/stocks/search?q=%s&limit=%d", url.QueryEscape(query), limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ValidateSymbol checks whether a typed symbol is a known tradable security.
func (c *Client) ValidateSymbol(ctx context.Context, symbol string) (domain.Validation, error) {
	var v domain.Validation
	path := "/api/stocks/validate/" + url.PathEscape(strings.ToUpper(strings.TrimSpace(symbol)))
	if err := c.do(ctx, http.MethodGet, path, nil, &v); err != nil {
		return domain.Validation{}, err
	}
	return v, nil
}

// PricesByPeriod returns the closing-price series for a symbol over a period.
func (c *Client) PricesByPeriod(ctx context.Context, symbol string, period domain.Period) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	path := fmt.Sprintf("/api/prices/%s/period/%s", url.PathEscape(symbol), period)
	if err := c.do(ctx, http.MethodGet, path, nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// LatestTrade returns the most recent trade price for a symbol.
func (c *Client) LatestTrade(ctx context.Context, symbol string) (domain.LatestTrade, error) {
	var lt domain.LatestTrade
	path := fmt.Sprintf("/api/prices/%s/latest-trade", url.PathEscape(symbol))
	if err := c.do(ctx, http.MethodGet, path, nil, &lt); err != nil {
		return domain.LatestTrade{}, err
	}
	return lt, nil
}

// MarketStatus reports whether the market is currently open.
func (c *Client) MarketStatus(ctx context.Context) (domain.MarketStatus, error) {
	var ms domain.MarketStatus
	if err := c.do(ctx, http.MethodGet, "/api/prices/market-status", nil, &ms); err != nil {
		return domain.MarketStatus{}, err
	}
	return ms, nil
}

// ExecuteTrade submits an order and returns the fill receipt.
func (c *Client) ExecuteTrade(ctx context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	var result domain.TradeResult
	if err := c.do(ctx, http.MethodPost, "/api/trade/execute", req, &result); err != nil {
		return domain.TradeResult{}, err
	}
	return result, nil
}

// Balance returns the account's current cash balance.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var balance float64
	if err := c.do(ctx, http.MethodGet, "/api/account/balance", nil, &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// Portfolio returns the account snapshot with holdings and valuations.
func (c *Client) Portfolio(ctx context.Context) (domain.Portfolio, error) {
	var p domain.Portfolio
	if err := c.do(ctx, http.MethodGet, "/api/trade/portfolio", nil, &p); err != nil {
		return domain.Portfolio{}, err
	}
	return p, nil
}

// TradeHistory returns the account's executed trades, most recent first.
func (c *Client) TradeHistory(ctx context.Context) ([]domain.TradeHistoryItem, error) {
	var items []domain.TradeHistoryItem
	if err := c.do(ctx, http.MethodGet, "/api/trade/history", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}
