package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	md "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

var _ Source = (*AlpacaSource)(nil)

// assetCacheTTL controls how long the active-assets list is reused for
// symbol search before refetching.
const assetCacheTTL = 24 * time.Hour

// AlpacaSource serves symbols and prices from the Alpaca trading and
// market-data APIs.
type AlpacaSource struct {
	trading *alpaca.Client
	data    *md.Client
	log     *slog.Logger

	mu          sync.Mutex
	assets      []domain.Suggestion
	assetsFetch time.Time
}

// NewAlpacaSource creates a source using the given Alpaca credentials.
// baseURL and dataURL override the default API endpoints when non-empty.
func NewAlpacaSource(apiKey, apiSecret, baseURL, dataURL string, log *slog.Logger) *AlpacaSource {
	tradingOpts := alpaca.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if baseURL != "" {
		tradingOpts.BaseURL = baseURL
	}
	dataOpts := md.ClientOpts{APIKey: apiKey, APISecret: apiSecret}
	if dataURL != "" {
		dataOpts.BaseURL = dataURL
	}
	return &AlpacaSource{
		trading: alpaca.NewClient(tradingOpts),
		data:    md.NewClient(dataOpts),
		log:     log.With("source", "alpaca"),
	}
}

// Search matches the query against the cached active-asset list by ticker
// or name prefix. Exact ticker matches sort first.
func (s *AlpacaSource) Search(ctx context.Context, query string, limit int) ([]domain.Suggestion, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	assets, err := s.activeAssets(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Suggestion
	for _, a := range assets {
		if strings.HasPrefix(a.Symbol, q) || strings.HasPrefix(strings.ToUpper(a.Name), q) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].Symbol == q) != (out[j].Symbol == q) {
			return out[i].Symbol == q
		}
		return out[i].Symbol < out[j].Symbol
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Validate resolves a ticker via the Alpaca assets endpoint.
func (s *AlpacaSource) Validate(_ context.Context, symbol string) (domain.Validation, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	asset, err := s.trading.GetAsset(sym)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return domain.Validation{}, ErrUnknownSymbol
		}
		return domain.Validation{}, fmt.Errorf("looking up asset %s: %w", sym, err)
	}
	return domain.Validation{
		Valid:    true,
		Symbol:   asset.Symbol,
		Name:     asset.Name,
		Exchange: string(asset.Exchange),
		Tradable: asset.Tradable,
	}, nil
}

// Series fetches bars for the period and reduces them to labeled closes.
func (s *AlpacaSource) Series(_ context.Context, symbol string, period domain.Period) ([]domain.PricePoint, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	end := time.Now()
	start := end.AddDate(0, 0, -period.DaysBack())

	bars, err := s.data.GetBars(sym, md.GetBarsRequest{
		TimeFrame: timeframeFor(period),
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching bars for %s: %w", sym, err)
	}
	if len(bars) == 0 {
		return nil, &NoPriceDataError{Symbol: sym}
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, domain.PricePoint{
			Symbol:       sym,
			Timestamp:    b.Timestamp,
			Label:        PointLabel(b.Timestamp, period),
			ClosingPrice: b.Close,
		})
	}
	return points, nil
}

// LatestTrade returns the most recent trade for symbol.
func (s *AlpacaSource) LatestTrade(_ context.Context, symbol string) (domain.LatestTrade, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	trade, err := s.data.GetLatestTrade(sym, md.GetLatestTradeRequest{})
	if err != nil {
		return domain.LatestTrade{}, fmt.Errorf("fetching latest trade for %s: %w", sym, err)
	}
	return domain.LatestTrade{
		Symbol:    sym,
		Price:     trade.Price,
		Timestamp: trade.Timestamp,
	}, nil
}

// MarketStatus reads the Alpaca trading clock.
func (s *AlpacaSource) MarketStatus(_ context.Context) (domain.MarketStatus, error) {
	clock, err := s.trading.GetClock()
	if err != nil {
		return domain.MarketStatus{}, fmt.Errorf("fetching market clock: %w", err)
	}
	return domain.MarketStatus{
		Open:      clock.IsOpen,
		NextOpen:  clock.NextOpen,
		NextClose: clock.NextClose,
	}, nil
}

func timeframeFor(p domain.Period) md.TimeFrame {
	switch p.Timeframe() {
	case "5Min":
		return md.NewTimeFrame(5, md.Min)
	case "1Hour":
		return md.NewTimeFrame(1, md.Hour)
	default:
		return md.OneDay
	}
}

// activeAssets returns the cached active US equity list, refetching after
// the TTL expires. The full list is a few thousand rows, cheap to hold.
func (s *AlpacaSource) activeAssets(ctx context.Context) ([]domain.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.assets != nil && time.Since(s.assetsFetch) < assetCacheTTL {
		return s.assets, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	assets, err := s.trading.GetAssets(alpaca.GetAssetsRequest{Status: "active"})
	if err != nil {
		if s.assets != nil {
			// Serve the stale list rather than failing search outright.
			s.log.Warn("asset refresh failed, serving cached list", "err", err)
			return s.assets, nil
		}
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	suggestions := make([]domain.Suggestion, 0, len(assets))
	for _, a := range assets {
		if !a.Tradable {
			continue
		}
		suggestions = append(suggestions, domain.Suggestion{
			Symbol:   a.Symbol,
			Name:     a.Name,
			Exchange: string(a.Exchange),
		})
	}
	s.assets = suggestions
	s.assetsFetch = time.Now()
	s.log.Info("refreshed asset list", "count", len(suggestions))
	return s.assets, nil
}
