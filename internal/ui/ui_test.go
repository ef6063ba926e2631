package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// fakeBackend records calls and replays canned responses.
type fakeBackend struct {
	mu sync.Mutex

	searchCalls   []string
	searchResults []domain.Suggestion
	searchErr     error

	validateCalls []string
	validation    domain.Validation
	validateErr   error

	seriesCalls []seriesCall
	series      []domain.PricePoint
	seriesErr   error

	latestCalls []string
	latest      domain.LatestTrade
	latestErr   error

	status    domain.MarketStatus
	statusErr error

	execCalls  []domain.TradeRequest
	execResult domain.TradeResult
	execErr    error

	balance    float64
	balanceErr error
}

type seriesCall struct {
	symbol string
	period domain.Period
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) SearchSymbols(_ context.Context, query string, _ int) ([]domain.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls = append(f.searchCalls, query)
	return f.searchResults, f.searchErr
}

func (f *fakeBackend) ValidateSymbol(_ context.Context, symbol string) (domain.Validation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls = append(f.validateCalls, symbol)
	return f.validation, f.validateErr
}

func (f *fakeBackend) PricesByPeriod(_ context.Context, symbol string, period domain.Period) ([]domain.PricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seriesCalls = append(f.seriesCalls, seriesCall{symbol: symbol, period: period})
	return f.series, f.seriesErr
}

func (f *fakeBackend) LatestTrade(_ context.Context, symbol string) (domain.LatestTrade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.latestCalls = append(f.latestCalls, symbol)
	return f.latest, f.latestErr
}

func (f *fakeBackend) MarketStatus(_ context.Context) (domain.MarketStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeBackend) ExecuteTrade(_ context.Context, req domain.TradeRequest) (domain.TradeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execCalls = append(f.execCalls, req)
	return f.execResult, f.execErr
}

func (f *fakeBackend) Balance(_ context.Context) (float64, error) {
	return f.balance, f.balanceErr
}

// Key helpers.
func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyDown      = tea.KeyMsg{Type: tea.KeyDown}
	keyUp        = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter     = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc       = tea.KeyMsg{Type: tea.KeyEsc}
	keyBackspace = tea.KeyMsg{Type: tea.KeyBackspace}
	keyLeft      = tea.KeyMsg{Type: tea.KeyLeft}
	keyRight     = tea.KeyMsg{Type: tea.KeyRight}
)

// runCmd executes a command synchronously and returns its message. Commands
// produced by the models under test never sleep except the debounce tick,
// which tests bypass by constructing debounceMsg directly.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}
