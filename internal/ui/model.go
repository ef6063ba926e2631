// Package ui implements the interactive trading terminal: debounced symbol
// search with a validation gate, a period-driven price chart, and the
// quantity/review/confirm trade flow. All state lives in the bubbletea
// model; network calls run as commands and report back as messages that are
// checked for staleness before they touch visible state.
package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// Backend is the slice of the API client the terminal uses. *sandbox.Client
// satisfies it; tests substitute fakes.
type Backend interface {
	SearchSymbols(ctx context.Context, query string, limit int) ([]domain.Suggestion, error)
	ValidateSymbol(ctx context.Context, symbol string) (domain.Validation, error)
	PricesByPeriod(ctx context.Context, symbol string, period domain.Period) ([]domain.PricePoint, error)
	LatestTrade(ctx context.Context, symbol string) (domain.LatestTrade, error)
	MarketStatus(ctx context.Context) (domain.MarketStatus, error)
	ExecuteTrade(ctx context.Context, req domain.TradeRequest) (domain.TradeResult, error)
	Balance(ctx context.Context) (float64, error)
}

const requestTimeout = 10 * time.Second

func backendCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// Messages. Sequence numbers make staleness explicit: a completion whose seq
// no longer matches the owning model's counter is dropped.
type (
	debounceMsg struct {
		seq int
	}
	suggestionsMsg struct {
		seq     int
		results []domain.Suggestion
	}
	validationMsg struct {
		symbol string
		result domain.Validation
		err    error
	}
	// committedMsg announces the searched symbol to prices and trade.
	committedMsg struct {
		symbol string
		name   string
	}
	seriesMsg struct {
		seq    int
		symbol string
		points []domain.PricePoint
		err    error
	}
	latestTradeMsg struct {
		seq    int
		latest domain.LatestTrade
		err    error
	}
	marketStatusMsg struct {
		status domain.MarketStatus
		err    error
	}
	balanceMsg struct {
		balance float64
		err     error
	}
	tradeResultMsg struct {
		result domain.TradeResult
		err    error
	}
)

// Focus zones, cycled with Tab.
const (
	focusSearch = iota
	focusPeriod
	focusTrade
	focusZones
)

// Model is the root terminal model.
type Model struct {
	backend Backend

	search searchModel
	prices pricesModel
	trade  tradeModel
	spin   spinner.Model

	focus         int
	width, height int
}

// NewModel creates the root model over the given backend.
func NewModel(backend Backend) Model {
	return Model{
		backend: backend,
		search:  newSearchModel(backend),
		prices:  newPricesModel(backend),
		trade:   newTradeModel(backend),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}
}

func (m Model) Init() tea.Cmd {
	backend := m.backend
	return tea.Batch(
		m.spin.Tick,
		func() tea.Msg {
			ctx, cancel := backendCtx()
			defer cancel()
			status, err := backend.MarketStatus(ctx)
			return marketStatusMsg{status: status, err: err}
		},
		func() tea.Msg {
			ctx, cancel := backendCtx()
			defer cancel()
			balance, err := backend.Balance(ctx)
			return balanceMsg{balance: balance, err: err}
		},
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.focus = (m.focus + 1) % focusZones
			return m, nil
		case "shift+tab":
			m.focus = (m.focus + focusZones - 1) % focusZones
			return m, nil
		}
		// Keys go to the focused zone only.
		switch m.focus {
		case focusSearch:
			var cmd tea.Cmd
			m.search, cmd = m.search.update(msg)
			return m, cmd
		case focusPeriod:
			var cmd tea.Cmd
			m.prices, cmd = m.prices.updateKey(msg)
			return m, cmd
		case focusTrade:
			var cmd tea.Cmd
			m.trade, cmd = m.trade.updateKey(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case debounceMsg, suggestionsMsg, validationMsg:
		var cmd tea.Cmd
		m.search, cmd = m.search.update(msg)
		return m, cmd

	case committedMsg:
		// The committed symbol fans out: prices refetch, trade resets.
		var pricesCmd tea.Cmd
		m.prices, pricesCmd = m.prices.updateCommitted(msg)
		m.trade = m.trade.updateCommitted(msg)
		return m, pricesCmd

	case seriesMsg, latestTradeMsg:
		var cmd tea.Cmd
		m.prices, cmd = m.prices.updateMsg(msg)
		return m, cmd

	case marketStatusMsg, balanceMsg, tradeResultMsg:
		m.trade = m.trade.updateMsg(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}
