package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// tradeState is the execution machine's position. A filled trade shows its
// receipt from entering with result set; failure returns to entering with
// the quantity retained.
type tradeState int

const (
	tradeEntering tradeState = iota
	tradeReviewing
	tradeSubmitting
)

// tradeModel walks quantity entry through review, confirmation, and
// execution. Symbol changes and side toggles reset it wholesale; trades
// never carry across symbols.
type tradeModel struct {
	backend Backend

	symbol   string
	side     domain.TradeSide
	quantity string
	state    tradeState

	result *domain.TradeResult
	errMsg string

	balance     float64
	haveBalance bool
	marketOpen  bool
}

func newTradeModel(backend Backend) tradeModel {
	return tradeModel{backend: backend, side: domain.SideBuy}
}

// reset returns the machine to entering with an empty draft, keeping only
// the side untouched.
func (m tradeModel) reset() tradeModel {
	m.quantity = ""
	m.state = tradeEntering
	m.result = nil
	m.errMsg = ""
	return m
}

func (m tradeModel) updateCommitted(msg committedMsg) tradeModel {
	m = m.reset()
	m.symbol = msg.symbol
	return m
}

func (m tradeModel) updateKey(msg tea.KeyMsg) (tradeModel, tea.Cmd) {
	if m.state == tradeSubmitting {
		return m, nil // in-flight submission is not interruptible
	}

	switch msg.String() {
	case "t":
		m.side = m.side.Toggle()
		return m.reset(), nil

	case "enter":
		switch m.state {
		case tradeEntering:
			if m.symbol == "" || !m.marketOpen {
				return m, nil
			}
			if _, ok := domain.ParseQuantity(m.quantity); !ok {
				return m, nil // review stays disabled, no error
			}
			m.errMsg = ""
			m.result = nil
			m.state = tradeReviewing
			return m, nil
		case tradeReviewing:
			qty, ok := domain.ParseQuantity(m.quantity)
			if !ok {
				return m, nil
			}
			m.state = tradeSubmitting
			m.errMsg = ""
			return m, m.execute(domain.TradeRequest{
				Symbol:   m.symbol,
				Quantity: qty,
				Side:     m.side,
			})
		}
		return m, nil

	case "esc":
		if m.state == tradeReviewing {
			m.state = tradeEntering // cancel, quantity kept
		}
		return m, nil

	case "backspace":
		if m.state != tradeEntering || !m.marketOpen || m.quantity == "" {
			return m, nil
		}
		return m.edit(m.quantity[:len(m.quantity)-1]), nil

	default:
		if m.state != tradeEntering || !m.marketOpen {
			return m, nil
		}
		if msg.Type == tea.KeyRunes {
			next := m.quantity + string(msg.Runes)
			if domain.ValidQuantityText(next) {
				return m.edit(next), nil
			}
		}
		return m, nil
	}
}

// edit applies a quantity change, which discards any prior review, result,
// or error.
func (m tradeModel) edit(quantity string) tradeModel {
	m.quantity = quantity
	m.state = tradeEntering
	m.result = nil
	m.errMsg = ""
	return m
}

func (m tradeModel) execute(req domain.TradeRequest) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := backendCtx()
		defer cancel()
		result, err := backend.ExecuteTrade(ctx, req)
		return tradeResultMsg{result: result, err: err}
	}
}

func (m tradeModel) updateMsg(msg tea.Msg) tradeModel {
	switch msg := msg.(type) {
	case tradeResultMsg:
		if m.state != tradeSubmitting {
			return m
		}
		if msg.err != nil {
			// Back to entering with the quantity retained for a retry.
			m.state = tradeEntering
			m.errMsg = msg.err.Error()
			return m
		}
		result := msg.result
		m.state = tradeEntering
		m.result = &result
		m.quantity = ""
		m.errMsg = ""
		// The fill receipt is authoritative for the balance.
		m.balance = result.RemainingCashBalance
		m.haveBalance = true
		return m

	case marketStatusMsg:
		if msg.err == nil {
			m.marketOpen = msg.status.Open
		}
		return m

	case balanceMsg:
		if msg.err == nil {
			m.balance = msg.balance
			m.haveBalance = true
		}
		return m
	}
	return m
}
