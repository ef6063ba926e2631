package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

var keyTab = tea.KeyMsg{Type: tea.KeyTab}

func TestCommitFansOutToPricesAndTrade(t *testing.T) {
	backend := &fakeBackend{series: []domain.PricePoint{point(150)}}
	m := NewModel(backend)
	m.trade.quantity = "5"
	m.trade.marketOpen = true

	next, cmd := m.Update(committedMsg{symbol: "AAPL", name: "Apple Inc."})
	m = next.(Model)

	if m.prices.symbol != "AAPL" || !m.prices.loading {
		t.Errorf("prices did not pick up the commit: symbol=%q loading=%v", m.prices.symbol, m.prices.loading)
	}
	if m.trade.symbol != "AAPL" || m.trade.quantity != "" {
		t.Errorf("trade did not reset: symbol=%q quantity=%q", m.trade.symbol, m.trade.quantity)
	}
	if cmd == nil {
		t.Fatal("commit issued no series fetch")
	}
	next, _ = m.Update(runCmd(cmd))
	m = next.(Model)
	if len(m.prices.points) != 1 {
		t.Errorf("series not routed back to prices: %d points", len(m.prices.points))
	}
}

func TestKeysReachFocusedZoneOnly(t *testing.T) {
	backend := &fakeBackend{}
	m := NewModel(backend)
	m.trade.symbol = "AAPL"
	m.trade.marketOpen = true

	// Search has focus; a digit is query input, not a period shortcut or
	// quantity input.
	next, _ := m.Update(keyRunes("1"))
	m = next.(Model)
	if m.search.query != "1" {
		t.Errorf("search query = %q", m.search.query)
	}
	if m.prices.period != domain.DefaultPeriod || m.trade.quantity != "" {
		t.Error("unfocused zones consumed the key")
	}

	next, _ = m.Update(keyTab)
	m = next.(Model)
	next, _ = m.Update(keyRunes("1"))
	m = next.(Model)
	if m.prices.period != domain.PeriodDay {
		t.Errorf("period = %v, want 1D after tab to the period bar", m.prices.period)
	}

	next, _ = m.Update(keyTab)
	m = next.(Model)
	next, _ = m.Update(keyRunes("1"))
	m = next.(Model)
	if m.trade.quantity != "1" {
		t.Errorf("quantity = %q, want 1 after tab to the trade panel", m.trade.quantity)
	}

	next, _ = m.Update(keyTab)
	m = next.(Model)
	if m.focus != focusSearch {
		t.Errorf("focus = %d, want wrapped back to search", m.focus)
	}
}

func TestInitFetchesStatusAndBalance(t *testing.T) {
	backend := &fakeBackend{
		status:  domain.MarketStatus{Open: true},
		balance: 10000,
	}
	m := NewModel(backend)

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init returned no command")
	}
	// tea.Batch wraps the fetches; run it and feed each result through.
	batch, ok := runCmd(cmd).(tea.BatchMsg)
	if !ok {
		t.Fatalf("Init command produced %T, want tea.BatchMsg", runCmd(cmd))
	}
	for _, c := range batch {
		next, _ := m.Update(runCmd(c))
		m = next.(Model)
	}
	if !m.trade.marketOpen {
		t.Error("market status not applied")
	}
	if !m.trade.haveBalance || m.trade.balance != 10000 {
		t.Errorf("balance = %v haveBalance=%v", m.trade.balance, m.trade.haveBalance)
	}
}
