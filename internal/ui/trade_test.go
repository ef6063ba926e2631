package ui

import (
	"errors"
	"testing"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

func newTestTradeModel(backend *fakeBackend) tradeModel {
	m := newTradeModel(backend)
	m.symbol = "AAPL"
	m.marketOpen = true
	return m
}

func typeQuantity(m tradeModel, s string) tradeModel {
	for _, r := range s {
		m, _ = m.updateKey(keyRunes(string(r)))
	}
	return m
}

func TestQuantityInputFilter(t *testing.T) {
	m := newTestTradeModel(&fakeBackend{})

	m = typeQuantity(m, "1a2.5x0")
	if m.quantity != "12.50" {
		t.Errorf("quantity = %q, want letters dropped", m.quantity)
	}

	// A second decimal point and a third decimal digit are both refused.
	m = typeQuantity(m, ".")
	m = typeQuantity(m, "7")
	if m.quantity != "12.50" {
		t.Errorf("quantity = %q, want unchanged", m.quantity)
	}

	m, _ = m.updateKey(keyBackspace)
	if m.quantity != "12.5" {
		t.Errorf("quantity = %q after backspace", m.quantity)
	}
}

func TestReviewRequiresParsableQuantity(t *testing.T) {
	m := newTestTradeModel(&fakeBackend{})

	for _, qty := range []string{"", ".", "0", "0.00"} {
		m.quantity = qty
		m, _ = m.updateKey(keyEnter)
		if m.state != tradeEntering {
			t.Errorf("quantity %q reached review", qty)
		}
		if m.errMsg != "" {
			t.Errorf("quantity %q produced an error message: %q", qty, m.errMsg)
		}
	}

	m.quantity = "0.01"
	m, _ = m.updateKey(keyEnter)
	if m.state != tradeReviewing {
		t.Error("minimum quantity did not reach review")
	}
}

func TestReviewBlockedWithoutSymbolOrOpenMarket(t *testing.T) {
	backend := &fakeBackend{}

	m := newTestTradeModel(backend)
	m.symbol = ""
	m.quantity = "10"
	m, _ = m.updateKey(keyEnter)
	if m.state != tradeEntering {
		t.Error("review reached without a committed symbol")
	}

	m = newTestTradeModel(backend)
	m.marketOpen = false
	m = typeQuantity(m, "10")
	if m.quantity != "" {
		t.Error("closed market accepted quantity input")
	}
	m.quantity = "10"
	m, _ = m.updateKey(keyEnter)
	if m.state != tradeEntering {
		t.Error("review reached while the market is closed")
	}
}

func TestConfirmExecutesOnce(t *testing.T) {
	// Quantity 10 BUY at $150: the fill reports $1500 cost and $8500 left.
	backend := &fakeBackend{execResult: domain.TradeResult{
		TradeID:              1,
		Symbol:               "AAPL",
		Side:                 domain.SideBuy,
		Quantity:             10,
		PricePerShare:        150,
		TotalCost:            1500,
		RemainingCashBalance: 8500,
	}}
	m := newTestTradeModel(backend)
	m.balance = 10000
	m.haveBalance = true

	m = typeQuantity(m, "10")
	m, _ = m.updateKey(keyEnter)
	if m.state != tradeReviewing {
		t.Fatal("review not reached")
	}
	m, cmd := m.updateKey(keyEnter)
	if m.state != tradeSubmitting {
		t.Fatal("confirm did not submit")
	}

	// Keys land while the request is in flight.
	m, extra := m.updateKey(keyEnter)
	if extra != nil {
		t.Error("enter during submission issued a command")
	}
	m = typeQuantity(m, "5")
	if m.quantity != "10" {
		t.Error("typing during submission changed the draft")
	}

	m = m.updateMsg(runCmd(cmd))
	if len(backend.execCalls) != 1 {
		t.Fatalf("execute calls = %d, want exactly 1", len(backend.execCalls))
	}
	req := backend.execCalls[0]
	if req.Symbol != "AAPL" || req.Quantity != 10 || req.Side != domain.SideBuy {
		t.Errorf("request = %+v", req)
	}
	if m.state != tradeEntering || m.result == nil {
		t.Fatal("fill receipt not adopted")
	}
	if m.quantity != "" {
		t.Errorf("quantity = %q, want cleared after fill", m.quantity)
	}
	if m.balance != 8500 {
		t.Errorf("balance = %v, want server's 8500 verbatim", m.balance)
	}
}

func TestExecuteFailureKeepsQuantity(t *testing.T) {
	backend := &fakeBackend{execErr: errors.New("Insufficient funds. Required: $1500.00, Available: $100.00")}
	m := newTestTradeModel(backend)

	m = typeQuantity(m, "10")
	m, _ = m.updateKey(keyEnter)
	m, cmd := m.updateKey(keyEnter)
	m = m.updateMsg(runCmd(cmd))

	if m.state != tradeEntering {
		t.Error("failure did not return to entering")
	}
	if m.quantity != "10" {
		t.Errorf("quantity = %q, want retained for retry", m.quantity)
	}
	if m.errMsg != "Insufficient funds. Required: $1500.00, Available: $100.00" {
		t.Errorf("errMsg = %q, want server message verbatim", m.errMsg)
	}
	if m.result != nil {
		t.Error("failed trade left a receipt")
	}
}

func TestCancelReviewKeepsQuantity(t *testing.T) {
	m := newTestTradeModel(&fakeBackend{})
	m = typeQuantity(m, "2.50")
	m, _ = m.updateKey(keyEnter)
	m, _ = m.updateKey(keyEsc)
	if m.state != tradeEntering || m.quantity != "2.50" {
		t.Errorf("cancel left state=%v quantity=%q", m.state, m.quantity)
	}
}

func TestSideToggleResetsDraft(t *testing.T) {
	m := newTestTradeModel(&fakeBackend{})
	m = typeQuantity(m, "10")
	m, _ = m.updateKey(keyEnter)

	m, _ = m.updateKey(keyRunes("t"))
	if m.side != domain.SideSell {
		t.Errorf("side = %v, want SELL", m.side)
	}
	if m.quantity != "" || m.state != tradeEntering {
		t.Error("toggle kept the old draft")
	}
	m, _ = m.updateKey(keyRunes("t"))
	if m.side != domain.SideBuy {
		t.Errorf("side = %v, want BUY again", m.side)
	}
}

func TestNewSymbolResetsDraft(t *testing.T) {
	m := newTestTradeModel(&fakeBackend{})
	m = typeQuantity(m, "10")
	m.errMsg = "stale error"

	m = m.updateCommitted(committedMsg{symbol: "MSFT"})
	if m.symbol != "MSFT" || m.quantity != "" || m.errMsg != "" {
		t.Errorf("commit left symbol=%q quantity=%q errMsg=%q", m.symbol, m.quantity, m.errMsg)
	}
}

func TestBalanceAndMarketStatusAdopted(t *testing.T) {
	m := newTradeModel(&fakeBackend{})

	m = m.updateMsg(balanceMsg{balance: 10000})
	if !m.haveBalance || m.balance != 10000 {
		t.Errorf("balance = %v haveBalance=%v", m.balance, m.haveBalance)
	}
	m = m.updateMsg(balanceMsg{balance: 0, err: errors.New("unavailable")})
	if m.balance != 10000 {
		t.Error("failed balance fetch overwrote the known balance")
	}

	m = m.updateMsg(marketStatusMsg{status: domain.MarketStatus{Open: true}})
	if !m.marketOpen {
		t.Error("open market status not adopted")
	}
	m = m.updateMsg(marketStatusMsg{status: domain.MarketStatus{}, err: errors.New("unavailable")})
	if !m.marketOpen {
		t.Error("failed status fetch flipped the market closed")
	}
}

func TestLateResultOutsideSubmissionIgnored(t *testing.T) {
	m := newTestTradeModel(&fakeBackend{})
	m = typeQuantity(m, "3")

	m = m.updateMsg(tradeResultMsg{result: domain.TradeResult{RemainingCashBalance: 1}})
	if m.result != nil || m.quantity != "3" {
		t.Error("result applied while not submitting")
	}
}
