package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// pricesModel owns the committed symbol's price series and the selected
// period. A new commit resets everything; a period change refetches the
// series only. Both run the same fetch path under one seq counter, so a
// late response for an abandoned (symbol, period) pair is dropped.
type pricesModel struct {
	backend Backend

	symbol string
	name   string
	period domain.Period

	points     []domain.PricePoint
	latest     float64
	haveLatest bool
	loading    bool
	errMsg     string

	seq int
}

func newPricesModel(backend Backend) pricesModel {
	return pricesModel{backend: backend, period: domain.DefaultPeriod}
}

func (m pricesModel) updateCommitted(msg committedMsg) (pricesModel, tea.Cmd) {
	m.symbol = msg.symbol
	m.name = msg.name
	return m.refetch()
}

func (m pricesModel) updateKey(msg tea.KeyMsg) (pricesModel, tea.Cmd) {
	var period domain.Period
	switch msg.String() {
	case "left":
		period = m.shiftPeriod(-1)
	case "right":
		period = m.shiftPeriod(1)
	case "1":
		period = domain.PeriodDay
	case "2":
		period = domain.PeriodWeek
	case "3":
		period = domain.PeriodMonth
	case "4":
		period = domain.PeriodThreeMonths
	default:
		return m, nil
	}
	if period == m.period {
		return m, nil
	}
	m.period = period
	if m.symbol == "" {
		return m, nil
	}
	return m.refetch()
}

func (m pricesModel) shiftPeriod(delta int) domain.Period {
	for i, p := range domain.Periods {
		if p == m.period {
			next := i + delta
			if next < 0 || next >= len(domain.Periods) {
				return m.period
			}
			return domain.Periods[next]
		}
	}
	return m.period
}

// refetch clears the displayed state and issues a series fetch for the
// current (symbol, period).
func (m pricesModel) refetch() (pricesModel, tea.Cmd) {
	m.points = nil
	m.haveLatest = false
	m.errMsg = ""
	m.loading = true
	m.seq++

	backend := m.backend
	symbol, period, seq := m.symbol, m.period, m.seq
	return m, func() tea.Msg {
		ctx, cancel := backendCtx()
		defer cancel()
		points, err := backend.PricesByPeriod(ctx, symbol, period)
		return seriesMsg{seq: seq, symbol: symbol, points: points, err: err}
	}
}

func (m pricesModel) updateMsg(msg tea.Msg) (pricesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case seriesMsg:
		if msg.seq != m.seq {
			return m, nil // a newer commit or period change superseded this
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.points = nil
			m.haveLatest = false
			return m, nil
		}
		if len(msg.points) == 0 {
			// Zero points is an error, never an empty chart.
			m.errMsg = fmt.Sprintf("no price data found for %s", msg.symbol)
			m.points = nil
			m.haveLatest = false
			return m, nil
		}
		m.points = msg.points
		// Last close is the immediate fallback; the live price can
		// overwrite it but its failure never disturbs the series.
		m.latest = msg.points[len(msg.points)-1].ClosingPrice
		m.haveLatest = true
		return m, m.fetchLatest(msg.symbol, msg.seq)

	case latestTradeMsg:
		if msg.seq != m.seq || msg.err != nil {
			return m, nil
		}
		m.latest = msg.latest.Price
		return m, nil
	}
	return m, nil
}

func (m pricesModel) fetchLatest(symbol string, seq int) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx, cancel := backendCtx()
		defer cancel()
		latest, err := backend.LatestTrade(ctx, symbol)
		return latestTradeMsg{seq: seq, latest: latest, err: err}
	}
}

// latestPrice reports the displayed price for the committed symbol: the
// live trade price when it arrived, otherwise the last close.
func (m pricesModel) latestPrice() (float64, bool) {
	return m.latest, m.haveLatest
}
