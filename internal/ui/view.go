package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bguntupallics/TradingSandbox/internal/domain"
)

// Styles.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	focusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(0, 1)
	blurredBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	symbolStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	highlightedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	gainStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	bannerStyle      = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11"))
	buyStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	sellStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	periodOn      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	periodOff     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	receiptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

const (
	chartWidth  = 60
	chartHeight = 10
)

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(padOrTrunc(" Trading Sandbox ", width)))
	b.WriteString("\n")

	if !m.trade.marketOpen {
		b.WriteString(bannerStyle.Render(padOrTrunc(" Market closed. Trading is available 9:30 AM - 4:00 PM ET. ", width)))
		b.WriteString("\n")
	}

	b.WriteString(m.searchView())
	b.WriteString("\n")
	b.WriteString(m.pricesView())
	b.WriteString("\n")
	b.WriteString(m.tradeView())
	b.WriteString("\n")

	footer := " tab focus  enter select/commit  1-4 period  t side  ctrl+c quit"
	b.WriteString(footerStyle.Render(padOrTrunc(footer, width)))
	return b.String()
}

func (m Model) panelStyle(zone int) lipgloss.Style {
	if m.focus == zone {
		return focusedBorder
	}
	return blurredBorder
}

func (m Model) searchView() string {
	s := m.search
	var b strings.Builder

	query := s.query
	if m.focus == focusSearch {
		query += "█"
	}
	b.WriteString("Search: " + symbolStyle.Render(query))
	if s.validating {
		b.WriteString("  " + m.spin.View() + spinnerStyle.Render("validating"))
	}
	b.WriteString("\n")

	if s.open {
		for i, sug := range s.suggestions {
			line := fmt.Sprintf(" %-8s %s", sug.Symbol, sug.Name)
			if i == s.highlighted {
				b.WriteString(highlightedStyle.Render(line))
			} else {
				b.WriteString(dimStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	if s.errMsg != "" {
		b.WriteString(errorStyle.Render(s.errMsg))
		b.WriteString("\n")
	}
	return m.panelStyle(focusSearch).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) pricesView() string {
	p := m.prices
	var b strings.Builder

	// Period bar.
	var parts []string
	for _, period := range domain.Periods {
		if period == p.period {
			parts = append(parts, periodOn.Render(" "+string(period)+" "))
		} else {
			parts = append(parts, periodOff.Render(" "+string(period)+" "))
		}
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n")

	switch {
	case p.symbol == "":
		b.WriteString(dimStyle.Render("Search for a symbol to see its price history."))
	case p.loading:
		b.WriteString(m.spin.View() + spinnerStyle.Render("loading "+p.symbol))
	case p.errMsg != "":
		b.WriteString(errorStyle.Render(p.errMsg))
	default:
		stats, ok := domain.ComputeSeriesStats(p.points)
		low, high, rangeOK := domain.AxisRange(p.points)
		if !ok || !rangeOK {
			b.WriteString(errorStyle.Render("no price data found for " + p.symbol))
			break
		}

		name := p.symbol
		if p.name != "" {
			name = fmt.Sprintf("%s (%s)", p.symbol, p.name)
		}
		b.WriteString(symbolStyle.Render(name))
		if price, held := p.latestPrice(); held {
			b.WriteString(fmt.Sprintf("  $%.2f", price))
		}
		change := fmt.Sprintf("  %+.2f (%+.2f%%)", stats.Change, stats.ChangePercent)
		if stats.Change >= 0 {
			b.WriteString(gainStyle.Render(change))
		} else {
			b.WriteString(lossStyle.Render(change))
		}
		b.WriteString("\n")

		closes := make([]float64, len(p.points))
		for i, pt := range p.points {
			closes[i] = pt.ClosingPrice
		}
		b.WriteString(renderAreaChart(closes, stats.FirstClose, low, high, chartWidth, chartHeight))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s  →  %s",
			p.points[0].Label, p.points[len(p.points)-1].Label)))
	}
	return m.panelStyle(focusPeriod).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) tradeView() string {
	t := m.trade
	var b strings.Builder

	sideStr := buyStyle.Render(string(domain.SideBuy))
	if t.side == domain.SideSell {
		sideStr = sellStyle.Render(string(domain.SideSell))
	}
	b.WriteString("Trade: " + sideStr)
	if t.symbol != "" {
		b.WriteString("  " + symbolStyle.Render(t.symbol))
	}
	if t.haveBalance {
		b.WriteString(dimStyle.Render(fmt.Sprintf("   buying power $%.2f", t.balance)))
	}
	b.WriteString("\n")

	qty := t.quantity
	if m.focus == focusTrade && t.state == tradeEntering {
		qty += "█"
	}
	b.WriteString("Quantity: " + qty)
	b.WriteString("\n")

	switch t.state {
	case tradeReviewing:
		line := fmt.Sprintf("Review: %s %s %s", t.side, t.quantity, t.symbol)
		if price, held := m.prices.latestPrice(); held {
			if parsed, ok := domain.ParseQuantity(t.quantity); ok {
				line += fmt.Sprintf("  ≈ $%.2f", parsed*price)
			}
		}
		b.WriteString(line + "\n")
		b.WriteString(dimStyle.Render("enter confirm  esc cancel"))
		b.WriteString("\n")
	case tradeSubmitting:
		b.WriteString(m.spin.View() + spinnerStyle.Render("submitting"))
		b.WriteString("\n")
	}

	if t.result != nil {
		r := t.result
		b.WriteString(receiptStyle.Render(fmt.Sprintf(
			"Filled: %s %.2f %s @ $%.2f  total $%.2f  balance $%.2f",
			r.Side, r.Quantity, r.Symbol, r.PricePerShare, r.TotalCost, r.RemainingCashBalance)))
		b.WriteString("\n")
	}
	if t.errMsg != "" {
		b.WriteString(errorStyle.Render(t.errMsg))
		b.WriteString("\n")
	}
	return m.panelStyle(focusTrade).Render(strings.TrimRight(b.String(), "\n"))
}

// padOrTrunc pads s with spaces to width, or truncates if longer.
func padOrTrunc(s string, width int) string {
	n := len(s)
	if n >= width {
		return s[:width]
	}
	return s + strings.Repeat(" ", width-n)
}
