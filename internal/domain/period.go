package domain

import "strings"

// Period is a historical price window selectable in the client.
type Period string

const (
	PeriodDay         Period = "1D"
	PeriodWeek        Period = "1W"
	PeriodMonth       Period = "1M"
	PeriodThreeMonths Period = "3M"
)

// Periods lists all selectable periods in display order.
var Periods = []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodThreeMonths}

// DefaultPeriod is the window shown before the user picks one.
const DefaultPeriod = PeriodMonth

// ParsePeriod maps a label like "1d" to its Period. ok is false for labels
// outside the fixed set.
func ParsePeriod(label string) (Period, bool) {
	for _, p := range Periods {
		if strings.EqualFold(string(p), label) {
			return p, true
		}
	}
	return "", false
}

// Timeframe returns the bar resolution requested upstream for the period.
func (p Period) Timeframe() string {
	switch p {
	case PeriodDay:
		return "5Min"
	case PeriodWeek:
		return "1Hour"
	default:
		return "1Day"
	}
}

// DaysBack returns how many calendar days of history the period covers.
func (p Period) DaysBack() int {
	switch p {
	case PeriodDay:
		return 1
	case PeriodWeek:
		return 7
	case PeriodThreeMonths:
		return 90
	default:
		return 30
	}
}

// Intraday reports whether the period's points carry time-of-day labels.
func (p Period) Intraday() bool {
	return p == PeriodDay
}
