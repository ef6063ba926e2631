package util

import "time"

// TradingCalendar provides market-hours awareness for US equities:
// weekdays 9:30–16:00 in America/New_York. Exchange holidays are not
// modelled; the sandbox trades every weekday.
type TradingCalendar struct {
	loc *time.Location
}

// NewTradingCalendar loads the exchange timezone and returns a calendar.
func NewTradingCalendar() (*TradingCalendar, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, err
	}
	return &TradingCalendar{loc: loc}, nil
}

func (tc *TradingCalendar) sessionBounds(day time.Time) (open, close time.Time) {
	open = time.Date(day.Year(), day.Month(), day.Day(), 9, 30, 0, 0, tc.loc)
	close = time.Date(day.Year(), day.Month(), day.Day(), 16, 0, 0, 0, tc.loc)
	return open, close
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsMarketOpen returns whether the market is open at time t.
func (tc *TradingCalendar) IsMarketOpen(t time.Time) bool {
	t = t.In(tc.loc)
	if !isWeekday(t) {
		return false
	}
	open, close := tc.sessionBounds(t)
	return !t.Before(open) && t.Before(close)
}

// NextOpen returns the next session open at or after t.
func (tc *TradingCalendar) NextOpen(t time.Time) time.Time {
	t = t.In(tc.loc)
	for {
		if isWeekday(t) {
			open, _ := tc.sessionBounds(t)
			if t.Before(open) {
				return open
			}
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tc.loc).AddDate(0, 0, 1)
	}
}

// NextClose returns the next session close at or after t.
func (tc *TradingCalendar) NextClose(t time.Time) time.Time {
	t = t.In(tc.loc)
	for {
		if isWeekday(t) {
			_, close := tc.sessionBounds(t)
			if t.Before(close) {
				return close
			}
		}
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, tc.loc).AddDate(0, 0, 1)
	}
}
