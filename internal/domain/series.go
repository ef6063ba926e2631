package domain

// SeriesStats are the derived quantities of a price series. The first point
// is the cost basis for the period, so Change and ChangePercent are relative
// to it, not to the account's actual cost basis.
type SeriesStats struct {
	FirstClose    float64
	LastClose     float64
	Change        float64
	ChangePercent float64
}

// ComputeSeriesStats derives period-return stats from a series. ok is false
// for an empty series, which callers treat as an error state, never as zero
// points plotted.
func ComputeSeriesStats(points []PricePoint) (SeriesStats, bool) {
	if len(points) == 0 {
		return SeriesStats{}, false
	}
	first := points[0].ClosingPrice
	last := points[len(points)-1].ClosingPrice
	s := SeriesStats{
		FirstClose: first,
		LastClose:  last,
		Change:     last - first,
	}
	if first != 0 {
		s.ChangePercent = s.Change / first * 100
	}
	return s, true
}

// AxisRange returns the vertical plot range for a series: min/max closing
// price padded by 5% of the span so the line does not touch the chart edges.
// When the span is zero the pad is a flat 1.0. ok is false for an empty series.
func AxisRange(points []PricePoint) (low, high float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, false
	}
	low, high = points[0].ClosingPrice, points[0].ClosingPrice
	for _, p := range points[1:] {
		if p.ClosingPrice < low {
			low = p.ClosingPrice
		}
		if p.ClosingPrice > high {
			high = p.ClosingPrice
		}
	}
	pad := (high - low) * 0.05
	if pad == 0 {
		pad = 1.0
	}
	return low - pad, high + pad, true
}
