package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Block elements for sub-character vertical resolution (1/8 to 8/8).
var blockChars = [9]rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderAreaChart renders closing prices as a filled block-element chart
// inside the [low, high] axis range. Columns at or above the baseline (the
// period's first close) render green, the rest red.
func renderAreaChart(closes []float64, baseline, low, high float64, width, height int) string {
	if len(closes) == 0 || width <= 0 || height <= 0 || high <= low {
		return ""
	}

	cols := downsample(closes, width)

	totalLevels := height * 8
	span := high - low

	// Scale each column to 1..totalLevels so every column stays visible.
	scaled := make([]int, len(cols))
	for i, v := range cols {
		norm := (v - low) / span
		s := int(norm*float64(totalLevels-1)) + 1
		if s > totalLevels {
			s = totalLevels
		}
		if s < 1 {
			s = 1
		}
		scaled[i] = s
	}

	rows := make([]string, height)
	for row := 0; row < height; row++ {
		rowBottom := (height - 1 - row) * 8

		var sb strings.Builder
		for col := 0; col < len(scaled); col++ {
			fill := scaled[col] - rowBottom
			if fill <= 0 {
				sb.WriteRune(' ')
				continue
			}
			if fill > 8 {
				fill = 8
			}

			style := chartGainStyle
			if cols[col] < baseline {
				style = chartLossStyle
			}
			sb.WriteString(style.Render(string(blockChars[fill])))
		}
		rows[row] = sb.String()
	}

	return strings.Join(rows, "\n")
}

// downsample reduces data to n points by averaging buckets.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	out := make([]float64, n)
	bucketSize := float64(len(data)) / float64(n)
	for i := 0; i < n; i++ {
		start := int(float64(i) * bucketSize)
		end := int(float64(i+1) * bucketSize)
		if end > len(data) {
			end = len(data)
		}
		sum := 0.0
		for j := start; j < end; j++ {
			sum += data[j]
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

var (
	chartGainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	chartLossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
