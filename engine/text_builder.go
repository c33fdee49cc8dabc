package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// TEXT BUILDER — Selection summary, heatmap cell text and hover text
// ============================================================================

// BuildSummary produces the "Selected Points" line for a canonical selection
// over a table of total rows.
func BuildSummary(c CanonicalSelection, total int) Summary {
	if c.Mode == ModeAll {
		return Summary{
			Selected: total,
			Total:    total,
			Percent:  100,
			Text:     "No points selected.",
		}
	}

	n := c.Len()
	var pct float64
	if total > 0 {
		pct = 100 * float64(n) / float64(total)
	}
	return Summary{
		Selected: n,
		Total:    total,
		Percent:  RoundTo2(pct),
		Text:     fmt.Sprintf("Selected Points: %s (%.2f%%)", FormatInt(n), pct),
	}
}

// cellText renders a heatmap fraction with one decimal.
func cellText(fraction float64) string {
	return fmt.Sprintf("%.1f", fraction)
}

// hoverText explains a heatmap cell: "<bin label>: <pct>% of students".
func hoverText(label string, fraction float64) string {
	return fmt.Sprintf("%s: %.1f%% of students", label, fraction*100)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
