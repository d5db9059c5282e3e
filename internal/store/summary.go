package store

import (
	"fmt"
	"strings"
	"time"
)

// summaryLine is one past recommendation rendered into the history text
type summaryLine struct {
	Date       time.Time
	Symbol     string
	Action     string
	Confidence float64
	Reasoning  string
}

const maxReasoningChars = 160

func formatSummaries(lines []summaryLine) string {
	var b strings.Builder
	for _, l := range lines {
		reasoning := strings.Join(strings.Fields(l.Reasoning), " ")
		if r := []rune(reasoning); len(r) > maxReasoningChars {
			reasoning = string(r[:maxReasoningChars]) + "…"
		}
		fmt.Fprintf(&b, "%s %s %s (%.0f%%): %s\n",
			l.Date.Format("2006-01-02"), l.Symbol, l.Action, l.Confidence, reasoning)
	}
	return b.String()
}

func windowStart(now time.Time, windowDays int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -windowDays)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
