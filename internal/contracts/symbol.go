package contracts

import (
	"regexp"
	"strings"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,5}$`)

// NormalizeSymbol upper-cases and trims a ticker
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidSymbol reports whether s is a normalized ticker (1-5 uppercase alphanumerics)
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// UniqueSymbols normalizes and de-duplicates symbols, keeping first-seen order.
// Invalid tickers are kept so callers can report them.
func UniqueSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = NormalizeSymbol(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
