package domain

import (
	"regexp"
	"strings"
)

// Symbols cover equities ("AAPL"), crypto pairs ("BTC-USD") and FX
// tickers ("EURUSD=X"), so the format check is deliberately loose.
var symbolRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-/=^]{0,19}$`)

// NormalizeSymbol trims and uppercases a user-supplied symbol and
// reports whether the result is usable.
func NormalizeSymbol(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !symbolRe.MatchString(s) {
		return "", false
	}
	return s, true
}
