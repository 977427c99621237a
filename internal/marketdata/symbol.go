package marketdata

import (
	"regexp"
	"strings"
)

var b3Symbol = regexp.MustCompile(`^[A-Z]{4,6}\d{1,2}[A-Z]?$`)

// NormalizeSymbol maps a position ticker to the provider symbol.
// Bare B3 codes such as PETR4 or BOVA11 get the ".SA" exchange suffix.
func NormalizeSymbol(ticker string) string {
	raw := strings.ToUpper(strings.TrimSpace(ticker))
	if raw == "" || strings.Contains(raw, ".") {
		return raw
	}
	if b3Symbol.MatchString(raw) {
		return raw + ".SA"
	}
	return raw
}
