package universe

import (
	"strconv"
	"strings"
)

// parseFloat reads a label-extracted numeric token. Zero on anything
// unparsable, which downstream reads as "not published".
func parseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseAmount reads a KRW amount token. Amounts occasionally carry a decimal
// point on the page even though payouts are whole won.
func parseAmount(s string) int64 {
	return int64(parseFloat(s))
}

// normalizeLabelDate rewrites the separator variants the detail page uses
// ("2025/04/30", "2025.04.30") into the canonical form.
func normalizeLabelDate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "/", "-")
	return strings.ReplaceAll(s, ".", "-")
}
