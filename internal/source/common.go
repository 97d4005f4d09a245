package source

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	mobileUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
)

var nonNumeric = regexp.MustCompile(`[^\d.\-]`)

// cleanNum strips everything but digits, dots, and minus signs, so values
// like "33,505원" parse as numbers.
func cleanNum(s string) string {
	return nonNumeric.ReplaceAllString(s, "")
}

func parseInt(s string) int64 {
	v, err := strconv.ParseFloat(cleanNum(s), 64)
	if err != nil {
		return 0
	}
	return int64(v)
}

// dateLayouts are the formats the upstreams use interchangeably.
var dateLayouts = []string{"2006/01/02", "2006-01-02", "2006.01.02"}

// parseDateAny parses a date in any of the known upstream layouts.
func parseDateAny(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// Number decodes JSON values that may arrive as numbers or as formatted
// strings ("33,505"). Unparseable input decodes to zero.
type Number int64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(cleanNum(s), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// Decimal is the float counterpart of Number.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	v, err := strconv.ParseFloat(cleanNum(s), 64)
	if err != nil {
		*d = 0
		return nil
	}
	*d = Decimal(v)
	return nil
}
