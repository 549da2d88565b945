package ingest

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// amountReplacer strips the thousands separators and stray whitespace the
// game's export tool sprinkles into large counters.
var amountReplacer = strings.NewReplacer(",", "", " ", "", " ", "")

// parseAmount normalizes a workbook cell into a decimal integer string.
// Values beyond the safe integer range survive intact; anything unparseable
// defaults to "0" — a bad cell must not sink the row.
func parseAmount(s string) string {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return "0"
	}

	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}

	// Large integers overflow int64 but are still valid digit runs.
	if isDigits(s) {
		return s
	}

	// Exports occasionally format counters as floats ("1.5E7", "2040.0"),
	// including scientific notation for values past int64. Truncate through
	// big.Float so the magnitude survives; int64(f) on an overflowing value
	// would wrap.
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		i, _ := new(big.Float).SetFloat64(f).Int(nil)
		return i.String()
	}

	return "0"
}

// parseIntOr parses a string as an integer, returning def if parsing fails.
func parseIntOr(s string, def int) int {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return def
	}
	return v
}

func isDigits(s string) bool {
	start := 0
	if strings.HasPrefix(s, "-") {
		start = 1
	}
	if start >= len(s) {
		return false
	}
	for _, r := range s[start:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// cell returns the trimmed value at index i, or "" when the row is short.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
