package ramp

import (
	"math"
	"strconv"
	"strings"
)

// DefaultDecimals is the number of decimals of numeric labels.
const DefaultDecimals = 2

// ParseNumber reads a number written with or without thousands
// separators, either "1,234,567.99" or "1.234.567,99".
// "inf", "+inf" and "-inf" are accepted.
func ParseNumber(s string) (float64, bool) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) {
		return f, true
	}
	v := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) {
		return f, true
	}
	ic, ip := strings.IndexByte(v, ','), strings.IndexByte(v, '.')
	switch {
	case ic < 0 && ip < 0:
		return 0, false
	case ip < 0 && grouped(v, ","):
		// "12,345" is a thousands separator, "3,5" a decimal comma
		v = strings.ReplaceAll(v, ",", "")
	case ip > ic:
		v = strings.ReplaceAll(v, ",", "")
	default:
		v = strings.ReplaceAll(v, ".", "")
		v = strings.ReplaceAll(v, ",", ".")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// grouped reports whether v is an integer whose digits are split in
// groups of three by sep, as in "1,000" or "-12,345,678".
func grouped(v, sep string) bool {
	parts := strings.Split(strings.TrimLeft(v, "+-"), sep)
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for i, p := range parts {
		if i > 0 && len(p) != 3 {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// FormatNumber writes f with the given number of decimals.
func FormatNumber(f float64, decimals int) string {
	if decimals < 0 {
		decimals = DefaultDecimals
	}
	s := strconv.FormatFloat(f, 'f', decimals, 64)
	if s == "-"+strconv.FormatFloat(0, 'f', decimals, 64) {
		s = s[1:]
	}
	return s
}

// FormatLabel rewrites a numeric label with a fixed number of decimals.
// Other labels are returned unchanged.
func FormatLabel(label string, decimals int) string {
	f, ok := ParseNumber(label)
	if !ok || math.IsInf(f, 0) {
		return label
	}
	return FormatNumber(f, decimals)
}
