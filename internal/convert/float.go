package convert

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat implements the G-direction float formatting named in
// spec.md §4.7: 15 significant digits for double, 7 for float, with NaN and
// the two infinities spelled out the way PostgreSQL's input parser accepts.
func FormatFloat(v float64, isDouble bool) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	prec := 7
	if isDouble {
		prec = 15
	}
	return strconv.FormatFloat(v, 'g', prec, 64)
}

// ParseFloat accepts the same spelled-out special values on input.
func ParseFloat(text string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "nan":
		return math.NaN(), nil
	case "infinity", "inf":
		return math.Inf(1), nil
	case "-infinity", "-inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(text), 64)
}

// DecimalSeparator translates a locally-formatted decimal separator back to
// "." before transmission, per spec.md §4.7 ("decimal separator is locally
// written then translated back to '.' before transmission").
func DecimalSeparator(s string, local byte) string {
	if local == '.' {
		return s
	}
	return strings.ReplaceAll(s, string(local), ".")
}
