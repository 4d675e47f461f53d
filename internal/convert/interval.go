package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseInterval implements the F-direction interval parse named in
// spec.md §4.6: PostgreSQL's default interval output style ("N-M",
// "N years M mons", "N days HH:MM:SS.frac", etc). It is not a full interval
// grammar; it covers the forms the default IntervalStyle produces.
func ParseInterval(text string, kind IntervalKind) (Interval, error) {
	text = strings.TrimSpace(text)
	iv := Interval{Kind: kind}

	if strings.HasPrefix(text, "-") {
		iv.Negative = true
	}

	fields := strings.Fields(text)
	i := 0
	for i < len(fields) {
		tok := fields[i]

		if isYearMonthToken(tok) {
			// "Y-M" compact year-month form.
			parts := strings.SplitN(strings.TrimPrefix(tok, "-"), "-", 2)
			y, _ := strconv.Atoi(parts[0])
			m, _ := strconv.Atoi(parts[1])
			iv.Year, iv.Month = y, m
			i++
			continue
		}

		if strings.Contains(tok, ":") {
			if err := parseClock(strings.TrimPrefix(tok, "-"), &iv); err != nil {
				return Interval{}, err
			}
			i++
			continue
		}

		if i+1 < len(fields) {
			n, err := strconv.Atoi(strings.TrimPrefix(tok, "-"))
			if err == nil {
				unit := fields[i+1]
				applyUnit(&iv, n, unit)
				i += 2
				continue
			}
		}

		i++
	}

	return iv, nil
}

// isYearMonthToken reports whether tok is the compact "Y-M" form, i.e. an
// optional leading '-' followed by digits, a single interior '-', and more
// digits — never matching a bare negative integer like "-1".
func isYearMonthToken(tok string) bool {
	t := strings.TrimPrefix(tok, "-")
	dash := strings.IndexByte(t, '-')
	if dash <= 0 || dash == len(t)-1 {
		return false
	}
	left, right := t[:dash], t[dash+1:]
	for _, r := range left + right {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func parseClock(tok string, iv *Interval) error {
	parts := strings.SplitN(tok, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("convert: malformed interval clock %q", tok)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("convert: malformed interval hour %q: %w", parts[0], err)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("convert: malformed interval minute %q: %w", parts[1], err)
	}
	secFields := strings.SplitN(parts[2], ".", 2)
	ss, err := strconv.Atoi(secFields[0])
	if err != nil {
		return fmt.Errorf("convert: malformed interval second %q: %w", parts[2], err)
	}
	iv.Hour, iv.Minute, iv.Second = hh, mm, ss
	if len(secFields) == 2 {
		frac := secFields[1]
		for len(frac) < 9 {
			frac += "0"
		}
		ns, _ := strconv.Atoi(frac[:9])
		iv.Fraction = ns
	}
	return nil
}

func applyUnit(iv *Interval, n int, unit string) {
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "year":
		iv.Year = n
	case "mon":
		iv.Month = n
	case "day":
		iv.Day = n
	case "hour":
		iv.Hour = n
	case "minute", "min":
		iv.Minute = n
	case "second", "sec":
		iv.Second = n
	}
}

// Format implements the G-direction canonical form named in spec.md §4.7:
// "[-]N days [-]HH:MM:SS.frac", with the exact digit count the C struct's
// Fraction field demands and trailing zeros stripped.
func (iv Interval) Format(fractionDigits int) string {
	var b strings.Builder

	sign := ""
	if iv.Negative {
		sign = "-"
	}

	switch iv.Kind {
	case IntervalYear:
		fmt.Fprintf(&b, "%s%d years", sign, iv.Year)
	case IntervalMonth:
		fmt.Fprintf(&b, "%s%d mons", sign, iv.Month)
	case IntervalYear2Month:
		fmt.Fprintf(&b, "%s%d years %d mons", sign, iv.Year, iv.Month)
	default:
		if iv.Day != 0 {
			fmt.Fprintf(&b, "%s%d days ", sign, iv.Day)
		}
		fmt.Fprintf(&b, "%s%02d:%02d:%02d", sign, iv.Hour, iv.Minute, iv.Second)
		if fractionDigits > 0 && iv.Fraction != 0 {
			frac := fmt.Sprintf("%09d", iv.Fraction)[:fractionDigits]
			frac = strings.TrimRight(frac, "0")
			if frac != "" {
				b.WriteString("." + frac)
			}
		}
	}

	return strings.TrimSpace(b.String())
}
