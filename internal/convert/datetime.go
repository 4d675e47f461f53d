package convert

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSimpleTime implements the F-direction date/time parse named in
// spec.md §4.6: "YYYY-MM-DD[ HH:MM:SS[.frac][±HH]] [BC]", plus the literals
// "infinity" / "-infinity" / "invalid".
func ParseSimpleTime(text string) (SimpleTime, error) {
	text = strings.TrimSpace(text)

	switch strings.ToLower(text) {
	case "infinity":
		return SimpleTime{Infinity: 1, Y: 9999, M: 12, D: 31, Hh: 23, Mm: 59, Ss: 59}, nil
	case "-infinity":
		return SimpleTime{Infinity: -1, Y: 1, M: 1, D: 1}, nil
	case "invalid":
		return SimpleTime{}, fmt.Errorf("convert: invalid timestamp literal")
	}

	bc := false
	if strings.HasSuffix(strings.ToUpper(text), "BC") {
		bc = true
		text = strings.TrimSpace(text[:len(text)-2])
	}

	var datePart, timePart string
	if sp := strings.IndexByte(text, ' '); sp >= 0 {
		datePart, timePart = text[:sp], strings.TrimSpace(text[sp+1:])
	} else {
		datePart = text
	}

	dateFields := strings.Split(datePart, "-")
	if len(dateFields) != 3 {
		return SimpleTime{}, fmt.Errorf("convert: malformed date %q", datePart)
	}
	y, err := strconv.Atoi(dateFields[0])
	if err != nil {
		return SimpleTime{}, fmt.Errorf("convert: malformed year %q: %w", dateFields[0], err)
	}
	m, err := strconv.Atoi(dateFields[1])
	if err != nil {
		return SimpleTime{}, fmt.Errorf("convert: malformed month %q: %w", dateFields[1], err)
	}
	d, err := strconv.Atoi(dateFields[2])
	if err != nil {
		return SimpleTime{}, fmt.Errorf("convert: malformed day %q: %w", dateFields[2], err)
	}

	st := SimpleTime{Y: y, M: m, D: d, BC: bc}

	if timePart == "" {
		return st, nil
	}

	// Strip an optional trailing "±HH" zone offset. The offset is discarded:
	// the wall-clock fields are returned as written, with no conversion to
	// the local time zone for any year.
	timePart = strings.TrimRight(timePart, " ")
	for i := 1; i < len(timePart); i++ {
		if timePart[i] == '+' || timePart[i] == '-' {
			timePart = timePart[:i]
			break
		}
	}

	hhmmss := strings.SplitN(timePart, ".", 2)
	clock := strings.Split(hhmmss[0], ":")
	if len(clock) != 3 {
		return SimpleTime{}, fmt.Errorf("convert: malformed time %q", timePart)
	}
	hh, err := strconv.Atoi(clock[0])
	if err != nil {
		return SimpleTime{}, fmt.Errorf("convert: malformed hour %q: %w", clock[0], err)
	}
	mm, err := strconv.Atoi(clock[1])
	if err != nil {
		return SimpleTime{}, fmt.Errorf("convert: malformed minute %q: %w", clock[1], err)
	}
	ss, err := strconv.Atoi(clock[2])
	if err != nil {
		return SimpleTime{}, fmt.Errorf("convert: malformed second %q: %w", clock[2], err)
	}
	st.Hh, st.Mm, st.Ss = hh, mm, ss

	if len(hhmmss) == 2 {
		frac := hhmmss[1]
		for len(frac) < 6 {
			frac += "0"
		}
		fr, err := strconv.Atoi(frac[:6])
		if err != nil {
			return SimpleTime{}, fmt.Errorf("convert: malformed fraction %q: %w", hhmmss[1], err)
		}
		st.Fr = fr
	}

	return st, nil
}

// Format renders a SimpleTime back to PostgreSQL's default timestamp text
// form, honoring the infinity sentinels.
func (st SimpleTime) Format() string {
	switch st.Infinity {
	case 1:
		return "infinity"
	case -1:
		return "-infinity"
	}

	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", st.Y, st.M, st.D, st.Hh, st.Mm, st.Ss)
	if st.Fr != 0 {
		s += fmt.Sprintf(".%06d", st.Fr)
	}
	if st.BC {
		s += " BC"
	}
	return s
}

// FormatDate renders only the date portion, for SQL_TYPE_DATE targets.
func (st SimpleTime) FormatDate() string {
	s := fmt.Sprintf("%04d-%02d-%02d", st.Y, st.M, st.D)
	if st.BC {
		s += " BC"
	}
	return s
}

// FormatTime renders only the time-of-day portion, for SQL_TYPE_TIME
// targets.
func (st SimpleTime) FormatTime() string {
	s := fmt.Sprintf("%02d:%02d:%02d", st.Hh, st.Mm, st.Ss)
	if st.Fr != 0 {
		s += fmt.Sprintf(".%06d", st.Fr)
	}
	return s
}

// ApplyLFConversion performs the symmetric "\n" <-> "\r\n" translation
// named in spec.md §4.6, used when a connection has LF conversion enabled.
func ApplyLFConversion(s string, toCRLF bool) string {
	if toCRLF {
		return strings.ReplaceAll(s, "\n", "\r\n")
	}
	return strings.ReplaceAll(s, "\r\n", "\n")
}
