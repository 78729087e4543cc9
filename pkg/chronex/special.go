package chronex

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// specialKind tags a SpecialEntry variant (§3 SpecialEntry / §4.3).
type specialKind int

const (
	specialLastDay specialKind = iota
	specialLastWeekday
	specialLastDayOffset
	specialNearestWeekday
	specialLastDowOfMonth
	specialNthDowOfMonth
)

// SpecialEntry is a date-aware matcher for the DOM/DOW "L"/"W"/"#" syntax.
// It is evaluated against a concrete calendar date, never a bare integer.
type SpecialEntry struct {
	kind specialKind
	n    int // LastDayOffset(n), NthDowOfMonth(dow,n)
	day  int // NearestWeekday(day)
	dow  int // LastDowOfMonth(dow), NthDowOfMonth(dow,n)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Matches reports whether the special entry holds for the given calendar
// date (year/month/day); the weekday is derived from the date itself.
func (s SpecialEntry) Matches(year int, month time.Month, day int) bool {
	dim := daysInMonth(year, month)
	switch s.kind {
	case specialLastDay:
		return day == dim

	case specialLastWeekday:
		return day == lastWeekdayOfMonth(year, month)

	case specialLastDayOffset:
		return day == dim-s.n

	case specialNearestWeekday:
		return day == nearestWeekday(year, month, s.day)

	case specialLastDowOfMonth:
		wd := int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday())
		return wd == s.dow && day+7 > dim

	case specialNthDowOfMonth:
		wd := int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday())
		return wd == s.dow && (day-1)/7+1 == s.n
	}
	return false
}

func lastWeekdayOfMonth(year int, month time.Month) int {
	dim := daysInMonth(year, month)
	d := time.Date(year, month, dim, 0, 0, 0, 0, time.UTC)
	switch d.Weekday() {
	case time.Saturday:
		return dim - 1
	case time.Sunday:
		return dim - 2
	default:
		return dim
	}
}

// nearestWeekday implements §4.3 NearestWeekday(d): clamp d to the month's
// length, then walk to the nearest weekday without leaving the month.
func nearestWeekday(year int, month time.Month, day int) int {
	dim := daysInMonth(year, month)
	d := day
	if d > dim {
		d = dim
	}
	wd := time.Date(year, month, d, 0, 0, 0, 0, time.UTC).Weekday()
	switch wd {
	case time.Saturday:
		if d-1 >= 1 {
			return d - 1
		}
		return d + 2
	case time.Sunday:
		if d+1 <= dim {
			return d + 1
		}
		return d - 2
	default:
		return d
	}
}

// parseDOMSpecial recognizes DOM special syntax: "L", "LW", "L-N", "NW".
// ok is false if raw is not special DOM syntax (the caller should fall back
// to generic field parsing).
func parseDOMSpecial(raw string) (SpecialEntry, bool, *Diagnostic) {
	up := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case up == "L":
		return SpecialEntry{kind: specialLastDay}, true, nil
	case up == "LW":
		return SpecialEntry{kind: specialLastWeekday}, true, nil
	case strings.HasPrefix(up, "L-"):
		n, err := strconv.Atoi(up[2:])
		if err != nil || n < 0 {
			d := diag(CodeDOMRange, "dom", fmt.Sprintf("malformed L-N offset %q", raw), raw, -1)
			return SpecialEntry{}, true, &d
		}
		return SpecialEntry{kind: specialLastDayOffset, n: n}, true, nil
	case strings.HasSuffix(up, "W") && len(up) > 1 && up[len(up)-2] >= '0' && up[len(up)-2] <= '9':
		n, err := strconv.Atoi(up[:len(up)-1])
		if err != nil || n < 1 || n > 31 {
			d := diag(CodeDOMRange, "dom", fmt.Sprintf("malformed NW day %q", raw), raw, -1)
			return SpecialEntry{}, true, &d
		}
		return SpecialEntry{kind: specialNearestWeekday, day: n}, true, nil
	}
	return SpecialEntry{}, false, nil
}

// parseDOWSpecial recognizes DOW special syntax: "DOW#N" and "DOWL".
// ok is false if raw is plain numeric/generic DOW syntax.
func parseDOWSpecial(raw string) (SpecialEntry, bool, *Diagnostic) {
	trimmed := strings.TrimSpace(raw)
	if strings.Contains(trimmed, "#") {
		left, right, _ := strings.Cut(trimmed, "#")
		dow, err := parseFieldValue(fieldDOW, left)
		if err != nil {
			d := diag(CodeDOWRange, "dow", err.Error(), raw, -1)
			return SpecialEntry{}, true, &d
		}
		n, err := strconv.Atoi(right)
		if err != nil || n < 1 || n > 5 {
			d := diag(CodeDOWRange, "dow", fmt.Sprintf("malformed #N occurrence %q", raw), raw, -1)
			return SpecialEntry{}, true, &d
		}
		if dow < 0 || dow > 6 {
			d := diag(CodeDOWRange, "dow", fmt.Sprintf("value %d out of range [0,6]", dow), raw, -1)
			return SpecialEntry{}, true, &d
		}
		return SpecialEntry{kind: specialNthDowOfMonth, dow: dow, n: n}, true, nil
	}
	up := strings.ToUpper(trimmed)
	if strings.HasSuffix(up, "L") && !isAllDigits(trimmed) {
		left := trimmed[:len(trimmed)-1]
		dow, err := parseFieldValue(fieldDOW, left)
		if err != nil {
			d := diag(CodeDOWRange, "dow", err.Error(), raw, -1)
			return SpecialEntry{}, true, &d
		}
		if dow < 0 || dow > 6 {
			d := diag(CodeDOWRange, "dow", fmt.Sprintf("value %d out of range [0,6]", dow), raw, -1)
			return SpecialEntry{}, true, &d
		}
		return SpecialEntry{kind: specialLastDowOfMonth, dow: dow}, true, nil
	}
	return SpecialEntry{}, false, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
