package chronex

import "strings"

var monthNames = map[string]int{
	"JAN": 1, "FEB": 2, "MAR": 3, "APR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AUG": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DEC": 12,
}

var dowNames = map[string]int{
	"SUN": 0, "MON": 1, "TUE": 2, "WED": 3, "THU": 4, "FRI": 5, "SAT": 6,
}

// resolveSymbol maps a three-letter month/DOW name (case-insensitive) to its
// numeric value. ok is false if tok isn't a recognized name for the field.
func resolveSymbol(field fieldKind, tok string) (int, bool) {
	up := strings.ToUpper(tok)
	switch field {
	case fieldMonth:
		v, ok := monthNames[up]
		return v, ok
	case fieldDOW:
		v, ok := dowNames[up]
		return v, ok
	default:
		return 0, false
	}
}

// fieldKind identifies one of the six cron positions and its domain.
type fieldKind int

const (
	fieldSecond fieldKind = iota
	fieldMinute
	fieldHour
	fieldDOM
	fieldMonth
	fieldDOW
)

func (k fieldKind) domain() (min, max int) {
	switch k {
	case fieldSecond, fieldMinute:
		return 0, 59
	case fieldHour:
		return 0, 23
	case fieldDOM:
		return 1, 31
	case fieldMonth:
		return 1, 12
	case fieldDOW:
		return 0, 6
	}
	return 0, 0
}

func (k fieldKind) errCode() Code {
	switch k {
	case fieldSecond:
		return CodeSecondRange
	case fieldMinute:
		return CodeMinuteRange
	case fieldHour:
		return CodeHourRange
	case fieldDOM:
		return CodeDOMRange
	case fieldMonth:
		return CodeMonthRange
	case fieldDOW:
		return CodeDOWRange
	}
	return CodeStructural
}

func (k fieldKind) name() string {
	switch k {
	case fieldSecond:
		return "second"
	case fieldMinute:
		return "minute"
	case fieldHour:
		return "hour"
	case fieldDOM:
		return "dom"
	case fieldMonth:
		return "month"
	case fieldDOW:
		return "dow"
	}
	return "field"
}
