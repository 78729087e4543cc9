package chronex

import "time"

// CronSchedule composes six numeric fields plus optional DOM/DOW specials
// (§3 CronSchedule). matches/next_after operate on naive local time — the
// caller (Expression) is responsible for timezone attachment (§4.10).
type CronSchedule struct {
	second, minute, hour, dom, month, dow CronField
	hasSeconds                            bool
	domSpecial                            *SpecialEntry
	dowSpecial                            *SpecialEntry
}

// domMatches reports whether t's day-of-month satisfies the DOM field or
// special.
func (c CronSchedule) domMatches(t time.Time) bool {
	if c.domSpecial != nil {
		return c.domSpecial.Matches(t.Year(), t.Month(), t.Day())
	}
	return c.dom.Matches(t.Day())
}

// dowMatches reports whether t's day-of-week satisfies the DOW field or
// special.
func (c CronSchedule) dowMatches(t time.Time) bool {
	if c.dowSpecial != nil {
		return c.dowSpecial.Matches(t.Year(), t.Month(), t.Day())
	}
	return c.dow.Matches(int(t.Weekday()))
}

// domIsWildcard/dowIsWildcard feed the Vixie OR-join rule (§4.4): a special
// counts as non-wildcard.
func (c CronSchedule) domIsWildcard() bool {
	return c.domSpecial == nil && c.dom.isWildcard()
}

func (c CronSchedule) dowIsWildcard() bool {
	return c.dowSpecial == nil && c.dow.isWildcard()
}

// dayMatches implements the Vixie-cron DOM/DOW join predicate (§4.4).
func (c CronSchedule) dayMatches(t time.Time) bool {
	domWild := c.domIsWildcard()
	dowWild := c.dowIsWildcard()
	switch {
	case domWild && dowWild:
		return true
	case domWild && !dowWild:
		return c.dowMatches(t)
	case !domWild && dowWild:
		return c.domMatches(t)
	default:
		return c.domMatches(t) || c.dowMatches(t)
	}
}

// Matches reports whether t (naive local time — caller strips tz semantics)
// satisfies every field of the schedule (§4.4).
func (c CronSchedule) Matches(t time.Time) bool {
	if c.hasSeconds && !c.second.Matches(t.Second()) {
		return false
	}
	if !c.hasSeconds && t.Second() != 0 {
		return false
	}
	if !c.minute.Matches(t.Minute()) {
		return false
	}
	if !c.hour.Matches(t.Hour()) {
		return false
	}
	if !c.month.Matches(int(t.Month())) {
		return false
	}
	return c.dayMatches(t)
}

const maxSearchYears = 4

// NextAfter returns the earliest naive-local instant strictly after `from`
// that Matches, or the zero Time with ok=false if none exists within
// maxSearchYears (§4.5).
//
// Calendar arithmetic here is always done in a fixed UTC-like offset,
// deliberately ignoring from's Location — "naive local" means plain
// Gregorian calendar math with no DST folds or gaps. Expression is the only
// layer that reattaches a real IANA zone (§4.10), exactly once, to the
// result this function returns.
func (c CronSchedule) NextAfter(from time.Time) (time.Time, bool) {
	naive := time.Date(from.Year(), from.Month(), from.Day(), from.Hour(), from.Minute(), from.Second(), 0, time.UTC)
	t := naive.Add(time.Second)

	deadline := naive.AddDate(maxSearchYears, 0, 0)

	for iter := 0; ; iter++ {
		if t.After(deadline) {
			return time.Time{}, false
		}
		if iter > 4_000_000 {
			// Defensive bound: every branch below strictly advances t, so this
			// should never trip; it exists so a future bug fails loud instead
			// of spinning forever.
			return time.Time{}, false
		}

		if !c.month.Matches(int(t.Month())) {
			t = nextMonthStart(t)
			continue
		}
		if !c.dayMatches(t) {
			t = nextDayStart(t)
			continue
		}
		if !c.hour.Matches(t.Hour()) {
			t = nextHourStart(t)
			continue
		}
		if !c.minute.Matches(t.Minute()) {
			t = nextMinuteStart(t)
			continue
		}
		if c.hasSeconds {
			if !c.second.Matches(t.Second()) {
				t = nextSecondMatch(t, c.second)
				continue
			}
		} else if t.Second() != 0 {
			t = nextMinuteStart(t)
			continue
		}
		return t, true
	}
}

func nextMonthStart(t time.Time) time.Time {
	year, month := t.Year(), t.Month()
	month++
	if month > 12 {
		month = 1
		year++
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}

func nextDayStart(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, 1)
}

// nextHourStart advances to the top of the next hour; time.Date normalizes
// an hour of 24 into day+1 hour 0, so the wrap to the next day is implicit.
func nextHourStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
}

// nextMinuteStart advances to the top of the next minute; an overflowing
// minute of 60 normalizes into the next hour the same way.
func nextMinuteStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()+1, 0, 0, t.Location())
}

// nextSecondMatch scans forward within the current minute for the next
// matching second; wrapping past :59 advances the minute.
func nextSecondMatch(t time.Time, second CronField) time.Time {
	for s := t.Second() + 1; s <= 59; s++ {
		if second.Matches(s) {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), s, 0, t.Location())
		}
	}
	return nextMinuteStart(t)
}
