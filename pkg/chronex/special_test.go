package chronex

import (
	"testing"
	"time"
)

func TestSpecialLastDay(t *testing.T) {
	t.Parallel()
	s := SpecialEntry{kind: specialLastDay}
	if !s.Matches(2026, time.February, 28) {
		t.Fatal("Feb 28 2026 should be last day (non-leap)")
	}
	if s.Matches(2024, time.February, 28) {
		t.Fatal("Feb 28 2024 should not be last day (leap year has 29)")
	}
	if !s.Matches(2024, time.February, 29) {
		t.Fatal("Feb 29 2024 should be last day (leap)")
	}
}

func TestSpecialLastWeekday(t *testing.T) {
	t.Parallel()
	s := SpecialEntry{kind: specialLastWeekday}
	// Jan 31 2026 is a Saturday -> nearest weekday backward is Jan 30 (Friday).
	if s.Matches(2026, time.January, 31) {
		t.Fatal("Jan 31 2026 (Saturday) should not itself be LW")
	}
	if !s.Matches(2026, time.January, 30) {
		t.Fatal("Jan 30 2026 (Friday) should be LW")
	}
}

func TestSpecialNearestWeekday(t *testing.T) {
	t.Parallel()
	// 2026-01-01 is a Thursday -> 1W is itself.
	if nearestWeekday(2026, time.January, 1) != 1 {
		t.Fatalf("1W Jan 2026 = %d, want 1", nearestWeekday(2026, time.January, 1))
	}
	// 2026-08-01 is a Saturday; the day before (July 31) is out of month,
	// so NearestWeekday falls forward to Monday the 3rd instead.
	if nearestWeekday(2026, time.August, 1) != 3 {
		t.Fatalf("1W Aug 2026 = %d, want 3", nearestWeekday(2026, time.August, 1))
	}
}

func TestSpecialNthDowOfMonth(t *testing.T) {
	t.Parallel()
	// 2026-03-01 is a Sunday, so Mondays fall on 2,9,16,23,30.
	s := SpecialEntry{kind: specialNthDowOfMonth, dow: 1, n: 2}
	if !s.Matches(2026, time.March, 9) {
		t.Fatal("2nd Monday of March 2026 should be the 9th")
	}
	if s.Matches(2026, time.March, 2) {
		t.Fatal("the 2nd should be the 1st Monday, not the 2nd")
	}
}

func TestSpecialNthDowOfMonthCanBeEmpty(t *testing.T) {
	t.Parallel()
	// January 2026 has only four Mondays (5,12,19,26); #5 never matches.
	s := SpecialEntry{kind: specialNthDowOfMonth, dow: 1, n: 5}
	for day := 1; day <= 31; day++ {
		if s.Matches(2026, time.January, day) {
			t.Fatalf("day %d unexpectedly matched MON#5 in a 4-Monday month", day)
		}
	}
}

func TestSpecialLastDowOfMonth(t *testing.T) {
	t.Parallel()
	// Last Monday of March 2026 is the 30th.
	s := SpecialEntry{kind: specialLastDowOfMonth, dow: 1}
	if !s.Matches(2026, time.March, 30) {
		t.Fatal("March 30 2026 should be the last Monday")
	}
	if s.Matches(2026, time.March, 23) {
		t.Fatal("March 23 2026 is not the last Monday")
	}
}

func TestParseDOMSpecial(t *testing.T) {
	t.Parallel()
	if _, ok, _ := parseDOMSpecial("15"); ok {
		t.Fatal("plain numeric DOM must not be treated as special")
	}
	if _, ok, d := parseDOMSpecial("L"); !ok || d != nil {
		t.Fatal("L should parse as special")
	}
	if _, ok, d := parseDOMSpecial("L-3"); !ok || d != nil {
		t.Fatal("L-3 should parse as special")
	}
	if _, ok, d := parseDOMSpecial("15W"); !ok || d != nil {
		t.Fatal("15W should parse as special")
	}
}

func TestParseDOWSpecial(t *testing.T) {
	t.Parallel()
	if _, ok, _ := parseDOWSpecial("5"); ok {
		t.Fatal("plain numeric DOW must not be treated as special")
	}
	e, ok, d := parseDOWSpecial("MON#2")
	if !ok || d != nil {
		t.Fatalf("MON#2 should parse as special, err=%v", d)
	}
	if e.kind != specialNthDowOfMonth || e.dow != 1 || e.n != 2 {
		t.Fatalf("unexpected entry: %+v", e)
	}
	e2, ok, d := parseDOWSpecial("FRIL")
	if !ok || d != nil {
		t.Fatalf("FRIL should parse as special, err=%v", d)
	}
	if e2.kind != specialLastDowOfMonth || e2.dow != 5 {
		t.Fatalf("unexpected entry: %+v", e2)
	}
}
