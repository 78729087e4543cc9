package chronex

import (
	"testing"
	"time"
)

func mustSchedule(t *testing.T, fields ...string) CronSchedule {
	t.Helper()
	if len(fields) != 5 && len(fields) != 6 {
		t.Fatalf("need 5 or 6 fields, got %d", len(fields))
	}
	hasSeconds := len(fields) == 6
	idx := 0
	var second CronField
	if hasSeconds {
		second = mustField(t, fieldSecond, fields[idx])
		idx++
	} else {
		second = mustField(t, fieldSecond, "0")
	}
	minute := mustField(t, fieldMinute, fields[idx])
	idx++
	hour := mustField(t, fieldHour, fields[idx])
	idx++
	dom := mustField(t, fieldDOM, fields[idx])
	idx++
	month := mustField(t, fieldMonth, fields[idx])
	idx++
	dow := mustField(t, fieldDOW, fields[idx])
	return CronSchedule{second: second, minute: minute, hour: hour, dom: dom, month: month, dow: dow, hasSeconds: hasSeconds}
}

func utc(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func TestNextAfterEveryFiveMinutes(t *testing.T) {
	t.Parallel()
	s := mustSchedule(t, "*/5", "*", "*", "*", "*")
	got, ok := s.NextAfter(utc("2026-01-01T00:03:00"))
	if !ok {
		t.Fatal("expected a match")
	}
	if !got.Equal(utc("2026-01-01T00:05:00")) {
		t.Fatalf("got %v, want 2026-01-01T00:05:00", got)
	}
}

func TestNextAfterDOM31SkipsShortMonths(t *testing.T) {
	t.Parallel()
	s := mustSchedule(t, "0", "0", "31", "*", "*")
	got, ok := s.NextAfter(utc("2026-01-31T01:00:00"))
	if !ok {
		t.Fatal("expected a match")
	}
	if !got.Equal(utc("2026-03-31T00:00:00")) {
		t.Fatalf("got %v, want 2026-03-31T00:00:00 (Feb skipped)", got)
	}
}

func TestNextAfterDOMDOWOr(t *testing.T) {
	t.Parallel()
	s := mustSchedule(t, "0", "0", "15", "*", "FRI")
	from := utc("2026-01-01T00:00:00")
	results := make([]time.Time, 0, 5)
	cur := from
	for i := 0; i < 5; i++ {
		next, ok := s.NextAfter(cur)
		if !ok {
			t.Fatalf("no match at iteration %d", i)
		}
		results = append(results, next)
		cur = next
	}
	if !results[0].Equal(utc("2026-01-02T00:00:00")) {
		t.Fatalf("first result = %v, want 2026-01-02 (a Friday)", results[0])
	}
	for _, r := range results {
		if !(r.Day() == 15 || r.Weekday() == time.Friday) {
			t.Fatalf("result %v matches neither day==15 nor Friday", r)
		}
	}
}

func TestNextAfterNthWeekday(t *testing.T) {
	t.Parallel()
	dow, ok2, d := parseDOWSpecial("MON#2")
	if !ok2 || d != nil {
		t.Fatalf("parseDOWSpecial failed: %v", d)
	}
	s := mustSchedule(t, "0", "0", "*", "*", "*")
	s.dowSpecial = &dow

	got, ok := s.NextAfter(utc("2026-03-01T00:00:00"))
	if !ok || !got.Equal(utc("2026-03-09T00:00:00")) {
		t.Fatalf("got %v, ok=%v, want 2026-03-09", got, ok)
	}

	dow5, _, _ := parseDOWSpecial("MON#5")
	s5 := mustSchedule(t, "0", "0", "*", "*", "*")
	s5.dowSpecial = &dow5
	got5, ok5 := s5.NextAfter(utc("2026-01-01T00:00:00"))
	if !ok5 || !got5.Equal(utc("2026-03-30T00:00:00")) {
		t.Fatalf("got %v, ok=%v, want 2026-03-30 (first MON#5 of the year)", got5, ok5)
	}
}

func TestNextAfterReversedHourRange(t *testing.T) {
	t.Parallel()
	s := mustSchedule(t, "0", "23-1", "*", "*", "*")
	for _, start := range []string{"2026-01-01T22:00:00", "2026-01-02T23:30:00"} {
		got, ok := s.NextAfter(utc(start))
		if !ok {
			t.Fatalf("no match from %s", start)
		}
		if !(got.Hour() == 23 || got.Hour() == 0 || got.Hour() == 1) {
			t.Fatalf("from %s got hour %d, want 23, 0, or 1", start, got.Hour())
		}
	}
}

func TestNextAfterYearBoundary(t *testing.T) {
	t.Parallel()
	s := mustSchedule(t, "0", "0", "*", "*", "*")
	got, ok := s.NextAfter(utc("2025-12-31T23:59:00"))
	if !ok || !got.Equal(utc("2026-01-01T00:00:00")) {
		t.Fatalf("got %v, ok=%v, want 2026-01-01T00:00:00", got, ok)
	}
}

func TestNextAfterDOM29SkipsNonLeapFebruaries(t *testing.T) {
	t.Parallel()
	s := mustSchedule(t, "0", "0", "29", "2", "*")
	got, ok := s.NextAfter(utc("2025-03-01T00:00:00"))
	if !ok {
		t.Fatal("expected a match")
	}
	if got.Year() != 2028 {
		t.Fatalf("next Feb 29 after 2025-03-01 should be 2028 (next leap year), got %v", got)
	}
}

func TestMatchesWithSeconds(t *testing.T) {
	t.Parallel()
	s := mustSchedule(t, "30", "*", "*", "*", "*", "*")
	if !s.Matches(utc("2026-01-01T00:00:30")) {
		t.Fatal("expected match at :30 seconds")
	}
	if s.Matches(utc("2026-01-01T00:00:31")) {
		t.Fatal("unexpected match at :31 seconds")
	}
}
