package chronex

import (
	"testing"
	"time"
)

func TestParseOptionsBasic(t *testing.T) {
	t.Parallel()
	opt, diags := parseOptions("jitter:30s,max:5,tag:a+b", time.UTC)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if opt.Jitter == nil || *opt.Jitter != 30*time.Second {
		t.Fatalf("jitter = %v", opt.Jitter)
	}
	if opt.Max == nil || *opt.Max != 5 {
		t.Fatalf("max = %v", opt.Max)
	}
	if len(opt.Tags) != 2 || opt.Tags[0] != "a" || opt.Tags[1] != "b" {
		t.Fatalf("tags = %v", opt.Tags)
	}
}

func TestParseOptionsDuplicateKeyLastWins(t *testing.T) {
	t.Parallel()
	opt, diags := parseOptions("max:2,max:9", time.UTC)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if opt.Max == nil || *opt.Max != 9 {
		t.Fatalf("max = %v, want 9 (last wins)", opt.Max)
	}
}

func TestParseOptionsDuplicateTagWarning(t *testing.T) {
	t.Parallel()
	_, diags := parseOptions("tag:a+b+a", time.UTC)
	if !containsCode(diags, CodeDupTag) {
		t.Fatalf("expected W001 duplicate tag, got %+v", diags)
	}
}

func TestParseOptionsUnknownKey(t *testing.T) {
	t.Parallel()
	_, diags := parseOptions("bogus:1", time.UTC)
	if !containsCode(diags, CodeOptionKey) {
		t.Fatalf("expected E015 unknown key, got %+v", diags)
	}
}

func TestParseOptionsFromUntilOrdering(t *testing.T) {
	t.Parallel()
	_, diags := parseOptions("from:2026-06-01,until:2026-01-01", time.UTC)
	if !containsCode(diags, CodeFromUntil) {
		t.Fatalf("expected E020 from>=until, got %+v", diags)
	}
}

func TestParseOptionsDateOnlyUntilIsEndOfDay(t *testing.T) {
	t.Parallel()
	opt, diags := parseOptions("until:2026-01-01", time.UTC)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if opt.Until == nil {
		t.Fatal("expected Until to be set")
	}
	if opt.Until.Hour() != 23 || opt.Until.Minute() != 59 || opt.Until.Second() != 59 {
		t.Fatalf("until = %v, want end-of-day", opt.Until)
	}
}

func TestOptionsStringRendersDateOnlyUntilShort(t *testing.T) {
	t.Parallel()
	opt, diags := parseOptions("until:2026-01-01", time.UTC)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	rendered := opt.String()
	if rendered != "{until:2026-01-01}" {
		t.Fatalf("String() = %q, want short date-only until", rendered)
	}

	reparsed, diags := parseOptions(rendered[1 : len(rendered)-1], time.UTC)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics on reparse: %+v", diags)
	}
	if !reparsed.Until.Equal(*opt.Until) {
		t.Fatalf("round-trip until = %v, want %v", reparsed.Until, opt.Until)
	}
}

func TestOptionsStringRendersFullUntilTimestamp(t *testing.T) {
	t.Parallel()
	opt, diags := parseOptions("until:2026-01-01T10:00:00Z", time.UTC)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	rendered := opt.String()
	if rendered != "{until:2026-01-01T10:00:00Z}" {
		t.Fatalf("String() = %q, want full timestamp until", rendered)
	}
}

func TestParseOptionsDateOnlyUntilUsesDeclaredTimezone(t *testing.T) {
	t.Parallel()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	opt, diags := parseOptions("until:2026-01-01", loc)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if opt.Until.Location() != loc {
		t.Fatalf("until location = %v, want %v", opt.Until.Location(), loc)
	}
	wantUTC := time.Date(2026, 1, 2, 4, 59, 59, 999_000_000, time.UTC) // 23:59:59.999 EST is 04:59:59.999 UTC next day
	if !opt.Until.Equal(wantUTC) {
		t.Fatalf("until (UTC) = %v, want %v", opt.Until.UTC(), wantUTC)
	}
}

func TestParseOptionsNonPositiveDurations(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		code Code
	}{
		{"window:0s", CodeWindowValue},
		{"stagger:0s", CodeStaggerValue},
		{"max:0", CodeMaxValue},
		{"max:-1", CodeMaxValue},
	}
	for _, tt := range cases {
		_, diags := parseOptions(tt.raw, time.UTC)
		if !containsCode(diags, tt.code) {
			t.Fatalf("%s: expected %s, got %+v", tt.raw, tt.code, diags)
		}
	}
}

func containsCode(diags []Diagnostic, code Code) bool {
	for _, d := range diags {
		if d.Code == code {
			return true
		}
	}
	return false
}
