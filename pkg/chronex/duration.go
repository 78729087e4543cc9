package chronex

import (
	"fmt"
	"strings"
	"time"
)

// ParseDuration parses a compound duration string of the form
// "{digits unit}+" where unit is one of ms, s, m, h, d (§4.1). Unlike
// time.ParseDuration it accepts a "d" (day, exactly 24h) unit and rejects
// fractional/negative components outright — Chronex durations are always
// non-negative spans built from whole-number components.
//
// Examples: "1h30m", "500ms", "2d", "1h30m500ms".
func ParseDuration(s string) (time.Duration, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("chronex: empty duration")
	}

	var total time.Duration
	i := 0
	n := len(raw)
	for i < n {
		start := i
		for i < n && raw[i] >= '0' && raw[i] <= '9' {
			i++
		}
		if i == start {
			return 0, fmt.Errorf("chronex: invalid duration %q: expected digits at position %d", s, start)
		}
		digits := raw[start:i]

		unitStart := i
		// "m" must be disambiguated from "ms" by a two-character lookahead.
		unit := ""
		if i+1 < n && raw[i] == 'm' && raw[i+1] == 's' {
			unit = "ms"
			i += 2
		} else if i < n {
			switch raw[i] {
			case 's', 'm', 'h', 'd':
				unit = string(raw[i])
				i++
			}
		}
		if unit == "" {
			if unitStart >= n {
				return 0, fmt.Errorf("chronex: invalid duration %q: trailing digits with no unit", s)
			}
			return 0, fmt.Errorf("chronex: invalid duration %q: unknown unit at position %d", s, unitStart)
		}

		var value int64
		for _, c := range digits {
			value = value*10 + int64(c-'0')
			if value < 0 {
				return 0, fmt.Errorf("chronex: invalid duration %q: overflow", s)
			}
		}

		var unitDur time.Duration
		switch unit {
		case "ms":
			unitDur = time.Millisecond
		case "s":
			unitDur = time.Second
		case "m":
			unitDur = time.Minute
		case "h":
			unitDur = time.Hour
		case "d":
			unitDur = 24 * time.Hour
		}

		component := time.Duration(value) * unitDur
		if unitDur != 0 && int64(component)/int64(unitDur) != value {
			return 0, fmt.Errorf("chronex: invalid duration %q: overflow", s)
		}
		next := total + component
		if next < total {
			return 0, fmt.Errorf("chronex: invalid duration %q: overflow", s)
		}
		total = next
	}

	return total, nil
}

// FormatDuration renders d in canonical form: nonzero components
// largest-unit-first (d, h, m, s, ms), zero renders as "0ms". Rendering a
// value produced by ParseDuration and re-parsing it yields the identity —
// canonical output is always itself canonical.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0ms"
	}
	if d < 0 {
		d = -d
	}

	var b strings.Builder
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond

	write := func(v time.Duration, unit string) {
		if v > 0 {
			fmt.Fprintf(&b, "%d%s", v, unit)
		}
	}
	write(days, "d")
	write(hours, "h")
	write(minutes, "m")
	write(seconds, "s")
	write(millis, "ms")
	return b.String()
}
