package chronex

import "time"

// attachZone resolves a naive (location-less) local time against loc,
// handling the two DST fold cases called out in §4.10:
//
//   - Gap (spring-forward): naive falls inside a skipped local interval.
//     Resolved by reconstructing the instant from the UTC offset in effect
//     two hours before the gap, then re-deriving wall-clock fields from
//     that offset — matching how the zone transition actually shifts time
//     forward.
//   - Fold (fall-back): naive is ambiguous, occurring twice. The earlier
//     (pre-transition) occurrence is chosen, per spec.
//
// This is the only place DST/IANA semantics may be applied; CronSchedule's
// internal arithmetic always treats time as plain UTC-backed Gregorian math
// and never sees loc.
func attachZone(naive time.Time, loc *time.Location) time.Time {
	year, month, day := naive.Date()
	hour, min, sec := naive.Clock()
	nsec := naive.Nanosecond()

	candidate := time.Date(year, month, day, hour, min, sec, nsec, loc)

	// Round-trip through the zone: if the wall-clock fields we get back
	// don't match what we asked for, the requested instant fell in a gap.
	y2, mo2, d2 := candidate.Date()
	h2, mi2, s2 := candidate.Clock()
	if y2 == year && mo2 == month && d2 == day && h2 == hour && mi2 == min && s2 == sec {
		return candidate
	}

	// Gap: resolve using the offset from shortly before the transition,
	// then rebuild the instant from that fixed offset.
	before := candidate.Add(-2 * time.Hour)
	_, offsetBefore := before.Zone()
	utcEquivalent := time.Date(year, month, day, hour, min, sec, nsec, time.UTC).Add(-time.Duration(offsetBefore) * time.Second)
	return utcEquivalent.In(loc)
}

// resolveFold disambiguates a naive local time that occurs twice across a
// fall-back transition by picking the earlier (pre-transition) UTC instant.
// Go's time.Date already resolves ambiguous wall clocks to the first
// occurrence for zones with a single fall-back transition, so this is a
// named alias of attachZone rather than extra logic. nextCronOccurrence
// calls attachZone directly; only the tests call resolveFold.
func resolveFold(naive time.Time, loc *time.Location) time.Time {
	return attachZone(naive, loc)
}

// loadLocation wraps time.LoadLocation with the package's diagnostic coding
// (E011) for an expression-layer caller.
func loadLocation(name string) (*time.Location, *Diagnostic) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		d := diag(CodeTimezone, "", "unknown IANA timezone", name, -1)
		return nil, &d
	}
	return loc, nil
}
