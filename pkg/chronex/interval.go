package chronex

import (
	"math/rand"
	"sync"
	"time"
)

// IntervalSchedule is a fixed or random-range "@every" schedule (§3, §4.6).
type IntervalSchedule struct {
	Min time.Duration
	Max time.Duration // zero means "fixed interval, no range"
}

// HasRange reports whether this is a random-range interval ("@every 1h-2h")
// rather than a fixed one ("@every 1h").
func (s IntervalSchedule) HasRange() bool {
	return s.Max > 0
}

var intervalRNG = struct {
	mu sync.Mutex
	r  *rand.Rand
}{r: rand.New(rand.NewSource(1))}

// seedIntervalRNG reseeds the package-level random source, which otherwise
// starts from the fixed seed 1. Only tests call it, to make range-sampling
// deterministic.
func seedIntervalRNG(seed int64) {
	intervalRNG.mu.Lock()
	intervalRNG.r = rand.New(rand.NewSource(seed))
	intervalRNG.mu.Unlock()
}

func randomDurationBetween(min, max time.Duration) time.Duration {
	span := max - min
	if span <= 0 {
		return min
	}
	intervalRNG.mu.Lock()
	n := intervalRNG.r.Int63n(int64(span) + 1)
	intervalRNG.mu.Unlock()
	return min + time.Duration(n)
}

// NextAfter returns from advanced by a fixed interval, or by a uniformly
// sampled duration in [Min, Max] for a range interval (§4.6). Range
// sampling has millisecond resolution per §4.1's duration grammar.
func (s IntervalSchedule) NextAfter(from time.Time) time.Time {
	if !s.HasRange() {
		return from.Add(s.Min)
	}
	d := randomDurationBetween(s.Min, s.Max)
	d = d.Round(time.Millisecond)
	return from.Add(d)
}

// OnceSchedule is a one-shot absolute (or originally relative) fire instant
// (§3, §4.6).
type OnceSchedule struct {
	FireAt           time.Time
	WasRelative      bool
	RelativeDuration time.Duration // only meaningful when WasRelative
}

// NextAfter returns FireAt if it is strictly after from, else the zero time
// with ok=false (§4.6: "return fire_at if fire_at > from else none").
func (s OnceSchedule) NextAfter(from time.Time) (time.Time, bool) {
	if s.FireAt.After(from) {
		return s.FireAt, true
	}
	return time.Time{}, false
}
