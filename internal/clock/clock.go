package clock

import "time"

// Clock abstracts time so the scheduler's tick loop (§4.12) can be driven
// deterministically in tests instead of sleeping on a real wall clock.
// Production code injects Real(); tests inject Fake() and advance it
// explicitly.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	AfterFunc(d time.Duration, f func()) *Timer
	NewTicker(d time.Duration) *Ticker
	Sleep(d time.Duration)
}

// Ticker wraps a periodic timer. Read ticks from C; call Stop when done.
// C has capacity 1, matching time.Ticker — a slow consumer drops ticks
// rather than queuing them.
type Ticker struct {
	C <-chan time.Time

	stopFunc  func()
	resetFunc func(time.Duration)
}

func (t *Ticker) Stop()                 { t.stopFunc() }
func (t *Ticker) Reset(d time.Duration) { t.resetFunc(d) }

// Timer represents a scheduled one-shot callback or channel delivery. C is
// nil for timers created via AfterFunc.
type Timer struct {
	C <-chan time.Time

	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

func (t *Timer) Stop() bool                { return t.stopFunc() }
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
