package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"chronex/pkg/chronex"
)

// HandlerFunc is invoked once per firing. It receives a cancellation-aware
// context; returning a context.Canceled-wrapping error is treated as
// cancellation (§4.12 step 12), anything else as a handler failure (step 11).
type HandlerFunc func(ctx context.Context, tc TriggerContext) error

// TriggerContext is passed to a handler on each firing (§4.12).
type TriggerContext struct {
	ID         string
	Scheduled  time.Time // nominal instant, before stagger/jitter
	Actual     time.Time // the tick's "now"
	FireCount  int       // 1-based
	Expression *chronex.Expression
	Metadata   map[string]string
}

// TriggerRegistration is one entry in the scheduler's registry (§3, §4.12).
// fire_count is incremented atomically; next_fire/last_fired are guarded by
// mu; enabled is a volatile flag — matching the three distinct concurrency
// primitives the spec calls for per field.
type TriggerRegistration struct {
	id       string
	expr     *chronex.Expression
	handler  HandlerFunc
	metadata map[string]string

	enabled atomic.Bool

	mu        sync.Mutex
	nextFire  *time.Time
	lastFired time.Time

	fireCount atomic.Int64
}

// ID returns the registration's trigger id.
func (r *TriggerRegistration) ID() string { return r.id }

// Expression returns the parsed expression driving this trigger.
func (r *TriggerRegistration) Expression() *chronex.Expression { return r.expr }

// Enabled reports whether this trigger currently fires on tick.
func (r *TriggerRegistration) Enabled() bool { return r.enabled.Load() }

// SetEnabled toggles whether this trigger fires on tick. While disabled, a
// trigger whose next_fire has passed emits a Skipped event on every tick and
// keeps that next_fire, so once re-enabled it is evaluated against that same
// instant.
func (r *TriggerRegistration) SetEnabled(v bool) { r.enabled.Store(v) }

// FireCount returns the number of times this trigger has fired.
func (r *TriggerRegistration) FireCount() int64 { return r.fireCount.Load() }

// NextFire returns the next scheduled nominal instant, if any.
func (r *TriggerRegistration) NextFire() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nextFire == nil {
		return time.Time{}, false
	}
	return *r.nextFire, true
}

// LastFired returns the last instant this trigger actually fired.
func (r *TriggerRegistration) LastFired() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastFired.IsZero() {
		return time.Time{}, false
	}
	return r.lastFired, true
}
