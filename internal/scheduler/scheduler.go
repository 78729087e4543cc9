package scheduler

import (
	"context"
	"errors"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chronex/internal/clock"
	"chronex/internal/eventbus"
	"chronex/pkg/chronex"
	logx "chronex/pkg/logx"
)

var (
	// ErrAlreadyRegistered is returned by Register when id is already in use.
	ErrAlreadyRegistered = errors.New("scheduler: trigger id already registered")
	// ErrDisposed is returned by Start once the scheduler has been disposed.
	ErrDisposed = errors.New("scheduler: disposed")
)

const tickInterval = time.Second

// Config configures a Scheduler.
type Config struct {
	Clock clock.Clock
	Log   logx.Logger
	Bus   eventbus.Bus
}

// Scheduler is a tick-driven trigger engine (§4.12): a concurrent registry
// of TriggerRegistrations, evaluated once per tick against a pluggable
// clock, with stagger/jitter/window/max enforcement and lifecycle events.
type Scheduler struct {
	clock clock.Clock
	log   logx.Logger
	bus   eventbus.Bus

	mu    sync.RWMutex
	regs  map[string]*TriggerRegistration

	rngMu sync.Mutex
	rng   *rand.Rand

	started  atomic.Int32
	disposed atomic.Int32
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// New creates a Scheduler. It does not start the tick loop; call Start.
func New(cfg Config) *Scheduler {
	c := cfg.Clock
	if c == nil {
		c = clock.Real()
	}
	log := cfg.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		clock: c,
		log:   log,
		bus:   cfg.Bus,
		regs:  make(map[string]*TriggerRegistration),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Register adds a new trigger. It fails if id is already registered
// (§4.12 Registry).
func (s *Scheduler) Register(id string, expr *chronex.Expression, handler HandlerFunc, metadata map[string]string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("scheduler: id is required")
	}
	if expr == nil {
		return errors.New("scheduler: expression is required")
	}
	if handler == nil {
		return errors.New("scheduler: handler is required")
	}

	now := s.clock.Now()
	reg := &TriggerRegistration{id: id, expr: expr, handler: handler, metadata: metadata}
	reg.enabled.Store(true)
	if next, ok := expr.NextOccurrence(now); ok {
		reg.nextFire = &next
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.regs[id]; exists {
		return ErrAlreadyRegistered
	}
	s.regs[id] = reg
	return nil
}

// Unregister removes a trigger, returning false if id was not registered.
func (s *Scheduler) Unregister(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regs[id]; !ok {
		return false
	}
	delete(s.regs, id)
	return true
}

// Get returns the registration for id, if any.
func (s *Scheduler) Get(id string) (*TriggerRegistration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regs[id]
	return r, ok
}

func (s *Scheduler) snapshotRegs() []*TriggerRegistration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*TriggerRegistration, 0, len(s.regs))
	for _, r := range s.regs {
		out = append(out, r)
	}
	return out
}

// Tick runs one evaluation pass over every registration (§4.12). It is the
// single externally invokable evaluation step — tests call it directly
// instead of running the hosted loop.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	for _, reg := range s.snapshotRegs() {
		if err := s.tickOne(ctx, reg, now); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) tickOne(ctx context.Context, reg *TriggerRegistration, now time.Time) error {
	reg.mu.Lock()
	nextFire := reg.nextFire
	reg.mu.Unlock()

	if nextFire == nil { // step 1
		return nil
	}

	if !reg.enabled.Load() { // step 2
		if !now.Before(*nextFire) {
			s.publishSkipped(reg, *nextFire, now, "disabled")
		}
		return nil
	}

	opts := reg.expr.Options()

	var staggerOffset, jitterDelay time.Duration
	if opts.Stagger != nil {
		staggerOffset = staggerOffsetFor(reg.id, *opts.Stagger)
	}
	if opts.Jitter != nil {
		jitterDelay = s.randomJitter(*opts.Jitter)
	}
	effectiveFire := nextFire.Add(staggerOffset).Add(jitterDelay) // step 3

	if now.Before(effectiveFire) { // step 4
		return nil
	}

	if opts.Max != nil && reg.fireCount.Load() >= int64(*opts.Max) { // step 5
		s.publishSkipped(reg, *nextFire, now, "max reached")
		reg.mu.Lock()
		reg.nextFire = nil
		reg.mu.Unlock()
		return nil
	}

	scheduled := *nextFire
	reg.mu.Lock() // step 6: clear before invoking, prevents reentrant double-fire
	reg.nextFire = nil
	reg.mu.Unlock()

	if opts.Window != nil && now.After(scheduled.Add(*opts.Window)) { // step 7
		s.publishSkipped(reg, scheduled, now, "window exceeded")
		s.rescheduleFrom(reg, scheduled)
		return nil
	}

	count := reg.fireCount.Add(1) // step 8
	reg.mu.Lock()
	reg.lastFired = now
	reg.mu.Unlock()

	tctx := TriggerContext{
		ID:         reg.id,
		Scheduled:  scheduled,
		Actual:     now,
		FireCount:  int(count),
		Expression: reg.expr,
		Metadata:   reg.metadata,
	}

	s.publish(eventbus.TypeFiring, reg.id, scheduled, now, int(count), nil, "") // step 9
	err := reg.handler(ctx, tctx)

	switch {
	case err == nil: // step 10
		s.publish(eventbus.TypeCompleted, reg.id, scheduled, now, int(count), nil, "")

	case errors.Is(err, context.Canceled): // step 12
		s.rescheduleFrom(reg, scheduled)
		return err

	default: // step 11
		s.publish(eventbus.TypeFailed, reg.id, scheduled, now, int(count), err, "")
		s.log.Error("trigger handler failed", logx.String("trigger_id", reg.id), logx.Err(err))
	}

	// step 13: recompute next_fire; clear it if max is now met.
	next, ok := reg.expr.NextOccurrence(scheduled)
	if ok && opts.Max != nil && count >= int64(*opts.Max) {
		ok = false
	}
	reg.mu.Lock()
	if ok {
		reg.nextFire = &next
	} else {
		reg.nextFire = nil
	}
	reg.mu.Unlock()
	return nil
}

func (s *Scheduler) rescheduleFrom(reg *TriggerRegistration, scheduled time.Time) {
	next, ok := reg.expr.NextOccurrence(scheduled)
	reg.mu.Lock()
	if ok {
		reg.nextFire = &next
	} else {
		reg.nextFire = nil
	}
	reg.mu.Unlock()
}

func (s *Scheduler) publishSkipped(reg *TriggerRegistration, scheduled, now time.Time, reason string) {
	s.publish(eventbus.TypeSkipped, reg.id, scheduled, now, int(reg.fireCount.Load()), nil, reason)
}

func (s *Scheduler) publish(kind, id string, scheduled, actual time.Time, fireCount int, err error, reason string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{
		Type: kind,
		Time: actual,
		Data: eventbus.TriggerEvent{
			TriggerID:  id,
			Nominal:    scheduled,
			Actual:     actual,
			Err:        err,
			SkipReason: reason,
			FireCount:  fireCount,
		},
	})
}

// staggerOffsetFor implements "hash(id) mod stagger_ms" (§4.12 step 3):
// deterministic across scheduler instances for the same id and stagger.
func staggerOffsetFor(id string, stagger time.Duration) time.Duration {
	ms := stagger.Milliseconds()
	if ms <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return time.Duration(int64(h.Sum32())%ms) * time.Millisecond
}

func (s *Scheduler) randomJitter(jitter time.Duration) time.Duration {
	ms := jitter.Milliseconds()
	if ms <= 0 {
		return 0
	}
	s.rngMu.Lock()
	n := s.rng.Int63n(ms)
	s.rngMu.Unlock()
	return time.Duration(n) * time.Millisecond
}

// Start spawns the hosted tick loop. Idempotent; a no-op if already started,
// an error if the scheduler has been disposed (§4.12 Lifecycle).
func (s *Scheduler) Start(ctx context.Context) error {
	if s.disposed.Load() == 1 {
		return ErrDisposed
	}
	if !s.started.CompareAndSwap(0, 1) {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	go s.loop(loopCtx)
	s.log.Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.loopDone)
	for {
		if err := s.Tick(ctx, s.clock.Now()); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("tick returned an unexpected error", logx.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(tickInterval):
		}
	}
}

// StopAsync cancels the tick loop and waits for it to exit. Idempotent.
func (s *Scheduler) StopAsync() {
	if !s.started.CompareAndSwap(1, 0) {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.loopDone != nil {
		<-s.loopDone
	}
	s.log.Info("scheduler stopped")
}

// Dispose permanently stops the scheduler. Idempotent.
func (s *Scheduler) Dispose() {
	if !s.disposed.CompareAndSwap(0, 1) {
		return
	}
	s.StopAsync()
}
