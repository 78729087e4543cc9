package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	intclock "chronex/internal/clock"
	"chronex/internal/eventbus"
	"chronex/pkg/chronex"
)

func mustExpr(t *testing.T, raw string) *chronex.Expression {
	t.Helper()
	e, err := chronex.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return e
}

func TestRegisterDuplicateIDFails(t *testing.T) {
	t.Parallel()
	s := New(Config{Clock: intclock.Fake(time.Unix(0, 0))})
	expr := mustExpr(t, "@every 1m")
	noop := func(context.Context, TriggerContext) error { return nil }

	if err := s.Register("a", expr, noop, nil); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := s.Register("a", expr, noop, nil); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestTickFiresWhenDue(t *testing.T) {
	t.Parallel()
	fc := intclock.Fake(time.Unix(0, 0))
	s := New(Config{Clock: fc})
	expr := mustExpr(t, "@every 1m")

	var fired atomic.Int32
	handler := func(context.Context, TriggerContext) error {
		fired.Add(1)
		return nil
	}
	if err := s.Register("a", expr, handler, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := s.Tick(context.Background(), fc.Now().Add(30*time.Second)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if fired.Load() != 0 {
		t.Fatalf("fired too early: %d", fired.Load())
	}

	if err := s.Tick(context.Background(), fc.Now().Add(90*time.Second)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}

	reg, ok := s.Get("a")
	if !ok {
		t.Fatal("registration missing")
	}
	if reg.FireCount() != 1 {
		t.Fatalf("fire count = %d, want 1", reg.FireCount())
	}
}

func TestTickEmitsFiringAndCompletedEvents(t *testing.T) {
	t.Parallel()
	fc := intclock.Fake(time.Unix(0, 0))
	bus := eventbus.New()
	s := New(Config{Clock: fc, Bus: bus})
	expr := mustExpr(t, "@every 1m")

	ch, unsub := bus.Subscribe(8)
	defer unsub()

	handler := func(context.Context, TriggerContext) error { return nil }
	if err := s.Register("a", expr, handler, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := s.Tick(context.Background(), fc.Now().Add(time.Minute)); err != nil {
		t.Fatalf("tick: %v", err)
	}

	var types []string
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			types = append(types, e.Type)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	if len(types) != 2 || types[0] != eventbus.TypeFiring || types[1] != eventbus.TypeCompleted {
		t.Fatalf("events = %v, want [firing completed]", types)
	}
}

func TestTickRoutesHandlerFailureToFailedEvent(t *testing.T) {
	t.Parallel()
	fc := intclock.Fake(time.Unix(0, 0))
	bus := eventbus.New()
	s := New(Config{Clock: fc, Bus: bus})
	expr := mustExpr(t, "@every 1m")

	ch, unsub := bus.Subscribe(8)
	defer unsub()

	boom := errors.New("boom")
	handler := func(context.Context, TriggerContext) error { return boom }
	if err := s.Register("a", expr, handler, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := s.Tick(context.Background(), fc.Now().Add(time.Minute)); err != nil {
		t.Fatalf("tick should not propagate a non-cancellation handler error: %v", err)
	}

	<-ch // firing
	select {
	case e := <-ch:
		if e.Type != eventbus.TypeFailed {
			t.Fatalf("type = %q, want failed", e.Type)
		}
		payload := e.Data.(eventbus.TriggerEvent)
		if !errors.Is(payload.Err, boom) {
			t.Fatalf("err = %v, want %v", payload.Err, boom)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for failed event")
	}

	reg, _ := s.Get("a")
	if _, ok := reg.NextFire(); !ok {
		t.Fatal("expected next_fire to be recomputed after a handler failure")
	}
}

func TestTickCancellationRestoresNextFireAndPropagates(t *testing.T) {
	t.Parallel()
	fc := intclock.Fake(time.Unix(0, 0))
	s := New(Config{Clock: fc})
	expr := mustExpr(t, "@every 1m")

	handler := func(context.Context, TriggerContext) error { return context.Canceled }
	if err := s.Register("a", expr, handler, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	err := s.Tick(context.Background(), fc.Now().Add(time.Minute))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation to propagate out of Tick, got %v", err)
	}

	reg, _ := s.Get("a")
	if _, ok := reg.NextFire(); !ok {
		t.Fatal("expected next_fire to be restored after cancellation")
	}
}

func TestTickSkipsDisabledTrigger(t *testing.T) {
	t.Parallel()
	fc := intclock.Fake(time.Unix(0, 0))
	bus := eventbus.New()
	s := New(Config{Clock: fc, Bus: bus})
	expr := mustExpr(t, "@every 1m")

	ch, unsub := bus.Subscribe(8)
	defer unsub()

	var fired atomic.Int32
	handler := func(context.Context, TriggerContext) error {
		fired.Add(1)
		return nil
	}
	if err := s.Register("a", expr, handler, nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg, _ := s.Get("a")
	reg.SetEnabled(false)

	if err := s.Tick(context.Background(), fc.Now().Add(time.Minute)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if fired.Load() != 0 {
		t.Fatal("disabled trigger fired")
	}

	select {
	case e := <-ch:
		if e.Type != eventbus.TypeSkipped {
			t.Fatalf("type = %q, want skipped", e.Type)
		}
		payload := e.Data.(eventbus.TriggerEvent)
		if payload.SkipReason != "disabled" {
			t.Fatalf("reason = %q", payload.SkipReason)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for skipped event")
	}
}

func TestTickMaxReachedStopsFiringAndClearsNextFire(t *testing.T) {
	t.Parallel()
	fc := intclock.Fake(time.Unix(0, 0))
	s := New(Config{Clock: fc})
	expr := mustExpr(t, "@every 1m {max:1}")

	var fired atomic.Int32
	handler := func(context.Context, TriggerContext) error {
		fired.Add(1)
		return nil
	}
	if err := s.Register("a", expr, handler, nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := s.Tick(context.Background(), fc.Now().Add(time.Minute)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}

	reg, _ := s.Get("a")
	if _, ok := reg.NextFire(); ok {
		t.Fatal("expected next_fire to be cleared once max is reached")
	}

	if err := s.Tick(context.Background(), fc.Now().Add(2*time.Minute)); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if fired.Load() != 1 {
		t.Fatal("trigger fired again after max was reached")
	}
}

func TestStaggerOffsetIsDeterministicByID(t *testing.T) {
	t.Parallel()
	a := staggerOffsetFor("trigger-a", 10*time.Second)
	b := staggerOffsetFor("trigger-a", 10*time.Second)
	if a != b {
		t.Fatalf("stagger offset not deterministic: %v != %v", a, b)
	}
	if a < 0 || a >= 10*time.Second {
		t.Fatalf("stagger offset %v out of [0, stagger) range", a)
	}
}

func TestStartStopLifecycleIsIdempotent(t *testing.T) {
	t.Parallel()
	fc := intclock.Fake(time.Unix(0, 0))
	s := New(Config{Clock: fc})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second start should be a no-op, got: %v", err)
	}

	s.StopAsync()
	s.StopAsync() // must not hang or panic

	s.Dispose()
	if err := s.Start(context.Background()); !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed after dispose, got %v", err)
	}
}
