package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "chronex/internal/config"
	"chronex/internal/eventbus"
	"chronex/internal/scheduler"
	"chronex/pkg/chronex"
	logx "chronex/pkg/logx"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	level := fs.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	console := fs.Bool("log-console", true, "log to stdout")
	watch := fs.Bool("watch", true, "hot-reload the trigger file on changes")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: chronexctl serve [-watch] <trigger-file>")
	}
	path := fs.Arg(0)

	_, log := logx.New(logx.Config{Level: *level, Console: *console})
	bus := eventbus.New()

	sched := scheduler.New(scheduler.Config{Log: log, Bus: bus})

	store := cfgpkg.NewTriggerStore(path)
	store.SetLogger(log)
	store.SetValidator(func(defs []cfgpkg.TriggerDefinition) error {
		for _, d := range defs {
			if _, err := chronex.Parse(d.Expression); err != nil {
				return fmt.Errorf("trigger %q: %w", d.ID, err)
			}
		}
		return nil
	})

	defs, err := store.Load()
	if err != nil {
		return fmt.Errorf("load trigger file: %w", err)
	}
	if err := registerAll(sched, log, defs); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *watch {
		updates, unsub := store.Subscribe(1)
		defer unsub()
		go reloadLoop(sched, log, updates)
		go func() {
			if err := store.Watch(ctx); err != nil {
				log.Warn("trigger watch stopped", logx.Err(err))
			}
		}()
	}

	// Subscribe the event logger with a replay of up to 16 recent events.
	// The bus was created above and nothing fires before Start, so the
	// replayed backlog is empty here; the history does not outlive this
	// process.
	sub, unsub := bus.SubscribeReplay(64, 16)
	defer unsub()
	go logEvents(log, sub)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	log.Info("chronexctl serving", logx.String("path", path), logx.Int("trigger_count", len(defs)))

	<-ctx.Done()
	sched.Dispose()
	return nil
}

func registerAll(sched *scheduler.Scheduler, log logx.Logger, defs []cfgpkg.TriggerDefinition) error {
	for _, d := range defs {
		expr, err := chronex.Parse(d.Expression)
		if err != nil {
			return fmt.Errorf("trigger %q: %w", d.ID, err)
		}
		handler := loggingHandler(log)
		if err := sched.Register(d.ID, expr, handler, d.Metadata); err != nil {
			return fmt.Errorf("register %q: %w", d.ID, err)
		}
		if d.Enabled != nil {
			if reg, ok := sched.Get(d.ID); ok {
				reg.SetEnabled(*d.Enabled)
			}
		}
	}
	return nil
}

// reloadLoop re-registers the full trigger set whenever the store publishes
// a change: dropped ids are unregistered, new ones added, survivors left
// running undisturbed (so an in-flight next_fire is not reset on every edit).
func reloadLoop(sched *scheduler.Scheduler, log logx.Logger, updates <-chan []cfgpkg.TriggerDefinition) {
	for defs := range updates {
		want := make(map[string]bool, len(defs))
		for _, d := range defs {
			want[d.ID] = true
		}
		for _, snap := range sched.Snapshot() {
			if !want[snap.ID] {
				sched.Unregister(snap.ID)
				log.Info("trigger removed", logx.String("trigger_id", snap.ID))
			}
		}
		for _, d := range defs {
			if _, ok := sched.Get(d.ID); ok {
				continue
			}
			expr, err := chronex.Parse(d.Expression)
			if err != nil {
				log.Warn("skipping invalid trigger on reload", logx.String("trigger_id", d.ID), logx.Err(err))
				continue
			}
			if err := sched.Register(d.ID, expr, loggingHandler(log), d.Metadata); err != nil {
				log.Warn("failed to register trigger on reload", logx.String("trigger_id", d.ID), logx.Err(err))
				continue
			}
			log.Info("trigger added", logx.String("trigger_id", d.ID))
		}
	}
}

func loggingHandler(log logx.Logger) scheduler.HandlerFunc {
	return func(_ context.Context, tc scheduler.TriggerContext) error {
		log.Info("trigger fired",
			logx.String("trigger_id", tc.ID),
			logx.Time("scheduled", tc.Scheduled),
			logx.Int("fire_count", tc.FireCount),
		)
		return nil
	}
}

func logEvents(log logx.Logger, ch <-chan eventbus.Event) {
	for ev := range ch {
		te, ok := ev.Data.(eventbus.TriggerEvent)
		if !ok {
			continue
		}
		switch ev.Type {
		case eventbus.TypeFailed:
			log.Error("trigger failed", logx.String("trigger_id", te.TriggerID), logx.Err(te.Err))
		case eventbus.TypeSkipped:
			log.Debug("trigger skipped", logx.String("trigger_id", te.TriggerID), logx.String("reason", te.SkipReason))
		}
	}
}
