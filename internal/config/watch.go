package config

import (
	"context"
	"math/rand"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	logx "chronex/pkg/logx"
)

// Watch follows the trigger file's directory for writes, debounces bursts of
// events, and reloads + publishes on real content changes. If fsnotify gets
// into a bad state the watcher is torn down and recreated with a small
// exponential backoff.
func (s *TriggerStore) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)

	const (
		restartBackoffBase = 250 * time.Millisecond
		restartBackoffMax  = 5 * time.Second
	)
	backoff := restartBackoffBase
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		if !s.log.IsZero() {
			s.log.Debug("trigger file changed; scheduling reload", logx.String("path", s.path))
		}
		timer = time.AfterFunc(250*time.Millisecond, func() { s.reload() })
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		w, err := fsnotify.NewWatcher()
		if err != nil {
			if !s.log.IsZero() {
				s.log.Warn("trigger watch init failed", logx.Err(err), logx.String("dir", dir))
			}
			if _, ok := sleepBackoff(ctx, &backoff, restartBackoffMax, rng); !ok {
				return nil
			}
			continue
		}

		if err := w.Add(dir); err != nil {
			_ = w.Close()
			if !s.log.IsZero() {
				s.log.Warn("trigger watch add failed", logx.Err(err), logx.String("dir", dir))
			}
			if _, ok := sleepBackoff(ctx, &backoff, restartBackoffMax, rng); !ok {
				return nil
			}
			continue
		}

		backoff = restartBackoffBase
		if !s.log.IsZero() {
			s.log.Debug("trigger watcher started", logx.String("dir", dir), logx.String("file", file))
		}

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if strings.EqualFold(filepath.Base(ev.Name), file) {
					if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove|fsnotify.Chmod) != 0 {
						debounce()
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				if err == nil {
					continue
				}
				if strings.Contains(strings.ToLower(err.Error()), "overflow") {
					if !s.log.IsZero() {
						s.log.Warn("trigger watch overflow; forcing reload", logx.Err(err), logx.String("dir", dir))
					}
					debounce()
					continue
				}
				if !s.log.IsZero() {
					s.log.Warn("trigger watch error", logx.Err(err), logx.String("dir", dir))
				}
				if strings.Contains(strings.ToLower(err.Error()), "closed") {
					broken = true
					break
				}
			}
		}

		_ = w.Close()
		if ctx.Err() != nil {
			return nil
		}
		if !s.log.IsZero() {
			s.log.Warn("trigger watcher stopped; restarting", logx.String("dir", dir), logx.String("file", file))
		}
		if _, ok := sleepBackoff(ctx, &backoff, restartBackoffMax, rng); !ok {
			return nil
		}
	}
}

func (s *TriggerStore) reload() {
	defs, err := s.Parse()
	if err != nil {
		if !s.log.IsZero() {
			s.log.Warn("trigger file parse failed", logx.String("path", s.path), logx.Err(err))
		}
		return
	}

	h := hashDefs(defs)
	s.mu.RLock()
	unchanged := h != 0 && h == s.lastHash
	s.mu.RUnlock()
	if unchanged {
		if !s.log.IsZero() {
			s.log.Debug("trigger file unchanged; skipping publish", logx.String("path", s.path))
		}
		return
	}

	if s.validator != nil {
		if err := s.validator(defs); err != nil {
			if !s.log.IsZero() {
				s.log.Warn("trigger file rejected", logx.String("path", s.path), logx.Err(err))
			}
			return
		}
	}

	s.Commit(defs)
	s.publish(defs)
	if !s.log.IsZero() {
		s.log.Debug("trigger file published", logx.String("path", s.path), logx.Int("trigger_count", len(defs)))
	}
}

// sleepBackoff waits out the current backoff (with jitter), doubling it for
// next time, and reports whether ctx is still live.
func sleepBackoff(ctx context.Context, backoff *time.Duration, max time.Duration, rng *rand.Rand) (time.Duration, bool) {
	wait := *backoff + time.Duration(rng.Int63n(int64(*backoff/2)+1))
	if *backoff < max {
		*backoff *= 2
		if *backoff > max {
			*backoff = max
		}
	}
	select {
	case <-ctx.Done():
		return 0, false
	case <-time.After(wait):
		return wait, true
	}
}
