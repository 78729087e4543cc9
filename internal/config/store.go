package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	logx "chronex/pkg/logx"
)

// TriggerStore loads trigger definitions from a JSON or YAML file and keeps
// the most recently committed set available to callers, optionally
// publishing updates to subscribers as the file changes on disk.
type TriggerStore struct {
	path string

	mu   sync.RWMutex
	defs []TriggerDefinition

	subsMu sync.Mutex
	subs   []chan []TriggerDefinition

	log       logx.Logger
	validator func([]TriggerDefinition) error

	// lastHash avoids redundant publishes when an editor fires multiple
	// write events for the same content.
	lastHash uint64
}

// NewTriggerStore creates a store for the trigger file at path. It does not
// read the file; call Load.
func NewTriggerStore(path string) *TriggerStore {
	return &TriggerStore{path: path}
}

// SetLogger installs the logger used for watch/reload diagnostics.
func (s *TriggerStore) SetLogger(log logx.Logger) { s.log = log }

// SetValidator installs a hook run against a freshly parsed set before it is
// committed or published. A non-nil error rejects the reload.
func (s *TriggerStore) SetValidator(fn func([]TriggerDefinition) error) {
	s.validator = fn
}

// Parse reads and decodes the trigger file without committing it. Missing
// ids are filled in with newly generated UUIDs; duplicate explicit ids are
// rejected.
func (s *TriggerStore) Parse() ([]TriggerDefinition, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	jb, err := coerceToJSONBytes(s.path, b)
	if err != nil {
		return nil, err
	}

	var tf TriggerFile
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tf); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid trigger file: trailing data")
		}
		return nil, err
	}

	seen := make(map[string]bool, len(tf.Triggers))
	for i := range tf.Triggers {
		d := &tf.Triggers[i]
		if d.Expression == "" {
			return nil, fmt.Errorf("trigger[%d]: expression is required", i)
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
			continue
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("trigger[%d]: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
	}
	return tf.Triggers, nil
}

// Commit replaces the store's current snapshot.
func (s *TriggerStore) Commit(defs []TriggerDefinition) {
	s.mu.Lock()
	s.defs = defs
	s.lastHash = hashDefs(defs)
	s.mu.Unlock()
}

// Load parses and commits the trigger file in one step.
func (s *TriggerStore) Load() ([]TriggerDefinition, error) {
	defs, err := s.Parse()
	if err != nil {
		return nil, err
	}
	if s.validator != nil {
		if err := s.validator(defs); err != nil {
			return nil, err
		}
	}
	s.Commit(defs)
	return defs, nil
}

// Get returns the most recently committed snapshot.
func (s *TriggerStore) Get() []TriggerDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defs
}

// Subscribe registers a channel that receives the full trigger set whenever
// it changes. The returned channel is closed by Unsubscribe.
func (s *TriggerStore) Subscribe(buffer int) (chan []TriggerDefinition, func()) {
	ch := make(chan []TriggerDefinition, buffer)
	s.subsMu.Lock()
	s.subs = append(s.subs, ch)
	s.subsMu.Unlock()
	return ch, func() { s.unsubscribe(ch) }
}

func (s *TriggerStore) unsubscribe(ch chan []TriggerDefinition) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, c := range s.subs {
		if c == ch {
			last := len(s.subs) - 1
			s.subs[i] = s.subs[last]
			s.subs[last] = nil
			s.subs = s.subs[:last]
			close(ch)
			return
		}
	}
}

func (s *TriggerStore) publish(defs []TriggerDefinition) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- defs:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- defs:
			default:
			}
		}
	}
}

func hashDefs(defs []TriggerDefinition) uint64 {
	b, err := json.Marshal(defs)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
