package config

import (
	"errors"
	"os"
	"testing"
)

var errBogus = errors.New("bogus expression")

func overwrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestReloadSkipsUnchangedContent(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "triggers.json", `{"triggers": [{"id": "a", "expression": "@hourly"}]}`)
	s := NewTriggerStore(path)
	if _, err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	ch, unsub := s.Subscribe(1)
	defer unsub()

	s.reload()
	select {
	case <-ch:
		t.Fatal("expected no publish for unchanged content")
	default:
	}
}

func TestReloadPublishesOnChange(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "triggers.json", `{"triggers": [{"id": "a", "expression": "@hourly"}]}`)
	s := NewTriggerStore(path)
	if _, err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	ch, unsub := s.Subscribe(1)
	defer unsub()

	overwrite(t, path, `{"triggers": [{"id": "a", "expression": "@daily"}]}`)
	s.reload()

	select {
	case got := <-ch:
		if got[0].Expression != "@daily" {
			t.Fatalf("expression = %q, want @daily", got[0].Expression)
		}
	default:
		t.Fatal("expected publish after content change")
	}
}

func TestReloadRejectsInvalidViaValidator(t *testing.T) {
	t.Parallel()
	path := writeTemp(t, "triggers.json", `{"triggers": [{"id": "a", "expression": "@hourly"}]}`)
	s := NewTriggerStore(path)
	if _, err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	s.SetValidator(func(defs []TriggerDefinition) error {
		for _, d := range defs {
			if d.Expression == "bogus" {
				return errBogus
			}
		}
		return nil
	})

	overwrite(t, path, `{"triggers": [{"id": "a", "expression": "bogus"}]}`)
	s.reload()

	got := s.Get()
	if len(got) != 1 || got[0].Expression != "@hourly" {
		t.Fatalf("expected rejected reload to leave prior snapshot, got %+v", got)
	}
}
