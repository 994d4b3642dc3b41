package engine

import (
	"fmt"
	"testing"

	"github.com/SplicePHP/cakephp/log"
)

func TestMemory_CapturesEntries(t *testing.T) {
	m, err := NewMemory(log.Config{})
	if err != nil {
		t.Fatalf("NewMemory returned error: %v", err)
	}

	m.Write(log.LevelError, "boom", []string{"db"})
	m.Write(log.LevelInfo, "ok", nil)

	entries := m.Entries()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != log.LevelError || entries[0].Message != "boom" {
		t.Errorf("first entry = %v %q, want error %q", entries[0].Level, entries[0].Message, "boom")
	}
	if len(entries[0].Scopes) != 1 || entries[0].Scopes[0] != "db" {
		t.Errorf("first entry scopes = %v, want [db]", entries[0].Scopes)
	}
	if entries[0].Time.IsZero() {
		t.Error("entry timestamp not set")
	}
}

func TestMemory_EvictsOldestAtLimit(t *testing.T) {
	m, err := NewMemory(log.Config{Options: map[string]any{"limit": 3}})
	if err != nil {
		t.Fatalf("NewMemory returned error: %v", err)
	}

	for i := range 5 {
		m.Write(log.LevelInfo, fmt.Sprintf("entry %d", i), nil)
	}

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Message != "entry 2" || entries[2].Message != "entry 4" {
		t.Errorf("retained entries = %q..%q, want entry 2..entry 4", entries[0].Message, entries[2].Message)
	}
}

func TestMemory_Clear(t *testing.T) {
	m, err := NewMemory(log.Config{})
	if err != nil {
		t.Fatalf("NewMemory returned error: %v", err)
	}
	m.Write(log.LevelInfo, "entry", nil)
	m.Clear()
	if got := m.Entries(); len(got) != 0 {
		t.Errorf("got %d entries after Clear, want 0", len(got))
	}
}

func TestMemory_EntriesReturnsSnapshot(t *testing.T) {
	m, err := NewMemory(log.Config{})
	if err != nil {
		t.Fatalf("NewMemory returned error: %v", err)
	}
	m.Write(log.LevelInfo, "entry", nil)

	snap := m.Entries()
	snap[0].Message = "mutated"

	if got := m.Entries()[0].Message; got != "entry" {
		t.Errorf("stored entry = %q, snapshot mutation leaked", got)
	}
}

func TestNewMemory_RejectsBadLimit(t *testing.T) {
	if _, err := NewMemory(log.Config{Options: map[string]any{"limit": 0}}); err == nil {
		t.Error("NewMemory accepted limit 0")
	}
	if _, err := NewMemory(log.Config{Options: map[string]any{"limit": "ten"}}); err == nil {
		t.Error("NewMemory accepted a non-integer limit")
	}
}
