package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/SplicePHP/cakephp/log"
)

// DefaultMemoryLimit bounds how many entries a Memory engine retains.
const DefaultMemoryLimit = 1000

func init() {
	log.RegisterEngine("memory", func(cfg log.Config) (log.Engine, error) {
		return NewMemory(cfg)
	})
}

// Entry is one captured log entry.
type Entry struct {
	Time    time.Time
	Level   log.Level
	Message string
	Scopes  []string
}

// Memory retains entries in process memory, oldest discarded first once
// the limit is reached. Useful in tests and for exposing recent entries
// over a debug endpoint.
//
// Options:
//
//	limit: maximum retained entries (default 1000)
type Memory struct {
	Base
	mu      sync.Mutex
	limit   int
	entries []Entry
}

// NewMemory builds a memory engine from cfg.
func NewMemory(cfg log.Config) (*Memory, error) {
	opts := Options(cfg.Options)
	limit, err := opts.Int("limit", DefaultMemoryLimit)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("engine: memory limit must be positive, got %d", limit)
	}
	return &Memory{Base: NewBase(cfg), limit: limit}, nil
}

// Write records the entry, evicting the oldest once the limit is hit.
func (m *Memory) Write(level log.Level, message string, scopes []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Scopes:  scopes,
	})
	if len(m.entries) > m.limit {
		m.entries = m.entries[len(m.entries)-m.limit:]
	}
}

// Entries returns a snapshot of the retained entries, oldest first.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Entry, len(m.entries))
	copy(cp, m.entries)
	return cp
}

// Clear discards all retained entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}
