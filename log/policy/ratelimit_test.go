package policy

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SplicePHP/cakephp/log"
)

func TestRateLimit_AllowsBurstThenDrops(t *testing.T) {
	inner := &captureEngine{}
	r := NewRateLimit(inner, 0, 3) // no refill, burst of 3

	for i := range 5 {
		r.Write(log.LevelInfo, fmt.Sprintf("entry %d", i), nil)
	}

	got := inner.captured()
	if len(got) != 3 {
		t.Fatalf("delivered %d entries, want 3", len(got))
	}
	for i, entry := range got {
		if want := fmt.Sprintf("entry %d", i); entry.message != want {
			t.Errorf("entry %d = %q, want %q", i, entry.message, want)
		}
	}
	if r.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", r.Dropped())
	}
}

func TestRateLimit_RefillsOverTime(t *testing.T) {
	inner := &captureEngine{}
	r := NewRateLimit(inner, 100, 1)

	r.Write(log.LevelInfo, "first", nil)
	time.Sleep(100 * time.Millisecond)
	r.Write(log.LevelInfo, "second", nil)

	if got := len(inner.captured()); got != 2 {
		t.Fatalf("delivered %d entries, want 2 after refill", got)
	}
}

func TestRateLimit_ForwardsFilters(t *testing.T) {
	inner := &filterEngine{
		levels: []log.Level{log.LevelCritical, log.LevelError},
		scopes: []string{"db"},
	}
	r := NewRateLimit(inner, 10, 10)

	if got := r.AcceptedLevels(); len(got) != 2 {
		t.Errorf("AcceptedLevels() = %v, want two levels", got)
	}
	if got := r.AcceptedScopes(); len(got) != 1 || got[0] != "db" {
		t.Errorf("AcceptedScopes() = %v, want [db]", got)
	}

	plain := NewRateLimit(&captureEngine{}, 10, 10)
	if got := plain.AcceptedLevels(); got != nil {
		t.Errorf("AcceptedLevels() on unfiltered inner = %v, want nil", got)
	}
}

func TestRateLimit_ClosesInner(t *testing.T) {
	closeErr := errors.New("sink close failed")
	inner := &captureEngine{closeErr: closeErr}
	r := NewRateLimit(inner, 10, 10)

	if err := r.Close(); !errors.Is(err, closeErr) {
		t.Fatalf("Close error = %v, want %v", err, closeErr)
	}
	if !inner.isClosed() {
		t.Error("inner engine not closed")
	}
}

type plainEngine struct{}

func (plainEngine) Write(log.Level, string, []string) {}

func TestRateLimit_CloseWithoutCloserIsNil(t *testing.T) {
	r := NewRateLimit(plainEngine{}, 10, 10)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
