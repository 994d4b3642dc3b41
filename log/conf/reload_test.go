package conf

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SplicePHP/cakephp/log"
)

func writeMemorySink(t *testing.T, path, name string) {
	t.Helper()
	content := []byte("sinks:\n  " + name + ":\n    type: memory\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
}

func firstSinkName(f *File) string {
	if len(f.Sinks) == 0 {
		return ""
	}
	return f.Sinks[0].Name
}

func TestReloader_FileChange(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	// Give the watcher time to start.
	time.Sleep(200 * time.Millisecond)

	writeMemorySink(t, cfgPath, "audit")

	select {
	case f := <-r.Changes():
		if got := firstSinkName(f); got != "audit" {
			t.Errorf("reloaded sink = %q, want audit", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestReloader_InvalidFileIgnored(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	r := NewReloader(cfgPath, WithLogger(zerolog.Nop()))
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(cfgPath, []byte("sinks: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-r.Changes():
		t.Fatalf("received a file for invalid content: %v", f.Sinks)
	case <-time.After(500 * time.Millisecond):
		// Invalid files are dropped; the old configuration stays active.
	}
}

func TestReloader_RenameReload(t *testing.T) {
	// Vim-style save: write a temp file, rename it over the original.
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)

	tmpPath := filepath.Join(dir, "log.yaml.tmp")
	writeMemorySink(t, tmpPath, "renamed")
	if err := os.Rename(tmpPath, cfgPath); err != nil {
		t.Fatal(err)
	}

	select {
	case f := <-r.Changes():
		if got := firstSinkName(f); got != "renamed" {
			t.Errorf("reloaded sink = %q, want renamed", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for rename-based reload")
	}
}

func TestReloader_NonMatchingFileIgnored(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() {
		if err := r.Start(ctx); err != nil {
			t.Errorf("reloader error: %v", err)
		}
	}()

	time.Sleep(200 * time.Millisecond)

	writeMemorySink(t, filepath.Join(dir, "other.yaml"), "other")

	select {
	case f := <-r.Changes():
		t.Fatalf("received a file for a non-matching name: %v", f.Sinks)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestReloader_CloseStopsStart(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	r := NewReloader(cfgPath)

	done := make(chan struct{})
	go func() {
		_ = r.Start(context.Background())
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	r.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Close")
	}
}

func TestReloader_CloseIdempotent(t *testing.T) {
	r := NewReloader(filepath.Join(t.TempDir(), "log.yaml"))
	r.Close()
	r.Close()
}

func TestReloader_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_ = r.Start(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}

func TestReloader_ChangesClosedAfterStart(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	r := NewReloader(cfgPath)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		_ = r.Start(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if _, ok := <-r.Changes(); ok {
		t.Error("Changes() channel still open after Start returned")
	}
}

func TestWatch_AppliesChangesToManager(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "log.yaml")
	writeMemorySink(t, cfgPath, "app")

	m := log.New()
	defer m.Reset()

	initial, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := initial.Apply(m); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	r := NewReloader(cfgPath)
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	watchDone := make(chan error, 1)
	go func() { watchDone <- r.Watch(ctx, m) }()

	time.Sleep(200 * time.Millisecond)

	content := []byte("sinks:\n  audit:\n    type: memory\n  extra:\n    type: memory\n")
	if err := os.WriteFile(cfgPath, content, 0o600); err != nil {
		t.Fatal(err)
	}

	want := []string{"audit", "extra"}
	deadline := time.Now().Add(5 * time.Second)
	for !reflect.DeepEqual(m.Configured(), want) {
		if time.Now().After(deadline) {
			t.Fatalf("Configured() = %v, want %v", m.Configured(), want)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-watchDone; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}
