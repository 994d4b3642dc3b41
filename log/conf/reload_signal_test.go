//go:build !windows

package conf

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestReloader_SIGHUPReload(t *testing.T) {
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

	// SIGHUP rereads from disk, so change the file first.
	writeMemorySink(t, cfgPath, "hup")
	time.Sleep(50 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("sending SIGHUP: %v", err)
	}

	select {
	case f := <-r.Changes():
		if got := firstSinkName(f); got != "hup" {
			t.Errorf("reloaded sink = %q, want hup", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for SIGHUP-based reload")
	}
}
