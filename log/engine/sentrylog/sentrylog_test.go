package sentrylog

import (
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"

	"github.com/SplicePHP/cakephp/log"
)

// captureClient returns a client whose BeforeSend records every event and
// drops it before it reaches the transport, so no network traffic happens.
func captureClient(t *testing.T) (*sentry.Client, func() []*sentry.Event) {
	t.Helper()
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@example.com/1",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, event)
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, func() []*sentry.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]*sentry.Event(nil), events...)
	}
}

func TestEngine_CapturesEvents(t *testing.T) {
	client, captured := captureClient(t)
	eng := NewWithClient(client, log.Config{})
	defer eng.Close()

	eng.Write(log.LevelError, "payment declined", []string{"payment", "order"})
	eng.Write(log.LevelDebug, "trace detail", nil)

	events := captured()
	if len(events) != 2 {
		t.Fatalf("captured %d events, want 2", len(events))
	}

	first := events[0]
	if first.Message != "payment declined" {
		t.Errorf("message = %q, want %q", first.Message, "payment declined")
	}
	if first.Level != sentry.LevelError {
		t.Errorf("level = %q, want %q", first.Level, sentry.LevelError)
	}
	if got := first.Tags["scopes"]; got != "payment,order" {
		t.Errorf("scopes tag = %q, want %q", got, "payment,order")
	}
	if got := first.Tags["severity"]; got != "error" {
		t.Errorf("severity tag = %q, want %q", got, "error")
	}

	second := events[1]
	if second.Level != sentry.LevelDebug {
		t.Errorf("level = %q, want %q", second.Level, sentry.LevelDebug)
	}
	if _, ok := second.Tags["scopes"]; ok {
		t.Error("unscoped entry should not carry a scopes tag")
	}
}

func TestEngine_SeverityMapping(t *testing.T) {
	tests := []struct {
		level log.Level
		want  sentry.Level
	}{
		{log.LevelEmergency, sentry.LevelFatal},
		{log.LevelAlert, sentry.LevelFatal},
		{log.LevelCritical, sentry.LevelFatal},
		{log.LevelError, sentry.LevelError},
		{log.LevelWarning, sentry.LevelWarning},
		{log.LevelNotice, sentry.LevelInfo},
		{log.LevelInfo, sentry.LevelInfo},
		{log.LevelDebug, sentry.LevelDebug},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			if got := sentryLevel(tt.level); got != tt.want {
				t.Errorf("sentryLevel(%s) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestEngine_AdoptsConfiguredFilters(t *testing.T) {
	client, _ := captureClient(t)
	eng := NewWithClient(client, log.Config{
		Levels: []log.Level{log.LevelError},
		Scopes: []string{"payment"},
	})
	defer eng.Close()

	if got := eng.AcceptedLevels(); len(got) != 1 || got[0] != log.LevelError {
		t.Errorf("AcceptedLevels() = %v, want [error]", got)
	}
	if got := eng.AcceptedScopes(); len(got) != 1 || got[0] != "payment" {
		t.Errorf("AcceptedScopes() = %v, want [payment]", got)
	}
}

func TestManagerBuildsSentryEngine(t *testing.T) {
	m := log.New()
	defer m.Reset()
	err := m.SetConfig("alerts", log.Config{
		Type:    "sentry",
		Levels:  []log.Level{log.LevelError, log.LevelCritical},
		Options: map[string]any{"dsn": "https://public@example.com/1"},
	})
	if err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	eng, err := m.Engine("alerts")
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	sentryEng, ok := eng.(*Engine)
	if !ok {
		t.Fatalf("engine has type %T, want *sentrylog.Engine", eng)
	}
	if got := sentryEng.AcceptedLevels(); len(got) != 2 {
		t.Errorf("AcceptedLevels() = %v, want two levels", got)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
	}{
		{"missing dsn", map[string]any{}},
		{"malformed dsn", map[string]any{"dsn": "::not-a-dsn"}},
		{"wrong dsn type", map[string]any{"dsn": 7}},
		{"bad flush timeout", map[string]any{"dsn": "https://public@example.com/1", "flush_timeout": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(log.Config{Options: tt.options}); err == nil {
				t.Fatal("New() returned nil error")
			}
		})
	}
}

func TestEngine_CloseNilSafe(t *testing.T) {
	var eng *Engine
	if err := eng.Close(); err != nil {
		t.Fatalf("Close() on nil engine: %v", err)
	}
}
