package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SplicePHP/cakephp/log"
)

func scrape(t *testing.T, eng *Engine) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	eng.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("scrape status = %d, want 200", w.Code)
	}
	body, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("read scrape body: %v", err)
	}
	return string(body)
}

func TestEngine_CountsEntries(t *testing.T) {
	eng, err := New(log.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	eng.Write(log.LevelError, "payment declined", []string{"payment"})
	eng.Write(log.LevelError, "card expired", []string{"payment"})
	eng.Write(log.LevelInfo, "started", nil)

	text := scrape(t, eng)
	if !strings.Contains(text, `cakephp_log_entries_total{level="error",scoped="scoped"} 2`) {
		t.Error("expected two scoped error entries in scrape output")
	}
	if !strings.Contains(text, `cakephp_log_entries_total{level="info",scoped="unscoped"} 1`) {
		t.Error("expected one unscoped info entry in scrape output")
	}
	if !strings.Contains(text, `cakephp_log_scope_hits_total{scope="payment"} 2`) {
		t.Error("expected two payment scope hits in scrape output")
	}
	if !strings.Contains(text, "cakephp_log_message_bytes_total") {
		t.Error("expected message bytes counter in scrape output")
	}
}

func TestEngine_CustomNamespace(t *testing.T) {
	eng, err := New(log.Config{Options: map[string]any{"namespace": "checkout"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.Write(log.LevelWarning, "slow query", nil)

	text := scrape(t, eng)
	if !strings.Contains(text, "checkout_log_entries_total") {
		t.Error("expected checkout-prefixed counters in scrape output")
	}
	if strings.Contains(text, "cakephp_log_entries_total") {
		t.Error("default namespace leaked into custom-namespace engine")
	}
}

func TestEngine_SeparateRegistries(t *testing.T) {
	first, err := New(log.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New(log.Config{})
	if err != nil {
		t.Fatalf("New second: %v", err)
	}

	first.Write(log.LevelDebug, "only here", nil)

	if text := scrape(t, second); strings.Contains(text, `level="debug"`) {
		t.Error("write to first engine visible in second engine's registry")
	}
}

func TestManagerBuildsMetricsEngine(t *testing.T) {
	m := log.New()
	defer m.Reset()
	err := m.SetConfig("counts", log.Config{
		Type:   "metrics",
		Levels: []log.Level{log.LevelError},
	})
	if err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	if _, err := m.Write(log.LevelError, "counted"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := m.Write(log.LevelDebug, "filtered out"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	eng, err := m.Engine("counts")
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	metricsEng, ok := eng.(*Engine)
	if !ok {
		t.Fatalf("engine has type %T, want *metrics.Engine", eng)
	}

	text := scrape(t, metricsEng)
	if !strings.Contains(text, `cakephp_log_entries_total{level="error",scoped="unscoped"} 1`) {
		t.Error("expected the error entry to be counted")
	}
	if strings.Contains(text, `level="debug"`) {
		t.Error("debug entry should have been filtered before the engine")
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]any
	}{
		{"leading digit", map[string]any{"namespace": "9checkout"}},
		{"hyphenated", map[string]any{"namespace": "check-out"}},
		{"empty", map[string]any{"namespace": ""}},
		{"wrong type", map[string]any{"namespace": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(log.Config{Options: tt.options}); err == nil {
				t.Fatal("New() returned nil error")
			}
		})
	}
}
