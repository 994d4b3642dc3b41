// Package metrics provides an engine that turns dispatched entries into
// Prometheus counters instead of persisting them. Importing it registers
// the "metrics" engine type.
package metrics

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/engine"
)

// DefaultNamespace prefixes every metric name unless overridden.
const DefaultNamespace = "cakephp"

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func init() {
	log.RegisterEngine("metrics", func(cfg log.Config) (log.Engine, error) {
		return New(cfg)
	})
}

// Engine counts entries by level and scope on its own Prometheus
// registry, so several instances can coexist without collisions. Pair it
// with filtered sinks to watch how much traffic each severity produces.
//
// Options:
//
//	namespace: metric name prefix (default "cakephp")
type Engine struct {
	engine.Base
	registry *prometheus.Registry

	entriesTotal *prometheus.CounterVec
	scopeHits    *prometheus.CounterVec
	messageBytes prometheus.Counter
}

// New builds a metrics engine with a fresh registry.
func New(cfg log.Config) (*Engine, error) {
	namespace, err := engine.Options(cfg.Options).String("namespace", DefaultNamespace)
	if err != nil {
		return nil, err
	}
	if !namespacePattern.MatchString(namespace) {
		return nil, fmt.Errorf("metrics: invalid namespace %q", namespace)
	}

	reg := prometheus.NewRegistry()

	entriesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "entries_total",
		Help:      "Total dispatched log entries by level and scoping.",
	}, []string{"level", "scoped"})

	scopeHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "scope_hits_total",
		Help:      "Total log entries seen per scope.",
	}, []string{"scope"})

	messageBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "log",
		Name:      "message_bytes_total",
		Help:      "Total bytes of dispatched log messages.",
	})

	reg.MustRegister(entriesTotal, scopeHits, messageBytes)

	return &Engine{
		Base:         engine.NewBase(cfg),
		registry:     reg,
		entriesTotal: entriesTotal,
		scopeHits:    scopeHits,
		messageBytes: messageBytes,
	}, nil
}

// Write increments the counters for one entry.
func (e *Engine) Write(level log.Level, message string, scopes []string) {
	scoped := "unscoped"
	if len(scopes) > 0 {
		scoped = "scoped"
	}
	e.entriesTotal.WithLabelValues(level.String(), scoped).Inc()
	for _, scope := range scopes {
		e.scopeHits.WithLabelValues(scope).Inc()
	}
	e.messageBytes.Add(float64(len(message)))
}

// Handler serves the engine's registry in Prometheus text format.
func (e *Engine) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
