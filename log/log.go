// Package log dispatches structured log entries to named engines.
//
// A Manager holds engine configurations and routes each written entry to
// every engine whose level and scope filters accept it. Engines are built
// lazily: configuration changes only mark the set dirty, and the next
// operation that needs engines rebuilds all of them from the current
// configuration in one step.
package log

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// namedConfig is one stored configuration entry. The store keeps entries
// in the order names were first configured; replacing a name keeps its
// position.
type namedConfig struct {
	name   string
	config Config
}

// Manager routes log entries to configured engines. The zero value is not
// usable; call New. A Manager is safe for concurrent use.
type Manager struct {
	mu           sync.Mutex
	constructors *Constructors
	configs      []namedConfig
	engines      engineSet
	dirty        bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithConstructors makes the Manager resolve typed configurations against
// the given table instead of the process-wide one.
func WithConstructors(c *Constructors) Option {
	return func(m *Manager) { m.constructors = c }
}

// New returns an empty Manager. Without options, typed configurations
// resolve against the constructors registered with RegisterEngine.
func New(opts ...Option) *Manager {
	m := &Manager{constructors: &defaultConstructors}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetConfig stores the configuration for one named engine. An existing
// name is replaced wholesale and keeps its position in dispatch order; a
// new name is appended. The engine itself is not built until the next
// write or lookup needs it.
func (m *Manager) SetConfig(name string, cfg Config) error {
	if name == "" {
		return fmt.Errorf("log: config name must not be empty")
	}
	if err := cfg.validate(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(name, cfg)
	m.dirty = true
	return nil
}

// SetConfigs stores several configurations at once. Entries are applied in
// sorted name order so dispatch order is deterministic. If any entry fails
// validation, none are stored.
func (m *Manager) SetConfigs(configs map[string]Config) error {
	names := make([]string, 0, len(configs))
	for name := range configs {
		if name == "" {
			return fmt.Errorf("log: config name must not be empty")
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := configs[name].validate(name); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		m.store(name, configs[name])
	}
	if len(names) > 0 {
		m.dirty = true
	}
	return nil
}

// store inserts or replaces one entry. Callers hold m.mu.
func (m *Manager) store(name string, cfg Config) {
	cfg = cfg.clone()
	for i, nc := range m.configs {
		if nc.name == name {
			m.configs[i].config = cfg
			return
		}
	}
	m.configs = append(m.configs, namedConfig{name: name, config: cfg})
}

// Config returns the stored configuration for name. The copy is
// independent; mutating it does not affect the Manager.
func (m *Manager) Config(name string) (Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, nc := range m.configs {
		if nc.name == name {
			return nc.config.clone(), true
		}
	}
	return Config{}, false
}

// Configured returns the configured engine names in dispatch order.
func (m *Manager) Configured() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.configs))
	for i, nc := range m.configs {
		names[i] = nc.name
	}
	return names
}

// Reset discards all configuration and closes every engine the Manager
// built, returning it to its initial empty state. Engines supplied as
// pre-built instances are left open for their owners to close.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.engines.close()
	m.configs = nil
	m.engines = nil
	m.dirty = false
	return err
}

// Engine returns the engine configured under name, building the engine
// set first if configuration changed. It returns ErrEngineNotFound for
// names with no configuration.
func (m *Manager) Engine(name string) (Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.reload(); err != nil {
		return nil, err
	}
	if eng, ok := m.engines.find(name); ok {
		return eng, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrEngineNotFound, name)
}

// Write routes one entry to every engine whose filters accept it and
// reports whether at least one engine received it. No matching engine is
// a silent drop, not an error. Errors are limited to invalid level codes
// and engine construction failures; delivery itself never fails a Write.
func (m *Manager) Write(level Level, message string, scopes ...string) (bool, error) {
	if !level.IsValid() {
		return false, fmt.Errorf("%w: code %d", ErrInvalidLevel, int8(level))
	}
	targets, err := m.match(level, scopes)
	if err != nil {
		return false, err
	}
	for _, eng := range targets {
		eng.Write(level, message, scopes)
	}
	return len(targets) > 0, nil
}

// match rebuilds the engine set if needed and snapshots the engines
// accepting the entry, so delivery happens outside the lock and a slow
// engine cannot block configuration reads.
func (m *Manager) match(level Level, scopes []string) ([]Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.reload(); err != nil {
		return nil, err
	}
	var targets []Engine
	for _, le := range m.engines {
		if matchesLevel(le.engine, level) && matchesScopes(le.engine, scopes) {
			targets = append(targets, le.engine)
		}
	}
	return targets, nil
}

// reload rebuilds the engine set from the stored configuration when the
// dirty flag is set. On failure the previous set and the dirty flag are
// kept, so the next call retries; on success the previous generation's
// owned engines are closed. Callers hold m.mu.
func (m *Manager) reload() error {
	if !m.dirty {
		return nil
	}
	set, err := buildEngines(m.configs, m.constructors)
	if err != nil {
		return err
	}
	old := m.engines
	m.engines = set
	m.dirty = false
	if cerr := old.close(); cerr != nil {
		fmt.Fprintln(os.Stderr, cerr)
	}
	return nil
}

// Emergency writes a message at the emergency level.
func (m *Manager) Emergency(message string, scopes ...string) (bool, error) {
	return m.Write(LevelEmergency, message, scopes...)
}

// Alert writes a message at the alert level.
func (m *Manager) Alert(message string, scopes ...string) (bool, error) {
	return m.Write(LevelAlert, message, scopes...)
}

// Critical writes a message at the critical level.
func (m *Manager) Critical(message string, scopes ...string) (bool, error) {
	return m.Write(LevelCritical, message, scopes...)
}

// Error writes a message at the error level.
func (m *Manager) Error(message string, scopes ...string) (bool, error) {
	return m.Write(LevelError, message, scopes...)
}

// Warning writes a message at the warning level.
func (m *Manager) Warning(message string, scopes ...string) (bool, error) {
	return m.Write(LevelWarning, message, scopes...)
}

// Notice writes a message at the notice level.
func (m *Manager) Notice(message string, scopes ...string) (bool, error) {
	return m.Write(LevelNotice, message, scopes...)
}

// Info writes a message at the info level.
func (m *Manager) Info(message string, scopes ...string) (bool, error) {
	return m.Write(LevelInfo, message, scopes...)
}

// Debug writes a message at the debug level.
func (m *Manager) Debug(message string, scopes ...string) (bool, error) {
	return m.Write(LevelDebug, message, scopes...)
}
