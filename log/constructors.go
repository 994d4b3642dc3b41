package log

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds an engine from a typed Config. The whole Config is
// handed over so constructors can adopt its Levels and Scopes as the
// engine's accepted sets and read engine-specific settings from Options.
// Constructors must be safe to call concurrently.
type Constructor func(cfg Config) (Engine, error)

// Constructors is a table of engine constructors keyed by type name.
// Names are case-folded to lowercase on registration and lookup. The zero
// value is empty and ready to use; it is safe for concurrent use.
type Constructors struct {
	mu   sync.RWMutex
	data map[string]Constructor
}

// Register adds a constructor under the given type name. Registering a
// name twice is a programming error and returns one.
func (c *Constructors) Register(name string, fn Constructor) error {
	if name == "" || fn == nil {
		return fmt.Errorf("log: register engine: empty name or nil constructor")
	}
	name = strings.ToLower(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]Constructor)
	}
	if _, exists := c.data[name]; exists {
		return fmt.Errorf("log: engine type %q already registered", name)
	}
	c.data[name] = fn
	return nil
}

// Lookup returns the constructor registered under name, if any.
func (c *Constructors) Lookup(name string) (Constructor, bool) {
	c.mu.RLock()
	fn, ok := c.data[strings.ToLower(name)]
	c.mu.RUnlock()
	return fn, ok
}

// Types returns the registered type names in lexicographic order.
func (c *Constructors) Types() []string {
	c.mu.RLock()
	names := make([]string, 0, len(c.data))
	for name := range c.data {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)
	return names
}

// defaultConstructors is the process-wide table used by dispatchers that
// were not given their own with WithConstructors.
var defaultConstructors Constructors

// RegisterEngine adds a constructor to the default table. It panics on
// duplicate names and is intended for init functions of engine packages.
func RegisterEngine(name string, fn Constructor) {
	if err := defaultConstructors.Register(name, fn); err != nil {
		panic(err)
	}
}

// EngineTypes returns the type names in the default table, sorted.
func EngineTypes() []string {
	return defaultConstructors.Types()
}
