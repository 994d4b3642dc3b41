package log

import (
	"fmt"
	"maps"
	"slices"
)

// Config describes one named engine: how to construct it and which entries
// it receives. Exactly one of Engine, Factory, or Type must be set.
type Config struct {
	// Engine is a pre-built engine to use as-is. The dispatcher never
	// closes engines supplied this way; their lifecycle belongs to the
	// caller.
	Engine Engine

	// Factory builds the engine on first use. Engines built from a
	// factory are owned by the dispatcher and closed when the
	// configuration is replaced or reset.
	Factory func() (Engine, error)

	// Type names a constructor registered with RegisterEngine. Engines
	// built by type are owned by the dispatcher, like factory-built ones.
	Type string

	// Levels is the exact set of levels the engine receives. Empty means
	// all levels. This is set membership, not a threshold.
	Levels []Level

	// Scopes restricts delivery to entries tagged with at least one of
	// these scopes. Empty means the engine accepts every entry. A
	// non-empty set excludes unscoped entries.
	Scopes []string

	// Options carries engine-specific settings for typed construction,
	// passed through to the registered constructor.
	Options map[string]any
}

// validate checks that the config names exactly one construction form and
// that every listed level is a known severity.
func (c Config) validate(name string) error {
	forms := 0
	if c.Engine != nil {
		forms++
	}
	if c.Factory != nil {
		forms++
	}
	if c.Type != "" {
		forms++
	}
	switch forms {
	case 1:
	case 0:
		return fmt.Errorf("log: config %q: no engine, factory, or type given", name)
	default:
		return fmt.Errorf("log: config %q: engine, factory, and type are mutually exclusive", name)
	}
	for _, l := range c.Levels {
		if !l.IsValid() {
			return fmt.Errorf("log: config %q: %w: code %d", name, ErrInvalidLevel, int8(l))
		}
	}
	return nil
}

// clone returns a copy whose slices and option map are independent of the
// original, so stored configuration cannot be mutated through the caller's
// references.
func (c Config) clone() Config {
	c.Levels = slices.Clone(c.Levels)
	c.Scopes = slices.Clone(c.Scopes)
	c.Options = maps.Clone(c.Options)
	return c
}
