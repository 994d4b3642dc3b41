package log

import (
	"errors"
	"fmt"
)

// ErrEngineNotFound is returned by Manager.Engine for names with no
// configuration.
var ErrEngineNotFound = errors.New("log: engine not found")

// An EngineError reports that a configured engine could not be built. It
// carries the configuration name and wraps the constructor's error.
type EngineError struct {
	Name string
	Err  error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("log: building engine %q: %v", e.Name, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// loadedEngine is one materialized engine. owned marks engines the
// dispatcher built itself (factory or typed construction); those are closed
// when their generation is discarded. Caller-provided instances are not.
type loadedEngine struct {
	name   string
	engine Engine
	owned  bool
}

// engineSet is one generation of materialized engines, in configuration
// order. A set is built wholesale from the config store and never patched;
// any configuration change discards the whole set.
type engineSet []loadedEngine

// buildEngines materializes every config in order. On failure it closes
// whatever it already built and returns an *EngineError for the config
// that failed, leaving the caller's previous generation untouched.
func buildEngines(configs []namedConfig, constructors *Constructors) (engineSet, error) {
	set := make(engineSet, 0, len(configs))
	for _, nc := range configs {
		eng, owned, err := buildEngine(nc.config, constructors)
		if err != nil {
			set.close()
			return nil, &EngineError{Name: nc.name, Err: err}
		}
		set = append(set, loadedEngine{name: nc.name, engine: eng, owned: owned})
	}
	return set, nil
}

// buildEngine resolves one config's construction form. The returned bool
// reports ownership: true for engines built here, false for pre-built
// instances.
func buildEngine(cfg Config, constructors *Constructors) (Engine, bool, error) {
	switch {
	case cfg.Engine != nil:
		return cfg.Engine, false, nil
	case cfg.Factory != nil:
		eng, err := cfg.Factory()
		if err != nil {
			return nil, false, err
		}
		if eng == nil {
			return nil, false, errors.New("factory returned nil engine")
		}
		return eng, true, nil
	default:
		ctor, ok := constructors.Lookup(cfg.Type)
		if !ok {
			return nil, false, fmt.Errorf("unknown engine type %q", cfg.Type)
		}
		eng, err := ctor(cfg)
		if err != nil {
			return nil, false, err
		}
		if eng == nil {
			return nil, false, fmt.Errorf("engine type %q constructor returned nil", cfg.Type)
		}
		return eng, true, nil
	}
}

// find returns the engine loaded under name.
func (s engineSet) find(name string) (Engine, bool) {
	for _, le := range s {
		if le.name == name {
			return le.engine, true
		}
	}
	return nil, false
}

// close releases every owned engine in the set. Errors are joined so one
// failing Close does not hide another.
func (s engineSet) close() error {
	var errs []error
	for _, le := range s {
		if !le.owned {
			continue
		}
		if err := closeEngine(le.engine); err != nil {
			errs = append(errs, fmt.Errorf("log: closing engine %q: %w", le.name, err))
		}
	}
	return errors.Join(errs...)
}
