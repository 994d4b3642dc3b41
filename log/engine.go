package log

import "io"

// Engine is a destination for dispatched log entries. Implementations are
// responsible for formatting, delivery, and their own failure handling;
// the dispatcher decides routing and nothing else. An engine that cannot
// deliver an entry must cope on its own (retry, drop, fall back), because
// no return value reaches the dispatcher and routing never depends on
// delivery outcome.
//
// Write must be safe for concurrent use. It receives only entries whose
// level code has passed validation, at most once per entry.
type Engine interface {
	Write(level Level, message string, scopes []string)
}

// LevelFilterer is implemented by engines that restrict delivery to an
// exact set of levels. Engines without it receive every level.
type LevelFilterer interface {
	// AcceptedLevels returns the exact set of levels the engine accepts.
	// Empty or nil means all levels. Membership, not thresholds: an
	// engine listing only "error" does not receive "critical" entries.
	AcceptedLevels() []Level
}

// ScopeFilterer is implemented by engines that restrict delivery to
// entries tagged with particular scopes.
type ScopeFilterer interface {
	// AcceptedScopes returns the scopes the engine subscribes to. Empty
	// or nil means the engine accepts every entry, scoped or not. A
	// non-empty set opts the engine out of unscoped entries entirely.
	AcceptedScopes() []string
}

// matchesLevel reports whether an engine accepts the given level.
func matchesLevel(e Engine, level Level) bool {
	lf, ok := e.(LevelFilterer)
	if !ok {
		return true
	}
	accepted := lf.AcceptedLevels()
	if len(accepted) == 0 {
		return true
	}
	for _, l := range accepted {
		if l == level {
			return true
		}
	}
	return false
}

// matchesScopes reports whether an engine accepts an entry carrying the
// given scopes. Engines with a non-empty scope set require a non-empty
// intersection; engines with no declared scopes accept everything.
func matchesScopes(e Engine, scopes []string) bool {
	sf, ok := e.(ScopeFilterer)
	if !ok {
		return true
	}
	accepted := sf.AcceptedScopes()
	if len(accepted) == 0 {
		return true
	}
	if len(scopes) == 0 {
		return false
	}
	for _, want := range accepted {
		for _, got := range scopes {
			if want == got {
				return true
			}
		}
	}
	return false
}

// closeEngine releases an engine's resources if it holds any. Engines
// that do not implement io.Closer have nothing to release.
func closeEngine(e Engine) error {
	c, ok := e.(io.Closer)
	if !ok {
		return nil
	}
	return c.Close()
}
