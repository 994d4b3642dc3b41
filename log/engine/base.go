// Package engine provides the standard engines shipped with the log
// dispatcher: console, file, syslog, webhook, and memory. Importing the
// package registers each under its type name, so configuration can select
// them with Config.Type:
//
//	import _ "github.com/SplicePHP/cakephp/log/engine"
package engine

import (
	"slices"

	"github.com/SplicePHP/cakephp/log"
)

// Base carries the accepted level and scope sets an engine was configured
// with and exposes them to the dispatcher's match predicate. Engine types
// embed it and initialize it with NewBase.
type Base struct {
	levels []log.Level
	scopes []string
}

// NewBase copies the filter sets out of cfg.
func NewBase(cfg log.Config) Base {
	return Base{
		levels: slices.Clone(cfg.Levels),
		scopes: slices.Clone(cfg.Scopes),
	}
}

// AcceptedLevels returns the configured level set. Callers must not
// mutate the returned slice.
func (b Base) AcceptedLevels() []log.Level { return b.levels }

// AcceptedScopes returns the configured scope set. Callers must not
// mutate the returned slice.
func (b Base) AcceptedScopes() []string { return b.scopes }
