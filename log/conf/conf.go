// Package conf loads named sink configurations from YAML files and
// applies them to a Manager. The file schema is one mapping of sink
// names to engine settings:
//
//	sinks:
//	  app:
//	    type: file
//	    levels: [error, warning]
//	    scopes: [payment]
//	    path: /var/log/app.log
//	  alerts:
//	    type: sentry
//	    dsn: https://key@sentry.example.com/1
//
// type, levels and scopes are reserved keys; everything else passes
// through verbatim as engine options.
package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SplicePHP/cakephp/log"
)

// Sink is one named engine configuration, in file order.
type Sink struct {
	Name   string
	Config log.Config
}

// File is a parsed sink configuration file.
type File struct {
	Path  string
	Sinks []Sink
}

type document struct {
	Sinks yaml.Node `yaml:"sinks"`
}

type sinkSpec struct {
	Type   string   `yaml:"type"`
	Levels []string `yaml:"levels"`
	Scopes []string `yaml:"scopes"`
}

// Load reads and parses the sink configuration at path. Sinks keep the
// order the file declares them in, which is why the mapping is walked as
// a yaml.Node instead of decoded into a Go map.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path from caller
	if err != nil {
		return nil, fmt.Errorf("conf: reading %s: %w", path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("conf: parsing %s: %w", path, err)
	}
	if doc.Sinks.Kind == 0 || len(doc.Sinks.Content) == 0 {
		return nil, fmt.Errorf("conf: %s: no sinks defined", path)
	}
	if doc.Sinks.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("conf: %s: sinks must be a mapping of names to settings", path)
	}

	file := &File{Path: path}
	for i := 0; i < len(doc.Sinks.Content); i += 2 {
		keyNode, valNode := doc.Sinks.Content[i], doc.Sinks.Content[i+1]
		name := keyNode.Value
		if name == "" {
			return nil, fmt.Errorf("conf: %s: sink name must not be empty (line %d)", path, keyNode.Line)
		}

		var spec sinkSpec
		if err := valNode.Decode(&spec); err != nil {
			return nil, fmt.Errorf("conf: sink %q: %w", name, err)
		}
		if spec.Type == "" {
			return nil, fmt.Errorf("conf: sink %q: missing engine type (line %d)", name, keyNode.Line)
		}
		var levels []log.Level
		for _, levelName := range spec.Levels {
			lvl, err := log.ParseLevel(levelName)
			if err != nil {
				return nil, fmt.Errorf("conf: sink %q: %w", name, err)
			}
			levels = append(levels, lvl)
		}

		var raw map[string]any
		if err := valNode.Decode(&raw); err != nil {
			return nil, fmt.Errorf("conf: sink %q: %w", name, err)
		}
		delete(raw, "type")
		delete(raw, "levels")
		delete(raw, "scopes")
		var options map[string]any
		if len(raw) > 0 {
			options = raw
		}

		file.Sinks = append(file.Sinks, Sink{
			Name: name,
			Config: log.Config{
				Type:    spec.Type,
				Levels:  levels,
				Scopes:  spec.Scopes,
				Options: options,
			},
		})
	}
	return file, nil
}

// Validate checks every sink's engine type against known, typically
// log.EngineTypes(). Load cannot do this itself: which types exist
// depends on which engine packages the program imports.
func (f *File) Validate(known []string) error {
	types := make(map[string]bool, len(known))
	for _, t := range known {
		types[t] = true
	}
	for _, sink := range f.Sinks {
		if !types[sink.Config.Type] {
			return fmt.Errorf("conf: sink %q: unknown engine type %q", sink.Name, sink.Config.Type)
		}
	}
	return nil
}

// Apply stores every sink on the manager in file order. Engines are not
// built here; the manager materializes them on first use.
func (f *File) Apply(m *log.Manager) error {
	for _, sink := range f.Sinks {
		if err := m.SetConfig(sink.Name, sink.Config); err != nil {
			return fmt.Errorf("conf: sink %q: %w", sink.Name, err)
		}
	}
	return nil
}
