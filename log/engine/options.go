package engine

import (
	"fmt"
	"time"
)

// Options reads engine-specific settings out of a Config's option map.
// Accessors return the given default when the key is absent and an error
// when the stored value has the wrong type, so misconfiguration fails
// engine construction instead of being silently ignored.
type Options map[string]any

// String returns the string stored under key, or def when absent.
func (o Options) String(key, def string) (string, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("engine: option %q: want string, got %T", key, v)
	}
	return s, nil
}

// Int returns the integer stored under key, or def when absent. Whole
// floats are accepted because generic decoders often produce them.
func (o Options) Int(key string, def int) (int, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("engine: option %q: want integer, got %v", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("engine: option %q: want integer, got %T", key, v)
	}
}

// Bool returns the boolean stored under key, or def when absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("engine: option %q: want bool, got %T", key, v)
	}
	return b, nil
}

// Duration returns the duration stored under key, or def when absent.
// String values are parsed with time.ParseDuration.
func (o Options) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := o[key]
	if !ok || v == nil {
		return def, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("engine: option %q: %w", key, err)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("engine: option %q: want duration, got %T", key, v)
	}
}
