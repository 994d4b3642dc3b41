package log

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the numeric severity code of a log entry. The eight levels and
// their codes follow RFC 5424: lower codes are more severe. The set is
// closed; no custom levels exist.
type Level int8

// Severity levels, ordered by numeric code.
const (
	LevelEmergency Level = iota // system is unusable
	LevelAlert                  // action must be taken immediately
	LevelCritical               // critical conditions
	LevelError                  // error conditions
	LevelWarning                // warning conditions
	LevelNotice                 // normal but significant condition
	LevelInfo                   // informational messages
	LevelDebug                  // debug-level messages
)

// ErrInvalidLevel is returned when a level name or numeric code falls
// outside the fixed eight-entry severity set.
var ErrInvalidLevel = errors.New("log: invalid level")

// levelNames maps numeric codes to severity names. Index equals code.
var levelNames = [...]string{
	LevelEmergency: "emergency",
	LevelAlert:     "alert",
	LevelCritical:  "critical",
	LevelError:     "error",
	LevelWarning:   "warning",
	LevelNotice:    "notice",
	LevelInfo:      "info",
	LevelDebug:     "debug",
}

// levelCodes maps severity names back to numeric codes.
var levelCodes = map[string]Level{
	"emergency": LevelEmergency,
	"alert":     LevelAlert,
	"critical":  LevelCritical,
	"error":     LevelError,
	"warning":   LevelWarning,
	"notice":    LevelNotice,
	"info":      LevelInfo,
	"debug":     LevelDebug,
}

// Levels returns the eight severity names in numeric code order, from
// emergency to debug.
func Levels() []string {
	names := make([]string, len(levelNames))
	copy(names, levelNames[:])
	return names
}

// ParseLevel converts a severity name into its Level. The comparison is
// case-insensitive; no aliases exist beyond the eight RFC 5424 names.
func ParseLevel(name string) (Level, error) {
	if l, ok := levelCodes[strings.ToLower(name)]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("%w: unknown name %q", ErrInvalidLevel, name)
}

// MustParseLevel is like ParseLevel but panics on unknown names.
// Intended for package-level declarations with literal names.
func MustParseLevel(name string) Level {
	l, err := ParseLevel(name)
	if err != nil {
		panic(err)
	}
	return l
}

// IsValid reports whether l is one of the eight defined severities.
func (l Level) IsValid() bool {
	return l >= LevelEmergency && l <= LevelDebug
}

// String returns the lowercase severity name, or "level(<code>)" for codes
// outside the defined set.
func (l Level) String() string {
	if l.IsValid() {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int8(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("%w: code %d is not a known severity", ErrInvalidLevel, int8(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so level names decode
// directly from YAML and JSON configuration.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
