package engine

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/SplicePHP/cakephp/log"
)

// Console output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

func init() {
	log.RegisterEngine("console", func(cfg log.Config) (log.Engine, error) {
		return NewConsole(cfg)
	})
}

// Console writes entries to a terminal stream, one line per entry.
//
// Options:
//
//	format: "json" (default) or "text"
//	stream: "stderr" (default), "stdout", or an io.Writer supplied directly
type Console struct {
	Base
	zl zerolog.Logger
}

// NewConsole builds a console engine from cfg.
func NewConsole(cfg log.Config) (*Console, error) {
	opts := Options(cfg.Options)
	format, err := opts.String("format", FormatJSON)
	if err != nil {
		return nil, err
	}

	var out io.Writer
	switch v := cfg.Options["stream"].(type) {
	case nil:
		out = os.Stderr
	case string:
		switch v {
		case "stderr":
			out = os.Stderr
		case "stdout":
			out = os.Stdout
		default:
			return nil, fmt.Errorf("engine: unknown console stream %q", v)
		}
	case io.Writer:
		out = v
	default:
		return nil, fmt.Errorf("engine: option %q: want stream name or io.Writer, got %T", "stream", v)
	}

	var zl zerolog.Logger
	switch format {
	case FormatJSON:
		zl = zerolog.New(out).With().Timestamp().Logger()
	case FormatText:
		zl = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: true}).With().Timestamp().Logger()
	default:
		return nil, fmt.Errorf("engine: unknown console format %q", format)
	}

	return &Console{Base: NewBase(cfg), zl: zl}, nil
}

// Write emits one line for the entry. The severity travels in the "level"
// field; scopes, when present, in "scopes".
func (c *Console) Write(level log.Level, message string, scopes []string) {
	e := c.zl.Log().Str("level", level.String())
	if len(scopes) > 0 {
		e = e.Strs("scopes", scopes)
	}
	e.Msg(sanitize(message))
}
