// Package sentrylog ships log entries to Sentry. Importing it registers
// the "sentry" engine type.
package sentrylog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/engine"
)

// DefaultFlushTimeout bounds how long Close waits for buffered events.
const DefaultFlushTimeout = 2 * time.Second

func init() {
	log.RegisterEngine("sentry", func(cfg log.Config) (log.Engine, error) {
		return New(cfg)
	})
}

// Engine forwards entries to Sentry as events. Scopes travel in a
// "scopes" tag. Delivery is buffered by the Sentry client; Close flushes.
//
// Options:
//
//	dsn:           Sentry project DSN (required)
//	environment:   environment tag for every event
//	release:       release tag for every event
//	flush_timeout: how long Close waits for pending events (default 2s)
type Engine struct {
	engine.Base
	hub          *sentry.Hub
	flushTimeout time.Duration
}

// New builds a Sentry engine from cfg, creating its own client.
func New(cfg log.Config) (*Engine, error) {
	opts := engine.Options(cfg.Options)
	dsn, err := opts.String("dsn", "")
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, errors.New("sentrylog: engine requires a dsn option")
	}
	environment, err := opts.String("environment", "")
	if err != nil {
		return nil, err
	}
	release, err := opts.String("release", "")
	if err != nil {
		return nil, err
	}
	if _, err := opts.Duration("flush_timeout", DefaultFlushTimeout); err != nil {
		return nil, err
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
		Release:     release,
	})
	if err != nil {
		return nil, fmt.Errorf("sentrylog: %w", err)
	}
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing Sentry client. The engine owns neither
// the client's transport nor its lifecycle beyond flushing on Close.
func NewWithClient(client *sentry.Client, cfg log.Config) *Engine {
	flushTimeout := DefaultFlushTimeout
	if d, err := engine.Options(cfg.Options).Duration("flush_timeout", DefaultFlushTimeout); err == nil {
		flushTimeout = d
	}
	return &Engine{
		Base:         engine.NewBase(cfg),
		hub:          sentry.NewHub(client, sentry.NewScope()),
		flushTimeout: flushTimeout,
	}
}

// sentryLevel maps the RFC 5424 severities onto Sentry's five levels.
func sentryLevel(l log.Level) sentry.Level {
	switch l {
	case log.LevelEmergency, log.LevelAlert, log.LevelCritical:
		return sentry.LevelFatal
	case log.LevelError:
		return sentry.LevelError
	case log.LevelWarning:
		return sentry.LevelWarning
	case log.LevelNotice, log.LevelInfo:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}

// Write captures one Sentry event for the entry.
func (e *Engine) Write(level log.Level, message string, scopes []string) {
	event := sentry.NewEvent()
	event.Level = sentryLevel(level)
	event.Message = message
	event.Tags["severity"] = level.String()
	if len(scopes) > 0 {
		event.Tags["scopes"] = strings.Join(scopes, ",")
	}
	e.hub.CaptureEvent(event)
}

// Close flushes buffered events, reporting a timeout as an error so
// dropped events are not silent during shutdown.
func (e *Engine) Close() error {
	if e == nil || e.hub == nil {
		return nil
	}
	if client := e.hub.Client(); client != nil {
		if !client.Flush(e.flushTimeout) {
			return fmt.Errorf("sentrylog: flush timed out after %s", e.flushTimeout)
		}
	}
	return nil
}
