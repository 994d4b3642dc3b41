package engine

import (
	"errors"
	"os"

	"github.com/rs/zerolog"

	"github.com/SplicePHP/cakephp/log"
)

func init() {
	log.RegisterEngine("file", func(cfg log.Config) (log.Engine, error) {
		return NewFile(cfg)
	})
}

// File appends entries to a file as JSON lines. The file is created with
// 0600 permissions and opened in append mode; rotation is left to external
// tooling.
//
// Options:
//
//	path: file to append to (required)
type File struct {
	Base
	f  *os.File
	zl zerolog.Logger
}

// NewFile builds a file engine from cfg. The caller should Close it when
// done; the dispatcher does so for engines it constructed.
func NewFile(cfg log.Config) (*File, error) {
	opts := Options(cfg.Options)
	path, err := opts.String("path", "")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.New("engine: file engine requires a path option")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // G304: path comes from operator configuration
	if err != nil {
		return nil, err
	}

	return &File{
		Base: NewBase(cfg),
		f:    f,
		zl:   zerolog.New(f).With().Timestamp().Logger(),
	}, nil
}

// Write appends one JSON line for the entry.
func (f *File) Write(level log.Level, message string, scopes []string) {
	e := f.zl.Log().Str("level", level.String())
	if len(scopes) > 0 {
		e = e.Strs("scopes", scopes)
	}
	e.Msg(sanitize(message))
}

// Close flushes and closes the underlying file. It is idempotent and safe
// on a nil receiver.
func (f *File) Close() error {
	if f == nil || f.f == nil {
		return nil
	}
	_ = f.f.Sync()
	err := f.f.Close()
	f.f = nil
	return err
}
