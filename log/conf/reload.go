package conf

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/SplicePHP/cakephp/log"
)

const debounceInterval = 100 * time.Millisecond

// Reloader watches a sink configuration file and emits newly parsed
// files on a channel. Reloads trigger on file changes and on SIGHUP.
type Reloader struct {
	path      string
	logger    zerolog.Logger
	onChange  chan *File
	done      chan struct{}
	closeOnce sync.Once
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithLogger replaces the reloader's diagnostic logger.
func WithLogger(logger zerolog.Logger) ReloaderOption {
	return func(r *Reloader) { r.logger = logger }
}

// NewReloader creates a reloader for the file at path. Start must be
// called to begin watching.
func NewReloader(path string, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		path:     path,
		logger:   zerolog.New(os.Stderr).With().Timestamp().Logger(),
		onChange: make(chan *File, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Changes returns the channel that receives files on successful reload.
func (r *Reloader) Changes() <-chan *File {
	return r.onChange
}

// Start watches the file and listens for SIGHUP. It blocks until ctx is
// cancelled or Close is called, then closes the Changes channel. Files
// that fail to parse are logged and skipped; the previous configuration
// stays active.
func (r *Reloader) Start(ctx context.Context) error {
	defer close(r.onChange)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("conf: creating file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory rather than the file itself so editors that
	// save via write-to-temp-then-rename still trigger a reload.
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("conf: watching directory %s: %w", dir, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	baseName := filepath.Base(r.path)

	// Editors fire several events per save; coalesce them.
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != baseName {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce = time.After(debounceInterval)
			}
		case <-debounce:
			r.tryReload()
			debounce = nil
		case <-sigCh:
			r.tryReload()
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; keep watching.
		}
	}
}

func (r *Reloader) tryReload() {
	file, err := Load(r.path)
	if err != nil {
		r.logger.Error().Err(err).Str("path", r.path).Msg("sink config reload failed")
		return
	}

	// Non-blocking send: an undrained reload is superseded by the next
	// change anyway.
	select {
	case r.onChange <- file:
	default:
	}
}

// Watch runs the reloader and applies every accepted file to m: engines
// are closed via Reset, then the new sinks are stored in file order. It
// consumes the Changes channel, so use either Watch or Changes, not
// both. Watch blocks until ctx is cancelled or Close is called.
func (r *Reloader) Watch(ctx context.Context, m *log.Manager) error {
	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(ctx) }()

	for file := range r.onChange {
		if err := m.Reset(); err != nil {
			r.logger.Error().Err(err).Msg("closing engines before reload")
		}
		if err := file.Apply(m); err != nil {
			r.logger.Error().Err(err).Str("path", file.Path).Msg("applying reloaded sinks")
		}
	}
	return <-errCh
}

// Close stops the reloader. Safe to call multiple times.
func (r *Reloader) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
}
