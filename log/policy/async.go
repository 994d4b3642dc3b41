// Package policy wraps engines with delivery behaviors: asynchronous
// queueing and rate limiting. Wrappers forward the inner engine's level
// and scope filters so dispatch decisions are unchanged.
package policy

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/SplicePHP/cakephp/log"
)

// DefaultAsyncQueueSize is the queue capacity unless overridden.
const DefaultAsyncQueueSize = 1000

// AsyncOption configures an Async wrapper.
type AsyncOption func(*asyncConfig)

type asyncConfig struct {
	queueSize int
	onDropped func(count int)
}

// WithQueueSize sets the maximum number of queued entries.
func WithQueueSize(size int) AsyncOption {
	return func(c *asyncConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithOnDropped installs a callback invoked when entries are dropped
// because the queue overflowed.
func WithOnDropped(fn func(count int)) AsyncOption {
	return func(c *asyncConfig) {
		c.onDropped = fn
	}
}

type asyncEntry struct {
	level   log.Level
	message string
	scopes  []string
}

// Async decouples callers from a slow engine with a bounded queue and a
// background worker. When the queue is full the oldest entry is dropped
// to make room, so a stalled sink sheds old entries instead of blocking
// the dispatcher. Close drains whatever is queued before closing the
// inner engine.
type Async struct {
	inner     log.Engine
	queue     chan asyncEntry
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	mu        sync.Mutex
	closed    bool
	dropped   atomic.Int64
	onDropped func(count int)
}

// NewAsync wraps inner with a bounded queue. Write returns immediately;
// entries reach inner from a single background goroutine.
func NewAsync(inner log.Engine, opts ...AsyncOption) *Async {
	cfg := &asyncConfig{queueSize: DefaultAsyncQueueSize}
	for _, opt := range opts {
		opt(cfg)
	}

	a := &Async{
		inner:     inner,
		queue:     make(chan asyncEntry, cfg.queueSize),
		done:      make(chan struct{}),
		onDropped: cfg.onDropped,
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for {
		select {
		case entry := <-a.queue:
			a.inner.Write(entry.level, entry.message, entry.scopes)
		case <-a.done:
			for {
				select {
				case entry := <-a.queue:
					a.inner.Write(entry.level, entry.message, entry.scopes)
				default:
					return
				}
			}
		}
	}
}

// Write enqueues the entry. After Close it is a no-op.
func (a *Async) Write(level log.Level, message string, scopes []string) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	entry := asyncEntry{level: level, message: message, scopes: scopes}
	select {
	case a.queue <- entry:
	default:
		a.dropOldestAndEnqueue(entry)
	}
}

func (a *Async) dropOldestAndEnqueue(entry asyncEntry) {
	select {
	case <-a.queue:
		a.recordDrop()
	default:
		// Worker emptied the queue in the meantime.
	}
	select {
	case a.queue <- entry:
	default:
		a.recordDrop()
	}
}

func (a *Async) recordDrop() {
	a.dropped.Add(1)
	if a.onDropped != nil {
		a.onDropped(1)
	}
}

// Dropped reports how many entries were discarded due to overflow.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// AcceptedLevels forwards the inner engine's level filter.
func (a *Async) AcceptedLevels() []log.Level {
	if f, ok := a.inner.(log.LevelFilterer); ok {
		return f.AcceptedLevels()
	}
	return nil
}

// AcceptedScopes forwards the inner engine's scope filter.
func (a *Async) AcceptedScopes() []string {
	if f, ok := a.inner.(log.ScopeFilterer); ok {
		return f.AcceptedScopes()
	}
	return nil
}

// Close drains the queue, stops the worker, and closes the inner engine.
// Later calls return the first result.
func (a *Async) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		close(a.done)
		a.wg.Wait()

		if c, ok := a.inner.(io.Closer); ok {
			a.closeErr = c.Close()
		}
	})
	return a.closeErr
}
