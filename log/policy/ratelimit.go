package policy

import (
	"io"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/SplicePHP/cakephp/log"
)

// RateLimit caps how many entries per second reach the inner engine
// using a token bucket. Entries beyond the sustained rate and burst are
// dropped and counted, never queued, so a log storm cannot back up the
// dispatcher.
type RateLimit struct {
	inner   log.Engine
	limiter *rate.Limiter
	dropped atomic.Int64
}

// NewRateLimit wraps inner with a token bucket allowing perSecond
// sustained entries and bursts up to burst.
func NewRateLimit(inner log.Engine, perSecond float64, burst int) *RateLimit {
	return &RateLimit{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Write forwards the entry when the bucket has a token, otherwise drops it.
func (r *RateLimit) Write(level log.Level, message string, scopes []string) {
	if !r.limiter.Allow() {
		r.dropped.Add(1)
		return
	}
	r.inner.Write(level, message, scopes)
}

// Dropped reports how many entries the limiter discarded.
func (r *RateLimit) Dropped() int64 {
	return r.dropped.Load()
}

// AcceptedLevels forwards the inner engine's level filter.
func (r *RateLimit) AcceptedLevels() []log.Level {
	if f, ok := r.inner.(log.LevelFilterer); ok {
		return f.AcceptedLevels()
	}
	return nil
}

// AcceptedScopes forwards the inner engine's scope filter.
func (r *RateLimit) AcceptedScopes() []string {
	if f, ok := r.inner.(log.ScopeFilterer); ok {
		return f.AcceptedScopes()
	}
	return nil
}

// Close closes the inner engine when it is closable.
func (r *RateLimit) Close() error {
	if c, ok := r.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
