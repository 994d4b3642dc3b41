package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/SplicePHP/cakephp/log"
)

// Default values for Webhook configuration.
const (
	DefaultQueueSize      = 64
	DefaultWebhookTimeout = 5 * time.Second
	DefaultAttempts       = 3
	DefaultBackoff        = 250 * time.Millisecond
	drainTimeout          = 10 * time.Second
)

func init() {
	log.RegisterEngine("webhook", func(cfg log.Config) (log.Engine, error) {
		return NewWebhook(cfg)
	})
}

// webhookPayload is the JSON structure POSTed per entry.
type webhookPayload struct {
	ID        string   `json:"id"`
	Level     string   `json:"level"`
	Message   string   `json:"message"`
	Scopes    []string `json:"scopes,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// Webhook ships entries as JSON to an HTTP endpoint. Entries are queued
// and sent by a single background goroutine; when the queue is full the
// entry is dropped and counted rather than blocking the caller.
//
// Options:
//
//	url:        endpoint to POST to (required)
//	token:      optional bearer token for the Authorization header
//	timeout:    per-request timeout (default 5s)
//	queue_size: pending entry capacity (default 64)
//	attempts:   delivery attempts per entry (default 3)
//	backoff:    base delay between attempts, grows linearly (default 250ms)
type Webhook struct {
	Base
	url      string
	token    string
	attempts int
	backoff  time.Duration
	client   *http.Client

	queue     chan webhookPayload
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	dropped   atomic.Int64
}

// NewWebhook builds a webhook engine from cfg and starts its delivery
// goroutine. Close stops the goroutine after draining pending entries.
func NewWebhook(cfg log.Config) (*Webhook, error) {
	opts := Options(cfg.Options)
	url, err := opts.String("url", "")
	if err != nil {
		return nil, err
	}
	if url == "" {
		return nil, errors.New("engine: webhook engine requires a url option")
	}
	token, err := opts.String("token", "")
	if err != nil {
		return nil, err
	}
	timeout, err := opts.Duration("timeout", DefaultWebhookTimeout)
	if err != nil {
		return nil, err
	}
	queueSize, err := opts.Int("queue_size", DefaultQueueSize)
	if err != nil {
		return nil, err
	}
	if queueSize <= 0 {
		return nil, fmt.Errorf("engine: webhook queue_size must be positive, got %d", queueSize)
	}
	attempts, err := opts.Int("attempts", DefaultAttempts)
	if err != nil {
		return nil, err
	}
	if attempts <= 0 {
		return nil, fmt.Errorf("engine: webhook attempts must be positive, got %d", attempts)
	}
	backoff, err := opts.Duration("backoff", DefaultBackoff)
	if err != nil {
		return nil, err
	}

	w := &Webhook{
		Base:     NewBase(cfg),
		url:      url,
		token:    token,
		attempts: attempts,
		backoff:  backoff,
		client:   &http.Client{Timeout: timeout},
		queue:    make(chan webhookPayload, queueSize),
		done:     make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Write enqueues the entry for async delivery. A full queue or a closed
// engine drops the entry and increments the drop counter.
func (w *Webhook) Write(level log.Level, message string, scopes []string) {
	p := webhookPayload{
		ID:        uuid.NewString(),
		Level:     level.String(),
		Message:   message,
		Scopes:    scopes,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}

	select {
	case <-w.done:
		w.dropped.Add(1)
		return
	default:
	}

	select {
	case w.queue <- p:
	case <-w.done:
		w.dropped.Add(1)
	default:
		w.dropped.Add(1)
	}
}

// Dropped reports how many entries were discarded because the queue was
// full or the engine was closed.
func (w *Webhook) Dropped() int64 { return w.dropped.Load() }

// Close signals the delivery goroutine to drain pending entries and stop.
// It blocks until the drain finishes or its deadline expires and is safe
// to call multiple times.
func (w *Webhook) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	return nil
}

// run is the background goroutine delivering queued entries.
func (w *Webhook) run() {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "engine: webhook goroutine panic: %v\n", r)
		}
	}()

	for {
		select {
		case p := <-w.queue:
			w.send(p)
		case <-w.done:
			w.drain()
			return
		}
	}
}

// drain delivers remaining queued entries with a deadline.
func (w *Webhook) drain() {
	deadline := time.After(drainTimeout)
	for {
		select {
		case p := <-w.queue:
			w.send(p)
		case <-deadline:
			return
		default:
			return
		}
	}
}

// send delivers one entry, retrying transient failures with a linear
// backoff. Client errors (4xx) are permanent and not retried.
func (w *Webhook) send(p webhookPayload) {
	body, err := json.Marshal(p)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: webhook marshal: %v\n", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt < w.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(w.backoff * time.Duration(attempt)):
			case <-w.done:
				// Shutting down: the drain gets one attempt per entry.
				if lastErr != nil {
					fmt.Fprintf(os.Stderr, "engine: webhook delivery abandoned: %v\n", lastErr)
				}
				return
			}
		}

		var permanent bool
		permanent, lastErr = w.post(body)
		if lastErr == nil {
			return
		}
		if permanent {
			break
		}
	}
	fmt.Fprintf(os.Stderr, "engine: webhook delivery failed for entry %s: %v\n", p.ID, lastErr)
}

// post performs a single POST. The bool reports whether a failure is
// permanent (a 4xx response) and retrying would not help.
func (w *Webhook) post(body []byte) (bool, error) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return true, err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return false, err
	}
	_ = resp.Body.Close()
	switch {
	case resp.StatusCode < 300:
		return false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return true, fmt.Errorf("engine: webhook returned HTTP %d", resp.StatusCode)
	default:
		return false, fmt.Errorf("engine: webhook returned HTTP %d", resp.StatusCode)
	}
}
