// Package wslog streams log entries over a WebSocket connection.
// Importing it registers the "websocket" engine type.
package wslog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/SplicePHP/cakephp/log"
	"github.com/SplicePHP/cakephp/log/engine"
)

// Defaults for connection handling.
const (
	DefaultDialTimeout = 5 * time.Second

	closeTimeout = 5 * time.Second
)

func init() {
	log.RegisterEngine("websocket", func(cfg log.Config) (log.Engine, error) {
		return New(cfg)
	})
}

// payload is the JSON document sent as one text frame per entry.
type payload struct {
	Level     string   `json:"level"`
	Message   string   `json:"message"`
	Scopes    []string `json:"scopes,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// Engine sends each entry as a masked text frame to a WebSocket server.
// The connection is established once at construction; writes are
// serialized so frames never interleave. The engine never reads from the
// connection.
//
// Options:
//
//	url:     ws:// or wss:// endpoint (required)
//	timeout: dial timeout (default 5s)
type Engine struct {
	engine.Base

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// New dials the configured endpoint and returns a connected engine.
func New(cfg log.Config) (*Engine, error) {
	opts := engine.Options(cfg.Options)
	rawURL, err := opts.String("url", "")
	if err != nil {
		return nil, err
	}
	if rawURL == "" {
		return nil, errors.New("wslog: engine requires a url option")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return nil, fmt.Errorf("wslog: url %q must be a ws or wss URL", rawURL)
	}
	timeout, err := opts.Duration("timeout", DefaultDialTimeout)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	conn, _, _, err := ws.Dial(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("wslog: dial %s: %w", rawURL, err)
	}
	return &Engine{
		Base: engine.NewBase(cfg),
		conn: conn,
	}, nil
}

// Write sends the entry as one text frame. Send failures are reported on
// stderr; the entry is dropped rather than retried since a broken stream
// stays broken until reconnection.
func (e *Engine) Write(level log.Level, message string, scopes []string) {
	body, err := json.Marshal(payload{
		Level:     level.String(),
		Message:   message,
		Scopes:    scopes,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "wslog: encode entry: %v\n", err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err := wsutil.WriteClientMessage(e.conn, ws.OpText, body); err != nil {
		fmt.Fprintf(os.Stderr, "wslog: send entry: %v\n", err)
	}
}

// Close sends a close frame and tears down the connection. Safe to call
// more than once.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.conn == nil {
		return nil
	}
	e.closed = true

	// Best effort: the peer should see a normal closure, but a dead
	// connection must not stall shutdown.
	_ = e.conn.SetWriteDeadline(time.Now().Add(closeTimeout))
	frame := ws.NewCloseFrame(ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	_ = ws.WriteFrame(e.conn, ws.MaskFrameInPlace(frame))

	return e.conn.Close()
}
