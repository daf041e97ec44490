package signal

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"kathy/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// wsConn adapts one gorilla websocket to core.Connection. Frames sent
// before Open are parked in a pending queue and flushed once the write
// pump is running; frames for a closed or saturated connection are
// dropped. All socket writes happen on the write pump, which is why
// Ping only signals a channel here.
type wsConn struct {
	sock *websocket.Conn
	send chan core.Frame
	ping chan struct{}

	mu      sync.Mutex
	pending []core.Frame
	opened  bool
	closed  bool

	alive atomic.Bool
}

func newWSConn(sock *websocket.Conn, buf int) *wsConn {
	c := &wsConn{
		sock: sock,
		send: make(chan core.Frame, buf),
		ping: make(chan struct{}, 1),
	}
	c.alive.Store(true)
	return c
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if !c.opened {
		c.pending = append(c.pending, f)
		return nil
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Open flushes the pending queue and routes further sends straight to
// the write pump. Called once the pumps are running.
func (c *wsConn) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened || c.closed {
		return
	}
	c.opened = true
	for _, f := range c.pending {
		select {
		case c.send <- f:
		default:
		}
	}
	c.pending = nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	if c.sock != nil {
		_ = c.sock.Close()
	}
}

func (c *wsConn) Alive() bool     { return c.alive.Load() }
func (c *wsConn) SetAlive(v bool) { c.alive.Store(v) }

// Ping asks the write pump to emit a probe; a pump that is already
// behind on a previous ping keeps just one scheduled.
func (c *wsConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.ping <- struct{}{}:
	default:
	}
	return nil
}
