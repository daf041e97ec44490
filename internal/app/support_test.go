package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"kathy/internal/core"
	"kathy/internal/domain"
)

// fakeConn records frames instead of writing to a socket.
type fakeConn struct {
	mu       sync.Mutex
	frames   []core.Frame
	alive    bool
	closed   bool
	pings    int
	failSend bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{alive: true}
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failSend {
		return errors.New("send failed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *fakeConn) SetAlive(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = v
}

func (c *fakeConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	c.pings++
	return nil
}

func (c *fakeConn) Frames() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

// connect wires a fake connection into the broker the way the signal
// controller does for a real one.
func connect(b *Broker, sid core.SessionID) (*Dispatcher, *fakeConn) {
	conn := newFakeConn()
	chatter := domain.NewChatter()
	b.Bind(sid, core.NewMemberSession(chatter, conn), nil)
	return NewDispatcher(b, sid, chatter, conn), conn
}

type envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body"`
}

func lastFrame(t *testing.T, conn *fakeConn) envelope {
	t.Helper()
	frames := conn.Frames()
	require.NotEmpty(t, frames)
	var env envelope
	require.NoError(t, json.Unmarshal(frames[len(frames)-1], &env))
	return env
}

func decodeBody[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Body, &v))
	return v
}
