package core

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"kathy/internal/domain"
)

// fakeConn records frames instead of writing to a socket.
type fakeConn struct {
	mu       sync.Mutex
	frames   []Frame
	alive    bool
	closed   bool
	pings    int
	failSend bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{alive: true}
}

func (c *fakeConn) TrySend(f Frame) error {
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

func (c *fakeConn) Frames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Frame, len(c.frames))
	copy(out, c.frames)
	return out
}

func member(id uint64, name string) (MemberSession, *fakeConn) {
	conn := newFakeConn()
	return NewMemberSession(&domain.Chatter{ID: id, Name: name}, conn), conn
}

func TestRoomMembership(t *testing.T) {
	t.Run("should keep one entry per session on repeated joins", func(t *testing.T) {
		req := require.New(t)
		room := NewRoomService("general", 1)
		ms, _ := member(1, "Ann")

		room.AddMember("s1", ms)
		room.AddMember("s1", ms)

		req.Equal(1, room.MemberCount())
		req.Equal([]ParticipantDTO{{ID: 1, Name: "Ann"}}, room.Participants())
	})

	t.Run("should snapshot participants in join order", func(t *testing.T) {
		req := require.New(t)
		room := NewRoomService("general", 1)
		ann, _ := member(1, "Ann")
		bob, _ := member(2, "Bob")
		eve, _ := member(3, "Eve")

		room.AddMember("s1", ann)
		room.AddMember("s2", bob)
		room.AddMember("s3", eve)
		room.RemoveMember("s2")

		req.Equal([]ParticipantDTO{{ID: 1, Name: "Ann"}, {ID: 3, Name: "Eve"}}, room.Participants())
	})

	t.Run("should ignore removal of a non-member", func(t *testing.T) {
		req := require.New(t)
		room := NewRoomService("general", 1)
		ms, _ := member(1, "Ann")
		room.AddMember("s1", ms)

		room.RemoveMember("ghost")
		room.RemoveMember("s1")
		room.RemoveMember("s1")

		req.Equal(0, room.MemberCount())
	})
}

func TestRoomBroadcast(t *testing.T) {
	t.Run("should deliver to every member including the sender", func(t *testing.T) {
		req := require.New(t)
		room := NewRoomService("general", 1)
		ann, annConn := member(1, "Ann")
		bob, bobConn := member(2, "Bob")
		room.AddMember("s1", ann)
		room.AddMember("s2", bob)

		res := room.Broadcast(ann.Chatter(), "hi", RawToken(`7`))

		req.Equal(2, res.SentTo)
		req.Zero(res.Dropped)
		for _, conn := range []*fakeConn{annConn, bobConn} {
			frames := conn.Frames()
			req.Len(frames, 1)
			req.JSONEq(`{"type":"message","body":{"user":{"id":1,"name":"Ann"},"text":"hi","internalId":7}}`, string(frames[0]))
		}
	})

	t.Run("should not let one dead peer block the rest", func(t *testing.T) {
		req := require.New(t)
		room := NewRoomService("general", 1)
		ann, annConn := member(1, "Ann")
		bob, bobConn := member(2, "Bob")
		bobConn.failSend = true
		room.AddMember("s1", ann)
		room.AddMember("s2", bob)

		res := room.Broadcast(ann.Chatter(), "hi", nil)

		req.Equal(1, res.SentTo)
		req.Equal(1, res.Dropped)
		req.Len(annConn.Frames(), 1)
		req.Empty(bobConn.Frames())
	})

	t.Run("should omit internalId when the client sent none", func(t *testing.T) {
		req := require.New(t)
		room := NewRoomService("general", 1)
		ann, annConn := member(1, "Ann")
		room.AddMember("s1", ann)

		room.Broadcast(ann.Chatter(), "hi", nil)

		var env Envelope
		req.NoError(json.Unmarshal(annConn.Frames()[0], &env))
		req.NotContains(string(env.Body), "internalId")
	})
}
