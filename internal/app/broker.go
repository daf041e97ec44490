package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"kathy/internal/core"
	"kathy/internal/domain"
)

type sessionEntry struct {
	Session core.MemberSession
	Room    core.RoomService
	Cancel  context.CancelFunc
}

// Broker owns all relay state for one server instance: the room
// directory, the session table and the id counters. It is handed to the
// components that need it instead of living in package-level globals,
// so independent instances can run side by side in tests.
type Broker struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry

	Rooms *core.RoomDirectory

	userSeq atomic.Uint64
	roomSeq atomic.Uint64
}

func NewBroker() *Broker {
	b := &Broker{sessions: make(map[core.SessionID]*sessionEntry)}
	b.Rooms = core.NewRoomDirectory(func() uint64 { return b.roomSeq.Add(1) })
	return b
}

// NextUserID issues the next server-assigned chatter id. Ids are
// monotonic and never reused within the process lifetime.
func (b *Broker) NextUserID() uint64 {
	return b.userSeq.Add(1)
}

// Bind registers a freshly accepted connection's session.
func (b *Broker) Bind(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sid] = &sessionEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.broker").Str("sid", string(sid)).Msg("bound session")
}

// Join moves the session into the named room, leaving its previous room
// first. A chatter is a member of at most one room at any instant.
// Membership mutates under b.mu so a concurrent Disconnect can never
// interleave between the table update and the room update; room methods
// never call back into the broker, so the broker→room lock order holds.
func (b *Broker) Join(sid core.SessionID, name domain.RoomName) (core.RoomService, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.sessions[sid]
	if !ok {
		return nil, false
	}
	room := b.Rooms.GetOrCreate(name)
	if prev := entry.Room; prev != nil && prev != room {
		prev.RemoveMember(sid)
	}
	entry.Room = room
	room.AddMember(sid, entry.Session)
	log.Info().Str("module", "app.broker").Str("sid", string(sid)).Str("room", string(name)).Msg("joined room")
	return room, true
}

// RoomOf returns the session's current room.
func (b *Broker) RoomOf(sid core.SessionID) (core.RoomService, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entry, ok := b.sessions[sid]
	if !ok || entry.Room == nil {
		return nil, false
	}
	return entry.Room, true
}

// Disconnect detaches the session from its room and forgets it, so no
// later broadcast can route to it. Called from the read pump on close
// and from the sweeper on a dead peer; safe to call more than once.
func (b *Broker) Disconnect(sid core.SessionID) {
	b.mu.Lock()
	entry, ok := b.sessions[sid]
	if ok {
		delete(b.sessions, sid)
		if entry.Room != nil {
			entry.Room.RemoveMember(sid)
		}
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	if entry.Cancel != nil {
		entry.Cancel()
	}
	log.Info().Str("module", "app.broker").Str("sid", string(sid)).Msg("session disconnected")
}

// Drop force-terminates a session judged dead: detach first, then close
// the transport.
func (b *Broker) Drop(sid core.SessionID) {
	b.mu.RLock()
	entry, ok := b.sessions[sid]
	b.mu.RUnlock()
	if !ok {
		return
	}
	conn := entry.Session.Conn()
	b.Disconnect(sid)
	conn.Close()
}

type SessionSnap struct {
	SID  core.SessionID
	Conn core.Connection
}

// Sessions returns a point-in-time view of open connections for the
// liveness sweep; the table may mutate while the sweep iterates.
func (b *Broker) Sessions() []SessionSnap {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]SessionSnap, 0, len(b.sessions))
	for sid, e := range b.sessions {
		out = append(out, SessionSnap{SID: sid, Conn: e.Session.Conn()})
	}
	return out
}
