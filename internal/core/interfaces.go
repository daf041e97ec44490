package core

import (
	"kathy/internal/domain"
)

// Frame is one encoded wire message.
type Frame []byte

// SessionID identifies one connection for the lifetime of the process.
type SessionID string

// Connection abstracts the duplex transport of a single client.
// Owned by the adapter; the adapter must Close() it.
type Connection interface {
	// TrySend enqueues a frame without blocking. A frame aimed at a
	// closed or saturated peer is dropped, never retried.
	TrySend(Frame) error
	// Close releases the transport. Safe to call more than once.
	Close()
	// Alive reports whether the peer answered the last liveness probe.
	Alive() bool
	SetAlive(bool)
	// Ping schedules a transport-level probe.
	Ping() error
}

// MemberSession binds a domain.Chatter to its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	Chatter() *domain.Chatter
	Conn() Connection
}

// PublishResult reports delivery stats for one broadcast.
type PublishResult struct {
	SentTo  int
	Dropped int
}

// ParticipantDTO is a read-only member view for responses (no transport fields).
type ParticipantDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Name() domain.RoomName
	ID() uint64
	MemberCount() int
	Participants() []ParticipantDTO

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID)
	Broadcast(sender *domain.Chatter, text string, internalID RawToken) PublishResult
}

type RoomInfo struct {
	Name        domain.RoomName `json:"name"`
	MemberCount int             `json:"client_count"`
}
