package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"kathy/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources; membership is not ownership,
// so a member leaving leaves the room itself intact.
type roomImpl struct {
	name domain.RoomName
	id   uint64

	mu    sync.RWMutex
	bySID map[SessionID]MemberSession
	order []SessionID // join order keeps participant snapshots deterministic
}

func NewRoomService(name domain.RoomName, id uint64) RoomService {
	return &roomImpl{
		name:  name,
		id:    id,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Name() domain.RoomName { return r.name }
func (r *roomImpl) ID() uint64            { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

// AddMember is idempotent; re-joining the same room keeps the original slot.
func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; ok {
		r.bySID[sid] = ms
		return
	}
	r.bySID[sid] = ms
	r.order = append(r.order, sid)
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("sid", string(sid)).Uint64("user", ms.Chatter().ID).Msg("member added")
}

// RemoveMember is a no-op for a session that is not a member.
func (r *roomImpl) RemoveMember(sid SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return
	}
	delete(r.bySID, sid)
	for i, s := range r.order {
		if s == sid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Str("sid", string(sid)).Msg("member removed")
}

func (r *roomImpl) Participants() []ParticipantDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ParticipantDTO, 0, len(r.order))
	for _, sid := range r.order {
		c := r.bySID[sid].Chatter()
		out = append(out, ParticipantDTO{ID: c.ID, Name: c.Name})
	}
	return out
}

// Broadcast fans one message out to every current member, sender
// included; the sender treats its own echo as the delivery ack.
// Delivery is at most once per member and never blocks on a slow peer.
func (r *roomImpl) Broadcast(sender *domain.Chatter, text string, internalID RawToken) PublishResult {
	frame, err := EncodeFrame(TypeMessage, BroadcastBody{
		User:       ParticipantDTO{ID: sender.ID, Name: sender.Name},
		Text:       text,
		InternalID: internalID,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "core.room").Msg("encode broadcast")
		return PublishResult{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, ms := range r.bySID {
		if err := ms.Conn().TrySend(frame); err != nil {
			res.Dropped++
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Uint64("from", sender.ID).Int("sent_to", res.SentTo).Int("dropped", res.Dropped).Msg("broadcast result")
	return res
}
