package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"kathy/internal/domain"
)

// RoomDirectory maps room names to live rooms. A room is created lazily
// the first time its name is requested and is never evicted: an empty
// room keeps its name and id so rejoining it stays cheap.
type RoomDirectory struct {
	mu     sync.RWMutex
	rooms  map[domain.RoomName]RoomService
	nextID func() uint64
}

// NewRoomDirectory takes the room id source so the owning broker keeps
// all counters in one place.
func NewRoomDirectory(nextID func() uint64) *RoomDirectory {
	return &RoomDirectory{
		rooms:  make(map[domain.RoomName]RoomService),
		nextID: nextID,
	}
}

// GetOrCreate returns the room registered under name, creating it on
// first use. Concurrent callers always observe the same instance.
func (d *RoomDirectory) GetOrCreate(name domain.RoomName) RoomService {
	d.mu.RLock()
	room, ok := d.rooms[name]
	d.mu.RUnlock()
	if ok {
		return room
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok = d.rooms[name]; ok {
		return room
	}
	room = NewRoomService(name, d.nextID())
	d.rooms[name] = room
	log.Info().Str("module", "core.directory").Str("room", string(name)).Uint64("id", room.ID()).Msg("room created")
	return room
}

func (d *RoomDirectory) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for name, r := range d.rooms {
		out = append(out, RoomInfo{Name: name, MemberCount: r.MemberCount()})
	}
	return out
}
