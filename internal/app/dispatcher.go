package app

import (
	"github.com/rs/zerolog/log"

	"kathy/internal/core"
	"kathy/internal/domain"
)

// Dispatcher is the per-connection protocol state machine. It owns the
// chatter bound to one connection and executes decoded requests against
// the broker. A chatter only moves forward: anonymous, registered, then
// in-room; switching rooms stays in-room.
type Dispatcher struct {
	broker  *Broker
	sid     core.SessionID
	chatter *domain.Chatter
	conn    core.Connection
}

func NewDispatcher(broker *Broker, sid core.SessionID, chatter *domain.Chatter, conn core.Connection) *Dispatcher {
	return &Dispatcher{broker: broker, sid: sid, chatter: chatter, conn: conn}
}

// HandleFrame decodes one raw inbound frame and executes it. Malformed
// frames and unknown kinds are dropped without a protocol error:
// availability over strictness.
func (d *Dispatcher) HandleFrame(data []byte) {
	req, err := core.DecodeRequest(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Str("sid", string(d.sid)).Msg("frame ignored")
		return
	}
	switch r := req.(type) {
	case core.IntroduceRequest:
		d.handleIntroduce(r)
	case core.ReintroduceRequest:
		d.handleReintroduce(r)
	case core.JoinRoomRequest:
		d.handleJoin(r)
	case core.ChatRequest:
		d.handleChat(r)
	}
}

func (d *Dispatcher) handleIntroduce(r core.IntroduceRequest) {
	if err := d.chatter.SetName(r.Name); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Str("sid", string(d.sid)).Msg("introduce rejected")
		d.reply(core.TypeHello, core.HelloResponse{Success: false})
		return
	}
	d.chatter.ID = d.broker.NextUserID()
	log.Info().Str("module", "app.dispatcher").Str("sid", string(d.sid)).Uint64("user", d.chatter.ID).Str("name", d.chatter.Name).Msg("introduced")
	d.reply(core.TypeHello, core.HelloResponse{
		Success: true,
		User:    &core.ParticipantDTO{ID: d.chatter.ID, Name: d.chatter.Name},
	})
}

// handleReintroduce re-attaches a client to an identity it claims to
// have been issued before the connection dropped. The id is adopted
// as-is; the server keeps no session tokens to check it against.
func (d *Dispatcher) handleReintroduce(r core.ReintroduceRequest) {
	if r.ID == 0 {
		d.reply(core.TypeHello, core.HelloResponse{Success: false})
		return
	}
	if err := d.chatter.SetName(r.Name); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatcher").Str("sid", string(d.sid)).Msg("reintroduce rejected")
		d.reply(core.TypeHello, core.HelloResponse{Success: false})
		return
	}
	d.chatter.ID = r.ID
	log.Info().Str("module", "app.dispatcher").Str("sid", string(d.sid)).Uint64("user", d.chatter.ID).Str("name", d.chatter.Name).Msg("reintroduced")
	d.reply(core.TypeHello, core.HelloResponse{
		Success: true,
		User:    &core.ParticipantDTO{ID: d.chatter.ID, Name: d.chatter.Name},
	})
}

func (d *Dispatcher) handleJoin(r core.JoinRoomRequest) {
	if r.Room == "" {
		d.reply(core.TypeRoom, core.RoomStateResponse{Success: false})
		return
	}
	room, ok := d.broker.Join(d.sid, domain.RoomName(r.Room))
	if !ok {
		// Session already torn down; nobody left to answer.
		return
	}
	d.reply(core.TypeRoom, core.RoomStateResponse{
		Success: true,
		Room: &core.RoomState{
			Name:            room.Name(),
			Participants:    room.Participants(),
			ID:              room.ID(),
			MessageHistory:  []core.BroadcastBody{},
			PendingMessages: []core.BroadcastBody{},
		},
	})
}

// handleChat has no direct response; the sender's own broadcast echo,
// matched by internalId, is its acknowledgement.
func (d *Dispatcher) handleChat(r core.ChatRequest) {
	if r.Text == "" {
		return
	}
	room, ok := d.broker.RoomOf(d.sid)
	if !ok {
		return
	}
	room.Broadcast(d.chatter, r.Text, r.InternalID)
}

func (d *Dispatcher) reply(typ string, body any) {
	frame, err := core.EncodeFrame(typ, body)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Str("sid", string(d.sid)).Msg("encode reply")
		return
	}
	_ = d.conn.TrySend(frame)
}
