package core

import (
	"encoding/json"
	"errors"

	"kathy/internal/domain"
)

// Wire message kinds. The _OPEN_/_CLOSE_/_ERROR_ hook names used by the
// browser client are local lifecycle notifications and never appear on
// the wire.
const (
	TypeIntroduce   = "introduce"
	TypeReintroduce = "reintroduce"
	TypeRoom        = "room"
	TypeMessage     = "message"
	TypeHello       = "hello"
)

var ErrUnknownType = errors.New("unknown message type")

// RawToken is an opaque JSON value chosen by the client and relayed
// verbatim, e.g. the internalId a sender uses to match its own echo.
type RawToken = json.RawMessage

// Envelope is the single frame shape: {"type": ..., "body": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Request is the closed set of inbound client requests. A frame is
// decoded exactly once at the boundary; the dispatcher type-switches
// over these variants.
type Request interface {
	isRequest()
}

type IntroduceRequest struct {
	Name string
}

type ReintroduceRequest struct {
	Name string
	ID   uint64
}

type JoinRoomRequest struct {
	Room string
}

type ChatRequest struct {
	Text       string
	InternalID RawToken
}

func (IntroduceRequest) isRequest()   {}
func (ReintroduceRequest) isRequest() {}
func (JoinRoomRequest) isRequest()    {}
func (ChatRequest) isRequest()        {}

type userBody struct {
	User struct {
		Name string `json:"name"`
		ID   uint64 `json:"id"`
	} `json:"user"`
}

type roomBody struct {
	Room string `json:"room"`
}

type messageBody struct {
	Text       string   `json:"text"`
	InternalID RawToken `json:"internalId"`
}

// decodeBody tolerates an absent body; validation of the zero values is
// the dispatcher's job, not the decoder's.
func decodeBody(body json.RawMessage, v any) error {
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

// DecodeRequest parses one raw frame into its typed request.
func DecodeRequest(data []byte) (Request, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case TypeIntroduce:
		var b userBody
		if err := decodeBody(env.Body, &b); err != nil {
			return nil, err
		}
		return IntroduceRequest{Name: b.User.Name}, nil
	case TypeReintroduce:
		var b userBody
		if err := decodeBody(env.Body, &b); err != nil {
			return nil, err
		}
		return ReintroduceRequest{Name: b.User.Name, ID: b.User.ID}, nil
	case TypeRoom:
		var b roomBody
		if err := decodeBody(env.Body, &b); err != nil {
			return nil, err
		}
		return JoinRoomRequest{Room: b.Room}, nil
	case TypeMessage:
		var b messageBody
		if err := decodeBody(env.Body, &b); err != nil {
			return nil, err
		}
		return ChatRequest{Text: b.Text, InternalID: b.InternalID}, nil
	default:
		return nil, ErrUnknownType
	}
}

// HelloResponse answers introduce and reintroduce.
type HelloResponse struct {
	Success bool            `json:"success"`
	User    *ParticipantDTO `json:"user,omitempty"`
}

// RoomStateResponse answers a join attempt.
type RoomStateResponse struct {
	Success bool       `json:"success"`
	Room    *RoomState `json:"room,omitempty"`
}

// RoomState mirrors the room payload the browser client expects.
// MessageHistory and PendingMessages are reserved for a future message
// store and are always present, always empty.
type RoomState struct {
	Name            domain.RoomName  `json:"name"`
	Participants    []ParticipantDTO `json:"participants"`
	ID              uint64           `json:"id"`
	MessageHistory  []BroadcastBody  `json:"messageHistory"`
	PendingMessages []BroadcastBody  `json:"pendingMessages"`
}

// BroadcastBody is the body of a "message" frame fanned out to a room.
type BroadcastBody struct {
	User       ParticipantDTO `json:"user"`
	Text       string         `json:"text"`
	InternalID RawToken       `json:"internalId,omitempty"`
}

// EncodeFrame wraps a body in the envelope and encodes the whole frame.
func EncodeFrame(typ string, body any) (Frame, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Body: raw})
}
