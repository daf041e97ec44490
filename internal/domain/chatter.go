// Package domain contains entities without logic, just meta-data
package domain

import "errors"

const MaxNameLen = 36

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
)

// RoomName is the unique key of a room in the directory.
type RoomName string

// Chatter is one registered chat identity. ID stays zero until the
// server issues one via introduce, or the client re-asserts a previous
// one via reintroduce.
type Chatter struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// NewChatter is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewChatter() *Chatter {
	return &Chatter{}
}

// Registered reports whether an identity was established on this chatter.
func (c *Chatter) Registered() bool {
	return c.ID != 0 && c.Name != ""
}

func (c *Chatter) SetName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrNameTooLong
	}
	c.Name = name
	return nil
}
