package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatter(t *testing.T) {
	t.Run("should start unregistered", func(t *testing.T) {
		req := require.New(t)
		c := NewChatter()

		req.Zero(c.ID)
		req.False(c.Registered())
	})

	t.Run("should reject an empty name", func(t *testing.T) {
		req := require.New(t)
		c := NewChatter()

		req.ErrorIs(c.SetName(""), ErrNameEmpty)
	})

	t.Run("should reject an oversized name", func(t *testing.T) {
		req := require.New(t)
		c := NewChatter()

		req.ErrorIs(c.SetName(strings.Repeat("x", MaxNameLen+1)), ErrNameTooLong)
	})

	t.Run("should register once both id and name are set", func(t *testing.T) {
		req := require.New(t)
		c := NewChatter()

		req.NoError(c.SetName("Ann"))
		c.ID = 1

		req.True(c.Registered())
	})
}
