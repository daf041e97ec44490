package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kathy/internal/core"
	"kathy/internal/domain"
)

func bindConn(b *Broker, sid core.SessionID) *fakeConn {
	conn := newFakeConn()
	b.Bind(sid, core.NewMemberSession(domain.NewChatter(), conn), nil)
	return conn
}

func TestSweeper(t *testing.T) {
	t.Run("should probe live peers and clear their flag", func(t *testing.T) {
		req := require.New(t)
		broker := NewBroker()
		conn := bindConn(broker, "s1")
		s := NewSweeper(broker, time.Minute)

		s.sweep()

		req.False(conn.Alive())
		req.Equal(1, conn.pings)
		req.Len(broker.Sessions(), 1)
	})

	t.Run("should drop a peer that misses two consecutive probes", func(t *testing.T) {
		req := require.New(t)
		broker := NewBroker()
		dead := bindConn(broker, "dead")
		live := bindConn(broker, "live")
		_, ok := broker.Join("dead", "lobby")
		req.True(ok)
		s := NewSweeper(broker, time.Minute)

		// First sweep: both were alive, both get probed.
		s.sweep()
		// Only the live peer answers.
		live.SetAlive(true)
		// Second sweep reclaims the silent one.
		s.sweep()

		req.True(dead.Closed())
		req.False(live.Closed())
		req.Len(broker.Sessions(), 1)
		req.Equal(0, broker.Rooms.GetOrCreate("lobby").MemberCount())
	})

	t.Run("should keep a responsive peer through many sweeps", func(t *testing.T) {
		req := require.New(t)
		broker := NewBroker()
		conn := bindConn(broker, "s1")
		s := NewSweeper(broker, time.Minute)

		for i := 0; i < 5; i++ {
			s.sweep()
			conn.SetAlive(true)
		}

		req.False(conn.Closed())
		req.Equal(5, conn.pings)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		req := require.New(t)
		broker := NewBroker()
		s := NewSweeper(broker, time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			req.Fail("sweeper did not stop")
		}
	})
}
