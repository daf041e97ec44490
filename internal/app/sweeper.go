package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically probes every open connection to prune out peers
// whose connection was lost. A connection that has not answered since
// the previous tick is judged dead and force-dropped, so the worst-case
// detection latency is two sweep intervals.
type Sweeper struct {
	broker *Broker
	period time.Duration
}

func NewSweeper(broker *Broker, period time.Duration) *Sweeper {
	return &Sweeper{broker: broker, period: period}
}

// Run blocks until ctx is done. Start it in its own goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweeper").Dur("period", s.period).Msg("liveness sweep started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("liveness sweep stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	for _, snap := range s.broker.Sessions() {
		if !snap.Conn.Alive() {
			log.Warn().Str("module", "app.sweeper").Str("sid", string(snap.SID)).Msg("peer unresponsive, dropping")
			s.broker.Drop(snap.SID)
			continue
		}
		snap.Conn.SetAlive(false)
		if err := snap.Conn.Ping(); err != nil {
			log.Warn().Err(err).Str("module", "app.sweeper").Str("sid", string(snap.SID)).Msg("ping failed")
		}
	}
}
