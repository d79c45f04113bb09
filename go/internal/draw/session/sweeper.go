package session

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Sweeper periodically expires idle sessions
type Sweeper struct {
	app      *App
	clock    clockwork.Clock
	interval time.Duration
}

func NewSweeper(app *App, clock clockwork.Clock, interval time.Duration) *Sweeper {
	return &Sweeper{
		app:      app,
		clock:    clock,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled, sweeping every interval
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("session sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session sweeper shutting down")
			return
		case <-ticker.Chan():
			if _, err := s.app.ExpireIdle(ctx); err != nil {
				log.Error().Err(err).Msg("session sweep failed")
			}
		}
	}
}
