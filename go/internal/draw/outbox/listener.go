package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL   string // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string
	PingInterval  time.Duration
}

// Listener wakes a Worker whenever Postgres announces a new outbox row, so
// events go out without waiting for the next poll.
type Listener struct {
	listener *pq.Listener
	worker   *Worker
	cfg      ListenerConfig
}

func NewListener(worker *Worker, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for outbox notifications")

	return &Listener{listener: l, worker: worker, cfg: cfg}, nil
}

// Run forwards notifications to the worker until ctx is cancelled
func (l *Listener) Run(ctx context.Context) error {
	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox listener shutting down")
			return l.listener.Close()
		case note := <-l.listener.Notify:
			// nil means the connection was re-established; rows may have been missed
			if note != nil {
				log.Debug().Str("event_id", note.Extra).Msg("outbox notification")
			}
			l.worker.Kick()
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}
