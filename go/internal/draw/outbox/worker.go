// Package outbox relays draw events recorded alongside state changes to the
// event bus. Events leave the outbox only after the bus accepted them.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/luckydraw/go/internal/draw/events"
	"github.com/rs/zerolog/log"
)

// Source is the outbox table
type Source interface {
	RelayOutbox(ctx context.Context, limit int, fn func(*events.Envelope) error) (int, error)
	PurgeSentOutbox(ctx context.Context, cutoff time.Time) (int64, error)
}

// Publisher receives relayed events
type Publisher interface {
	Publish(ctx context.Context, env *events.Envelope) error
}

type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
	RetryDelay   time.Duration
	// Retention is how long relayed events are kept. Zero keeps them.
	Retention time.Duration
}

func DefaultConfig() Config {
	return Config{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
		Retention:    24 * time.Hour,
	}
}

// Worker polls the outbox and publishes what it finds. Kick wakes it early.
type Worker struct {
	source    Source
	publisher Publisher
	clock     clockwork.Clock
	config    Config
	kick      chan struct{}
}

func NewWorker(source Source, publisher Publisher, clock clockwork.Clock, cfg Config) *Worker {
	return &Worker{
		source:    source,
		publisher: publisher,
		clock:     clock,
		config:    cfg,
		kick:      make(chan struct{}, 1),
	}
}

// Kick asks for a pass as soon as possible. Kicks during a pass coalesce.
func (w *Worker) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run relays until ctx is cancelled
func (w *Worker) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int("batch_size", w.config.BatchSize).
		Msg("outbox worker started")

	// drain anything left from before a restart
	w.pass(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("outbox worker stopped")
			return
		case <-ticker.Chan():
			w.pass(ctx)
			w.purge(ctx)
		case <-w.kick:
			w.pass(ctx)
		}
	}
}

func (w *Worker) pass(ctx context.Context) {
	for {
		n, err := w.Flush(ctx)
		if err != nil {
			log.Error().Err(err).Msg("outbox relay failed")
			return
		}
		// a short batch means the outbox is drained
		if n < w.config.BatchSize {
			return
		}
	}
}

// Flush relays one batch and returns how many events were sent
func (w *Worker) Flush(ctx context.Context) (int, error) {
	sent, err := w.source.RelayOutbox(ctx, w.config.BatchSize, func(env *events.Envelope) error {
		if err := w.publishWithRetry(ctx, env); err != nil {
			log.Error().
				Err(err).
				Str("event_id", env.ID.String()).
				Str("event_type", string(env.Type)).
				Msg("failed to relay outbox event")
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if sent > 0 {
		log.Debug().Int("sent", sent).Msg("relayed outbox events")
	}
	return sent, nil
}

func (w *Worker) purge(ctx context.Context) {
	if w.config.Retention <= 0 {
		return
	}
	n, err := w.source.PurgeSentOutbox(ctx, w.clock.Now().Add(-w.config.Retention))
	if err != nil {
		log.Error().Err(err).Msg("failed to purge outbox")
		return
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("purged relayed outbox events")
	}
}

func (w *Worker) publishWithRetry(ctx context.Context, env *events.Envelope) error {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.clock.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := w.publisher.Publish(ctx, env); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", env.ID.String()).
				Msg("failed to publish outbox event, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}
