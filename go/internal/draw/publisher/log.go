package publisher

import (
	"context"

	"github.com/mcdev12/luckydraw/go/internal/draw/events"
	"github.com/rs/zerolog"
)

// LogPublisher writes events to a zerolog logger. Used when no bus is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish implements EventPublisher
func (p *LogPublisher) Publish(ctx context.Context, env *events.Envelope) error {
	p.logger.Info().
		Str("event_id", env.ID.String()).
		Str("event_type", string(env.Type)).
		Str("session_id", env.SessionID.String()).
		RawJSON("payload", env.Payload).
		Msg("draw event")
	return nil
}
