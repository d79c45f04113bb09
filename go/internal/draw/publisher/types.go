package publisher

import (
	"context"

	"github.com/mcdev12/luckydraw/go/internal/draw/events"
)

// EventPublisher delivers draw events to whoever listens.
type EventPublisher interface {
	Publish(ctx context.Context, env *events.Envelope) error
}
