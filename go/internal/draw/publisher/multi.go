package publisher

import (
	"context"
	"errors"

	"github.com/mcdev12/luckydraw/go/internal/draw/events"
)

// MultiPublisher fans an event out to every publisher, in order. One failing
// publisher does not keep the others from receiving the event.
type MultiPublisher struct {
	publishers []EventPublisher
}

func NewMultiPublisher(publishers ...EventPublisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

// Add appends a publisher to the fan-out.
func (m *MultiPublisher) Add(p EventPublisher) {
	m.publishers = append(m.publishers, p)
}

// Publish implements EventPublisher
func (m *MultiPublisher) Publish(ctx context.Context, env *events.Envelope) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
