package events

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

// EventType represents the type of draw event
type EventType string

const (
	EventTypeNamesAdded     EventType = "NamesAdded"
	EventTypePoolReset      EventType = "PoolReset"
	EventTypeSpinStarted    EventType = "SpinStarted"
	EventTypeWinnerRevealed EventType = "WinnerRevealed"
	EventTypeWinnerRemoved  EventType = "WinnerRemoved"
)

// Envelope is the wire format for a draw event on the bus and on websockets.
type Envelope struct {
	ID        uuid.UUID         `json:"eventId"`
	Type      EventType         `json:"eventType"`
	SessionID uuid.UUID         `json:"sessionId"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload"`
	State     *models.DrawState `json:"state,omitempty"`
}

// ForTransition builds the event describing a transition from before to
// after. It returns nil when the action produced nothing worth announcing.
func ForTransition(sessionID uuid.UUID, ev models.DrawEvent, before, after models.DrawState, selected *string, at time.Time) (*Envelope, error) {
	var (
		eventType EventType
		payload   any
	)

	switch ev.Action {
	case models.ActionAdd:
		added := make([]string, 0, len(after.Names))
		for _, n := range after.Names {
			if !slices.Contains(before.Names, n) {
				added = append(added, n)
			}
		}
		if len(added) == 0 {
			return nil, nil
		}
		eventType = EventTypeNamesAdded
		payload = NamesAddedPayload{Added: added, PoolSize: len(after.Names), InputText: ev.InputText}

	case models.ActionReset:
		eventType = EventTypePoolReset
		payload = PoolResetPayload{ClearedNames: len(before.Names), ClearedWinners: len(before.Winners)}

	case models.ActionSpin:
		eventType = EventTypeSpinStarted
		payload = SpinStartedPayload{PoolSize: len(after.Names)}

	case models.ActionReveal:
		eventType = EventTypeWinnerRevealed
		payload = WinnerRevealedPayload{Winner: selected, PoolSize: len(after.Names)}

	case models.ActionRemove:
		if len(after.Winners) == len(before.Winners) {
			return nil, nil
		}
		eventType = EventTypeWinnerRemoved
		payload = WinnerRemovedPayload{
			Winner:      after.Winners[len(after.Winners)-1],
			Remaining:   len(after.Names),
			WinnerCount: len(after.Winners),
		}

	default:
		return nil, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	state := after.Clone()
	return &Envelope{
		ID:        uuid.New(),
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: at,
		Payload:   data,
		State:     &state,
	}, nil
}

// ParsePayload decodes the envelope payload into its typed struct.
func ParsePayload(env *Envelope) (any, error) {
	switch env.Type {
	case EventTypeNamesAdded:
		var p NamesAddedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil

	case EventTypePoolReset:
		var p PoolResetPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil

	case EventTypeSpinStarted:
		var p SpinStartedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil

	case EventTypeWinnerRevealed:
		var p WinnerRevealedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil

	case EventTypeWinnerRemoved:
		var p WinnerRemovedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", env.Type)
	}
}
