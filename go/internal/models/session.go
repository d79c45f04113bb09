package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session is a draw state owned by one caller-visible session.
type Session struct {
	ID        uuid.UUID       `json:"id"`
	Title     string          `json:"title"`
	State     DrawState       `json:"state"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.State = s.State.Clone()
	if s.Metadata != nil {
		out.Metadata = append(json.RawMessage(nil), s.Metadata...)
	}
	return out
}
