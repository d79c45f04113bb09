package session

import (
	"encoding/json"

	"github.com/mcdev12/luckydraw/go/internal/models"
)

// DefaultTitle is used when a session is created without one
const DefaultTitle = "Lucky Draw"

// CreateSessionRequest represents a request to start a new draw session
type CreateSessionRequest struct {
	Title string `json:"title"`
	// Names is free text in the same format the add action accepts.
	Names    string          `json:"names,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ApplyResult is the outcome of one action on a session
type ApplyResult struct {
	Session  *models.Session `json:"session"`
	Selected *string         `json:"selected,omitempty"`
	Changed  bool            `json:"changed"`
}
