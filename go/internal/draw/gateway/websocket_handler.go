package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/draw/events"
	"github.com/mcdev12/luckydraw/go/internal/models"
	"github.com/rs/zerolog/log"
)

// EventTypeSessionSnapshot is sent once when a client connects, carrying the
// current state so the client does not start blank.
const EventTypeSessionSnapshot events.EventType = "SessionSnapshot"

// StateProvider loads the current session for the connect-time snapshot
type StateProvider interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

// WebSocketHandler handles WebSocket upgrade requests for session watchers
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	stateProvider     StateProvider
}

// NewWebSocketHandler creates a new WebSocket handler. stateProvider may be
// nil, in which case no snapshot is sent and unknown sessions are accepted.
func NewWebSocketHandler(cm *ConnectionManager, stateProvider StateProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		stateProvider:     stateProvider,
	}
}

// HandleSessionConnection handles WebSocket connections for one session
func (h *WebSocketHandler) HandleSessionConnection(w http.ResponseWriter, r *http.Request) {
	sessionIDStr := r.URL.Query().Get("session_id")
	if sessionIDStr == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		http.Error(w, "invalid session_id format", http.StatusBadRequest)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = "anonymous"
	}

	var snapshot *events.Envelope
	if h.stateProvider != nil {
		s, err := h.stateProvider.GetSession(r.Context(), sessionID)
		if errors.Is(err, models.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to load session snapshot")
			http.Error(w, "failed to load session", http.StatusInternalServerError)
			return
		}
		snapshot = snapshotEnvelope(s)
	}

	// on failure the upgrader has already written the HTTP error
	if err := h.connectionManager.UpgradeConnection(w, r, clientID, sessionID, snapshot); err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Str("client_id", clientID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/draw", h.HandleSessionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}

func snapshotEnvelope(s *models.Session) *events.Envelope {
	state := s.State.Clone()
	return &events.Envelope{
		ID:        uuid.New(),
		Type:      EventTypeSessionSnapshot,
		SessionID: s.ID,
		Timestamp: time.Now().UTC(),
		Payload:   json.RawMessage(`{}`),
		State:     &state,
	}
}
