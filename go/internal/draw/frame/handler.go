package frame

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/draw/session"
	"github.com/mcdev12/luckydraw/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PathPrefix is where the frame routes are mounted
const PathPrefix = "/frames"

// MaxRequestBytes caps a POST body
const MaxRequestBytes = 1 << 20

// DrawApp defines what the frame handler needs from the session layer
type DrawApp interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	Apply(ctx context.Context, id uuid.UUID, ev models.DrawEvent) (*session.ApplyResult, error)
	ApplyStateless(state models.DrawState, ev models.DrawEvent) (engine.Result, error)
}

// Request is a button press. With a SessionID the stored session is used;
// otherwise State travels with the request and comes back in the response.
type Request struct {
	SessionID   string            `json:"sessionId,omitempty"`
	ButtonValue string            `json:"buttonValue,omitempty"`
	InputText   string            `json:"inputText,omitempty"`
	State       *models.DrawState `json:"state,omitempty"`
}

// Response carries the rendered screen and the state behind it
type Response struct {
	SessionID string           `json:"sessionId,omitempty"`
	Frame     Frame            `json:"frame"`
	State     models.DrawState `json:"state"`
	Selected  *string          `json:"selected,omitempty"`
}

// Handler serves the frame routes over HTTP
type Handler struct {
	app DrawApp
}

func NewHandler(app DrawApp) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts GET and POST handlers under PathPrefix
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET "+PathPrefix+"/", h.handleGet)
	mux.HandleFunc("POST "+PathPrefix+"/", h.handlePost)
}

func routeFromPath(path string) (Route, error) {
	return ParseRoute(strings.TrimPrefix(path, PathPrefix))
}

// handleGet renders a screen without running any transition
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	route, err := routeFromPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	resp := Response{State: models.DrawState{Names: []string{}, Winners: []string{}}}
	if raw := r.URL.Query().Get("session_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid session_id format"))
			return
		}
		s, err := h.app.GetSession(r.Context(), id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		resp.SessionID = s.ID.String()
		resp.State = s.State
	}

	resp.Frame = Render(route, resp.State)
	writeJSON(w, http.StatusOK, resp)
}

// handlePost applies the transition implied by the route and button, then
// renders the route
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	route, err := routeFromPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
			return
		}
		writeError(w, http.StatusBadRequest, errors.New("request body must be JSON"))
		return
	}

	action, ok := ActionFor(route, req.ButtonValue)
	if !ok {
		action = models.ActionHome
	}
	ev := models.DrawEvent{Action: action, InputText: req.InputText}

	var resp Response
	if req.SessionID != "" {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("invalid sessionId format"))
			return
		}
		res, err := h.app.Apply(r.Context(), id, ev)
		if err != nil {
			writeAppError(w, err)
			return
		}
		resp = Response{SessionID: res.Session.ID.String(), State: res.Session.State, Selected: res.Selected}
	} else {
		var state models.DrawState
		if req.State != nil {
			state = *req.State
		}
		res, err := h.app.ApplyStateless(state, ev)
		if err != nil {
			writeAppError(w, err)
			return
		}
		resp = Response{State: res.State, Selected: res.Selected}
	}

	resp.Frame = Render(route, resp.State)
	writeJSON(w, http.StatusOK, resp)
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, session.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err)
	default:
		log.Error().Err(err).Msg("frame request failed")
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write frame response")
	}
}
