package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// DrawServiceName is the fully-qualified name of the draw service
	DrawServiceName = "luckydraw.v1.DrawService"

	CreateSessionProcedure = "/" + DrawServiceName + "/CreateSession"
	GetSessionProcedure    = "/" + DrawServiceName + "/GetSession"
	ListSessionsProcedure  = "/" + DrawServiceName + "/ListSessions"
	DeleteSessionProcedure = "/" + DrawServiceName + "/DeleteSession"
	ApplyProcedure         = "/" + DrawServiceName + "/Apply"
	ApplyStateProcedure    = "/" + DrawServiceName + "/ApplyState"
)

// DrawApp defines what the service layer needs from the session application
type DrawApp interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	ListSessions(ctx context.Context) ([]*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	Apply(ctx context.Context, id uuid.UUID, ev models.DrawEvent) (*ApplyResult, error)
	ApplyStateless(state models.DrawState, ev models.DrawEvent) (engine.Result, error)
}

type SessionRequest struct {
	SessionID string `json:"session_id"`
}

type SessionResponse struct {
	Session *models.Session `json:"session"`
}

type ListSessionsRequest struct{}

type ListSessionsResponse struct {
	Sessions []*models.Session `json:"sessions"`
}

type DeleteSessionResponse struct{}

type ApplyRequest struct {
	SessionID string        `json:"session_id"`
	Action    models.Action `json:"action"`
	InputText string        `json:"input_text,omitempty"`
}

type ApplyResponse struct {
	Session  *models.Session `json:"session"`
	Selected *string         `json:"selected,omitempty"`
	Changed  bool            `json:"changed"`
}

type ApplyStateRequest struct {
	State     models.DrawState `json:"state"`
	Action    models.Action    `json:"action"`
	InputText string           `json:"input_text,omitempty"`
}

type ApplyStateResponse struct {
	State    models.DrawState `json:"state"`
	Selected *string          `json:"selected,omitempty"`
	Changed  bool             `json:"changed"`
}

// Service implements the DrawService Connect handlers
type Service struct {
	app DrawApp
}

// NewService creates a new draw Connect service
func NewService(app DrawApp) *Service {
	return &Service{app: app}
}

// Handler returns the path prefix and handler serving every DrawService procedure
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreateSessionProcedure, connect.NewUnaryHandler(CreateSessionProcedure, s.CreateSession, opts...))
	mux.Handle(GetSessionProcedure, connect.NewUnaryHandler(GetSessionProcedure, s.GetSession, opts...))
	mux.Handle(ListSessionsProcedure, connect.NewUnaryHandler(ListSessionsProcedure, s.ListSessions, opts...))
	mux.Handle(DeleteSessionProcedure, connect.NewUnaryHandler(DeleteSessionProcedure, s.DeleteSession, opts...))
	mux.Handle(ApplyProcedure, connect.NewUnaryHandler(ApplyProcedure, s.Apply, opts...))
	mux.Handle(ApplyStateProcedure, connect.NewUnaryHandler(ApplyStateProcedure, s.ApplyState, opts...))
	return "/" + DrawServiceName + "/", mux
}

// CreateSession starts a new draw session
func (s *Service) CreateSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[SessionResponse], error) {
	session, err := s.app.CreateSession(ctx, *req.Msg)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// GetSession returns a session with its current state
func (s *Service) GetSession(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[SessionResponse], error) {
	id, err := parseSessionID(req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError(err)
	}

	session, err := s.app.GetSession(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SessionResponse{Session: session}), nil
}

// ListSessions returns every live session
func (s *Service) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	sessions, err := s.app.ListSessions(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	return connect.NewResponse(&ListSessionsResponse{Sessions: sessions}), nil
}

// DeleteSession ends a session
func (s *Service) DeleteSession(ctx context.Context, req *connect.Request[SessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	id, err := parseSessionID(req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.app.DeleteSession(ctx, id); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteSessionResponse{}), nil
}

// Apply runs one action against a stored session
func (s *Service) Apply(ctx context.Context, req *connect.Request[ApplyRequest]) (*connect.Response[ApplyResponse], error) {
	id, err := parseSessionID(req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError(err)
	}

	res, err := s.app.Apply(ctx, id, models.DrawEvent{Action: req.Msg.Action, InputText: req.Msg.InputText})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ApplyResponse{
		Session:  res.Session,
		Selected: res.Selected,
		Changed:  res.Changed,
	}), nil
}

// ApplyState runs one action against a state the caller sends along
func (s *Service) ApplyState(ctx context.Context, req *connect.Request[ApplyStateRequest]) (*connect.Response[ApplyStateResponse], error) {
	res, err := s.app.ApplyStateless(req.Msg.State, models.DrawEvent{Action: req.Msg.Action, InputText: req.Msg.InputText})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ApplyStateResponse{
		State:    res.State,
		Selected: res.Selected,
		Changed:  res.Changed,
	}), nil
}

func parseSessionID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: session_id is required", ErrInvalidRequest)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid session_id format", ErrInvalidRequest)
	}
	return id, nil
}

func toConnectError(err error) error {
	switch {
	case errors.Is(err, models.ErrSessionNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, models.ErrInvalidState), errors.Is(err, ErrInvalidRequest):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		log.Error().Err(err).Msg("draw service request failed")
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
