package session

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

// Client calls a remote DrawService over Connect with the JSON codec
type Client struct {
	createSession *connect.Client[CreateSessionRequest, SessionResponse]
	getSession    *connect.Client[SessionRequest, SessionResponse]
	listSessions  *connect.Client[ListSessionsRequest, ListSessionsResponse]
	apply         *connect.Client[ApplyRequest, ApplyResponse]
}

// NewClient creates a client for the DrawService served at baseURL
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		createSession: connect.NewClient[CreateSessionRequest, SessionResponse](httpClient, baseURL+CreateSessionProcedure, opts...),
		getSession:    connect.NewClient[SessionRequest, SessionResponse](httpClient, baseURL+GetSessionProcedure, opts...),
		listSessions:  connect.NewClient[ListSessionsRequest, ListSessionsResponse](httpClient, baseURL+ListSessionsProcedure, opts...),
		apply:         connect.NewClient[ApplyRequest, ApplyResponse](httpClient, baseURL+ApplyProcedure, opts...),
	}
}

// CreateSession starts a session on the server
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	resp, err := c.createSession.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return resp.Msg.Session, nil
}

// ListSessions returns every live session on the server
func (c *Client) ListSessions(ctx context.Context) ([]*models.Session, error) {
	resp, err := c.listSessions.CallUnary(ctx, connect.NewRequest(&ListSessionsRequest{}))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return resp.Msg.Sessions, nil
}

// GetSession fetches a session. A missing session comes back as
// models.ErrSessionNotFound.
func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	resp, err := c.getSession.CallUnary(ctx, connect.NewRequest(&SessionRequest{SessionID: id.String()}))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return resp.Msg.Session, nil
}

// Apply runs one action on a remote session
func (c *Client) Apply(ctx context.Context, id uuid.UUID, ev models.DrawEvent) (*ApplyResult, error) {
	resp, err := c.apply.CallUnary(ctx, connect.NewRequest(&ApplyRequest{
		SessionID: id.String(),
		Action:    ev.Action,
		InputText: ev.InputText,
	}))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return &ApplyResult{Session: resp.Msg.Session, Selected: resp.Msg.Selected, Changed: resp.Msg.Changed}, nil
}

func fromConnectError(err error) error {
	switch connect.CodeOf(err) {
	case connect.CodeNotFound:
		return fmt.Errorf("%w: %v", models.ErrSessionNotFound, err)
	case connect.CodeInvalidArgument:
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return err
}
