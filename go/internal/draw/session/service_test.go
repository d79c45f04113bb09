package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/draw/repository"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	app := NewApp(
		repository.NewMemoryRepository(),
		engine.New(engine.WithPicker(engine.PickerFunc(func(int) int { return 0 }))),
		Config{},
	)
	mux := http.NewServeMux()
	mux.Handle(NewService(app).Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func client[Req, Res any](srv *httptest.Server, procedure string) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](srv.Client(), srv.URL+procedure, connect.WithCodec(jsonCodec{}))
}

func TestServiceDrawRound(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	created, err := client[CreateSessionRequest, SessionResponse](srv, CreateSessionProcedure).
		CallUnary(ctx, connect.NewRequest(&CreateSessionRequest{Title: "Office", Names: "Alice, Bob"}))
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	id := created.Msg.Session.ID.String()

	apply := client[ApplyRequest, ApplyResponse](srv, ApplyProcedure)
	for _, action := range []models.Action{models.ActionSpin, models.ActionReveal, models.ActionRemove} {
		res, err := apply.CallUnary(ctx, connect.NewRequest(&ApplyRequest{SessionID: id, Action: action}))
		if err != nil {
			t.Fatalf("Apply(%s): %v", action, err)
		}
		if action == models.ActionReveal && (res.Msg.Selected == nil || *res.Msg.Selected != "Alice") {
			t.Fatalf("reveal selected = %v, want Alice", res.Msg.Selected)
		}
	}

	got, err := client[SessionRequest, SessionResponse](srv, GetSessionProcedure).
		CallUnary(ctx, connect.NewRequest(&SessionRequest{SessionID: id}))
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	state := got.Msg.Session.State
	if len(state.Names) != 1 || state.Names[0] != "Bob" {
		t.Errorf("names = %v, want [Bob]", state.Names)
	}
	if len(state.Winners) != 1 || state.Winners[0] != "Alice" {
		t.Errorf("winners = %v, want [Alice]", state.Winners)
	}

	list, err := client[ListSessionsRequest, ListSessionsResponse](srv, ListSessionsProcedure).
		CallUnary(ctx, connect.NewRequest(&ListSessionsRequest{}))
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list.Msg.Sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(list.Msg.Sessions))
	}

	if _, err := client[SessionRequest, DeleteSessionResponse](srv, DeleteSessionProcedure).
		CallUnary(ctx, connect.NewRequest(&SessionRequest{SessionID: id})); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
}

func TestServiceErrorCodes(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	apply := client[ApplyRequest, ApplyResponse](srv, ApplyProcedure)

	tests := []struct {
		name string
		req  *ApplyRequest
		code connect.Code
	}{
		{"missing id", &ApplyRequest{Action: models.ActionSpin}, connect.CodeInvalidArgument},
		{"malformed id", &ApplyRequest{SessionID: "abc", Action: models.ActionSpin}, connect.CodeInvalidArgument},
		{"unknown session", &ApplyRequest{SessionID: uuid.NewString(), Action: models.ActionSpin}, connect.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := apply.CallUnary(ctx, connect.NewRequest(tt.req))
			if got := connect.CodeOf(err); got != tt.code {
				t.Fatalf("code = %v, want %v (err %v)", got, tt.code, err)
			}
		})
	}

	_, err := client[ApplyStateRequest, ApplyStateResponse](srv, ApplyStateProcedure).
		CallUnary(ctx, connect.NewRequest(&ApplyStateRequest{
			State:  models.DrawState{Names: []string{"Alice", "Alice"}},
			Action: models.ActionSpin,
		}))
	if got := connect.CodeOf(err); got != connect.CodeInvalidArgument {
		t.Fatalf("ApplyState on invalid state: code = %v, want invalid_argument", got)
	}
}

func TestServicePlainJSONPost(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(ApplyStateRequest{
		State:     models.DrawState{Names: []string{"Alice"}},
		Action:    models.ActionAdd,
		InputText: "Bob, Carol",
	})
	resp, err := http.Post(srv.URL+ApplyStateProcedure, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out ApplyStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Changed || len(out.State.Names) != 3 {
		t.Errorf("response = %+v, want three names", out)
	}
}

func TestClientMapsErrors(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.Client(), srv.URL+"/")

	_, err := c.GetSession(context.Background(), uuid.New())
	if !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestClientSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t)
	c := NewClient(srv.Client(), srv.URL)

	s, err := c.CreateSession(ctx, CreateSessionRequest{Title: "Office raffle", Names: "Alice, Bob"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Title != "Office raffle" || len(s.State.Names) != 2 {
		t.Fatalf("created = %+v", s)
	}

	if _, err := c.CreateSession(ctx, CreateSessionRequest{Metadata: json.RawMessage(`{`)}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("bad metadata err = %v, want ErrInvalidRequest", err)
	}

	sessions, err := c.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != s.ID {
		t.Fatalf("sessions = %+v", sessions)
	}

	res, err := c.Apply(ctx, s.ID, models.DrawEvent{Action: models.ActionReveal})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Selected == nil || *res.Selected != "Alice" {
		t.Fatalf("selected = %v, want Alice", res.Selected)
	}
}
