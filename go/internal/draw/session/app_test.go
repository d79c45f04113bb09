package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/draw/events"
	"github.com/mcdev12/luckydraw/go/internal/draw/repository"
	"github.com/mcdev12/luckydraw/go/internal/draw/session"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Envelope
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, env *events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, env)
	return p.err
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.EventType, 0, len(p.events))
	for _, env := range p.events {
		out = append(out, env.Type)
	}
	return out
}

type fixture struct {
	app   *session.App
	clock *clockwork.FakeClock
	pub   *recordingPublisher
}

func newFixture(t *testing.T, ttl time.Duration, picker engine.Picker) fixture {
	t.Helper()
	fc := clockwork.NewFakeClockAt(epoch)
	pub := &recordingPublisher{}
	var opts []engine.Option
	if picker != nil {
		opts = append(opts, engine.WithPicker(picker))
	}
	app := session.NewApp(
		repository.NewMemoryRepository(),
		engine.New(opts...),
		session.Config{TTL: ttl},
		session.WithClock(fc),
		session.WithPublisher(pub),
	)
	return fixture{app: app, clock: fc, pub: pub}
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t, 0, nil)
	ctx := context.Background()

	s, err := f.app.CreateSession(ctx, session.CreateSessionRequest{Names: "Alice, Bob\nAlice"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Title != session.DefaultTitle {
		t.Errorf("title = %q, want %q", s.Title, session.DefaultTitle)
	}
	if got := s.State.Names; len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Errorf("names = %v, want [Alice Bob]", got)
	}
	if !s.CreatedAt.Equal(epoch) || !s.UpdatedAt.Equal(epoch) {
		t.Errorf("timestamps = %v/%v, want %v", s.CreatedAt, s.UpdatedAt, epoch)
	}

	got, err := f.app.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !got.State.Equal(s.State) {
		t.Errorf("stored state = %+v, want %+v", got.State, s.State)
	}
}

func TestCreateSessionRejectsBadMetadata(t *testing.T) {
	f := newFixture(t, 0, nil)

	_, err := f.app.CreateSession(context.Background(), session.CreateSessionRequest{Metadata: []byte("{not json")})
	if !errors.Is(err, session.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestApplyPersistsAndPublishes(t *testing.T) {
	f := newFixture(t, 0, engine.PickerFunc(func(n int) int { return n - 1 }))
	ctx := context.Background()

	s, err := f.app.CreateSession(ctx, session.CreateSessionRequest{Title: "  Friday   raffle "})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Title != "Friday raffle" {
		t.Errorf("title = %q, want normalized", s.Title)
	}

	steps := []models.DrawEvent{
		{Action: models.ActionAdd, InputText: "Alice, Bob, Carol"},
		{Action: models.ActionSpin},
		{Action: models.ActionReveal},
		{Action: models.ActionRemove},
	}
	var last *session.ApplyResult
	for _, ev := range steps {
		f.clock.Advance(time.Second)
		last, err = f.app.Apply(ctx, s.ID, ev)
		if err != nil {
			t.Fatalf("Apply(%s): %v", ev.Action, err)
		}
		if !last.Changed {
			t.Fatalf("Apply(%s) reported no change", ev.Action)
		}
	}

	stored, err := f.app.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got := stored.State.Names; len(got) != 2 || got[0] != "Alice" || got[1] != "Bob" {
		t.Errorf("names = %v, want [Alice Bob]", got)
	}
	if got := stored.State.Winners; len(got) != 1 || got[0] != "Carol" {
		t.Errorf("winners = %v, want [Carol]", got)
	}
	if want := epoch.Add(4 * time.Second); !stored.UpdatedAt.Equal(want) {
		t.Errorf("updated_at = %v, want %v", stored.UpdatedAt, want)
	}

	want := []events.EventType{
		events.EventTypeNamesAdded,
		events.EventTypeSpinStarted,
		events.EventTypeWinnerRevealed,
		events.EventTypeWinnerRemoved,
	}
	got := f.pub.types()
	if len(got) != len(want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestApplyRevealReturnsSelection(t *testing.T) {
	f := newFixture(t, 0, engine.PickerFunc(func(int) int { return 1 }))
	ctx := context.Background()

	s, err := f.app.CreateSession(ctx, session.CreateSessionRequest{Names: "Alice, Bob"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	res, err := f.app.Apply(ctx, s.ID, models.DrawEvent{Action: models.ActionReveal})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Selected == nil || *res.Selected != "Bob" {
		t.Fatalf("selected = %v, want Bob", res.Selected)
	}
	if res.Session.State.CurrentWinner == nil || *res.Session.State.CurrentWinner != "Bob" {
		t.Errorf("currentWinner = %v, want Bob", res.Session.State.CurrentWinner)
	}
}

func TestApplyNoChangeSkipsSaveAndPublish(t *testing.T) {
	f := newFixture(t, 0, nil)
	ctx := context.Background()

	s, err := f.app.CreateSession(ctx, session.CreateSessionRequest{Names: "Alice"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	f.clock.Advance(time.Minute)
	for _, ev := range []models.DrawEvent{
		{Action: models.ActionAdd, InputText: "Alice,  "},
		{Action: models.ActionRemove},
		{Action: models.ActionHome},
		{Action: "dance"},
	} {
		res, err := f.app.Apply(ctx, s.ID, ev)
		if err != nil {
			t.Fatalf("Apply(%s): %v", ev.Action, err)
		}
		if res.Changed {
			t.Errorf("Apply(%s) reported a change", ev.Action)
		}
	}

	stored, err := f.app.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !stored.UpdatedAt.Equal(epoch) {
		t.Errorf("updated_at moved to %v", stored.UpdatedAt)
	}
	if got := f.pub.types(); len(got) != 0 {
		t.Errorf("published %v, want nothing", got)
	}
}

func TestApplyPublishFailureKeepsTransition(t *testing.T) {
	f := newFixture(t, 0, nil)
	f.pub.err = errors.New("bus down")
	ctx := context.Background()

	s, err := f.app.CreateSession(ctx, session.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := f.app.Apply(ctx, s.ID, models.DrawEvent{Action: models.ActionAdd, InputText: "Dana"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	stored, err := f.app.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !stored.State.HasName("Dana") {
		t.Errorf("names = %v, want Dana kept", stored.State.Names)
	}
}

func TestApplyUnknownSession(t *testing.T) {
	f := newFixture(t, 0, nil)

	_, err := f.app.Apply(context.Background(), uuid.New(), models.DrawEvent{Action: models.ActionSpin})
	if !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestApplySerializesPerSession(t *testing.T) {
	f := newFixture(t, 0, nil)
	ctx := context.Background()

	s, err := f.app.CreateSession(ctx, session.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.app.Apply(ctx, s.ID, models.DrawEvent{
				Action:    models.ActionAdd,
				InputText: fmt.Sprintf("player-%02d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}

	stored, err := f.app.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(stored.State.Names) != workers {
		t.Fatalf("names = %d, want %d (lost updates)", len(stored.State.Names), workers)
	}
}

func TestApplyStateless(t *testing.T) {
	f := newFixture(t, 0, engine.PickerFunc(func(int) int { return 0 }))

	res, err := f.app.ApplyStateless(models.DrawState{Names: []string{"Alice", "Bob"}}, models.DrawEvent{Action: models.ActionReveal})
	if err != nil {
		t.Fatalf("ApplyStateless: %v", err)
	}
	if res.Selected == nil || *res.Selected != "Alice" {
		t.Errorf("selected = %v, want Alice", res.Selected)
	}

	bad := []models.DrawState{
		{Names: []string{"Alice", "Alice"}},
		{Names: []string{" Alice"}},
		{Names: []string{""}},
		{Winners: []string{"Bob\t"}},
	}
	for _, state := range bad {
		if _, err := f.app.ApplyStateless(state, models.DrawEvent{Action: models.ActionSpin}); !errors.Is(err, models.ErrInvalidState) {
			t.Errorf("ApplyStateless(%+v) err = %v, want ErrInvalidState", state, err)
		}
	}
}

func TestExpireIdle(t *testing.T) {
	f := newFixture(t, time.Hour, nil)
	ctx := context.Background()

	stale, err := f.app.CreateSession(ctx, session.CreateSessionRequest{Title: "stale"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	f.clock.Advance(50 * time.Minute)
	fresh, err := f.app.CreateSession(ctx, session.CreateSessionRequest{Title: "fresh"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	f.clock.Advance(20 * time.Minute)

	ids, err := f.app.ExpireIdle(ctx)
	if err != nil {
		t.Fatalf("ExpireIdle: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Fatalf("expired %v, want [%s]", ids, stale.ID)
	}
	if _, err := f.app.GetSession(ctx, stale.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("stale session err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.app.GetSession(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session: %v", err)
	}
}

func TestExpireIdleDisabled(t *testing.T) {
	f := newFixture(t, 0, nil)
	ctx := context.Background()

	if _, err := f.app.CreateSession(ctx, session.CreateSessionRequest{}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	f.clock.Advance(24 * time.Hour)

	ids, err := f.app.ExpireIdle(ctx)
	if err != nil {
		t.Fatalf("ExpireIdle: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expired %v with TTL disabled", ids)
	}
}

type eventLogRepo struct {
	*repository.MemoryRepository
	mu     sync.Mutex
	logged []*events.Envelope
}

func (r *eventLogRepo) SaveSessionWithEvent(ctx context.Context, s *models.Session, env *events.Envelope) error {
	if err := r.SaveSession(ctx, s); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logged = append(r.logged, env)
	return nil
}

func TestApplyRecordsEventWithState(t *testing.T) {
	ctx := context.Background()
	repo := &eventLogRepo{MemoryRepository: repository.NewMemoryRepository()}
	pub := &recordingPublisher{}
	app := session.NewApp(repo, engine.New(), session.Config{},
		session.WithClock(clockwork.NewFakeClockAt(epoch)),
		session.WithPublisher(pub),
		session.WithEventLog(repo),
	)

	s, err := app.CreateSession(ctx, session.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := app.Apply(ctx, s.ID, models.DrawEvent{Action: models.ActionAdd, InputText: "Alice"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// nothing to record for a duplicate add
	if _, err := app.Apply(ctx, s.ID, models.DrawEvent{Action: models.ActionAdd, InputText: "Alice"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(repo.logged) != 1 || repo.logged[0].Type != events.EventTypeNamesAdded {
		t.Fatalf("logged = %+v", repo.logged)
	}
	if got := pub.types(); len(got) != 1 || pub.events[0].ID != repo.logged[0].ID {
		t.Fatalf("published event differs from recorded one: %v", got)
	}
}
