package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/luckydraw/go/internal/draw/engine"
	"github.com/mcdev12/luckydraw/go/internal/draw/events"
	"github.com/mcdev12/luckydraw/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Repository defines what the session app needs from storage
type Repository interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SaveSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	ListSessions(ctx context.Context) ([]*models.Session, error)
	DeleteIdleSessions(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

// EventLog is implemented by repositories that record the event for a state
// change in the same transaction as the change itself.
type EventLog interface {
	SaveSessionWithEvent(ctx context.Context, s *models.Session, env *events.Envelope) error
}

// Publisher receives an event after every state change
type Publisher interface {
	Publish(ctx context.Context, env *events.Envelope) error
}

// Config holds session lifecycle settings
type Config struct {
	// TTL is how long a session may sit idle before it is discarded. Zero keeps sessions forever.
	TTL time.Duration
}

// App owns draw sessions. Transitions on one session are serialized; the
// engine itself does no locking.
type App struct {
	repo      Repository
	engine    *engine.Engine
	publisher Publisher
	eventLog  EventLog
	clock     clockwork.Clock
	config    Config

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

// Option configures an App.
type Option func(*App)

// WithClock replaces the real clock, e.g. with a fake one in tests.
func WithClock(c clockwork.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

// WithPublisher sets where events go after each change.
func WithPublisher(p Publisher) Option {
	return func(a *App) {
		a.publisher = p
	}
}

// WithEventLog records every event with its state change, e.g. in an outbox
// that a relay drains later.
func WithEventLog(el EventLog) Option {
	return func(a *App) {
		a.eventLog = el
	}
}

// NewApp creates a new session App
func NewApp(repo Repository, eng *engine.Engine, cfg Config, opts ...Option) *App {
	a := &App{
		repo:   repo,
		engine: eng,
		clock:  clockwork.NewRealClock(),
		config: cfg,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *App) now() time.Time {
	// postgres keeps microseconds
	return a.clock.Now().UTC().Truncate(time.Microsecond)
}

// CreateSession starts a new session, optionally seeded with names
func (a *App) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		return nil, fmt.Errorf("%w: metadata is not valid JSON", ErrInvalidRequest)
	}

	title, ok := engine.NormalizeName(req.Title)
	if !ok {
		title = DefaultTitle
	}

	now := a.now()
	s := &models.Session{
		ID:        uuid.New(),
		Title:     title,
		State:     engine.Add(models.DrawState{}, req.Names),
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := a.repo.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str("session_id", s.ID.String()).
		Int("names", len(s.State.Names)).
		Msg("created draw session")
	return s, nil
}

// GetSession loads a session and validates its state
func (a *App) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if err := engine.ValidateState(s.State); err != nil {
		return nil, fmt.Errorf("stored session %s: %w", id, err)
	}
	return s, nil
}

// ListSessions returns every live session
func (a *App) ListSessions(ctx context.Context) ([]*models.Session, error) {
	sessions, err := a.repo.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession ends a session
func (a *App) DeleteSession(ctx context.Context, id uuid.UUID) error {
	lock := a.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	if err := a.repo.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	a.dropLock(id)

	log.Info().Str("session_id", id.String()).Msg("deleted draw session")
	return nil
}

// Apply runs one action against a stored session and persists the result
func (a *App) Apply(ctx context.Context, id uuid.UUID, ev models.DrawEvent) (*ApplyResult, error) {
	lock := a.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	s, err := a.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	before := s.State
	res := a.engine.Apply(before, ev)
	if !res.Changed {
		return &ApplyResult{Session: s}, nil
	}

	s.State = res.State
	s.UpdatedAt = a.now()

	env, err := events.ForTransition(id, ev, before, res.State, res.Selected, s.UpdatedAt)
	if err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Msg("failed to build draw event")
		env = nil
	}

	if err := a.save(ctx, s, env); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	log.Debug().
		Str("session_id", id.String()).
		Str("action", string(ev.Action)).
		Int("names", len(s.State.Names)).
		Int("winners", len(s.State.Winners)).
		Msg("applied draw action")

	a.publish(ctx, env)

	return &ApplyResult{Session: s, Selected: res.Selected, Changed: true}, nil
}

func (a *App) save(ctx context.Context, s *models.Session, env *events.Envelope) error {
	if a.eventLog != nil && env != nil {
		return a.eventLog.SaveSessionWithEvent(ctx, s, env)
	}
	return a.repo.SaveSession(ctx, s)
}

// ApplyStateless validates a caller-held snapshot and applies one action to
// it. Nothing is stored; the caller carries the state between requests.
func (a *App) ApplyStateless(state models.DrawState, ev models.DrawEvent) (engine.Result, error) {
	if err := engine.ValidateState(state); err != nil {
		return engine.Result{}, err
	}
	return a.engine.Apply(state, ev), nil
}

// ExpireIdle discards sessions idle for longer than the configured TTL
func (a *App) ExpireIdle(ctx context.Context) ([]uuid.UUID, error) {
	if a.config.TTL <= 0 {
		return nil, nil
	}

	ids, err := a.repo.DeleteIdleSessions(ctx, a.now().Add(-a.config.TTL))
	if err != nil {
		return nil, fmt.Errorf("failed to expire sessions: %w", err)
	}
	for _, id := range ids {
		a.dropLock(id)
	}
	if len(ids) > 0 {
		log.Info().Int("count", len(ids)).Msg("expired idle draw sessions")
	}
	return ids, nil
}

func (a *App) publish(ctx context.Context, env *events.Envelope) {
	if a.publisher == nil || env == nil {
		return
	}

	// the state change is already saved; a bus outage must not undo it
	if err := a.publisher.Publish(ctx, env); err != nil {
		log.Error().
			Err(err).
			Str("session_id", env.SessionID.String()).
			Str("event_type", string(env.Type)).
			Msg("failed to publish draw event")
	}
}

func (a *App) lockFor(id uuid.UUID) *sync.Mutex {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()

	l, ok := a.locks[id]
	if !ok {
		l = &sync.Mutex{}
		a.locks[id] = l
	}
	return l
}

func (a *App) dropLock(id uuid.UUID) {
	a.locksMu.Lock()
	defer a.locksMu.Unlock()
	delete(a.locks, id)
}
