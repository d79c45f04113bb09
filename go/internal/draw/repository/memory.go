package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/models"
)

// MemoryRepository keeps sessions in process memory. Sessions are copied on
// the way in and out so callers never share state with the store.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[uuid.UUID]models.Session),
	}
}

func (r *MemoryRepository) CreateSession(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; exists {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemoryRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	out := s.Clone()
	return &out, nil
}

func (r *MemoryRepository) SaveSession(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, s.ID)
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemoryRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}

func (r *MemoryRepository) ListSessions(ctx context.Context) ([]*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		c := s.Clone()
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) DeleteIdleSessions(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []uuid.UUID
	for id, s := range r.sessions {
		if s.UpdatedAt.Before(cutoff) {
			ids = append(ids, id)
			delete(r.sessions, id)
		}
	}
	return ids, nil
}
