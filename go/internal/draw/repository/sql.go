package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/models"
	"github.com/mcdev12/luckydraw/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

const sessionColumns = `id, title, names, winners, spinning, current_winner, metadata, created_at, updated_at`

// SQLRepository stores sessions in a SQL database through database/sql.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{
		db:      db,
		dialect: dialect,
	}
}

// EnsureSchema creates the session and outbox tables if they do not exist.
func (r *SQLRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Schema); err != nil {
		return fmt.Errorf("failed to create %s schema: %w", r.dialect.Name, err)
	}
	return nil
}

func (r *SQLRepository) args(s *models.Session) []any {
	names := s.State.Names
	winners := s.State.Winners
	createdAt := s.CreatedAt
	updatedAt := s.UpdatedAt
	return []any{
		s.ID,
		s.Title,
		r.dialect.list(&names),
		r.dialect.list(&winners),
		s.State.Spinning,
		sqlutil.ToSqlString(s.State.CurrentWinner),
		sqlutil.ToNullRawMessage(s.Metadata),
		r.dialect.time(&createdAt),
		r.dialect.time(&updatedAt),
	}
}

func (r *SQLRepository) CreateSession(ctx context.Context, s *models.Session) error {
	query := r.dialect.rebind(`INSERT INTO draw_sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, r.args(s)...); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SQLRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	query := r.dialect.rebind(`SELECT ` + sessionColumns + ` FROM draw_sessions WHERE id = ?`)
	s, err := r.scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func (r *SQLRepository) SaveSession(ctx context.Context, s *models.Session) error {
	return r.saveSession(ctx, r.db, s)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *SQLRepository) saveSession(ctx context.Context, db execer, s *models.Session) error {
	query := r.dialect.rebind(`
		UPDATE draw_sessions
		SET title = ?, names = ?, winners = ?, spinning = ?, current_winner = ?, metadata = ?, updated_at = ?
		WHERE id = ?`)

	// same order as args() minus id and created_at, then the id for WHERE
	args := r.args(s)
	update := []any{args[1], args[2], args[3], args[4], args[5], args[6], args[8], args[0]}
	res, err := db.ExecContext(ctx, query, update...)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, s.ID)
	}
	return nil
}

func (r *SQLRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM draw_sessions WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return nil
}

func (r *SQLRepository) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM draw_sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := r.scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteIdleSessions removes every session last updated before cutoff and
// returns the ids of exactly the rows it deleted.
func (r *SQLRepository) DeleteIdleSessions(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		r.dialect.rebind(`DELETE FROM draw_sessions WHERE updated_at < ? RETURNING id`),
		r.dialect.time(&cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	return ids, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanSession(row rowScanner) (*models.Session, error) {
	var (
		s             models.Session
		names         []string
		winners       []string
		currentWinner sql.NullString
		metadata      pqtype.NullRawMessage
	)

	err := row.Scan(
		&s.ID,
		&s.Title,
		r.dialect.list(&names),
		r.dialect.list(&winners),
		&s.State.Spinning,
		&currentWinner,
		&metadata,
		r.dialect.time(&s.CreatedAt),
		r.dialect.time(&s.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}

	if names == nil {
		names = []string{}
	}
	if winners == nil {
		winners = []string{}
	}
	s.State.Names = names
	s.State.Winners = winners
	s.State.CurrentWinner = sqlutil.FromSqlStringPtr(currentWinner)
	s.Metadata = sqlutil.FromNullRawMessage(metadata)
	return &s, nil
}
