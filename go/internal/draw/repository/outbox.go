package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/luckydraw/go/internal/draw/events"
	"github.com/mcdev12/luckydraw/go/internal/models"
	"github.com/mcdev12/luckydraw/go/internal/sqlutil"
)

// SaveSessionWithEvent saves the session and records env in the outbox in
// one transaction, so a stored state change always has its event. A nil env
// is a plain save.
func (r *SQLRepository) SaveSessionWithEvent(ctx context.Context, s *models.Session, env *events.Envelope) error {
	if env == nil {
		return r.saveSession(ctx, r.db, s)
	}

	envelope, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal outbox event: %w", err)
	}

	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.saveSession(ctx, tx, s); err != nil {
			return err
		}

		createdAt := env.Timestamp
		_, err := tx.ExecContext(ctx,
			r.dialect.rebind(`INSERT INTO draw_outbox (id, session_id, event_type, envelope, created_at) VALUES (?, ?, ?, ?, ?)`),
			env.ID, env.SessionID, string(env.Type), string(envelope), r.dialect.time(&createdAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox event: %w", err)
		}

		if r.dialect.notify != "" {
			if _, err := tx.ExecContext(ctx, r.dialect.rebind(r.dialect.notify), env.ID.String()); err != nil {
				return fmt.Errorf("failed to notify outbox listeners: %w", err)
			}
		}
		return nil
	})
}

// FetchUnsentOutbox returns up to limit unsent events in insertion order.
func (r *SQLRepository) FetchUnsentOutbox(ctx context.Context, limit int) ([]*events.Envelope, error) {
	rows, err := r.db.QueryContext(ctx,
		r.dialect.rebind(`SELECT id, envelope FROM draw_outbox WHERE sent_at IS NULL ORDER BY seq LIMIT ?`),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var batch []*events.Envelope
	for rows.Next() {
		var (
			id   uuid.UUID
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to decode outbox event %s: %w", id, err)
		}
		batch = append(batch, &env)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batch, nil
}

// MarkOutboxSent records that the event with id reached the bus.
func (r *SQLRepository) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		r.dialect.rebind(`UPDATE draw_outbox SET sent_at = ? WHERE id = ?`),
		r.dialect.time(&now), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event sent: %w", err)
	}
	return nil
}

// RelayOutbox hands up to limit unsent events, in insertion order, to fn and
// marks each one sent once fn accepts it. It stops at the first event fn
// rejects so later events never overtake it. No transaction is held while fn
// runs; an event published but not yet marked sent is delivered again on the
// next pass, and the bus drops the duplicate by event id.
func (r *SQLRepository) RelayOutbox(ctx context.Context, limit int, fn func(*events.Envelope) error) (int, error) {
	batch, err := r.FetchUnsentOutbox(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, env := range batch {
		if err := fn(env); err != nil {
			// left unsent, with everything after it, for the next pass
			break
		}
		if err := r.MarkOutboxSent(ctx, env.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// PurgeSentOutbox deletes events relayed before cutoff.
func (r *SQLRepository) PurgeSentOutbox(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		r.dialect.rebind(`DELETE FROM draw_outbox WHERE sent_at IS NOT NULL AND sent_at < ?`),
		r.dialect.time(&cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge outbox: %w", err)
	}
	return res.RowsAffected()
}
