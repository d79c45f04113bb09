package repository

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// column is a value that can be written to and read from a driver.
type column interface {
	driver.Valuer
	sql.Scanner
}

// Dialect captures the differences between the SQL backends.
type Dialect struct {
	Name     string
	Schema   string
	numbered bool // $1 placeholders instead of ?
	// notify, when set, runs in the outbox insert transaction with the event id
	notify   string
	list     func(*[]string) column
	time     func(*time.Time) column
}

// OutboxChannel is the Postgres NOTIFY channel announcing new outbox rows.
const OutboxChannel = "draw_outbox_events"

// Postgres stores lists as text[] and timestamps as timestamptz.
var Postgres = Dialect{
	Name: "postgres",
	Schema: `
CREATE TABLE IF NOT EXISTS draw_sessions (
    id             UUID PRIMARY KEY,
    title          TEXT NOT NULL,
    names          TEXT[] NOT NULL DEFAULT '{}',
    winners        TEXT[] NOT NULL DEFAULT '{}',
    spinning       BOOLEAN NOT NULL DEFAULT FALSE,
    current_winner TEXT,
    metadata       JSONB,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS draw_sessions_updated_at_idx ON draw_sessions (updated_at);

CREATE TABLE IF NOT EXISTS draw_outbox (
    seq        BIGSERIAL PRIMARY KEY,
    id         UUID NOT NULL UNIQUE,
    session_id UUID NOT NULL,
    event_type TEXT NOT NULL,
    envelope   JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    sent_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS draw_outbox_unsent_idx ON draw_outbox (seq) WHERE sent_at IS NULL;
`,
	numbered: true,
	notify:   "SELECT pg_notify('" + OutboxChannel + "', ?)",
	list: func(p *[]string) column {
		return pq.Array(p)
	},
	time: func(p *time.Time) column {
		return (*plainTime)(p)
	},
}

// SQLite stores lists as JSON text and timestamps as unix nanoseconds, which
// keeps ordering comparisons numeric.
var SQLite = Dialect{
	Name: "sqlite",
	Schema: `
CREATE TABLE IF NOT EXISTS draw_sessions (
    id             TEXT PRIMARY KEY,
    title          TEXT NOT NULL,
    names          TEXT NOT NULL DEFAULT '[]',
    winners        TEXT NOT NULL DEFAULT '[]',
    spinning       INTEGER NOT NULL DEFAULT 0,
    current_winner TEXT,
    metadata       BLOB,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS draw_sessions_updated_at_idx ON draw_sessions (updated_at);

CREATE TABLE IF NOT EXISTS draw_outbox (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    session_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    envelope   TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    sent_at    INTEGER
);
CREATE INDEX IF NOT EXISTS draw_outbox_unsent_idx ON draw_outbox (seq) WHERE sent_at IS NULL;
`,
	list: func(p *[]string) column {
		return (*jsonList)(p)
	},
	time: func(p *time.Time) column {
		return (*unixNanos)(p)
	},
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case Postgres.Name:
		return Postgres, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("no SQL dialect for driver %q", name)
	}
}

// rebind rewrites ? placeholders to $n for dialects that need it.
func (d Dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type jsonList []string

func (l *jsonList) Value() (driver.Value, error) {
	if *l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(*l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *jsonList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = jsonList{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into string list", src)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("decode string list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

type unixNanos time.Time

func (t *unixNanos) Value() (driver.Value, error) {
	return time.Time(*t).UnixNano(), nil
}

func (t *unixNanos) Scan(src any) error {
	v, ok := src.(int64)
	if !ok {
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
	*t = unixNanos(time.Unix(0, v).UTC())
	return nil
}

type plainTime time.Time

func (t *plainTime) Value() (driver.Value, error) {
	return time.Time(*t), nil
}

func (t *plainTime) Scan(src any) error {
	v, ok := src.(time.Time)
	if !ok {
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
	*t = plainTime(v.UTC())
	return nil
}
