package history

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder appends lifecycle events to a SQLite table daemon_history.
// The schema is created if missing.
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the audit database at dsn.
// DSN format:
//   - "sqlite:///path/to/file.db"
//   - "/path/to/file.db" (without prefix)
//   - ":memory:" (in-memory database)
func NewSQLite(dsn string) (*SQLiteRecorder, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty SQLite DSN")
	}
	if strings.HasPrefix(strings.ToLower(dsn), "sqlite://") {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)

	r := &SQLiteRecorder{db: db}
	if err := r.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) ensureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS daemon_history(
		timestamp TEXT NOT NULL,
		name TEXT NOT NULL,
		sub_path TEXT NOT NULL DEFAULT '',
		pid INTEGER NOT NULL,
		event TEXT NOT NULL,
		detail TEXT
	);`
	_, err := r.db.ExecContext(ctx, stmt)
	return err
}

func (r *SQLiteRecorder) Record(ctx context.Context, e Event) error {
	occur := e.OccurredAt
	if occur.IsZero() {
		occur = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daemon_history(timestamp, name, sub_path, pid, event, detail)
		VALUES(?, ?, ?, ?, ?, ?);`,
		occur.UTC().Format(time.RFC3339Nano), e.Name, e.SubPath, e.PID, string(e.Type), e.Detail)
	return err
}

// Recent returns up to limit events for name, newest first. An empty name
// returns events for all daemons.
func (r *SQLiteRecorder) Recent(ctx context.Context, name string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT timestamp, name, sub_path, pid, event, COALESCE(detail, '')
		FROM daemon_history`
	args := []any{}
	if name != "" {
		q += ` WHERE name = ?`
		args = append(args, name)
	}
	q += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var e Event
		var ts, typ string
		if err := rows.Scan(&ts, &e.Name, &e.SubPath, &e.PID, &typ, &e.Detail); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			e.OccurredAt = t
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
