package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

const ledgerSchema = `CREATE TABLE IF NOT EXISTS sent_messages (
	message_key TEXT PRIMARY KEY,
	venue_name  TEXT NOT NULL,
	to_email    TEXT NOT NULL,
	subject     TEXT NOT NULL,
	run_id      TEXT NOT NULL,
	sent_at     INTEGER NOT NULL
)`

// SQLiteLedger records delivered drafts so a re-run of the send stage skips them.
// Rows written by one process share a run id.
type SQLiteLedger struct {
	db    *sql.DB
	runID string
	now   func() time.Time
}

var _ ports.SentLedger = (*SQLiteLedger)(nil)

// OpenSQLiteLedger opens (or creates) the ledger database at path.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	if _, err := db.Exec(ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return NewSQLiteLedger(db), nil
}

// NewSQLiteLedger wires an existing sql.DB whose schema is already in place.
func NewSQLiteLedger(db *sql.DB) *SQLiteLedger {
	return &SQLiteLedger{db: db, runID: uuid.NewString(), now: time.Now}
}

// RunID identifies this process's rows in the ledger.
func (l *SQLiteLedger) RunID() string {
	return l.runID
}

// Close releases the underlying database.
func (l *SQLiteLedger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// AlreadySent returns the subset of keys that were delivered before.
func (l *SQLiteLedger) AlreadySent(ctx context.Context, keys []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if l.db == nil || len(keys) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("message_key").
		From("sent_messages").
		Where(sq.Eq{"message_key": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build ledger query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan key: %w", err)
		}
		result[key] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// RecordSent upserts the delivery of a draft.
func (l *SQLiteLedger) RecordSent(ctx context.Context, key string, draft domain.Draft) error {
	if l.db == nil {
		return nil
	}

	query, args, err := sq.Insert("sent_messages").
		Columns("message_key", "venue_name", "to_email", "subject", "run_id", "sent_at").
		Values(key, draft.VenueName, draft.ToEmail, draft.Subject, l.runID, l.now().Unix()).
		Suffix("ON CONFLICT (message_key) DO UPDATE SET run_id = excluded.run_id, sent_at = excluded.sent_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ledger insert: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert sent message: %w", err)
	}

	return nil
}
