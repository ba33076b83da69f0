// Package store is the durable session store: one row of derived state per
// session plus an append-only event log, backed by SQLite.
//
// All writers go through Update, which wraps a read-modify-write in an
// immediate transaction with a short busy-retry budget. Brief contention
// between a hook invocation and a concurrent bridge batch is expected, not
// exceptional.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	perrors "github.com/perchdev/perch/errors"
)

const (
	// busyRetryBudget bounds how long Update waits out lock contention on
	// top of the driver-level busy timeout.
	busyRetryBudget = 3 * time.Second
	busyRetryDelay  = 50 * time.Millisecond
)

type Store struct {
	db *sql.DB
}

// Open opens (and creates, if necessary) the tracking database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreOpen, "create database directory")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=3000&_synchronous=NORMAL&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreOpen, "open sqlite database")
	}

	// One connection keeps every transaction on a single writer and lets the
	// busy_timeout pragma arbitrate cross-process contention.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreOpen, "ping sqlite database")
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id          TEXT PRIMARY KEY,
			name                TEXT NOT NULL DEFAULT '',
			status              TEXT NOT NULL DEFAULT 'active',
			pending_permissions INTEGER NOT NULL DEFAULT 0,
			pending_reason      TEXT NOT NULL DEFAULT '',
			is_priority         INTEGER NOT NULL DEFAULT 0,
			source              TEXT NOT NULL DEFAULT 'host',
			project_dir         TEXT NOT NULL DEFAULT '',
			transcript_path     TEXT NOT NULL DEFAULT '',
			model               TEXT NOT NULL DEFAULT '',
			tmux_pane           TEXT NOT NULL DEFAULT '',
			tmux_window         TEXT NOT NULL DEFAULT '',
			tmux_session        TEXT NOT NULL DEFAULT '',
			started_at          TEXT NOT NULL,
			last_activity       TEXT NOT NULL,
			last_event          TEXT NOT NULL DEFAULT '',
			last_tool           TEXT NOT NULL DEFAULT '',
			last_detail         TEXT NOT NULL DEFAULT '',
			last_prompt         TEXT NOT NULL DEFAULT '',
			prompt_count        INTEGER NOT NULL DEFAULT 0,
			tool_count          INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_pane ON sessions(tmux_pane)`,
		`CREATE TABLE IF NOT EXISTS events (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			timestamp  TEXT NOT NULL,
			event_type TEXT NOT NULL,
			tool_name  TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session_ts ON events(session_id, timestamp)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return perrors.Wrap(err, perrors.ErrCodeStoreSchema, "initialize schema")
		}
	}
	return nil
}

// Update runs fn inside an immediate transaction, retrying the whole
// transaction while the database is locked by another writer. The retry
// budget is a few seconds; after that the caller decides whether to drop the
// write (ingestion does) or surface the error (user actions do).
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	deadline := time.Now().Add(busyRetryBudget)

	for {
		err := s.updateOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isBusy(err) || time.Now().After(deadline) {
			if isBusy(err) {
				return perrors.StoreBusy(err)
			}
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(busyRetryDelay):
		}
	}
}

func (s *Store) updateOnce(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	tx := &Tx{tx: sqlTx, ctx: ctx}
	if err := fn(tx); err != nil {
		sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// ts formats a timestamp for storage. Stored timestamps sort lexically.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
