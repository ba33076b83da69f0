package store

import (
	"context"
	"database/sql"

	perrors "github.com/perchdev/perch/errors"
	"github.com/perchdev/perch/pkg/models"
)

// statusRankSQL orders sessions the way viewers list them: attention first.
const statusRankSQL = `CASE status
	WHEN 'active' THEN 0
	WHEN 'waiting' THEN 1
	WHEN 'pending' THEN 2
	WHEN 'idle' THEN 3
	WHEN 'ended' THEN 4
	ELSE 5
END`

// GetSession fetches one session row.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, perrors.SessionNotFound(sessionID)
	}
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "get session")
	}
	return sess, nil
}

// ListSessions returns non-dismissed sessions ordered by priority flag,
// status rank, then recency. When includeEnded is false, ended sessions are
// filtered out as well (the TUI's default view).
func (s *Store) ListSessions(ctx context.Context, includeEnded bool) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE status != ?`
	args := []any{models.StatusDismissed}
	if !includeEnded {
		query += ` AND status != ?`
		args = append(args, models.StatusEnded)
	}
	query += ` ORDER BY is_priority DESC, ` + statusRankSQL + `, last_activity DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "list sessions")
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "scan session")
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// NonTerminalSessions returns every session reconciliation may still end.
func (s *Store) NonTerminalSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE status NOT IN (?, ?)`,
		models.StatusEnded, models.StatusDismissed)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "list non-terminal sessions")
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "scan session")
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// RecentEvents returns the newest events for a session, capped at limit.
func (s *Store) RecentEvents(ctx context.Context, sessionID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, timestamp, event_type, tool_name, detail
FROM events WHERE session_id = ?
ORDER BY timestamp DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "list events")
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev        models.Event
			timestamp string
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &timestamp, &ev.EventType, &ev.ToolName, &ev.Detail); err != nil {
			return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "scan event")
		}
		ev.Timestamp = parseTS(timestamp)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ForceEnd transitions a session to ended and zeroes its permission counter.
// Used by reconciliation; ending an already-terminal session is a no-op.
func (s *Store) ForceEnd(ctx context.Context, sessionID string) error {
	return s.exec(ctx, `
UPDATE sessions SET status = ?, pending_permissions = 0
WHERE session_id = ? AND status NOT IN (?, ?)`,
		models.StatusEnded, sessionID, models.StatusEnded, models.StatusDismissed)
}

// Dismiss hides a session from viewers.
func (s *Store) Dismiss(ctx context.Context, sessionID string) error {
	return s.execSession(ctx, sessionID,
		`UPDATE sessions SET status = ? WHERE session_id = ?`,
		models.StatusDismissed, sessionID)
}

// SetPriority sets or clears the user priority flag.
func (s *Store) SetPriority(ctx context.Context, sessionID string, priority bool) error {
	val := 0
	if priority {
		val = 1
	}
	return s.execSession(ctx, sessionID,
		`UPDATE sessions SET is_priority = ? WHERE session_id = ?`,
		val, sessionID)
}

// SetPending marks a session pending with a user-supplied reason. This is a
// manual transition; it does not touch the permission counter.
func (s *Store) SetPending(ctx context.Context, sessionID, reason string) error {
	return s.execSession(ctx, sessionID,
		`UPDATE sessions SET status = ?, pending_reason = ? WHERE session_id = ?`,
		models.StatusPending, reason, sessionID)
}

// ClearPending returns a pending session to idle.
func (s *Store) ClearPending(ctx context.Context, sessionID string) error {
	return s.execSession(ctx, sessionID,
		`UPDATE sessions SET status = ?, pending_reason = '' WHERE session_id = ? AND status = ?`,
		models.StatusIdle, sessionID, models.StatusPending)
}

// SetName names a session for display.
func (s *Store) SetName(ctx context.Context, sessionID, name string) error {
	return s.execSession(ctx, sessionID,
		`UPDATE sessions SET name = ? WHERE session_id = ?`,
		name, sessionID)
}

// SessionByPane resolves the most recently active non-terminal session
// attached to a pane. Used by `perch set-name` and `perch mark`, which act on
// "the session in this pane".
func (s *Store) SessionByPane(ctx context.Context, pane string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+sessionColumns+` FROM sessions
WHERE tmux_pane = ? AND status NOT IN (?, ?)
ORDER BY last_activity DESC LIMIT 1`,
		pane, models.StatusEnded, models.StatusDismissed)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, perrors.NoSessionForPane(pane)
	}
	if err != nil {
		return nil, perrors.Wrap(err, perrors.ErrCodeStoreQuery, "session by pane")
	}
	return sess, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStoreQuery, "update session")
	}
	return nil
}

// execSession runs an update that must match an existing session row.
func (s *Store) execSession(ctx context.Context, sessionID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return perrors.Wrap(err, perrors.ErrCodeStoreQuery, "update session")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return perrors.SessionNotFound(sessionID)
	}
	return nil
}
