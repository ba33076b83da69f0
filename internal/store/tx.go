package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/perchdev/perch/pkg/models"
)

// Tx exposes the statements ingestion composes inside one transaction. A
// reader never observes a session row updated without its event appended, or
// vice versa.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

const sessionColumns = `session_id, name, status, pending_permissions, pending_reason,
	is_priority, source, project_dir, transcript_path, model,
	tmux_pane, tmux_window, tmux_session, started_at, last_activity,
	last_event, last_tool, last_detail, last_prompt, prompt_count, tool_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sess                    models.Session
		isPriority              int
		startedAt, lastActivity string
	)
	err := row.Scan(
		&sess.ID, &sess.Name, &sess.Status, &sess.PendingPermissions, &sess.PendingReason,
		&isPriority, &sess.Source, &sess.ProjectDir, &sess.TranscriptPath, &sess.Model,
		&sess.TmuxPane, &sess.TmuxWindow, &sess.TmuxSession, &startedAt, &lastActivity,
		&sess.LastEvent, &sess.LastTool, &sess.LastDetail, &sess.LastPrompt,
		&sess.PromptCount, &sess.ToolCount,
	)
	if err != nil {
		return nil, err
	}
	sess.IsPriority = isPriority != 0
	sess.StartedAt = parseTS(startedAt)
	sess.LastActivity = parseTS(lastActivity)
	return &sess, nil
}

// Session returns the current row for a session id, or nil when no row
// exists yet.
func (t *Tx) Session(sessionID string) (*models.Session, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, sessionID)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// PutSession inserts or replaces the full session row.
func (t *Tx) PutSession(sess *models.Session) error {
	isPriority := 0
	if sess.IsPriority {
		isPriority = 1
	}
	_, err := t.tx.ExecContext(t.ctx, `
INSERT INTO sessions (`+sessionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	name=excluded.name,
	status=excluded.status,
	pending_permissions=excluded.pending_permissions,
	pending_reason=excluded.pending_reason,
	is_priority=excluded.is_priority,
	source=excluded.source,
	project_dir=excluded.project_dir,
	transcript_path=excluded.transcript_path,
	model=excluded.model,
	tmux_pane=excluded.tmux_pane,
	tmux_window=excluded.tmux_window,
	tmux_session=excluded.tmux_session,
	started_at=excluded.started_at,
	last_activity=excluded.last_activity,
	last_event=excluded.last_event,
	last_tool=excluded.last_tool,
	last_detail=excluded.last_detail,
	last_prompt=excluded.last_prompt,
	prompt_count=excluded.prompt_count,
	tool_count=excluded.tool_count`,
		sess.ID, sess.Name, sess.Status, sess.PendingPermissions, sess.PendingReason,
		isPriority, sess.Source, sess.ProjectDir, sess.TranscriptPath, sess.Model,
		sess.TmuxPane, sess.TmuxWindow, sess.TmuxSession, ts(sess.StartedAt), ts(sess.LastActivity),
		sess.LastEvent, sess.LastTool, sess.LastDetail, sess.LastPrompt,
		sess.PromptCount, sess.ToolCount,
	)
	return err
}

// ReclaimPane force-ends every non-terminal session holding the given pane
// except the one identified by keepSessionID. A new occupant of a pane
// supersedes the previous one; the old row is presumed dead, not deleted.
func (t *Tx) ReclaimPane(pane, keepSessionID string) error {
	if pane == "" {
		return nil
	}
	_, err := t.tx.ExecContext(t.ctx, `
UPDATE sessions SET status = ?, pending_permissions = 0
WHERE tmux_pane = ? AND session_id != ? AND status NOT IN (?, ?)`,
		models.StatusEnded, pane, keepSessionID, models.StatusEnded, models.StatusDismissed)
	return err
}

// AppendEvent writes one immutable event log row.
func (t *Tx) AppendEvent(ev models.Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(t.ctx, `
INSERT INTO events (id, session_id, timestamp, event_type, tool_name, detail)
VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ts(ev.Timestamp), ev.EventType, ev.ToolName, ev.Detail)
	return err
}
