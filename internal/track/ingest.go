// Package track converts raw hook events into derived session state: a pure
// status state machine plus the ingestion pipeline that persists its output.
package track

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/pkg/models"
	"github.com/perchdev/perch/pkg/tmux"
)

// Outcome classifies what ingestion did with an event.
type Outcome int

const (
	// OutcomeApplied means the session row and event log were updated.
	OutcomeApplied Outcome = iota
	// OutcomeSkipped means the event was malformed and nothing was recorded.
	OutcomeSkipped
	// OutcomeDropped means storage failed after retries and the event was
	// discarded. Callers log and continue; an event source must never be
	// crashed by a tracking failure.
	OutcomeDropped
)

// Result reports ingestion's outcome. The orchestrating loop decides whether
// to continue; there is no hard-error path out of ingestion.
type Result struct {
	Outcome Outcome
	Reason  string
	Status  models.Status
	Pending int
}

// Applied reports whether the event was persisted.
func (r Result) Applied() bool { return r.Outcome == OutcomeApplied }

// PaneResolver resolves tmux metadata for a pane id. Failures degrade to an
// info carrying only the pane id.
type PaneResolver interface {
	PaneInfo(ctx context.Context, pane string) tmux.PaneInfo
}

// Ingestor is the single writer contract for the session store. Both the
// synchronous hook path and the bridge watcher converge here.
type Ingestor struct {
	store *store.Store
	panes PaneResolver
	log   *logrus.Entry
	now   func() time.Time
}

// New creates an Ingestor. panes may be nil when tmux is unavailable; pane
// metadata is then left empty.
func New(st *store.Store, panes PaneResolver, log *logrus.Entry) *Ingestor {
	return &Ingestor{
		store: st,
		panes: panes,
		log:   log,
		now:   time.Now,
	}
}

// Ingest validates a raw event, resolves its pane, runs the state machine,
// and persists the merged session row plus an event log entry as one atomic
// unit.
//
// paneOverride takes precedence over ambient pane discovery; the bridge uses
// it to attach container sessions to their host-side pane.
func (in *Ingestor) Ingest(ctx context.Context, raw *models.HookEvent, source, paneOverride string) Result {
	if raw == nil || raw.SessionID == "" {
		in.log.WithField("source", source).Warn("Skipping event without session_id")
		return Result{Outcome: OutcomeSkipped, Reason: "missing session_id"}
	}

	eventType := raw.EventType()
	now := in.now()

	pane := paneOverride
	if pane == "" {
		pane = tmux.CurrentPane()
	}
	info := tmux.PaneInfo{Pane: pane}
	if pane != "" && in.panes != nil {
		info = in.panes.PaneInfo(ctx, pane)
	}

	detail := extractDetail(raw)

	var result Result
	err := in.store.Update(ctx, func(tx *store.Tx) error {
		sess, err := tx.Session(raw.SessionID)
		if err != nil {
			return err
		}

		isNew := sess == nil
		if isNew {
			sess = &models.Session{
				ID:        raw.SessionID,
				Status:    models.StatusActive,
				StartedAt: now,
			}
			// A new session on an occupied pane supersedes the previous
			// occupant.
			if info.Pane != "" {
				if err := tx.ReclaimPane(info.Pane, sess.ID); err != nil {
					return err
				}
			}
		}

		trans := Next(eventType, raw.NotificationType, sess.PendingPermissions, sess.Status)

		in.merge(sess, raw, info, detail, source, now)
		sess.Status = trans.Status
		sess.PendingPermissions = trans.Pending

		if err := tx.PutSession(sess); err != nil {
			return err
		}
		if err := tx.AppendEvent(models.Event{
			SessionID: sess.ID,
			Timestamp: now,
			EventType: eventType,
			ToolName:  raw.ToolName,
			Detail:    detail,
		}); err != nil {
			return err
		}

		result = Result{Outcome: OutcomeApplied, Status: trans.Status, Pending: trans.Pending}
		return nil
	})
	if err != nil {
		in.log.WithError(err).WithFields(logrus.Fields{
			"session_id": raw.SessionID,
			"event":      eventType,
		}).Error("Dropping event: store update failed")
		return Result{Outcome: OutcomeDropped, Reason: err.Error()}
	}

	return result
}

// merge applies the incoming event's fields onto the session row. Metadata
// fields are overwritten only when the event carries a value; activity fields
// are always overwritten.
func (in *Ingestor) merge(sess *models.Session, raw *models.HookEvent, info tmux.PaneInfo, detail, source string, now time.Time) {
	if source != "" {
		sess.Source = source
	}
	if info.Pane != "" {
		sess.TmuxPane = info.Pane
	}
	if info.Window != "" {
		sess.TmuxWindow = info.Window
	}
	if info.Session != "" {
		sess.TmuxSession = info.Session
	}
	if raw.Model != "" {
		sess.Model = raw.Model
	}
	if raw.CWD != "" {
		sess.ProjectDir = raw.CWD
	}
	if raw.TranscriptPath != "" {
		sess.TranscriptPath = raw.TranscriptPath
	}

	if raw.EventType() == models.EventUserPromptSubmit {
		prompt := truncate(raw.Prompt, promptBudget)
		sess.LastPrompt = prompt
		sess.LastDetail = truncate(prompt, detailBudget)
		sess.PromptCount++
	} else if raw.ToolName != "" {
		sess.LastTool = raw.ToolName
		if detail != "" {
			sess.LastDetail = detail
		}
		sess.ToolCount++
	}

	sess.LastActivity = now
	sess.LastEvent = raw.EventType()
}
