// Package reconcile repairs session state left dangling by a host reboot or
// crash where no SessionEnd event was ever delivered.
package reconcile

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/pkg/tmux"
)

// PaneLister enumerates the currently live tmux panes.
type PaneLister interface {
	ListPanes(ctx context.Context) ([]tmux.LivePane, error)
}

// Run performs the one-shot stale-session sweep at viewer startup: every
// non-terminal session whose recorded pane is gone (or that never had one)
// is force-ended.
//
// The sweep runs outside any ingestion transaction. Interleaving with
// concurrent ingestion is safe because it only ever moves sessions toward
// the terminal state.
func Run(ctx context.Context, st *store.Store, panes PaneLister, log *logrus.Entry) error {
	pairs := make(map[string]struct{})
	paneIDs := make(map[string]struct{})

	if panes != nil {
		live, err := panes.ListPanes(ctx)
		if err != nil {
			// No reachable tmux server means no live panes: every session
			// with a recorded pane is an orphan.
			log.WithError(err).Debug("Listing panes failed, treating all panes as dead")
		}
		for _, p := range live {
			pairs[p.Session+"\x00"+p.Pane] = struct{}{}
			paneIDs[p.Pane] = struct{}{}
		}
	}

	sessions, err := st.NonTerminalSessions(ctx)
	if err != nil {
		return err
	}

	ended := 0
	for _, sess := range sessions {
		if isLive(sess.TmuxSession, sess.TmuxPane, pairs, paneIDs) {
			continue
		}
		if err := st.ForceEnd(ctx, sess.ID); err != nil {
			log.WithError(err).WithField("session_id", sess.ID).Warn("Failed to end stale session")
			continue
		}
		ended++
	}

	if ended > 0 {
		log.WithField("count", ended).Info("Ended stale sessions")
	}
	return nil
}

// isLive reports whether the recorded liveness handle still exists. Sessions
// recorded without a surface group match on pane id alone (pane ids are
// unique server-wide).
func isLive(group, pane string, pairs, paneIDs map[string]struct{}) bool {
	if pane == "" {
		return false
	}
	if group == "" {
		_, ok := paneIDs[pane]
		return ok
	}
	_, ok := pairs[group+"\x00"+pane]
	return ok
}
