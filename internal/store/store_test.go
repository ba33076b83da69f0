package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/perchdev/perch/errors"
	"github.com/perchdev/perch/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func putSession(t *testing.T, st *Store, sess *models.Session) {
	t.Helper()
	err := st.Update(context.Background(), func(tx *Tx) error {
		return tx.PutSession(sess)
	})
	require.NoError(t, err)
}

func TestOpenCreatesSchemaAndDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "tracking.db")
	st, err := Open(path)
	require.NoError(t, err)
	defer st.Close()

	// Schema is usable right away.
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive})
	sess, err := st.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
}

func TestGetSessionNotFound(t *testing.T) {
	st := openTestStore(t)

	_, err := st.GetSession(context.Background(), "missing")
	assert.True(t, perrors.Is(err, perrors.ErrCodeSessionNotFound))
}

func TestPutSessionUpsertsRow(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	putSession(t, st, &models.Session{
		ID:           "s1",
		Status:       models.StatusActive,
		Source:       models.SourceHost,
		StartedAt:    now,
		LastActivity: now,
	})

	putSession(t, st, &models.Session{
		ID:                 "s1",
		Name:               "parser work",
		Status:             models.StatusWaiting,
		PendingPermissions: 2,
		Source:             models.SourceHost,
		StartedAt:          now,
		LastActivity:       now.Add(time.Minute),
	})

	sess, err := st.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "parser work", sess.Name)
	assert.Equal(t, models.StatusWaiting, sess.Status)
	assert.Equal(t, 2, sess.PendingPermissions)
	assert.Equal(t, now.Add(time.Minute), sess.LastActivity.Truncate(time.Second))

	sessions, err := st.ListSessions(ctx, false)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestListSessionsOrderingAndFiltering(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	putSession(t, st, &models.Session{ID: "idle", Status: models.StatusIdle, LastActivity: now})
	putSession(t, st, &models.Session{ID: "active", Status: models.StatusActive, LastActivity: now})
	putSession(t, st, &models.Session{ID: "waiting", Status: models.StatusWaiting, LastActivity: now})
	putSession(t, st, &models.Session{ID: "ended", Status: models.StatusEnded, LastActivity: now})
	putSession(t, st, &models.Session{ID: "dismissed", Status: models.StatusDismissed, LastActivity: now})
	putSession(t, st, &models.Session{ID: "pinned", Status: models.StatusIdle, IsPriority: true, LastActivity: now})

	sessions, err := st.ListSessions(ctx, false)
	require.NoError(t, err)

	var ids []string
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	// Priority first, then attention order; ended and dismissed are hidden.
	assert.Equal(t, []string{"pinned", "active", "waiting", "idle"}, ids)

	sessions, err = st.ListSessions(ctx, true)
	require.NoError(t, err)
	assert.Len(t, sessions, 5) // dismissed stays hidden even with includeEnded
	assert.Equal(t, "ended", sessions[len(sessions)-1].ID)
}

func TestForceEndIsTerminalNoOp(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusWaiting, PendingPermissions: 3})
	require.NoError(t, st.ForceEnd(ctx, "s1"))

	sess, err := st.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, sess.Status)
	assert.Equal(t, 0, sess.PendingPermissions)

	// Ending a dismissed session must not resurrect or re-end it.
	putSession(t, st, &models.Session{ID: "s2", Status: models.StatusDismissed})
	require.NoError(t, st.ForceEnd(ctx, "s2"))
	sess, err = st.GetSession(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDismissed, sess.Status)
}

func TestPendingMarkLifecycle(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusIdle})

	require.NoError(t, st.SetPending(ctx, "s1", "needs review"))
	sess, err := st.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sess.Status)
	assert.Equal(t, "needs review", sess.PendingReason)

	require.NoError(t, st.ClearPending(ctx, "s1"))
	sess, err = st.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, sess.Status)
	assert.Empty(t, sess.PendingReason)
}

func TestClearPendingOnlyFromPending(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive})
	err := st.ClearPending(ctx, "s1")
	assert.True(t, perrors.Is(err, perrors.ErrCodeSessionNotFound))

	sess, getErr := st.GetSession(ctx, "s1")
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusActive, sess.Status)
}

func TestSetNameAndPriorityRequireExistingSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	assert.True(t, perrors.Is(st.SetName(ctx, "nope", "x"), perrors.ErrCodeSessionNotFound))
	assert.True(t, perrors.Is(st.SetPriority(ctx, "nope", true), perrors.ErrCodeSessionNotFound))
	assert.True(t, perrors.Is(st.Dismiss(ctx, "nope"), perrors.ErrCodeSessionNotFound))
}

func TestSessionByPane(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	putSession(t, st, &models.Session{ID: "old", Status: models.StatusEnded, TmuxPane: "%3", LastActivity: now})
	putSession(t, st, &models.Session{ID: "current", Status: models.StatusActive, TmuxPane: "%3", LastActivity: now.Add(time.Second)})

	sess, err := st.SessionByPane(ctx, "%3")
	require.NoError(t, err)
	assert.Equal(t, "current", sess.ID)

	_, err = st.SessionByPane(ctx, "%99")
	assert.True(t, perrors.Is(err, perrors.ErrCodeSessionNotFound))
}

func TestReclaimPaneEndsOtherOccupants(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive, TmuxPane: "%3"})
	putSession(t, st, &models.Session{ID: "elsewhere", Status: models.StatusActive, TmuxPane: "%4"})

	err := st.Update(ctx, func(tx *Tx) error {
		if err := tx.ReclaimPane("%3", "s2"); err != nil {
			return err
		}
		return tx.PutSession(&models.Session{ID: "s2", Status: models.StatusActive, TmuxPane: "%3"})
	})
	require.NoError(t, err)

	s1, err := st.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, s1.Status)

	other, err := st.GetSession(ctx, "elsewhere")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, other.Status)
}

func TestAppendAndListEvents(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	err := st.Update(ctx, func(tx *Tx) error {
		for i, evType := range []string{models.EventSessionStart, models.EventUserPromptSubmit, models.EventPreToolUse} {
			ev := models.Event{
				SessionID: "s1",
				Timestamp: base.Add(time.Duration(i) * time.Second),
				EventType: evType,
			}
			if err := tx.AppendEvent(ev); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	events, err := st.RecentEvents(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	assert.Equal(t, models.EventPreToolUse, events[0].EventType)
	assert.Equal(t, models.EventUserPromptSubmit, events[1].EventType)
	assert.NotEmpty(t, events[0].ID)
}

func TestNonTerminalSessions(t *testing.T) {
	st := openTestStore(t)

	putSession(t, st, &models.Session{ID: "a", Status: models.StatusActive})
	putSession(t, st, &models.Session{ID: "b", Status: models.StatusEnded})
	putSession(t, st, &models.Session{ID: "c", Status: models.StatusPending})

	sessions, err := st.NonTerminalSessions(context.Background())
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, s := range sessions {
		ids[s.ID] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "c": true}, ids)
}
