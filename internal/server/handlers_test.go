package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perchdev/perch/internal/store"
	"github.com/perchdev/perch/internal/transcript"
	"github.com/perchdev/perch/pkg/models"
	"github.com/perchdev/perch/testutil"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	st := testutil.OpenStore(t)
	return New(st, nil, testutil.SilentLogger(), ""), st
}

func putSession(t *testing.T, st *store.Store, sess *models.Session) {
	t.Helper()
	require.NoError(t, st.Update(context.Background(), func(tx *store.Tx) error {
		return tx.PutSession(sess)
	}))
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestListSessionsEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive})
	putSession(t, st, &models.Session{ID: "s2", Status: models.StatusEnded})

	rec := doRequest(t, s, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sessions []models.Session `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, "s1", resp.Sessions[0].ID)

	rec = doRequest(t, s, http.MethodGet, "/api/sessions?all=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Sessions, 2)
}

func TestGetSessionEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive, Name: "parser"})

	rec := doRequest(t, s, http.MethodGet, "/api/sessions/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sess models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, "parser", sess.Name)

	rec = doRequest(t, s, http.MethodGet, "/api/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDismissEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusIdle})

	rec := doRequest(t, s, http.MethodPost, "/api/dismiss/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := st.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDismissed, sess.Status)
}

func TestPriorityEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusIdle})

	rec := doRequest(t, s, http.MethodPost, "/api/priority/s1", `{"priority":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := st.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sess.IsPriority)

	rec = doRequest(t, s, http.MethodPost, "/api/priority/s1", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPendingEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusIdle})

	rec := doRequest(t, s, http.MethodPost, "/api/pending/s1", `{"reason":"waiting on review"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := st.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sess.Status)
	assert.Equal(t, "waiting on review", sess.PendingReason)

	rec = doRequest(t, s, http.MethodPost, "/api/pending/s1", `{"clear":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err = st.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusIdle, sess.Status)
}

func TestJumpWithoutTmux(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive, TmuxPane: "%1"})

	rec := doRequest(t, s, http.MethodPost, "/api/jump/s1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendRequiresText(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive})

	rec := doRequest(t, s, http.MethodPost, "/api/send/s1", `{"text":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEventsEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	require.NoError(t, st.Update(context.Background(), func(tx *store.Tx) error {
		return tx.AppendEvent(models.Event{SessionID: "s1", EventType: models.EventStop})
	}))

	rec := doRequest(t, s, http.MethodGet, "/api/events/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Events []models.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, models.EventStop, resp.Events[0].EventType)
}

func TestTranscriptReadsThroughContainer(t *testing.T) {
	t.Setenv("PERCH_HOME", t.TempDir())
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{
		ID:             "s1",
		Status:         models.StatusActive,
		Source:         "container:box1",
		TranscriptPath: "/home/node/.claude/t.jsonl",
	})

	var gotContainer, gotPath string
	s.readContainerFile = func(_ context.Context, container, path string) ([]byte, error) {
		gotContainer, gotPath = container, path
		return []byte(`{"message":{"role":"assistant","content":"done"}}` + "\n"), nil
	}

	rec := doRequest(t, s, http.MethodGet, "/api/transcript/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "box1", gotContainer)
	// Outside every bridge dir the path passes through unchanged.
	assert.Equal(t, "/home/node/.claude/t.jsonl", gotPath)

	var resp struct {
		Messages []transcript.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "done", resp.Messages[0].Content)
}

func TestTranscriptHostSessionNeverUsesDocker(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{
		ID:             "s1",
		Status:         models.StatusActive,
		Source:         models.SourceHost,
		TranscriptPath: "/does/not/exist.jsonl",
	})

	s.readContainerFile = func(context.Context, string, string) ([]byte, error) {
		t.Fatal("host session read through container")
		return nil, nil
	}

	rec := doRequest(t, s, http.MethodGet, "/api/transcript/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestContainerTranscriptPathMapping(t *testing.T) {
	dirs := []string{"/home/u/proj"}

	assert.Equal(t, "/workspace/.claude/t.jsonl",
		containerTranscriptPath("/home/u/proj/.claude/t.jsonl", dirs))
	assert.Equal(t, "/home/node/.claude/t.jsonl",
		containerTranscriptPath("/home/node/.claude/t.jsonl", dirs))
	// Sibling dirs sharing a name prefix do not match.
	assert.Equal(t, "/home/u/proj2/t.jsonl",
		containerTranscriptPath("/home/u/proj2/t.jsonl", dirs))
}

func TestNameEndpoint(t *testing.T) {
	s, st := newTestServer(t)
	putSession(t, st, &models.Session{ID: "s1", Status: models.StatusActive})

	rec := doRequest(t, s, http.MethodPost, "/api/name/s1", `{"name":"backend refactor"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	sess, err := st.GetSession(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "backend refactor", sess.Name)
}
