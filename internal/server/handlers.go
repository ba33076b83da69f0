package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	perrors "github.com/perchdev/perch/errors"
)

func (s *Server) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/events/{id}", s.handleListEvents)
		r.Get("/transcript/{id}", s.handleTranscript)
		r.Get("/stream", s.handleStream)

		r.Post("/jump/{id}", s.handleJump)
		r.Post("/send/{id}", s.handleSend)
		r.Post("/dismiss/{id}", s.handleDismiss)
		r.Post("/priority/{id}", s.handlePriority)
		r.Post("/pending/{id}", s.handlePending)
		r.Post("/name/{id}", s.handleName)
	})

	return r
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	includeEnded := r.URL.Query().Get("all") == "1"
	sessions, err := s.store.ListSessions(r.Context(), includeEnded)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"sessions": sessions})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	events, err := s.store.RecentEvents(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	messages := s.transcriptMessages(r.Context(), sess)
	writeJSON(w, map[string]any{"messages": messages})
}

// handleJump focuses the tmux pane the session runs in.
func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.tmux == nil || sess.TmuxPane == "" {
		s.writeError(w, perrors.SessionHasNoPane(sess.ID))
		return
	}
	if err := s.tmux.JumpTo(r.Context(), sess.TmuxPane); err != nil {
		s.writeError(w, perrors.PaneGone(sess.TmuxPane))
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleSend types text into the session's pane, for answering a prompt
// without switching windows.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		http.Error(w, "body must carry non-empty text", http.StatusBadRequest)
		return
	}

	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.tmux == nil || sess.TmuxPane == "" {
		s.writeError(w, perrors.SessionHasNoPane(sess.ID))
		return
	}
	if err := s.tmux.SendText(r.Context(), sess.TmuxPane, req.Text); err != nil {
		s.writeError(w, perrors.PaneGone(sess.TmuxPane))
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Dismiss(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handlePriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Priority bool `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.store.SetPriority(r.Context(), chi.URLParam(r, "id"), req.Priority); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handlePending marks a session pending with a reason, or clears the mark
// when the body carries clear=true.
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
		Clear  bool   `json:"clear"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	var err error
	if req.Clear {
		err = s.store.ClearPending(r.Context(), id)
	} else {
		err = s.store.SetPending(r.Context(), id, req.Reason)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.store.SetName(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch perrors.GetCode(err) {
	case perrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case perrors.ErrCodeNoTmuxPane, perrors.ErrCodePaneGone:
		status = http.StatusConflict
	case perrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if pe, ok := err.(*perrors.PerchError); ok {
		w.Write([]byte(pe.ToJSON()))
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
