package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamPollInterval is how often the stream handler re-reads the store.
// The store has many writers (hook processes, bridge watcher) and no
// in-process change feed, so polling is the change-detection mechanism.
const streamPollInterval = 2 * time.Second

// handleStream provides Server-Sent Events with the session list. An update
// is emitted whenever the list changes, plus an initial snapshot on connect.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("SSE client connected")

	includeEnded := r.URL.Query().Get("all") == "1"

	var last []byte
	send := func() {
		sessions, err := s.store.ListSessions(r.Context(), includeEnded)
		if err != nil {
			s.logger.WithError(err).Error("Failed to list sessions for stream")
			return
		}
		data, err := json.Marshal(map[string]any{"sessions": sessions})
		if err != nil {
			return
		}
		if bytes.Equal(data, last) {
			return
		}
		last = data
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	send()

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case <-ticker.C:
			send()
		}
	}
}
