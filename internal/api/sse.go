package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/events"
)

const sseKeepAliveInterval = 25 * time.Second

// streamEvents serves change events as server-sent events, filtered to the
// sport in the path and, optionally, the date query parameter.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	sport, ok := s.parseSport(w, r)
	if !ok {
		return
	}
	if s.hub == nil {
		writeError(w, http.StatusNotImplemented, "event streaming is not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	date := r.URL.Query().Get("date")
	sub := s.hub.Subscribe(events.Filter{Sport: string(sport), GameDate: date})
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt, open := <-sub.C:
			if !open {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				s.logger.Warn("marshal change event for stream", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: game_change\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
