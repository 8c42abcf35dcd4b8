package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mpapenbr/lapviewer/log"
)

var errUpdatesDisabled = errors.New("updates are not enabled")

// handleUpdates streams a "reload" server-sent event each time the race
// data was replaced
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	if s.updates == nil {
		writeError(w, r, http.StatusNotFound, errUpdatesDisabled)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError,
			errors.New("streaming not supported"))
		return
	}
	logger := log.GetFromContext(r.Context())
	ch := s.updates.Subscribe()
	defer s.updates.CancelSubscription(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case report, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(report)
			if err != nil {
				logger.Error("could not marshal report", log.ErrorField(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: reload\ndata: %s\n\n", data); err != nil {
				logger.Debug("client gone", log.ErrorField(err))
				return
			}
			flusher.Flush()
		}
	}
}
