package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MimeLyc/dualsub-engine/internal/service"
	"github.com/MimeLyc/dualsub-engine/internal/syncer"
)

// statusEvent is one status stream payload: the pipeline state, the latest
// rendered frame and any notifications since the previous event.
type statusEvent struct {
	State         service.State             `json:"state"`
	Frame         syncer.Frame              `json:"frame"`
	Notifications []timestampedNotification `json:"notifications,omitempty"`
}

func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var lastFrameSeq uint64
	var lastNoteSeq uint64
	first := true

	send := func() bool {
		frame, frameSeq := s.hub.snapshot()
		notes, noteSeq := s.hub.since(lastNoteSeq)
		if !first && frameSeq == lastFrameSeq && len(notes) == 0 {
			return true
		}
		first = false
		lastFrameSeq = frameSeq
		lastNoteSeq = noteSeq

		payload, err := json.Marshal(statusEvent{
			State:         s.service.GetState(),
			Frame:         frame,
			Notifications: notes,
		})
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
