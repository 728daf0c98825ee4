package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MimeLyc/dualsub-engine/internal/bridge"
	"github.com/MimeLyc/dualsub-engine/internal/config"
	"github.com/MimeLyc/dualsub-engine/internal/service"
)

// bridgeLongPollWait bounds how long /api/bridge/requests blocks before
// returning an empty batch.
const bridgeLongPollWait = 25 * time.Second

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req service.TranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The pipeline outlives the HTTP request; results arrive on the
	// status stream. A detached context keeps the pipeline alive after
	// this handler returns.
	go func() {
		if err := s.service.StartTranslation(context.Background(), req); err != nil {
			s.logf("translation request failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.service.GetState())
}

func (s *Server) handleDisplayMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mode == "" {
		writeError(w, http.StatusBadRequest, "missing display mode")
		return
	}

	s.service.SetDisplayMode(req.Mode)
	writeJSON(w, http.StatusOK, s.service.GetState())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Direction string   `json:"direction,omitempty"`
		Time      *float64 `json:"time,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.Time != nil:
		s.playback.SeekTo(*req.Time)
	case req.Direction == "next":
		s.service.SeekNext()
	case req.Direction == "prev":
		s.service.SeekPrev()
	default:
		writeError(w, http.StatusBadRequest, "need a direction or a time")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ContentID string `json:"content_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID == "" {
		writeError(w, http.StatusBadRequest, "missing content id")
		return
	}

	if err := s.service.Clear(r.Context(), req.ContentID); err != nil {
		var engineErr *service.EngineError
		if errors.As(err, &engineErr) && engineErr.Type == service.ErrValidation {
			writeError(w, http.StatusBadRequest, engineErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	following := r.URL.Query()["following"]
	expanded, _ := strconv.ParseBool(r.URL.Query().Get("expanded"))

	result, ok := s.service.Lookup(token, following)
	if !ok {
		writeError(w, http.StatusNotFound, "no dictionary entry")
		return
	}
	// Collapsed lookups carry only the primary sense; the full sense list
	// is returned when the client asks for the expanded view.
	if !expanded {
		result.Entry.Defs = nil
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotFound, "settings not available")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, redactSettings(s.settings.GetRuntimeSettings()))
	case http.MethodPut, http.MethodPost:
		current := s.settings.GetRuntimeSettings()
		next := current
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		// A redacted key echoed back by the UI means "keep the current one".
		if next.LLMAPIKey == redactedKey {
			next.LLMAPIKey = current.LLMAPIKey
		}
		saved, err := s.settings.UpdateRuntimeSettings(r.Context(), next)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, redactSettings(saved))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleBridgeRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	requests := s.queue.Take(r.Context(), bridgeLongPollWait)
	if requests == nil {
		requests = []bridge.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleBridgeRespond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var resp bridge.Response
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.respond(resp)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handlePlaybackTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Time    float64 `json:"time"`
		Playing bool    `json:"playing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.playback.Report(req.Time, req.Playing)
	w.WriteHeader(http.StatusNoContent)
}

const redactedKey = "********"

// redactSettings hides the API key in responses; the UI echoes the
// placeholder back to keep the stored key.
func redactSettings(settings config.RuntimeSettings) config.RuntimeSettings {
	if settings.LLMAPIKey != "" {
		settings.LLMAPIKey = redactedKey
	}
	return settings
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(format, args...)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
