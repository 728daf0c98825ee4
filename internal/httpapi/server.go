package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/MimeLyc/dualsub-engine/internal/bridge"
	"github.com/MimeLyc/dualsub-engine/internal/config"
	"github.com/MimeLyc/dualsub-engine/internal/service"
	"github.com/MimeLyc/dualsub-engine/internal/syncer"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() config.RuntimeSettings
	UpdateRuntimeSettings(ctx context.Context, next config.RuntimeSettings) (config.RuntimeSettings, error)
}

// Server exposes the engine to its two HTTP collaborators: the UI (state,
// translate, settings, lookup) and the host-page script (bridge long-poll,
// playback reports).
type Server struct {
	service  *service.Service
	queue    *BridgeQueue
	playback *PlaybackState
	respond  func(resp bridge.Response)
	settings runtimeSettingsStore
	logger   *log.Logger

	hub *StatusHub

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithRuntimeSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(svc *service.Service, queue *BridgeQueue, playback *PlaybackState, respond func(resp bridge.Response), hub *StatusHub, opts ...Option) *Server {
	if hub == nil {
		hub = NewStatusHub()
	}
	s := &Server{
		service:  svc,
		queue:    queue,
		playback: playback,
		respond:  respond,
		hub:      hub,
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/translate", s.handleTranslate)
	s.mux.HandleFunc("/api/state", s.handleState)
	s.mux.HandleFunc("/api/display-mode", s.handleDisplayMode)
	s.mux.HandleFunc("/api/seek", s.handleSeek)
	s.mux.HandleFunc("/api/clear", s.handleClear)
	s.mux.HandleFunc("/api/lookup", s.handleLookup)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/api/status/stream", s.handleStatusStream)
	s.mux.HandleFunc("/api/bridge/requests", s.handleBridgeRequests)
	s.mux.HandleFunc("/api/bridge/respond", s.handleBridgeRespond)
	s.mux.HandleFunc("/api/playback/time", s.handlePlaybackTime)
}

// StatusHub is the shared sink between the sync engine, the service layer
// and the status stream: the engine writes rendered frames into it, the
// service writes notifications, and SSE subscribers read both. It exists
// independently of the Server so it can be wired before either side.
type StatusHub struct {
	mu    sync.Mutex
	frame syncer.Frame
	seq   uint64

	noteLimit int
	notes     []timestampedNotification
	noteSeq   uint64
}

type timestampedNotification struct {
	service.Notification
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
}

func NewStatusHub() *StatusHub {
	return &StatusHub{
		frame:     syncer.Frame{Index: -1, ModeName: syncer.ModeBoth.String()},
		noteLimit: 32,
	}
}

// Render implements syncer.Renderer.
func (h *StatusHub) Render(frame syncer.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = frame
	h.seq++
}

// Notify implements service.Notifier. A bounded buffer keeps recent
// notifications for subscribers that connect late.
func (h *StatusHub) Notify(n service.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.noteSeq++
	h.notes = append(h.notes, timestampedNotification{Notification: n, Seq: h.noteSeq, Time: time.Now()})
	if len(h.notes) > h.noteLimit {
		h.notes = h.notes[len(h.notes)-h.noteLimit:]
	}
}

func (h *StatusHub) snapshot() (syncer.Frame, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.seq
}

// since returns the notifications newer than the given sequence number and
// the latest sequence seen.
func (h *StatusHub) since(seq uint64) ([]timestampedNotification, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []timestampedNotification
	for _, n := range h.notes {
		if n.Seq > seq {
			out = append(out, n)
		}
	}
	return out, h.noteSeq
}
