package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/dualsub-engine/internal/acquire"
	"github.com/MimeLyc/dualsub-engine/internal/cache"
	"github.com/MimeLyc/dualsub-engine/internal/config"
	"github.com/MimeLyc/dualsub-engine/internal/dict"
	"github.com/MimeLyc/dualsub-engine/internal/llm"
	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
	"github.com/MimeLyc/dualsub-engine/internal/syncer"
	"github.com/MimeLyc/dualsub-engine/internal/track"
	"github.com/MimeLyc/dualsub-engine/internal/translator"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

// trackSource lists the caption tracks the host page currently offers.
type trackSource interface {
	ListTracks(ctx context.Context) ([]track.Track, error)
}

// acquirer retrieves and parses subtitle data for a resolved track.
type acquirer interface {
	Acquire(ctx context.Context, tr track.Track) ([]subtitle.Line, error)
}

// Service orchestrates the translation pipeline: cache lookup, track
// resolution, acquisition, batch translation and handoff to the sync
// engine. All UI-facing operations go through here.
type Service struct {
	tracks        trackSource
	chain         acquirer
	cache         *cache.Cache
	engine        *syncer.Engine
	dictionary    *dict.Dictionary
	settings      *config.RuntimeSettingsStore
	capability    CapabilityFactory
	translatorCfg translator.Config
	notifier      Notifier
	logger        *log.Logger

	group singleflight.Group

	mu    sync.Mutex
	state State
	retry map[string]TranslationRequest
}

// Deps collects the service's collaborators.
type Deps struct {
	Tracks           trackSource
	Chain            acquirer
	Cache            *cache.Cache
	Engine           *syncer.Engine
	Dictionary       *dict.Dictionary
	Settings         *config.RuntimeSettingsStore
	Capability       CapabilityFactory
	LLM              llm.Config
	TranslatorConfig translator.Config
	Notifier         Notifier
	Logger           *log.Logger
}

func New(deps Deps) *Service {
	capability := deps.Capability
	if capability == nil {
		capability = NewCapabilityFactory(deps.LLM)
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Service{
		tracks:        deps.Tracks,
		chain:         deps.Chain,
		cache:         deps.Cache,
		engine:        deps.Engine,
		dictionary:    deps.Dictionary,
		settings:      deps.Settings,
		capability:    capability,
		translatorCfg: deps.TranslatorConfig,
		notifier:      notifier,
		logger:        deps.Logger,
		state:         State{Status: StatusIdle},
		retry:         make(map[string]TranslationRequest),
	}
}

// NewCapabilityFactory returns a factory that builds LLM-backed
// translation capabilities. Credentials, endpoint and model come from the
// runtime settings at build time; tuning parameters (max tokens,
// temperature, timeout) come from the base config, with zero values
// falling back to the documented defaults.
func NewCapabilityFactory(base llm.Config) CapabilityFactory {
	return func(settings config.RuntimeSettings) translator.Capability {
		cfg := base
		cfg.APIKey = settings.LLMAPIKey
		cfg.APIURL = settings.LLMAPIURL
		cfg.Model = settings.LLMModel
		if cfg.MaxTokens <= 0 {
			cfg.MaxTokens = 8000
		}
		if cfg.Temperature <= 0 {
			cfg.Temperature = 0.3
		}
		if cfg.Timeout <= 0 {
			cfg.Timeout = 60
		}
		client, err := llm.NewClient(&cfg)
		if err != nil {
			return translator.CapabilityFunc(func(context.Context, string, string) (string, error) {
				return "", err
			})
		}
		return translator.CapabilityFunc(client.Complete)
	}
}

// DefaultCapabilityFactory builds capabilities with default tuning.
func DefaultCapabilityFactory(settings config.RuntimeSettings) translator.Capability {
	return NewCapabilityFactory(llm.Config{})(settings)
}

// StartTranslation runs the full pipeline for one piece of content.
// Concurrent requests for the same cache key share a single execution.
func (s *Service) StartTranslation(ctx context.Context, req TranslationRequest) error {
	key, settings, err := s.resolveRequest(req)
	if err != nil {
		s.fail(req.ContentID, err)
		return err
	}

	s.setState(State{ContentID: req.ContentID, Status: StatusRunning})

	_, err, _ = s.group.Do(key.String(), func() (any, error) {
		return nil, s.translate(ctx, req, key, settings)
	})
	if err != nil {
		s.fail(req.ContentID, err)
		return err
	}
	return nil
}

// resolveRequest fills request defaults from runtime settings and builds
// the cache key.
func (s *Service) resolveRequest(req TranslationRequest) (cache.Key, config.RuntimeSettings, error) {
	if req.ContentID == "" {
		return cache.Key{}, config.RuntimeSettings{}, NewError(ErrValidation, "content id is required")
	}

	settings := s.settings.GetRuntimeSettings()
	if req.SourceLanguage == "" {
		req.SourceLanguage = settings.SourceLanguage
	}
	if req.TargetLanguage == "" {
		req.TargetLanguage = settings.TargetLanguage
	}

	srcCode, ok := track.LangCodes[req.SourceLanguage]
	if !ok {
		return cache.Key{}, settings, NewError(ErrValidation, "unknown source language").WithContext("language", req.SourceLanguage)
	}
	tgtCode, ok := track.LangCodes[req.TargetLanguage]
	if !ok {
		return cache.Key{}, settings, NewError(ErrValidation, "unknown target language").WithContext("language", req.TargetLanguage)
	}

	key := cache.Key{
		ContentID:  req.ContentID,
		SourceLang: srcCode,
		TargetLang: tgtCode,
		Model:      settings.LLMModel,
	}
	return key, settings, nil
}

func (s *Service) translate(ctx context.Context, req TranslationRequest, key cache.Key, settings config.RuntimeSettings) error {
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logf("cache read failed for %s: %v", key.String(), err)
	} else if ok {
		s.activate(req.ContentID, cached, "")
		s.notifier.Notify(Notification{Message: "Subtitles loaded from cache", Severity: SeveritySuccess})
		return nil
	}

	s.notifier.Notify(Notification{
		Message:  fmt.Sprintf("Translating subtitles to %s...", req.TargetLanguage),
		Severity: SeverityInfo,
	})

	tracks, err := s.tracks.ListTracks(ctx)
	if err != nil {
		return WrapError(err, ErrAcquisition, "failed to list caption tracks")
	}
	if len(tracks) == 0 {
		return NewError(ErrNoTracks, "no caption tracks available").WithContext("content", req.ContentID)
	}

	tr, note, err := track.ResolveWithFallback(tracks, req.SourceLanguage)
	if err != nil {
		return WrapError(err, ErrNoMatchingTrack, "no usable caption track").
			WithContext("available", track.Available(tracks))
	}
	if note != "" {
		s.notifier.Notify(Notification{Message: note, Severity: SeverityInfo})
	}

	lines, err := s.chain.Acquire(ctx, tr)
	if err != nil {
		switch {
		case errors.Is(err, acquire.ErrTrackEmpty):
			return WrapError(err, ErrTrackEmpty, "caption track contains no subtitles").
				WithContext("track", tr.Label())
		default:
			return WrapError(err, ErrAcquisition, "failed to retrieve subtitle data").
				WithContext("track", tr.Label())
		}
	}

	if detected := subtitle.DetectLanguage(lines); !detected.IsRoot() {
		s.logf("detected subtitle language %s for track %s", detected, tr.Label())
	}

	aligner := translator.NewAligner(s.capability(settings), s.translatorCfg)
	translated, err := aligner.TranslateAll(ctx, lines, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return s.classifyTranslationError(err, req, key)
	}

	if err := s.cache.Put(ctx, key, translated); err != nil {
		s.logf("cache write failed for %s: %v", key.String(), err)
	}

	s.activate(req.ContentID, translated, note)
	s.dropRetry(key)
	s.notifier.Notify(Notification{
		Message:  fmt.Sprintf("Translated %d subtitle lines", len(translated)),
		Severity: SeveritySuccess,
	})
	return nil
}

// classifyTranslationError maps an LLM failure to the service taxonomy
// and queues rate-limited requests for a later retry sweep.
func (s *Service) classifyTranslationError(err error, req TranslationRequest, key cache.Key) error {
	switch llm.CategoryOf(err) {
	case llm.CategoryUnauthorized:
		return WrapError(err, ErrCredential, "translation API rejected the credential")
	case llm.CategoryRateLimited:
		s.queueRetry(key, req)
		return WrapError(err, ErrRateLimited, "translation API is rate limiting")
	default:
		return WrapError(err, ErrTranslation, "translation failed")
	}
}

// activate hands finished subtitles to the sync engine and marks the
// content ready.
func (s *Service) activate(contentID string, lines []subtitle.Line, note string) {
	s.engine.SetLines(lines)
	s.engine.Start()

	s.mu.Lock()
	s.state = State{
		ContentID:    contentID,
		Status:       StatusReady,
		LineCount:    len(lines),
		TrackNote:    note,
		RetryPending: len(s.retry),
	}
	s.mu.Unlock()
}

func (s *Service) fail(contentID string, err error) {
	var engineErr *EngineError
	message := err.Error()
	status := StatusFailed
	if errors.As(err, &engineErr) {
		message = engineErr.Message
		if engineErr.Type.Retryable() {
			status = StatusRetryQueued
		}
		s.notifier.Notify(Notification{Message: Advice(engineErr.Type), Severity: SeverityError})
	} else {
		s.notifier.Notify(Notification{Message: message, Severity: SeverityError})
	}
	s.logf("translation failed for %s: %v", contentID, err)

	s.mu.Lock()
	s.state = State{
		ContentID:    contentID,
		Status:       status,
		LastError:    message,
		DisplayMode:  s.state.DisplayMode,
		RetryPending: len(s.retry),
	}
	s.mu.Unlock()
}

func (s *Service) setState(next State) {
	s.mu.Lock()
	next.DisplayMode = s.engine.Mode().String()
	next.RetryPending = len(s.retry)
	s.state = next
	s.mu.Unlock()
}

// GetState returns the current pipeline snapshot.
func (s *Service) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	state.DisplayMode = s.engine.Mode().String()
	state.RetryPending = len(s.retry)
	return state
}

// SetDisplayMode switches the overlay mode by name.
func (s *Service) SetDisplayMode(name string) {
	s.engine.SetMode(syncer.ParseDisplayMode(name))
}

// Clear drops every cached translation for the content and resets the
// engine when the content is currently active.
func (s *Service) Clear(ctx context.Context, contentID string) error {
	if contentID == "" {
		return NewError(ErrValidation, "content id is required")
	}
	if err := s.cache.Clear(ctx, contentID); err != nil {
		return fmt.Errorf("failed to clear cached subtitles: %w", err)
	}

	s.mu.Lock()
	active := s.state.ContentID == contentID
	if active {
		s.state = State{Status: StatusIdle}
	}
	s.mu.Unlock()

	if active {
		s.engine.Reset()
	}
	s.notifier.Notify(Notification{Message: "Cached subtitles cleared", Severity: SeverityInfo})
	return nil
}

// Lookup resolves a dictionary entry for the hovered token, considering
// multi-word phrases built from the following tokens.
func (s *Service) Lookup(token string, following []string) (dict.Result, bool) {
	if s.dictionary == nil {
		return dict.Result{}, false
	}
	return s.dictionary.LookupPhrase(token, following)
}

// SeekNext jumps playback to the next subtitle line.
func (s *Service) SeekNext() {
	s.engine.SeekNext()
}

// SeekPrev jumps playback to the previous subtitle line.
func (s *Service) SeekPrev() {
	s.engine.SeekPrev()
}

// Reset clears session state on content navigation. The cache is left
// intact.
func (s *Service) Reset() {
	s.engine.Reset()
	s.engine.Stop()
	s.setState(State{Status: StatusIdle})
}

func (s *Service) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Info(format, args...)
	}
}
