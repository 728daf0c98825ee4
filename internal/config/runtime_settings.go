package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/dualsub-engine/internal/track"
)

// SettingsKey is the storage key runtime settings are persisted under.
const SettingsKey = "runtime_settings"

// RuntimeSettings are the options the UI may change while the engine is
// running. They override the environment configuration.
type RuntimeSettings struct {
	LLMAPIURL      string `json:"llm_api_url"`
	LLMAPIKey      string `json:"llm_api_key"`
	LLMModel       string `json:"llm_model"`
	TargetLanguage string `json:"target_language"`
	SourceLanguage string `json:"source_language"`
	RetryCron      string `json:"retry_cron"`
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.LLMAPIURL) == "" {
		return fmt.Errorf("llm_api_url is required")
	}
	if strings.TrimSpace(s.LLMAPIKey) == "" {
		return fmt.Errorf("llm_api_key is required")
	}
	if strings.TrimSpace(s.LLMModel) == "" {
		return fmt.Errorf("llm_model is required")
	}
	if strings.TrimSpace(s.RetryCron) == "" {
		return fmt.Errorf("retry_cron is required")
	}
	if _, err := cron.ParseStandard(s.RetryCron); err != nil {
		return fmt.Errorf("invalid retry_cron: %w", err)
	}
	if strings.TrimSpace(s.TargetLanguage) == "" {
		return fmt.Errorf("target_language is required")
	}
	if _, ok := track.LangCodes[s.TargetLanguage]; !ok {
		return fmt.Errorf("unknown target_language: %s", s.TargetLanguage)
	}
	if s.SourceLanguage != "" {
		if _, ok := track.LangCodes[s.SourceLanguage]; !ok {
			return fmt.Errorf("unknown source_language: %s", s.SourceLanguage)
		}
	}
	return nil
}

// RuntimeSettings derives the mutable settings view from the full config.
func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		LLMAPIURL:      c.LLM.APIURL,
		LLMAPIKey:      c.LLM.APIKey,
		LLMModel:       c.LLM.Model,
		TargetLanguage: c.Translate.TargetLanguage,
		SourceLanguage: c.Translate.SourceLanguage,
		RetryCron:      c.Translate.RetryCron,
	}
}

// WithRuntimeSettings overrides config fields from persisted settings.
// Blank fields keep the environment value.
func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.LLMAPIURL) != "" {
			c.LLM.APIURL = settings.LLMAPIURL
		}
		if strings.TrimSpace(settings.LLMAPIKey) != "" {
			c.LLM.APIKey = settings.LLMAPIKey
		}
		if strings.TrimSpace(settings.LLMModel) != "" {
			c.LLM.Model = settings.LLMModel
		}
		if strings.TrimSpace(settings.RetryCron) != "" {
			c.Translate.RetryCron = settings.RetryCron
		}
		if _, ok := track.LangCodes[settings.TargetLanguage]; ok {
			c.Translate.TargetLanguage = settings.TargetLanguage
		}
		if _, ok := track.LangCodes[settings.SourceLanguage]; ok {
			c.Translate.SourceLanguage = settings.SourceLanguage
		}
	}
}

// SettingsBackend is the persistent key/value surface settings live in.
type SettingsBackend interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// RuntimeSettingsStore keeps the current runtime settings in memory and
// writes every accepted update through to the backend.
type RuntimeSettingsStore struct {
	backend SettingsBackend

	mu      sync.RWMutex
	current RuntimeSettings
}

// NewRuntimeSettingsStore seeds the store with initial settings. A
// persisted value in the backend, when present and valid, wins over the
// seed.
func NewRuntimeSettingsStore(ctx context.Context, backend SettingsBackend, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("settings backend is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}

	store := &RuntimeSettingsStore{backend: backend, current: initial}

	raw, ok, err := backend.GetSetting(ctx, SettingsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted settings: %w", err)
	}
	if ok {
		var persisted RuntimeSettings
		if err := json.Unmarshal([]byte(raw), &persisted); err == nil {
			if persisted.Validate() == nil {
				store.current = persisted
			}
		}
	}
	return store, nil
}

func (s *RuntimeSettingsStore) GetRuntimeSettings() RuntimeSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *RuntimeSettingsStore) UpdateRuntimeSettings(ctx context.Context, next RuntimeSettings) (RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return RuntimeSettings{}, err
	}

	content, err := json.Marshal(next)
	if err != nil {
		return RuntimeSettings{}, err
	}
	if err := s.backend.SetSetting(ctx, SettingsKey, string(content)); err != nil {
		return RuntimeSettings{}, fmt.Errorf("failed to persist settings: %w", err)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
