package service

import (
	"github.com/MimeLyc/dualsub-engine/internal/config"
	"github.com/MimeLyc/dualsub-engine/internal/translator"
)

// Severity levels carried on user-facing notifications.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a short status message pushed to the UI collaborator.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Notifier receives asynchronous status notifications. Implementations
// must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// TranslationRequest identifies one piece of content to translate.
// Language names are human-readable table keys, not ISO codes; blank
// fields fall back to the runtime settings.
type TranslationRequest struct {
	ContentID      string `json:"content_id"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// TranslationStatus describes where a content's translation stands.
type TranslationStatus string

const (
	StatusIdle        TranslationStatus = "idle"
	StatusRunning     TranslationStatus = "running"
	StatusReady       TranslationStatus = "ready"
	StatusFailed      TranslationStatus = "failed"
	StatusRetryQueued TranslationStatus = "retry_queued"
)

// State is the queryable snapshot the UI polls.
type State struct {
	ContentID    string            `json:"content_id"`
	Status       TranslationStatus `json:"status"`
	LineCount    int               `json:"line_count"`
	DisplayMode  string            `json:"display_mode"`
	TrackNote    string            `json:"track_note,omitempty"`
	LastError    string            `json:"last_error,omitempty"`
	RetryPending int               `json:"retry_pending"`
}

// CapabilityFactory builds a translation capability from the current
// runtime settings. Rebuilding per request makes settings changes take
// effect without a restart.
type CapabilityFactory func(settings config.RuntimeSettings) translator.Capability
