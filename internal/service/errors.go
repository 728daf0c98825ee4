package service

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorType int

const (
	ErrNoTracks ErrorType = iota
	ErrNoMatchingTrack
	ErrTrackEmpty
	ErrAcquisition
	ErrCredential
	ErrRateLimited
	ErrTranslation
	ErrValidation
	ErrUnknown
)

func (t ErrorType) String() string {
	switch t {
	case ErrNoTracks:
		return "NoTracks"
	case ErrNoMatchingTrack:
		return "NoMatchingTrack"
	case ErrTrackEmpty:
		return "TrackEmpty"
	case ErrAcquisition:
		return "Acquisition"
	case ErrCredential:
		return "Credential"
	case ErrRateLimited:
		return "RateLimited"
	case ErrTranslation:
		return "Translation"
	case ErrValidation:
		return "Validation"
	default:
		return "Unknown"
	}
}

// Retryable reports whether the failure is worth retrying automatically.
// Credential and validation failures need user intervention first.
func (t ErrorType) Retryable() bool {
	return t == ErrRateLimited
}

type EngineError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *EngineError {
	return &EngineError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func WrapError(err error, errorType ErrorType, message string) *EngineError {
	return &EngineError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   err,
	}
}

func (e *EngineError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

func (e *EngineError) WithContext(key string, value any) *EngineError {
	e.Context[key] = value
	return e
}

func IsErrorType(err error, errorType ErrorType) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Type == errorType
	}
	return false
}

// Advice returns a short user-facing hint for an error type.
func Advice(errorType ErrorType) string {
	switch errorType {
	case ErrNoTracks:
		return "No caption tracks were found for this content; it may not have subtitles"
	case ErrNoMatchingTrack:
		return "No caption track matches the configured language; a substitute was not available"
	case ErrTrackEmpty:
		return "The caption track exists but produced no usable subtitle lines"
	case ErrAcquisition:
		return "Subtitle data could not be retrieved; check that playback has started and try again"
	case ErrCredential:
		return "The translation API key is missing or rejected; check the settings"
	case ErrRateLimited:
		return "The translation service is rate limiting requests; the request will be retried shortly"
	case ErrTranslation:
		return "The translation service returned an error; check its status and try again"
	case ErrValidation:
		return "The request is missing required fields"
	default:
		return "Check the logs for details"
	}
}
