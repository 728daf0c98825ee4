package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Message represents a chat message.
// Role is "system", "user", or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request in the OpenAI API format.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse represents a chat completion response.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
	Error   *Error   `json:"error,omitempty"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorCategory classifies an API failure by how the user should react.
type ErrorCategory int

const (
	// CategoryService covers generic non-success responses; the raw status
	// is surfaced for diagnostics.
	CategoryService ErrorCategory = iota
	// CategoryUnauthorized means a missing or rejected credential; not
	// retryable without reconfiguration.
	CategoryUnauthorized
	// CategoryRateLimited suggests a wait-and-retry.
	CategoryRateLimited
)

// Error represents an API error, carrying the HTTP status it arrived with.
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`

	status int
}

// NewStatusError builds an Error carrying an HTTP status, used when the
// response body had no structured error payload.
func NewStatusError(status int, message string) *Error {
	return &Error{Message: message, status: status}
}

func (e *Error) Error() string {
	if e.status != 0 {
		return fmt.Sprintf("LLM API error (status %d): %s", e.status, e.Message)
	}
	return fmt.Sprintf("LLM API error: %s", e.Message)
}

// Status returns the HTTP status the error arrived with, 0 if unknown.
func (e *Error) Status() int {
	return e.status
}

// Category classifies the error.
func (e *Error) Category() ErrorCategory {
	switch e.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return CategoryUnauthorized
	case http.StatusTooManyRequests:
		return CategoryRateLimited
	default:
		return CategoryService
	}
}

// CategoryOf extracts the category from any error chain; plain errors are
// generic service failures.
func CategoryOf(err error) ErrorCategory {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Category()
	}
	return CategoryService
}
