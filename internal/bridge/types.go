package bridge

import "encoding/json"

// Request types understood by the host-page script.
const (
	TypeListTracks  = "listTracks"
	TypeFetchURL    = "fetchUrl"
	TypeTriggerLoad = "triggerCaptionLoad"
	TypeSeek        = "seek"
)

// Request is one message sent to the host page. Every request carries a
// type tag and a correlation id the response must echo.
type Request struct {
	Type     string  `json:"type"`
	ID       string  `json:"id"`
	URL      string  `json:"url,omitempty"`
	Language string  `json:"language,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	Time     float64 `json:"time,omitempty"`
}

// Response is the host page's answer. Intercepted caption payloads arrive
// without a correlation id and are keyed by Language+Kind instead.
type Response struct {
	Type     string          `json:"type"`
	ID       string          `json:"id,omitempty"`
	Text     string          `json:"text,omitempty"`
	Tracks   json.RawMessage `json:"tracks,omitempty"`
	Language string          `json:"language,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// TypeIntercepted is the response type for payloads the host page captured
// from its own caption requests.
const TypeIntercepted = "interceptedCaptions"
