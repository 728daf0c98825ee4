package syncer

import "strings"

// DisplayMode selects which halves of the dual subtitle overlay are shown.
type DisplayMode int

const (
	ModeBoth DisplayMode = iota
	ModeOriginalOnly
	ModeTranslationOnly
	ModeOff
)

func (m DisplayMode) String() string {
	switch m {
	case ModeBoth:
		return "both"
	case ModeOriginalOnly:
		return "original"
	case ModeTranslationOnly:
		return "translation"
	case ModeOff:
		return "off"
	default:
		return "both"
	}
}

// ParseDisplayMode converts a mode name to a DisplayMode; unknown names
// fall back to ModeBoth.
func ParseDisplayMode(name string) DisplayMode {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "original":
		return ModeOriginalOnly
	case "translation":
		return ModeTranslationOnly
	case "off":
		return ModeOff
	default:
		return ModeBoth
	}
}

// PlaybackSource exposes the host player's clock and seek control.
// CurrentTime must be monotonically advancing while playing.
type PlaybackSource interface {
	CurrentTime() float64
	SeekTo(seconds float64)
}

// WordSpan is one independently addressable word unit in a rendered line.
// LineStart always carries the parent line's start time so a click can
// seek; Start/End are per-word and only meaningful when Timed is true.
type WordSpan struct {
	Text      string  `json:"text"`
	LineStart float64 `json:"lineStart"`
	Start     float64 `json:"start,omitempty"`
	End       float64 `json:"end,omitempty"`
	Timed     bool    `json:"timed"`
}

// Frame is what the renderer receives: the currently active line broken
// into word spans, or a hidden frame when nothing is active or the overlay
// is off.
type Frame struct {
	Index       int         `json:"index"`
	Mode        DisplayMode `json:"-"`
	ModeName    string      `json:"mode"`
	Visible     bool        `json:"visible"`
	Original    string      `json:"original,omitempty"`
	Translation string      `json:"translation,omitempty"`
	Words       []WordSpan  `json:"words,omitempty"`
}

// Renderer consumes frames. It is invoked only when the active subtitle or
// the display mode actually changed.
type Renderer interface {
	Render(frame Frame)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(frame Frame)

func (f RenderFunc) Render(frame Frame) {
	f(frame)
}
