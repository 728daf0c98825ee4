package syncer

import (
	"strings"
	"sync"
	"time"

	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

const (
	// tickInterval is how often the playback clock is sampled.
	tickInterval = 100 * time.Millisecond

	// trailingGrace keeps the last subtitle visible this long past its
	// nominal end before the overlay clears.
	trailingGrace = 2.0

	// seekBuffer is how far past the current position a line must start
	// to count as the next one, and how far into a line playback must be
	// before "previous" targets the line's own start.
	seekBuffer = 0.5
)

// Engine drives the overlay: it samples the playback clock on a fixed
// interval, resolves the active subtitle line and pushes a frame to the
// renderer whenever the active line or display mode changes.
type Engine struct {
	playback PlaybackSource
	renderer Renderer
	logger   *log.Logger

	mu        sync.Mutex
	lines     []subtitle.Line
	mode      DisplayMode
	lastIndex int
	lastMode  DisplayMode
	rendered  bool

	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewEngine builds an engine over the given playback source and renderer.
func NewEngine(playback PlaybackSource, renderer Renderer, logger *log.Logger) *Engine {
	return &Engine{
		playback:  playback,
		renderer:  renderer,
		logger:    logger,
		mode:      ModeBoth,
		lastIndex: -2,
	}
}

// SetLines replaces the subtitle track the engine follows. The next tick
// re-resolves the active line against the new track.
func (e *Engine) SetLines(lines []subtitle.Line) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = make([]subtitle.Line, len(lines))
	copy(e.lines, lines)
	e.lastIndex = -2
	e.rendered = false
}

// Lines returns a copy of the current track.
func (e *Engine) Lines() []subtitle.Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]subtitle.Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// SetMode switches the display mode. The change takes effect on the next
// tick; switching to ModeOff emits one hidden frame and then suppresses
// further rendering until the mode changes again.
func (e *Engine) SetMode(mode DisplayMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if mode != e.mode {
		e.mode = mode
		e.rendered = false
	}
}

// Mode returns the current display mode.
func (e *Engine) Mode() DisplayMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Start launches the polling loop. Calling Start on a running engine is a
// no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go e.loop(e.stop, e.done)
	if e.logger != nil {
		e.logger.Debug("sync engine started")
	}
}

// Stop halts the polling loop and waits for it to exit. Calling Stop on a
// stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stop, done := e.stop, e.done
	e.mu.Unlock()

	close(stop)
	<-done
	if e.logger != nil {
		e.logger.Debug("sync engine stopped")
	}
}

// Reset clears the track and rendering state so the next SetLines starts
// from scratch.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lines = nil
	e.lastIndex = -2
	e.rendered = false
}

func (e *Engine) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.Tick(e.playback.CurrentTime())
		}
	}
}

// Tick resolves the active line for the given playback time and renders a
// frame if the result differs from the previously rendered one. It is the
// loop body, exposed for direct invocation.
func (e *Engine) Tick(now float64) {
	e.mu.Lock()
	index := activeIndex(e.lines, now)
	mode := e.mode
	if e.rendered && index == e.lastIndex && mode == e.lastMode {
		e.mu.Unlock()
		return
	}
	if e.rendered && mode == ModeOff && e.lastMode == ModeOff {
		// One hidden frame was already emitted for this mode.
		e.lastIndex = index
		e.mu.Unlock()
		return
	}
	var line subtitle.Line
	if index >= 0 {
		line = e.lines[index]
	}
	e.lastIndex = index
	e.lastMode = mode
	e.rendered = true
	e.mu.Unlock()

	e.renderer.Render(buildFrame(index, line, mode))
}

// SeekNext jumps playback to the start of the next line, skipping lines
// that begin within the seek buffer of the current position.
func (e *Engine) SeekNext() {
	now := e.playback.CurrentTime()
	e.mu.Lock()
	var target float64
	found := false
	for _, line := range e.lines {
		if line.Start > now+seekBuffer {
			target = line.Start
			found = true
			break
		}
	}
	e.mu.Unlock()
	if found {
		e.playback.SeekTo(target)
	}
}

// SeekPrev jumps playback to the start of the line preceding the currently
// active one, or to the start of the active line when playback is already
// past its opening by more than the seek buffer.
func (e *Engine) SeekPrev() {
	now := e.playback.CurrentTime()
	e.mu.Lock()
	var target float64
	found := false
	for i := len(e.lines) - 1; i >= 0; i-- {
		if e.lines[i].Start < now-seekBuffer {
			target = e.lines[i].Start
			found = true
			break
		}
	}
	e.mu.Unlock()
	if found {
		e.playback.SeekTo(target)
	}
}

// activeIndex returns the index of the line that should be displayed at
// time t: the latest line whose start is at or before t. Past the final
// line's end a short grace period applies before -1 is returned.
func activeIndex(lines []subtitle.Line, t float64) int {
	active := -1
	for i, line := range lines {
		if line.Start <= t {
			active = i
		} else {
			break
		}
	}
	if active == len(lines)-1 && active >= 0 {
		last := lines[active]
		if t > last.End()+trailingGrace {
			return -1
		}
	}
	return active
}

func buildFrame(index int, line subtitle.Line, mode DisplayMode) Frame {
	frame := Frame{
		Index:    index,
		Mode:     mode,
		ModeName: mode.String(),
	}
	if index < 0 || mode == ModeOff {
		return frame
	}
	frame.Visible = true
	if mode == ModeBoth || mode == ModeOriginalOnly {
		frame.Original = line.Text
		frame.Words = wordSpans(line)
	}
	if mode == ModeBoth || mode == ModeTranslationOnly {
		frame.Translation = line.Translation
	}
	return frame
}

// wordSpans breaks the original line into word units. Explicit word timing
// is used when present; otherwise the text is split on whitespace and the
// spans inherit the line's start only.
func wordSpans(line subtitle.Line) []WordSpan {
	if len(line.Words) > 0 {
		spans := make([]WordSpan, 0, len(line.Words))
		for _, w := range line.Words {
			spans = append(spans, WordSpan{
				Text:      w.Text,
				LineStart: line.Start,
				Start:     w.Start,
				End:       w.End,
				Timed:     true,
			})
		}
		return spans
	}
	fields := strings.Fields(line.Text)
	spans := make([]WordSpan, 0, len(fields))
	for _, f := range fields {
		spans = append(spans, WordSpan{Text: f, LineStart: line.Start})
	}
	return spans
}
