package syncer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
)

type fakePlayback struct {
	mu     sync.Mutex
	now    float64
	seeked []float64
}

func (p *fakePlayback) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

func (p *fakePlayback) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeked = append(p.seeked, seconds)
	p.now = seconds
}

func (p *fakePlayback) set(now float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

type frameRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *frameRecorder) Render(frame Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
}

func (r *frameRecorder) all() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.frames))
	copy(out, r.frames)
	return out
}

func (r *frameRecorder) last() Frame {
	frames := r.all()
	if len(frames) == 0 {
		return Frame{Index: -100}
	}
	return frames[len(frames)-1]
}

func testLines() []subtitle.Line {
	return []subtitle.Line{
		{Start: 1.0, Duration: 2.0, Text: "first line", Translation: "premiere ligne"},
		{Start: 4.0, Duration: 2.0, Text: "second line", Translation: "deuxieme ligne"},
	}
}

func TestActiveIndex(t *testing.T) {
	t.Parallel()

	lines := testLines()
	tests := []struct {
		name string
		now  float64
		want int
	}{
		{"before first line", 0.5, -1},
		{"inside first line", 1.5, 0},
		{"gap holds previous line", 3.5, 0},
		{"inside second line", 4.9, 1},
		{"within trailing grace", 7.5, 1},
		{"past trailing grace", 10.0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, activeIndex(lines, tt.now))
		})
	}

	assert.Equal(t, -1, activeIndex(nil, 5.0))
}

func TestEngineRendersOnChangeOnly(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	rec := &frameRecorder{}
	engine := NewEngine(playback, rec, nil)
	engine.SetLines(testLines())

	engine.Tick(1.5)
	engine.Tick(1.6)
	engine.Tick(1.7)
	require.Len(t, rec.all(), 1)
	frame := rec.last()
	assert.Equal(t, 0, frame.Index)
	assert.True(t, frame.Visible)
	assert.Equal(t, "first line", frame.Original)
	assert.Equal(t, "premiere ligne", frame.Translation)

	engine.Tick(4.5)
	require.Len(t, rec.all(), 2)
	assert.Equal(t, 1, rec.last().Index)

	engine.Tick(10.0)
	require.Len(t, rec.all(), 3)
	frame = rec.last()
	assert.Equal(t, -1, frame.Index)
	assert.False(t, frame.Visible)
}

func TestEngineDisplayModes(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	rec := &frameRecorder{}
	engine := NewEngine(playback, rec, nil)
	engine.SetLines(testLines())

	engine.SetMode(ModeOriginalOnly)
	engine.Tick(1.5)
	frame := rec.last()
	assert.Equal(t, "first line", frame.Original)
	assert.Empty(t, frame.Translation)

	engine.SetMode(ModeTranslationOnly)
	engine.Tick(1.5)
	frame = rec.last()
	assert.Empty(t, frame.Original)
	assert.Equal(t, "premiere ligne", frame.Translation)
	assert.Empty(t, frame.Words)
}

func TestEngineOffModeSuppressesRendering(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	rec := &frameRecorder{}
	engine := NewEngine(playback, rec, nil)
	engine.SetLines(testLines())

	engine.SetMode(ModeOff)
	engine.Tick(1.5)
	require.Len(t, rec.all(), 1)
	assert.False(t, rec.last().Visible)

	// Line changes while off must not produce frames.
	engine.Tick(4.5)
	engine.Tick(10.0)
	assert.Len(t, rec.all(), 1)

	engine.SetMode(ModeBoth)
	engine.Tick(4.5)
	require.Len(t, rec.all(), 2)
	assert.True(t, rec.last().Visible)
	assert.Equal(t, 1, rec.last().Index)
}

func TestEngineSeekNextPrev(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	rec := &frameRecorder{}
	engine := NewEngine(playback, rec, nil)
	engine.SetLines(testLines())

	playback.set(1.5)
	engine.SeekNext()
	require.Len(t, playback.seeked, 1)
	assert.InDelta(t, 4.0, playback.seeked[0], 1e-9)

	engine.SeekPrev()
	require.Len(t, playback.seeked, 2)
	assert.InDelta(t, 1.0, playback.seeked[1], 1e-9)

	// Mid-line, "previous" means the start of the line that is playing.
	playback.set(5.0)
	engine.SeekPrev()
	require.Len(t, playback.seeked, 3)
	assert.InDelta(t, 4.0, playback.seeked[2], 1e-9)

	// Just after a line opens, "previous" skips back to the line before it.
	playback.set(4.2)
	engine.SeekPrev()
	require.Len(t, playback.seeked, 4)
	assert.InDelta(t, 1.0, playback.seeked[3], 1e-9)

	// At the end of the track there is no next line to jump to.
	playback.set(20.0)
	engine.SeekNext()
	assert.Len(t, playback.seeked, 4)
}

func TestEngineSeekNextSkipsImminentLine(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	engine := NewEngine(playback, &frameRecorder{}, nil)
	engine.SetLines([]subtitle.Line{
		{Start: 1.0, Duration: 2.0, Text: "a"},
		{Start: 10.2, Duration: 2.0, Text: "b"},
		{Start: 15.0, Duration: 2.0, Text: "c"},
	})

	// A line opening within the buffer does not count as "next"; the jump
	// goes to the one after it and always lands on a line start, never
	// behind the current position.
	playback.set(10.0)
	engine.SeekNext()
	require.Len(t, playback.seeked, 1)
	assert.InDelta(t, 15.0, playback.seeked[0], 1e-9)
	assert.GreaterOrEqual(t, playback.seeked[0], 10.0)
}

func TestEngineWordSpans(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	rec := &frameRecorder{}
	engine := NewEngine(playback, rec, nil)

	engine.SetLines([]subtitle.Line{{
		Start:    1.0,
		Duration: 2.0,
		Text:     "hello world",
		Words: []subtitle.Word{
			{Text: "hello", Start: 1.0, End: 1.5},
			{Text: "world", Start: 1.5, End: 3.0},
		},
	}})
	engine.Tick(1.2)
	frame := rec.last()
	require.Len(t, frame.Words, 2)
	assert.True(t, frame.Words[0].Timed)
	assert.Equal(t, 1.5, frame.Words[0].End)
	assert.Equal(t, 1.0, frame.Words[1].LineStart)

	engine.SetLines([]subtitle.Line{{Start: 1.0, Duration: 2.0, Text: "no timing here"}})
	engine.Tick(1.2)
	frame = rec.last()
	require.Len(t, frame.Words, 3)
	assert.False(t, frame.Words[0].Timed)
	assert.Equal(t, 1.0, frame.Words[2].LineStart)
}

func TestEngineStartStopIdempotent(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	engine := NewEngine(playback, &frameRecorder{}, nil)
	engine.SetLines(testLines())

	engine.Start()
	engine.Start()
	engine.Stop()
	engine.Stop()
}

func TestEngineReset(t *testing.T) {
	t.Parallel()

	playback := &fakePlayback{}
	rec := &frameRecorder{}
	engine := NewEngine(playback, rec, nil)
	engine.SetLines(testLines())
	engine.Tick(1.5)
	require.Equal(t, 0, rec.last().Index)

	engine.Reset()
	assert.Empty(t, engine.Lines())
	engine.Tick(1.5)
	assert.Equal(t, -1, rec.last().Index)
}

func TestParseDisplayMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ModeBoth, ParseDisplayMode("both"))
	assert.Equal(t, ModeOriginalOnly, ParseDisplayMode("Original"))
	assert.Equal(t, ModeTranslationOnly, ParseDisplayMode(" translation "))
	assert.Equal(t, ModeOff, ParseDisplayMode("off"))
	assert.Equal(t, ModeBoth, ParseDisplayMode("bogus"))
}
