package translator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
)

func makeLines(n int) []subtitle.Line {
	lines := make([]subtitle.Line, n)
	for i := range lines {
		lines[i] = subtitle.Line{
			Start:    float64(i),
			Duration: 1,
			Text:     fmt.Sprintf("ligne %d", i),
		}
	}
	return lines
}

// echoCapability answers the numbered-line protocol faithfully, translating
// each row by prefixing it.
func echoCapability(t *testing.T, calls *[]string) Capability {
	return CapabilityFunc(func(_ context.Context, system, user string) (string, error) {
		if calls != nil {
			*calls = append(*calls, user)
		}
		var out []string
		for _, row := range strings.Split(strings.TrimSpace(user), "\n") {
			m := indexedLine.FindStringSubmatch(row)
			require.NotNil(t, m, "batch row must carry an index prefix: %q", row)
			out = append(out, fmt.Sprintf("[%s] translated %s", m[1], m[2]))
		}
		return strings.Join(out, "\n"), nil
	})
}

func TestTranslateAll_RoundTripAcrossBatchSizes(t *testing.T) {
	t.Parallel()

	lines := makeLines(17)
	for _, batchSize := range []int{3, 5, 17, 100} {
		var calls []string
		aligner := NewAligner(echoCapability(t, &calls), Config{BatchSize: batchSize})

		out, err := aligner.TranslateAll(context.Background(), lines, "French", "English")
		require.NoError(t, err)
		require.Len(t, out, len(lines))

		wantCalls := (len(lines) + batchSize - 1) / batchSize
		assert.Len(t, calls, wantCalls, "batch size %d", batchSize)

		for i, line := range out {
			assert.Equal(t, fmt.Sprintf("translated ligne %d", i), line.Translation,
				"batch size %d, line %d", batchSize, i)
			// Originals untouched.
			assert.Equal(t, lines[i].Text, line.Text)
		}
	}
}

func TestTranslateAll_GlobalIndicesInPrompt(t *testing.T) {
	t.Parallel()

	var calls []string
	aligner := NewAligner(echoCapability(t, &calls), Config{BatchSize: 2})

	_, err := aligner.TranslateAll(context.Background(), makeLines(4), "French", "English")
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "[0] ")
	assert.Contains(t, calls[0], "[1] ")
	assert.Contains(t, calls[1], "[2] ")
	assert.Contains(t, calls[1], "[3] ")
}

func TestTranslateBatch_ReorderedIndicesStillAlign(t *testing.T) {
	t.Parallel()

	capability := CapabilityFunc(func(_ context.Context, _, _ string) (string, error) {
		return "[1] deuxieme\n[0] premiere\n[2] troisieme", nil
	})
	aligner := NewAligner(capability, Config{})

	out, err := aligner.TranslateAll(context.Background(), makeLines(3), "French", "English")
	require.NoError(t, err)
	assert.Equal(t, "premiere", out[0].Translation)
	assert.Equal(t, "deuxieme", out[1].Translation)
	assert.Equal(t, "troisieme", out[2].Translation)
}

func TestTranslateBatch_PositionalFallback(t *testing.T) {
	t.Parallel()

	// Model dropped every bracket but kept one line per input.
	capability := CapabilityFunc(func(_ context.Context, _, _ string) (string, error) {
		return "premiere\ndeuxieme\ntroisieme\nquatrieme", nil
	})
	aligner := NewAligner(capability, Config{})

	out, err := aligner.TranslateAll(context.Background(), makeLines(4), "French", "English")
	require.NoError(t, err)
	for i, want := range []string{"premiere", "deuxieme", "troisieme", "quatrieme"} {
		assert.Equal(t, want, out[i].Translation)
	}
}

func TestTranslateBatch_FallbackStripsStrayBrackets(t *testing.T) {
	t.Parallel()

	// Indices present but global offsets lost (model renumbered from 900):
	// index matching fills nothing, positional fallback strips the tokens.
	capability := CapabilityFunc(func(_ context.Context, _, _ string) (string, error) {
		return "[900] premiere\n[901] deuxieme", nil
	})
	aligner := NewAligner(capability, Config{})

	out, err := aligner.TranslateAll(context.Background(), makeLines(2), "French", "English")
	require.NoError(t, err)
	assert.Equal(t, "premiere", out[0].Translation)
	assert.Equal(t, "deuxieme", out[1].Translation)
}

func TestTranslateBatch_NoFallbackWhenResponseTooShort(t *testing.T) {
	t.Parallel()

	// One unnumbered line for four inputs: below the response-ratio floor,
	// so slots default to the source text instead of guessing.
	capability := CapabilityFunc(func(_ context.Context, _, _ string) (string, error) {
		return "seule ligne", nil
	})
	aligner := NewAligner(capability, Config{})

	out, err := aligner.TranslateAll(context.Background(), makeLines(4), "French", "English")
	require.NoError(t, err)
	for i, line := range out {
		assert.Equal(t, fmt.Sprintf("ligne %d", i), line.Translation)
	}
}

func TestTranslateBatch_MajorityIndexMatchSkipsFallback(t *testing.T) {
	t.Parallel()

	// 3 of 4 filled by index: above the coverage floor, the hole falls back
	// to source text, not to positional alignment.
	capability := CapabilityFunc(func(_ context.Context, _, _ string) (string, error) {
		return "[0] a\n[1] b\n[3] d\ngarbage row", nil
	})
	aligner := NewAligner(capability, Config{})

	out, err := aligner.TranslateAll(context.Background(), makeLines(4), "French", "English")
	require.NoError(t, err)
	assert.Equal(t, "a", out[0].Translation)
	assert.Equal(t, "b", out[1].Translation)
	assert.Equal(t, "ligne 2", out[2].Translation)
	assert.Equal(t, "d", out[3].Translation)
}

func TestTranslateBatch_OutOfRangeIndicesIgnored(t *testing.T) {
	t.Parallel()

	capability := CapabilityFunc(func(_ context.Context, _, _ string) (string, error) {
		return "[0] ok\n[1] aussi\n[99] hors limites\n[-3] nope", nil
	})
	aligner := NewAligner(capability, Config{})

	out, err := aligner.TranslateAll(context.Background(), makeLines(2), "French", "English")
	require.NoError(t, err)
	assert.Equal(t, "ok", out[0].Translation)
	assert.Equal(t, "aussi", out[1].Translation)
}

func TestTranslateAll_NoEmptyTranslationForNonEmptySource(t *testing.T) {
	t.Parallel()

	capability := CapabilityFunc(func(_ context.Context, _, _ string) (string, error) {
		return "[0] \n[1] traduit", nil
	})
	aligner := NewAligner(capability, Config{})

	out, err := aligner.TranslateAll(context.Background(), makeLines(2), "French", "English")
	require.NoError(t, err)
	assert.Equal(t, "ligne 0", out[0].Translation, "empty slot defaults to source text")
	assert.Equal(t, "traduit", out[1].Translation)
}

func TestTranslateAll_ErrorAbortsRemainingBatches(t *testing.T) {
	t.Parallel()

	calls := 0
	capability := CapabilityFunc(func(_ context.Context, _, user string) (string, error) {
		calls++
		if calls == 2 {
			return "", fmt.Errorf("service unavailable")
		}
		var out []string
		for _, row := range strings.Split(strings.TrimSpace(user), "\n") {
			out = append(out, row)
		}
		return strings.Join(out, "\n"), nil
	})
	aligner := NewAligner(capability, Config{BatchSize: 2})

	_, err := aligner.TranslateAll(context.Background(), makeLines(6), "French", "English")
	require.Error(t, err)
	assert.Equal(t, 2, calls, "remaining batches must not run after a failure")
}

func TestTranslateAll_MultilineSourceFlattened(t *testing.T) {
	t.Parallel()

	lines := []subtitle.Line{{Text: "haut\nbas"}}
	var calls []string
	aligner := NewAligner(echoCapability(t, &calls), Config{})

	_, err := aligner.TranslateAll(context.Background(), lines, "French", "English")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "[0] haut bas")
}

func TestTranslateAll_Empty(t *testing.T) {
	t.Parallel()

	aligner := NewAligner(echoCapability(t, nil), Config{})
	out, err := aligner.TranslateAll(context.Background(), nil, "French", "English")
	require.NoError(t, err)
	assert.Nil(t, out)
}
