package translator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

// Aligner chunks a subtitle list into bounded batches, submits each under
// the numbered-line protocol, and reconstructs a translation aligned 1:1
// with the input order even when the model output is malformed.
type Aligner struct {
	capability Capability
	config     Config
}

// NewAligner creates an aligner over the given translation capability.
func NewAligner(capability Capability, config Config) *Aligner {
	return &Aligner{
		capability: capability,
		config:     config.withDefaults(),
	}
}

// indexedLine matches a "[<number>] text" response row.
var indexedLine = regexp.MustCompile(`^\s*\[(\d+)\]\s*(.*)$`)

// TranslateAll fills the Translation of every line, preserving order.
// Batches run strictly sequentially: this keeps one API ordering and avoids
// burst rate-limiting. Any batch failure aborts the remaining batches; the
// caller decides whether the partial work can be retried.
func (a *Aligner) TranslateAll(
	ctx context.Context,
	lines []subtitle.Line,
	sourceLang string,
	targetLang string,
) ([]subtitle.Line, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	out := make([]subtitle.Line, len(lines))
	copy(out, lines)

	batchSize := a.config.BatchSize
	batchCount := (len(lines) + batchSize - 1) / batchSize
	log.Info("Translating %d lines in %d batches of up to %d", len(lines), batchCount, batchSize)

	for offset := 0; offset < len(lines); offset += batchSize {
		end := min(offset+batchSize, len(lines))
		batch := lines[offset:end]

		translations, err := a.translateBatch(ctx, batch, offset, sourceLang, targetLang)
		if err != nil {
			return nil, fmt.Errorf("batch translation failed for lines %d-%d: %w", offset, end-1, err)
		}
		for i := range batch {
			out[offset+i].Translation = translations[i]
		}
	}

	return out, nil
}

// translateBatch translates one contiguous batch whose first line has the
// given global offset. The returned slice is parallel to the batch and
// never contains an empty translation for a line that had source text.
func (a *Aligner) translateBatch(
	ctx context.Context,
	batch []subtitle.Line,
	offset int,
	sourceLang string,
	targetLang string,
) ([]string, error) {
	userContent := renderBatch(batch, offset)
	systemPrompt := buildInstructions(sourceLang, targetLang)

	response, err := a.capability.Complete(ctx, systemPrompt, userContent)
	if err != nil {
		return nil, err
	}

	translations, filled := alignByIndex(response, offset, len(batch))

	responseLines := nonBlankLines(response)
	expected := len(batch)
	if float64(filled) < a.config.MinIndexCoverage*float64(expected) &&
		float64(len(responseLines)) >= a.config.MinResponseRatio*float64(expected) {
		log.Warn("Index alignment filled only %d/%d lines; falling back to positional alignment over %d response lines",
			filled, expected, len(responseLines))
		translations = alignByPosition(responseLines, expected)
	}

	for i := range translations {
		if translations[i] == "" {
			translations[i] = batch[i].Text
		}
	}
	return translations, nil
}

// renderBatch renders each line as "[<globalIndex>] <text>", one per row.
// Inner newlines are flattened: the protocol is row-oriented.
func renderBatch(batch []subtitle.Line, offset int) string {
	var sb strings.Builder
	for i, line := range batch {
		text := strings.ReplaceAll(line.Text, "\n", " ")
		fmt.Fprintf(&sb, "[%d] %s\n", offset+i, text)
	}
	return sb.String()
}

func buildInstructions(sourceLang, targetLang string) string {
	var sb strings.Builder
	sb.WriteString("You are a professional subtitle translator. Translate the following subtitles from " +
		sourceLang + " to " + targetLang + ".\n\n")
	sb.WriteString("Each input line starts with an index in square brackets, like [12].\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Echo the exact same [index] prefix at the start of each translated line.\n")
	sb.WriteString("2. Output exactly one line per input line, in the same order.\n")
	sb.WriteString("3. Never merge, split, or reorder content across indices.\n")
	sb.WriteString("4. Keep translations natural and short enough to read on screen.\n")
	sb.WriteString("5. Output only the translated lines, no explanations.\n")
	return sb.String()
}

// alignByIndex records response rows whose leading [n] prefix, after
// subtracting the batch offset, addresses a valid slot. Out-of-range
// indices and malformed rows are ignored. Returns the slot slice and how
// many slots were filled.
func alignByIndex(response string, offset, batchLen int) ([]string, int) {
	translations := make([]string, batchLen)
	filled := 0

	for _, row := range nonBlankLines(response) {
		m := indexedLine.FindStringSubmatch(row)
		if m == nil {
			continue
		}
		global, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		i := global - offset
		if i < 0 || i >= batchLen {
			continue
		}
		text := strings.TrimSpace(m[2])
		if translations[i] == "" && text != "" {
			filled++
		}
		translations[i] = text
	}
	return translations, filled
}

// alignByPosition assigns response rows to slots by position, stripping any
// leading bracket-number token. This recovers from a model that dropped the
// numbering convention while still producing one line per input.
func alignByPosition(responseLines []string, batchLen int) []string {
	translations := make([]string, batchLen)
	for i := 0; i < batchLen && i < len(responseLines); i++ {
		row := responseLines[i]
		if m := indexedLine.FindStringSubmatch(row); m != nil {
			row = m[2]
		}
		translations[i] = strings.TrimSpace(row)
	}
	return translations
}

func nonBlankLines(s string) []string {
	var out []string
	for _, row := range strings.Split(s, "\n") {
		if strings.TrimSpace(row) != "" {
			out = append(out, row)
		}
	}
	return out
}
