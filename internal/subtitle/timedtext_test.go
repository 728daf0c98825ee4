package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimedText_Basic(t *testing.T) {
	t.Parallel()

	payload := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
	<text start="0.5" dur="2.1">Bonjour</text>
	<text start="3" dur="1.5">le monde</text>
</transcript>`)

	lines, err := ParseTimedText(payload)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 0.5, lines[0].Start)
	assert.Equal(t, 2.1, lines[0].Duration)
	assert.Equal(t, "Bonjour", lines[0].Text)
	assert.Empty(t, lines[0].Words)
}

func TestParseTimedText_MalformedAttributesDegradeToZero(t *testing.T) {
	t.Parallel()

	payload := []byte(`<transcript>
	<text start="abc" dur="">still here</text>
	<text dur="2">no start</text>
</transcript>`)

	lines, err := ParseTimedText(payload)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 0.0, lines[0].Start)
	assert.Equal(t, 0.0, lines[0].Duration)
	assert.Equal(t, 0.0, lines[1].Start)
	assert.Equal(t, 2.0, lines[1].Duration)
}

func TestParseTimedText_SkipsEmptyNodes(t *testing.T) {
	t.Parallel()

	payload := []byte(`<transcript>
	<text start="1" dur="1">   </text>
	<text start="2" dur="1">kept</text>
</transcript>`)

	lines, err := ParseTimedText(payload)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0].Text)
}

func TestParseTimedText_DoubleEncodedEntities(t *testing.T) {
	t.Parallel()

	payload := []byte(`<transcript>
	<text start="0" dur="1">c&amp;#39;est &amp;quot;bon&amp;quot;</text>
</transcript>`)

	lines, err := ParseTimedText(payload)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, `c'est "bon"`, lines[0].Text)
}

func TestParseTimedText_TruncatedDocumentNeverPanics(t *testing.T) {
	t.Parallel()

	payload := []byte(`<transcript><text start="0" dur="1">first</text><text start="5" dur=`)

	lines, err := ParseTimedText(payload)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "first", lines[0].Text)
}

func TestParse_SniffsFormatFromContent(t *testing.T) {
	t.Parallel()

	jsonPayload := []byte(`{"events":[{"tStartMs":0,"dDurationMs":1000,"segs":[{"utf8":"json line"}]}]}`)
	xmlPayload := []byte(`<transcript><text start="0" dur="1">xml line</text></transcript>`)

	lines, err := Parse(jsonPayload)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "json line", lines[0].Text)

	lines, err = Parse(xmlPayload)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "xml line", lines[0].Text)
}

func TestParse_EmptyPayload(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("  \n "))
	require.Error(t, err)
}

func TestParse_JSONWithoutEventsFallsBackToXML(t *testing.T) {
	t.Parallel()

	// JSON-shaped but not segment events: both parsers produce nothing.
	lines, err := Parse([]byte(`{"foo": 1}`))
	require.NoError(t, err)
	assert.Empty(t, lines)
}
