package subtitle

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseSegmentEvents parses the segment-event wire format: a JSON document
// whose "events" array holds timed events, each composed of text segments
// that may carry their own relative time offsets. Malformed events are
// skipped rather than failing the whole parse.
func ParseSegmentEvents(data []byte) ([]Line, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON payload")
	}

	events := gjson.GetBytes(data, "events")
	if !events.IsArray() {
		return nil, fmt.Errorf("payload has no events array")
	}

	var lines []Line
	events.ForEach(func(_, event gjson.Result) bool {
		line, ok := parseEvent(event)
		if ok {
			lines = append(lines, line)
		}
		return true
	})

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Start < lines[j].Start
	})
	return lines, nil
}

func parseEvent(event gjson.Result) (Line, bool) {
	segs := event.Get("segs")
	if !segs.IsArray() {
		return Line{}, false
	}

	var sb strings.Builder
	for _, seg := range segs.Array() {
		sb.WriteString(seg.Get("utf8").String())
	}
	text := strings.TrimSpace(sb.String())
	if text == "" || text == "\n" {
		return Line{}, false
	}

	start := event.Get("tStartMs").Float() / 1000
	dur := event.Get("dDurationMs").Float() / 1000

	line := Line{
		Start:    start,
		Duration: dur,
		Text:     html.UnescapeString(text),
	}
	line.Words = segmentWords(event, start, start+dur)
	return line, true
}

// segmentWords derives word-level timing from segment offsets. Each segment
// starts at event start plus its own offset (0 when absent); it ends where
// the next non-empty segment starts, the last one at the event end. Events
// whose segments carry no explicit offsets at all yield no word timing:
// inventing a uniform distribution would imply precision the source never
// claimed.
func segmentWords(event gjson.Result, eventStart, eventEnd float64) []Word {
	type timedSeg struct {
		text  string
		start float64
	}

	var segs []timedSeg
	hasOffset := false
	for _, seg := range event.Get("segs").Array() {
		text := strings.TrimSpace(seg.Get("utf8").String())
		if text == "" || text == "\n" {
			continue
		}
		offset := seg.Get("tOffsetMs")
		if offset.Exists() {
			hasOffset = true
		}
		segs = append(segs, timedSeg{
			text:  html.UnescapeString(text),
			start: eventStart + offset.Float()/1000,
		})
	}
	if !hasOffset || len(segs) == 0 {
		return nil
	}

	words := make([]Word, len(segs))
	for i, seg := range segs {
		end := eventEnd
		if i+1 < len(segs) {
			end = segs[i+1].start
		}
		words[i] = Word{Text: seg.text, Start: seg.start, End: end}
	}
	return words
}
