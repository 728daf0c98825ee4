package subtitle

import (
	"bytes"
	"fmt"

	"github.com/tidwall/gjson"
)

// Parse turns a raw subtitle payload into lines, sniffing the format from
// the content rather than trusting any declared type. Segment-event JSON is
// tried first; anything that is not parseable as that (or parses to zero
// lines) falls back to timed-text XML.
func Parse(data []byte) ([]Line, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	if looksLikeSegmentEvents(data) {
		lines, err := ParseSegmentEvents(data)
		if err == nil && len(lines) > 0 {
			return lines, nil
		}
	}

	return ParseTimedText(data)
}

func looksLikeSegmentEvents(data []byte) bool {
	if len(data) == 0 || data[0] != '{' {
		return false
	}
	return gjson.GetBytes(data, "events").IsArray()
}
