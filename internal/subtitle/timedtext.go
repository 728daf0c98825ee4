package subtitle

import (
	"bytes"
	"encoding/xml"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ParseTimedText parses the timed-text XML format: one <text> node per
// subtitle line carrying start and dur attributes in seconds. Malformed
// attribute values degrade to 0, malformed nodes are skipped, and a
// truncated document yields the lines decoded so far rather than an error.
func ParseTimedText(data []byte) ([]Line, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false

	var lines []Line
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Partial input: keep what was parsed.
			break
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "text" {
			continue
		}

		line := Line{
			Start:    attrSeconds(start, "start"),
			Duration: attrSeconds(start, "dur"),
		}

		var sb strings.Builder
		done := false
		for !done {
			inner, err := decoder.Token()
			if err != nil {
				done = true
				break
			}
			switch t := inner.(type) {
			case xml.CharData:
				sb.Write(t)
			case xml.EndElement:
				if t.Name.Local == "text" {
					done = true
				}
			}
		}

		// The source double-encodes entities inside the XML text,
		// so decode once more after the XML layer.
		line.Text = strings.TrimSpace(html.UnescapeString(sb.String()))
		if line.Text == "" {
			continue
		}
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Start < lines[j].Start
	})
	return lines, nil
}

func attrSeconds(el xml.StartElement, name string) float64 {
	for _, attr := range el.Attr {
		if attr.Name.Local != name {
			continue
		}
		v, err := strconv.ParseFloat(attr.Value, 64)
		if err != nil {
			return 0
		}
		return v
	}
	return 0
}
