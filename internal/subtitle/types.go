package subtitle

// Word is a single timed token inside a line. Start and End are absolute
// playback seconds; together the words of a line partition its timing span.
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Line represents a single subtitle line
type Line struct {
	Start       float64 `json:"start"`                 // start time in seconds
	Duration    float64 `json:"duration"`              // duration in seconds
	Text        string  `json:"text"`                  // original text, entity-decoded
	Words       []Word  `json:"words,omitempty"`       // word-level timing, when the source provides it
	Translation string  `json:"translation,omitempty"` // populated by the translation aligner
}

// End returns the nominal end time of the line.
func (l Line) End() float64 {
	return l.Start + l.Duration
}
