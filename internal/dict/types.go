package dict

// Entry is one headword in the dictionary dataset. Inflected forms carry
// an empty Def and a Base reference to their canonical entry.
type Entry struct {
	POS    string   `json:"pos"`
	Def    string   `json:"def"`
	Defs   []string `json:"defs,omitempty"`
	Gender string   `json:"gender,omitempty"`
	Base   string   `json:"base,omitempty"`
}

// Senses returns every definition the entry carries, primary sense first.
func (e Entry) Senses() []string {
	if len(e.Defs) > 0 {
		return e.Defs
	}
	if e.Def != "" {
		return []string{e.Def}
	}
	return nil
}

// PhraseEntry is one multi-word expression in the phrase table.
type PhraseEntry struct {
	POS string `json:"pos"`
	Def string `json:"def"`
}

// Result is a resolved lookup. Headword is the entry actually displayed,
// which may differ from the queried token when an inflection or base-form
// reference was followed. Phrase is set when a multi-word window around
// the token matched the phrase table; it accompanies the word entry
// rather than replacing it.
type Result struct {
	Headword   string       `json:"headword"`
	Entry      Entry        `json:"entry"`
	FormOf     string       `json:"formOf,omitempty"`
	Phrase     string       `json:"phrase,omitempty"`
	PhraseInfo *PhraseEntry `json:"phraseInfo,omitempty"`
}
