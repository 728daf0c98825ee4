package dict

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/MimeLyc/dualsub-engine/pkg/log"
)

// Dictionary holds one language pair's word entries and phrase table,
// loaded once and read-only afterwards.
type Dictionary struct {
	words   map[string]Entry
	phrases map[string]PhraseEntry
	logger  *log.Logger
}

// New builds a dictionary from already-decoded tables. Either table may be
// nil.
func New(words map[string]Entry, phrases map[string]PhraseEntry, logger *log.Logger) *Dictionary {
	if words == nil {
		words = map[string]Entry{}
	}
	if phrases == nil {
		phrases = map[string]PhraseEntry{}
	}
	return &Dictionary{words: words, phrases: phrases, logger: logger}
}

// Load reads the word dictionary and, optionally, the phrase table from
// JSON files. An empty phrasePath skips phrase loading.
func Load(wordPath, phrasePath string, logger *log.Logger) (*Dictionary, error) {
	words := map[string]Entry{}
	data, err := os.ReadFile(wordPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary %s: %w", wordPath, err)
	}
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary %s: %w", wordPath, err)
	}

	phrases := map[string]PhraseEntry{}
	if phrasePath != "" {
		data, err := os.ReadFile(phrasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read phrase table %s: %w", phrasePath, err)
		}
		if err := json.Unmarshal(data, &phrases); err != nil {
			return nil, fmt.Errorf("failed to parse phrase table %s: %w", phrasePath, err)
		}
	}

	if logger != nil {
		logger.Info("dictionary loaded: %d words, %d phrases", len(words), len(phrases))
	}
	return New(words, phrases, logger), nil
}

// Size returns the number of word entries.
func (d *Dictionary) Size() int {
	return len(d.words)
}

// formOfPattern matches definitions like "plural of chat" or
// "first-person singular present indicative form of parler".
var formOfPattern = regexp.MustCompile(`(?i)\bform of ([^\s;,.]+)|\bplural of ([^\s;,.]+)|\bfeminine of ([^\s;,.]+)`)

// Lookup resolves a single raw token: normalize, then try the exact form,
// the accent-stripped form, an elision-stripped form, and finally a
// trailing-s singularization. A hit that is itself an inflection is
// followed to its base entry.
func (d *Dictionary) Lookup(raw string) (Result, bool) {
	token := NormalizeToken(raw)
	if token == "" {
		return Result{}, false
	}

	for _, candidate := range d.candidates(token) {
		if entry, ok := d.words[candidate]; ok {
			return d.resolveBase(candidate, entry), true
		}
	}
	return Result{}, false
}

// candidates lists the forms to try, most specific first.
func (d *Dictionary) candidates(token string) []string {
	out := []string{token}
	if stripped := stripAccents(token); stripped != token {
		out = append(out, stripped)
	}
	if elided := elisionRemainder(token); elided != "" {
		out = append(out, elided)
		if stripped := stripAccents(elided); stripped != elided {
			out = append(out, stripped)
		}
	}
	base := len(out)
	for _, c := range out[:base] {
		if strings.HasSuffix(c, "s") && len([]rune(c)) > minTokenLen {
			out = append(out, strings.TrimSuffix(c, "s"))
		}
	}
	return out
}

// elisionRemainder strips a short elided article ("l'homme" yields
// "homme"); it returns "" when the token is not an elision.
func elisionRemainder(token string) string {
	token = strings.ReplaceAll(token, "’", "'")
	idx := strings.IndexByte(token, '\'')
	if idx < 1 || idx > 3 {
		return ""
	}
	rest := token[idx+1:]
	if len([]rune(rest)) < minTokenLen || strings.Contains(rest, "'") {
		return ""
	}
	return rest
}

// resolveBase follows an inflected entry to its canonical headword via the
// explicit base reference, or a "form of X" marker inside the definition.
func (d *Dictionary) resolveBase(headword string, entry Entry) Result {
	result := Result{Headword: headword, Entry: entry}

	baseRef := entry.Base
	if baseRef == "" && entry.Def != "" {
		if m := formOfPattern.FindStringSubmatch(entry.Def); m != nil {
			for _, group := range m[1:] {
				if group != "" {
					baseRef = strings.ToLower(group)
					break
				}
			}
		}
	}
	if baseRef == "" || baseRef == headword {
		return result
	}
	base, ok := d.words[baseRef]
	if !ok {
		return result
	}
	return Result{Headword: baseRef, Entry: base, FormOf: headword}
}

// LookupPhrase looks up the hovered token together with up to three
// following tokens, trying 4-, 3- and 2-word windows against the phrase
// table before falling back to the single-word entry. A phrase match is
// attached to the word result, not substituted for it.
func (d *Dictionary) LookupPhrase(raw string, following []string) (Result, bool) {
	result, found := d.Lookup(raw)

	token := NormalizeToken(raw)
	if token == "" {
		return result, found
	}
	window := []string{token}
	for _, f := range following {
		if len(window) == 4 {
			break
		}
		if norm := NormalizeToken(f); norm != "" {
			window = append(window, norm)
		}
	}
	for size := len(window); size >= 2; size-- {
		phrase := strings.Join(window[:size], " ")
		if entry, ok := d.phrases[phrase]; ok {
			if !found {
				result = Result{Headword: token, Entry: Entry{POS: entry.POS, Def: entry.Def}}
				found = true
			}
			info := entry
			result.Phrase = phrase
			result.PhraseInfo = &info
			return result, true
		}
	}
	return result, found
}
