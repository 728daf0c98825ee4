package track

import (
	"fmt"
	"strings"
)

// LangCodes maps user-facing language names to the ISO codes used by
// caption track lists.
var LangCodes = map[string]string{
	"French":             "fr",
	"Korean":             "ko",
	"Chinese (Mandarin)": "zh",
	"Japanese":           "ja",
	"Spanish":            "es",
	"German":             "de",
	"Portuguese":         "pt",
	"Italian":            "it",
	"Russian":            "ru",
	"Arabic":             "ar",
	"English":            "en",
}

// chineseMacroCode covers script and region variants (zh-Hans, zh-TW, ...).
const chineseMacroCode = "zh"

// Resolve picks the best track for the named language: a manual track with
// the exact code first, then any track with the exact code, then (for the
// Chinese macro-code only) any track whose code starts with that prefix.
// Matching is case-sensitive on the code as the track list provides it.
// Returns false when no track matches.
func Resolve(tracks []Track, langName string) (Track, bool) {
	code, ok := LangCodes[langName]
	if !ok {
		return Track{}, false
	}

	for _, tr := range tracks {
		if tr.LanguageCode == code && !tr.IsAuto() {
			return tr, true
		}
	}
	for _, tr := range tracks {
		if tr.LanguageCode == code {
			return tr, true
		}
	}
	if code == chineseMacroCode {
		for _, tr := range tracks {
			if strings.HasPrefix(tr.LanguageCode, chineseMacroCode) {
				return tr, true
			}
		}
	}
	return Track{}, false
}

// ResolveWithFallback applies the caller-level fallback on top of Resolve:
// when nothing matches the requested language it accepts any auto-generated
// track, then the first available track, returning a note describing the
// substitution so the user can be told which code was used instead.
func ResolveWithFallback(tracks []Track, langName string) (Track, string, error) {
	if len(tracks) == 0 {
		return Track{}, "", fmt.Errorf("no caption tracks available")
	}

	if tr, ok := Resolve(tracks, langName); ok {
		return tr, "", nil
	}

	for _, tr := range tracks {
		if tr.IsAuto() {
			note := fmt.Sprintf("No %s track found. Using auto-generated %s track.", langName, tr.LanguageCode)
			return tr, note, nil
		}
	}

	tr := tracks[0]
	note := fmt.Sprintf("No %s track found. Using %s track.", langName, tr.Label())
	return tr, note, nil
}

// Available renders the track list the way user-facing error messages
// report it.
func Available(tracks []Track) string {
	labels := make([]string, 0, len(tracks))
	for _, tr := range tracks {
		labels = append(labels, tr.Label())
	}
	return strings.Join(labels, ", ")
}
