package dict

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minTokenLen rejects fragments too short to be meaningful lookups.
const minTokenLen = 2

var accentFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeToken lowercases a raw token and strips surrounding quote and
// punctuation characters. It returns the empty string when the remainder
// is too short to look up.
func NormalizeToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if len([]rune(token)) < minTokenLen {
		return ""
	}
	return token
}

// stripAccents removes combining marks so "café" folds to "cafe".
func stripAccents(s string) string {
	out, _, err := transform.String(accentFold, s)
	if err != nil {
		return s
	}
	return out
}
