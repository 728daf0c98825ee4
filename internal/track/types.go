package track

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// KindAuto is the wire value the platform uses for auto-generated
// (speech-recognized) tracks. Manual tracks carry an empty kind.
const KindAuto = "asr"

// Track is one selectable caption track for a piece of content.
type Track struct {
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	BaseURL      string `json:"baseUrl"`
}

// IsAuto reports whether the track was produced by speech recognition.
func (t Track) IsAuto() bool {
	return t.Kind == KindAuto
}

// Label returns a short human-readable description of the track.
func (t Track) Label() string {
	if t.IsAuto() {
		return t.LanguageCode + " (auto)"
	}
	return t.LanguageCode
}

// ParseTracks decodes a caption track list from the host player response
// JSON. Accepts either a bare array or a full player response carrying
// captions.playerCaptionsTracklistRenderer.captionTracks. Entries missing a
// language code or URL are dropped.
func ParseTracks(data []byte) ([]Track, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid track list JSON")
	}

	root := gjson.ParseBytes(data)
	list := root
	if !root.IsArray() {
		list = root.Get("captions.playerCaptionsTracklistRenderer.captionTracks")
		if !list.IsArray() {
			return nil, fmt.Errorf("no caption tracks in payload")
		}
	}

	var tracks []Track
	list.ForEach(func(_, item gjson.Result) bool {
		tr := Track{
			LanguageCode: item.Get("languageCode").String(),
			Kind:         item.Get("kind").String(),
			BaseURL:      item.Get("baseUrl").String(),
		}
		tr.Name = item.Get("name.simpleText").String()
		if tr.Name == "" {
			tr.Name = item.Get("name.runs.0.text").String()
		}
		if tr.LanguageCode != "" && tr.BaseURL != "" {
			tracks = append(tracks, tr)
		}
		return true
	})
	return tracks, nil
}
