package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PrefersManualOverAuto(t *testing.T) {
	t.Parallel()

	tracks := []Track{
		{LanguageCode: "fr", Kind: KindAuto, BaseURL: "auto"},
		{LanguageCode: "fr", BaseURL: "manual"},
	}

	tr, ok := Resolve(tracks, "French")
	require.True(t, ok)
	assert.Equal(t, "manual", tr.BaseURL)
}

func TestResolve_FallsBackToAutoForSameCode(t *testing.T) {
	t.Parallel()

	tracks := []Track{
		{LanguageCode: "en", BaseURL: "en-manual"},
		{LanguageCode: "fr", Kind: KindAuto, BaseURL: "fr-auto"},
	}

	tr, ok := Resolve(tracks, "French")
	require.True(t, ok)
	assert.Equal(t, "fr-auto", tr.BaseURL)
}

func TestResolve_ChineseMacroCodeMatchesVariants(t *testing.T) {
	t.Parallel()

	tracks := []Track{
		{LanguageCode: "en", BaseURL: "en"},
		{LanguageCode: "zh-Hans", BaseURL: "hans"},
	}

	tr, ok := Resolve(tracks, "Chinese (Mandarin)")
	require.True(t, ok)
	assert.Equal(t, "hans", tr.BaseURL)
}

func TestResolve_CaseSensitiveCodes(t *testing.T) {
	t.Parallel()

	tracks := []Track{{LanguageCode: "FR", BaseURL: "upper"}}

	_, ok := Resolve(tracks, "French")
	assert.False(t, ok)
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()

	tracks := []Track{
		{LanguageCode: "fr", Kind: KindAuto, BaseURL: "auto"},
		{LanguageCode: "fr", BaseURL: "manual-1"},
		{LanguageCode: "fr", BaseURL: "manual-2"},
	}

	first, ok := Resolve(tracks, "French")
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := Resolve(tracks, "French")
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestResolve_UnknownLanguageName(t *testing.T) {
	t.Parallel()

	_, ok := Resolve([]Track{{LanguageCode: "fr", BaseURL: "x"}}, "Klingon")
	assert.False(t, ok)
}

func TestResolveWithFallback(t *testing.T) {
	t.Parallel()

	t.Run("auto track substitution is reported", func(t *testing.T) {
		tracks := []Track{{LanguageCode: "ko", Kind: KindAuto, BaseURL: "ko"}}
		tr, note, err := ResolveWithFallback(tracks, "French")
		require.NoError(t, err)
		assert.Equal(t, "ko", tr.LanguageCode)
		assert.Contains(t, note, "auto-generated ko")
	})

	t.Run("first track as last resort", func(t *testing.T) {
		tracks := []Track{{LanguageCode: "de", BaseURL: "de"}}
		tr, note, err := ResolveWithFallback(tracks, "French")
		require.NoError(t, err)
		assert.Equal(t, "de", tr.LanguageCode)
		assert.NotEmpty(t, note)
	})

	t.Run("no tracks at all", func(t *testing.T) {
		_, _, err := ResolveWithFallback(nil, "French")
		require.Error(t, err)
	})

	t.Run("exact match has no note", func(t *testing.T) {
		tracks := []Track{{LanguageCode: "fr", BaseURL: "fr"}}
		_, note, err := ResolveWithFallback(tracks, "French")
		require.NoError(t, err)
		assert.Empty(t, note)
	})
}

func TestParseTracks(t *testing.T) {
	t.Parallel()

	t.Run("bare array", func(t *testing.T) {
		data := []byte(`[
			{"languageCode":"fr","baseUrl":"https://example.com/tt?lang=fr","name":{"simpleText":"French"}},
			{"languageCode":"en","kind":"asr","baseUrl":"https://example.com/tt?lang=en"}
		]`)
		tracks, err := ParseTracks(data)
		require.NoError(t, err)
		require.Len(t, tracks, 2)
		assert.Equal(t, "French", tracks[0].Name)
		assert.True(t, tracks[1].IsAuto())
	})

	t.Run("full player response", func(t *testing.T) {
		data := []byte(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
			{"languageCode":"ja","baseUrl":"https://example.com/tt?lang=ja","name":{"runs":[{"text":"Japanese"}]}}
		]}}}`)
		tracks, err := ParseTracks(data)
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "Japanese", tracks[0].Name)
	})

	t.Run("entries without url dropped", func(t *testing.T) {
		data := []byte(`[{"languageCode":"fr"},{"languageCode":"de","baseUrl":"u"}]`)
		tracks, err := ParseTracks(data)
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		assert.Equal(t, "de", tracks[0].LanguageCode)
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := ParseTracks([]byte("not json"))
		require.Error(t, err)
	})
}
