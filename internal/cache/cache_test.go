package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/dualsub-engine/internal/subtitle"
)

func testLines(text string) []subtitle.Line {
	return []subtitle.Line{{Start: 0, Duration: 2, Text: text, Translation: "t:" + text}}
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	key := Key{ContentID: "vid1", SourceLang: "fr", TargetLang: "en", Model: "m1"}

	_, ok, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(context.Background(), key, testLines("bonjour")))

	got, ok, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "bonjour", got[0].Text)
}

func TestCache_ModelIsolation(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	base := Key{ContentID: "vid1", SourceLang: "fr", TargetLang: "en"}

	k1 := base
	k1.Model = "model-a"
	k2 := base
	k2.Model = "model-b"

	require.NoError(t, c.Put(context.Background(), k1, testLines("from model a")))

	_, ok, err := c.Get(context.Background(), k2)
	require.NoError(t, err)
	assert.False(t, ok, "entries under different models must never collide")

	require.NoError(t, c.Put(context.Background(), k2, testLines("from model b")))
	got, ok, err := c.Get(context.Background(), k1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "from model a", got[0].Text)
}

func TestCache_PutReplacesWholesale(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	key := Key{ContentID: "vid1", SourceLang: "fr", TargetLang: "en", Model: "m"}

	require.NoError(t, c.Put(context.Background(), key, testLines("old")))
	require.NoError(t, c.Put(context.Background(), key, testLines("new")))

	got, ok, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Text)
}

func TestCache_ClearScopedToContent(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	k1 := Key{ContentID: "vid1", SourceLang: "fr", TargetLang: "en", Model: "m"}
	k2 := Key{ContentID: "vid1", SourceLang: "fr", TargetLang: "de", Model: "other"}
	k3 := Key{ContentID: "vid2", SourceLang: "fr", TargetLang: "en", Model: "m"}

	require.NoError(t, c.Put(context.Background(), k1, testLines("a")))
	require.NoError(t, c.Put(context.Background(), k2, testLines("b")))
	require.NoError(t, c.Put(context.Background(), k3, testLines("c")))

	require.NoError(t, c.Clear(context.Background(), "vid1"))

	_, ok, _ := c.Get(context.Background(), k1)
	assert.False(t, ok)
	_, ok, _ = c.Get(context.Background(), k2)
	assert.False(t, ok, "clear covers every language pair and model for the content")
	_, ok, _ = c.Get(context.Background(), k3)
	assert.True(t, ok, "other content untouched")
}

func TestCache_InvalidKey(t *testing.T) {
	t.Parallel()

	c := New(NewMemoryStore())
	_, _, err := c.Get(context.Background(), Key{})
	require.Error(t, err)
	require.Error(t, c.Put(context.Background(), Key{ContentID: "x"}, nil))
	require.Error(t, c.Clear(context.Background(), ""))
}
