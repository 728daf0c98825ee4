package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("TRANSLATE_BATCH_SIZE", "")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "openai/gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 200, cfg.Translate.BatchSize)
	assert.Equal(t, "Chinese (Mandarin)", cfg.Translate.TargetLanguage)
	assert.Equal(t, "127.0.0.1:8750", cfg.Server.ListenAddr)
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "custom/model")
	t.Setenv("TRANSLATE_BATCH_SIZE", "150")
	t.Setenv("TRANSLATE_TARGET_LANG", "Japanese")
	t.Setenv("LISTEN_ADDR", "0.0.0.0:9000")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "custom/model", cfg.LLM.Model)
	assert.Equal(t, 150, cfg.Translate.BatchSize)
	assert.Equal(t, "Japanese", cfg.Translate.TargetLanguage)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.ListenAddr)
}

func TestNewFromEnv_MissingAPIKey(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestNewFromEnv_InvalidBatchSize(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("TRANSLATE_BATCH_SIZE", "-5")

	_, err := NewFromEnv()
	require.Error(t, err)
}
