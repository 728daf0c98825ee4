package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// LLM Configuration:
// - LLM_API_KEY: API key for the LLM provider (required)
// - LLM_API_URL: API endpoint URL (default: https://openrouter.ai/api/v1)
// - LLM_MODEL: Model name to use (default: openai/gpt-3.5-turbo)
// - LLM_MAX_TOKENS: Maximum tokens for responses (default: 8000)
// - LLM_TEMPERATURE: Temperature for responses (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 60)
//
// Translation Configuration:
// - TRANSLATE_TARGET_LANG: target language name (default: Chinese)
// - TRANSLATE_SOURCE_LANG: preferred caption language name (default: French)
// - TRANSLATE_BATCH_SIZE: lines per translation request (default: 200)
// - TRANSLATE_RETRY_CRON: schedule for retrying rate-limited requests (default: every 5 minutes)
//
// Server Configuration:
// - LISTEN_ADDR: HTTP listen address (default: 127.0.0.1:8750)
// - DB_PATH: SQLite database path (default: data/dualsub.db)
// - LOG_LEVEL: debug/info/warn/error (default: info)
//
// Dictionary Configuration:
// - DICT_WORDS_PATH: word dictionary JSON file (optional)
// - DICT_PHRASES_PATH: phrase table JSON file (optional)

type Config struct {
	// LLM Configuration
	LLM LLMConfig `json:"llm"`

	// Translation Configuration
	Translate TranslateConfig `json:"translate"`

	// Server Configuration
	Server ServerConfig `json:"server"`

	// Dictionary Configuration
	Dict DictConfig `json:"dict"`
}

// LLMConfig holds the configuration for LLM client
// Supports any OpenAI-compatible provider
type LLMConfig struct {
	APIKey      string  `json:"api_key"`
	APIURL      string  `json:"api_url"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Timeout     int     `json:"timeout"`
}

// TranslateConfig holds the translation pipeline configuration
type TranslateConfig struct {
	TargetLanguage string `json:"target_language"`
	SourceLanguage string `json:"source_language"`
	BatchSize      int    `json:"batch_size"`
	RetryCron      string `json:"retry_cron"`
}

// ServerConfig holds the HTTP server and storage configuration
type ServerConfig struct {
	ListenAddr string `json:"listen_addr"`
	DBPath     string `json:"db_path"`
	LogLevel   string `json:"log_level"`
}

// DictConfig holds the dictionary dataset locations
type DictConfig struct {
	WordsPath   string `json:"words_path"`
	PhrasesPath string `json:"phrases_path"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIKey:      getEnvString("LLM_API_KEY", ""),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			Model:       getEnvString("LLM_MODEL", "openai/gpt-3.5-turbo"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			Timeout:     getEnvInt("LLM_TIMEOUT", 60),
		},
		Translate: TranslateConfig{
			TargetLanguage: getEnvString("TRANSLATE_TARGET_LANG", "Chinese (Mandarin)"),
			SourceLanguage: getEnvString("TRANSLATE_SOURCE_LANG", "French"),
			BatchSize:      getEnvInt("TRANSLATE_BATCH_SIZE", 200),
			RetryCron:      getEnvString("TRANSLATE_RETRY_CRON", "*/5 * * * *"),
		},
		Server: ServerConfig{
			ListenAddr: getEnvString("LISTEN_ADDR", "127.0.0.1:8750"),
			DBPath:     getEnvString("DB_PATH", "data/dualsub.db"),
			LogLevel:   getEnvString("LOG_LEVEL", "info"),
		},
		Dict: DictConfig{
			WordsPath:   getEnvString("DICT_WORDS_PATH", ""),
			PhrasesPath: getEnvString("DICT_PHRASES_PATH", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("TRANSLATE_BATCH_SIZE must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
