package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1000, cfg.Batch.Size)
	assert.Equal(t, 25, cfg.Batch.FlushEvery)
	assert.Equal(t, 1500*time.Millisecond, cfg.Batch.RequestDelay)
	assert.Equal(t, 40, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Scraper.Actor)
	assert.NotEmpty(t, cfg.Search.BaseURL)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DIRSCRAPER_SEARCH_API_KEY", "env-key")
	t.Setenv("DIRSCRAPER_SEARCH_ENGINE_ID", "env-cx")
	t.Setenv("DIRSCRAPER_BATCH_SIZE", "250")
	t.Setenv("DIRSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-key", cfg.Search.APIKey)
	assert.Equal(t, "env-cx", cfg.Search.EngineID)
	assert.Equal(t, 250, cfg.Batch.Size)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvLegacyNames(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "legacy-key")
	t.Setenv("GOOGLE_CSE_ID", "legacy-cx")
	t.Setenv("APIFY_API_TOKEN", "legacy-token")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "legacy-key", cfg.Search.APIKey)
	assert.Equal(t, "legacy-cx", cfg.Search.EngineID)
	assert.Equal(t, "legacy-token", cfg.Scraper.APIToken)
}

func TestLoadFromEnvPrefersNamespacedNames(t *testing.T) {
	t.Setenv("DIRSCRAPER_SEARCH_API_KEY", "new-key")
	t.Setenv("GOOGLE_API_KEY", "legacy-key")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, "new-key", cfg.Search.APIKey)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
batch:
  size: 500
  flush_every: 10
rate_limit:
  requests_per_minute: 20
paths:
  input: custom/input.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 500, cfg.Batch.Size)
	assert.Equal(t, 10, cfg.Batch.FlushEvery)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "custom/input.csv", cfg.Paths.Input)
	// Untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Run("RejectsBadBatchSize", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Batch.Size = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch size")
	})

	t.Run("RejectsBadLogLevel", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "loud"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log level")
	})

	t.Run("JoinsMultipleErrors", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Batch.Size = -1
		cfg.RateLimit.RequestsPerMinute = 0
		cfg.Paths.CheckpointDir = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch size")
		assert.Contains(t, err.Error(), "requests per minute")
		assert.Contains(t, err.Error(), "checkpoint directory")
	})
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"input":      "flag/input.csv",
		"batch-size": 42,
		"log-level":  "warn",
	})

	assert.Equal(t, "flag/input.csv", cfg.Paths.Input)
	assert.Equal(t, 42, cfg.Batch.Size)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  size: 100\n"), 0644))

	t.Setenv("DIRSCRAPER_BATCH_SIZE", "200")

	// Flags beat environment beats file
	cfg, err := Load(path, map[string]interface{}{"batch-size": 300})
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Batch.Size)

	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Batch.Size)
}
