package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg := LoadFrom("")

	assert.Equal(t, DriverMarkdown, cfg.Storage.Driver)
	assert.Equal(t, 1, cfg.Fetch.Concurrency)
	assert.Equal(t, 5, cfg.Fetch.FeedLimit)
	assert.True(t, cfg.Dedup.SeenLedger)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
	assert.Equal(t, filepath.Join(".", "inputs", "sources.toml"), cfg.SourcesPath())
	assert.Equal(t, filepath.Join(".", "data", "seen_urls.txt"), cfg.SeenLedgerPath())
}

func TestLoadFromFileMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workspace:
  dir: /srv/feeds
scheduler:
  timezone: Europe/Berlin
fetch:
  concurrency: 4
  sourceTimeout: 45s
storage:
  driver: sqlite
  dsn: feeds.db
llm:
  model: gpt-4.1
`), 0o600))

	cfg := LoadFrom(path)

	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, 45*time.Second, cfg.Fetch.SourceTimeout)
	assert.Equal(t, 3, cfg.Fetch.AppendAttempts, "untouched keys keep defaults")
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, "English", cfg.LLM.OutputLanguage)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.Equal(t, "/srv/feeds/inputs", cfg.InputDir())
	assert.Equal(t, "/srv/feeds/inputs/browser", cfg.BrowserUserDataDir())
}

func TestLoadFromBrokenFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch: [unterminated"), 0o600))

	cfg := LoadFrom(path)
	assert.Equal(t, defaultConfig().Fetch.Concurrency, cfg.Fetch.Concurrency)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(outputDirEnv, "/tmp/out")
	t.Setenv(modelEnv, "gemini-2.0-flash")
	t.Setenv(languageEnv, "French")
	t.Setenv(llmAPIKeyEnv, "")
	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(retryMaxEnv, "2")
	t.Setenv(retryDelayEnv, "0.5")
	t.Setenv(timezoneEnv, "Not/AZone")

	cfg := LoadFrom("")

	assert.Equal(t, "/tmp/out", cfg.OutputDir())
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, "French", cfg.LLM.OutputLanguage)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 2, cfg.LLM.RetryMaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.LLM.RetryDelay)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String(), "unknown zone reverts to UTC")
}

func TestTelegramEnabled(t *testing.T) {
	t.Parallel()

	assert.False(t, TelegramConfig{BotToken: "x"}.Enabled())
	assert.True(t, TelegramConfig{BotToken: "x", ChatID: "1"}.Enabled())
}
