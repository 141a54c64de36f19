package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFeeds/internal/config"
	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/logging"
	"SmartFeeds/internal/usecase"
)

const testFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>t</title>
<item><title>SQLite 4 released</title><link>https://news.example.org/sqlite</link></item>
<item><title>Gardening weekly</title><link>https://news.example.org/garden</link></item>
</channel></rss>`

func testConfig(t *testing.T, feedURL string) config.Config {
	t.Helper()
	dir := t.TempDir()
	inputs := filepath.Join(dir, "inputs")
	require.NoError(t, os.MkdirAll(inputs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inputs, "sources.toml"),
		[]byte(fmt.Sprintf("rss = [{ url = %q, name = \"example\" }]\n", feedURL)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inputs, "interests.md"), []byte("sqlite internals"), 0o644))

	cfg := config.LoadFrom("")
	cfg.Workspace = config.WorkspaceConfig{Dir: dir, InputDir: "inputs", OutputDir: "data"}
	cfg.Providers = config.ProviderConfig{Classifier: config.ProviderPlain, Synthesizer: config.ProviderPlain}
	cfg.Notifications = config.NotificationConfig{}
	cfg.Fetch.SourceTimeout = 5 * time.Second
	return cfg
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testFeed))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestApplicationFetchAndSummarize(t *testing.T) {
	server := feedServer(t)
	cfg := testConfig(t, server.URL)

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	day := domain.DayKey("2026-03-14")
	result, err := application.Fetch(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeSuccess, result.Outcome())
	assert.Equal(t, 1, result.Written)

	record, err := application.Records().Read(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://news.example.org/sqlite"}, record.URLs())

	sum, err := application.Summarize(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, usecase.StateSaved, sum.State)

	saved, err := application.Digests().Load(context.Background(), day)
	require.NoError(t, err)
	assert.Contains(t, saved.Body, "https://news.example.org/sqlite")

	_, err = os.Stat(filepath.Join(cfg.OutputDir(), "details", "2026-03-14.md"))
	assert.NoError(t, err)
	_, err = os.Stat(cfg.SeenLedgerPath())
	assert.NoError(t, err)
}

func TestApplicationSQLiteDriver(t *testing.T) {
	server := feedServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Storage.Driver = config.DriverSQLite
	cfg.Dedup.SeenLedger = false

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	result, err := application.Fetch(context.Background(), "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Written)

	again, err := application.Fetch(context.Background(), "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Written)
}

func TestApplicationMissingCredentials(t *testing.T) {
	cfg := testConfig(t, "https://unused.example.org/rss")
	cfg.Providers = config.ProviderConfig{Classifier: config.ProviderLLM, Synthesizer: config.ProviderLLM}
	cfg.LLM.APIKey = ""

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	_, err = application.Fetch(context.Background(), "2026-03-14")
	assert.True(t, domain.IsConfig(err))

	_, err = application.Summarize(context.Background(), "2026-03-14")
	assert.True(t, domain.IsConfig(err))
}

func TestApplicationBadSources(t *testing.T) {
	cfg := testConfig(t, "https://unused.example.org/rss")
	require.NoError(t, os.WriteFile(cfg.SourcesPath(), []byte("websites = [\"not a url\"]"), 0o644))

	application, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	defer application.Close()

	_, err = application.Fetch(context.Background(), "2026-03-14")
	assert.True(t, domain.IsConfig(err))
}

func TestApplicationUnknownDriver(t *testing.T) {
	cfg := testConfig(t, "https://unused.example.org/rss")
	cfg.Storage.Driver = "redis"

	_, err := New(context.Background(), cfg, logging.Discard())
	assert.True(t, domain.IsConfig(err))
}

func TestSchedulerWarnsWhenSummarizeCannotRun(t *testing.T) {
	server := feedServer(t)
	cfg := testConfig(t, server.URL)
	cfg.Providers.Synthesizer = config.ProviderLLM
	cfg.LLM.APIKey = ""
	cfg.Scheduler.SummarizeAfterFetch = true

	var logs bytes.Buffer
	application, err := New(context.Background(), cfg, logging.NewWithWriter(&logs, "info", "text"))
	require.NoError(t, err)
	defer application.Close()

	sched := application.Scheduler()
	assert.Contains(t, logs.String(), "scheduled summarize disabled")

	trigger := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	require.NoError(t, sched.RunOnce(context.Background(), trigger))

	record, err := application.Records().Read(context.Background(), "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 1, record.Len())

	_, err = application.Digests().Load(context.Background(), "2026-03-14")
	assert.ErrorIs(t, err, domain.ErrDigestNotFound)
}
