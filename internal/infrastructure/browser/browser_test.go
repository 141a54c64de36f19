package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/scanner"
)

func TestNewLauncherFlags(t *testing.T) {
	l := newLauncher(Options{UserDataDir: "/tmp/profile", Proxy: "127.0.0.1:8888"}, true)

	assert.Equal(t, "/tmp/profile", l.Get(flags.UserDataDir))
	assert.Equal(t, "127.0.0.1:8888", l.Get(flags.ProxyServer))
	assert.True(t, l.Has(flags.Headless))
	assert.Equal(t, "AutomationControlled", l.Get("disable-blink-features"))

	visible := newLauncher(Options{}, false)
	assert.False(t, visible.Has(flags.Headless))
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Scrolls: -3}
	opts.defaults()
	assert.Equal(t, 60*time.Second, opts.NavigationTimeout)
	assert.Equal(t, 0, opts.Scrolls)
	assert.NotNil(t, opts.Logger)
}

func TestClosedManager(t *testing.T) {
	mgr := NewManager(Options{})
	require.NoError(t, mgr.Close())

	_, err := mgr.Browser(context.Background())
	assert.ErrorContains(t, err, "closed")

	f := NewFetcher(mgr)
	assert.Equal(t, domain.ModeBrowser, f.Name())
}

func TestFetchClosesTab(t *testing.T) {
	if _, found := launcher.LookPath(); !found {
		t.Skip("no Chrome or Chromium installed")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/post/1">First post</a></body></html>`))
	}))
	defer server.Close()

	ctx := context.Background()
	mgr := NewManager(Options{UserDataDir: t.TempDir(), Headless: true, NavigationTimeout: 20 * time.Second})
	defer mgr.Close()

	b, err := mgr.Browser(ctx)
	require.NoError(t, err)
	before, err := b.Pages()
	require.NoError(t, err)

	fetcher := NewFetcher(mgr)
	for i := 0; i < 3; i++ {
		html, err := fetcher.Fetch(ctx, scanner.Request{URL: server.URL})
		require.NoError(t, err)
		assert.Contains(t, string(html), "First post")
	}

	after, err := b.Pages()
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}
