// Package browser fetches pages through a Chrome instance driven by Rod.
// The profile directory is persistent so logins survive between runs.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"SmartFeeds/internal/logging"
)

// Options configures the browser manager.
type Options struct {
	// UserDataDir holds the persistent Chrome profile.
	UserDataDir string
	Headless    bool
	// RemoteURL is the DevTools WebSocket URL of an external Chrome.
	// Empty launches a local Chrome.
	RemoteURL         string
	Proxy             string
	Scrolls           int
	NavigationTimeout time.Duration
	Logger            *slog.Logger
}

func (o *Options) defaults() {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 60 * time.Second
	}
	if o.Scrolls < 0 {
		o.Scrolls = 0
	}
	o.Logger = logging.OrDiscard(o.Logger).With("component", "browser")
}

// Manager owns one lazily started Chrome shared by all fetches.
type Manager struct {
	opts    Options
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Chrome starts on first use.
func NewManager(opts Options) *Manager {
	opts.defaults()
	return &Manager{opts: opts}
}

// Browser returns the running browser, launching it if needed.
func (m *Manager) Browser(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	b, l, err := connect(ctx, m.opts, m.opts.Headless)
	if err != nil {
		return nil, err
	}
	m.browser, m.lnch = b, l
	return b, nil
}

// Close shuts Chrome down. Further calls to Browser fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	var err error
	if m.browser != nil {
		err = m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return err
}

func connect(ctx context.Context, opts Options, headless bool) (*rod.Browser, *launcher.Launcher, error) {
	log := opts.Logger

	var (
		wsURL string
		l     *launcher.Launcher
	)
	if opts.RemoteURL != "" {
		wsURL = opts.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l = newLauncher(opts, headless).Context(ctx)
		u, err := l.Launch()
		if err != nil {
			return nil, nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		log.Info("browser: launched local chrome", "headless", headless, "profile", opts.UserDataDir)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		if l != nil {
			l.Cleanup()
		}
		return nil, nil, fmt.Errorf("browser: connect: %w", err)
	}
	return b, l, nil
}

func newLauncher(opts Options, headless bool) *launcher.Launcher {
	l := launcher.New().Headless(headless)
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
	}
	return l.Set("disable-blink-features", "AutomationControlled")
}
