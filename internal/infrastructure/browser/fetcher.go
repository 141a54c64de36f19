package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/stealth"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/scanner"
)

const scrollStep = 1200

// Fetcher renders pages in the managed browser.
type Fetcher struct {
	mgr *Manager
}

var _ scanner.Fetcher = (*Fetcher)(nil)

// NewFetcher wraps a Manager as a page-fetch strategy.
func NewFetcher(mgr *Manager) *Fetcher {
	return &Fetcher{mgr: mgr}
}

// Name identifies the strategy in the scanner registry.
func (f *Fetcher) Name() string {
	return domain.ModeBrowser
}

// Fetch opens a stealth tab, waits for load, scrolls to pull lazy lists
// and returns the rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, req scanner.Request) ([]byte, error) {
	b, err := f.mgr.Browser(ctx)
	if err != nil {
		return nil, err
	}
	log := f.mgr.opts.Logger

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer func() { _ = page.Close() }()

	// Close above runs on the tab's own context; only navigation is bounded.
	navCtx, cancel := context.WithTimeout(ctx, f.mgr.opts.NavigationTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", req.URL, err)
	}
	if err := p.WaitLoad(); err != nil {
		log.Warn("browser: wait load timeout", "url", req.URL, "error", err)
	}

	for i := 0; i < f.mgr.opts.Scrolls; i++ {
		if err := p.Mouse.Scroll(0, scrollStep, 4); err != nil {
			log.Debug("browser: scroll failed", "url", req.URL, "error", err)
			break
		}
		if err := pause(navCtx, 750*time.Millisecond); err != nil {
			return nil, err
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	return []byte(html), nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
