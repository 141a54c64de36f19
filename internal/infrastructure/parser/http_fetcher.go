package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/scanner"
)

const (
	defaultUserAgent = "SmartFeeds/1.0"
	maxPageBytes     = 8 << 20
)

// HTTPFetcher loads static pages with a single GET; no JavaScript runs.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

var _ scanner.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher wires an HTTP client; a nil client gets a 30s timeout.
func NewHTTPFetcher(client *http.Client, userAgent string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{client: client, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (h *HTTPFetcher) Name() string {
	return domain.ModeHTTP
}

// Fetch returns the raw page body.
func (h *HTTPFetcher) Fetch(ctx context.Context, req scanner.Request) ([]byte, error) {
	return get(ctx, h.client, req.URL, h.userAgent)
}

func get(ctx context.Context, client *http.Client, pageURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	return body, nil
}
