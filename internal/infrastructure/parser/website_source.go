package parser

import (
	"context"
	"fmt"
	"log/slog"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/scanner"
)

// WebsiteSource loads a page through a registered fetch strategy and turns
// its links into candidates.
type WebsiteSource struct {
	registry *scanner.Registry
	maxItems int
	logger   *slog.Logger
}

// NewWebsiteSource wires the fetcher registry; maxItems caps candidates per page.
func NewWebsiteSource(reg *scanner.Registry, maxItems int, log *slog.Logger) *WebsiteSource {
	return &WebsiteSource{
		registry: reg,
		maxItems: maxItems,
		logger:   log,
	}
}

// Fetch takes one snapshot of the website.
func (s *WebsiteSource) Fetch(ctx context.Context, site domain.Website) ([]domain.CandidateItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("fetcher registry is not configured")
	}

	mode := site.Mode
	if mode == "" {
		mode = domain.ModeBrowser
	}

	s.debug("fetch website", "site", site.ID(), "mode", mode, "url", site.URL)
	fetcher, err := s.registry.Resolve(mode)
	if err != nil {
		return nil, err
	}

	page, err := fetcher.Fetch(ctx, scanner.Request{URL: site.URL, Instruction: site.Instruction})
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	items, err := ExtractCandidates(page, site.URL, ExtractOptions{
		SourceID: site.ID(),
		Selector: site.Selector,
		MaxItems: s.maxItems,
	})
	if err != nil {
		return nil, fmt.Errorf("extract candidates: %w", err)
	}

	s.debug("website produced candidates", "site", site.ID(), "count", len(items), "page_bytes", len(page))
	return items, nil
}

func (s *WebsiteSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
