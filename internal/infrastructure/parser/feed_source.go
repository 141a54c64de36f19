package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"SmartFeeds/internal/domain"
)

const (
	defaultFeedLimit  = 5
	maxFeedExcerptLen = 1000
)

var plainText = bluemonday.StrictPolicy()

// FeedSource reads RSS, Atom and JSON feeds.
type FeedSource struct {
	client       *http.Client
	userAgent    string
	defaultLimit int
	logger       *slog.Logger
}

// NewFeedSource wires an HTTP client; defaultLimit applies to feeds without their own limit.
func NewFeedSource(client *http.Client, userAgent string, defaultLimit int, log *slog.Logger) *FeedSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if defaultLimit <= 0 {
		defaultLimit = defaultFeedLimit
	}
	return &FeedSource{client: client, userAgent: userAgent, defaultLimit: defaultLimit, logger: log}
}

// Fetch returns the newest entries of the feed in feed order.
func (s *FeedSource) Fetch(ctx context.Context, feed domain.Feed) ([]domain.CandidateItem, error) {
	body, err := get(ctx, s.client, feed.URL, s.userAgent)
	if err != nil {
		return nil, err
	}

	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := feed.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	items := make([]domain.CandidateItem, 0, limit)
	for _, entry := range parsed.Items {
		if len(items) == limit {
			break
		}
		if entry == nil {
			continue
		}

		link := strings.TrimSpace(entry.Link)
		if link == "" && strings.HasPrefix(entry.GUID, "http") {
			link = strings.TrimSpace(entry.GUID)
		}
		if link == "" {
			s.debug("skip entry without link", "feed", feed.ID(), "title", entry.Title)
			continue
		}

		title := collapseSpace(entry.Title)
		if title == "" {
			title = "No Title"
		}

		items = append(items, domain.CandidateItem{
			Title:       title,
			URL:         link,
			SourceID:    feed.ID(),
			PublishedAt: publishedAt(entry),
			RawExcerpt:  feedExcerpt(entry),
		})
	}

	s.debug("feed produced candidates", "feed", feed.ID(), "count", len(items), "entries", len(parsed.Items))
	return items, nil
}

func feedExcerpt(entry *gofeed.Item) string {
	raw := entry.Description
	if strings.TrimSpace(raw) == "" {
		raw = entry.Content
	}
	text := truncate(collapseSpace(html.UnescapeString(plainText.Sanitize(raw))), maxFeedExcerptLen)

	for _, enc := range entry.Enclosures {
		if enc != nil && enc.URL != "" {
			text = strings.TrimSpace(text + "\nMedia: " + enc.URL)
			break
		}
	}
	return text
}

func publishedAt(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	return entry.UpdatedParsed
}

func (s *FeedSource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
