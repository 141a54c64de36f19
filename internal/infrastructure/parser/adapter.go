package parser

import (
	"context"
	"fmt"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/ports"
)

// Dispatcher routes each source variant to its adapter.
type Dispatcher struct {
	websites *WebsiteSource
	feeds    *FeedSource
}

var _ ports.SourceAdapter = (*Dispatcher)(nil)

// NewDispatcher combines the website and feed adapters.
func NewDispatcher(websites *WebsiteSource, feeds *FeedSource) *Dispatcher {
	return &Dispatcher{websites: websites, feeds: feeds}
}

// Fetch snapshots one source. Every failure comes back as a *domain.SourceError.
func (d *Dispatcher) Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateItem, error) {
	if src == nil {
		return nil, &domain.SourceError{SourceID: "<nil>", Err: fmt.Errorf("no source given")}
	}

	var (
		items []domain.CandidateItem
		err   error
	)
	switch s := src.(type) {
	case domain.Website:
		if d.websites == nil {
			err = fmt.Errorf("website adapter is not configured")
			break
		}
		items, err = d.websites.Fetch(ctx, s)
	case domain.Feed:
		if d.feeds == nil {
			err = fmt.Errorf("feed adapter is not configured")
			break
		}
		items, err = d.feeds.Fetch(ctx, s)
	default:
		err = fmt.Errorf("unsupported source type %T", src)
	}

	if err != nil {
		return nil, &domain.SourceError{SourceID: src.ID(), Err: err}
	}
	return items, nil
}
