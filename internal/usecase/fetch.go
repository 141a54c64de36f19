package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"SmartFeeds/internal/domain"
)

// FetchRequest is everything one Fetch Phase reads: the day it writes
// into, the sources and the interest profile.
type FetchRequest struct {
	Day     domain.DayKey
	Sources []domain.Source
	Profile string
}

// Fetch runs the Fetch Phase. Source and item failures are reported in the
// result; the error is non-nil only for a ConfigError raised before any
// source is touched.
func (p *Pipeline) Fetch(ctx context.Context, req FetchRequest) (FetchResult, error) {
	if err := p.checkFetchDeps(); err != nil {
		return FetchResult{}, err
	}
	if !req.Day.Valid() {
		return FetchResult{}, &domain.ConfigError{Field: "day", Err: fmt.Errorf("invalid day key %q", req.Day)}
	}

	result := FetchResult{
		RunID:   uuid.NewString(),
		Day:     req.Day,
		Sources: make([]SourceResult, len(req.Sources)),
		Started: p.clock(),
	}
	log := p.logger.With("run_id", result.RunID, "day", req.Day)
	log.Info("fetch phase started", "sources", len(req.Sources), "concurrency", p.opts.Concurrency)

	for i, src := range req.Sources {
		result.Sources[i] = SourceResult{State: StatePending}
		if src != nil {
			result.Sources[i].SourceID = src.ID()
			result.Sources[i].Kind = src.Kind()
		}
	}

	sem := make(chan struct{}, p.opts.Concurrency)
	var wg sync.WaitGroup
	for i, src := range req.Sources {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			result.Sources[i].fail(&domain.SourceError{SourceID: result.Sources[i].SourceID, Err: ctx.Err()})
			continue
		}

		wg.Add(1)
		go func(i int, src domain.Source) {
			defer wg.Done()
			defer func() { <-sem }()
			p.runSource(ctx, log, req, src, &result.Sources[i])
		}(i, src)
	}
	wg.Wait()

	for _, sr := range result.Sources {
		result.Written += sr.Written
		if sr.Failed() {
			result.Failed++
		}
	}
	result.Finished = p.clock()

	log.Info("fetch phase finished",
		"written", result.Written,
		"failed_sources", result.Failed,
		"outcome", result.Outcome(),
	)
	return result, nil
}

func (p *Pipeline) checkFetchDeps() error {
	switch {
	case p.adapter == nil:
		return &domain.ConfigError{Field: "adapter", Err: errors.New("source adapter not configured")}
	case p.classifier == nil:
		return &domain.ConfigError{Field: "classifier", Err: errors.New("classifier not configured")}
	case p.records == nil:
		return &domain.ConfigError{Field: "records", Err: errors.New("record store not configured")}
	}
	return nil
}

// runSource drives one source through Fetching and Classifying to a
// terminal state. Candidates are handled in adapter order.
func (p *Pipeline) runSource(ctx context.Context, log *slog.Logger, req FetchRequest, src domain.Source, res *SourceResult) {
	log = log.With("source", res.SourceID)
	res.State = StateFetching

	items, err := p.fetchSource(ctx, src)
	if err != nil {
		res.fail(asSourceError(res.SourceID, err))
		log.Warn("source failed", "error", err)
		return
	}
	res.Fetched = len(items)
	res.State = StateClassifying
	log.Debug("source fetched", "candidates", len(items))

	instruction := domain.InstructionOf(src)
	for _, candidate := range items {
		if err := ctx.Err(); err != nil {
			res.fail(&domain.SourceError{SourceID: res.SourceID, Err: err})
			log.Warn("source interrupted", "error", err)
			return
		}

		if p.seen != nil && p.seen.Seen(candidate.URL) {
			res.Skipped++
			continue
		}

		decision, err := p.classifier.Classify(ctx, domain.ClassifyRequest{
			Candidate:   candidate,
			Profile:     req.Profile,
			Instruction: instruction,
		})
		if err != nil {
			res.ClassifyErrors++
			log.Warn("candidate skipped", "error", &domain.ClassificationError{URL: candidate.URL, Err: err})
			continue
		}
		if !decision.Accept {
			res.Rejected++
			p.markSeen(log, candidate.URL)
			continue
		}

		res.Accepted++
		item := decision.Accepted(candidate, req.Day, p.clock())
		written, err := p.appendWithRetry(ctx, log, req.Day, item)
		if err != nil {
			res.fail(err)
			log.Warn("append failed, source abandoned", "url", item.URL, "error", err)
			return
		}
		if written {
			res.Written++
		} else {
			res.Duplicates++
		}
		p.markSeen(log, candidate.URL)
	}

	res.State = StatePersisted
	log.Info("source persisted",
		"fetched", res.Fetched,
		"accepted", res.Accepted,
		"written", res.Written,
		"skipped", res.Skipped,
	)
}

func (p *Pipeline) fetchSource(ctx context.Context, src domain.Source) ([]domain.CandidateItem, error) {
	if src == nil {
		return nil, errors.New("empty source descriptor")
	}
	if p.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.SourceTimeout)
		defer cancel()
	}
	return p.adapter.Fetch(ctx, src)
}

// appendWithRetry retries PersistenceErrors only; append is idempotent so
// a retry after an unobserved success reports written=false.
func (p *Pipeline) appendWithRetry(ctx context.Context, log *slog.Logger, day domain.DayKey, item domain.AcceptedItem) (bool, error) {
	for attempt := 1; ; attempt++ {
		written, err := p.records.Append(ctx, day, item)
		if err == nil {
			return written, nil
		}
		if !domain.IsPersistence(err) || attempt >= p.opts.AppendAttempts {
			return false, err
		}

		log.Warn("append failed, retrying", "url", item.URL, "attempt", attempt, "error", err)
		if err := wait(ctx, p.opts.AppendBackoff*time.Duration(attempt)); err != nil {
			return false, &domain.PersistenceError{Op: "append", Day: day, Err: err}
		}
	}
}

func (p *Pipeline) markSeen(log *slog.Logger, url string) {
	if p.seen == nil {
		return
	}
	if err := p.seen.Mark(url); err != nil {
		log.Warn("seen ledger update failed", "url", url, "error", err)
	}
}

func asSourceError(id string, err error) error {
	var se *domain.SourceError
	if errors.As(err, &se) {
		return err
	}
	return &domain.SourceError{SourceID: id, Err: err}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
