package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"SmartFeeds/internal/domain"
)

// Summarize runs the Summarize Phase for day: read the whole record,
// synthesize one digest and replace the stored one. Either a digest is
// saved or an error is returned; notification failures are only reported.
func (p *Pipeline) Summarize(ctx context.Context, day domain.DayKey) (SummarizeResult, error) {
	result := SummarizeResult{Day: day, State: StateReading}

	switch {
	case p.records == nil:
		return p.summarizeFailed(result, &domain.ConfigError{Field: "records", Err: errors.New("record store not configured")})
	case p.synthesizer == nil:
		return p.summarizeFailed(result, &domain.ConfigError{Field: "synthesizer", Err: errors.New("synthesizer not configured")})
	case p.digests == nil:
		return p.summarizeFailed(result, &domain.ConfigError{Field: "digests", Err: errors.New("digest store not configured")})
	case !day.Valid():
		return p.summarizeFailed(result, &domain.ConfigError{Field: "day", Err: fmt.Errorf("invalid day key %q", day)})
	}

	log := p.logger.With("day", day)

	record, err := p.records.Read(ctx, day)
	if err != nil {
		return p.summarizeFailed(result, err)
	}
	result.Items = record.Len()

	result.State = StateSynthesizing
	log.Info("synthesizing digest", "items", record.Len())

	body, err := p.synthesizer.Synthesize(ctx, record)
	if err != nil {
		return p.summarizeFailed(result, &domain.SynthesisError{Day: day, Err: err})
	}
	if strings.TrimSpace(body) == "" {
		return p.summarizeFailed(result, &domain.SynthesisError{Day: day, Err: errors.New("empty digest body")})
	}

	digest := domain.Digest{Day: day, Body: body}
	if err := p.digests.Save(ctx, digest); err != nil {
		return p.summarizeFailed(result, err)
	}
	result.State = StateSaved
	result.Digest = digest
	log.Info("digest saved", "bytes", len(body))

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, digest); err != nil {
			result.NotifyErr = err
			log.Warn("digest notification failed", "error", err)
		} else {
			result.Notified = true
		}
	}

	return result, nil
}

func (p *Pipeline) summarizeFailed(result SummarizeResult, err error) (SummarizeResult, error) {
	result.State = StateSumFailed
	p.logger.Error("summarize phase failed", "day", result.Day, "error", err)
	return result, err
}
