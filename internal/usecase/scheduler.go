package usecase

import (
	"context"
	"log/slog"
	"time"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/logging"
	"SmartFeeds/internal/ports"
)

// RequestLoader builds the Fetch Phase input for day. Sources and the
// interest profile are read fresh on every call.
type RequestLoader func(ctx context.Context, day domain.DayKey) (FetchRequest, error)

// SchedulerOptions tunes scheduled cycles.
type SchedulerOptions struct {
	Location            *time.Location
	SummarizeAfterFetch bool
}

// Scheduler wires the interval driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	load     RequestLoader
	opts     SchedulerOptions
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, load RequestLoader, opts SchedulerOptions, logger *slog.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Scheduler{
		driver:   driver,
		pipeline: pipeline,
		load:     load,
		opts:     opts,
		logger:   logging.OrDiscard(logger).With("component", "scheduler"),
	}
}

// Start registers the cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil || s.load == nil {
		return nil
	}

	job := func(trigger time.Time) {
		_ = s.RunOnce(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// RunOnce fetches into the day key of trigger and, when configured,
// summarizes that day right after.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) error {
	day := domain.DayKeyFor(trigger, s.opts.Location)

	req, err := s.load(ctx, day)
	if err != nil {
		s.logger.Error("scheduled cycle skipped", "day", day, "error", err)
		return err
	}

	if _, err := s.pipeline.Fetch(ctx, req); err != nil {
		s.logger.Error("scheduled fetch failed", "day", day, "error", err)
		return err
	}

	if !s.opts.SummarizeAfterFetch {
		return nil
	}
	if _, err := s.pipeline.Summarize(ctx, day); err != nil {
		return err
	}
	return nil
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
