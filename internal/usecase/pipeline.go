package usecase

import (
	"log/slog"
	"time"

	"SmartFeeds/internal/logging"
	"SmartFeeds/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// Seen and Notifier are optional.
type PipelineDeps struct {
	Adapter     ports.SourceAdapter
	Classifier  ports.Classifier
	Records     ports.RecordStore
	Synthesizer ports.Synthesizer
	Digests     ports.DigestStore
	Seen        ports.SeenLedger
	Notifier    ports.Notifier
	Logger      *slog.Logger
	Clock       func() time.Time
}

// PipelineOptions tunes the Fetch Phase.
type PipelineOptions struct {
	// Concurrency is the number of sources fetched at once; 1 is sequential.
	Concurrency int
	// SourceTimeout bounds a single adapter call.
	SourceTimeout time.Duration
	// AppendAttempts is how often a PersistenceError on append is tried.
	AppendAttempts int
	AppendBackoff  time.Duration
}

// Pipeline implements the Fetch and Summarize phases. It holds no
// persisted state of its own.
type Pipeline struct {
	adapter     ports.SourceAdapter
	classifier  ports.Classifier
	records     ports.RecordStore
	synthesizer ports.Synthesizer
	digests     ports.DigestStore
	seen        ports.SeenLedger
	notifier    ports.Notifier
	logger      *slog.Logger
	clock       func() time.Time
	opts        PipelineOptions
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps, opts PipelineOptions) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.AppendAttempts < 1 {
		opts.AppendAttempts = 1
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		adapter:     deps.Adapter,
		classifier:  deps.Classifier,
		records:     deps.Records,
		synthesizer: deps.Synthesizer,
		digests:     deps.Digests,
		seen:        deps.Seen,
		notifier:    deps.Notifier,
		logger:      logging.OrDiscard(deps.Logger).With("component", "pipeline"),
		clock:       clock,
		opts:        opts,
	}
}
