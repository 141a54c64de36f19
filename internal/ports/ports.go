package ports

import (
	"context"
	"time"

	"SmartFeeds/internal/domain"
)

// SourceAdapter normalizes one configured source into a snapshot of candidates.
// A failed source yields no items and a *domain.SourceError.
type SourceAdapter interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateItem, error)
}

// Classifier decides whether a single candidate matches the interest profile.
type Classifier interface {
	Classify(ctx context.Context, req domain.ClassifyRequest) (domain.Decision, error)
}

// Synthesizer condenses a full daily record into one digest body.
// An empty record yields a "nothing notable" body, not an error.
type Synthesizer interface {
	Synthesize(ctx context.Context, record domain.DailyRecord) (string, error)
}

// RecordStore is the append-only, deduplicating daily record store.
type RecordStore interface {
	Append(ctx context.Context, day domain.DayKey, item domain.AcceptedItem) (bool, error)
	Read(ctx context.Context, day domain.DayKey) (domain.DailyRecord, error)
}

// DigestStore keeps one overwritable digest per day.
type DigestStore interface {
	Save(ctx context.Context, digest domain.Digest) error
	Load(ctx context.Context, day domain.DayKey) (domain.Digest, error)
}

// SeenLedger remembers URLs judged by earlier runs.
type SeenLedger interface {
	Seen(url string) bool
	Mark(url string) error
}

// Notifier streams saved digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest domain.Digest) error
}

// ChatRequest is a single system+user exchange with an LLM.
type ChatRequest struct {
	System string
	User   string
	JSON   bool
}

// ChatClient sends prompts to LLM APIs (e.g., ChatGPT).
type ChatClient interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
