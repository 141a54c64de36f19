package usecase

import (
	"time"

	"SmartFeeds/internal/domain"
)

// SourceState is the Fetch Phase state of one source.
type SourceState string

const (
	StatePending     SourceState = "pending"
	StateFetching    SourceState = "fetching"
	StateClassifying SourceState = "classifying"
	StatePersisted   SourceState = "persisted"
	StateFailed      SourceState = "source_failed"
)

// Outcome summarizes a Fetch Phase for exit statuses and API replies.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// SourceResult reports what happened to one configured source.
type SourceResult struct {
	SourceID string            `json:"source"`
	Kind     domain.SourceKind `json:"kind"`
	State    SourceState       `json:"state"`
	// Fetched is the number of candidates the adapter produced.
	Fetched int `json:"fetched"`
	// Accepted counts classifier accepts, whether or not the store wrote them.
	Accepted       int `json:"accepted"`
	Rejected       int `json:"rejected"`
	ClassifyErrors int `json:"classifyErrors"`
	// Skipped counts candidates already judged by an earlier run.
	Skipped    int    `json:"skipped"`
	Duplicates int    `json:"duplicates"`
	Written    int    `json:"written"`
	Err        error  `json:"-"`
	Error      string `json:"error,omitempty"`
}

// Failed reports whether the source ended in SourceFailed.
func (r SourceResult) Failed() bool {
	return r.State == StateFailed
}

func (r *SourceResult) fail(err error) {
	r.State = StateFailed
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
}

// FetchResult is the aggregated report of one Fetch Phase.
type FetchResult struct {
	RunID    string         `json:"runId"`
	Day      domain.DayKey  `json:"day"`
	Sources  []SourceResult `json:"sources"`
	Written  int            `json:"written"`
	Failed   int            `json:"failed"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
}

// Outcome is success when no source failed, failure when every source
// failed and partial otherwise. A phase without sources succeeds.
func (r FetchResult) Outcome() Outcome {
	switch {
	case r.Failed == 0:
		return OutcomeSuccess
	case r.Failed == len(r.Sources):
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

// SummarizeState is the Summarize Phase state.
type SummarizeState string

const (
	StateReading      SummarizeState = "reading"
	StateSynthesizing SummarizeState = "synthesizing"
	StateSaved        SummarizeState = "saved"
	StateSumFailed    SummarizeState = "failed"
)

// SummarizeResult reports one Summarize Phase.
type SummarizeResult struct {
	Day       domain.DayKey  `json:"day"`
	State     SummarizeState `json:"state"`
	Items     int            `json:"items"`
	Digest    domain.Digest  `json:"-"`
	Notified  bool           `json:"notified"`
	NotifyErr error          `json:"-"`
}
