package usecase

import (
	"context"
	"errors"
	"sync"

	"SmartFeeds/internal/domain"
)

type fakeAdapter struct {
	items map[string][]domain.CandidateItem
	errs  map[string]error
	block map[string]bool
}

func (f *fakeAdapter) Fetch(ctx context.Context, src domain.Source) ([]domain.CandidateItem, error) {
	id := src.ID()
	if f.block[id] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[id]; err != nil {
		return nil, &domain.SourceError{SourceID: id, Err: err}
	}
	return f.items[id], nil
}

type fakeClassifier struct {
	mu           sync.Mutex
	accept       map[string]bool
	fail         map[string]bool
	calls        []string
	instructions map[string]string
}

func (f *fakeClassifier) Classify(_ context.Context, req domain.ClassifyRequest) (domain.Decision, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.Candidate.URL)
	if f.instructions == nil {
		f.instructions = map[string]string{}
	}
	f.instructions[req.Candidate.URL] = req.Instruction
	f.mu.Unlock()

	if f.fail[req.Candidate.URL] {
		return domain.Decision{}, errors.New("model unavailable")
	}
	if !f.accept[req.Candidate.URL] {
		return domain.Decision{Accept: false}, nil
	}
	return domain.Decision{Accept: true, RelevanceNote: "matches " + req.Profile}, nil
}

func (f *fakeClassifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type memStore struct {
	mu          sync.Mutex
	records     map[domain.DayKey][]domain.AcceptedItem
	digests     map[domain.DayKey]string
	appendFails int
	appendCalls int
	readErr     error
	saveErr     error
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[domain.DayKey][]domain.AcceptedItem),
		digests: make(map[domain.DayKey]string),
	}
}

func (m *memStore) Append(_ context.Context, day domain.DayKey, item domain.AcceptedItem) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.appendCalls++
	if m.appendFails > 0 {
		m.appendFails--
		return false, &domain.PersistenceError{Op: "append", Day: day, Err: errors.New("disk busy")}
	}
	for _, existing := range m.records[day] {
		if existing.Key() == item.Key() {
			return false, nil
		}
	}
	m.records[day] = append(m.records[day], item)
	return true, nil
}

func (m *memStore) Read(_ context.Context, day domain.DayKey) (domain.DailyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return domain.DailyRecord{}, m.readErr
	}
	items := append([]domain.AcceptedItem{}, m.records[day]...)
	return domain.DailyRecord{Day: day, Items: items}, nil
}

func (m *memStore) Save(_ context.Context, digest domain.Digest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.digests[digest.Day] = digest.Body
	return nil
}

func (m *memStore) Load(_ context.Context, day domain.DayKey) (domain.Digest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.digests[day]
	if !ok {
		return domain.Digest{}, domain.ErrDigestNotFound
	}
	return domain.Digest{Day: day, Body: body}, nil
}

type memSeen struct {
	mu   sync.Mutex
	urls map[string]bool
}

func (s *memSeen) Seen(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.urls[domain.NormalizeURL(url)]
}

func (s *memSeen) Mark(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.urls == nil {
		s.urls = make(map[string]bool)
	}
	s.urls[domain.NormalizeURL(url)] = true
	return nil
}

type fakeSynth struct {
	body  string
	err   error
	calls int
}

func (f *fakeSynth) Synthesize(_ context.Context, record domain.DailyRecord) (string, error) {
	f.calls++
	return f.body, f.err
}

type fakeNotifier struct {
	err  error
	sent []domain.Digest
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest domain.Digest) error {
	f.sent = append(f.sent, digest)
	return f.err
}

func candidates(source string, urls ...string) []domain.CandidateItem {
	out := make([]domain.CandidateItem, 0, len(urls))
	for _, u := range urls {
		out = append(out, domain.CandidateItem{Title: "title " + u, URL: u, SourceID: source})
	}
	return out
}
