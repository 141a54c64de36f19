package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/ports"
)

// MarkdownStore keeps daily records under details/<day>.md and digests under
// daily_news/<day>.md inside the output directory.
type MarkdownStore struct {
	root  string
	locks *dayLocks
}

var (
	_ ports.RecordStore = (*MarkdownStore)(nil)
	_ ports.DigestStore = (*MarkdownStore)(nil)
)

// NewMarkdownStore roots the store at outputDir. Directories are created on
// first write.
func NewMarkdownStore(outputDir string) *MarkdownStore {
	return &MarkdownStore{root: outputDir, locks: newDayLocks()}
}

func (s *MarkdownStore) recordPath(day domain.DayKey) string {
	return filepath.Join(s.root, "details", day.String()+".md")
}

func (s *MarkdownStore) digestPath(day domain.DayKey) string {
	return filepath.Join(s.root, "daily_news", day.String()+".md")
}

// Append adds item to the day's record unless its URL is already there.
// The read-check-write sequence runs under the day's lock, both the
// in-process mutex and a <day>.md.lock file shared with other processes.
func (s *MarkdownStore) Append(ctx context.Context, day domain.DayKey, item domain.AcceptedItem) (bool, error) {
	if !day.Valid() {
		return false, invalidDay(day)
	}
	if item.Key() == "" {
		return false, &domain.ConfigError{Field: "url", Err: errors.New("accepted item without url")}
	}

	item.URL = domain.CleanURL(item.URL)

	unlock := s.locks.lock(day)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return false, &domain.PersistenceError{Op: "append", Day: day, Err: err}
	}

	path := s.recordPath(day)
	release, err := acquireFileLock(ctx, path+".lock")
	if err != nil {
		return false, &domain.PersistenceError{Op: "append", Day: day, Err: err}
	}
	defer release()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, &domain.PersistenceError{Op: "append", Day: day, Err: fmt.Errorf("read record: %w", err)}
	}

	key := item.Key()
	for _, existing := range parseRecord(day, data) {
		if existing.Key() == key {
			return false, nil
		}
	}

	if len(data) == 0 {
		data = []byte(recordHeader(day))
	} else if data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	item.DayKey = day
	data = append(data, renderItem(item)...)

	if err := writeFileAtomic(path, data); err != nil {
		return false, &domain.PersistenceError{Op: "append", Day: day, Err: err}
	}
	return true, nil
}

// Read returns the day's record in append order; a day without a file is empty.
func (s *MarkdownStore) Read(ctx context.Context, day domain.DayKey) (domain.DailyRecord, error) {
	if !day.Valid() {
		return domain.DailyRecord{}, invalidDay(day)
	}
	if err := ctx.Err(); err != nil {
		return domain.DailyRecord{}, &domain.PersistenceError{Op: "read", Day: day, Err: err}
	}

	data, err := os.ReadFile(s.recordPath(day))
	if errors.Is(err, os.ErrNotExist) {
		return domain.DailyRecord{Day: day, Items: []domain.AcceptedItem{}}, nil
	}
	if err != nil {
		return domain.DailyRecord{}, &domain.PersistenceError{Op: "read", Day: day, Err: err}
	}
	return domain.DailyRecord{Day: day, Items: parseRecord(day, data)}, nil
}

// Save replaces the day's digest.
func (s *MarkdownStore) Save(ctx context.Context, digest domain.Digest) error {
	if !digest.Day.Valid() {
		return invalidDay(digest.Day)
	}
	if err := ctx.Err(); err != nil {
		return &domain.PersistenceError{Op: "save digest", Day: digest.Day, Err: err}
	}
	if err := writeFileAtomic(s.digestPath(digest.Day), []byte(digest.Body)); err != nil {
		return &domain.PersistenceError{Op: "save digest", Day: digest.Day, Err: err}
	}
	return nil
}

// Load returns the saved digest or domain.ErrDigestNotFound.
func (s *MarkdownStore) Load(ctx context.Context, day domain.DayKey) (domain.Digest, error) {
	if !day.Valid() {
		return domain.Digest{}, invalidDay(day)
	}
	if err := ctx.Err(); err != nil {
		return domain.Digest{}, &domain.PersistenceError{Op: "load digest", Day: day, Err: err}
	}

	body, err := os.ReadFile(s.digestPath(day))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Digest{}, domain.ErrDigestNotFound
	}
	if err != nil {
		return domain.Digest{}, &domain.PersistenceError{Op: "load digest", Day: day, Err: err}
	}
	return domain.Digest{Day: day, Body: string(body)}, nil
}

func invalidDay(day domain.DayKey) error {
	return &domain.ConfigError{Field: "day", Err: fmt.Errorf("invalid day key %q", day)}
}
