package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"SmartFeeds/internal/domain"
)

// dayLocks hands out one mutex per day key. Writers for the same day are
// serialized; different days never contend.
type dayLocks struct {
	mu    sync.Mutex
	locks map[domain.DayKey]*sync.Mutex
}

func newDayLocks() *dayLocks {
	return &dayLocks{locks: make(map[domain.DayKey]*sync.Mutex)}
}

func (d *dayLocks) lock(day domain.DayKey) func() {
	d.mu.Lock()
	m, ok := d.locks[day]
	if !ok {
		m = &sync.Mutex{}
		d.locks[day] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}

const (
	fileLockRetry = 25 * time.Millisecond
	fileLockStale = 2 * time.Minute
)

// acquireFileLock creates path exclusively so writers in other processes
// sharing the output directory wait for each other. A lock file older than
// fileLockStale is left over from a crashed writer and is taken over.
func acquireFileLock(ctx context.Context, path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock: %w", err)
		}

		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > fileLockStale {
			_ = os.Remove(path)
			continue
		}

		timer := time.NewTimer(fileLockRetry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("wait for %s: %w", filepath.Base(path), ctx.Err())
		case <-timer.C:
		}
	}
}
