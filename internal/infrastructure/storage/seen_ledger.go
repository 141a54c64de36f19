package storage

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"SmartFeeds/internal/ports"
)

const defaultLedgerEntries = 100000

// SeenLedger is a file of short URL hashes, one per line, capped to the most
// recent maxEntries lines.
type SeenLedger struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	order      []string
	set        map[string]struct{}
}

var _ ports.SeenLedger = (*SeenLedger)(nil)

// OpenSeenLedger loads an existing ledger file; a missing file is an empty ledger.
func OpenSeenLedger(path string, maxEntries int) (*SeenLedger, error) {
	if maxEntries <= 0 {
		maxEntries = defaultLedgerEntries
	}
	l := &SeenLedger{
		path:       path,
		maxEntries: maxEntries,
		set:        make(map[string]struct{}),
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seen ledger: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		h := strings.TrimSpace(sc.Text())
		if h == "" {
			continue
		}
		if _, ok := l.set[h]; ok {
			continue
		}
		l.set[h] = struct{}{}
		l.order = append(l.order, h)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read seen ledger: %w", err)
	}
	l.trim()
	return l, nil
}

// Seen reports whether url was marked by this or an earlier run.
func (l *SeenLedger) Seen(url string) bool {
	h := urlHash(url)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.set[h]
	return ok
}

// Mark records url. The file is appended to, and rewritten only when it
// outgrows maxEntries.
func (l *SeenLedger) Mark(url string) error {
	h := urlHash(url)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.set[h]; ok {
		return nil
	}
	l.set[h] = struct{}{}
	l.order = append(l.order, h)

	if l.trim() {
		return writeFileAtomic(l.path, []byte(strings.Join(l.order, "\n")+"\n"))
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open seen ledger: %w", err)
	}
	if _, err := f.WriteString(h + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("append seen ledger: %w", err)
	}
	return f.Close()
}

// Len reports how many hashes the ledger holds.
func (l *SeenLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

func (l *SeenLedger) trim() bool {
	if len(l.order) <= l.maxEntries {
		return false
	}
	drop := l.order[:len(l.order)-l.maxEntries]
	for _, h := range drop {
		delete(l.set, h)
	}
	l.order = append([]string(nil), l.order[len(drop):]...)
	return true
}

// urlHash hashes the URL as given, apart from surrounding whitespace, so
// ledgers written by earlier versions keep matching.
func urlHash(url string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])[:8]
}
