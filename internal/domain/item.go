package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// CandidateItem is a raw, unfiltered piece of content pulled from a source.
type CandidateItem struct {
	Title       string
	URL         string
	SourceID    string
	PublishedAt *time.Time
	RawExcerpt  string
}

// AcceptedItem is a candidate that passed relevance filtering and was persisted.
// It is never edited after the store writes it.
type AcceptedItem struct {
	Title         string
	URL           string
	SourceID      string
	RelevanceNote string
	Summary       string
	CapturedAt    time.Time
	DayKey        DayKey
}

// Key returns the identity of the item inside its day.
func (a AcceptedItem) Key() string {
	return NormalizeURL(a.URL)
}

// DailyRecord is the ordered, append-only sequence of accepted items for one day.
type DailyRecord struct {
	Day   DayKey
	Items []AcceptedItem
}

// Len reports how many items the record holds.
func (r DailyRecord) Len() int {
	return len(r.Items)
}

// URLs returns the normalized identity keys in record order.
func (r DailyRecord) URLs() []string {
	urls := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		urls = append(urls, item.Key())
	}
	return urls
}

// Digest is the synthesized end-of-day summary derived from a daily record.
type Digest struct {
	Day  DayKey
	Body string
}

// ClassifyRequest carries one candidate plus the context a classifier needs.
type ClassifyRequest struct {
	Candidate   CandidateItem
	Profile     string
	Instruction string
}

// Decision is the classifier verdict for a single candidate.
type Decision struct {
	Accept        bool
	Title         string
	RelevanceNote string
	Summary       string
}

// Accepted builds the persisted form of a candidate the classifier accepted.
func (d Decision) Accepted(c CandidateItem, day DayKey, capturedAt time.Time) AcceptedItem {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = strings.TrimSpace(c.Title)
	}
	if title == "" {
		title = "No Title"
	}
	return AcceptedItem{
		Title:         title,
		URL:           CleanURL(c.URL),
		SourceID:      c.SourceID,
		RelevanceNote: strings.TrimSpace(d.RelevanceNote),
		Summary:       strings.TrimSpace(d.Summary),
		CapturedAt:    capturedAt.UTC(),
		DayKey:        day,
	}
}

// CleanURL trims surrounding whitespace and percent-encodes any whitespace
// left inside, so the stored form of a URL is a single token.
func CleanURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.IndexFunc(raw, unicode.IsSpace) < 0 {
		return raw
	}
	var b strings.Builder
	for _, r := range raw {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
			continue
		}
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		for _, c := range buf[:n] {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// NormalizeURL cleans the URL and strips trailing slashes so that
// "https://a/x/" and "https://a/x" identify the same item.
func NormalizeURL(raw string) string {
	return strings.TrimRight(CleanURL(raw), "/")
}
