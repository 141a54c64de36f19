package domain

import (
	"net/url"
	"strings"
)

// SourceKind names the variant of a configured source.
type SourceKind string

const (
	KindWebsite SourceKind = "website"
	KindFeed    SourceKind = "rss"
)

// Page fetch strategies for websites.
const (
	ModeBrowser = "browser"
	ModeHTTP    = "http"
)

// Source is a configured origin of content. The set of implementations is
// closed: Website and Feed.
type Source interface {
	ID() string
	Kind() SourceKind
	Location() string
	isSource()
}

// Website is an interactive page whose links become candidates.
type Website struct {
	Name        string
	URL         string
	Instruction string
	Selector    string
	Mode        string
}

func (w Website) ID() string { return sourceID(w.Name, w.URL) }
func (w Website) Kind() SourceKind { return KindWebsite }
func (w Website) Location() string { return w.URL }
func (Website) isSource() {}

// Feed is an RSS or Atom feed.
type Feed struct {
	Name        string
	URL         string
	Instruction string
	Limit       int
}

func (f Feed) ID() string { return sourceID(f.Name, f.URL) }
func (f Feed) Kind() SourceKind { return KindFeed }
func (f Feed) Location() string { return f.URL }
func (Feed) isSource() {}

// InstructionOf returns the per-source instruction, if the variant carries one.
func InstructionOf(src Source) string {
	switch s := src.(type) {
	case Website:
		return s.Instruction
	case Feed:
		return s.Instruction
	}
	return ""
}

func sourceID(name, rawURL string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		return u.Host
	}
	return rawURL
}
