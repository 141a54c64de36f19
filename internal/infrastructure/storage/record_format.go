package storage

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"time"

	"SmartFeeds/internal/domain"
)

const (
	fieldSource    = "**Source:** "
	fieldRelevance = "**Relevance:** "
	fieldSummary   = "**Summary:** "
	fieldCaptured  = "**Captured:** "
)

func recordHeader(day domain.DayKey) string {
	return fmt.Sprintf("# Details - %s\n\n", day)
}

// renderItem writes one accepted item as a markdown block. Every field is
// kept on a single line so the block can be parsed back.
func renderItem(item domain.AcceptedItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## [%s](%s)\n", escapeTitle(oneLine(item.Title)), oneLine(item.URL))
	fmt.Fprintf(&b, "%s%s\n", fieldSource, oneLine(item.SourceID))
	fmt.Fprintf(&b, "%s%s\n", fieldRelevance, oneLine(item.RelevanceNote))
	if s := oneLine(item.Summary); s != "" {
		fmt.Fprintf(&b, "%s%s\n", fieldSummary, s)
	}
	fmt.Fprintf(&b, "%s%s\n\n", fieldCaptured, item.CapturedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// parseRecord reads the blocks of a details file in file order. Lines that
// do not belong to a block are ignored.
func parseRecord(day domain.DayKey, data []byte) []domain.AcceptedItem {
	items := make([]domain.AcceptedItem, 0)
	var current *domain.AcceptedItem

	flush := func() {
		if current != nil {
			items = append(items, *current)
			current = nil
		}
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		if title, link, ok := parseHeading(line); ok {
			flush()
			current = &domain.AcceptedItem{Title: title, URL: link, DayKey: day}
			continue
		}
		if current == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, fieldSource):
			current.SourceID = strings.TrimPrefix(line, fieldSource)
		case strings.HasPrefix(line, fieldRelevance):
			current.RelevanceNote = strings.TrimPrefix(line, fieldRelevance)
		case strings.HasPrefix(line, fieldSummary):
			current.Summary = strings.TrimPrefix(line, fieldSummary)
		case strings.HasPrefix(line, fieldCaptured):
			if ts, err := time.Parse(time.RFC3339, strings.TrimPrefix(line, fieldCaptured)); err == nil {
				current.CapturedAt = ts
			}
		}
	}
	flush()

	return items
}

// parseHeading splits "## [title](url)" honouring escaped brackets in the title.
func parseHeading(line string) (string, string, bool) {
	rest, ok := strings.CutPrefix(line, "## [")
	if !ok {
		return "", "", false
	}

	var title strings.Builder
	escaped := false
	for i, r := range rest {
		switch {
		case escaped:
			title.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ']':
			tail := rest[i+1:]
			if !strings.HasPrefix(tail, "(") || !strings.HasSuffix(tail, ")") {
				return "", "", false
			}
			link := strings.TrimSpace(tail[1 : len(tail)-1])
			if link == "" {
				return "", "", false
			}
			return title.String(), link, true
		default:
			title.WriteRune(r)
		}
	}
	return "", "", false
}

var titleEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

func escapeTitle(s string) string {
	return titleEscaper.Replace(s)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
