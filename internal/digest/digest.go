// Package digest renders daily records into markdown digests without any
// external service.
package digest

import (
	"context"
	"fmt"
	"strings"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/ports"
)

// NothingNotable is the digest body for a day without accepted items.
func NothingNotable(day domain.DayKey) string {
	return fmt.Sprintf("# Daily Digest - %s\n\nNothing notable today.\n", day)
}

// Plain groups items by source and lists them with their relevance notes.
type Plain struct{}

var _ ports.Synthesizer = Plain{}

// Synthesize renders one section per source, sources ordered by first
// appearance in the record.
func (Plain) Synthesize(ctx context.Context, record domain.DailyRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if record.Len() == 0 {
		return NothingNotable(record.Day), nil
	}

	var order []string
	groups := make(map[string][]domain.AcceptedItem)
	for _, item := range record.Items {
		key := item.SourceID
		if key == "" {
			key = "other"
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], item)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Daily Digest - %s\n", record.Day)
	for _, key := range order {
		fmt.Fprintf(&b, "\n## %s\n\n", key)
		for _, item := range groups[key] {
			fmt.Fprintf(&b, "- [%s](%s)", item.Title, item.URL)
			if note := noteOf(item); note != "" {
				fmt.Fprintf(&b, ": %s", note)
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func noteOf(item domain.AcceptedItem) string {
	if s := strings.TrimSpace(item.Summary); s != "" {
		return s
	}
	return strings.TrimSpace(item.RelevanceNote)
}
