package llm

import (
	"fmt"
	"strings"

	"SmartFeeds/internal/domain"
)

func classifierSystemPrompt(profile, language string) string {
	return fmt.Sprintf(`You are a content curator.
Decide whether a single item is relevant to the reader's interests below.
Items that match the interests are relevant. Items that touch the reader's dislikes or are unrelated are not.
Be strict: quality over quantity.

Reader interests:
%s

Answer with a JSON object and nothing else:
{"relevant": true|false, "title": "clean title", "relevance": "why it matches, one sentence", "summary": "two or three sentences"}
Write "relevance" and "summary" in %s.`, strings.TrimSpace(profile), language)
}

func classifierUserPrompt(req domain.ClassifyRequest) string {
	var b strings.Builder
	c := req.Candidate
	fmt.Fprintf(&b, "Title: %s\nURL: %s\nSource: %s\n", c.Title, c.URL, c.SourceID)
	if c.PublishedAt != nil {
		fmt.Fprintf(&b, "Published: %s\n", c.PublishedAt.UTC().Format("2006-01-02 15:04"))
	}
	if instr := strings.TrimSpace(req.Instruction); instr != "" {
		fmt.Fprintf(&b, "Source instructions:\n%s\n", instr)
	}
	if excerpt := strings.TrimSpace(c.RawExcerpt); excerpt != "" {
		fmt.Fprintf(&b, "Excerpt:\n%s\n", excerpt)
	}
	return b.String()
}

func synthesizerSystemPrompt(day domain.DayKey, language string) string {
	return fmt.Sprintf(`You are a digest editor.
You receive the items already selected for %[1]s as a JSON array.
Group them by topic and write one section per topic with a short overview.
List every item with its title, a one-line summary and its original link written as [url](url).
Do not drop items and do not invent new ones.

Output markdown only, starting with the heading "# Daily Digest - %[1]s".
The digest MUST be written in %[2]s.`, day, language)
}
