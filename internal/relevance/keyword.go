// Package relevance holds the offline keyword classifier used when no model
// is configured.
package relevance

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/ports"
)

const minKeywordLen = 3

var stopWords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "about": {}, "that": {}, "this": {},
	"from": {}, "are": {}, "not": {}, "any": {}, "all": {}, "news": {}, "interested": {},
	"interests": {}, "like": {}, "dislike": {}, "dislikes": {}, "topics": {}, "specific": {},
	"provided": {}, "into": {}, "more": {}, "less": {},
}

// Keyword accepts a candidate when its title or excerpt mentions a word
// of the interest profile.
type Keyword struct{}

var _ ports.Classifier = Keyword{}

// Classify matches profile keywords against the candidate text.
func (Keyword) Classify(ctx context.Context, req domain.ClassifyRequest) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}

	text := tokens(req.Candidate.Title + " " + req.Candidate.RawExcerpt)
	var hits []string
	for _, kw := range Keywords(req.Profile) {
		if _, ok := text[kw]; ok {
			hits = append(hits, kw)
		}
	}
	if len(hits) == 0 {
		return domain.Decision{Accept: false}, nil
	}

	return domain.Decision{
		Accept:        true,
		Title:         req.Candidate.Title,
		RelevanceNote: fmt.Sprintf("Mentions %s.", strings.Join(hits, ", ")),
	}, nil
}

// Keywords extracts the distinct lowercase words of a profile in order.
func Keywords(profile string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range split(profile) {
		if len([]rune(w)) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range split(s) {
		set[w] = struct{}{}
	}
	return set
}

func split(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
