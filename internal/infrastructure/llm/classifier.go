package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/logging"
	"SmartFeeds/internal/ports"
)

// Classifier asks a chat model for a relevance verdict on one candidate.
type Classifier struct {
	chat     ports.ChatClient
	language string
	logger   *slog.Logger
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier builds a classifier answering in language.
func NewClassifier(chat ports.ChatClient, language string, logger *slog.Logger) *Classifier {
	if language == "" {
		language = "English"
	}
	return &Classifier{
		chat:     chat,
		language: language,
		logger:   logging.OrDiscard(logger).With("component", "classifier"),
	}
}

type verdict struct {
	Relevant  bool   `json:"relevant"`
	Title     string `json:"title"`
	Relevance string `json:"relevance"`
	Summary   string `json:"summary"`
}

// Classify returns the model verdict. Unparseable answers are errors.
func (c *Classifier) Classify(ctx context.Context, req domain.ClassifyRequest) (domain.Decision, error) {
	if c.chat == nil {
		return domain.Decision{}, fmt.Errorf("classifier has no chat client")
	}

	answer, err := c.chat.Complete(ctx, ports.ChatRequest{
		System: classifierSystemPrompt(req.Profile, c.language),
		User:   classifierUserPrompt(req),
		JSON:   true,
	})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("complete: %w", err)
	}

	var v verdict
	if err := json.Unmarshal([]byte(stripFences(answer)), &v); err != nil {
		return domain.Decision{}, fmt.Errorf("decode verdict: %w", err)
	}

	c.logger.Debug("classified", "url", req.Candidate.URL, "relevant", v.Relevant)

	return domain.Decision{
		Accept:        v.Relevant,
		Title:         v.Title,
		RelevanceNote: v.Relevance,
		Summary:       v.Summary,
	}, nil
}

// stripFences removes a surrounding ``` block some models wrap answers in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
