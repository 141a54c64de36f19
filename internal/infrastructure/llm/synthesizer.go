package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"SmartFeeds/internal/digest"
	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/logging"
	"SmartFeeds/internal/ports"
)

// Synthesizer asks a chat model to group a daily record into a digest.
type Synthesizer struct {
	chat     ports.ChatClient
	language string
	logger   *slog.Logger
}

var _ ports.Synthesizer = (*Synthesizer)(nil)

// NewSynthesizer builds a synthesizer writing in language.
func NewSynthesizer(chat ports.ChatClient, language string, logger *slog.Logger) *Synthesizer {
	if language == "" {
		language = "English"
	}
	return &Synthesizer{
		chat:     chat,
		language: language,
		logger:   logging.OrDiscard(logger).With("component", "synthesizer"),
	}
}

// Synthesize returns the markdown digest. An empty record never reaches the model.
func (s *Synthesizer) Synthesize(ctx context.Context, record domain.DailyRecord) (string, error) {
	if record.Len() == 0 {
		return digest.NothingNotable(record.Day), nil
	}
	if s.chat == nil {
		return "", fmt.Errorf("synthesizer has no chat client")
	}

	payload, err := buildDigestJSON(record)
	if err != nil {
		return "", fmt.Errorf("build digest payload: %w", err)
	}

	s.logger.Debug("synthesizing digest", "day", record.Day, "items", record.Len())

	answer, err := s.chat.Complete(ctx, ports.ChatRequest{
		System: synthesizerSystemPrompt(record.Day, s.language),
		User:   string(payload),
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	body := stripFences(answer)
	if body == "" {
		return "", fmt.Errorf("model returned an empty digest")
	}
	return body + "\n", nil
}

func buildDigestJSON(record domain.DailyRecord) ([]byte, error) {
	type item struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		Source    string `json:"source"`
		Relevance string `json:"relevance"`
		Summary   string `json:"summary,omitempty"`
	}

	payload := make([]item, 0, record.Len())
	for _, it := range record.Items {
		payload = append(payload, item{
			Title:     it.Title,
			URL:       it.URL,
			Source:    it.SourceID,
			Relevance: it.RelevanceNote,
			Summary:   it.Summary,
		})
	}

	return json.Marshal(payload)
}
