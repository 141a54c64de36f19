package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"SmartFeeds/internal/digest"
	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/ports"
)

// Client talks to a JSON inference service for classification and digests.
type Client struct {
	endpoint string
	apiKey   string
	language string
	http     *http.Client
}

var _ ports.Classifier = (*Client)(nil)
var _ ports.Synthesizer = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey, language string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		language: language,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Classify posts one candidate with the interest profile to /classify.
func (c *Client) Classify(ctx context.Context, req domain.ClassifyRequest) (domain.Decision, error) {
	var published string
	if req.Candidate.PublishedAt != nil {
		published = req.Candidate.PublishedAt.UTC().Format(time.RFC3339)
	}

	payload := map[string]any{
		"title":       req.Candidate.Title,
		"url":         req.Candidate.URL,
		"source":      req.Candidate.SourceID,
		"published":   published,
		"excerpt":     req.Candidate.RawExcerpt,
		"profile":     req.Profile,
		"instruction": req.Instruction,
		"language":    c.language,
	}

	var resp struct {
		Relevant  bool   `json:"relevant"`
		Title     string `json:"title"`
		Relevance string `json:"relevance"`
		Summary   string `json:"summary"`
	}
	if err := c.post(ctx, "/classify", payload, &resp); err != nil {
		return domain.Decision{}, err
	}

	return domain.Decision{
		Accept:        resp.Relevant,
		Title:         resp.Title,
		RelevanceNote: resp.Relevance,
		Summary:       resp.Summary,
	}, nil
}

// Synthesize posts the whole record to /digest.
func (c *Client) Synthesize(ctx context.Context, record domain.DailyRecord) (string, error) {
	if record.Len() == 0 {
		return digest.NothingNotable(record.Day), nil
	}

	type item struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		Source    string `json:"source"`
		Relevance string `json:"relevance"`
		Summary   string `json:"summary"`
	}
	items := make([]item, 0, record.Len())
	for _, it := range record.Items {
		items = append(items, item{
			Title:     it.Title,
			URL:       it.URL,
			Source:    it.SourceID,
			Relevance: it.RelevanceNote,
			Summary:   it.Summary,
		})
	}

	payload := map[string]any{
		"day":      record.Day.String(),
		"language": c.language,
		"items":    items,
	}

	var resp struct {
		Body string `json:"body"`
	}
	if err := c.post(ctx, "/digest", payload, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Body) == "" {
		return "", fmt.Errorf("inference service returned an empty digest")
	}

	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	if c.endpoint == "" {
		return fmt.Errorf("inference endpoint not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return fmt.Errorf("unexpected status %s, close body: %v", resp.Status, closeErr)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		_ = resp.Body.Close()
		return fmt.Errorf("decode response: %w", err)
	}

	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return nil
}
