// Package httpapi exposes the fetch and summarize operations and the stored
// artifacts over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/logging"
	"SmartFeeds/internal/ports"
	"SmartFeeds/internal/usecase"
)

// Service is the slice of the application the HTTP surface drives.
type Service interface {
	Fetch(ctx context.Context, day domain.DayKey) (usecase.FetchResult, error)
	Summarize(ctx context.Context, day domain.DayKey) (usecase.SummarizeResult, error)
	Today() domain.DayKey
	Records() ports.RecordStore
	Digests() ports.DigestStore
}

// Server routes requests to a Service.
type Server struct {
	svc    Service
	logger *slog.Logger
	router chi.Router
}

// NewServer registers all routes.
func NewServer(svc Service, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logging.OrDiscard(logger).With("component", "httpapi"),
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/records/{day}", s.handleRecord)
	s.router.Get("/digests/{day}", s.handleDigest)
	s.router.Post("/fetch", s.handleFetch)
	s.router.Post("/summarize", s.handleSummarize)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type recordItem struct {
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Source     string    `json:"source"`
	Relevance  string    `json:"relevance"`
	Summary    string    `json:"summary,omitempty"`
	CapturedAt time.Time `json:"capturedAt"`
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	day, ok := s.pathDay(w, r)
	if !ok {
		return
	}

	record, err := s.svc.Records().Read(r.Context(), day)
	if err != nil {
		s.writeError(w, err)
		return
	}

	items := make([]recordItem, 0, record.Len())
	for _, it := range record.Items {
		items = append(items, recordItem{
			Title:      it.Title,
			URL:        it.URL,
			Source:     it.SourceID,
			Relevance:  it.RelevanceNote,
			Summary:    it.Summary,
			CapturedAt: it.CapturedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day, "items": items})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	day, ok := s.pathDay(w, r)
	if !ok {
		return
	}

	digest, err := s.svc.Digests().Load(r.Context(), day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(digest.Body))
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	day, ok := s.queryDay(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Fetch(r.Context(), day)
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	if result.Outcome() == usecase.OutcomeFailure {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{
		"runId":   result.RunID,
		"day":     result.Day,
		"outcome": result.Outcome(),
		"written": result.Written,
		"failed":  result.Failed,
		"sources": result.Sources,
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	day, ok := s.queryDay(w, r)
	if !ok {
		return
	}

	result, err := s.svc.Summarize(r.Context(), day)
	if err != nil {
		s.writeError(w, err)
		return
	}

	body := map[string]any{
		"day":      result.Day,
		"state":    result.State,
		"items":    result.Items,
		"notified": result.Notified,
	}
	if result.NotifyErr != nil {
		body["notifyError"] = result.NotifyErr.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) pathDay(w http.ResponseWriter, r *http.Request) (domain.DayKey, bool) {
	return s.parseDay(w, chi.URLParam(r, "day"))
}

func (s *Server) queryDay(w http.ResponseWriter, r *http.Request) (domain.DayKey, bool) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		return s.svc.Today(), true
	}
	return s.parseDay(w, raw)
}

func (s *Server) parseDay(w http.ResponseWriter, raw string) (domain.DayKey, bool) {
	day, err := domain.ParseDayKey(raw)
	if err != nil {
		s.writeError(w, err)
		return "", false
	}
	return day, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var synthErr *domain.SynthesisError
	switch {
	case errors.Is(err, domain.ErrDigestNotFound):
		status = http.StatusNotFound
	case domain.IsConfig(err):
		status = http.StatusBadRequest
	case errors.As(err, &synthErr):
		status = http.StatusBadGateway
	case domain.IsPersistence(err):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
