package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StatusError is a non-2xx answer from the chat API.
type StatusError struct {
	Code   int
	Status string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chatgpt error %s: %s", e.Status, e.Body)
}

func isRetryable(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	if se.Code == http.StatusTooManyRequests || se.Code == http.StatusServiceUnavailable {
		return true
	}
	return strings.Contains(se.Body, "RESOURCE_EXHAUSTED") || strings.Contains(se.Body, "Resource exhausted")
}

// backoff returns delay * 2^(attempt-1).
func backoff(delay time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return delay * time.Duration(1<<(attempt-1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
