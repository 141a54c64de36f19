package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFeeds/internal/config"
	"SmartFeeds/internal/ports"
)

func testLLMConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Endpoint:         endpoint,
		Model:            "test-model",
		APIKey:           "secret",
		RetryMaxAttempts: 3,
		RetryDelay:       time.Millisecond,
		Timeout:          5 * time.Second,
	}
}

func writeChoice(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	}))
}

func TestChatGPTClientComplete(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeChoice(t, w, "  hello  ")
	}))
	defer server.Close()

	client := NewChatGPTClient(testLLMConfig(server.URL), nil)
	out, err := client.Complete(context.Background(), ports.ChatRequest{System: "sys", User: "usr", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	assert.Equal(t, "test-model", got["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "usr", messages[1].(map[string]any)["content"])
}

func TestChatGPTClientRetriesRateLimits(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "slow down", http.StatusTooManyRequests)
		case 2:
			http.Error(w, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, http.StatusBadRequest)
		default:
			writeChoice(t, w, "ok")
		}
	}))
	defer server.Close()

	out, err := NewChatGPTClient(testLLMConfig(server.URL), nil).Complete(context.Background(), ports.ChatRequest{User: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
}

func TestChatGPTClientGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewChatGPTClient(testLLMConfig(server.URL), nil).Complete(context.Background(), ports.ChatRequest{User: "x"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, int32(4), calls.Load())
}

func TestChatGPTClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewChatGPTClient(testLLMConfig(server.URL), nil).Complete(context.Background(), ports.ChatRequest{User: "x"})
	assert.ErrorContains(t, err, "bad key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatGPTClientMisconfigured(t *testing.T) {
	_, err := NewChatGPTClient(config.LLMConfig{Endpoint: "http://x"}, nil).Complete(context.Background(), ports.ChatRequest{})
	assert.ErrorContains(t, err, "misconfigured")
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Second, backoff(5*time.Second, 1))
	assert.Equal(t, 10*time.Second, backoff(5*time.Second, 2))
	assert.Equal(t, 40*time.Second, backoff(5*time.Second, 4))
}
