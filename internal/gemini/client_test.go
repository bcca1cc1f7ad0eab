package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func testClient(baseURL string) *Client {
	return New(Config{
		APIKey:            "test-key",
		BaseURL:           baseURL,
		RetryBase:         time.Millisecond,
		RequestsPerSecond: 1000,
	})
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, DefaultModel)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(candidateResponse("  hello  ")))
	}))
	defer srv.Close()

	text, err := testClient(srv.URL).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestGenerateRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
			return
		}
		w.Write([]byte(candidateResponse("ok")))
	}))
	defer srv.Close()

	text, err := testClient(srv.URL).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer srv.Close()

	c := New(Config{
		APIKey:            "k",
		BaseURL:           srv.URL,
		MaxAttempts:       2,
		RetryBase:         time.Millisecond,
		RequestsPerSecond: 1000,
	})
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gave up after 2 attempts")
}

func TestGenerateDoesNotRetryOtherErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"invalid argument"}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
