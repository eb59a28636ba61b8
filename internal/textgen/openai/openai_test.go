package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geolabel/internal/domain"
)

const completion = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " Pets\n"}}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 1, "total_tokens": 11}
}`

type chatRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestGenerate(t *testing.T) {
	type captured struct {
		path, auth string
		body       chatRequest
	}
	seen := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c captured
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		seen <- c
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test"})
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), domain.GenerateRequest{
		SystemInstruction: "be brief",
		Tokens:            []string{"cat", "dog"},
		MaxOutputTokens:   20,
		Temperature:       0.3,
	})

	require.NoError(t, err)
	assert.Equal(t, " Pets\n", resp.Text)
	c2 := <-seen
	got := c2.body
	assert.True(t, strings.HasSuffix(c2.path, "/chat/completions"), c2.path)
	assert.Equal(t, "Bearer sk-test", c2.auth)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 20, got.MaxTokens)
	assert.InDelta(t, 0.3, got.Temperature, 1e-12)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "Create a short label for this group of words:\ncat, dog", got.Messages[1].Content)
}

func TestGenerateErrorsAreNotRetriedBySDK(t *testing.T) {
	for _, tc := range []struct {
		name      string
		status    int
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"rate limit", http.StatusTooManyRequests, true},
		{"unauthorized", http.StatusUnauthorized, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error": {"message": "nope", "type": "x"}}`))
			}))
			defer srv.Close()

			c, err := NewClient(Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test"})
			require.NoError(t, err)

			_, err = c.Generate(context.Background(), domain.GenerateRequest{Tokens: []string{"a"}})

			require.Error(t, err)
			assert.Equal(t, int32(1), hits.Load())
			assert.Equal(t, tc.retryable, IsRetryable(err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("bad request")))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
}
