package ai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClient(serverURL string) *Client {
	return &Client{
		apiKey:     "test-key",
		baseURL:    serverURL,
		model:      "test/model",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":    "cmpl-1",
		"model": "test/model",
		"choices": []map[string]any{
			{"index": 0, "message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
	return string(body)
}

func TestCompletion_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req CompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test/model", req.Model)
		assert.Equal(t, 2000, req.MaxTokens, "zero max tokens defaults to 2000")
		assert.Equal(t, 0.7, req.Temperature, "zero temperature defaults to 0.7")

		w.Write([]byte(completionBody("the answer")))
	}))
	defer server.Close()

	result, err := testClient(server.URL).Completion([]Message{{Role: "user", Content: "question"}}, "", 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, "the answer", result.Choices[0].Message.Content)
}

func TestCompletion_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth_error"}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Completion([]Message{{Role: "user", Content: "q"}}, "", 0, 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestCompletion_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cmpl-1","choices":[]}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Completion([]Message{{Role: "user", Content: "q"}}, "", 0, 0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestCompletionWithRetry_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.Write([]byte(`{"error":{"message":"temporarily overloaded"}}`))
			return
		}
		w.Write([]byte(completionBody("recovered")))
	}))
	defer server.Close()

	result, err := testClient(server.URL).CompletionWithRetry([]Message{{Role: "user", Content: "q"}}, "", 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, "recovered", result.Choices[0].Message.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCompletionWithRetry_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"error":{"message":"down for maintenance"}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).CompletionWithRetry([]Message{{Role: "user", Content: "q"}}, "", 0, 0)
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load(), "three attempts before giving up")
}
