package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesnap/tradesnap/internal/schema"
)

const chatCompletionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "model": "gpt-4o-2024-08-06",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"top_movers\": []}"}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
}`

const rateLimitBody = `{"error": {"message": "Rate limit reached for gpt-4o", "type": "requests", "code": "rate_limit_exceeded"}}`

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	o := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, MaxTokens: 512}, testLogger())
	o.baseDelay = time.Millisecond
	return o
}

func TestOpenAISendsSchemaAndImages(t *testing.T) {
	var body map[string]any
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionBody))
	})

	completion, err := o.Complete(context.Background(), Call{
		Request: Request{Prompt: "analyze", Operation: "chart_analysis", Schema: schema.ChartAnalysis(3)},
		Files:   []File{{Data: []byte("img"), ContentType: "image/png"}},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"top_movers": []}`, completion.Text)
	assert.Equal(t, 120, completion.Usage.InputTokens)
	assert.Equal(t, 30, completion.Usage.OutputTokens)
	assert.Equal(t, "gpt-4o-2024-08-06", completion.Model)
	assert.Equal(t, 1, completion.Attempts)

	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]any)
	assert.Equal(t, "chart_analysis", jsonSchema["name"])
	assert.Contains(t, jsonSchema["schema"].(map[string]any), "properties")

	messages := body["messages"].([]any)
	require.Len(t, messages, 2)
	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.True(t, strings.HasPrefix(image["url"].(string), "data:image/png;base64,"))
}

func TestOpenAIRetriesRateLimits(t *testing.T) {
	var hits atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(rateLimitBody))
			return
		}
		_, _ = w.Write([]byte(chatCompletionBody))
	})

	completion, err := o.Complete(context.Background(), Call{Request: Request{Prompt: "scan", Operation: "top_movers"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 2, completion.Attempts)
}

func TestOpenAIGivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(rateLimitBody))
	})

	_, err := o.Complete(context.Background(), Call{Request: Request{Prompt: "scan", Operation: "top_movers"}})
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestOpenAIDoesNotRetryOtherErrors(t *testing.T) {
	var hits atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid schema", "type": "invalid_request_error"}}`))
	})

	_, err := o.Complete(context.Background(), Call{Request: Request{Prompt: "scan", Operation: "top_movers"}})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOpenAIEmptyChoices(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": [], "usage": {}}`))
	})

	_, err := o.Complete(context.Background(), Call{Request: Request{Prompt: "scan", Operation: "top_movers"}})
	assert.ErrorContains(t, err, "no completion choices")
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "response", schemaName(""))
	assert.Equal(t, "value_screening", schemaName("value_screening"))
	assert.Equal(t, "a_b_c", schemaName("a b.c"))
}
