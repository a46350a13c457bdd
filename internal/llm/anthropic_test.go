package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradesnap/tradesnap/internal/schema"
)

func TestAnthropicExtractsJSONFromText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "id": "msg_1", "type": "message", "role": "assistant", "model": "claude-sonnet-4-20250514",
		  "content": [{"type": "text", "text": "Here you go:\n{\"news_signals\": [{\"asset_symbol\": \"TCS\"}]}\nGood luck."}],
		  "stop_reason": "end_turn",
		  "usage": {"input_tokens": 200, "output_tokens": 40}
		}`))
	}))
	defer srv.Close()

	a := NewAnthropic(AnthropicConfig{APIKey: "test-key", BaseURL: srv.URL})
	completion, err := a.Complete(context.Background(), Call{
		Request: Request{Prompt: "news", Operation: "news_signals", Schema: schema.NewsSignals()},
		Files:   []File{{Data: []byte("img"), ContentType: "image/jpeg"}},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"news_signals": [{"asset_symbol": "TCS"}]}`, completion.Text)
	assert.Equal(t, 200, completion.Usage.InputTokens)
	assert.Equal(t, 40, completion.Usage.OutputTokens)

	system := body["system"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, system, "news_signals")

	content := body["messages"].([]any)[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].(map[string]any)["type"])
	assert.Equal(t, "text", content[1].(map[string]any)["type"])
}
