package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/tradesnap/tradesnap/internal/schema"
	"github.com/tradesnap/tradesnap/internal/uploads"
)

// DefaultOpenAIModel is used when LLM_MODEL is empty.
const DefaultOpenAIModel = "gpt-4o"

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// OpenAI calls the chat completions API with a JSON schema response format.
type OpenAI struct {
	client     *openai.Client
	config     OpenAIConfig
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAI {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(clientConfig),
		config:     cfg,
		maxRetries: 3,
		baseDelay:  1 * time.Second,
		logger:     logger,
	}
}

// Name implements Provider.
func (o *OpenAI) Name() string { return ProviderOpenAI }

// Complete implements Provider. Rate limited calls are retried with
// exponential backoff and jitter.
func (o *OpenAI) Complete(ctx context.Context, call Call) (Completion, error) {
	request, err := o.buildRequest(call)
	if err != nil {
		return Completion{}, err
	}

	completion := Completion{Model: o.config.Model}

	var resp openai.ChatCompletionResponse
	for attempt := 0; attempt < o.maxRetries; attempt++ {
		completion.Attempts = attempt + 1

		apiCtx, cancel := ctx, context.CancelFunc(func() {})
		if o.config.Timeout > 0 {
			apiCtx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		}
		resp, err = o.client.CreateChatCompletion(apiCtx, request)
		cancel()

		if err == nil {
			break
		}

		if !isRateLimited(err) {
			return completion, fmt.Errorf("openai chat completion: %w", err)
		}

		o.logger.Warn("OpenAI rate limit hit",
			"operation", call.Operation,
			"attempt", attempt+1,
			"error", err.Error())

		if attempt == o.maxRetries-1 {
			o.logger.Error("rate limit exceeded, max retries reached",
				"operation", call.Operation,
				"attempts", o.maxRetries)
			return completion, fmt.Errorf("openai chat completion: %w", err)
		}

		delay := o.baseDelay * time.Duration(1<<uint(attempt))
		// Add jitter (0-500ms)
		delay += time.Duration(rand.Intn(500)) * time.Millisecond

		o.logger.Warn("rate limited, retrying with backoff",
			"operation", call.Operation,
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"max_retries", o.maxRetries)

		select {
		case <-ctx.Done():
			return completion, ctx.Err()
		case <-time.After(delay):
		}
	}

	completion.Usage.InputTokens = resp.Usage.PromptTokens
	completion.Usage.OutputTokens = resp.Usage.CompletionTokens
	if resp.Model != "" {
		completion.Model = resp.Model
	}

	if len(resp.Choices) == 0 {
		return completion, fmt.Errorf("no completion choices returned from model %s", o.config.Model)
	}

	completion.Text = resp.Choices[0].Message.Content
	if completion.Text == "" {
		return completion, fmt.Errorf("empty response from model %s (finish_reason: %s)", o.config.Model, resp.Choices[0].FinishReason)
	}

	return completion, nil
}

func (o *OpenAI) buildRequest(call Call) (openai.ChatCompletionRequest, error) {
	request := openai.ChatCompletionRequest{
		Model:               o.config.Model,
		MaxCompletionTokens: o.config.MaxTokens,
		Temperature:         float32(o.config.Temperature),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			userMessage(call),
		},
	}

	if call.Schema == nil {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
		return request, nil
	}

	doc, err := json.Marshal(schema.ToJSONSchema(call.Schema))
	if err != nil {
		return request, fmt.Errorf("marshal response schema: %w", err)
	}
	request.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schemaName(call.Operation),
			Schema: json.RawMessage(doc),
		},
	}
	return request, nil
}

func userMessage(call Call) openai.ChatCompletionMessage {
	text := call.Prompt
	if call.AddContextFromInternet {
		text += "\n\n" + internetContextNote
	}

	if len(call.Files) == 0 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	}

	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: text}}
	for _, f := range call.Files {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    uploads.DataURL(f.Data, f.ContentType),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") || strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "Rate limit")
}

// schemaName derives the response format name, which must match ^[a-zA-Z0-9_-]+$.
func schemaName(operation string) string {
	if operation == "" {
		return "response"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, operation)
}
