package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when LLM_MODEL is empty.
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// Anthropic calls the messages API. The response schema travels in the
// system prompt and the JSON object is cut out of the text answer.
type Anthropic struct {
	client anthropic.Client
	config AnthropicConfig
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		config: cfg,
	}
}

// Name implements Provider.
func (a *Anthropic) Name() string { return ProviderAnthropic }

// Complete implements Provider.
func (a *Anthropic) Complete(ctx context.Context, call Call) (Completion, error) {
	system, err := schemaInstructions(call.Schema)
	if err != nil {
		return Completion{}, err
	}

	text := call.Prompt
	if call.AddContextFromInternet {
		text += "\n\n" + internetContextNote
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(call.Files)+1)
	for _, f := range call.Files {
		blocks = append(blocks, anthropic.NewImageBlockBase64(f.ContentType, base64.StdEncoding.EncodeToString(f.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(text))

	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.config.Model),
		MaxTokens:   int64(a.config.MaxTokens),
		Temperature: anthropic.Float(a.config.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}

	completion := Completion{Model: a.config.Model, Attempts: 1}

	message, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return completion, fmt.Errorf("anthropic api error: %w", err)
	}

	completion.Usage.InputTokens = int(message.Usage.InputTokens)
	completion.Usage.OutputTokens = int(message.Usage.OutputTokens)

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return completion, fmt.Errorf("no response from anthropic")
	}

	completion.Text = extractJSON(sb.String())
	if completion.Text == "" {
		return completion, fmt.Errorf("%w: no JSON object in anthropic answer", ErrMalformedResponse)
	}
	return completion, nil
}
