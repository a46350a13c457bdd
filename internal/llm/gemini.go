package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when LLM_MODEL is empty.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

// Gemini calls GenerateContent. Requests that want internet context use the
// Google Search tool, which cannot be combined with a response schema, so
// the schema is sent as instructions instead.
type Gemini struct {
	client *genai.Client
	config GeminiConfig
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	return &Gemini{client: client, config: cfg}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return ProviderGemini }

// Complete implements Provider.
func (g *Gemini) Complete(ctx context.Context, call Call) (Completion, error) {
	config, err := g.generateConfig(call)
	if err != nil {
		return Completion{}, err
	}

	parts := []*genai.Part{{Text: call.Prompt}}
	for _, f := range call.Files {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: f.ContentType, Data: f.Data}})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	completion := Completion{Model: g.config.Model, Attempts: 1}

	result, err := g.client.Models.GenerateContent(ctx, g.config.Model, contents, config)
	if err != nil {
		return completion, fmt.Errorf("gemini generate content: %w", err)
	}

	if result.UsageMetadata != nil {
		completion.Usage.InputTokens = int(result.UsageMetadata.PromptTokenCount)
		completion.Usage.OutputTokens = int(result.UsageMetadata.CandidatesTokenCount)
	}

	completion.Text = result.Text()
	if completion.Text == "" {
		return completion, fmt.Errorf("empty response from model %s", g.config.Model)
	}
	return completion, nil
}

func (g *Gemini) generateConfig(call Call) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.config.Temperature)),
	}
	if g.config.MaxTokens > 0 {
		config.MaxOutputTokens = int32(g.config.MaxTokens)
	}

	if call.AddContextFromInternet {
		system, err := schemaInstructions(call.Schema)
		if err != nil {
			return nil, err
		}
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		return config, nil
	}

	config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	config.ResponseMIMEType = "application/json"
	config.ResponseSchema = call.Schema
	return config, nil
}
