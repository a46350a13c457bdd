package llm

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/tradesnap/tradesnap/internal/schema"
)

const systemPrompt = "You are a professional trading analyst. Respond with a single JSON object and no other text."

const internetContextNote = "Use the most recent market data and news available to you. Quote real current prices."

// schemaInstructions appends the response schema to the system prompt for
// providers without a native structured output mode.
func schemaInstructions(s *genai.Schema) (string, error) {
	if s == nil {
		return systemPrompt, nil
	}
	doc, err := schema.Document(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n\nThe JSON object must conform to this JSON Schema:\n%s", systemPrompt, doc), nil
}
