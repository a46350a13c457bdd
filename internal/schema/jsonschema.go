package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// ToJSONSchema converts a Gemini schema into a standard JSON Schema value
// for providers that accept draft 2020-12 documents.
func ToJSONSchema(s *genai.Schema) *jsonschema.Schema {
	if s == nil {
		return nil
	}

	out := &jsonschema.Schema{
		Type:        strings.ToLower(string(s.Type)),
		Description: s.Description,
		Minimum:     s.Minimum,
		Maximum:     s.Maximum,
		Required:    append([]string(nil), s.Required...),
	}

	for _, v := range s.Enum {
		out.Enum = append(out.Enum, v)
	}

	if s.Items != nil {
		out.Items = ToJSONSchema(s.Items)
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*jsonschema.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = ToJSONSchema(prop)
		}
	}

	return out
}

// Document renders s as indented JSON Schema text for embedding in prompts.
func Document(s *genai.Schema) (string, error) {
	b, err := json.MarshalIndent(ToJSONSchema(s), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}
	return string(b), nil
}

// Validator checks decoded model output against a schema.
type Validator struct {
	resolved *jsonschema.Resolved
}

// NewValidator resolves s once so it can be applied to many responses.
func NewValidator(s *genai.Schema) (*Validator, error) {
	resolved, err := ToJSONSchema(s).Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}
	return &Validator{resolved: resolved}, nil
}

// Validate reports the first schema violation in instance, if any.
func (v *Validator) Validate(instance map[string]any) error {
	return v.resolved.Validate(instance)
}
