package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeObject parses the first JSON object found in text. Models often wrap
// the object in prose or code fences.
func DecodeObject(text string) (map[string]any, error) {
	raw := strings.TrimSpace(text)
	if !strings.HasPrefix(raw, "{") {
		raw = extractJSON(raw)
	}
	if raw == "" {
		return nil, ErrMalformedResponse
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		// Trailing prose after a leading object still decodes after extraction.
		if extracted := extractJSON(raw); extracted != "" && extracted != raw {
			if err := json.Unmarshal([]byte(extracted), &out); err == nil {
				return out, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out == nil {
		return nil, ErrMalformedResponse
	}
	return out, nil
}

// extractJSON finds and extracts the first balanced JSON object from text
// using brace matching
func extractJSON(text string) string {
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return ""
	}

	braceCount := 0
	inString := false
	escaped := false

	for i := startIdx; i < len(text); i++ {
		ch := text[i]

		if escaped {
			escaped = false
			continue
		}

		if ch == '\\' && inString {
			escaped = true
			continue
		}

		if ch == '"' {
			inString = !inString
			continue
		}

		// Only count braces outside of strings
		if !inString {
			switch ch {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[startIdx : i+1]
				}
			}
		}
	}

	return ""
}
