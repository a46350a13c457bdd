package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Accessors over decoded JSON. Models occasionally return numbers as
// strings, so numeric reads accept both. NaN and infinities are unknown.

func object(m map[string]any, key string) (map[string]any, bool) {
	v, ok := m[key].(map[string]any)
	return v, ok
}

func list(m map[string]any, key string) ([]any, bool) {
	v, ok := m[key].([]any)
	return v, ok
}

func text(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func number(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

// price returns a pointer for non-zero numbers. Zero and missing prices are
// both treated as unknown.
func price(m map[string]any, key string) *float64 {
	if v, ok := number(m, key); ok && v != 0 {
		return &v
	}
	return nil
}

func textOr(m map[string]any, key, fallback string) string {
	if v := text(m, key); v != "" {
		return v
	}
	return fallback
}

// field returns the value at key as-is, or nil.
func field(m map[string]any, key string) any {
	if m == nil {
		return nil
	}
	return m[key]
}

func stringList(m map[string]any, key string) []string {
	items, _ := list(m, key)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
