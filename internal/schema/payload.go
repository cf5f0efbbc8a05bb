package schema

import (
	"time"
)

// NormalizePayload converts YAML decoder output into the JSON data model the
// schema compiler validates against: string keys everywhere, float64 numbers,
// and timestamps rendered as RFC 3339 strings.
func NormalizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(payload))
	for key, value := range payload {
		out[key] = normalizeValue(value)
	}
	return out
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return NormalizePayload(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			if name, ok := key.(string); ok {
				out[name] = normalizeValue(item)
			}
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizeValue(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case int:
		return float64(typed)
	case int32:
		return float64(typed)
	case int64:
		return float64(typed)
	case uint:
		return float64(typed)
	case uint64:
		return float64(typed)
	case float32:
		return float64(typed)
	default:
		return value
	}
}
