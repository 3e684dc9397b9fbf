package intake

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Str returns m[key] coerced to a trimmed string. Missing keys, nil values
// and nested objects read as "".
func Str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Pick returns the first non-empty Str among keys.
func Pick(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := Str(m, key); v != "" {
			return v
		}
	}
	return ""
}

// Int coerces the first non-empty key to an int, defaulting to 0.
func Int(m map[string]any, keys ...string) int {
	raw := Pick(m, keys...)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}

// Object returns m[key] when it is a JSON object.
func Object(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	obj, _ := m[key].(map[string]any)
	return obj
}

// Candidate selects the record inside an inbound body: the "lead" object,
// then "contact", then the body itself.
func Candidate(body map[string]any) map[string]any {
	if obj := Object(body, "lead"); obj != nil {
		return obj
	}
	if obj := Object(body, "contact"); obj != nil {
		return obj
	}
	if body == nil {
		return map[string]any{}
	}
	return body
}
