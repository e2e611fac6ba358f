package models

import "time"

// Payload is the opaque fetched document. Readers must use these accessors
// instead of scattering untyped map lookups through business logic.
type Payload map[string]any

// timestamp layouts seen in upstream responses
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (p Payload) GetString(key string) (string, bool) {
	s, ok := p[key].(string)
	return s, ok
}

func (p Payload) GetInt(key string) (int64, bool) {
	switch v := p[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

func (p Payload) GetFloat(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

func (p Payload) GetBool(key string) (bool, bool) {
	b, ok := p[key].(bool)
	return b, ok
}

// GetTime parses a timestamp field, tolerating the handful of layouts the
// upstream API emits.
func (p Payload) GetTime(key string) (time.Time, bool) {
	s, ok := p[key].(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	return ParseTimestamp(s)
}

func (p Payload) GetMap(key string) (Payload, bool) {
	m, ok := p[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return Payload(m), true
}

// ParseTimestamp parses an upstream timestamp string.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
