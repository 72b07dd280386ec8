package config

import (
	"time"
)

// Values wraps a decoded document for type-safe value extraction.
// Accessors return the default when the key is missing or the value has the
// wrong type.
type Values struct {
	data map[string]any
}

// NewValues creates Values from the given map. A nil map is treated as empty.
func NewValues(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// Section returns the nested mapping under key, or empty Values.
func (v Values) Section(key string) Values {
	switch m := v.data[key].(type) {
	case map[string]any:
		return NewValues(m)
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if s, ok := k.(string); ok {
				out[s] = val
			}
		}
		return NewValues(out)
	}
	return NewValues(nil)
}

// String returns the string value for key.
func (v Values) String(key, defaultVal string) string {
	if s, ok := v.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration value for key.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
func (v Values) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := v.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	}
	return defaultVal
}

// Bool returns the boolean value for key.
func (v Values) Bool(key string, defaultVal bool) bool {
	if b, ok := v.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key. Floats convert only when they have
// no fractional part.
func (v Values) Int(key string, defaultVal int) int {
	switch val := v.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// StringSlice returns the string slice for key. A list containing a
// non-string element yields the default.
func (v Values) StringSlice(key string, defaultVal []string) []string {
	switch val := v.data[key].(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Has returns true if the key exists.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}

// Raw returns the underlying map. It should not be modified.
func (v Values) Raw() map[string]any {
	return v.data
}
