package flowcanvas

// Descriptor is a palette node-type descriptor as decoded from a drag
// payload: a displayName plus arbitrary JSON fields.
type Descriptor map[string]any

// DisplayName returns the descriptor's displayName, or "" if absent.
func (d Descriptor) DisplayName() string {
	return d.String("displayName")
}

// Kind returns the catalog type identifier: the descriptor's id, falling back
// to its displayName.
func (d Descriptor) Kind() string {
	if id := d.String("id"); id != "" {
		return id
	}
	return d.DisplayName()
}

// String returns the string value for key, or "" if missing or not a string.
func (d Descriptor) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Clone returns a deep copy. Nested maps and slices are copied so a node
// never shares mutable state with the descriptor it was created from.
func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	out := make(Descriptor, len(d))
	for k, v := range d {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case Descriptor:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			out[k] = item
		}
		return out
	default:
		return val
	}
}
