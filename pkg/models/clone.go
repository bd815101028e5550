package models

// CloneConfig deep-copies a node configuration. Nested maps and slices produced by
// JSON decoding are copied; other values are shared.
func CloneConfig(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneConfig(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}

		return out
	case []string:
		return cloneStrings(val)
	default:
		return v
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}

	out := make([]string, len(in))
	copy(out, in)

	return out
}
