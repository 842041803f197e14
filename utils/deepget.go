package utils

// DeepGet walks a nested payload of maps and slices, one key per step:
// a string key indexes a map, an int key indexes a slice. Negative slice
// indexes resolve from the end. Any missing key, out-of-range index or
// type mismatch returns def instead of panicking.
func DeepGet(data any, keys []any, def any) any {
	for _, key := range keys {
		switch k := key.(type) {
		case string:
			m, ok := data.(map[string]any)
			if !ok {
				return def
			}
			v, ok := m[k]
			if !ok {
				return def
			}
			data = v
		case int:
			s, ok := data.([]any)
			if !ok {
				return def
			}
			idx := k
			if idx < 0 {
				idx += len(s)
			}
			if idx < 0 || idx >= len(s) {
				return def
			}
			data = s[idx]
		default:
			return def
		}
	}
	if data == nil {
		return def
	}
	return data
}

// GetString is DeepGet restricted to string values.
func GetString(data any, keys []any, def string) string {
	if v, ok := DeepGet(data, keys, nil).(string); ok {
		return v
	}
	return def
}

// GetList is DeepGet restricted to slice values.
func GetList(data any, keys []any) []any {
	if v, ok := DeepGet(data, keys, nil).([]any); ok {
		return v
	}
	return nil
}

// GetMap is DeepGet restricted to map values.
func GetMap(data any, keys []any) map[string]any {
	if v, ok := DeepGet(data, keys, nil).(map[string]any); ok {
		return v
	}
	return nil
}
