package core

// UnwrapList extracts the list stored under field from either response shape
// the API uses: an object ({field: [...]}) or a one-element array wrapping
// that object ([{field: [...]}]). A bare array of objects without field is
// returned as is. Anything else yields an empty list.
func UnwrapList(response any, field string) []map[string]any {
	switch typed := response.(type) {
	case map[string]any:
		return objectList(typed[field])
	case []any:
		if len(typed) == 0 {
			return []map[string]any{}
		}
		if first, ok := typed[0].(map[string]any); ok {
			if nested, exists := first[field]; exists {
				return objectList(nested)
			}
		}
		return objectList(typed)
	case []map[string]any:
		return UnwrapList(toAnySlice(typed), field)
	default:
		return []map[string]any{}
	}
}

// ItemsOf flattens a response into the items it carries: arrays yield their
// elements, objects yield themselves.
func ItemsOf(response any) []any {
	switch typed := response.(type) {
	case nil:
		return []any{}
	case []any:
		return typed
	case []map[string]any:
		return toAnySlice(typed)
	default:
		return []any{typed}
	}
}

func objectList(value any) []map[string]any {
	items, ok := value.([]any)
	if !ok {
		if maps, isMaps := value.([]map[string]any); isMaps {
			return maps
		}
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if object, ok := item.(map[string]any); ok {
			out = append(out, object)
		}
	}
	return out
}

func toAnySlice(items []map[string]any) []any {
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}
