package documents

import (
	"github.com/goliatone/go-autotranslate/internal/domain"
	"github.com/goliatone/go-autotranslate/internal/richtext"
)

// mergeData deep-merges src into dst. Nested mappings merge key by key; every
// other value replaces the destination.
func mergeData(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = map[string]any{}
	}
	for key, value := range src {
		incoming, isMap := value.(map[string]any)
		existing, hasMap := dst[key].(map[string]any)
		if isMap && hasMap && !richtext.IsStructured(incoming) {
			dst[key] = mergeData(existing, incoming)
			continue
		}
		dst[key] = richtext.Clone(value)
	}
	return dst
}

// stripSystemFields drops store-managed keys from caller data.
func stripSystemFields(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		if domain.IsSystemField(key) {
			continue
		}
		out[key] = richtext.Clone(value)
	}
	return out
}
