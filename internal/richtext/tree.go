// Package richtext translates structured rich-text trees in place, touching
// only the payload of text leaves.
package richtext

import "strings"

const (
	KeyRoot     = "root"
	KeyChildren = "children"
	KeyType     = "type"
	KeyText     = "text"

	TypeText = "text"
)

// IsStructured reports whether value is a structured-text mapping, i.e. a
// mapping carrying a root node.
func IsStructured(value any) bool {
	m, ok := value.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[KeyRoot]
	return ok
}

// IsTextLeaf reports whether node is a text leaf with a non-blank payload.
func IsTextLeaf(node map[string]any) (string, bool) {
	if node == nil {
		return "", false
	}
	if kind, _ := node[KeyType].(string); kind != TypeText {
		return "", false
	}
	text, ok := node[KeyText].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// Children returns the ordered child nodes of node. Both []any and
// []map[string]any encodings are accepted; non-mapping entries are skipped.
func Children(node map[string]any) []map[string]any {
	switch children := node[KeyChildren].(type) {
	case []map[string]any:
		return children
	case []any:
		out := make([]map[string]any, 0, len(children))
		for _, child := range children {
			if m, ok := child.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a structural deep copy of value. Mappings and sequences are
// copied recursively; every other value is shared.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneMap(typed)
	case []map[string]any:
		if typed == nil {
			return typed
		}
		out := make([]map[string]any, len(typed))
		for i, item := range typed {
			out[i] = CloneMap(item)
		}
		return out
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = Clone(item)
		}
		return out
	default:
		return value
	}
}

// CloneMap deep copies a mapping. A nil input yields nil.
func CloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = Clone(value)
	}
	return out
}

// CountNodes returns the number of nodes reachable from node, node included.
func CountNodes(node map[string]any) int {
	if node == nil {
		return 0
	}
	total := 1
	for _, child := range Children(node) {
		total += CountNodes(child)
	}
	return total
}

// Root returns the root node of a structured-text value.
func Root(value map[string]any) (map[string]any, bool) {
	root, ok := value[KeyRoot].(map[string]any)
	return root, ok && root != nil
}
