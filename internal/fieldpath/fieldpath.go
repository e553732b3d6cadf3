// Package fieldpath reads and writes values in nested documents addressed by
// dot-separated paths such as "firstSection.text".
package fieldpath

import "strings"

// Separator splits path segments.
const Separator = "."

// Split returns the non-empty segments of path.
func Split(path string) []string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw := strings.Split(path, Separator)
	segments := raw[:0]
	for _, segment := range raw {
		if segment = strings.TrimSpace(segment); segment != "" {
			segments = append(segments, segment)
		}
	}
	return segments
}

// Get resolves path against doc. It reports false when any segment is
// missing, when an intermediate value is not a mapping, or when the final
// value is nil.
func Get(doc map[string]any, path string) (any, bool) {
	segments := Split(path)
	if doc == nil || len(segments) == 0 {
		return nil, false
	}

	current := doc
	for i, segment := range segments {
		value, ok := current[segment]
		if !ok || value == nil {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		next, ok := asMap(value)
		if !ok {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// Set assigns value at path, creating an empty mapping at every missing or
// non-mapping intermediate segment. Empty paths and nil documents are ignored.
func Set(doc map[string]any, path string, value any) {
	segments := Split(path)
	if doc == nil || len(segments) == 0 {
		return
	}

	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, ok := asMap(current[segment])
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// Parent returns the top-level key of path, or "" for single-segment paths.
func Parent(path string) string {
	segments := Split(path)
	if len(segments) < 2 {
		return ""
	}
	return segments[0]
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, typed != nil
	case interface{ Map() map[string]any }:
		m := typed.Map()
		return m, m != nil
	default:
		return nil, false
	}
}
