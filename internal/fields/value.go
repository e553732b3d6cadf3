// Package fields classifies document field values and builds translated
// per-locale payloads from them.
package fields

import (
	"strings"

	"github.com/goliatone/go-autotranslate/internal/richtext"
)

// Kind tags the shape of a field value.
type Kind int

const (
	KindAbsent Kind = iota
	KindPlainText
	KindStructuredText
	KindItemArray
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindPlainText:
		return "plain_text"
	case KindStructuredText:
		return "structured_text"
	case KindItemArray:
		return "item_array"
	case KindUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Value is a classified field value.
type Value struct {
	Kind       Kind
	Text       string
	Structured map[string]any
	Items      []any
	Raw        any
}

// Classify determines the shape of raw once.
func Classify(raw any) Value {
	switch typed := raw.(type) {
	case nil:
		return Value{Kind: KindAbsent}
	case string:
		if strings.TrimSpace(typed) == "" {
			return Value{Kind: KindUnsupported, Raw: raw}
		}
		return Value{Kind: KindPlainText, Text: typed, Raw: raw}
	case map[string]any:
		if richtext.IsStructured(typed) {
			return Value{Kind: KindStructuredText, Structured: typed, Raw: raw}
		}
		return Value{Kind: KindUnsupported, Raw: raw}
	case []any:
		return Value{Kind: KindItemArray, Items: typed, Raw: raw}
	case []map[string]any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = item
		}
		return Value{Kind: KindItemArray, Items: items, Raw: raw}
	default:
		return Value{Kind: KindUnsupported, Raw: raw}
	}
}
