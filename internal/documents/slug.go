package documents

import (
	"context"
	"strings"

	"github.com/goliatone/go-slug"
)

// SlugHook regenerates slugField from sourceField whenever a write carries a
// non-blank sourceField string.
func SlugHook(sourceField, slugField string) BeforeChangeHook {
	sourceField = strings.TrimSpace(sourceField)
	slugField = strings.TrimSpace(slugField)
	if slugField == "" {
		slugField = "slug"
	}
	return func(_ context.Context, event *ChangeEvent) error {
		value, ok := event.Data[sourceField].(string)
		if !ok || strings.TrimSpace(value) == "" {
			return nil
		}
		normalized, err := slug.Normalize(value)
		if err != nil {
			return err
		}
		if normalized != "" {
			event.Data[slugField] = normalized
		}
		return nil
	}
}
