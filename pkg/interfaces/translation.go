package interfaces

import "context"

// Formality values accepted by TranslationSettings.
const (
	FormalityDefault    = "default"
	FormalityMore       = "more"
	FormalityLess       = "less"
	FormalityPreferMore = "prefer_more"
	FormalityPreferLess = "prefer_less"
)

// TranslationSettings are opaque provider options forwarded unchanged on every
// gateway call. The zero value lets the provider apply its defaults.
type TranslationSettings struct {
	Formality          string `json:"formality,omitempty" yaml:"formality,omitempty"`
	PreserveFormatting bool   `json:"preserve_formatting,omitempty" yaml:"preserve_formatting,omitempty"`
	TagHandling        string `json:"tag_handling,omitempty" yaml:"tag_handling,omitempty"`
	GlossaryID         string `json:"glossary_id,omitempty" yaml:"glossary_id,omitempty"`
	Context            string `json:"context,omitempty" yaml:"context,omitempty"`
}

// IsZero reports whether no option has been set.
func (s TranslationSettings) IsZero() bool {
	return s == TranslationSettings{}
}

// TranslationGateway translates a single text value between two locales.
type TranslationGateway interface {
	TranslateText(ctx context.Context, text, targetLocale, sourceLocale string, settings TranslationSettings) (string, error)
}

// TranslationGatewayFunc adapts a function to TranslationGateway.
type TranslationGatewayFunc func(ctx context.Context, text, targetLocale, sourceLocale string, settings TranslationSettings) (string, error)

// TranslateText calls f.
func (f TranslationGatewayFunc) TranslateText(ctx context.Context, text, targetLocale, sourceLocale string, settings TranslationSettings) (string, error) {
	return f(ctx, text, targetLocale, sourceLocale, settings)
}
