package gateway

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

const ProviderDictionary = "dictionary"

// Dictionary is a deterministic in-process gateway used for development and
// tests. Known texts resolve through the per-locale table; unknown texts are
// returned with a "[locale] " prefix.
type Dictionary struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
	failing map[string]Kind
	calls   int
}

var _ interfaces.TranslationGateway = (*Dictionary)(nil)

// NewDictionary builds a dictionary gateway from entries keyed by target
// locale and source text.
func NewDictionary(entries map[string]map[string]string) *Dictionary {
	d := &Dictionary{
		entries: map[string]map[string]string{},
		failing: map[string]Kind{},
	}
	for locale, table := range entries {
		for source, translated := range table {
			d.Add(locale, source, translated)
		}
	}
	return d
}

// Add registers a translation.
func (d *Dictionary) Add(locale, source, translated string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	locale = normalizeLocale(locale)
	if d.entries[locale] == nil {
		d.entries[locale] = map[string]string{}
	}
	d.entries[locale][source] = translated
}

// FailLocale makes every call targeting locale fail with kind.
func (d *Dictionary) FailLocale(locale string, kind Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing[normalizeLocale(locale)] = kind
}

// Calls returns the number of TranslateText invocations.
func (d *Dictionary) Calls() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.calls
}

// TranslateText implements interfaces.TranslationGateway.
func (d *Dictionary) TranslateText(ctx context.Context, text, targetLocale, sourceLocale string, _ interfaces.TranslationSettings) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &TranslationError{Kind: KindNetwork, Provider: ProviderDictionary, SourceLocale: sourceLocale, TargetLocale: targetLocale, Err: err}
	}

	d.mu.Lock()
	d.calls++
	kind, failing := d.failing[normalizeLocale(targetLocale)]
	translated, known := d.entries[normalizeLocale(targetLocale)][text]
	d.mu.Unlock()

	if failing {
		return "", &TranslationError{
			Kind:         kind,
			Provider:     ProviderDictionary,
			SourceLocale: sourceLocale,
			TargetLocale: targetLocale,
			Message:      "locale configured to fail",
		}
	}
	if known {
		return translated, nil
	}
	return "[" + targetLocale + "] " + text, nil
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}
