package fields

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-autotranslate/internal/fieldpath"
	"github.com/goliatone/go-autotranslate/internal/gateway"
	"github.com/goliatone/go-autotranslate/internal/logging"
	"github.com/goliatone/go-autotranslate/internal/richtext"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// Target identifies the translation direction for a payload.
type Target struct {
	SourceLocale string
	TargetLocale string
	Settings     interfaces.TranslationSettings
}

// FieldReport summarises the outcome of one field.
type FieldReport struct {
	Path       string
	Kind       Kind
	Translated int
	Failed     int
	Transient  int
	Written    bool
	Err        error
}

// Report summarises a payload build.
type Report struct {
	Fields []FieldReport
}

// Translated returns the total number of successful gateway calls.
func (r Report) Translated() int {
	total := 0
	for _, field := range r.Fields {
		total += field.Translated
	}
	return total
}

// Failed returns the total number of failed gateway calls.
func (r Report) Failed() int {
	total := 0
	for _, field := range r.Fields {
		total += field.Failed
	}
	return total
}

// Transient returns the number of failed gateway calls a later attempt may
// recover.
func (r Report) Transient() int {
	total := 0
	for _, field := range r.Fields {
		total += field.Transient
	}
	return total
}

// Translator turns source field values into translated payload entries.
type Translator struct {
	gateway interfaces.TranslationGateway
	walker  *richtext.Walker
	logger  interfaces.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger used for contained failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTranslator builds a Translator around gateway.
func NewTranslator(gateway interfaces.TranslationGateway, opts ...Option) *Translator {
	t := &Translator{gateway: gateway, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.walker = richtext.NewWalker(gateway, richtext.WithLogger(t.logger))
	return t
}

// BuildPayload translates every field in paths from doc. The returned payload
// is keyed by field path and holds only values the translator wrote: absent
// and unsupported fields are left out. A failing field never aborts its
// siblings. doc is not mutated.
func (t *Translator) BuildPayload(ctx context.Context, doc map[string]any, paths []string, target Target) (map[string]any, Report) {
	payload := make(map[string]any, len(paths))
	report := Report{Fields: make([]FieldReport, 0, len(paths))}

	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		raw, _ := fieldpath.Get(doc, path)
		value, fieldReport := t.TranslateValue(ctx, path, Classify(raw), target)
		if fieldReport.Written {
			payload[path] = value
		}
		report.Fields = append(report.Fields, fieldReport)
	}
	return payload, report
}

// TranslateValue translates one classified value. Written reports whether the
// result belongs in the payload.
func (t *Translator) TranslateValue(ctx context.Context, path string, value Value, target Target) (any, FieldReport) {
	report := FieldReport{Path: path, Kind: value.Kind}

	switch value.Kind {
	case KindPlainText:
		translated, err := t.gateway.TranslateText(ctx, value.Text, target.TargetLocale, target.SourceLocale, target.Settings)
		report.Written = true
		if err != nil {
			report.Failed = 1
			if gateway.IsTransient(err) {
				report.Transient = 1
			}
			report.Err = err
			t.fieldFailed(path, target, err)
			return value.Text, report
		}
		report.Translated = 1
		return translated, report

	case KindStructuredText:
		out, stats, err := t.walker.Translate(ctx, value.Structured, richtext.Target{
			FieldPath:    path,
			SourceLocale: target.SourceLocale,
			TargetLocale: target.TargetLocale,
			Settings:     target.Settings,
		})
		report.Written = true
		report.Translated = stats.Translated
		report.Failed = stats.Failed
		report.Transient = stats.Transient
		if err != nil {
			report.Err = err
			t.fieldFailed(path, target, err)
		}
		return out, report

	case KindItemArray:
		items, stats := t.translateItems(ctx, path, value.Items, target)
		report.Written = true
		report.Translated = stats.Translated
		report.Failed = stats.Failed
		report.Transient = stats.Transient
		return items, report

	case KindUnsupported:
		t.logger.Debug("field.skipped_unsupported",
			logging.FieldFieldPath, path,
			logging.FieldLocale, target.TargetLocale,
		)
		return nil, report

	default:
		return nil, report
	}
}

// translateItems shallow-copies every mapping item and translates each
// non-blank string key independently. Non-mapping items pass through.
func (t *Translator) translateItems(ctx context.Context, path string, items []any, target Target) ([]any, richtext.Stats) {
	var stats richtext.Stats
	out := make([]any, len(items))
	for i, item := range items {
		source, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}
		copied := make(map[string]any, len(source))
		for key, raw := range source {
			copied[key] = raw
			text, ok := raw.(string)
			if !ok || strings.TrimSpace(text) == "" {
				continue
			}
			translated, err := t.gateway.TranslateText(ctx, text, target.TargetLocale, target.SourceLocale, target.Settings)
			if err != nil {
				stats.Fail(err)
				t.fieldFailed(path+"."+key, target, err)
				continue
			}
			copied[key] = translated
			stats.Translated++
		}
		out[i] = copied
	}
	return out, stats
}

func (t *Translator) fieldFailed(path string, target Target, err error) {
	level := t.logger.Warn
	if errors.Is(err, richtext.ErrMalformed) {
		level = t.logger.Error
	}
	level("field.translate_failed",
		logging.FieldFieldPath, path,
		logging.FieldLocale, target.TargetLocale,
		"error", err,
	)
}
