// Package reconcile fans a source document out to every target locale and
// commits each translated payload against the locale-scoped store.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-autotranslate/internal/domain"
	"github.com/goliatone/go-autotranslate/internal/fieldpath"
	"github.com/goliatone/go-autotranslate/internal/fields"
	"github.com/goliatone/go-autotranslate/internal/logging"
	"github.com/goliatone/go-autotranslate/internal/richtext"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

var (
	ErrStoreRequired       = errors.New("reconcile: document store required")
	ErrGatewayRequired     = errors.New("reconcile: translation gateway required")
	ErrCollectionRequired  = errors.New("reconcile: collection required")
	ErrDocumentIDRequired  = errors.New("reconcile: document id required")
	ErrFieldsRequired      = errors.New("reconcile: translatable fields required")
	ErrSourceFetch         = errors.New("reconcile: source document fetch failed")
	ErrSourceLocaleMissing = errors.New("reconcile: source locale instance missing")
)

// Config carries the locale set and fan-out limits.
type Config struct {
	// Locales is the ordered set of configured locale codes.
	Locales []string
	// DefaultLocale is the source fallback when neither the request nor the
	// document names one.
	DefaultLocale string
	// MaxConcurrentLocales bounds the fan-out. Zero or negative means unbounded.
	MaxConcurrentLocales int
}

// Request describes one invocation.
type Request struct {
	// Document is the source-locale document. When nil it is fetched.
	Document      interfaces.Document
	DocumentID    string
	Collection    string
	Fields        []string
	TargetLocales []string
	Settings      interfaces.TranslationSettings
	SourceLocale  string
}

// FieldResolver returns the translatable field paths registered for a collection.
type FieldResolver func(collection string) []string

// Reconciler runs the translation pipeline.
type Reconciler struct {
	store      interfaces.DocumentStore
	translator *fields.Translator
	cfg        Config
	logger     interfaces.Logger
	resolver   FieldResolver
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the pipeline logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFieldResolver supplies default field paths per collection.
func WithFieldResolver(resolver FieldResolver) Option {
	return func(r *Reconciler) {
		r.resolver = resolver
	}
}

// New builds a Reconciler.
func New(store interfaces.DocumentStore, gateway interfaces.TranslationGateway, cfg Config, opts ...Option) (*Reconciler, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if gateway == nil {
		return nil, ErrGatewayRequired
	}
	r := &Reconciler{
		store:  store,
		cfg:    cfg,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.translator = fields.NewTranslator(gateway, fields.WithLogger(r.logger))
	return r, nil
}

type plan struct {
	collection   string
	id           string
	source       interfaces.Document
	sourceLocale string
	fields       []string
	settings     interfaces.TranslationSettings
}

// Reconcile translates req into every target locale. An error is returned only
// when the request is invalid or the source document cannot be fetched; every
// per-locale failure is recorded on the Result instead.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (*Result, error) {
	p, err := r.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	targets := r.TargetLocales(p.sourceLocale, req.TargetLocales)
	result := &Result{
		Collection:   p.collection,
		DocumentID:   p.id,
		SourceLocale: p.sourceLocale,
		Outcomes:     make([]Outcome, len(targets)),
	}

	var group errgroup.Group
	if r.cfg.MaxConcurrentLocales > 0 {
		group.SetLimit(r.cfg.MaxConcurrentLocales)
	}
	for i, locale := range targets {
		group.Go(func() error {
			result.Outcomes[i] = r.runLocale(ctx, p, locale)
			return nil
		})
	}
	_ = group.Wait()

	r.logger.Info("reconcile.completed",
		logging.FieldCollection, p.collection,
		logging.FieldDocumentID, p.id,
		"source_locale", p.sourceLocale,
		"committed", len(result.Committed()),
		"failed", len(result.Failed()),
	)
	return result, nil
}

func (r *Reconciler) prepare(ctx context.Context, req Request) (plan, error) {
	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		return plan{}, ErrCollectionRequired
	}

	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		id = req.Document.ID()
	}
	if id == "" {
		return plan{}, ErrDocumentIDRequired
	}

	paths := normalizePaths(req.Fields)
	if len(paths) == 0 && r.resolver != nil {
		paths = normalizePaths(r.resolver(collection))
	}
	if len(paths) == 0 {
		return plan{}, ErrFieldsRequired
	}

	doc := req.Document
	if doc == nil {
		locale := firstNonEmpty(req.SourceLocale, r.cfg.DefaultLocale, domain.DefaultSourceLocale)
		fetched, err := r.store.FindByID(ctx, interfaces.FindRequest{
			Collection: collection,
			ID:         id,
			Locale:     locale,
		})
		if err != nil {
			return plan{}, fmt.Errorf("%w: %w", ErrSourceFetch, err)
		}
		doc = fetched
	}

	return plan{
		collection:   collection,
		id:           id,
		source:       interfaces.Document(richtext.CloneMap(doc)),
		sourceLocale: r.SourceLocale(req.SourceLocale, doc),
		fields:       paths,
		settings:     req.Settings,
	}, nil
}

// SourceLocale resolves the source locale: the explicit value, then the
// document's sourceLanguage field, then the configured default, then "en".
func (r *Reconciler) SourceLocale(explicit string, doc interfaces.Document) string {
	var fromDoc string
	if doc != nil {
		fromDoc, _ = doc[domain.FieldSourceLanguage].(string)
	}
	return firstNonEmpty(explicit, fromDoc, r.cfg.DefaultLocale, domain.DefaultSourceLocale)
}

// TargetLocales returns the configured locales minus source, restricted to
// subset when it is non-empty. Subset codes match case-insensitively and
// configuration order and spelling are kept.
func (r *Reconciler) TargetLocales(source string, subset []string) []string {
	allowed := map[string]bool{}
	for _, code := range subset {
		if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
			allowed[code] = true
		}
	}

	var out []string
	for _, locale := range r.cfg.Locales {
		locale = strings.TrimSpace(locale)
		if locale == "" || strings.EqualFold(locale, source) || slices.Contains(out, locale) {
			continue
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(locale)] {
			continue
		}
		out = append(out, locale)
	}
	return out
}

func (r *Reconciler) runLocale(ctx context.Context, p plan, locale string) (outcome Outcome) {
	logger := logging.WithLocaleContext(r.logger, p.collection, p.id, locale)
	outcome = Outcome{Locale: locale, State: StateStart, Branch: StateStart}

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome.State = StateFailed
			outcome.Err = fmt.Errorf("reconcile: locale %s panicked: %v", locale, recovered)
		}
		if outcome.State == StateFailed {
			logger.Error("locale.failed",
				logging.FieldState, outcome.Branch.String(),
				"error", outcome.Err,
			)
			return
		}
		logger.Info("locale.committed",
			logging.FieldState, outcome.Branch.String(),
			"written", outcome.Written,
			"translated", outcome.Report.Translated(),
			"failed_leaves", outcome.Report.Failed(),
		)
	}()

	fail := func(err error) Outcome {
		outcome.State = StateFailed
		outcome.Err = err
		return outcome
	}

	outcome.Branch = StateCheckExisting
	existing, err := r.store.FindByID(ctx, interfaces.FindRequest{
		Collection: p.collection,
		ID:         p.id,
		Locale:     locale,
	})
	exists := err == nil && existing != nil
	if err != nil && !interfaces.IsDocumentNotFound(err) {
		return fail(err)
	}

	payload, report := r.translator.BuildPayload(ctx, p.source, p.fields, fields.Target{
		SourceLocale: p.sourceLocale,
		TargetLocale: locale,
		Settings:     p.settings,
	})
	outcome.Report = report

	if exists {
		outcome.Branch = StateMerge
		if err := r.merge(ctx, p, locale, payload); err != nil {
			return fail(err)
		}
		outcome.Written = len(payload) > 0
	} else {
		outcome.Branch = StateSynthesize
		if err := r.synthesize(ctx, p, locale, payload); err != nil {
			return fail(err)
		}
		outcome.Written = true
	}

	outcome.State = StateCommitted
	return outcome
}

// merge writes only the translated paths into the existing locale instance.
func (r *Reconciler) merge(ctx context.Context, p plan, locale string, payload map[string]any) error {
	if len(payload) == 0 {
		return nil
	}
	data := map[string]any{}
	for _, path := range p.fields {
		if value, ok := payload[path]; ok {
			fieldpath.Set(data, path, value)
		}
	}
	return r.store.Update(ctx, interfaces.UpdateRequest{
		Collection: p.collection,
		ID:         p.id,
		Locale:     locale,
		Data:       data,
		Context:    interfaces.WriteContext{SkipAutoProcessing: true},
	})
}

// synthesize creates the locale instance from the persisted source-locale
// document with translated values overlaid path by path.
func (r *Reconciler) synthesize(ctx context.Context, p plan, locale string, payload map[string]any) error {
	source, err := r.store.FindByID(ctx, interfaces.FindRequest{
		Collection: p.collection,
		ID:         p.id,
		Locale:     p.sourceLocale,
	})
	if err != nil {
		if interfaces.IsDocumentNotFound(err) {
			return fmt.Errorf("%w: %w", ErrSourceLocaleMissing, err)
		}
		return err
	}

	data := make(map[string]any, len(source)+len(payload))
	for key, value := range source {
		if domain.IsSystemField(key) {
			continue
		}
		data[key] = richtext.Clone(value)
	}

	for _, path := range p.fields {
		if value, ok := payload[path]; ok {
			fieldpath.Set(data, path, value)
		}
		if parent := fieldpath.Parent(path); parent != "" {
			if _, ok := data[parent]; !ok {
				if original, found := source[parent]; found && original != nil {
					data[parent] = richtext.Clone(original)
				} else {
					data[parent] = map[string]any{}
				}
			}
		}
	}

	_, err = r.store.Create(ctx, interfaces.CreateRequest{
		Collection: p.collection,
		ID:         p.id,
		Locale:     locale,
		Data:       data,
		Status:     string(domain.StatusDraft),
		Context:    interfaces.WriteContext{SkipAutoProcessing: true},
	})
	return err
}

func normalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" && !slices.Contains(out, path) {
			out = append(out, path)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
