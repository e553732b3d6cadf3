// Package autotranslate fills the locale instances of a document from its
// source locale by machine-translating the configured fields.
package autotranslate

import (
	"context"
	"errors"
	"strings"

	translatecmd "github.com/goliatone/go-autotranslate/internal/commands/translate"
	"github.com/goliatone/go-autotranslate/internal/di"
	"github.com/goliatone/go-autotranslate/internal/documents"
	"github.com/goliatone/go-autotranslate/internal/reconcile"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// TranslateRequest selects the document, fields and locales of one run.
type TranslateRequest = translatecmd.TranslateDocumentCommand

// Result reports the outcome of every target locale.
type Result = reconcile.Result

// Outcome is the terminal state of one target locale.
type Outcome = reconcile.Outcome

// Document is a locale-scoped content record.
type Document = interfaces.Document

// DocumentStore exports the persistence contract.
type DocumentStore = interfaces.DocumentStore

// TranslationGateway exports the provider contract.
type TranslationGateway = interfaces.TranslationGateway

// TranslationSettings are provider options forwarded on every gateway call.
type TranslationSettings = interfaces.TranslationSettings

var (
	ErrSourceFetch         = reconcile.ErrSourceFetch
	ErrSourceLocaleMissing = reconcile.ErrSourceLocaleMissing
	ErrLocalesFailed       = translatecmd.ErrLocalesFailed
	ErrDocumentExists      = documents.ErrDocumentExists
	ErrDocumentNotFound    = interfaces.ErrDocumentNotFound
)

// Module represents the top level translation runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Translate runs the pipeline for one document. Settings left at their zero
// value are taken from the Translation config.
func (m *Module) Translate(ctx context.Context, req TranslateRequest) (*Result, error) {
	if req.Settings.IsZero() {
		req.Settings = m.container.DefaultSettings()
	}
	return m.container.TranslateHandler().Run(ctx, req)
}

// ImportSource stores req.Document as the source-locale instance, creating it
// when the store has none and merging the document into it otherwise.
// Synthesized locales are built from the stored source, so inline documents
// must be imported before Translate. Keys absent from req.Document keep their
// stored values. Store hooks are skipped.
func (m *Module) ImportSource(ctx context.Context, req TranslateRequest) error {
	if req.Document == nil {
		return nil
	}
	if err := req.Validate(); err != nil {
		return err
	}
	doc := Document(req.Document)
	id := strings.TrimSpace(req.DocumentID)
	if id == "" {
		id = doc.ID()
	}
	locale := m.container.Reconciler().SourceLocale(req.SourceLocale, doc)
	write := interfaces.WriteContext{SkipAutoProcessing: true}
	_, err := m.container.Store().Create(ctx, interfaces.CreateRequest{
		Collection: req.Collection,
		ID:         id,
		Locale:     locale,
		Data:       req.Document,
		Context:    write,
	})
	if errors.Is(err, documents.ErrDocumentExists) {
		return m.container.Store().Update(ctx, interfaces.UpdateRequest{
			Collection: req.Collection,
			ID:         id,
			Locale:     locale,
			Data:       req.Document,
			Context:    write,
		})
	}
	return err
}

// ProcessJobs runs every queued translation that is due.
func (m *Module) ProcessJobs(ctx context.Context) error {
	return m.container.Worker().Process(ctx)
}

// RunWorker processes queued translations until ctx is cancelled, polling at
// Jobs.PollInterval.
func (m *Module) RunWorker(ctx context.Context) error {
	return m.container.Worker().Run(ctx, m.container.Config.Jobs.PollInterval)
}

// SubscribeCommands lets hosts trigger translations through the go-command
// dispatcher. Call the returned function to unsubscribe.
func (m *Module) SubscribeCommands() func() {
	return m.container.SubscribeCommands()
}

func (m *Module) Store() DocumentStore {
	return m.container.Store()
}

func (m *Module) Gateway() TranslationGateway {
	return m.container.Gateway()
}

func (m *Module) Scheduler() interfaces.Scheduler {
	return m.container.Scheduler()
}

// Close releases resources opened from configuration.
func (m *Module) Close() error {
	if m == nil {
		return nil
	}
	return m.container.Close()
}
