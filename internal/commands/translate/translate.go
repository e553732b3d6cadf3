package translatecmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-autotranslate/internal/commands"
	"github.com/goliatone/go-autotranslate/internal/reconcile"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
	goerrors "github.com/goliatone/go-errors"
)

const translateDocumentMessageType = "autotranslate.document.translate"

// ErrLocalesFailed is returned when RequireAll is set and a locale failed.
var ErrLocalesFailed = errors.New("translatecmd: one or more locales failed")

var formalities = []any{
	interfaces.FormalityDefault,
	interfaces.FormalityMore,
	interfaces.FormalityLess,
	interfaces.FormalityPreferMore,
	interfaces.FormalityPreferLess,
}

// TranslateDocumentCommand requests translation of one document into its target locales.
type TranslateDocumentCommand struct {
	Collection    string                         `json:"collection"`
	DocumentID    string                         `json:"document_id,omitempty"`
	Document      map[string]any                 `json:"document,omitempty"`
	SourceLocale  string                         `json:"source_locale,omitempty"`
	Fields        []string                       `json:"fields,omitempty"`
	TargetLocales []string                       `json:"target_locales,omitempty"`
	Settings      interfaces.TranslationSettings `json:"settings,omitempty"`
	// RequireAll turns any failed locale into a command error so queued
	// invocations are retried.
	RequireAll bool `json:"require_all,omitempty"`
}

// Type implements command.Message.
func (TranslateDocumentCommand) Type() string { return translateDocumentMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m TranslateDocumentCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Collection) == "" {
		errs["collection"] = validation.NewError("autotranslate.translate.collection_required", "collection is required")
	}
	if strings.TrimSpace(m.DocumentID) == "" && interfaces.Document(m.Document).ID() == "" {
		errs["document_id"] = validation.NewError("autotranslate.translate.document_required", "document_id or a document with an id is required")
	}
	for i, path := range m.Fields {
		if strings.TrimSpace(path) == "" {
			errs[fmt.Sprintf("fields.%d", i)] = validation.NewError("autotranslate.translate.field_blank", "field paths cannot be blank")
		}
	}
	if err := validation.Validate(m.Settings.Formality, validation.In(formalities...)); err != nil {
		errs["settings.formality"] = err
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m TranslateDocumentCommand) request() reconcile.Request {
	var doc interfaces.Document
	if m.Document != nil {
		doc = interfaces.Document(m.Document)
	}
	return reconcile.Request{
		Document:      doc,
		DocumentID:    m.DocumentID,
		Collection:    m.Collection,
		Fields:        m.Fields,
		TargetLocales: m.TargetLocales,
		Settings:      m.Settings,
		SourceLocale:  m.SourceLocale,
	}
}

// Reconciler runs the translation pipeline.
type Reconciler interface {
	Reconcile(ctx context.Context, req reconcile.Request) (*reconcile.Result, error)
}

// TranslateDocumentHandler runs the reconciler using the shared command handler foundation.
type TranslateDocumentHandler struct {
	reconciler Reconciler
	opts       []commands.HandlerOption[TranslateDocumentCommand]
}

// NewTranslateDocumentHandler constructs a handler wired to reconciler. The
// invocation has no deadline unless opts set one with commands.WithTimeout;
// each locale unit is bounded only by the caller's context.
func NewTranslateDocumentHandler(reconciler Reconciler, logger interfaces.Logger, opts ...commands.HandlerOption[TranslateDocumentCommand]) *TranslateDocumentHandler {
	handlerOpts := []commands.HandlerOption[TranslateDocumentCommand]{
		commands.WithLogger[TranslateDocumentCommand](logger),
		commands.WithTimeout[TranslateDocumentCommand](0),
		commands.WithOperation[TranslateDocumentCommand]("document.translate"),
	}
	return &TranslateDocumentHandler{
		reconciler: reconciler,
		opts:       append(handlerOpts, opts...),
	}
}

// Execute satisfies command.Commander[TranslateDocumentCommand].Execute.
func (h *TranslateDocumentHandler) Execute(ctx context.Context, msg TranslateDocumentCommand) error {
	_, err := h.Run(ctx, msg)
	return err
}

// Run executes msg and returns the per-locale result. The result is non-nil
// whenever the reconciler ran, including when RequireAll turned a locale
// failure into an error.
func (h *TranslateDocumentHandler) Run(ctx context.Context, msg TranslateDocumentCommand) (*reconcile.Result, error) {
	var result *reconcile.Result
	exec := func(ctx context.Context, msg TranslateDocumentCommand) error {
		res, err := h.reconciler.Reconcile(ctx, msg.request())
		if err != nil {
			return err
		}
		result = res
		if msg.RequireAll && !res.OK() {
			return localesFailed(res)
		}
		return nil
	}
	err := commands.NewHandler[TranslateDocumentCommand](exec, h.opts...).Execute(ctx, msg)
	return result, err
}

func localesFailed(res *reconcile.Result) error {
	failed := res.Failed()
	locales := make([]string, 0, len(failed))
	causes := make([]error, 0, len(failed)+1)
	causes = append(causes, ErrLocalesFailed)
	for _, outcome := range failed {
		locales = append(locales, outcome.Locale)
		if outcome.Err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", outcome.Locale, outcome.Err))
		}
	}
	return goerrors.Wrap(errors.Join(causes...), goerrors.CategoryOperation, "translation incomplete").
		WithTextCode("TRANSLATION_INCOMPLETE").
		WithMetadata(map[string]any{
			"collection":     res.Collection,
			"document_id":    res.DocumentID,
			"failed_locales": locales,
		})
}
