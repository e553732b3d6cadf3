package translatecmd_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-autotranslate/internal/commands"
	translatecmd "github.com/goliatone/go-autotranslate/internal/commands/translate"
	"github.com/goliatone/go-autotranslate/internal/documents"
	"github.com/goliatone/go-autotranslate/internal/gateway"
	"github.com/goliatone/go-autotranslate/internal/reconcile"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
	"github.com/goliatone/go-command/dispatcher"
	goerrors "github.com/goliatone/go-errors"
)

func newFixture(t *testing.T, gw interfaces.TranslationGateway) (*documents.MemoryStore, *reconcile.Reconciler) {
	t.Helper()
	store := documents.NewMemoryStore()
	if _, err := store.Create(context.Background(), interfaces.CreateRequest{
		Collection: "posts",
		ID:         "post-1",
		Locale:     "en",
		Data:       map[string]any{"title": "Hello"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	r, err := reconcile.New(store, gw, reconcile.Config{Locales: []string{"en", "fr", "es"}, DefaultLocale: "en"})
	if err != nil {
		t.Fatalf("reconciler: %v", err)
	}
	return store, r
}

func TestTranslateDocumentCommandValidate(t *testing.T) {
	cases := []struct {
		name  string
		msg   translatecmd.TranslateDocumentCommand
		field string
	}{
		{"collection", translatecmd.TranslateDocumentCommand{DocumentID: "p"}, "collection"},
		{"document", translatecmd.TranslateDocumentCommand{Collection: "posts"}, "document_id"},
		{"blank field", translatecmd.TranslateDocumentCommand{Collection: "posts", DocumentID: "p", Fields: []string{" "}}, "fields.0"},
		{"formality", translatecmd.TranslateDocumentCommand{Collection: "posts", DocumentID: "p", Settings: interfaces.TranslationSettings{Formality: "casual"}}, "settings.formality"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs, ok := tc.msg.Validate().(validation.Errors)
			if !ok {
				t.Fatalf("expected validation errors")
			}
			if errs[tc.field] == nil {
				t.Fatalf("expected error on %s, got %v", tc.field, errs)
			}
		})
	}

	valid := translatecmd.TranslateDocumentCommand{
		Collection: "posts",
		Document:   map[string]any{"id": "p", "title": "x"},
		Settings:   interfaces.TranslationSettings{Formality: interfaces.FormalityLess},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid command, got %v", err)
	}
}

func TestTranslateDocumentHandlerRun(t *testing.T) {
	store, r := newFixture(t, gateway.NewDictionary(map[string]map[string]string{
		"fr": {"Hello": "Bonjour"},
		"es": {"Hello": "Hola"},
	}))
	handler := translatecmd.NewTranslateDocumentHandler(r, nil)

	result, err := handler.Run(context.Background(), translatecmd.TranslateDocumentCommand{
		Collection: "posts",
		DocumentID: "post-1",
		Fields:     []string{"title"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := result.Committed(); len(got) != 2 {
		t.Fatalf("expected two committed locales, got %v", got)
	}
	doc, err := store.FindByID(context.Background(), interfaces.FindRequest{Collection: "posts", ID: "post-1", Locale: "es"})
	if err != nil {
		t.Fatalf("find es: %v", err)
	}
	if doc["title"] != "Hola" {
		t.Fatalf("expected Hola, got %v", doc["title"])
	}
}

func TestTranslateDocumentHandlerValidationError(t *testing.T) {
	_, r := newFixture(t, gateway.NewDictionary(nil))
	handler := translatecmd.NewTranslateDocumentHandler(r, nil)

	err := handler.Execute(context.Background(), translatecmd.TranslateDocumentCommand{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
}

func TestTranslateDocumentHandlerMissingSource(t *testing.T) {
	_, r := newFixture(t, gateway.NewDictionary(nil))
	handler := translatecmd.NewTranslateDocumentHandler(r, nil)

	result, err := handler.Run(context.Background(), translatecmd.TranslateDocumentCommand{
		Collection: "posts",
		DocumentID: "missing",
		Fields:     []string{"title"},
	})
	if result != nil {
		t.Fatalf("expected no result, got %#v", result)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryNotFound) || !errors.Is(err, reconcile.ErrSourceFetch) {
		t.Fatalf("expected not found source fetch error, got %v", err)
	}
}

type failingStore struct {
	*documents.MemoryStore
	locale string
}

func (s failingStore) Create(ctx context.Context, req interfaces.CreateRequest) (interfaces.Document, error) {
	if req.Locale == s.locale {
		return nil, errors.New("write rejected")
	}
	return s.MemoryStore.Create(ctx, req)
}

func TestTranslateDocumentHandlerRequireAll(t *testing.T) {
	store, _ := newFixture(t, gateway.NewDictionary(nil))
	r, err := reconcile.New(failingStore{MemoryStore: store, locale: "es"}, gateway.NewDictionary(nil), reconcile.Config{Locales: []string{"en", "fr", "es"}})
	if err != nil {
		t.Fatalf("reconciler: %v", err)
	}
	handler := translatecmd.NewTranslateDocumentHandler(r, nil)
	msg := translatecmd.TranslateDocumentCommand{Collection: "posts", DocumentID: "post-1", Fields: []string{"title"}}

	result, err := handler.Run(context.Background(), msg)
	if err != nil {
		t.Fatalf("expected partial success without RequireAll, got %v", err)
	}
	if result.OK() {
		t.Fatalf("expected es failure to be recorded")
	}

	msg.RequireAll = true
	result, err = handler.Run(context.Background(), msg)
	if !errors.Is(err, translatecmd.ErrLocalesFailed) || !goerrors.IsCategory(err, goerrors.CategoryOperation) {
		t.Fatalf("expected locales failed error, got %v", err)
	}
	if result == nil || len(result.Failed()) != 1 {
		t.Fatalf("expected result alongside error, got %#v", result)
	}
}

func TestTranslateDocumentHandlerDispatch(t *testing.T) {
	store, r := newFixture(t, gateway.NewDictionary(nil))
	handler := translatecmd.NewTranslateDocumentHandler(r, nil)

	sub := dispatcher.SubscribeCommand(handler)
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), translatecmd.TranslateDocumentCommand{
		Collection:    "posts",
		DocumentID:    "post-1",
		Fields:        []string{"title"},
		TargetLocales: []string{"fr"},
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	doc, err := store.FindByID(context.Background(), interfaces.FindRequest{Collection: "posts", ID: "post-1", Locale: "fr"})
	if err != nil {
		t.Fatalf("find fr: %v", err)
	}
	if doc["title"] != "[fr] Hello" {
		t.Fatalf("unexpected fr title %v", doc["title"])
	}
}

func deadlineGateway(withDeadline *atomic.Int32) interfaces.TranslationGateway {
	return interfaces.TranslationGatewayFunc(func(ctx context.Context, text, target, _ string, _ interfaces.TranslationSettings) (string, error) {
		if _, ok := ctx.Deadline(); ok {
			withDeadline.Add(1)
		}
		return "[" + target + "] " + text, nil
	})
}

func TestTranslateDocumentHandlerHasNoDefaultDeadline(t *testing.T) {
	var withDeadline atomic.Int32
	_, r := newFixture(t, deadlineGateway(&withDeadline))
	handler := translatecmd.NewTranslateDocumentHandler(r, nil)

	result, err := handler.Run(context.Background(), translatecmd.TranslateDocumentCommand{
		Collection: "posts",
		DocumentID: "post-1",
		Fields:     []string{"title"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Committed()) != 2 {
		t.Fatalf("expected two committed locales, got %v", result.Committed())
	}
	if got := withDeadline.Load(); got != 0 {
		t.Fatalf("expected gateway calls without a deadline, %d had one", got)
	}
}

func TestTranslateDocumentHandlerHonoursConfiguredTimeout(t *testing.T) {
	var withDeadline atomic.Int32
	_, r := newFixture(t, deadlineGateway(&withDeadline))
	handler := translatecmd.NewTranslateDocumentHandler(r, nil,
		commands.WithTimeout[translatecmd.TranslateDocumentCommand](time.Minute),
	)

	if _, err := handler.Run(context.Background(), translatecmd.TranslateDocumentCommand{
		Collection: "posts",
		DocumentID: "post-1",
		Fields:     []string{"title"},
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := withDeadline.Load(); got != 2 {
		t.Fatalf("expected both locale calls to carry the deadline, got %d", got)
	}
}
