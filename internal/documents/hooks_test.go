package documents_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-autotranslate/internal/documents"
	"github.com/goliatone/go-autotranslate/internal/scheduler"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

func TestSlugHookRegeneratesSlug(t *testing.T) {
	hooks := documents.NewHooks()
	hooks.OnBeforeChange("posts", documents.SlugHook("title", "slug"))
	store := documents.NewMemoryStore(documents.WithHooks(hooks))

	doc, err := store.Create(context.Background(), interfaces.CreateRequest{
		Collection: "posts",
		ID:         "p",
		Locale:     "en",
		Data:       map[string]any{"title": "Hello World"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	slug, _ := doc["slug"].(string)
	if slug == "" || strings.Contains(slug, " ") || !strings.Contains(slug, "hello") {
		t.Fatalf("expected normalized slug, got %q", slug)
	}
}

func TestHooksSkippedForAutoProcessingWrites(t *testing.T) {
	ctx := context.Background()
	var before, after int
	hooks := documents.NewHooks()
	hooks.OnBeforeChange(documents.AnyCollection, func(context.Context, *documents.ChangeEvent) error {
		before++
		return nil
	})
	hooks.OnAfterChange("posts", func(context.Context, documents.ChangeEvent) error {
		after++
		return nil
	})
	store := documents.NewMemoryStore(documents.WithHooks(hooks))

	if _, err := store.Create(ctx, interfaces.CreateRequest{Collection: "posts", ID: "p", Locale: "en"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if before != 1 || after != 1 {
		t.Fatalf("expected hooks to run once, got before=%d after=%d", before, after)
	}

	if err := store.Update(ctx, interfaces.UpdateRequest{
		Collection: "posts",
		ID:         "p",
		Locale:     "en",
		Data:       map[string]any{"title": "x"},
		Context:    interfaces.WriteContext{SkipAutoProcessing: true},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if before != 1 || after != 1 {
		t.Fatalf("expected hooks to be skipped, got before=%d after=%d", before, after)
	}
}

func TestBeforeHookErrorAbortsWrite(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	hooks := documents.NewHooks()
	hooks.OnBeforeChange("posts", func(context.Context, *documents.ChangeEvent) error { return boom })
	store := documents.NewMemoryStore(documents.WithHooks(hooks))

	if _, err := store.Create(ctx, interfaces.CreateRequest{Collection: "posts", ID: "p", Locale: "en"}); !errors.Is(err, boom) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if _, err := store.FindByID(ctx, interfaces.FindRequest{Collection: "posts", ID: "p", Locale: "en"}); !interfaces.IsDocumentNotFound(err) {
		t.Fatalf("expected write to be aborted, got %v", err)
	}
}

func TestAutoTranslateHookEnqueuesSourceLocaleWrites(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	jobs := scheduler.NewInMemory(scheduler.WithClock(func() time.Time { return now }))

	hooks := documents.NewHooks()
	hooks.OnAfterChange("posts", documents.AutoTranslateHook(jobs, documents.AutoTranslateOptions{
		SourceLocale: "en",
		Fields:       []string{"title"},
		MaxAttempts:  3,
		Clock:        func() time.Time { return now },
	}))
	store := documents.NewMemoryStore(documents.WithHooks(hooks))

	if _, err := store.Create(ctx, interfaces.CreateRequest{Collection: "posts", ID: "p", Locale: "en", Data: map[string]any{"title": "Hi"}}); err != nil {
		t.Fatalf("create source: %v", err)
	}
	if _, err := store.Create(ctx, interfaces.CreateRequest{Collection: "posts", ID: "q", Locale: "fr", Data: map[string]any{"title": "Salut"}}); err != nil {
		t.Fatalf("create target: %v", err)
	}

	due, err := jobs.ListDue(ctx, now, 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected one job, got %d", len(due))
	}
	payload, err := scheduler.ParseTranslateDocumentPayload(due[0].Payload)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.DocumentID != "p" || payload.SourceLocale != "en" || len(payload.Fields) != 1 {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if due[0].MaxAttempts != 3 {
		t.Fatalf("expected max attempts 3, got %d", due[0].MaxAttempts)
	}
}
