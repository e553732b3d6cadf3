package documents_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-autotranslate/internal/documents"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
	"github.com/goliatone/go-autotranslate/pkg/testsupport"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

func newBunDB(t *testing.T) *bun.DB {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.SetMaxOpenConns(1)
	if err := documents.CreateSchema(context.Background(), bunDB); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return bunDB
}

func TestBunStoreWithCache(t *testing.T) {
	ctx := context.Background()
	bunDB := newBunDB(t)

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	store := documents.NewBunStoreWithCache(bunDB, cacheSvc, repocache.NewDefaultKeySerializer(), documents.WithClock(fixedClock()))

	if _, err := store.Create(ctx, interfaces.CreateRequest{
		Collection: "posts",
		ID:         "post-1",
		Locale:     "en",
		Data: map[string]any{
			"title": "Hello",
			"meta":  map[string]any{"summary": "Short"},
		},
	}); err != nil {
		t.Fatalf("create en: %v", err)
	}
	if _, err := store.Create(ctx, interfaces.CreateRequest{
		Collection: "posts",
		ID:         "post-1",
		Locale:     "fr",
		Data:       map[string]any{"title": "Bonjour"},
	}); err != nil {
		t.Fatalf("create fr: %v", err)
	}

	en, err := store.FindByID(ctx, interfaces.FindRequest{Collection: "posts", ID: "post-1", Locale: "en"})
	if err != nil {
		t.Fatalf("find en: %v", err)
	}
	if en.ID() != "post-1" || en["title"] != "Hello" || en["_status"] != "draft" {
		t.Fatalf("unexpected en document %#v", en)
	}

	if err := store.Update(ctx, interfaces.UpdateRequest{
		Collection: "posts",
		ID:         "post-1",
		Locale:     "fr",
		Data:       map[string]any{"meta": map[string]any{"summary": "Court"}},
		Context:    interfaces.WriteContext{SkipAutoProcessing: true},
	}); err != nil {
		t.Fatalf("update fr: %v", err)
	}

	fr, err := store.FindByID(ctx, interfaces.FindRequest{Collection: "posts", ID: "post-1", Locale: "fr"})
	if err != nil {
		t.Fatalf("find fr: %v", err)
	}
	meta, _ := fr["meta"].(map[string]any)
	if fr["title"] != "Bonjour" || meta["summary"] != "Court" {
		t.Fatalf("unexpected fr document %#v", fr)
	}
}

func TestBunStoreNotFoundAndConflict(t *testing.T) {
	ctx := context.Background()
	store := documents.NewBunStore(newBunDB(t))

	if _, err := store.FindByID(ctx, interfaces.FindRequest{Collection: "posts", ID: "missing", Locale: "en"}); !interfaces.IsDocumentNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.Update(ctx, interfaces.UpdateRequest{Collection: "posts", ID: "missing", Locale: "en"}); !interfaces.IsDocumentNotFound(err) {
		t.Fatalf("expected not found on update, got %v", err)
	}

	req := interfaces.CreateRequest{Collection: "posts", ID: "p", Locale: "en", Data: map[string]any{"title": "x"}}
	if _, err := store.Create(ctx, req); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, req); err == nil {
		t.Fatalf("expected conflict on duplicate create")
	}
}
