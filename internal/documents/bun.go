package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-autotranslate/internal/domain"
	"github.com/goliatone/go-autotranslate/internal/identity"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// DocumentRecord is the storage row of one locale instance.
type DocumentRecord struct {
	bun.BaseModel `bun:"table:autotranslate_documents,alias:doc"`

	ID         uuid.UUID      `bun:",pk,type:uuid" json:"id"`
	Collection string         `bun:"collection,notnull" json:"collection"`
	DocumentID string         `bun:"document_id,notnull" json:"document_id"`
	Locale     string         `bun:"locale,notnull" json:"locale"`
	Status     string         `bun:"status,notnull,default:'draft'" json:"status"`
	Data       map[string]any `bun:"data,type:jsonb" json:"data"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time      `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// NewDocumentRepository creates a repository for locale instance rows.
func NewDocumentRepository(db *bun.DB) repository.Repository[*DocumentRecord] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*DocumentRecord]{
		NewRecord:          func() *DocumentRecord { return &DocumentRecord{} },
		GetID:              func(rec *DocumentRecord) uuid.UUID { return rec.ID },
		SetID:              func(rec *DocumentRecord, id uuid.UUID) { rec.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(rec *DocumentRecord) string { return rec.ID.String() },
	})
}

// CreateSchema creates the documents table when it is missing.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*DocumentRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("documents: create table: %w", err)
	}
	return nil
}

// BunStore persists locale instances through go-repository-bun.
type BunStore struct {
	repo repository.Repository[*DocumentRecord]
	opts storeOptions
}

var _ interfaces.DocumentStore = (*BunStore)(nil)

// NewBunStore creates a store without caching.
func NewBunStore(db *bun.DB, opts ...Option) *BunStore {
	return NewBunStoreWithCache(db, nil, nil, opts...)
}

// NewBunStoreWithCache creates a store with caching support.
func NewBunStoreWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer, opts ...Option) *BunStore {
	base := NewDocumentRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunStore{repo: base, opts: resolveOptions(opts)}
}

// FindByID implements interfaces.DocumentStore.
func (s *BunStore) FindByID(ctx context.Context, req interfaces.FindRequest) (interfaces.Document, error) {
	record, err := s.get(ctx, req.Collection, req.ID, req.Locale)
	if interfaces.IsDocumentNotFound(err) && req.FallbackLocale && s.opts.fallbackLocale != "" {
		record, err = s.get(ctx, req.Collection, req.ID, s.opts.fallbackLocale)
	}
	if err != nil {
		return nil, storeError("find", req.Collection, req.ID, req.Locale, err)
	}
	return toDocument(record.DocumentID, record.Data, record.Status, record.CreatedAt, record.UpdatedAt), nil
}

// Update implements interfaces.DocumentStore.
func (s *BunStore) Update(ctx context.Context, req interfaces.UpdateRequest) error {
	record, err := s.get(ctx, req.Collection, req.ID, req.Locale)
	if err != nil {
		return storeError("update", req.Collection, req.ID, req.Locale, err)
	}

	event := ChangeEvent{
		Operation:  OperationUpdate,
		Collection: req.Collection,
		ID:         req.ID,
		Locale:     req.Locale,
		Data:       stripSystemFields(req.Data),
	}
	if err := s.opts.hooks.runBefore(ctx, req.Context, &event); err != nil {
		return storeError("update", req.Collection, req.ID, req.Locale, err)
	}

	record.Data = mergeData(record.Data, event.Data)
	record.UpdatedAt = s.opts.clock()
	if _, err := s.repo.Update(ctx, record); err != nil {
		return storeError("update", req.Collection, req.ID, req.Locale, mapRepositoryError(err))
	}

	if err := s.opts.hooks.runAfter(ctx, req.Context, event); err != nil {
		return storeError("update", req.Collection, req.ID, req.Locale, err)
	}
	return nil
}

// Create implements interfaces.DocumentStore.
func (s *BunStore) Create(ctx context.Context, req interfaces.CreateRequest) (interfaces.Document, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = s.opts.idGenerator()
	}
	if _, err := s.get(ctx, req.Collection, id, req.Locale); err == nil {
		return nil, storeError("create", req.Collection, id, req.Locale, ErrDocumentExists)
	} else if !interfaces.IsDocumentNotFound(err) {
		return nil, storeError("create", req.Collection, id, req.Locale, err)
	}

	event := ChangeEvent{
		Operation:  OperationCreate,
		Collection: req.Collection,
		ID:         id,
		Locale:     req.Locale,
		Data:       stripSystemFields(req.Data),
	}
	if err := s.opts.hooks.runBefore(ctx, req.Context, &event); err != nil {
		return nil, storeError("create", req.Collection, id, req.Locale, err)
	}

	now := s.opts.clock()
	record := &DocumentRecord{
		ID:         identity.DocumentRowUUID(req.Collection, id, req.Locale),
		Collection: normalizeCollection(req.Collection),
		DocumentID: id,
		Locale:     normalizeLocale(req.Locale),
		Status:     string(domain.NormalizeStatus(req.Status)),
		Data:       event.Data,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return nil, storeError("create", req.Collection, id, req.Locale, mapRepositoryError(err))
	}
	doc := toDocument(created.DocumentID, created.Data, created.Status, created.CreatedAt, created.UpdatedAt)

	if err := s.opts.hooks.runAfter(ctx, req.Context, event); err != nil {
		return doc, storeError("create", req.Collection, id, req.Locale, err)
	}
	return doc, nil
}

func (s *BunStore) get(ctx context.Context, collection, id, locale string) (*DocumentRecord, error) {
	rowID := identity.DocumentRowUUID(collection, id, locale)
	record, err := s.repo.GetByID(ctx, rowID.String())
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return record, nil
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return interfaces.ErrDocumentNotFound
	}
	return fmt.Errorf("documents repository error: %w", err)
}

func normalizeCollection(collection string) string {
	return strings.ToLower(strings.TrimSpace(collection))
}

func normalizeLocale(locale string) string {
	return strings.ToLower(strings.TrimSpace(locale))
}
