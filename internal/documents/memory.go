package documents

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-autotranslate/internal/domain"
	"github.com/goliatone/go-autotranslate/internal/richtext"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// ErrDocumentExists is returned when Create targets an existing locale instance.
var ErrDocumentExists = errors.New("documents: locale instance already exists")

// Option configures a store.
type Option func(*storeOptions)

type storeOptions struct {
	hooks          *Hooks
	clock          func() time.Time
	idGenerator    func() string
	fallbackLocale string
}

// WithHooks installs write hooks.
func WithHooks(hooks *Hooks) Option {
	return func(o *storeOptions) {
		o.hooks = hooks
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(o *storeOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithIDGenerator overrides the identifier assigned when Create has no ID.
func WithIDGenerator(generator func() string) Option {
	return func(o *storeOptions) {
		if generator != nil {
			o.idGenerator = generator
		}
	}
}

// WithFallbackLocale sets the locale consulted by FindByID when the request
// enables FallbackLocale and the requested locale is missing.
func WithFallbackLocale(locale string) Option {
	return func(o *storeOptions) {
		o.fallbackLocale = strings.TrimSpace(locale)
	}
}

func resolveOptions(opts []Option) storeOptions {
	o := storeOptions{clock: time.Now, idGenerator: uuid.NewString}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

type memoryKey struct {
	collection string
	id         string
	locale     string
}

type memoryRecord struct {
	data      map[string]any
	status    string
	createdAt time.Time
	updatedAt time.Time
}

// MemoryStore is a process-local DocumentStore.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[memoryKey]*memoryRecord
	opts    storeOptions
}

var _ interfaces.DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		records: map[memoryKey]*memoryRecord{},
		opts:    resolveOptions(opts),
	}
}

func newKey(collection, id, locale string) memoryKey {
	return memoryKey{
		collection: strings.ToLower(strings.TrimSpace(collection)),
		id:         strings.TrimSpace(id),
		locale:     strings.ToLower(strings.TrimSpace(locale)),
	}
}

// FindByID implements interfaces.DocumentStore. Depth is accepted for
// relation expansion; documents held in memory carry no relations.
func (s *MemoryStore) FindByID(_ context.Context, req interfaces.FindRequest) (interfaces.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[newKey(req.Collection, req.ID, req.Locale)]
	if !ok && req.FallbackLocale && s.opts.fallbackLocale != "" {
		record, ok = s.records[newKey(req.Collection, req.ID, s.opts.fallbackLocale)]
	}
	if !ok {
		return nil, notFound("find", req.Collection, req.ID, req.Locale)
	}
	return toDocument(req.ID, record.data, record.status, record.createdAt, record.updatedAt), nil
}

// Update implements interfaces.DocumentStore.
func (s *MemoryStore) Update(ctx context.Context, req interfaces.UpdateRequest) error {
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

	s.mu.Lock()
	record, ok := s.records[newKey(req.Collection, req.ID, req.Locale)]
	if !ok {
		s.mu.Unlock()
		return notFound("update", req.Collection, req.ID, req.Locale)
	}
	record.data = mergeData(record.data, event.Data)
	record.updatedAt = s.opts.clock()
	s.mu.Unlock()

	if err := s.opts.hooks.runAfter(ctx, req.Context, event); err != nil {
		return storeError("update", req.Collection, req.ID, req.Locale, err)
	}
	return nil
}

// Create implements interfaces.DocumentStore.
func (s *MemoryStore) Create(ctx context.Context, req interfaces.CreateRequest) (interfaces.Document, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = s.opts.idGenerator()
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

	key := newKey(req.Collection, id, req.Locale)
	now := s.opts.clock()
	record := &memoryRecord{
		data:      event.Data,
		status:    string(domain.NormalizeStatus(req.Status)),
		createdAt: now,
		updatedAt: now,
	}

	s.mu.Lock()
	if _, exists := s.records[key]; exists {
		s.mu.Unlock()
		return nil, storeError("create", req.Collection, id, req.Locale, ErrDocumentExists)
	}
	s.records[key] = record
	doc := toDocument(id, record.data, record.status, record.createdAt, record.updatedAt)
	s.mu.Unlock()

	if err := s.opts.hooks.runAfter(ctx, req.Context, event); err != nil {
		return doc, storeError("create", req.Collection, id, req.Locale, err)
	}
	return doc, nil
}

// Locales lists the locales stored for a document.
func (s *MemoryStore) Locales(collection, id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	probe := newKey(collection, id, "")
	var out []string
	for key := range s.records {
		if key.collection == probe.collection && key.id == probe.id {
			out = append(out, key.locale)
		}
	}
	return out
}

func toDocument(id string, data map[string]any, status string, createdAt, updatedAt time.Time) interfaces.Document {
	doc := interfaces.Document(richtext.CloneMap(data))
	if doc == nil {
		doc = interfaces.Document{}
	}
	doc[domain.FieldID] = id
	doc[domain.FieldStatus] = status
	doc[domain.FieldCreatedAt] = createdAt
	doc[domain.FieldUpdatedAt] = updatedAt
	return doc
}

func notFound(op, collection, id, locale string) error {
	return storeError(op, collection, id, locale, interfaces.ErrDocumentNotFound)
}

func storeError(op, collection, id, locale string, err error) error {
	return &interfaces.StoreError{Op: op, Collection: collection, ID: id, Locale: locale, Err: err}
}
