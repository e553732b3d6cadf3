package interfaces

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDocumentNotFound is returned (wrapped) by DocumentStore implementations
// when no instance exists for the requested collection, id and locale.
var ErrDocumentNotFound = errors.New("store: document not found")

// Document is a locale-scoped content record. Keys are field names; values are
// strings, numbers, booleans, nested mappings or sequences.
type Document map[string]any

// ID returns the shared identifier of the document, if present.
func (d Document) ID() string {
	if d == nil {
		return ""
	}
	switch v := d["id"].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// WriteContext carries flags that write hooks must honour.
type WriteContext struct {
	// SkipAutoProcessing suppresses every automatic write hook (slug
	// regeneration, auto-translation enqueue). Writes issued by the
	// translation pipeline always set it.
	SkipAutoProcessing bool
}

// FindRequest addresses one locale instance of a document.
type FindRequest struct {
	Collection     string
	ID             string
	Locale         string
	FallbackLocale bool
	Depth          int
}

// UpdateRequest merges Data into an existing locale instance.
type UpdateRequest struct {
	Collection string
	ID         string
	Locale     string
	Data       map[string]any
	Context    WriteContext
}

// CreateRequest materialises a new locale instance bound to ID.
type CreateRequest struct {
	Collection string
	ID         string
	Locale     string
	Data       map[string]any
	Status     string
	Context    WriteContext
}

// DocumentStore is the persistence collaborator used by the reconciler.
type DocumentStore interface {
	FindByID(ctx context.Context, req FindRequest) (Document, error)
	Update(ctx context.Context, req UpdateRequest) error
	Create(ctx context.Context, req CreateRequest) (Document, error)
}

// StoreError describes a failed store operation.
type StoreError struct {
	Op         string
	Collection string
	ID         string
	Locale     string
	Err        error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := []string{"store", e.Op}
	target := strings.Trim(strings.Join([]string{e.Collection, e.ID, e.Locale}, "/"), "/")
	if target != "" {
		parts = append(parts, target)
	}
	msg := strings.Join(parts, ": ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsDocumentNotFound reports whether err signals a missing locale instance.
func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}
