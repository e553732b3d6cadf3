package documents

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// Operation names the write that triggered a hook.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
)

// AnyCollection registers a hook for every collection.
const AnyCollection = "*"

// ChangeEvent describes a document write. BeforeChange hooks may mutate Data.
type ChangeEvent struct {
	Operation  Operation
	Collection string
	ID         string
	Locale     string
	Data       map[string]any
}

// BeforeChangeHook runs before a write is applied and may rewrite the data.
type BeforeChangeHook func(ctx context.Context, event *ChangeEvent) error

// AfterChangeHook runs once a write is persisted.
type AfterChangeHook func(ctx context.Context, event ChangeEvent) error

// Hooks holds per-collection write hooks. None of them run for writes whose
// WriteContext sets SkipAutoProcessing.
type Hooks struct {
	before map[string][]BeforeChangeHook
	after  map[string][]AfterChangeHook
}

// NewHooks returns an empty hook registry.
func NewHooks() *Hooks {
	return &Hooks{
		before: map[string][]BeforeChangeHook{},
		after:  map[string][]AfterChangeHook{},
	}
}

// OnBeforeChange registers hook for collection.
func (h *Hooks) OnBeforeChange(collection string, hook BeforeChangeHook) {
	if h == nil || hook == nil {
		return
	}
	key := hookKey(collection)
	h.before[key] = append(h.before[key], hook)
}

// OnAfterChange registers hook for collection.
func (h *Hooks) OnAfterChange(collection string, hook AfterChangeHook) {
	if h == nil || hook == nil {
		return
	}
	key := hookKey(collection)
	h.after[key] = append(h.after[key], hook)
}

func (h *Hooks) runBefore(ctx context.Context, wc interfaces.WriteContext, event *ChangeEvent) error {
	if h == nil || wc.SkipAutoProcessing {
		return nil
	}
	for _, hook := range h.beforeFor(event.Collection) {
		if err := hook(ctx, event); err != nil {
			return fmt.Errorf("documents: before change hook: %w", err)
		}
	}
	return nil
}

func (h *Hooks) runAfter(ctx context.Context, wc interfaces.WriteContext, event ChangeEvent) error {
	if h == nil || wc.SkipAutoProcessing {
		return nil
	}
	for _, hook := range h.afterFor(event.Collection) {
		if err := hook(ctx, event); err != nil {
			return fmt.Errorf("documents: after change hook: %w", err)
		}
	}
	return nil
}

func (h *Hooks) beforeFor(collection string) []BeforeChangeHook {
	return append(append([]BeforeChangeHook(nil), h.before[AnyCollection]...), h.before[hookKey(collection)]...)
}

func (h *Hooks) afterFor(collection string) []AfterChangeHook {
	return append(append([]AfterChangeHook(nil), h.after[AnyCollection]...), h.after[hookKey(collection)]...)
}

func hookKey(collection string) string {
	collection = strings.ToLower(strings.TrimSpace(collection))
	if collection == "" {
		return AnyCollection
	}
	return collection
}
