package richtext

import (
	"context"
	"errors"
	"strconv"

	"github.com/goliatone/go-autotranslate/internal/gateway"
	"github.com/goliatone/go-autotranslate/internal/logging"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// Target describes a single translation direction for one field.
type Target struct {
	FieldPath    string
	SourceLocale string
	TargetLocale string
	Settings     interfaces.TranslationSettings
}

// Stats counts leaf outcomes of a walk. Transient counts the subset of Failed
// that a later attempt may recover.
type Stats struct {
	Translated int
	Failed     int
	Transient  int
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Translated += other.Translated
	s.Failed += other.Failed
	s.Transient += other.Transient
}

// Fail records one failed gateway call.
func (s *Stats) Fail(err error) {
	s.Failed++
	if gateway.IsTransient(err) {
		s.Transient++
	}
}

// Walker replaces text leaf payloads with their translations.
type Walker struct {
	gateway interfaces.TranslationGateway
	logger  interfaces.Logger
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithLogger sets the logger used to report leaf failures.
func WithLogger(logger interfaces.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWalker builds a Walker around gateway.
func NewWalker(gateway interfaces.TranslationGateway, opts ...WalkerOption) *Walker {
	w := &Walker{gateway: gateway, logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Walk translates every text leaf under node in place, depth-first and
// sequentially. A failed leaf is logged and keeps its original payload.
// Nodes that are neither text leaves nor readable containers are left
// untouched and do not stop the walk.
func (w *Walker) Walk(ctx context.Context, node map[string]any, target Target) Stats {
	var stats Stats
	w.walk(ctx, node, target, "root", &stats)
	return stats
}

func (w *Walker) walk(ctx context.Context, node map[string]any, target Target, location string, stats *Stats) {
	if node == nil {
		return
	}

	if text, ok := IsTextLeaf(node); ok {
		translated, err := w.gateway.TranslateText(ctx, text, target.TargetLocale, target.SourceLocale, target.Settings)
		if err != nil {
			stats.Fail(err)
			w.logger.Warn("richtext.leaf_translate_failed",
				logging.FieldFieldPath, target.FieldPath,
				"node", location,
				logging.FieldLocale, target.TargetLocale,
				"error", err,
			)
			return
		}
		node[KeyText] = translated
		stats.Translated++
		return
	}

	for i, child := range Children(node) {
		w.walk(ctx, child, target, location+"."+strconv.Itoa(i), stats)
	}
}

// Translate validates the envelope of value, clones it and walks the clone's
// root. The original is never mutated. When the root is missing or not a
// mapping an unmodified clone is returned together with a *StructuralError.
func (w *Walker) Translate(ctx context.Context, value map[string]any, target Target) (map[string]any, Stats, error) {
	if err := Validate(value); err != nil {
		var structural *StructuralError
		if errors.As(err, &structural) {
			structural.FieldPath = target.FieldPath
		}
		return CloneMap(value), Stats{}, err
	}

	clone := CloneMap(value)
	root, ok := Root(clone)
	if !ok {
		return clone, Stats{}, &StructuralError{FieldPath: target.FieldPath}
	}
	stats := w.Walk(ctx, root, target)
	w.logger.Debug("richtext.walked",
		logging.FieldFieldPath, target.FieldPath,
		logging.FieldLocale, target.TargetLocale,
		"nodes", CountNodes(root),
		"translated", stats.Translated,
		"failed", stats.Failed,
	)
	return clone, stats, nil
}
