package jobs

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/goliatone/go-autotranslate/internal/reconcile"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// AuditEvent captures one locale outcome produced by the worker.
type AuditEvent struct {
	EntityType string
	EntityID   string
	Action     string
	OccurredAt time.Time
	Metadata   map[string]any
}

// AuditRecorder persists audit events.
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent) error
	List(ctx context.Context) ([]AuditEvent, error)
	Clear(ctx context.Context) error
}

// OutcomeEvents converts a reconciliation result into one event per target
// locale. A nil result yields no events.
func OutcomeEvents(result *reconcile.Result, job *interfaces.Job, now time.Time) []AuditEvent {
	if result == nil {
		return nil
	}
	events := make([]AuditEvent, 0, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		metadata := map[string]any{
			"collection":    result.Collection,
			"source_locale": result.SourceLocale,
			"locale":        outcome.Locale,
			"state":         outcome.State.String(),
			"branch":        outcome.Branch.String(),
			"written":       outcome.Written,
			"translated":    outcome.Report.Translated(),
			"failed_leaves": outcome.Report.Failed(),
		}
		if outcome.Err != nil {
			metadata["error"] = outcome.Err.Error()
		}
		if job != nil {
			metadata["job_id"] = job.ID
			metadata["attempt"] = job.Attempt + 1
		}
		events = append(events, AuditEvent{
			EntityType: "document",
			EntityID:   result.DocumentID,
			Action:     "translate",
			OccurredAt: now,
			Metadata:   metadata,
		})
	}
	return events
}

// InMemoryAuditRecorder accumulates audit events in-memory.
type InMemoryAuditRecorder struct {
	mu     sync.Mutex
	events []AuditEvent
	err    error
}

// NewInMemoryAuditRecorder constructs an empty recorder.
func NewInMemoryAuditRecorder() *InMemoryAuditRecorder {
	return &InMemoryAuditRecorder{}
}

// Record stores the supplied event.
func (r *InMemoryAuditRecorder) Record(_ context.Context, event AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	copied := event
	copied.Metadata = maps.Clone(event.Metadata)
	r.events = append(r.events, copied)
	return nil
}

// Events returns a snapshot of recorded audit entries.
func (r *InMemoryAuditRecorder) Events() []AuditEvent {
	events, _ := r.List(context.Background())
	return events
}

// Fail configures the recorder to return the supplied error on subsequent Record calls.
func (r *InMemoryAuditRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// List returns the audit events recorded so far.
func (r *InMemoryAuditRecorder) List(context.Context) ([]AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEvent, len(r.events))
	copy(out, r.events)
	return out, nil
}

// Clear removes all recorded events.
func (r *InMemoryAuditRecorder) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return nil
}

// LogAuditRecorder writes audit events to a logger and keeps nothing.
type LogAuditRecorder struct {
	logger interfaces.Logger
}

// NewLogAuditRecorder returns a recorder backed by logger.
func NewLogAuditRecorder(logger interfaces.Logger) *LogAuditRecorder {
	return &LogAuditRecorder{logger: logger}
}

func (r *LogAuditRecorder) Record(_ context.Context, event AuditEvent) error {
	if r == nil || r.logger == nil {
		return nil
	}
	r.logger.WithFields(event.Metadata).Info("jobs.audit",
		"entity_type", event.EntityType,
		"entity_id", event.EntityID,
		"action", event.Action,
	)
	return nil
}

func (r *LogAuditRecorder) List(context.Context) ([]AuditEvent, error) { return nil, nil }

func (r *LogAuditRecorder) Clear(context.Context) error { return nil }
