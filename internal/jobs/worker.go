package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	translatecmd "github.com/goliatone/go-autotranslate/internal/commands/translate"
	"github.com/goliatone/go-autotranslate/internal/logging"
	"github.com/goliatone/go-autotranslate/internal/reconcile"
	"github.com/goliatone/go-autotranslate/internal/scheduler"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// ErrTransientFailures marks a job whose locales committed while some gateway
// calls failed in a way a later attempt may recover.
var ErrTransientFailures = errors.New("jobs: transient translation failures")

// Translator runs one translate command and reports per-locale outcomes.
type Translator interface {
	Run(ctx context.Context, msg translatecmd.TranslateDocumentCommand) (*reconcile.Result, error)
}

type Worker struct {
	scheduler  interfaces.Scheduler
	translator Translator
	settings   interfaces.TranslationSettings
	audit      AuditRecorder
	logger     interfaces.Logger
	now        func() time.Time
	batchSize  int
}

type Option func(*Worker)

func WithAuditRecorder(recorder AuditRecorder) Option {
	return func(w *Worker) {
		w.audit = recorder
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithSettings sets the provider options applied to every queued translation.
func WithSettings(settings interfaces.TranslationSettings) Option {
	return func(w *Worker) {
		w.settings = settings
	}
}

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func NewWorker(jobs interfaces.Scheduler, translator Translator, opts ...Option) *Worker {
	w := &Worker{
		scheduler:  jobs,
		translator: translator,
		logger:     logging.NoOp(),
		now:        time.Now,
		batchSize:  50,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Process runs every job due at the current instant. Job failures are
// recorded on the scheduler and do not abort the batch.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	due, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		logger := logging.WithFields(w.logger, map[string]any{
			"job_id":   job.ID,
			"job_type": job.Type,
			"attempt":  job.Attempt + 1,
		})
		if err := w.handleJob(ctx, job, deadline); err != nil {
			logger.Warn("jobs.job_failed", "error", err)
			if markErr := w.scheduler.MarkFailed(ctx, job.ID, err); markErr != nil {
				logger.Error("jobs.mark_failed_failed", "error", markErr)
			}
			continue
		}
		if err := w.scheduler.MarkDone(ctx, job.ID); err != nil {
			logger.Error("jobs.mark_done_failed", "error", err)
		}
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case scheduler.JobTypeTranslateDocument:
		return w.processTranslateDocument(ctx, job, now)
	default:
		w.logger.Debug("jobs.unknown_type", "job_type", job.Type)
		return nil
	}
}

func (w *Worker) processTranslateDocument(ctx context.Context, job *interfaces.Job, now time.Time) error {
	if w.translator == nil {
		return errors.New("jobs: translator is nil")
	}
	payload, err := scheduler.ParseTranslateDocumentPayload(job.Payload)
	if err != nil {
		return err
	}
	result, err := w.translator.Run(ctx, translatecmd.TranslateDocumentCommand{
		Collection:    payload.Collection,
		DocumentID:    payload.DocumentID,
		SourceLocale:  payload.SourceLocale,
		Fields:        payload.Fields,
		TargetLocales: payload.TargetLocales,
		Settings:      w.settings,
		RequireAll:    true,
	})
	for _, event := range OutcomeEvents(result, job, now) {
		w.recordAudit(ctx, event)
	}
	if err != nil {
		return err
	}
	if locales := transientLocales(result); len(locales) > 0 {
		return fmt.Errorf("%w: %s", ErrTransientFailures, strings.Join(locales, ","))
	}
	return nil
}

func transientLocales(result *reconcile.Result) []string {
	if result == nil {
		return nil
	}
	var locales []string
	for _, outcome := range result.Outcomes {
		if outcome.Report.Transient() > 0 {
			locales = append(locales, outcome.Locale)
		}
	}
	return locales
}

func (w *Worker) recordAudit(ctx context.Context, event AuditEvent) {
	if w.audit == nil {
		return
	}
	if err := w.audit.Record(ctx, event); err != nil {
		w.logger.Warn("jobs.audit_failed", "error", err)
	}
}

// Run processes due jobs every interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := w.Process(ctx); err != nil {
			w.logger.Error("jobs.process_failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
