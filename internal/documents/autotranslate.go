package documents

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-autotranslate/internal/scheduler"
	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// AutoTranslateOptions configures AutoTranslateHook.
type AutoTranslateOptions struct {
	// SourceLocale limits enqueueing to writes on this locale.
	SourceLocale string
	Fields       []string
	MaxAttempts  int
	Clock        func() time.Time
}

// AutoTranslateHook enqueues a translation job whenever a source-locale
// instance is written. Writes issued by the pipeline itself never reach the
// hook because they set SkipAutoProcessing.
func AutoTranslateHook(jobs interfaces.Scheduler, opts AutoTranslateOptions) AfterChangeHook {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	source := strings.TrimSpace(opts.SourceLocale)

	return func(ctx context.Context, event ChangeEvent) error {
		if jobs == nil {
			return nil
		}
		if source != "" && !strings.EqualFold(event.Locale, source) {
			return nil
		}
		spec := scheduler.NewTranslateDocumentSpec(scheduler.TranslateDocumentPayload{
			Collection:   event.Collection,
			DocumentID:   event.ID,
			SourceLocale: event.Locale,
			Fields:       opts.Fields,
		}, clock(), opts.MaxAttempts)
		_, err := jobs.Enqueue(ctx, spec)
		return err
	}
}
