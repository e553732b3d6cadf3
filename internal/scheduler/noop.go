package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

// Discard accepts translation jobs and drops them. The container installs it
// when Features.AutoTranslate is off so store hooks never queue work.
type Discard struct {
	dropped atomic.Int64
}

var _ interfaces.Scheduler = (*Discard)(nil)

func NewDiscard() *Discard {
	return &Discard{}
}

// Dropped returns how many jobs were accepted and discarded.
func (d *Discard) Dropped() int {
	return int(d.dropped.Load())
}

func (d *Discard) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	d.dropped.Add(1)
	return &interfaces.Job{JobSpec: spec, Status: interfaces.JobStatusCanceled}, nil
}

func (*Discard) Cancel(context.Context, string) error      { return nil }
func (*Discard) CancelByKey(context.Context, string) error { return nil }

func (*Discard) Get(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}

func (*Discard) GetByKey(context.Context, string) (*interfaces.Job, error) {
	return nil, interfaces.ErrJobNotFound
}

func (*Discard) ListDue(context.Context, time.Time, int) ([]*interfaces.Job, error) {
	return nil, nil
}

func (*Discard) MarkDone(context.Context, string) error          { return interfaces.ErrJobNotFound }
func (*Discard) MarkFailed(context.Context, string, error) error { return interfaces.ErrJobNotFound }
