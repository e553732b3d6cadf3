package scheduler

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-autotranslate/pkg/interfaces"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 30 * time.Second
)

// ErrRunAtRequired is returned when a job spec has no execution time.
var ErrRunAtRequired = errors.New("scheduler: run_at is required")

// Option customises the in-memory scheduler.
type Option func(*inMemoryScheduler)

// WithClock overrides the clock, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *inMemoryScheduler) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides job identifier generation.
func WithIDGenerator(generator func() string) Option {
	return func(s *inMemoryScheduler) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithDefaultMaxAttempts applies limit to specs that leave MaxAttempts unset.
func WithDefaultMaxAttempts(limit int) Option {
	return func(s *inMemoryScheduler) {
		if limit > 0 {
			s.maxAttempts = limit
		}
	}
}

// WithRetryDelay sets the base delay before a failed job becomes due again.
// The delay grows linearly with the attempt count.
func WithRetryDelay(delay time.Duration) Option {
	return func(s *inMemoryScheduler) {
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

// NewInMemory creates a process-local scheduler.
func NewInMemory(opts ...Option) interfaces.Scheduler {
	s := &inMemoryScheduler{
		now:         time.Now,
		id:          uuid.NewString,
		jobs:        map[string]*interfaces.Job{},
		keys:        map[string]string{},
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type inMemoryScheduler struct {
	mu          sync.Mutex
	now         func() time.Time
	id          func() string
	maxAttempts int
	retryDelay  time.Duration
	jobs        map[string]*interfaces.Job
	keys        map[string]string
}

func (s *inMemoryScheduler) Enqueue(_ context.Context, spec interfaces.JobSpec) (*interfaces.Job, error) {
	if spec.RunAt.IsZero() {
		return nil, ErrRunAtRequired
	}
	spec.Payload = maps.Clone(spec.Payload)
	if spec.MaxAttempts == 0 {
		spec.MaxAttempts = s.maxAttempts
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.Key != "" {
		if previous, ok := s.keys[spec.Key]; ok {
			delete(s.jobs, previous)
		}
	}

	now := s.now()
	job := &interfaces.Job{
		JobSpec:   spec,
		ID:        s.id(),
		Status:    interfaces.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job
	if job.Key != "" {
		s.keys[job.Key] = job.ID
	}
	return cloneJob(job), nil
}

func (s *inMemoryScheduler) Cancel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	s.finish(job, interfaces.JobStatusCanceled)
	return nil
}

func (s *inMemoryScheduler) CancelByKey(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.byKey(key)
	if job == nil {
		return interfaces.ErrJobNotFound
	}
	s.finish(job, interfaces.JobStatusCanceled)
	return nil
}

func (s *inMemoryScheduler) Get(_ context.Context, id string) (*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (s *inMemoryScheduler) GetByKey(_ context.Context, key string) (*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.byKey(key)
	if job == nil {
		return nil, interfaces.ErrJobNotFound
	}
	return cloneJob(job), nil
}

func (s *inMemoryScheduler) ListDue(_ context.Context, until time.Time, limit int) ([]*interfaces.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]*interfaces.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Status == interfaces.JobStatusPending && !job.RunAt.After(until) {
			due = append(due, cloneJob(job))
		}
	}
	slices.SortStableFunc(due, func(a, b *interfaces.Job) int {
		if c := a.RunAt.Compare(b.RunAt); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *inMemoryScheduler) MarkDone(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}
	s.finish(job, interfaces.JobStatusCompleted)
	return nil
}

// MarkFailed records a failed attempt. The job is rescheduled after the retry
// delay until MaxAttempts is reached, then it is marked failed.
func (s *inMemoryScheduler) MarkFailed(_ context.Context, id string, failure error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return interfaces.ErrJobNotFound
	}

	now := s.now()
	job.Attempt++
	job.UpdatedAt = now
	job.LastError = ""
	if failure != nil {
		job.LastError = failure.Error()
	}
	if job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts {
		s.finish(job, interfaces.JobStatusFailed)
		return nil
	}
	job.Status = interfaces.JobStatusPending
	job.RunAt = now.Add(s.retryDelay * time.Duration(job.Attempt))
	return nil
}

func (s *inMemoryScheduler) byKey(key string) *interfaces.Job {
	if id, ok := s.keys[key]; ok {
		return s.jobs[id]
	}
	return nil
}

func (s *inMemoryScheduler) finish(job *interfaces.Job, status interfaces.JobStatus) {
	job.Status = status
	job.UpdatedAt = s.now()
	if job.Key != "" && s.keys[job.Key] == job.ID {
		delete(s.keys, job.Key)
	}
}

func cloneJob(job *interfaces.Job) *interfaces.Job {
	if job == nil {
		return nil
	}
	clone := *job
	clone.Payload = maps.Clone(job.Payload)
	return &clone
}
