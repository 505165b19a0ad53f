package dispatch

import (
	"context"
	"fmt"
	"sort"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/erickfunier/lumenq/internal/domain/worker"
)

// HandlerFactory builds the handler for one job from that job's scope
type HandlerFactory[T queue.Job, S any] func(scope S) (worker.Handler[T], error)

// Instance returns a factory that hands out the same handler for every job.
// Use it for handlers that hold no per-job resources.
func Instance[T queue.Job, S any](handler worker.Handler[T]) HandlerFactory[T, S] {
	return func(S) (worker.Handler[T], error) {
		return handler, nil
	}
}

// Entry is a resolved registration, erased to work on any queue.Job
type Entry[S any] struct {
	jobType queue.Type
	accepts func(job queue.Job) bool
	invoke  func(ctx context.Context, scope S, job queue.Job) error
}

// Type returns the job type the entry was registered for
func (e *Entry[S]) Type() queue.Type {
	return e.jobType
}

// Invoke builds the handler from scope and runs it against job
func (e *Entry[S]) Invoke(ctx context.Context, scope S, job queue.Job) error {
	return e.invoke(ctx, scope, job)
}

// Registry maps job type keys to handler factories.
// It is filled during configuration, then sealed and only read afterwards,
// so lookups take no lock.
type Registry[S any] struct {
	entries map[queue.Type]*Entry[S]
	sealed  bool
}

// NewRegistry creates an empty registry
func NewRegistry[S any]() *Registry[S] {
	return &Registry[S]{
		entries: make(map[queue.Type]*Entry[S]),
	}
}

// Register associates jobType with a factory producing handlers for T.
// A later registration for the same jobType replaces the earlier one.
// Register panics on a sealed registry: registration belongs to
// configuration time, before the worker starts.
//
// This is a package-level generic function because Go does not allow
// generic methods with their own type parameters.
func Register[T queue.Job, S any](r *Registry[S], jobType queue.Type, factory HandlerFactory[T, S]) {
	if r.sealed {
		panic(fmt.Sprintf("dispatch: Register(%q) called on a sealed registry", jobType))
	}
	if jobType == "" {
		panic("dispatch: Register called with an empty job type")
	}
	if factory == nil {
		panic(fmt.Sprintf("dispatch: Register(%q) called with a nil factory", jobType))
	}

	r.entries[jobType] = &Entry[S]{
		jobType: jobType,
		accepts: func(job queue.Job) bool {
			_, ok := job.(T)
			return ok
		},
		invoke: func(ctx context.Context, scope S, job queue.Job) error {
			typed, ok := job.(T)
			if !ok {
				return fmt.Errorf("%w: %q expects %T, got %T", queue.ErrJobTypeMismatch, jobType, *new(T), job)
			}
			handler, err := factory(scope)
			if err != nil {
				return fmt.Errorf("build handler for %q: %w", jobType, err)
			}
			return handler.Process(ctx, typed)
		},
	}
}

// Resolve returns the entry able to process job's concrete type
func (r *Registry[S]) Resolve(job queue.Job) (*Entry[S], error) {
	if job == nil {
		return nil, queue.ErrNilJob
	}

	entry, ok := r.entries[job.JobType()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", queue.ErrHandlerNotFound, job.JobType())
	}
	if !entry.accepts(job) {
		return nil, fmt.Errorf("%w: %q cannot handle %T", queue.ErrJobTypeMismatch, job.JobType(), job)
	}
	return entry, nil
}

// Seal freezes the registry. It is called when the dispatch host is built.
func (r *Registry[S]) Seal() {
	r.sealed = true
}

// Sealed reports whether the registry still accepts registrations
func (r *Registry[S]) Sealed() bool {
	return r.sealed
}

// Types returns the registered job types in sorted order
func (r *Registry[S]) Types() []queue.Type {
	types := make([]queue.Type, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
