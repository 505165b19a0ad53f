package worker

import (
	"context"

	"github.com/erickfunier/lumenq/internal/domain/queue"
)

// Handler processes jobs of one concrete type T.
// Cancellation is cooperative: implementations must watch ctx at their own
// suspension points.
type Handler[T queue.Job] interface {
	Process(ctx context.Context, job T) error
}

// HandlerFunc adapts a plain function to Handler
type HandlerFunc[T queue.Job] func(ctx context.Context, job T) error

// Process calls f(ctx, job)
func (f HandlerFunc[T]) Process(ctx context.Context, job T) error {
	return f(ctx, job)
}

// Release frees the resources of a per-job scope. jobErr is the outcome of
// the handler so transactional scopes can commit or roll back.
type Release func(ctx context.Context, jobErr error) error

// ScopeProvider creates a fresh, isolated scope of type S for each job.
// Release must be called exactly once per successful Open.
type ScopeProvider[S any] interface {
	Open(ctx context.Context) (S, Release, error)
}

// ScopeProviderFunc adapts a plain function to ScopeProvider
type ScopeProviderFunc[S any] func(ctx context.Context) (S, Release, error)

// Open calls f(ctx)
func (f ScopeProviderFunc[S]) Open(ctx context.Context) (S, Release, error) {
	return f(ctx)
}
