package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/erickfunier/lumenq/internal/domain/worker"
	"github.com/erickfunier/lumenq/internal/infrastructure/logging"
)

var (
	ErrHandlerPanic = errors.New("handler panicked")
	ErrScopeOpen    = errors.New("failed to open job scope")
	ErrScopeRelease = errors.New("failed to release job scope")
)

// Failure reasons reported to the metrics service
const (
	ReasonHandlerNotFound = "handler_not_found"
	ReasonTypeMismatch    = "type_mismatch"
	ReasonScope           = "scope"
	ReasonPanic           = "panic"
	ReasonHandlerError    = "handler_error"
)

// Host runs one job at a time against its registered handler.
// Every job gets its own scope, its own correlation fields on the logger and
// a guarantee that nothing it does escapes as a panic or an error.
type Host[S any] struct {
	registry *Registry[S]
	scopes   worker.ScopeProvider[S]
	metrics  queue.MetricsService
	logger   *slog.Logger
}

// NewHost creates a dispatch host and seals registry
func NewHost[S any](
	registry *Registry[S],
	scopes worker.ScopeProvider[S],
	metrics queue.MetricsService,
	logger *slog.Logger,
) *Host[S] {
	if logger == nil {
		logger = slog.Default()
	}
	registry.Seal()

	return &Host[S]{
		registry: registry,
		scopes:   scopes,
		metrics:  metrics,
		logger:   logging.WithComponent(logger, "dispatch"),
	}
}

// Process dispatches job and reports the terminal status it reached.
// Failures are logged and recorded, never returned.
func (h *Host[S]) Process(ctx context.Context, job queue.Job) queue.Status {
	if job == nil {
		h.logger.ErrorContext(ctx, "Received nil job")
		return queue.StatusFailed
	}

	logger := logging.WithJob(h.logger, job)
	ctx = logging.IntoContext(queue.ContextWithJob(ctx, job), logger)
	start := time.Now()

	entry, err := h.registry.Resolve(job)
	if err != nil {
		reason := failureReason(err)
		logger.ErrorContext(ctx, resolveMessage(reason),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		h.metrics.RecordJobFailed(job.JobType(), reason)
		return queue.StatusFailed
	}

	logger.DebugContext(ctx, "Processing job")
	err = h.invoke(ctx, logger, entry, job)
	duration := time.Since(start)

	switch {
	case err == nil:
		logger.InfoContext(ctx, "Job completed",
			slog.Duration("duration", duration),
		)
		h.metrics.RecordJobCompleted(job.JobType(), duration.Seconds())
		return queue.StatusCompleted

	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		logger.InfoContext(ctx, "Job cancelled",
			slog.Duration("duration", duration),
		)
		h.metrics.RecordJobCancelled(job.JobType())
		return queue.StatusCancelled

	default:
		logger.ErrorContext(ctx, "Job failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		h.metrics.RecordJobFailed(job.JobType(), failureReason(err))
		return queue.StatusFailed
	}
}

// invoke opens the job scope, runs the handler and releases the scope on
// every exit path. Release sees the handler outcome, panics included.
func (h *Host[S]) invoke(ctx context.Context, logger *slog.Logger, entry *Entry[S], job queue.Job) (err error) {
	scope, release, err := h.scopes.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScopeOpen, err)
	}

	defer func() {
		// the job may have been cancelled; cleanup must still run to completion
		if rerr := release(context.WithoutCancel(ctx), err); rerr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %w", ErrScopeRelease, rerr))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Recovered from handler panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()

	return entry.Invoke(ctx, scope, job)
}

func resolveMessage(reason string) string {
	switch reason {
	case ReasonHandlerNotFound:
		return "No handler registered for job"
	case ReasonTypeMismatch:
		return "Job does not match its registered handler type"
	default:
		return "Failed to resolve job handler"
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, queue.ErrHandlerNotFound):
		return ReasonHandlerNotFound
	case errors.Is(err, queue.ErrJobTypeMismatch):
		return ReasonTypeMismatch
	case errors.Is(err, ErrHandlerPanic):
		return ReasonPanic
	case errors.Is(err, ErrScopeOpen), errors.Is(err, ErrScopeRelease):
		return ReasonScope
	default:
		return ReasonHandlerError
	}
}
