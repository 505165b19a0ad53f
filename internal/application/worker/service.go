package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/erickfunier/lumenq/internal/domain/worker"
	"github.com/erickfunier/lumenq/internal/infrastructure/logging"
)

// Processor runs a single job to a terminal status
type Processor interface {
	Process(ctx context.Context, job queue.Job) queue.Status
}

// Service owns the background dequeue-and-dispatch loop.
// Jobs are processed strictly one at a time, in dequeue order.
type Service struct {
	queue     queue.Dequeuer
	processor Processor
	config    *worker.Config
	logger    *slog.Logger

	mu     sync.Mutex
	state  worker.State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new worker application service
func NewService(
	q queue.Dequeuer,
	processor Processor,
	config *worker.Config,
	logger *slog.Logger,
) (*Service, error) {
	if q == nil || processor == nil || config == nil {
		return nil, worker.ErrWorkerNotConfigured
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		queue:     q,
		processor: processor,
		config:    config,
		logger:    logging.WithComponent(logger, "worker").With(slog.String("worker", config.Name)),
		state:     worker.StateStopped,
	}, nil
}

// State returns the current lifecycle state
func (s *Service) State() worker.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start launches the processing loop and returns immediately.
// The loop keeps ctx's values but not its cancellation; use Stop to end it.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != worker.StateStopped {
		s.mu.Unlock()
		return worker.ErrAlreadyStarted
	}
	s.state = worker.StateStarting

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.state = worker.StateRunning
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Worker started",
		slog.Duration("dequeueErrorDelay", s.config.DequeueErrorDelay),
	)

	go s.run(loopCtx, done)
	return nil
}

// Stop cancels the loop and blocks until it has exited, including any job
// in flight. If ctx expires first Stop returns ctx.Err() and the worker
// finishes stopping in the background.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == worker.StateStopped {
		s.mu.Unlock()
		return nil
	}
	if s.state == worker.StateRunning {
		s.state = worker.StateStopping
		s.logger.InfoContext(ctx, "Worker stopping")
		s.cancel()
	}
	done := s.done
	s.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.logger.InfoContext(ctx, "Worker stopped")
		s.mu.Lock()
		s.state = worker.StateStopped
		s.cancel()
		s.mu.Unlock()
		close(done)
	}()

	for {
		job, err := s.queue.Dequeue(ctx)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return
			case errors.Is(err, queue.ErrQueueClosed):
				s.logger.InfoContext(ctx, "Queue closed, worker exiting")
				return
			}

			s.logger.ErrorContext(ctx, "Failed to dequeue job",
				slog.String("error", err.Error()),
			)
			if !s.pause(ctx, s.config.DequeueErrorDelay) {
				return
			}
			continue
		}

		s.process(ctx, job)
	}
}

// process shields the loop from anything the processor lets escape
func (s *Service) process(ctx context.Context, job queue.Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Recovered from panic while processing job",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	s.processor.Process(ctx, job)
}

// pause waits for d, returning false if ctx ends first
func (s *Service) pause(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
