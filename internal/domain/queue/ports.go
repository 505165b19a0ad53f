package queue

import (
	"context"
)

// Enqueuer is the producer side of the queue.
// Enqueue returns as soon as the job is accepted, never when it is processed.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// Dequeuer is the consumer side of the queue.
// Dequeue blocks until a job is available or ctx is cancelled.
type Dequeuer interface {
	Dequeue(ctx context.Context) (Job, error)
}

// JobQueue is the channel between producers and the worker
type JobQueue interface {
	Enqueuer
	Dequeuer
	Len() int
}

// MetricsService defines the interface for metrics collection
type MetricsService interface {
	RecordJobEnqueued(jobType Type)
	RecordJobCompleted(jobType Type, duration float64)
	RecordJobFailed(jobType Type, reason string)
	RecordJobCancelled(jobType Type)
}
