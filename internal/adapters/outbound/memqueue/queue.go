package memqueue

import (
	"context"
	"sync"

	"github.com/erickfunier/lumenq/internal/domain/queue"
)

// Queue implements queue.JobQueue as an unbounded, in-process FIFO.
// Any number of goroutines may Enqueue; exactly one goroutine should Dequeue.
type Queue struct {
	mu     sync.Mutex
	jobs   []queue.Job
	closed bool

	// wake holds at most one pending notification for the consumer
	wake chan struct{}
}

// New creates an empty queue
func New() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Enqueue appends job to the tail. It never blocks.
func (q *Queue) Enqueue(_ context.Context, job queue.Job) error {
	if job == nil {
		return queue.ErrNilJob
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return queue.ErrQueueClosed
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	q.notify()
	return nil
}

// Dequeue removes and returns the head of the queue, waiting while it is
// empty. It returns ctx.Err() once ctx is cancelled, even if jobs remain.
func (q *Queue) Dequeue(ctx context.Context) (queue.Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q.mu.Lock()
		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs[0] = nil
			q.jobs = q.jobs[1:]
			q.mu.Unlock()
			return job, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, queue.ErrQueueClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		}
	}
}

// Len reports how many jobs are waiting
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close tears the queue down. Jobs still waiting are discarded and their
// count is returned. Further Enqueue calls fail with queue.ErrQueueClosed.
func (q *Queue) Close() int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	q.closed = true
	dropped := len(q.jobs)
	q.jobs = nil
	q.mu.Unlock()

	q.notify()
	return dropped
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
