package queue

import (
	"errors"

	"github.com/google/uuid"
)

// Type is the explicit type key a job carries so the dispatcher can route it
// to the handler registered for it
type Type string

// Job represents a unit of work flowing through the engine
type Job interface {
	JobID() uuid.UUID
	JobType() Type
}

// Base carries the identity every job shares. Embed it in concrete jobs.
type Base struct {
	id uuid.UUID
}

// NewBase assigns a fresh, globally unique identifier
func NewBase() Base {
	return Base{id: uuid.New()}
}

// JobID returns the identifier assigned at construction
func (b Base) JobID() uuid.UUID {
	return b.id
}

// Status represents the logical processing state of a job
type Status string

const (
	StatusEnqueued   Status = "enqueued"
	StatusDequeued   Status = "dequeued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions can follow this status
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

var (
	ErrNilJob          = errors.New("job is nil")
	ErrHandlerNotFound = errors.New("no handler registered for job type")
	ErrJobTypeMismatch = errors.New("job type does not match registered handler")
	ErrQueueClosed     = errors.New("queue is closed")
)
