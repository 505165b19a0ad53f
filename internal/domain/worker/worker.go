package worker

import (
	"errors"
	"time"
)

// State represents the lifecycle state of the background worker
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Config contains worker configuration
type Config struct {
	Name              string
	DequeueErrorDelay time.Duration
}

var (
	ErrNameRequired        = errors.New("worker name is required")
	ErrInvalidErrorDelay   = errors.New("dequeue error delay must not be negative")
	ErrAlreadyStarted      = errors.New("worker already started")
	ErrWorkerNotConfigured = errors.New("worker is missing a queue or processor")
)

// NewConfig creates and validates worker configuration
func NewConfig(name string, dequeueErrorDelay time.Duration) (*Config, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if dequeueErrorDelay < 0 {
		return nil, ErrInvalidErrorDelay
	}
	if dequeueErrorDelay == 0 {
		dequeueErrorDelay = 500 * time.Millisecond // Default pause after an unexpected dequeue error
	}

	return &Config{
		Name:              name,
		DequeueErrorDelay: dequeueErrorDelay,
	}, nil
}
