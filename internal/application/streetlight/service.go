package streetlight

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erickfunier/lumenq/internal/domain/queue"
	"github.com/erickfunier/lumenq/internal/domain/streetlight"
)

// Service orchestrates streetlight use cases
type Service struct {
	repo    streetlight.Repository
	jobs    queue.Enqueuer
	metrics queue.MetricsService
}

// NewService creates a new streetlight application service
func NewService(
	repo streetlight.Repository,
	jobs queue.Enqueuer,
	metrics queue.MetricsService,
) *Service {
	return &Service{
		repo:    repo,
		jobs:    jobs,
		metrics: metrics,
	}
}

// AddStreetlightCommand represents the data needed to register a streetlight
type AddStreetlightCommand struct {
	Lat    float64
	Long   float64
	Lumens int64
}

// ListStreetlights returns every known streetlight
func (s *Service) ListStreetlights(ctx context.Context) ([]*streetlight.Streetlight, error) {
	return s.repo.List(ctx)
}

// GetStreetlight retrieves a streetlight by ID
func (s *Service) GetStreetlight(ctx context.Context, id int64) (*streetlight.Streetlight, error) {
	if id <= 0 {
		return nil, streetlight.ErrInvalidID
	}
	return s.repo.GetByID(ctx, id)
}

// AddStreetlight validates and persists a new streetlight
func (s *Service) AddStreetlight(ctx context.Context, cmd AddStreetlightCommand) (*streetlight.Streetlight, error) {
	light, err := streetlight.NewStreetlight(streetlight.Position{Lat: cmd.Lat, Long: cmd.Long}, cmd.Lumens)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, light); err != nil {
		return nil, err
	}
	return light, nil
}

// RequestBrightness enqueues a brightness change for a streetlight.
// It returns as soon as the job is accepted; the change happens later on the
// worker.
func (s *Service) RequestBrightness(ctx context.Context, id, desiredLumens int64) (*streetlight.SetBrightnessJob, error) {
	job, err := streetlight.NewSetBrightnessJob(id, desiredLumens)
	if err != nil {
		return nil, err
	}

	// Reject unknown lights up front rather than failing later on the worker
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue brightness job: %w", err)
	}

	s.metrics.RecordJobEnqueued(job.JobType())
	slog.InfoContext(ctx, "Brightness change requested",
		slog.String("jobId", job.JobID().String()),
		slog.Int64("streetlightId", id),
		slog.Int64("desiredLumens", desiredLumens),
	)

	return job, nil
}
