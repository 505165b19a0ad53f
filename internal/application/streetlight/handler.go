package streetlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erickfunier/lumenq/internal/application/dispatch"
	"github.com/erickfunier/lumenq/internal/domain/streetlight"
	"github.com/erickfunier/lumenq/internal/domain/worker"
	"github.com/erickfunier/lumenq/internal/infrastructure/logging"
)

var ErrNoRepository = errors.New("unit of work has no streetlight repository")

// SetBrightnessHandler drives one light to the requested output and records
// the new value
type SetBrightnessHandler struct {
	lights      streetlight.Repository
	control     streetlight.ControlUnit
	settleDelay time.Duration
}

// NewSetBrightnessHandler creates a handler bound to one job's repository
func NewSetBrightnessHandler(lights streetlight.Repository, control streetlight.ControlUnit, settleDelay time.Duration) *SetBrightnessHandler {
	return &SetBrightnessHandler{
		lights:      lights,
		control:     control,
		settleDelay: settleDelay,
	}
}

// SetBrightnessFactory builds a fresh handler from each job's unit of work
func SetBrightnessFactory(control streetlight.ControlUnit, settleDelay time.Duration) dispatch.HandlerFactory[*streetlight.SetBrightnessJob, streetlight.UnitOfWork] {
	return func(uow streetlight.UnitOfWork) (worker.Handler[*streetlight.SetBrightnessJob], error) {
		if uow.Streetlights == nil {
			return nil, ErrNoRepository
		}
		return NewSetBrightnessHandler(uow.Streetlights, control, settleDelay), nil
	}
}

// Register adds every streetlight job handler to registry
func Register(registry *dispatch.Registry[streetlight.UnitOfWork], control streetlight.ControlUnit, settleDelay time.Duration) {
	dispatch.Register(registry, streetlight.SetBrightnessJobType, SetBrightnessFactory(control, settleDelay))
}

// Process implements worker.Handler.
// The row is updated before the control unit is commanded. The command itself
// is not transactional: if the scope fails to commit after it was sent, the
// light and the store disagree until the next brightness job.
func (h *SetBrightnessHandler) Process(ctx context.Context, job *streetlight.SetBrightnessJob) error {
	logger := logging.FromContext(ctx).With(
		slog.Int64("streetlightId", job.StreetlightID),
		slog.Int64("desiredLumens", job.DesiredLumens),
	)

	// The control unit needs time before it accepts a new level
	if h.settleDelay > 0 {
		logger.DebugContext(ctx, "Waiting for control unit", slog.Duration("delay", h.settleDelay))
		timer := time.NewTimer(h.settleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	light, err := h.lights.GetByID(ctx, job.StreetlightID)
	if err != nil {
		return fmt.Errorf("failed to load streetlight %d: %w", job.StreetlightID, err)
	}

	previous := light.Lumens
	if err := light.SetLumens(job.DesiredLumens); err != nil {
		return err
	}
	if err := h.lights.Update(ctx, light); err != nil {
		return fmt.Errorf("failed to update streetlight %d: %w", job.StreetlightID, err)
	}

	// Last, so a rejected command rolls the update back with the scope
	if err := h.control.SetBrightness(ctx, job.StreetlightID, job.DesiredLumens); err != nil {
		return fmt.Errorf("control unit rejected brightness for streetlight %d: %w", job.StreetlightID, err)
	}

	logger.InfoContext(ctx, "Light intensity set",
		slog.Int64("previousLumens", previous),
	)
	return nil
}
