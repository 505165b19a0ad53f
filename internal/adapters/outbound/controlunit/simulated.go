package controlunit

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/erickfunier/lumenq/internal/infrastructure/config"
	"github.com/erickfunier/lumenq/internal/infrastructure/logging"
)

var simulatedErrors = []string{
	"control unit did not acknowledge command: timeout",
	"lamp driver reported overcurrent",
	"mesh radio link lost during transmission",
	"control unit firmware rejected dimming level",
	"photocell override active",
}

// SimulatedControlUnit implements streetlight.ControlUnit without hardware.
// When simulation is enabled it fails a configured share of commands.
type SimulatedControlUnit struct {
	config config.SimulationConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedControlUnit creates a new simulated control unit
func NewSimulatedControlUnit(cfg config.SimulationConfig) *SimulatedControlUnit {
	return NewSimulatedControlUnitWithSource(cfg, rand.NewSource(time.Now().UnixNano()))
}

// NewSimulatedControlUnitWithSource uses src for failure decisions
func NewSimulatedControlUnitWithSource(cfg config.SimulationConfig, src rand.Source) *SimulatedControlUnit {
	return &SimulatedControlUnit{
		config: cfg,
		rng:    rand.New(src),
	}
}

// SetBrightness implements streetlight.ControlUnit
func (u *SimulatedControlUnit) SetBrightness(ctx context.Context, id int64, lumens int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := logging.FromContext(ctx)

	if msg, fail := u.shouldSimulateFailure(); fail {
		logger.WarnContext(ctx, "Simulating control unit failure",
			slog.Int64("streetlightId", id),
			slog.String("error", msg),
			slog.Bool("simulated", true),
		)
		return errors.New(msg)
	}

	logger.DebugContext(ctx, "Control unit accepted brightness",
		slog.Int64("streetlightId", id),
		slog.Int64("lumens", lumens),
	)
	return nil
}

// shouldSimulateFailure determines if this command should fail and with which message
func (u *SimulatedControlUnit) shouldSimulateFailure() (string, bool) {
	if !u.config.Enabled {
		return "", false
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.rng.Float64() >= u.config.FailureRate {
		return "", false
	}
	return simulatedErrors[u.rng.Intn(len(simulatedErrors))], true
}
