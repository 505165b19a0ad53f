package streetlight

import (
	"errors"
	"math"
	"time"

	"github.com/erickfunier/lumenq/internal/domain/queue"
)

// Streetlight represents a controllable light on the street network
type Streetlight struct {
	ID        int64
	Position  Position
	Lumens    int64
	UpdatedAt time.Time
}

// Position is a WGS84 coordinate
type Position struct {
	Lat  float64
	Long float64
}

// Business rules and validation

var (
	ErrStreetlightNotFound = errors.New("streetlight not found")
	ErrInvalidID           = errors.New("streetlight id must be positive")
	ErrInvalidLumens       = errors.New("lumens must not be negative")
	ErrInvalidPosition     = errors.New("position is out of range")
)

// Validate checks the coordinate ranges
func (p Position) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Long) {
		return ErrInvalidPosition
	}
	if p.Lat < -90 || p.Lat > 90 || p.Long < -180 || p.Long > 180 {
		return ErrInvalidPosition
	}
	return nil
}

// NewStreetlight creates a new streetlight with validation.
// The ID is assigned by the repository on Create.
func NewStreetlight(position Position, lumens int64) (*Streetlight, error) {
	if err := position.Validate(); err != nil {
		return nil, err
	}
	if lumens < 0 {
		return nil, ErrInvalidLumens
	}

	return &Streetlight{
		Position:  position,
		Lumens:    lumens,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// SetLumens changes the light output
func (s *Streetlight) SetLumens(lumens int64) error {
	if lumens < 0 {
		return ErrInvalidLumens
	}
	s.Lumens = lumens
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetBrightnessJobType is the registry key of SetBrightnessJob
const SetBrightnessJobType queue.Type = "streetlights.set_brightness"

// SetBrightnessJob asks the worker to drive a light to the desired output
type SetBrightnessJob struct {
	queue.Base
	StreetlightID int64
	DesiredLumens int64
}

// JobType implements queue.Job
func (SetBrightnessJob) JobType() queue.Type {
	return SetBrightnessJobType
}

// NewSetBrightnessJob creates a new brightness job with validation
func NewSetBrightnessJob(streetlightID, desiredLumens int64) (*SetBrightnessJob, error) {
	if streetlightID <= 0 {
		return nil, ErrInvalidID
	}
	if desiredLumens < 0 {
		return nil, ErrInvalidLumens
	}

	return &SetBrightnessJob{
		Base:          queue.NewBase(),
		StreetlightID: streetlightID,
		DesiredLumens: desiredLumens,
	}, nil
}
