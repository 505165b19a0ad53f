package streetlight

import (
	"context"
)

// Repository defines persistence operations for streetlights
type Repository interface {
	List(ctx context.Context) ([]*Streetlight, error)
	GetByID(ctx context.Context, id int64) (*Streetlight, error)
	Create(ctx context.Context, light *Streetlight) error
	Update(ctx context.Context, light *Streetlight) error
}

// ControlUnit sends commands to the physical light
type ControlUnit interface {
	SetBrightness(ctx context.Context, id int64, lumens int64) error
}

// UnitOfWork is the per-job scope handed to streetlight handlers.
// Everything it exposes is private to one job and released when the job ends.
type UnitOfWork struct {
	Streetlights Repository
}
