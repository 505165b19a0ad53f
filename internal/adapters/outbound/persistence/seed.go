package persistence

import (
	"github.com/erickfunier/lumenq/internal/domain/streetlight"
)

// SeedStreetlights returns the lights a fresh store starts with
func SeedStreetlights() []streetlight.Streetlight {
	return []streetlight.Streetlight{
		{
			ID:       1,
			Position: streetlight.Position{Lat: -36.320320, Long: 175.485986},
			Lumens:   223,
		},
	}
}
