package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLocation is returned when a location has no address or out-of-range coordinates.
var ErrInvalidLocation = errors.New("invalid location")

// Coordinates represents a geographical point defined by its latitude and longitude in degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"` // Latitude of the geographical point.
	Longitude float64 `json:"lng"` // Longitude of the geographical point.
}

// Valid reports whether the pair is finite and inside [-90,90] x [-180,180].
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}

	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// String formats the pair as "lat,lng", the form accepted by the Google Maps APIs.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Location is a resolved address together with its coordinates.
type Location struct {
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

// Validate checks that the address is resolved and the coordinates are a valid pair.
func (l Location) Validate() error {
	if l.Address == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidLocation)
	}
	if !l.Coordinates.Valid() {
		return fmt.Errorf("%w: coordinates out of range (%s)", ErrInvalidLocation, l.Coordinates)
	}

	return nil
}
