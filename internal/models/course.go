package models

import (
	"time"

	"github.com/google/uuid"
)

// Course represents a physical cross-country course
type Course struct {
	ID                uuid.UUID `db:"id" json:"id" validate:"required"`
	Name              string    `db:"name" json:"name" validate:"required"`
	DistanceMeters    float64   `db:"distance_meters" json:"distance_meters" validate:"gt=0"`
	TerrainDifficulty float64   `db:"terrain_difficulty" json:"terrain_difficulty" validate:"gt=0"`
	CurrentRating     float64   `db:"current_rating" json:"current_rating"`
	RatingConfidence  float64   `db:"rating_confidence" json:"rating_confidence" validate:"gte=0,lte=1"`
	IsAnchor          bool      `db:"is_anchor" json:"is_anchor"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ValidateGeometry checks the fields the normalizer divides by
func (c *Course) ValidateGeometry() error {
	if c.DistanceMeters <= 0 {
		return NewDataError(c.ID, "distance_meters", "distance must be greater than zero")
	}
	if c.TerrainDifficulty <= 0 {
		return NewDataError(c.ID, "terrain_difficulty", "terrain difficulty must be greater than zero")
	}
	return nil
}

// ValidateForCalibration checks geometry and the stored rating
func (c *Course) ValidateForCalibration() error {
	if err := c.ValidateGeometry(); err != nil {
		return err
	}
	if c.CurrentRating <= 0 {
		return NewDataError(c.ID, "current_rating", "current rating must be greater than zero")
	}
	return nil
}

// Miles returns the course length in miles
func (c *Course) Miles() float64 {
	return c.DistanceMeters / MetersPerMile
}

// MetersPerMile is the international mile
const MetersPerMile = 1609.344
