// Package normalize converts raw race times into values comparable across courses.
package normalize

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/xc-ratings/internal/models"
)

var (
	metersPerMile   = decimal.NewFromFloat(models.MetersPerMile)
	centisPerSecond = decimal.NewFromInt(100)
)

// Rating returns the multiplier that converts a time on course into an
// anchor-equivalent time: (anchor.distance / course.distance) * (anchor.difficulty / course.difficulty).
func Rating(course, anchor *models.Course) (decimal.Decimal, error) {
	if course == nil || anchor == nil {
		return decimal.Zero, fmt.Errorf("course and anchor are required")
	}
	if err := course.ValidateGeometry(); err != nil {
		return decimal.Zero, err
	}
	if err := anchor.ValidateGeometry(); err != nil {
		return decimal.Zero, err
	}

	numerator := decimal.NewFromFloat(anchor.DistanceMeters).Mul(decimal.NewFromFloat(anchor.TerrainDifficulty))
	denominator := decimal.NewFromFloat(course.DistanceMeters).Mul(decimal.NewFromFloat(course.TerrainDifficulty))
	return numerator.Div(denominator), nil
}

// NormalizedTime returns the anchor-equivalent time in centiseconds, unrounded.
func NormalizedTime(raw models.Centiseconds, course, anchor *models.Course) (decimal.Decimal, error) {
	if raw < 0 {
		return decimal.Zero, fmt.Errorf("race time cannot be negative: %d", raw)
	}
	rating, err := Rating(course, anchor)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(int64(raw)).Mul(rating), nil
}

// NormalizedCentiseconds is NormalizedTime rounded half up for storage.
func NormalizedCentiseconds(raw models.Centiseconds, course, anchor *models.Course) (models.Centiseconds, error) {
	normalized, err := NormalizedTime(raw, course, anchor)
	if err != nil {
		return 0, err
	}
	return models.Centiseconds(normalized.Round(0).IntPart()), nil
}

// Pace returns seconds per mile divided by the course's terrain difficulty.
// It does not depend on any anchor.
func Pace(raw models.Centiseconds, course *models.Course) (decimal.Decimal, error) {
	if course == nil {
		return decimal.Zero, fmt.Errorf("course is required")
	}
	if raw < 0 {
		return decimal.Zero, fmt.Errorf("race time cannot be negative: %d", raw)
	}
	if err := course.ValidateGeometry(); err != nil {
		return decimal.Zero, err
	}

	perMile := metersPerMile.Div(decimal.NewFromFloat(course.DistanceMeters))
	return decimal.NewFromInt(int64(raw)).
		Mul(perMile).
		Div(centisPerSecond).
		Div(decimal.NewFromFloat(course.TerrainDifficulty)), nil
}

// PaceSeconds is Pace as a float for statistical aggregation.
func PaceSeconds(raw models.Centiseconds, course *models.Course) (float64, error) {
	pace, err := Pace(raw, course)
	if err != nil {
		return 0, err
	}
	return pace.InexactFloat64(), nil
}

// Normalizer binds an anchor course for repeated conversions
type Normalizer struct {
	anchor models.Course
}

// NewNormalizer creates a normalizer against the given anchor
func NewNormalizer(anchor models.Course) (*Normalizer, error) {
	if err := anchor.ValidateGeometry(); err != nil {
		return nil, err
	}
	return &Normalizer{anchor: anchor}, nil
}

// Anchor returns the bound anchor course
func (n *Normalizer) Anchor() models.Course {
	return n.anchor
}

// Normalize returns the anchor-equivalent time in seconds, rounded to centiseconds
func (n *Normalizer) Normalize(raw models.Centiseconds, course *models.Course) (float64, error) {
	cs, err := NormalizedCentiseconds(raw, course, &n.anchor)
	if err != nil {
		return 0, err
	}
	return cs.Seconds(), nil
}
