// Package repository implements PostgreSQL persistence for courses, results and calibration output.
package repository

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/yourusername/xc-ratings/internal/database"
)

// ratingPlaces is the storage precision of rating columns
const ratingPlaces = 6

// Repositories holds all repository implementations
type Repositories struct {
	Course         CourseRepository
	Observation    ObservationRepository
	Recommendation RecommendationRepository
	Run            RunRepository
	RatingChange   RatingChangeRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Course:         NewPostgresCourseRepository(db),
		Observation:    NewPostgresObservationRepository(db),
		Recommendation: NewPostgresRecommendationRepository(db),
		Run:            NewPostgresRunRepository(db),
		RatingChange:   NewPostgresRatingChangeRepository(db),
	}, nil
}

// storedRating rounds half up to the column precision
func storedRating(rating float64) decimal.Decimal {
	return decimal.NewFromFloat(rating).Round(ratingPlaces)
}

// finiteStatistics drops values JSON cannot carry
func finiteStatistics(stats map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for k, v := range stats {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}
