package calibration

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/xc-ratings/internal/models"
)

var seasonStart = time.Date(2024, 9, 7, 0, 0, 0, 0, time.UTC)

// mileCourse makes pace in s/mile equal raw seconds divided by difficulty
func mileCourse(name string, difficulty, rating float64, anchor bool) *models.CourseObservations {
	return &models.CourseObservations{Course: models.Course{
		ID:                uuid.New(),
		Name:              name,
		DistanceMeters:    models.MetersPerMile,
		TerrainDifficulty: difficulty,
		CurrentRating:     rating,
		IsAnchor:          anchor,
	}}
}

func addResult(co *models.CourseObservations, athlete uuid.UUID, seconds float64, date time.Time) {
	co.Observations = append(co.Observations, models.Observation{
		ID:        uuid.New(),
		AthleteID: athlete,
		CourseID:  co.Course.ID,
		RaceTime:  models.CentisecondsFromSeconds(seconds),
		RaceDate:  date,
	})
}

func athletes(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}
