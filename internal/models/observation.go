package models

import (
	"time"

	"github.com/google/uuid"
)

// Centiseconds is a race time in hundredths of a second
type Centiseconds int64

// Seconds returns the time as floating seconds
func (c Centiseconds) Seconds() float64 {
	return float64(c) / 100
}

// CentisecondsFromSeconds converts seconds, rounding half up
func CentisecondsFromSeconds(seconds float64) Centiseconds {
	if seconds < 0 {
		return -CentisecondsFromSeconds(-seconds)
	}
	return Centiseconds(int64(seconds*100 + 0.5))
}

// Observation is a single race result of an athlete on a course
type Observation struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	AthleteID uuid.UUID    `db:"athlete_id" json:"athlete_id" validate:"required"`
	CourseID  uuid.UUID    `db:"course_id" json:"course_id" validate:"required"`
	RaceTime  Centiseconds `db:"race_time_cs" json:"race_time_cs" validate:"gt=0"`
	RaceDate  time.Time    `db:"race_date" json:"race_date" validate:"required"`
}

// CourseObservations is a course together with every observation recorded on it
type CourseObservations struct {
	Course       Course
	Observations []Observation
}

// AthleteCount returns the number of distinct athletes
func (co *CourseObservations) AthleteCount() int {
	seen := make(map[uuid.UUID]struct{}, len(co.Observations))
	for _, obs := range co.Observations {
		seen[obs.AthleteID] = struct{}{}
	}
	return len(seen)
}
