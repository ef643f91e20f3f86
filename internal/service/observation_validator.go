package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/normalize"
)

// Plausible terrain-adjusted pace bounds in seconds per mile
const (
	MinPlausiblePace = 150.0
	MaxPlausiblePace = 1800.0
)

// ObservationValidator checks imported results before they are stored
type ObservationValidator struct {
	now func() time.Time
}

// NewObservationValidator creates a new observation validator
func NewObservationValidator() *ObservationValidator {
	return &ObservationValidator{now: time.Now}
}

// ValidateObservation returns every problem found with obs recorded on course
func (v *ObservationValidator) ValidateObservation(obs *models.Observation, course *models.Course) []string {
	var problems []string

	if obs.ID == uuid.Nil {
		problems = append(problems, "id is required")
	}
	if obs.AthleteID == uuid.Nil {
		problems = append(problems, "athlete_id is required")
	}
	if obs.CourseID != course.ID {
		problems = append(problems, fmt.Sprintf("course_id %s does not match course %s", obs.CourseID, course.ID))
	}
	if obs.RaceTime <= 0 {
		problems = append(problems, fmt.Sprintf("race time must be positive, got %d", obs.RaceTime))
	}

	if obs.RaceDate.IsZero() {
		problems = append(problems, "race_date is required")
	} else if obs.RaceDate.After(v.now().Add(24 * time.Hour)) {
		problems = append(problems, fmt.Sprintf("race_date %s is in the future", obs.RaceDate.Format("2006-01-02")))
	}

	if obs.RaceTime > 0 {
		pace, err := normalize.PaceSeconds(obs.RaceTime, course)
		switch {
		case err != nil:
			problems = append(problems, err.Error())
		case pace < MinPlausiblePace || pace > MaxPlausiblePace:
			problems = append(problems, fmt.Sprintf("pace %.1fs/mile outside %.0f-%.0f", pace, MinPlausiblePace, MaxPlausiblePace))
		}
	}

	return problems
}
