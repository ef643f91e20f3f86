// Package calibration infers course difficulty from athletes shared with the anchor course.
package calibration

import (
	"fmt"

	"github.com/yourusername/xc-ratings/internal/models"
)

// Calibrator infers an implied rating for a candidate course relative to the anchor.
// Implementations must be pure: no I/O and no mutation of their inputs.
type Calibrator interface {
	Method() models.CalibrationMethod
	Calibrate(anchor, candidate *models.CourseObservations) (*models.CalibrationRecommendation, error)
}

// prepare runs the checks and matching shared by every calibrator. It returns a
// non-nil recommendation when the outcome is already decided (anchor or isolated).
func prepare(params Params, anchor, candidate *models.CourseObservations) (*MatchResult, *models.CalibrationRecommendation, error) {
	if anchor == nil || candidate == nil {
		return nil, nil, fmt.Errorf("anchor and candidate observations are required")
	}
	if err := anchor.Course.ValidateGeometry(); err != nil {
		return nil, nil, err
	}

	if candidate.Course.ID == anchor.Course.ID {
		return nil, anchorRecommendation(candidate), nil
	}

	if err := candidate.Course.ValidateForCalibration(); err != nil {
		return nil, nil, err
	}

	match, err := MatchSharedAthletes(anchor, candidate)
	if err != nil {
		return nil, nil, err
	}

	if len(match.Pairs) < params.MinSharedAthletes {
		return match, isolatedRecommendation(anchor, candidate, len(match.Pairs), params.MinSharedAthletes), nil
	}
	return match, nil, nil
}

func baseRecommendation(anchor, candidate *models.CourseObservations, method models.CalibrationMethod, shared int) *models.CalibrationRecommendation {
	return &models.CalibrationRecommendation{
		CourseID:           candidate.Course.ID,
		CourseName:         candidate.Course.Name,
		AnchorCourseID:     anchor.Course.ID,
		Method:             method,
		CurrentRating:      candidate.Course.CurrentRating,
		ImpliedRating:      candidate.Course.CurrentRating,
		SharedAthleteCount: shared,
		Statistics:         map[string]float64{},
	}
}

func anchorRecommendation(anchor *models.CourseObservations) *models.CalibrationRecommendation {
	rec := baseRecommendation(anchor, anchor, models.MethodAnchor, anchor.AthleteCount())
	rec.Confidence = 1
	return rec
}

func isolatedRecommendation(anchor, candidate *models.CourseObservations, shared, minimum int) *models.CalibrationRecommendation {
	rec := baseRecommendation(anchor, candidate, models.MethodIsolated, shared)
	rec.Confidence = 0
	rec.Statistics["min_shared_athletes"] = float64(minimum)
	return rec
}
