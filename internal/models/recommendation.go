package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// CalibrationMethod identifies how a recommendation was produced
type CalibrationMethod string

const (
	MethodRatio           CalibrationMethod = "ratio"
	MethodTemporalOutlier CalibrationMethod = "temporal_outlier"
	MethodIsolated        CalibrationMethod = "isolated"
	MethodAnchor          CalibrationMethod = "anchor"
)

// Severity levels for temporal outlier findings
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// CalibrationRecommendation is an advisory rating change for one course.
// Rows are upserted by (course_id, method) and never applied automatically.
type CalibrationRecommendation struct {
	ID                 uuid.UUID          `db:"id" json:"id"`
	RunID              uuid.UUID          `db:"run_id" json:"run_id"`
	CourseID           uuid.UUID          `db:"course_id" json:"course_id"`
	CourseName         string             `db:"course_name" json:"course_name"`
	AnchorCourseID     uuid.UUID          `db:"anchor_course_id" json:"anchor_course_id"`
	Method             CalibrationMethod  `db:"method" json:"method"`
	ImpliedRating      float64            `db:"implied_rating" json:"implied_rating"`
	CurrentRating      float64            `db:"current_rating" json:"current_rating"`
	Confidence         float64            `db:"confidence" json:"confidence"`
	SharedAthleteCount int                `db:"shared_athlete_count" json:"shared_athlete_count"`
	NeedsAdjustment    bool               `db:"needs_adjustment" json:"needs_adjustment"`
	Severity           string             `db:"severity" json:"severity,omitempty"`
	Statistics         map[string]float64 `db:"statistics" json:"statistics"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}

// Discrepancy returns |implied - current|
func (r *CalibrationRecommendation) Discrepancy() float64 {
	return math.Abs(r.ImpliedRating - r.CurrentRating)
}

// IsIsolated reports whether the course lacked enough shared athletes
func (r *CalibrationRecommendation) IsIsolated() bool {
	return r.Method == MethodIsolated
}

// IsApplicable reports whether an operator may apply this recommendation
func (r *CalibrationRecommendation) IsApplicable() bool {
	switch r.Method {
	case MethodRatio, MethodTemporalOutlier:
		return r.Confidence > 0 && r.ImpliedRating > 0
	default:
		return false
	}
}
