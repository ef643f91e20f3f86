package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// CalibrationRun is the persisted record of one orchestrator batch
type CalibrationRun struct {
	ID                  uuid.UUID       `db:"id" json:"id"`
	AnchorCourseID      uuid.UUID       `db:"anchor_course_id" json:"anchor_course_id"`
	AnchorRating        float64         `db:"anchor_rating" json:"anchor_rating"`
	Method              string          `db:"method" json:"method"`
	Parameters          json.RawMessage `db:"parameters" json:"parameters"`
	CoursesAnalyzed     int             `db:"courses_analyzed" json:"courses_analyzed"`
	HighConfidenceCount int             `db:"high_confidence_count" json:"high_confidence_count"`
	NeedsReviewCount    int             `db:"needs_review_count" json:"needs_review_count"`
	IsolatedCount       int             `db:"isolated_count" json:"isolated_count"`
	FailedCount         int             `db:"failed_count" json:"failed_count"`
	Status              string          `db:"status" json:"status"`
	ErrorMessage        string          `db:"error_message" json:"error_message,omitempty"`
	StartedAt           time.Time       `db:"started_at" json:"started_at"`
	CompletedAt         *time.Time      `db:"completed_at" json:"completed_at"`
}

// RatingChange is the audit row written when an operator applies a recommendation
type RatingChange struct {
	ID               uuid.UUID `db:"id" json:"id"`
	CourseID         uuid.UUID `db:"course_id" json:"course_id"`
	RecommendationID uuid.UUID `db:"recommendation_id" json:"recommendation_id"`
	Method           string    `db:"method" json:"method"`
	OldRating        float64   `db:"old_rating" json:"old_rating"`
	NewRating        float64   `db:"new_rating" json:"new_rating"`
	Confidence       float64   `db:"confidence" json:"confidence"`
	AppliedBy        string    `db:"applied_by" json:"applied_by" validate:"required"`
	Reason           string    `db:"reason" json:"reason"`
	AppliedAt        time.Time `db:"applied_at" json:"applied_at"`
}
