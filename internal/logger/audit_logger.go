// Package logger provides audit logging.
package logger

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/xc-ratings/internal/models"
)

// AuditLogger provides dedicated audit trail logging for rating changes.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRatingApplied logs an operator applying a recommendation.
func (al *AuditLogger) LogRatingApplied(change *models.RatingChange, courseName string) {
	al.WithFields(logrus.Fields{
		"change_id":         change.ID,
		"course_id":         change.CourseID,
		"course_name":       courseName,
		"recommendation_id": change.RecommendationID,
		"method":            change.Method,
		"old_rating":        change.OldRating,
		"new_rating":        change.NewRating,
		"confidence":        change.Confidence,
		"applied_by":        change.AppliedBy,
		"reason":            change.Reason,
		"timestamp":         change.AppliedAt.Unix(),
	}).Info("Course rating applied")
}

// LogApplyRejected logs a refused apply request.
func (al *AuditLogger) LogApplyRejected(recommendationID, requestedBy, reason string) {
	al.WithFields(logrus.Fields{
		"recommendation_id": recommendationID,
		"requested_by":      requestedBy,
		"reason":            reason,
	}).Warn("Rating apply rejected")
}

// LogAnchorChange logs a detected change of anchor course between runs.
func (al *AuditLogger) LogAnchorChange(previousAnchorID, newAnchorID string) {
	al.WithFields(logrus.Fields{
		"previous_anchor_id": previousAnchorID,
		"new_anchor_id":      newAnchorID,
	}).Warn("Anchor course changed; prior recommendations are superseded by this run")
}
