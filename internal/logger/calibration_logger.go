// Package logger provides calibration-run logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/xc-ratings/internal/models"
)

// CalibrationLogger provides dedicated logging for calibration runs.
type CalibrationLogger struct {
	*logrus.Entry
}

// NewCalibrationLogger creates a new calibration logger.
func NewCalibrationLogger(baseLogger *logrus.Logger) *CalibrationLogger {
	return &CalibrationLogger{
		Entry: baseLogger.WithField("component", "calibration"),
	}
}

// LogRunStarted logs the start of a run.
func (cl *CalibrationLogger) LogRunStarted(runID string, anchor *models.Course, method string, candidates, workers int) {
	cl.WithFields(logrus.Fields{
		"run_id":      runID,
		"anchor_id":   anchor.ID,
		"anchor_name": anchor.Name,
		"method":      method,
		"candidates":  candidates,
		"workers":     workers,
	}).Info("Calibration run started")
}

// LogRecommendation logs one produced recommendation.
func (cl *CalibrationLogger) LogRecommendation(runID string, rec *models.CalibrationRecommendation) {
	entry := cl.WithFields(logrus.Fields{
		"run_id":         runID,
		"course_id":      rec.CourseID,
		"course_name":    rec.CourseName,
		"method":         rec.Method,
		"implied_rating": rec.ImpliedRating,
		"current_rating": rec.CurrentRating,
		"confidence":     rec.Confidence,
		"shared":         rec.SharedAthleteCount,
	})
	if rec.IsIsolated() {
		entry.Info("Course isolated from anchor")
		return
	}
	entry.Debug("Course calibrated")
}

// LogCourseFailed logs a course whose analysis failed.
func (cl *CalibrationLogger) LogCourseFailed(runID string, course *models.Course, err error) {
	cl.WithFields(logrus.Fields{
		"run_id":      runID,
		"course_id":   course.ID,
		"course_name": course.Name,
	}).WithError(err).Warn("Course analysis failed")
}

// LogRunCompleted logs the outcome of a run.
func (cl *CalibrationLogger) LogRunCompleted(run *models.CalibrationRun, duration time.Duration) {
	cl.WithFields(logrus.Fields{
		"run_id":          run.ID,
		"status":          run.Status,
		"courses":         run.CoursesAnalyzed,
		"high_confidence": run.HighConfidenceCount,
		"needs_review":    run.NeedsReviewCount,
		"isolated":        run.IsolatedCount,
		"failed":          run.FailedCount,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Calibration run completed")
}

// LogRunAborted logs a run that stopped before analyzing courses.
func (cl *CalibrationLogger) LogRunAborted(runID string, err error) {
	cl.WithField("run_id", runID).WithError(err).Error("Calibration run aborted")
}
