package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrNoAnchorCourse    = errors.New("no anchor course configured")
	ErrMultipleAnchors   = errors.New("more than one anchor course configured")
	ErrNotApplicable     = errors.New("recommendation cannot be applied")
	ErrAnalysisTimeout   = errors.New("course analysis timed out")
	ErrAnalysisCancelled = errors.New("course analysis not started: run cancelled")
)

// DataError reports a course whose stored attributes cannot be calibrated
type DataError struct {
	CourseID uuid.UUID
	Field    string
	Message  string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error on course %s: %s: %s", e.CourseID, e.Field, e.Message)
}

// NewDataError creates a new data error
func NewDataError(courseID uuid.UUID, field, message string) *DataError {
	return &DataError{CourseID: courseID, Field: field, Message: message}
}

// FetchError reports an observation read that kept failing after retries
type FetchError struct {
	CourseID uuid.UUID
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching observations for course %s failed after %d attempts: %v", e.CourseID, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ConfigurationError reports an invalid run parameter; it aborts the whole run
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid calibration parameter %s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

// IsDataError reports whether err carries a DataError
func IsDataError(err error) bool {
	var de *DataError
	return errors.As(err, &de)
}

// IsConfigurationError reports whether err carries a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
