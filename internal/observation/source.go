// Package observation reads per-course observation sets for a calibration run.
package observation

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/xc-ratings/internal/models"
)

// Page is one slice of a course's observations. Course carries the joined
// course attributes when the source returns them.
type Page struct {
	Course       *models.Course
	Observations []models.Observation
}

// PageSource is a paginated, read-only store of observations
type PageSource interface {
	Name() string
	FetchPage(ctx context.Context, courseID uuid.UUID, offset, limit int) (*Page, error)
}
