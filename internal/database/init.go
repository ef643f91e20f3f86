package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/xc-ratings/internal/config"
)

// RequiredTables lists the tables the calibrator reads and writes
var RequiredTables = []string{
	"courses",
	"results",
	"calibration_runs",
	"calibration_recommendations",
	"course_rating_changes",
}

// Initialize creates a database connection pool and verifies the schema is migrated
func Initialize(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.VerifySchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	var anchors int
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM courses WHERE is_anchor").Scan(&anchors); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to count anchor courses: %w", err)
	}
	if anchors != 1 {
		logger.WithField("anchor_courses", anchors).Warn("Expected exactly one anchor course; calibration runs will fail")
	}

	return db, nil
}

// VerifySchema checks every required table exists
func (db *DB) VerifySchema(ctx context.Context) error {
	for _, table := range RequiredTables {
		var exists bool
		err := db.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("table %s not found; apply migrations: migrate -path migrations -database \"your_dsn\" up", table)
		}
	}
	return nil
}
