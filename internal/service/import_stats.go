package service

import (
	"fmt"
	"sync"
	"time"
)

// ImportStats tracks statistics about a results import
type ImportStats struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	Courses          int
	FailedCourses    int
	Fetched          int
	Imported         int
	Duplicates       int
	ValidationErrors int
	Errors           int
}

// NewImportStats creates a new stats tracker
func NewImportStats() *ImportStats {
	return &ImportStats{StartTime: time.Now()}
}

func (s *ImportStats) recordCourse(fetched int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Courses++
	s.Fetched += fetched
	if err != nil {
		s.FailedCourses++
	}
}

func (s *ImportStats) recordImported(inserted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inserted {
		s.Imported++
	} else {
		s.Duplicates++
	}
}

func (s *ImportStats) recordValidationError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ValidationErrors++
}

func (s *ImportStats) recordError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors++
}

func (s *ImportStats) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Duration = time.Since(s.StartTime)
}

// String returns a formatted summary
func (s *ImportStats) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fmt.Sprintf(
		"ImportStats{Courses=%d, FailedCourses=%d, Fetched=%d, Imported=%d, Duplicates=%d, ValidationErrors=%d, Errors=%d, Duration=%v}",
		s.Courses,
		s.FailedCourses,
		s.Fetched,
		s.Imported,
		s.Duplicates,
		s.ValidationErrors,
		s.Errors,
		s.Duration,
	)
}
