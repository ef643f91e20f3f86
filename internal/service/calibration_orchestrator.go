// Package service runs calibration batches and applies operator-approved rating changes.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/xc-ratings/internal/calibration"
	"github.com/yourusername/xc-ratings/internal/logger"
	"github.com/yourusername/xc-ratings/internal/metrics"
	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/repository"
)

// Course outcome categories
const (
	OutcomeHighConfidence = "high_confidence"
	OutcomeNeedsReview    = "needs_review"
	OutcomeIsolated       = "isolated"
	OutcomeFailed         = "failed"
)

// Defaults
const (
	DefaultWorkers       = 4
	DefaultCourseTimeout = 60 * time.Second
)

// ObservationFetcher reads every observation recorded on a course
type ObservationFetcher interface {
	Fetch(ctx context.Context, course models.Course) (*models.CourseObservations, error)
	Flush()
}

// RunConfig configures one calibration run
type RunConfig struct {
	Params        calibration.Params
	Workers       int
	CourseTimeout time.Duration
}

// DefaultRunConfig returns the documented defaults
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Params:        calibration.DefaultParams(),
		Workers:       DefaultWorkers,
		CourseTimeout: DefaultCourseTimeout,
	}
}

// Validate checks the statistical parameters and the pool settings
func (c RunConfig) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return models.NewConfigurationError("Workers", fmt.Sprintf("must be at least 1, got %d", c.Workers))
	}
	if c.CourseTimeout <= 0 {
		return models.NewConfigurationError("CourseTimeout", "must be a positive duration")
	}
	return nil
}

// CourseOutcome is the result of analyzing one candidate course
type CourseOutcome struct {
	Course          models.Course
	Outcome         string
	Recommendations []*models.CalibrationRecommendation
	Err             error
	Duration        time.Duration
}

// Discrepancy returns the largest |implied - current| across the course's recommendations
func (o *CourseOutcome) Discrepancy() float64 {
	worst := 0.0
	for _, rec := range o.Recommendations {
		if d := rec.Discrepancy(); d > worst {
			worst = d
		}
	}
	return worst
}

// RunCounts tallies courses per outcome
type RunCounts struct {
	HighConfidence int `json:"high_confidence"`
	NeedsReview    int `json:"needs_review"`
	Isolated       int `json:"isolated"`
	Failed         int `json:"failed"`
}

// RunSummary is what a calibration run reports back to its caller
type RunSummary struct {
	RunID       uuid.UUID
	Anchor      models.Course
	Method      calibration.MethodSelection
	Courses     []CourseOutcome
	Counts      RunCounts
	Failures    []CourseOutcome
	StartedAt   time.Time
	CompletedAt time.Time
}

// Isolated returns the courses that share too few athletes with the anchor
func (s *RunSummary) Isolated() []CourseOutcome {
	var out []CourseOutcome
	for _, c := range s.Courses {
		if c.Outcome == OutcomeIsolated {
			out = append(out, c)
		}
	}
	return out
}

// CalibrationOrchestrator analyzes every non-anchor course against the anchor
// and persists advisory recommendations. It never writes a course rating.
type CalibrationOrchestrator struct {
	courses  repository.CourseRepository
	recs     repository.RecommendationRepository
	runs     repository.RunRepository
	accessor ObservationFetcher
	log      *logger.CalibrationLogger
	audit    *logger.AuditLogger
}

// NewCalibrationOrchestrator creates a new orchestrator
func NewCalibrationOrchestrator(
	courses repository.CourseRepository,
	recs repository.RecommendationRepository,
	runs repository.RunRepository,
	accessor ObservationFetcher,
	log *logrus.Logger,
) *CalibrationOrchestrator {
	return &CalibrationOrchestrator{
		courses:  courses,
		recs:     recs,
		runs:     runs,
		accessor: accessor,
		log:      logger.NewCalibrationLogger(log),
		audit:    logger.NewAuditLogger(log),
	}
}

// Run executes one calibration batch. A configuration error aborts before any
// course is analyzed; per-course failures are reported in the summary.
func (o *CalibrationOrchestrator) Run(ctx context.Context, cfg RunConfig) (*RunSummary, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		o.log.LogRunAborted("", err)
		metrics.RecordRun(models.RunStatusAborted, time.Since(start).Seconds(), float64(time.Now().Unix()))
		return nil, err
	}

	anchor, err := o.courses.GetAnchor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load anchor course: %w", err)
	}
	if err := anchor.ValidateGeometry(); err != nil {
		return nil, fmt.Errorf("anchor course cannot be calibrated against: %w", err)
	}

	courses, err := o.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	candidates := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if c.ID != anchor.ID {
			candidates = append(candidates, *c)
		}
	}

	// Observations are read fresh each run.
	o.accessor.Flush()

	anchorObs, err := o.accessor.Fetch(ctx, *anchor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anchor observations: %w", err)
	}

	run, err := o.startRun(ctx, anchor, cfg)
	if err != nil {
		return nil, err
	}
	o.log.LogRunStarted(run.ID.String(), anchor, string(cfg.Params.Method), len(candidates), cfg.Workers)

	outcomes := o.analyzeAll(ctx, run.ID, anchorObs, candidates, cfg)

	summary := &RunSummary{
		RunID:     run.ID,
		Anchor:    *anchor,
		Method:    cfg.Params.Method,
		Courses:   outcomes,
		StartedAt: start,
	}
	rankOutcomes(summary.Courses)
	for _, c := range summary.Courses {
		switch c.Outcome {
		case OutcomeHighConfidence:
			summary.Counts.HighConfidence++
		case OutcomeNeedsReview:
			summary.Counts.NeedsReview++
		case OutcomeIsolated:
			summary.Counts.Isolated++
		case OutcomeFailed:
			summary.Counts.Failed++
			summary.Failures = append(summary.Failures, c)
		}
	}
	summary.CompletedAt = time.Now()

	completeErr := o.completeRun(run, summary)

	duration := time.Since(start)
	metrics.RecordRun(run.Status, duration.Seconds(), float64(summary.CompletedAt.Unix()))
	metrics.UpdateRunCounts(summary.Counts.HighConfidence, summary.Counts.NeedsReview, summary.Counts.Isolated, summary.Counts.Failed)
	o.log.LogRunCompleted(run, duration)

	if completeErr != nil {
		return summary, completeErr
	}
	return summary, nil
}

func (o *CalibrationOrchestrator) startRun(ctx context.Context, anchor *models.Course, cfg RunConfig) (*models.CalibrationRun, error) {
	if previous, err := o.runs.ListRecent(ctx, 1); err == nil && len(previous) == 1 && previous[0].AnchorCourseID != anchor.ID {
		o.audit.LogAnchorChange(previous[0].AnchorCourseID.String(), anchor.ID.String())
	}

	params, err := json.Marshal(cfg.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run parameters: %w", err)
	}

	run := &models.CalibrationRun{
		ID:             uuid.New(),
		AnchorCourseID: anchor.ID,
		AnchorRating:   anchor.CurrentRating,
		Method:         string(cfg.Params.Method),
		Parameters:     params,
		Status:         models.RunStatusRunning,
		StartedAt:      time.Now().UTC(),
	}
	if err := o.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record calibration run: %w", err)
	}
	return run, nil
}

func (o *CalibrationOrchestrator) completeRun(run *models.CalibrationRun, summary *RunSummary) error {
	completed := summary.CompletedAt.UTC()
	run.Status = models.RunStatusCompleted
	run.CoursesAnalyzed = len(summary.Courses)
	run.HighConfidenceCount = summary.Counts.HighConfidence
	run.NeedsReviewCount = summary.Counts.NeedsReview
	run.IsolatedCount = summary.Counts.Isolated
	run.FailedCount = summary.Counts.Failed
	run.CompletedAt = &completed

	// The batch may have been cancelled; the run row still gets closed.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.runs.Complete(ctx, run); err != nil {
		return fmt.Errorf("failed to complete calibration run %s: %w", run.ID, err)
	}
	return nil
}

// analyzeAll runs every candidate on a bounded pool. Once ctx is cancelled no
// further analyses start; the remaining courses are reported failed.
func (o *CalibrationOrchestrator) analyzeAll(ctx context.Context, runID uuid.UUID, anchor *models.CourseObservations, candidates []models.Course, cfg RunConfig) []CourseOutcome {
	outcomes := make([]CourseOutcome, len(candidates))
	calibrators := cfg.Params.Calibrators()

	var g errgroup.Group
	g.SetLimit(cfg.Workers)

	for i := range candidates {
		course := candidates[i]
		if ctx.Err() != nil {
			outcomes[i] = CourseOutcome{Course: course, Outcome: OutcomeFailed, Err: models.ErrAnalysisCancelled}
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				outcomes[i] = CourseOutcome{Course: course, Outcome: OutcomeFailed, Err: models.ErrAnalysisCancelled}
				return nil
			}
			outcomes[i] = o.runCourse(ctx, runID, anchor, course, calibrators, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (o *CalibrationOrchestrator) runCourse(ctx context.Context, runID uuid.UUID, anchor *models.CourseObservations, course models.Course, calibrators []calibration.Calibrator, cfg RunConfig) CourseOutcome {
	start := time.Now()
	outcome := CourseOutcome{Course: course}

	recs, err := o.analyzeWithTimeout(ctx, anchor, course, calibrators, cfg.CourseTimeout)
	if err == nil {
		recs = dedupeIsolated(recs)
		err = o.persist(context.WithoutCancel(ctx), runID, course.ID, recs, calibrators)
	}

	outcome.Duration = time.Since(start)
	if err != nil {
		outcome.Outcome = OutcomeFailed
		outcome.Err = err
		o.log.LogCourseFailed(runID.String(), &course, err)
		metrics.RecordCourseOutcome(string(cfg.Params.Method), OutcomeFailed, outcome.Duration.Seconds())
		return outcome
	}

	outcome.Recommendations = recs
	outcome.Outcome = classify(recs, cfg.Params.HighConfidenceThreshold)
	for _, rec := range recs {
		o.log.LogRecommendation(runID.String(), rec)
		metrics.RecordRecommendation(string(rec.Method), rec.Confidence)
	}
	metrics.RecordCourseOutcome(string(cfg.Params.Method), outcome.Outcome, outcome.Duration.Seconds())
	return outcome
}

type analysisResult struct {
	recs []*models.CalibrationRecommendation
	err  error
}

// analyzeWithTimeout abandons an analysis that outlives timeout. Cancelling
// the run does not interrupt an analysis already in progress.
func (o *CalibrationOrchestrator) analyzeWithTimeout(ctx context.Context, anchor *models.CourseObservations, course models.Course, calibrators []calibration.Calibrator, timeout time.Duration) ([]*models.CalibrationRecommendation, error) {
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	done := make(chan analysisResult, 1)
	go func() {
		recs, err := o.analyze(actx, anchor, course, calibrators)
		done <- analysisResult{recs: recs, err: err}
	}()

	select {
	case res := <-done:
		return res.recs, res.err
	case <-actx.Done():
		return nil, fmt.Errorf("%w after %s", models.ErrAnalysisTimeout, timeout)
	}
}

func (o *CalibrationOrchestrator) analyze(ctx context.Context, anchor *models.CourseObservations, course models.Course, calibrators []calibration.Calibrator) ([]*models.CalibrationRecommendation, error) {
	if err := course.ValidateForCalibration(); err != nil {
		return nil, err
	}

	candidate, err := o.accessor.Fetch(ctx, course)
	if err != nil {
		return nil, err
	}

	recs := make([]*models.CalibrationRecommendation, 0, len(calibrators))
	for _, c := range calibrators {
		rec, err := c.Calibrate(anchor, candidate)
		if err != nil {
			return nil, fmt.Errorf("%s calibration failed: %w", c.Method(), err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// persist upserts the course's recommendations and removes rows the new
// outcome supersedes.
func (o *CalibrationOrchestrator) persist(ctx context.Context, runID, courseID uuid.UUID, recs []*models.CalibrationRecommendation, calibrators []calibration.Calibrator) error {
	isolated := false
	for _, rec := range recs {
		rec.RunID = runID
		if err := o.recs.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("failed to upsert %s recommendation: %w", rec.Method, err)
		}
		if rec.IsIsolated() {
			isolated = true
		}
	}

	if isolated {
		for _, c := range calibrators {
			if err := o.recs.DeleteByCourseAndMethod(ctx, courseID, c.Method()); err != nil {
				return fmt.Errorf("failed to clear stale %s recommendation: %w", c.Method(), err)
			}
		}
		return nil
	}
	if err := o.recs.DeleteByCourseAndMethod(ctx, courseID, models.MethodIsolated); err != nil {
		return fmt.Errorf("failed to clear stale isolated recommendation: %w", err)
	}
	return nil
}

// dedupeIsolated keeps one isolated marker when several calibrators agree on it.
func dedupeIsolated(recs []*models.CalibrationRecommendation) []*models.CalibrationRecommendation {
	out := make([]*models.CalibrationRecommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.IsIsolated() {
			return []*models.CalibrationRecommendation{rec}
		}
		out = append(out, rec)
	}
	return out
}

func classify(recs []*models.CalibrationRecommendation, highConfidence float64) string {
	best := 0.0
	for _, rec := range recs {
		if rec.IsIsolated() {
			return OutcomeIsolated
		}
		if rec.Confidence > best {
			best = rec.Confidence
		}
	}
	if best >= highConfidence {
		return OutcomeHighConfidence
	}
	return OutcomeNeedsReview
}

// rankOutcomes orders by discrepancy descending, then course name, then id.
// Failed courses sort after every analyzed course.
func rankOutcomes(outcomes []CourseOutcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := &outcomes[i], &outcomes[j]
		af, bf := a.Outcome == OutcomeFailed, b.Outcome == OutcomeFailed
		if af != bf {
			return bf
		}
		if da, db := a.Discrepancy(), b.Discrepancy(); da != db {
			return da > db
		}
		if a.Course.Name != b.Course.Name {
			return a.Course.Name < b.Course.Name
		}
		return a.Course.ID.String() < b.Course.ID.String()
	})
}

// IsCancelled reports whether a course outcome failed because the run was cancelled
func IsCancelled(outcome CourseOutcome) bool {
	return errors.Is(outcome.Err, models.ErrAnalysisCancelled)
}
