package observation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/xc-ratings/internal/metrics"
	"github.com/yourusername/xc-ratings/internal/models"
)

const (
	DefaultPageSize      = 500
	MaxPageSize          = 5000
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 250 * time.Millisecond
	DefaultMaxBackoff    = 5 * time.Second
	DefaultCacheTTL      = 30 * time.Minute
	// DefaultMaxPages bounds a single course fetch to DefaultMaxPages*PageSize rows
	DefaultMaxPages = 1000
)

// Options configures an Accessor
type Options struct {
	PageSize      int
	MaxPages      int
	RetryAttempts int
	RetryBackoff  time.Duration
	MaxBackoff    time.Duration
	CacheTTL      time.Duration
}

// DefaultOptions returns the accessor defaults
func DefaultOptions() Options {
	return Options{
		PageSize:      DefaultPageSize,
		MaxPages:      DefaultMaxPages,
		RetryAttempts: DefaultRetryAttempts,
		RetryBackoff:  DefaultRetryBackoff,
		MaxBackoff:    DefaultMaxBackoff,
		CacheTTL:      DefaultCacheTTL,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.PageSize <= 0 {
		o.PageSize = d.PageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	if o.MaxPages <= 0 {
		o.MaxPages = d.MaxPages
	}
	if o.RetryAttempts <= 0 {
		o.RetryAttempts = 1
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = d.RetryBackoff
	}
	if o.MaxBackoff < o.RetryBackoff {
		o.MaxBackoff = o.RetryBackoff
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = d.CacheTTL
	}
	return o
}

// Accessor fetches complete, deterministically ordered observation sets.
// Results are cached so one run reads each course at most once.
type Accessor struct {
	source PageSource
	opts   Options
	cache  *cache.Cache
	logger *logrus.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewAccessor creates an accessor over source
func NewAccessor(source PageSource, opts Options, logger *logrus.Logger) *Accessor {
	opts = opts.normalized()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Accessor{
		source: source,
		opts:   opts,
		cache:  cache.New(opts.CacheTTL, opts.CacheTTL*2),
		logger: logger,
		sleep:  sleepContext,
	}
}

// Options returns the effective options after defaults and bounds
func (a *Accessor) Options() Options {
	return a.opts
}

// Flush drops every cached course, starting a fresh read view
func (a *Accessor) Flush() {
	a.cache.Flush()
}

// Fetch returns the course with all of its observations ordered by race
// date, then observation id. Attributes joined by the source replace those
// on course. Persistent read failures are returned as *models.FetchError.
func (a *Accessor) Fetch(ctx context.Context, course models.Course) (*models.CourseObservations, error) {
	key := course.ID.String()
	if cached, found := a.cache.Get(key); found {
		metrics.RecordCacheLookup(true)
		if co, ok := cached.(*models.CourseObservations); ok {
			return copyObservations(co), nil
		}
	}
	metrics.RecordCacheLookup(false)

	start := time.Now()
	co, err := a.fetchAll(ctx, course)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordFetch(a.source.Name(), outcome, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	a.cache.Set(key, co, cache.DefaultExpiration)
	return copyObservations(co), nil
}

func (a *Accessor) fetchAll(ctx context.Context, course models.Course) (*models.CourseObservations, error) {
	result := &models.CourseObservations{Course: course}
	seen := make(map[uuid.UUID]struct{})

	for pageIndex := 0; pageIndex < a.opts.MaxPages; pageIndex++ {
		offset := pageIndex * a.opts.PageSize
		page, err := a.fetchPageWithRetry(ctx, course.ID, offset)
		if err != nil {
			return nil, err
		}
		metrics.RecordPage(a.source.Name())

		if page.Course != nil {
			result.Course = *page.Course
		}
		for _, obs := range page.Observations {
			if obs.CourseID != uuid.Nil && obs.CourseID != course.ID {
				return nil, fmt.Errorf("source %s returned observation %s for course %s while reading %s",
					a.source.Name(), obs.ID, obs.CourseID, course.ID)
			}
			if _, dup := seen[obs.ID]; dup && obs.ID != uuid.Nil {
				continue
			}
			seen[obs.ID] = struct{}{}
			result.Observations = append(result.Observations, obs)
		}

		if len(page.Observations) < a.opts.PageSize {
			SortObservations(result.Observations)
			return result, nil
		}
	}

	return nil, fmt.Errorf("course %s exceeds %d pages of %d observations", course.ID, a.opts.MaxPages, a.opts.PageSize)
}

func (a *Accessor) fetchPageWithRetry(ctx context.Context, courseID uuid.UUID, offset int) (*Page, error) {
	backoff := a.opts.RetryBackoff
	var lastErr error

	for attempt := 1; attempt <= a.opts.RetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := a.source.FetchPage(ctx, courseID, offset, a.opts.PageSize)
		if err == nil {
			if page == nil {
				page = &Page{}
			}
			return page, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err

		if attempt == a.opts.RetryAttempts {
			break
		}
		a.logger.WithFields(logrus.Fields{
			"course_id": courseID,
			"offset":    offset,
			"attempt":   attempt,
			"backoff":   backoff,
		}).WithError(err).Warn("Observation page fetch failed, retrying")

		if err := a.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
		if backoff > a.opts.MaxBackoff {
			backoff = a.opts.MaxBackoff
		}
	}

	return nil, &models.FetchError{CourseID: courseID, Attempts: a.opts.RetryAttempts, Cause: lastErr}
}

// SortObservations orders by race date, then observation id
func SortObservations(list []models.Observation) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].RaceDate.Equal(list[j].RaceDate) {
			return list[i].RaceDate.Before(list[j].RaceDate)
		}
		return bytes.Compare(list[i].ID[:], list[j].ID[:]) < 0
	})
}

func copyObservations(co *models.CourseObservations) *models.CourseObservations {
	out := &models.CourseObservations{Course: co.Course}
	out.Observations = append([]models.Observation(nil), co.Observations...)
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
