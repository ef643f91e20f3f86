package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/xc-ratings/internal/models"
	"github.com/yourusername/xc-ratings/internal/observation"
)

const (
	resultsAPISourceName = "results_api"
	raceDateLayout       = "2006-01-02"
	courseSelect         = "id,name,distance_meters,terrain_difficulty,current_rating,rating_confidence,is_anchor"
)

// ResultsAPIRow is one result as served by the PostgREST-style results API.
// Course holds the embedded join, which arrives as an object or an array.
type ResultsAPIRow struct {
	ID        uuid.UUID       `json:"id"`
	AthleteID uuid.UUID       `json:"athlete_id"`
	CourseID  uuid.UUID       `json:"course_id"`
	TimeCS    *int64          `json:"time_cs"`
	TimeSecs  *float64        `json:"time_seconds"`
	MeetDate  string          `json:"meet_date"`
	Course    json.RawMessage `json:"courses"`
}

// ResultsAPICourse is the embedded course of a results row
type ResultsAPICourse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	DistanceMeters    float64   `json:"distance_meters"`
	TerrainDifficulty float64   `json:"terrain_difficulty"`
	CurrentRating     float64   `json:"current_rating"`
	RatingConfidence  float64   `json:"rating_confidence"`
	IsAnchor          bool      `json:"is_anchor"`
}

// ResultsAPISource implements observation.PageSource over HTTP
type ResultsAPISource struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *logrus.Entry
}

var _ observation.PageSource = (*ResultsAPISource)(nil)

// NewResultsAPISource creates a results API client rooted at baseURL
func NewResultsAPISource(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *ResultsAPISource {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ResultsAPISource{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.WithField("source", resultsAPISourceName),
	}
}

// Name returns the data source name
func (s *ResultsAPISource) Name() string {
	return resultsAPISourceName
}

// FetchPage retrieves one page of a course's results ordered by meet date, then id
func (s *ResultsAPISource) FetchPage(ctx context.Context, courseID uuid.UUID, offset, limit int) (*observation.Page, error) {
	query := url.Values{}
	query.Set("select", "id,athlete_id,course_id,time_cs,time_seconds,meet_date,courses("+courseSelect+")")
	query.Set("course_id", "eq."+courseID.String())
	query.Set("order", "meet_date.asc,id.asc")
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/results?"+query.Encode(), nil)
	if err != nil {
		return nil, NewDataSourceError(resultsAPISourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(resultsAPISourceName, ErrCodeNetworkError, "failed to fetch results", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(resultsAPISourceName, ErrCodeAuthenticationFailed, "invalid API key", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(resultsAPISourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, NewDataSourceError(resultsAPISourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var rows []ResultsAPIRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, NewDataSourceError(resultsAPISourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	page, err := MapRows(courseID, rows)
	if err != nil {
		return nil, NewDataSourceError(resultsAPISourceName, ErrCodeInvalidData, "failed to map results", err)
	}
	s.logger.WithFields(logrus.Fields{
		"course_id": courseID,
		"offset":    offset,
		"rows":      len(page.Observations),
	}).Debug("Fetched results page")
	return page, nil
}

// MapRows converts API rows into typed observations and the joined course
func MapRows(courseID uuid.UUID, rows []ResultsAPIRow) (*observation.Page, error) {
	page := &observation.Page{Observations: make([]models.Observation, 0, len(rows))}
	for i := range rows {
		row := &rows[i]

		obs, err := row.toObservation()
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, row.ID, err)
		}
		if obs.CourseID == uuid.Nil {
			obs.CourseID = courseID
		}
		page.Observations = append(page.Observations, obs)

		if page.Course != nil {
			continue
		}
		course, err := decodeEmbeddedCourse(row.Course)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, row.ID, err)
		}
		if course != nil {
			page.Course = course
		}
	}
	return page, nil
}

func (r *ResultsAPIRow) toObservation() (models.Observation, error) {
	obs := models.Observation{ID: r.ID, AthleteID: r.AthleteID, CourseID: r.CourseID}

	switch {
	case r.TimeCS != nil:
		obs.RaceTime = models.Centiseconds(*r.TimeCS)
	case r.TimeSecs != nil:
		obs.RaceTime = models.CentisecondsFromSeconds(*r.TimeSecs)
	default:
		return obs, fmt.Errorf("missing race time: %w", ErrInvalidData)
	}

	date, err := parseMeetDate(r.MeetDate)
	if err != nil {
		return obs, err
	}
	obs.RaceDate = date
	return obs, nil
}

func parseMeetDate(s string) (time.Time, error) {
	if d, err := time.Parse(raceDateLayout, s); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid meet_date %q: %w", s, ErrInvalidData)
	}
	return d.UTC(), nil
}

// decodeEmbeddedCourse accepts null, an object, or an array of at most one object
func decodeEmbeddedCourse(raw json.RawMessage) (*models.Course, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var embedded ResultsAPICourse
	if trimmed[0] == '[' {
		var list []ResultsAPICourse
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid course join: %w", err)
		}
		switch len(list) {
		case 0:
			return nil, nil
		case 1:
			embedded = list[0]
		default:
			return nil, ErrAmbiguousJoin
		}
	} else if err := json.Unmarshal(trimmed, &embedded); err != nil {
		return nil, fmt.Errorf("invalid course join: %w", err)
	}

	return &models.Course{
		ID:                embedded.ID,
		Name:              embedded.Name,
		DistanceMeters:    embedded.DistanceMeters,
		TerrainDifficulty: embedded.TerrainDifficulty,
		CurrentRating:     embedded.CurrentRating,
		RatingConfidence:  embedded.RatingConfidence,
		IsAnchor:          embedded.IsAnchor,
	}, nil
}
