package calibration

import (
	"math"
	"time"

	"github.com/yourusername/xc-ratings/internal/models"
)

const (
	highSeverityResidual   = 5.0
	mediumSeverityResidual = 3.0
)

// PairResidual is the outcome of comparing one anchor race with one candidate race
type PairResidual struct {
	Predicted float64
	Residual  float64
	Outlier   bool
}

// TemporalOutlierCalibrator accounts for in-season improvement between races
// before comparing paces, and flags courses whose residuals are consistently large.
type TemporalOutlierCalibrator struct {
	params Params
}

// NewTemporalOutlierCalibrator creates a temporal outlier calibrator
func NewTemporalOutlierCalibrator(params Params) *TemporalOutlierCalibrator {
	return &TemporalOutlierCalibrator{params: params}
}

// Method returns the method recorded on non-isolated recommendations
func (c *TemporalOutlierCalibrator) Method() models.CalibrationMethod {
	return models.MethodTemporalOutlier
}

// EvaluatePair predicts the candidate pace from the anchor pace, expecting the
// chronologically later race to be faster by rate per interval elapsed.
func (c *TemporalOutlierCalibrator) EvaluatePair(anchor, candidate PacedObservation) PairResidual {
	elapsed := candidate.RaceDate.Sub(anchor.RaceDate)
	intervals := float64(elapsed) / float64(c.params.ImprovementInterval)
	predicted := anchor.Pace - c.params.ImprovementRate*intervals
	residual := candidate.Pace - predicted
	return PairResidual{
		Predicted: predicted,
		Residual:  residual,
		Outlier:   math.Abs(residual) > c.params.OutlierThreshold,
	}
}

// Calibrate aggregates pair residuals into a course-level finding
func (c *TemporalOutlierCalibrator) Calibrate(anchor, candidate *models.CourseObservations) (*models.CalibrationRecommendation, error) {
	match, decided, err := prepare(c.params, anchor, candidate)
	if err != nil {
		return nil, err
	}
	if decided != nil {
		return decided, nil
	}

	var residuals, candidatePaces, spans []float64
	outliers := 0
	for _, pair := range match.Pairs {
		for _, a := range pair.Anchor {
			for _, cand := range pair.Candidate {
				pr := c.EvaluatePair(a, cand)
				residuals = append(residuals, pr.Residual)
				candidatePaces = append(candidatePaces, cand.Pace)
				spans = append(spans, math.Abs(cand.RaceDate.Sub(a.RaceDate).Hours()/24))
				if pr.Outlier {
					outliers++
				}
			}
		}
	}

	medianResidual := Median(residuals)
	outlierShare := float64(outliers) / float64(len(residuals))
	medianPace := Median(candidatePaces)
	expectedPace := medianPace - medianResidual
	if expectedPace <= 0 {
		return nil, models.NewDataError(candidate.Course.ID, "pace", "median residual exceeds median pace")
	}

	mad := MedianAbsoluteDeviation(residuals)
	sampleFactor := SampleFactor(len(match.Pairs), c.params.ConfidenceSaturationCount)
	agreement := AgreementFactor(mad/c.params.OutlierThreshold, c.params.MaxVariancePenalty)

	rec := baseRecommendation(anchor, candidate, models.MethodTemporalOutlier, len(match.Pairs))
	rec.ImpliedRating = candidate.Course.CurrentRating * medianPace / expectedPace
	rec.Confidence = Clamp01(sampleFactor * agreement)
	rec.NeedsAdjustment = math.Abs(medianResidual) > c.params.OutlierThreshold && outlierShare > 0.5
	rec.Severity = Severity(medianResidual)
	rec.Statistics = map[string]float64{
		"median_residual":      medianResidual,
		"mean_residual":        Mean(residuals),
		"residual_mad":         mad,
		"outlier_percentage":   outlierShare * 100,
		"outlier_pairs":        float64(outliers),
		"total_pairs":          float64(len(residuals)),
		"median_pace":          medianPace,
		"median_days_between":  Median(spans),
		"sample_factor":        sampleFactor,
		"agreement_factor":     agreement,
		"skipped_observations": float64(match.SkippedObservations),
	}
	return rec, nil
}

// Severity grades a median residual in seconds per mile
func Severity(medianResidual float64) string {
	switch abs := math.Abs(medianResidual); {
	case abs > highSeverityResidual:
		return models.SeverityHigh
	case abs > mediumSeverityResidual:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// IntervalsBetween returns how many improvement intervals separate two dates
func IntervalsBetween(from, to time.Time, interval time.Duration) float64 {
	if interval <= 0 {
		return 0
	}
	return float64(to.Sub(from)) / float64(interval)
}
