package calibration

import (
	"github.com/yourusername/xc-ratings/internal/models"
)

// RatioCalibrator infers difficulty from the median pace ratio of shared athletes
type RatioCalibrator struct {
	params Params
}

// NewRatioCalibrator creates a ratio calibrator
func NewRatioCalibrator(params Params) *RatioCalibrator {
	return &RatioCalibrator{params: params}
}

// Method returns the method recorded on non-isolated recommendations
func (c *RatioCalibrator) Method() models.CalibrationMethod {
	return models.MethodRatio
}

// Calibrate computes implied = current_rating * median(candidate pace / anchor pace)
func (c *RatioCalibrator) Calibrate(anchor, candidate *models.CourseObservations) (*models.CalibrationRecommendation, error) {
	match, decided, err := prepare(c.params, anchor, candidate)
	if err != nil {
		return nil, err
	}
	if decided != nil {
		return decided, nil
	}

	ratios := AthleteRatios(match.Pairs)
	medianRatio := Median(ratios)
	spread := StdDev(ratios)
	sampleFactor := SampleFactor(len(ratios), c.params.ConfidenceSaturationCount)
	agreement := AgreementFactor(spread, c.params.MaxVariancePenalty)

	rec := baseRecommendation(anchor, candidate, models.MethodRatio, len(match.Pairs))
	rec.ImpliedRating = candidate.Course.CurrentRating * medianRatio
	rec.Confidence = Clamp01(sampleFactor * agreement)
	rec.Statistics = map[string]float64{
		"median_ratio":         medianRatio,
		"mean_ratio":           Mean(ratios),
		"ratio_stddev":         spread,
		"sample_factor":        sampleFactor,
		"agreement_factor":     agreement,
		"skipped_observations": float64(match.SkippedObservations),
	}
	return rec, nil
}

// AthleteRatios returns candidate median pace / anchor median pace per athlete
func AthleteRatios(pairs []SharedAthletePair) []float64 {
	ratios := make([]float64, 0, len(pairs))
	for _, pair := range pairs {
		if pair.AnchorMedianPace <= 0 {
			continue
		}
		ratios = append(ratios, pair.CandidateMedianPace/pair.AnchorMedianPace)
	}
	return ratios
}
