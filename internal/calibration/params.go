package calibration

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yourusername/xc-ratings/internal/models"
)

// MethodSelection chooses which calibrators a run executes
type MethodSelection string

const (
	SelectRatio    MethodSelection = "ratio"
	SelectTemporal MethodSelection = "temporal"
	SelectBoth     MethodSelection = "both"
)

// Defaults
const (
	DefaultMinSharedAthletes         = 10
	DefaultConfidenceSaturationCount = 100
	DefaultMaxVariancePenalty        = 0.5
	DefaultOutlierThreshold          = 3.0
	DefaultImprovementRate           = 1.5
	DefaultImprovementInterval       = 14 * 24 * time.Hour
	DefaultHighConfidenceThreshold   = 0.7
)

// Params holds the statistical tunables shared by both calibrators
type Params struct {
	MinSharedAthletes         int             `json:"min_shared_athletes" validate:"gte=1"`
	ConfidenceSaturationCount int             `json:"confidence_saturation_count" validate:"gte=1"`
	MaxVariancePenalty        float64         `json:"max_variance_penalty" validate:"gte=0,lte=1"`
	OutlierThreshold          float64         `json:"outlier_threshold" validate:"gt=0"`
	ImprovementRate           float64         `json:"improvement_rate" validate:"gte=0"`
	ImprovementInterval       time.Duration   `json:"improvement_interval"`
	Method                    MethodSelection `json:"method" validate:"oneof=ratio temporal both"`
	HighConfidenceThreshold   float64         `json:"high_confidence_threshold" validate:"gte=0,lte=1"`
}

// DefaultParams returns the documented defaults
func DefaultParams() Params {
	return Params{
		MinSharedAthletes:         DefaultMinSharedAthletes,
		ConfidenceSaturationCount: DefaultConfidenceSaturationCount,
		MaxVariancePenalty:        DefaultMaxVariancePenalty,
		OutlierThreshold:          DefaultOutlierThreshold,
		ImprovementRate:           DefaultImprovementRate,
		ImprovementInterval:       DefaultImprovementInterval,
		Method:                    SelectBoth,
		HighConfidenceThreshold:   DefaultHighConfidenceThreshold,
	}
}

var paramsValidator = validator.New()

// Validate returns a *models.ConfigurationError for the first invalid field
func (p Params) Validate() error {
	if err := paramsValidator.Struct(p); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return models.NewConfigurationError(fe.Field(), fmt.Sprintf("failed %s=%s constraint, got %v", fe.Tag(), fe.Param(), fe.Value()))
		}
		return models.NewConfigurationError("params", err.Error())
	}
	if p.ImprovementInterval <= 0 {
		return models.NewConfigurationError("ImprovementInterval", "must be a positive duration")
	}
	return nil
}

// Calibrators returns the strategies selected by p.Method
func (p Params) Calibrators() []Calibrator {
	switch p.Method {
	case SelectRatio:
		return []Calibrator{NewRatioCalibrator(p)}
	case SelectTemporal:
		return []Calibrator{NewTemporalOutlierCalibrator(p)}
	default:
		return []Calibrator{NewRatioCalibrator(p), NewTemporalOutlierCalibrator(p)}
	}
}
