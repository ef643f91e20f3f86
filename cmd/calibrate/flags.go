package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/xc-ratings/internal/calibration"
	"github.com/yourusername/xc-ratings/internal/config"
	"github.com/yourusername/xc-ratings/internal/service"
)

// addParamFlags registers one flag per run parameter. Defaults shown in help
// are the built-in ones; only flags set explicitly override the config file.
func addParamFlags(cmd *cobra.Command) {
	d := calibration.DefaultParams()
	f := cmd.Flags()
	f.Int("min-shared-athletes", d.MinSharedAthletes, "Shared athletes required before a course is calibrated")
	f.Int("confidence-saturation", d.ConfidenceSaturationCount, "Shared-athlete count at which sample confidence saturates")
	f.Float64("max-variance-penalty", d.MaxVariancePenalty, "Largest confidence reduction applied for disagreement")
	f.Float64("outlier-threshold", d.OutlierThreshold, "Pace residual in seconds/mile that counts as an outlier")
	f.Float64("improvement-rate", d.ImprovementRate, "Expected pace improvement in seconds/mile per interval")
	f.Int("improvement-interval-days", int(d.ImprovementInterval/(24*time.Hour)), "Length of one improvement interval in days")
	f.String("method", string(d.Method), "Calibration method: ratio, temporal or both")
	f.Float64("high-confidence", d.HighConfidenceThreshold, "Confidence at which a course counts as high confidence")
	f.Int("workers", service.DefaultWorkers, "Courses analyzed in parallel")
	f.Duration("course-timeout", service.DefaultCourseTimeout, "Time limit for one course analysis")
	f.Int("page-size", 500, "Observations fetched per page")
}

func applyParamFlags(cmd *cobra.Command, c *config.CalibrationConfig) {
	f := cmd.Flags()
	if f.Lookup("min-shared-athletes") == nil {
		return
	}
	if f.Changed("min-shared-athletes") {
		c.MinSharedAthletes, _ = f.GetInt("min-shared-athletes")
	}
	if f.Changed("confidence-saturation") {
		c.ConfidenceSaturationCount, _ = f.GetInt("confidence-saturation")
	}
	if f.Changed("max-variance-penalty") {
		c.MaxVariancePenalty, _ = f.GetFloat64("max-variance-penalty")
	}
	if f.Changed("outlier-threshold") {
		c.OutlierThreshold, _ = f.GetFloat64("outlier-threshold")
	}
	if f.Changed("improvement-rate") {
		c.ImprovementRate, _ = f.GetFloat64("improvement-rate")
	}
	if f.Changed("improvement-interval-days") {
		c.ImprovementIntervalDays, _ = f.GetInt("improvement-interval-days")
	}
	if f.Changed("method") {
		c.Method, _ = f.GetString("method")
	}
	if f.Changed("high-confidence") {
		c.HighConfidenceThreshold, _ = f.GetFloat64("high-confidence")
	}
	if f.Changed("workers") {
		c.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("course-timeout") {
		c.CourseTimeout, _ = f.GetDuration("course-timeout")
	}
	if f.Changed("page-size") {
		c.PageSize, _ = f.GetInt("page-size")
	}
}
