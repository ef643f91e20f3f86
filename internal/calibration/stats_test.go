package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert.True(t, math.IsNaN(Median(nil)))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
	// even-length samples average the two middle elements
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 7.0, Median([]float64{7}))
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestMedianIsOutlierResistant(t *testing.T) {
	base := []float64{1.04, 1.05, 1.05, 1.06, 1.05, 1.04, 1.06}
	withOutlier := append(append([]float64{}, base...), 3.0)

	medianShift := math.Abs(Median(withOutlier) - Median(base))
	meanShift := math.Abs(Mean(withOutlier) - Mean(base))
	assert.Less(t, medianShift, meanShift)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev([]float64{1}))
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestMedianAbsoluteDeviation(t *testing.T) {
	assert.Equal(t, 0.0, MedianAbsoluteDeviation(nil))
	assert.InDelta(t, 1.0, MedianAbsoluteDeviation([]float64{1, 1, 2, 2, 4, 6, 9}), 1e-12)
}

func TestConfidenceFactors(t *testing.T) {
	assert.InDelta(t, 0.12, SampleFactor(12, 100), 1e-12)
	assert.Equal(t, 1.0, SampleFactor(250, 100))
	assert.Equal(t, 0.0, SampleFactor(0, 100))

	assert.InDelta(t, 0.9, AgreementFactor(0.1, 0.5), 1e-12)
	assert.InDelta(t, 0.5, AgreementFactor(2.0, 0.5), 1e-12)
	assert.InDelta(t, 0.5, AgreementFactor(math.NaN(), 0.5), 1e-12)

	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 1.0, Clamp01(1.3))
}
