package calibration

import (
	"math"
	"sort"
)

// Median returns the middle value of values. An even-length sample yields the
// mean of its two middle elements. An empty sample yields NaN.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mean returns the arithmetic mean of values, NaN when empty
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of values
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// MedianAbsoluteDeviation returns the median of |v - median(values)|
func MedianAbsoluteDeviation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	center := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - center)
	}
	return Median(deviations)
}

// Clamp01 bounds v to [0, 1]; NaN and -Inf map to 0
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SampleFactor is the sample-size share of confidence: min(1, n / saturation)
func SampleFactor(n, saturation int) float64 {
	if n <= 0 || saturation <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/float64(saturation))
}

// AgreementFactor converts a dispersion into the agreement share of confidence
func AgreementFactor(dispersion, maxPenalty float64) float64 {
	if math.IsNaN(dispersion) || math.IsInf(dispersion, 0) {
		return 1 - maxPenalty
	}
	return 1 - math.Min(math.Abs(dispersion), maxPenalty)
}
