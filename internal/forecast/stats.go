package forecast

import "gonum.org/v1/gonum/stat"

// trendSensitivity is the slope threshold relative to the mean price.
const trendSensitivity = 0.001

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(values, nil)
	return std
}

// CoefficientOfVariation returns std/mean, or 0 when the mean is not positive.
func CoefficientOfVariation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean <= 0 {
		return 0
	}
	return std / mean
}

// LinearFit is an ordinary least-squares fit of values against their index 0..n-1.
func LinearFit(values []float64) (slope, intercept float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return 0, values[0]
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope = stat.LinearRegression(xs, values, nil, false)
	return slope, intercept
}

// DetectTrend labels the history by comparing the fitted slope to 0.1% of the mean price.
func DetectTrend(prices []float64) Trend {
	if len(prices) < 2 {
		return TrendStable
	}

	slope, _ := LinearFit(prices)
	threshold := Mean(prices) * trendSensitivity

	switch {
	case slope > threshold:
		return TrendUp
	case slope < -threshold:
		return TrendDown
	default:
		return TrendStable
	}
}
