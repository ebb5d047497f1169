// Package forecast provides interchangeable price extrapolation strategies.
package forecast

import (
	"strings"
	"time"

	"github.com/irfndi/pricecast-go/internal/utils"
)

// Trend is the direction label derived from a price history.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Model selector keys.
const (
	ModelNaive         = "naive"
	ModelMovingAverage = "ma"
	ModelLinear        = "linear"
)

// DefaultWindow is the moving-average window size.
const DefaultWindow = 7

// Result is the immutable output of a single Predict call.
type Result struct {
	Predictions   []float64   `json:"predictions"`
	Dates         []time.Time `json:"dates"`
	Trend         Trend       `json:"trend"`
	ModelName     string      `json:"model_name"`
	InferenceTime float64     `json:"inference_time"`
}

// Forecaster produces point predictions for the next horizon days.
type Forecaster interface {
	Name() string
	MinPoints() int
	Predict(prices []float64, dates []time.Time, horizon int) (*Result, error)
}

// New returns the forecaster registered under model. Unknown names fall back to linear.
func New(model string) Forecaster {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case ModelNaive:
		return NewNaive()
	case ModelMovingAverage, "moving_average", "moving-average":
		return NewMovingAverage(DefaultWindow)
	default:
		return NewLinear()
	}
}

// IsKnownModel reports whether model maps to a strategy without falling back.
func IsKnownModel(model string) bool {
	switch strings.ToLower(strings.TrimSpace(model)) {
	case ModelNaive, ModelMovingAverage, "moving_average", "moving-average", ModelLinear:
		return true
	}
	return false
}

func validate(f Forecaster, prices []float64, horizon int) error {
	if horizon <= 0 {
		return utils.NewValidationErrorf("forecast horizon must be positive, got %d", horizon)
	}
	if len(prices) < f.MinPoints() {
		return utils.NewInsufficientDataError(f.Name(), f.MinPoints(), len(prices))
	}
	return nil
}

// forecastDates returns horizon daily timestamps following the last known date.
func forecastDates(dates []time.Time, horizon int) []time.Time {
	var last time.Time
	if len(dates) > 0 {
		last = dates[len(dates)-1]
	} else {
		last = time.Now().UTC().Truncate(24 * time.Hour)
	}

	out := make([]time.Time, horizon)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}

func newResult(name string, prices, predictions []float64, dates []time.Time, start time.Time) *Result {
	return &Result{
		Predictions:   predictions,
		Dates:         forecastDates(dates, len(predictions)),
		Trend:         DetectTrend(prices),
		ModelName:     name,
		InferenceTime: time.Since(start).Seconds(),
	}
}
