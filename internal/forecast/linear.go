package forecast

import "time"

// Extrapolated values are clipped to this band around the last price.
const (
	linearFloorRatio   = 0.5
	linearCeilingRatio = 1.5
)

// Linear extends the least-squares line through the history.
type Linear struct{}

// NewLinear creates a linear extrapolation forecaster.
func NewLinear() *Linear {
	return &Linear{}
}

func (l *Linear) Name() string { return "Linear Extrapolation" }

func (l *Linear) MinPoints() int { return 2 }

// Predict evaluates the fitted line at indices n..n+horizon-1 and clips each value
// to [last*0.5, last*1.5].
func (l *Linear) Predict(prices []float64, dates []time.Time, horizon int) (*Result, error) {
	start := time.Now()
	if err := validate(l, prices, horizon); err != nil {
		return nil, err
	}

	slope, intercept := LinearFit(prices)
	last := prices[len(prices)-1]
	floor, ceiling := last*linearFloorRatio, last*linearCeilingRatio

	n := len(prices)
	predictions := make([]float64, horizon)
	for i := range predictions {
		predictions[i] = clip(slope*float64(n+i)+intercept, floor, ceiling)
	}

	return newResult(l.Name(), prices, predictions, dates, start), nil
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
