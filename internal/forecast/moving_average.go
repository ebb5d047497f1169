package forecast

import (
	"fmt"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// smoothingAlpha pulls each step toward the moving-average anchor.
const smoothingAlpha = 0.3

// MovingAverage converges from the last price toward the simple moving average
// of the trailing window using exponential smoothing.
type MovingAverage struct {
	window int
}

// NewMovingAverage creates a moving-average forecaster. Non-positive windows use DefaultWindow.
func NewMovingAverage(window int) *MovingAverage {
	if window <= 0 {
		window = DefaultWindow
	}
	return &MovingAverage{window: window}
}

func (m *MovingAverage) Name() string { return fmt.Sprintf("Moving Average (window=%d)", m.window) }

func (m *MovingAverage) MinPoints() int { return m.window }

// Window returns the configured window size.
func (m *MovingAverage) Window() int { return m.window }

// Predict blends next = prev*(1-alpha) + anchor*alpha starting from the last price.
func (m *MovingAverage) Predict(prices []float64, dates []time.Time, horizon int) (*Result, error) {
	start := time.Now()
	if err := validate(m, prices, horizon); err != nil {
		return nil, err
	}

	anchor := m.anchor(prices)
	current := prices[len(prices)-1]

	predictions := make([]float64, horizon)
	for i := range predictions {
		current = current*(1-smoothingAlpha) + anchor*smoothingAlpha
		predictions[i] = current
	}

	return newResult(m.Name(), prices, predictions, dates, start), nil
}

// anchor is the simple moving average over the last window prices.
func (m *MovingAverage) anchor(prices []float64) float64 {
	sma := trend.NewSmaWithPeriod[float64](m.window)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
	if len(values) == 0 {
		return Mean(prices[len(prices)-m.window:])
	}
	return values[len(values)-1]
}
