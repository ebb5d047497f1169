package forecast

import "time"

// Naive repeats the last observed price for every future day.
type Naive struct{}

// NewNaive creates a naive forecaster.
func NewNaive() *Naive {
	return &Naive{}
}

func (n *Naive) Name() string { return "Naive (Tomorrow = Today)" }

func (n *Naive) MinPoints() int { return 1 }

// Predict returns horizon copies of the last price.
func (n *Naive) Predict(prices []float64, dates []time.Time, horizon int) (*Result, error) {
	start := time.Now()
	if err := validate(n, prices, horizon); err != nil {
		return nil, err
	}

	last := prices[len(prices)-1]
	predictions := make([]float64, horizon)
	for i := range predictions {
		predictions[i] = last
	}

	return newResult(n.Name(), prices, predictions, dates, start), nil
}
