package evaluation

import (
	"time"

	"github.com/irfndi/pricecast-go/internal/forecast"
	"github.com/irfndi/pricecast-go/internal/utils"
)

// BacktestResult pairs held-out prices with what the model predicted for them.
type BacktestResult struct {
	ModelName   string         `json:"model_name"`
	TrainPoints int            `json:"train_points"`
	TestPoints  int            `json:"test_points"`
	Actual      []float64      `json:"actual"`
	Predicted   []float64      `json:"predicted"`
	Metrics     MetricsSummary `json:"metrics"`
}

// Backtest holds out the last testDays prices, forecasts them from the rest and scores the result.
// The history must contain at least 2*testDays points.
func Backtest(f forecast.Forecaster, prices []float64, dates []time.Time, testDays int) (*BacktestResult, error) {
	if testDays <= 0 {
		return nil, utils.NewValidationErrorf("test_days must be positive, got %d", testDays)
	}
	if len(prices) < 2*testDays {
		return nil, utils.NewInsufficientDataError("backtest", 2*testDays, len(prices))
	}
	if len(dates) != 0 && len(dates) != len(prices) {
		return nil, utils.NewLengthMismatchError(len(prices), len(dates))
	}

	split := len(prices) - testDays
	train, actual := prices[:split], prices[split:]
	var trainDates []time.Time
	if len(dates) > 0 {
		trainDates = dates[:split]
	}

	result, err := f.Predict(train, trainDates, testDays)
	if err != nil {
		return nil, err
	}

	metrics, err := EvaluateModel(actual, result.Predictions, result.InferenceTime)
	if err != nil {
		return nil, err
	}

	return &BacktestResult{
		ModelName:   result.ModelName,
		TrainPoints: len(train),
		TestPoints:  len(actual),
		Actual:      actual,
		Predicted:   result.Predictions,
		Metrics:     metrics.Summary(),
	}, nil
}
