// Package evaluation scores forecasts against realized prices.
package evaluation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/irfndi/pricecast-go/internal/utils"
)

// Quality targets for a forecasting model.
const (
	MAPETarget      = 15.0
	DirectionTarget = 65.0
	TimeTarget      = 2.0

	// Thresholds for the 7-day forecast quality gate.
	sevenDayPoints       = 7
	sevenDayMAPEMax      = 12.0
	sevenDayDirectionMin = 60.0
	sevenDayTimeMax      = 2.0

	// worstMAPE is returned when no point can be scored.
	worstMAPE = 100.0
)

// MetricsResult holds accuracy statistics for one evaluation.
type MetricsResult struct {
	MAPE              float64 `json:"mape"`
	DirectionAccuracy float64 `json:"direction_accuracy"`
	InferenceTime     float64 `json:"inference_time"`
	Forecast7DQuality bool    `json:"forecast_7d_quality"`
	MAPETarget        float64 `json:"mape_target"`
	DirectionTarget   float64 `json:"direction_target"`
	TimeTarget        float64 `json:"time_target"`
}

// MetricsSummary is the rounded, target-annotated view of a MetricsResult.
type MetricsSummary struct {
	MAPE              float64 `json:"mape"`
	MAPETarget        float64 `json:"mape_target"`
	MAPEOK            bool    `json:"mape_ok"`
	DirectionAccuracy float64 `json:"direction_accuracy"`
	DirectionTarget   float64 `json:"direction_target"`
	DirectionOK       bool    `json:"direction_ok"`
	InferenceTime     float64 `json:"inference_time"`
	TimeTarget        float64 `json:"time_target"`
	TimeOK            bool    `json:"time_ok"`
	Forecast7DQuality bool    `json:"forecast_7d_quality"`
	OverallQuality    bool    `json:"overall_quality"`
}

// IsGoodQuality reports whether every metric beats its target.
func (m *MetricsResult) IsGoodQuality() bool {
	return m.MAPE < m.MAPETarget &&
		m.DirectionAccuracy > m.DirectionTarget &&
		m.InferenceTime < m.TimeTarget
}

// Summary rounds the metrics for presentation.
func (m *MetricsResult) Summary() MetricsSummary {
	return MetricsSummary{
		MAPE:              round(m.MAPE, 2),
		MAPETarget:        m.MAPETarget,
		MAPEOK:            m.MAPE < m.MAPETarget,
		DirectionAccuracy: round(m.DirectionAccuracy, 2),
		DirectionTarget:   m.DirectionTarget,
		DirectionOK:       m.DirectionAccuracy > m.DirectionTarget,
		InferenceTime:     round(m.InferenceTime, 4),
		TimeTarget:        m.TimeTarget,
		TimeOK:            m.InferenceTime < m.TimeTarget,
		Forecast7DQuality: m.Forecast7DQuality,
		OverallQuality:    m.IsGoodQuality(),
	}
}

// MAPE is the mean absolute percentage error. Points with a zero actual are skipped;
// an empty or fully skipped input scores 100.
func MAPE(actual, predicted []float64) (float64, error) {
	if len(actual) != len(predicted) {
		return 0, utils.NewLengthMismatchError(len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return worstMAPE, nil
	}

	sum := 0.0
	counted := 0
	for i, a := range actual {
		if a == 0 {
			continue
		}
		sum += math.Abs((a - predicted[i]) / a)
		counted++
	}
	if counted == 0 {
		return worstMAPE, nil
	}

	return sum / float64(counted) * 100, nil
}

// DirectionAccuracy is the percentage of steps where both series agree on
// "went up" versus "did not go up". A zero difference counts as not up.
func DirectionAccuracy(actual, predicted []float64) (float64, error) {
	if len(actual) < 2 || len(predicted) < 2 {
		return 0, nil
	}
	if len(actual) != len(predicted) {
		return 0, utils.NewLengthMismatchError(len(actual), len(predicted))
	}

	correct := 0
	steps := len(actual) - 1
	for i := 1; i < len(actual); i++ {
		actualUp := actual[i]-actual[i-1] > 0
		predictedUp := predicted[i]-predicted[i-1] > 0
		if actualUp == predictedUp {
			correct++
		}
	}

	return float64(correct) / float64(steps) * 100, nil
}

// Forecast7DQuality requires exactly seven points and MAPE < 12, direction > 60,
// inference time < 2 seconds.
func Forecast7DQuality(actual7d, predicted7d []float64, inferenceTime float64) (bool, error) {
	if len(actual7d) != sevenDayPoints || len(predicted7d) != sevenDayPoints {
		return false, nil
	}

	mape, err := MAPE(actual7d, predicted7d)
	if err != nil {
		return false, err
	}
	direction, err := DirectionAccuracy(actual7d, predicted7d)
	if err != nil {
		return false, err
	}

	return mape < sevenDayMAPEMax && direction > sevenDayDirectionMin && inferenceTime < sevenDayTimeMax, nil
}

// EvaluateModel computes every metric, using the first seven points for the 7-day gate.
func EvaluateModel(actual, predicted []float64, inferenceTime float64) (*MetricsResult, error) {
	mape, err := MAPE(actual, predicted)
	if err != nil {
		return nil, err
	}
	direction, err := DirectionAccuracy(actual, predicted)
	if err != nil {
		return nil, err
	}

	quality, err := Forecast7DQuality(head(actual, sevenDayPoints), head(predicted, sevenDayPoints), inferenceTime)
	if err != nil {
		return nil, err
	}

	return &MetricsResult{
		MAPE:              mape,
		DirectionAccuracy: direction,
		InferenceTime:     inferenceTime,
		Forecast7DQuality: quality,
		MAPETarget:        MAPETarget,
		DirectionTarget:   DirectionTarget,
		TimeTarget:        TimeTarget,
	}, nil
}

func head(values []float64, n int) []float64 {
	if len(values) > n {
		return values[:n]
	}
	return values
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
