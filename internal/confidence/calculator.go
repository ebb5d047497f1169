// Package confidence scores how far a forecast can be trusted.
package confidence

import (
	"math"

	"github.com/irfndi/pricecast-go/internal/forecast"
)

// Level is the discrete bucket of a final confidence value.
type Level string

const (
	LevelHigh    Level = "high"
	LevelMedium  Level = "medium"
	LevelLow     Level = "low"
	LevelVeryLow Level = "very low"
	completeDays       = 30
	recentWindow       = 10
)

// Weights blend the three sub-scores. They sum to 1.
type Weights struct {
	DataQuality     float64
	ModelQuality    float64
	ExternalFactors float64
}

// DefaultWeights is 0.40 data, 0.35 model, 0.25 external.
var DefaultWeights = Weights{
	DataQuality:     0.40,
	ModelQuality:    0.35,
	ExternalFactors: 0.25,
}

// Defaults are the values assumed for business context that was not supplied.
type Defaults struct {
	ParseStability      float64
	Volatility          float64
	ForecastCorrelation float64
	ModelStability      float64
	SeasonalMatch       float64
	CategoryReliability float64
	MarketStability     float64
}

// DefaultValues documents every fallback used by the calculator.
var DefaultValues = Defaults{
	ParseStability:      1.0,
	Volatility:          0.5,
	ForecastCorrelation: 0.8,
	ModelStability:      0.9,
	SeasonalMatch:       0.7,
	CategoryReliability: 0.75,
	MarketStability:     0.8,
}

// Level thresholds, inclusive lower bounds.
const (
	highThreshold   = 0.9
	mediumThreshold = 0.7
	lowThreshold    = 0.5
)

// Inputs carries optional business context. Nil fields fall back to DefaultValues.
type Inputs struct {
	SuccessfulParses    *int     `json:"successful_parses,omitempty"`
	TotalParses         *int     `json:"total_parses,omitempty"`
	ForecastCorrelation *float64 `json:"forecast_correlation,omitempty"`
	StabilityScore      *float64 `json:"stability_score,omitempty"`
	SeasonalMatch       *float64 `json:"seasonal_match,omitempty"`
	CategoryReliability *float64 `json:"category_reliability,omitempty"`
	MarketStability     *float64 `json:"market_stability,omitempty"`
}

// Components is the breakdown of a confidence calculation.
type Components struct {
	DataQuality     float64 `json:"data_quality"`
	ModelQuality    float64 `json:"model_quality"`
	ExternalFactors float64 `json:"external_factors"`
	FinalConfidence float64 `json:"confidence"`
	Level           Level   `json:"confidence_level"`
}

// Calculator combines data, model and external sub-scores.
type Calculator struct {
	weights  Weights
	defaults Defaults
}

// NewCalculator creates a calculator with the default weights and fallbacks.
func NewCalculator() *Calculator {
	return &Calculator{
		weights:  DefaultWeights,
		defaults: DefaultValues,
	}
}

// Calculate scores a history and its model MAPE (in percent).
func (c *Calculator) Calculate(history []float64, mape float64, in Inputs) Components {
	data := c.DataQuality(history, in.SuccessfulParses, in.TotalParses)
	model := c.ModelQuality(mape, in.ForecastCorrelation, in.StabilityScore)
	external := c.ExternalFactors(in.SeasonalMatch, in.CategoryReliability, in.MarketStability)

	final := c.weights.DataQuality*data +
		c.weights.ModelQuality*model +
		c.weights.ExternalFactors*external

	return Components{
		DataQuality:     data,
		ModelQuality:    model,
		ExternalFactors: external,
		FinalConfidence: final,
		Level:           LevelFor(final),
	}
}

// DataQuality averages history completeness, parse stability and recent price calmness.
// An empty history scores 0.
func (c *Calculator) DataQuality(history []float64, successful, total *int) float64 {
	if len(history) == 0 {
		return 0
	}

	completeness := math.Min(float64(len(history))/completeDays, 1)

	stability := c.defaults.ParseStability
	if successful != nil && total != nil && *total > 0 {
		stability = float64(*successful) / float64(*total)
	}

	recent := history
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	volatility := c.defaults.Volatility
	if len(recent) >= 2 {
		if mean := forecast.Mean(recent); mean > 0 {
			volatility = 1 - math.Min(forecast.StdDev(recent)/mean, 1)
		}
	}

	return (completeness + stability + volatility) / 3
}

// ModelQuality averages historical accuracy, forecast consistency and model stability.
func (c *Calculator) ModelQuality(mape float64, correlation, stability *float64) float64 {
	accuracy := 1 - math.Min(mape/100, 1)
	consistency := valueOr(correlation, c.defaults.ForecastCorrelation)
	steadiness := valueOr(stability, c.defaults.ModelStability)

	return (accuracy + consistency + steadiness) / 3
}

// ExternalFactors averages seasonality, category reliability and market stability.
func (c *Calculator) ExternalFactors(seasonal, category, market *float64) float64 {
	return (valueOr(seasonal, c.defaults.SeasonalMatch) +
		valueOr(category, c.defaults.CategoryReliability) +
		valueOr(market, c.defaults.MarketStability)) / 3
}

// LevelFor buckets a final confidence value.
func LevelFor(value float64) Level {
	switch {
	case value >= highThreshold:
		return LevelHigh
	case value >= mediumThreshold:
		return LevelMedium
	case value >= lowThreshold:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// Float returns a pointer to v, for filling Inputs.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for filling Inputs.
func Int(v int) *int { return &v }

func valueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
