package services

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/pricecast-go/internal/confidence"
	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/forecast"
	"github.com/irfndi/pricecast-go/internal/metrics"
	"github.com/irfndi/pricecast-go/internal/recommendation"
	"github.com/irfndi/pricecast-go/internal/telemetry"
	"github.com/irfndi/pricecast-go/internal/utils"
)

const (
	shortHorizonIndex = 6
	longHorizonIndex  = 29

	trendUpFactor   = 1.05
	trendDownFactor = 0.95
)

// ForecastRequest is one online forecast call. Empty Scenario and Model take
// the configured defaults.
type ForecastRequest struct {
	Prices       []float64
	Dates        []time.Time
	Scenario     string
	ForecastDays int
	Model        string
}

// ForecastBlock is the prediction part of a ForecastResponse.
type ForecastBlock struct {
	Predictions []float64      `json:"predictions"`
	Dates       []time.Time    `json:"dates"`
	Trend       forecast.Trend `json:"trend"`
	PeriodDays  int            `json:"period_days"`
}

// ModelMetrics describes the model run.
type ModelMetrics struct {
	InferenceTime float64 `json:"inference_time"`
	ModelName     string  `json:"model_name"`
}

// ConfidenceComponents are the three weighted inputs of the final confidence.
type ConfidenceComponents struct {
	DataQuality     float64 `json:"data_quality"`
	ModelQuality    float64 `json:"model_quality"`
	ExternalFactors float64 `json:"external_factors"`
}

// ConfidenceBlock is the confidence part of a ForecastResponse.
type ConfidenceBlock struct {
	Value      float64              `json:"value"`
	Level      confidence.Level     `json:"level"`
	Components ConfidenceComponents `json:"components"`
}

// ForecastResponse is a read-only snapshot; nothing here is persisted.
type ForecastResponse struct {
	Forecast       ForecastBlock                 `json:"forecast"`
	Metrics        ModelMetrics                  `json:"metrics"`
	Confidence     ConfidenceBlock               `json:"confidence"`
	Recommendation recommendation.Recommendation `json:"recommendation"`
	CurrentPrice   float64                       `json:"current_price"`
}

// ForecastService chains forecaster, confidence calculator and recommendation
// engine. It holds no per-request state and is safe for concurrent use.
type ForecastService struct {
	cfg        config.ForecastConfig
	calculator *confidence.Calculator
	engine     *recommendation.Engine
	collector  *metrics.Collector
	tracer     trace.Tracer
	logger     logrus.FieldLogger
}

// NewForecastService creates the orchestrator. collector may be nil.
func NewForecastService(cfg config.ForecastConfig, collector *metrics.Collector, logger logrus.FieldLogger) *ForecastService {
	return &ForecastService{
		cfg:        cfg,
		calculator: confidence.NewCalculator(),
		engine:     recommendation.NewEngine(),
		collector:  collector,
		tracer:     telemetry.GetForecastTracer(),
		logger:     logger.WithField("component", "forecast_service"),
	}
}

// Engine exposes the recommendation engine for recommendation-only callers.
func (s *ForecastService) Engine() *recommendation.Engine {
	return s.engine
}

// ResolveScenario applies the configured default to an empty scenario.
func (s *ForecastService) ResolveScenario(raw string) (recommendation.Scenario, error) {
	if raw == "" {
		raw = s.cfg.DefaultScenario
	}
	return recommendation.ParseScenario(raw)
}

// ResolveModel applies the configured default to an empty model key.
func (s *ForecastService) ResolveModel(raw string) string {
	if raw == "" {
		return s.cfg.DefaultModel
	}
	return raw
}

// GenerateForecast runs the full pipeline over one price history.
func (s *ForecastService) GenerateForecast(ctx context.Context, req ForecastRequest) (*ForecastResponse, error) {
	if len(req.Prices) == 0 || len(req.Dates) == 0 {
		return nil, utils.NewEmptyInputError("price history and dates must not be empty")
	}
	if len(req.Prices) != len(req.Dates) {
		return nil, utils.NewLengthMismatchError(len(req.Prices), len(req.Dates))
	}
	for i, p := range req.Prices {
		if p < 0 || !isFinite(p) {
			return nil, utils.NewValidationErrorf("price at index %d must be a finite non-negative number", i)
		}
	}

	scenario, err := s.ResolveScenario(req.Scenario)
	if err != nil {
		return nil, err
	}
	model := s.ResolveModel(req.Model)

	_, span := s.tracer.Start(ctx, "forecast.generate", trace.WithAttributes(
		attribute.String("forecast.model", model),
		attribute.String("forecast.scenario", string(scenario)),
		attribute.Int("forecast.days", req.ForecastDays),
		attribute.Int("forecast.history_points", len(req.Prices)),
	))
	defer span.End()

	result, err := forecast.New(model).Predict(req.Prices, req.Dates, req.ForecastDays)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction failed")
		return nil, err
	}

	volatility := forecast.CoefficientOfVariation(req.Prices)

	// No realized future exists at request time, so model quality is scored
	// against a fixed MAPE.
	mape := s.cfg.PlaceholderMAPE
	s.logger.WithFields(logrus.Fields{
		"mape":        mape,
		"placeholder": true,
	}).Debug("Scoring model quality with placeholder MAPE")

	conf := s.calculator.Calculate(req.Prices, mape, confidence.Inputs{})

	forecast7d, forecast30d := horizonPoints(result)
	current := req.Prices[len(req.Prices)-1]

	rec := s.engine.Generate(recommendation.Input{
		CurrentPrice: current,
		Forecast7D:   forecast7d,
		Forecast30D:  forecast30d,
		Confidence:   conf.FinalConfidence,
		Volatility:   volatility,
	}, scenario)

	// Finite inputs near the float64 limit still overflow the fit and the
	// volatility sums.
	if !isFinite(volatility, conf.FinalConfidence, rec.Percentage) || !isFinite(result.Predictions...) {
		err := utils.NewValidationError("price history magnitude is too large to forecast")
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-finite forecast")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("forecast.trend", string(result.Trend)),
		attribute.String("recommendation.action", string(rec.Action)),
		attribute.Float64("confidence.value", conf.FinalConfidence),
	)

	if s.collector != nil {
		s.collector.RecordForecast(model, string(scenario), string(rec.Action),
			time.Duration(result.InferenceTime*float64(time.Second)))
	}

	s.logger.WithFields(logrus.Fields{
		"model":      result.ModelName,
		"scenario":   scenario,
		"days":       req.ForecastDays,
		"trend":      result.Trend,
		"action":     rec.Action,
		"confidence": conf.FinalConfidence,
	}).Info("Forecast generated")

	return buildResponse(result, conf, rec, current, req.ForecastDays), nil
}

// horizonPoints picks the 7-day point (or the last one for short horizons)
// and the 30-day point, extrapolating the latter from the trend when the
// horizon is shorter than 30 days.
func horizonPoints(result *forecast.Result) (float64, float64) {
	preds := result.Predictions
	f7 := preds[min(shortHorizonIndex, len(preds)-1)]

	if len(preds) > longHorizonIndex {
		return f7, preds[longHorizonIndex]
	}

	switch result.Trend {
	case forecast.TrendUp:
		return f7, f7 * trendUpFactor
	case forecast.TrendDown:
		return f7, f7 * trendDownFactor
	default:
		return f7, f7
	}
}

func buildResponse(result *forecast.Result, conf confidence.Components, rec recommendation.Recommendation, current float64, days int) *ForecastResponse {
	predictions := make([]float64, len(result.Predictions))
	for i, p := range result.Predictions {
		predictions[i] = roundTo(p, 2)
	}

	rec.Percentage = roundTo(rec.Percentage, 1)
	rec.Confidence = roundTo(rec.Confidence, 3)

	return &ForecastResponse{
		Forecast: ForecastBlock{
			Predictions: predictions,
			Dates:       result.Dates,
			Trend:       result.Trend,
			PeriodDays:  days,
		},
		Metrics: ModelMetrics{
			InferenceTime: roundTo(result.InferenceTime, 4),
			ModelName:     result.ModelName,
		},
		Confidence: ConfidenceBlock{
			Value: roundTo(conf.FinalConfidence, 3),
			Level: conf.Level,
			Components: ConfidenceComponents{
				DataQuality:     roundTo(conf.DataQuality, 3),
				ModelQuality:    roundTo(conf.ModelQuality, 3),
				ExternalFactors: roundTo(conf.ExternalFactors, 3),
			},
		},
		Recommendation: rec,
		CurrentPrice:   roundTo(current, 2),
	}
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// roundTo leaves NaN and Inf untouched; decimal cannot represent them.
func roundTo(v float64, places int32) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
