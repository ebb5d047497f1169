package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/pricecast-go/internal/cache"
	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/evaluation"
	"github.com/irfndi/pricecast-go/internal/forecast"
	"github.com/irfndi/pricecast-go/internal/metrics"
	"github.com/irfndi/pricecast-go/internal/middleware"
	"github.com/irfndi/pricecast-go/internal/models"
	"github.com/irfndi/pricecast-go/internal/recommendation"
	"github.com/irfndi/pricecast-go/internal/services"
	"github.com/irfndi/pricecast-go/internal/utils"
)

const (
	defaultRecommendationPeriod = 30
	maxRecommendationPeriod     = 365
	recommendationHorizon       = 30
	defaultBacktestDays         = 7
)

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ForecastHandler serves the forecast, recommendation and backtest endpoints.
type ForecastHandler struct {
	service   *services.ForecastService
	store     PriceStore
	cache     *cache.ForecastCache
	collector *metrics.Collector
	cfg       config.ForecastConfig
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewForecastHandler creates the handler. cache and collector may be nil.
func NewForecastHandler(service *services.ForecastService, store PriceStore, forecastCache *cache.ForecastCache,
	collector *metrics.Collector, cfg config.ForecastConfig, logger logrus.FieldLogger) *ForecastHandler {
	return &ForecastHandler{
		service:   service,
		store:     store,
		cache:     forecastCache,
		collector: collector,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// ForecastRequest is the body of POST /forecast.
type ForecastRequest struct {
	PriceHistory []float64 `json:"price_history"`
	Dates        []string  `json:"dates"`
	Scenario     string    `json:"scenario"`
	ForecastDays int       `json:"forecast_days"`
	Model        string    `json:"model"`
}

// ArticleForecastResponse is a forecast over stored history.
type ArticleForecastResponse struct {
	services.ForecastResponse
	Product       models.ProductSummary `json:"product"`
	HistoryPoints int                   `json:"history_points"`
	Cached        bool                  `json:"cached"`
}

// RecommendationResponse is the body of GET /recommendations/:article.
type RecommendationResponse struct {
	Product        models.ProductSummary         `json:"product"`
	PeriodDays     int                           `json:"period_days"`
	HistoryPoints  int                           `json:"history_points"`
	Recommendation recommendation.Recommendation `json:"recommendation"`
}

// BacktestResponse is the body of GET /products/:article/backtest.
type BacktestResponse struct {
	Product models.ProductSummary      `json:"product"`
	Result  *evaluation.BacktestResult `json:"result"`
}

// CreateForecast handles POST /forecast over a caller-supplied history.
func (h *ForecastHandler) CreateForecast(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	days := req.ForecastDays
	if days == 0 {
		days = h.cfg.DefaultDays
	}
	if days < 0 || days > h.cfg.MaxDays {
		respondError(c, utils.NewValidationErrorf("forecast_days must be in 1..%d", h.cfg.MaxDays))
		return
	}

	dates, err := parseDates(req.Dates)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.service.GenerateForecast(c.Request.Context(), services.ForecastRequest{
		Prices:       req.PriceHistory,
		Dates:        dates,
		Scenario:     req.Scenario,
		ForecastDays: days,
		Model:        req.Model,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetForecast handles GET /forecast/:article over the stored history.
func (h *ForecastHandler) GetForecast(c *gin.Context) {
	ctx := c.Request.Context()
	article := strings.TrimSpace(c.Param("article"))

	days, err := intQuery(c, "days", h.cfg.DefaultDays, h.cfg.MaxDays)
	if err != nil {
		respondError(c, err)
		return
	}
	scenario, err := h.service.ResolveScenario(c.Query("scenario"))
	if err != nil {
		respondError(c, err)
		return
	}
	model := h.service.ResolveModel(c.Query("model"))

	key := cache.ForecastKey{Article: article, Days: days, Scenario: string(scenario), Model: model}
	middleware.AddSpanAttribute(c, "forecast.article", article)

	if h.cache != nil {
		var cached ArticleForecastResponse
		hit := h.cache.Get(ctx, key, &cached)
		h.recordCacheLookup(hit)
		if hit {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	product, err := h.store.GetProductByArticle(ctx, article)
	if err != nil {
		respondError(c, err)
		return
	}

	since := h.now().AddDate(0, 0, -h.cfg.HistoryLookbackDays)
	history, err := h.store.GetPriceHistorySince(ctx, product.ID, since)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(history) < h.cfg.MinHistoryPoints {
		respondError(c, utils.NewInsufficientDataError("forecast", h.cfg.MinHistoryPoints, len(history)))
		return
	}

	prices, dates := models.SplitObservations(history)
	result, err := h.service.GenerateForecast(ctx, services.ForecastRequest{
		Prices:       prices,
		Dates:        dates,
		Scenario:     string(scenario),
		ForecastDays: days,
		Model:        model,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ArticleForecastResponse{
		ForecastResponse: *result,
		Product:          product.Summary(),
		HistoryPoints:    len(history),
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, resp); err != nil {
			h.logger.WithError(err).WithField("article", article).Warn("Failed to cache forecast")
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetRecommendation handles GET /recommendations/:article. Without history it
// answers with the fallback hold recommendation.
func (h *ForecastHandler) GetRecommendation(c *gin.Context) {
	ctx := c.Request.Context()

	period, err := intQuery(c, "period", defaultRecommendationPeriod, maxRecommendationPeriod)
	if err != nil {
		respondError(c, err)
		return
	}
	scenario, err := h.service.ResolveScenario(c.Query("scenario"))
	if err != nil {
		respondError(c, err)
		return
	}

	product, err := h.store.GetProductByArticle(ctx, c.Param("article"))
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.store.GetPriceHistorySince(ctx, product.ID, h.now().AddDate(0, 0, -period))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := RecommendationResponse{
		Product:        product.Summary(),
		PeriodDays:     period,
		HistoryPoints:  len(history),
		Recommendation: recommendation.Fallback(scenario),
	}

	if len(history) > 0 {
		prices, dates := models.SplitObservations(history)
		result, err := h.service.GenerateForecast(ctx, services.ForecastRequest{
			Prices:       prices,
			Dates:        dates,
			Scenario:     string(scenario),
			ForecastDays: recommendationHorizon,
		})
		switch {
		case err == nil:
			resp.Recommendation = result.Recommendation
		case errors.Is(err, utils.ErrInsufficientData):
			h.logger.WithField("article", product.Article).Debug("History too short, using fallback recommendation")
		default:
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Backtest handles GET /products/:article/backtest.
func (h *ForecastHandler) Backtest(c *gin.Context) {
	ctx := c.Request.Context()

	testDays, err := intQuery(c, "test_days", defaultBacktestDays, h.cfg.MaxDays)
	if err != nil {
		respondError(c, err)
		return
	}
	model := h.service.ResolveModel(c.Query("model"))

	product, err := h.store.GetProductByArticle(ctx, c.Param("article"))
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.store.GetPriceHistory(ctx, product.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	prices, dates := models.SplitObservations(history)
	result, err := evaluation.Backtest(forecast.New(model), prices, dates, testDays)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, BacktestResponse{Product: product.Summary(), Result: result})
}

func (h *ForecastHandler) recordCacheLookup(hit bool) {
	if h.collector != nil {
		h.collector.RecordCacheLookup(hit)
	}
}

func parseDates(raw []string) ([]time.Time, error) {
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := parseDate(s)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, utils.NewValidationErrorf("invalid date %q", s)
}
