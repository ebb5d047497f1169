package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/pricecast-go/internal/cache"
)

// ForecastCacheInterface defines the cache operations exposed over HTTP
type ForecastCacheInterface interface {
	Stats() cache.ForecastCacheStats
	HitRate() float64
	CachedArticles(ctx context.Context) ([]string, error)
	InvalidateArticle(ctx context.Context, article string) (int, error)
	Clear(ctx context.Context) error
}

// CacheHandler handles forecast cache monitoring endpoints
type CacheHandler struct {
	cache ForecastCacheInterface
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(forecastCache ForecastCacheInterface) *CacheHandler {
	return &CacheHandler{cache: forecastCache}
}

// GetCacheStats returns forecast cache statistics
// @Summary Get forecast cache statistics
// @Tags cache
// @Produce json
// @Router /api/v1/cache/stats [get]
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	articles, err := h.cache.CachedArticles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"stats":           h.cache.Stats(),
			"hit_rate":        h.cache.HitRate(),
			"cached_articles": articles,
		},
	})
}

// InvalidateArticle drops every cached forecast of one article
// @Summary Invalidate cached forecasts of an article
// @Tags cache
// @Param article path string true "Product article"
// @Router /api/v1/admin/cache/:article [delete]
func (h *CacheHandler) InvalidateArticle(c *gin.Context) {
	removed, err := h.cache.InvalidateArticle(c.Request.Context(), c.Param("article"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})
}

// ClearCache removes every cached forecast
// @Summary Clear the forecast cache
// @Tags cache
// @Router /api/v1/admin/cache [delete]
func (h *CacheHandler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Forecast cache cleared"})
}
