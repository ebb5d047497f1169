package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/pricecast-go/internal/cache"
	"github.com/irfndi/pricecast-go/internal/testutil"
)

func TestCacheHandler(t *testing.T) {
	_, client := testutil.NewMiniRedis(t)

	fc := cache.NewForecastCache(client, time.Minute, quietLogger())
	ctx := context.Background()
	require.NoError(t, fc.Set(ctx, cache.ForecastKey{Article: "111", Days: 7, Scenario: "optimist", Model: "linear"}, map[string]bool{"ok": true}))
	require.NoError(t, fc.Set(ctx, cache.ForecastKey{Article: "111", Days: 30, Scenario: "optimist", Model: "linear"}, map[string]bool{"ok": true}))
	require.NoError(t, fc.Set(ctx, cache.ForecastKey{Article: "222", Days: 7, Scenario: "pessimist", Model: "naive"}, map[string]bool{"ok": true}))

	h := NewCacheHandler(fc)
	router := newTestRouter()
	router.GET("/cache/stats", h.GetCacheStats)
	router.DELETE("/admin/cache/:article", h.InvalidateArticle)
	router.DELETE("/admin/cache", h.ClearCache)

	w := performRequest(router, http.MethodGet, "/cache/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.ElementsMatch(t, []interface{}{"111", "222"}, data["cached_articles"])

	w = performRequest(router, http.MethodDelete, "/admin/cache/111", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decodeBody(t, w)["removed"])

	w = performRequest(router, http.MethodDelete, "/admin/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	articles, err := fc.CachedArticles(ctx)
	require.NoError(t, err)
	assert.Empty(t, articles)
}
