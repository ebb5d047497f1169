package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/pricecast-go/internal/api"
	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/database"
	"github.com/irfndi/pricecast-go/internal/metrics"
)

func TestNewHTTPServer(t *testing.T) {
	handler := http.NewServeMux()
	srv := newHTTPServer(8080, handler)

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, handler, srv.Handler)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}

func TestGinModeFor(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, ginModeFor("production"))
	assert.Equal(t, gin.ReleaseMode, ginModeFor("PRODUCTION"))
	assert.Equal(t, gin.TestMode, ginModeFor("test"))
	assert.Equal(t, gin.DebugMode, ginModeFor("development"))
	assert.Equal(t, gin.DebugMode, ginModeFor(""))
}

func TestNewPriceUpdater(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		PriceUpdater: config.PriceUpdaterConfig{
			Schedule:    "0 0 * * *",
			Marketplace: "wildberries",
			Marketplaces: map[string]config.MarketplaceConfig{
				"wildberries": {URLTemplate: "https://example.test/%s", Selector: ".price"},
			},
		},
	}
	repo := database.NewPriceRepository(nil)
	deps := api.Dependencies{Metrics: metrics.NewCollector()}

	updater, err := newPriceUpdater(cfg, repo, deps, logger)
	require.NoError(t, err)
	assert.NotNil(t, updater)

	cfg.PriceUpdater.Marketplace = "amazon"
	_, err = newPriceUpdater(cfg, repo, deps, logger)
	assert.Error(t, err)
}
