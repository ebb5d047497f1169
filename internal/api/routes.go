package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/irfndi/pricecast-go/internal/api/handlers"
	"github.com/irfndi/pricecast-go/internal/cache"
	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/metrics"
	"github.com/irfndi/pricecast-go/internal/middleware"
	"github.com/irfndi/pricecast-go/internal/services"
)

// Dependencies are the collaborators wired into the HTTP surface. Cache,
// Updater, Users and Redis are optional.
type Dependencies struct {
	Config    *config.Config
	Logger    logrus.FieldLogger
	Store     handlers.PriceStore
	Users     handlers.UserStore
	Forecasts *services.ForecastService
	Cache     *cache.ForecastCache
	Updater   handlers.PriceUpdateRunner
	Metrics   *metrics.Collector
	Auth      *middleware.AuthMiddleware
	DB        handlers.HealthChecker
	Redis     handlers.HealthChecker
}

// NewRouter builds the gin engine with the shared middleware chain and all routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(deps.Config.Telemetry.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestIDAttribute())
	router.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))

	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis, deps.Config.Telemetry.ServiceVersion)
	forecastHandler := handlers.NewForecastHandler(deps.Forecasts, deps.Store, deps.Cache, deps.Metrics, deps.Config.Forecast, deps.Logger)
	catalogHandler := handlers.NewCatalogHandler(deps.Store)

	router.GET("/health", healthHandler.HealthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		if deps.Users != nil {
			authHandler := handlers.NewAuthHandler(deps.Users, deps.Auth, deps.Config.Security, deps.Logger)
			auth := v1.Group("/auth")
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		forecasts := v1.Group("/forecast")
		{
			forecasts.POST("", forecastHandler.CreateForecast)
			forecasts.GET("/:article", forecastHandler.GetForecast)
		}

		v1.GET("/recommendations/:article", forecastHandler.GetRecommendation)

		products := v1.Group("/products")
		{
			products.GET("", catalogHandler.ListProducts)
			products.GET("/by-category/:id", catalogHandler.ListProductsByCategory)
			products.GET("/:article", catalogHandler.GetProduct)
			products.GET("/:article/backtest", forecastHandler.Backtest)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", catalogHandler.ListCategories)
			categories.GET("/tree", catalogHandler.CategoryTree)
			categories.GET("/:id", catalogHandler.GetCategory)
		}

		history := v1.Group("/price-history")
		{
			history.GET("/product/:id", catalogHandler.ProductPriceHistory)
			history.GET("/latest", catalogHandler.LatestPrices)
		}

		var cacheHandler *handlers.CacheHandler
		if deps.Cache != nil {
			cacheHandler = handlers.NewCacheHandler(deps.Cache)
			v1.GET("/cache/stats", cacheHandler.GetCacheStats)
		}

		admin := v1.Group("/admin", deps.Auth.AdminChain()...)
		{
			if deps.Updater != nil {
				adminHandler := handlers.NewAdminHandler(deps.Updater, deps.Logger)
				admin.POST("/prices/update", adminHandler.UpdatePrices)
			}
			if cacheHandler != nil {
				admin.DELETE("/cache", cacheHandler.ClearCache)
				admin.DELETE("/cache/:article", cacheHandler.InvalidateArticle)
			}
		}
	}
}
