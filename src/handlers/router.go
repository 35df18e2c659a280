package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/khabaroff/apikeys-dashboard/src/middleware"
	"github.com/khabaroff/apikeys-dashboard/src/repositories"
	"github.com/khabaroff/apikeys-dashboard/src/services"
)

// RouterDeps wires the handlers into a gin engine
type RouterDeps struct {
	Keys      KeyManager
	Generator services.Generator
	Store     repositories.Pinger
	Driver    string

	// DashboardSecret protects /keys management. Empty disables the check.
	DashboardSecret string
	// RequireKeyForGenerate gates /api/generate behind a VALID API key
	RequireKeyForGenerate bool
	// Limiter throttles validate and generate per client IP. Nil disables it.
	Limiter *middleware.IPRateLimiter
	// Metrics serves /metrics. Nil uses the default Prometheus registry.
	Metrics http.Handler
}

// RegisterRoutes sets up all HTTP routes
func RegisterRoutes(router *gin.Engine, deps RouterDeps) {
	healthHandler := NewHealthHandler(deps.Store, deps.Driver)
	keysHandler := NewKeysHandler(deps.Keys)
	generateHandler := NewGenerateHandler(deps.Generator)

	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)
	router.GET("/info", healthHandler.HandleInfo)

	metricsHandler := deps.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.GET("/metrics", gin.WrapH(metricsHandler))

	throttled := []gin.HandlerFunc{}
	if deps.Limiter != nil {
		throttled = append(throttled, deps.Limiter.Middleware())
	}

	// Validation is called by clients holding a key, not by the dashboard
	router.POST("/keys/validate", append(throttled, keysHandler.HandleValidate)...)

	keys := router.Group("/keys")
	keys.Use(middleware.DashboardAuth(deps.DashboardSecret))
	{
		keys.POST("", keysHandler.HandleGenerate)
		keys.GET("", keysHandler.HandleList)
		keys.DELETE("/:id", keysHandler.HandleDeactivate)
	}

	api := router.Group("/api")
	api.Use(throttled...)
	if deps.RequireKeyForGenerate {
		api.Use(middleware.RequireAPIKey(deps.Keys))
	}
	{
		api.POST("/generate", generateHandler.HandleGenerate)
	}
}
