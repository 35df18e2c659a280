package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/apikeys-dashboard/src/repositories"
)

// ServiceName and Version are reported by /info
const (
	ServiceName = "apikeys-dashboard"
	Version     = "1.0.0"
)

var startTime = time.Now()

// HealthHandler handles health check requests
type HealthHandler struct {
	store   repositories.Pinger
	storeID string
}

// NewHealthHandler creates a new health handler. driver names the backing store in responses.
func NewHealthHandler(store repositories.Pinger, driver string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		storeID: driver,
	}
}

// HandleHealth returns health status with a store check
func (hh *HealthHandler) HandleHealth(c *gin.Context) {
	start := time.Now()
	err := hh.store.Ping(c.Request.Context())
	latency := time.Since(start)

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"store":  "disconnected",
			"driver": hh.storeID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"store":         "connected",
		"driver":        hh.storeID,
		"store_latency": latency.String(),
		"uptime":        time.Since(startTime).String(),
	})
}

// HandleInfo returns service information
func (hh *HealthHandler) HandleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"version": Version,
		"status":  "running",
		"uptime":  time.Since(startTime).String(),
	})
}

// HandleReady returns readiness status (for load balancers)
func (hh *HealthHandler) HandleReady(c *gin.Context) {
	if err := hh.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ready": true,
	})
}
