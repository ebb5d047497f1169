package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var startTime = time.Now()

const healthCheckTimeout = 3 * time.Second

type HealthHandler struct {
	db      HealthChecker
	redis   HealthChecker
	version string
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Host      HostStats         `json:"host"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
}

// HostStats is a snapshot of the machine the service runs on. Fields stay
// zero when the platform does not expose them.
type HostStats struct {
	MemoryUsedPercent float64 `json:"memory_used_percent"`
	CPUPercent        float64 `json:"cpu_percent"`
	Goroutines        int     `json:"goroutines"`
}

// NewHealthHandler creates the handler. A nil redis checker means the cache
// is disabled and is not reported as a failure.
func NewHealthHandler(db, redis HealthChecker, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		version: version,
	}
}

// HealthCheck handles GET /health. A failing database makes the service
// unhealthy; a failing cache only degrades it.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if h.db == nil {
		services["database"] = "unhealthy: not configured"
		status = "unhealthy"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		services["database"] = "healthy"
	}

	if h.redis == nil {
		services["redis"] = "disabled"
	} else if err := h.redis.HealthCheck(ctx); err != nil {
		services["redis"] = "unhealthy: " + err.Error()
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		services["redis"] = "healthy"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Host:      hostStats(ctx),
		Version:   h.version,
		Uptime:    time.Since(startTime).String(),
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func hostStats(ctx context.Context) HostStats {
	stats := HostStats{Goroutines: runtime.NumGoroutine()}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryUsedPercent = vm.UsedPercent
	}
	// A zero interval compares against the previous call and does not block.
	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}
	return stats
}
