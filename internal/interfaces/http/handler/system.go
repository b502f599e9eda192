package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/fishfarm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger is a dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	name       string
	version    string
	startTime  time.Time
	components map[string]Pinger
	timeout    time.Duration
}

// NewSystemHandler creates a new SystemHandler. components are probed by
// Health under their map key.
func NewSystemHandler(name, version string, components map[string]Pinger) *SystemHandler {
	return &SystemHandler{
		name:       name,
		version:    version,
		startTime:  time.Now(),
		components: components,
		timeout:    2 * time.Second,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse reports the state of each probed component
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// GetSystemInfo returns name, version and uptime
// GET /api/v1/system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health probes every component; any failure answers 503
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status:     "healthy",
		Components: make(map[string]string, len(h.components)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	for name, p := range h.components {
		if err := p.Ping(ctx); err != nil {
			resp.Components[name] = "unhealthy: " + err.Error()
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "healthy"
	}

	if status != http.StatusOK {
		c.JSON(status, dto.Response{Success: false, Data: resp})
		return
	}
	h.Success(c, resp)
}
