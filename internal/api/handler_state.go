package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roomtin/hyprconnect/internal/summary"
)

// GetState handles GET /api/state.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.states.Read())
}

// GetDevice handles GET /api/devices/:id.
func (h *Handler) GetDevice(c *gin.Context) {
	d, ok := h.states.Read().Device(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetSummary handles GET /api/summary with the status-bar payload.
func (h *Handler) GetSummary(c *gin.Context) {
	c.JSON(http.StatusOK, summary.Build(h.states.Read(), h.thresholds))
}

// GetHealth handles GET /api/health. Plugin support is probed on the first
// reachable device.
func (h *Handler) GetHealth(c *gin.Context) {
	if h.health == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "health checks are not configured"})
		return
	}

	var deviceID string
	for _, d := range h.states.Read().Devices {
		if d.Reachable {
			deviceID = d.ID
			break
		}
	}

	rep := h.health.Run(c.Request.Context(), deviceID)
	status := http.StatusOK
	if !rep.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, rep)
}
