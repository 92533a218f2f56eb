package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// GetDeviceEvents handles GET /api/devices/:id/events?limit=N.
func (h *Handler) GetDeviceEvents(c *gin.Context) {
	if h.history == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	limit := defaultEventLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.history.RecentEvents(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		log.Error().Err(err).Str("device", c.Param("id")).Msg("failed to load device events")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}
	c.JSON(http.StatusOK, events)
}
