package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/roomtin/hyprconnect/config"
	"github.com/roomtin/hyprconnect/internal/mw"
)

// NewRouter creates and configures the loopback status API. metrics may be
// nil.
func NewRouter(h *Handler, cfg config.HTTPConfig, metrics http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	// Snapshot reads are cached briefly; a poll cycle is at least 10s apart.
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/state", caching, h.GetState)
		api.GET("/summary", caching, h.GetSummary)
		api.GET("/health", h.GetHealth)
		api.GET("/devices/:id", caching, h.GetDevice)
		api.GET("/devices/:id/events", h.GetDeviceEvents)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}
