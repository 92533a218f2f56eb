package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/roomtin/hyprconnect/internal/model"
	"github.com/roomtin/hyprconnect/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint          string   `json:"endpoint" binding:"required"`
	P256DH            string   `json:"p256dh" binding:"required"`
	Auth              string   `json:"auth" binding:"required"`
	SubscribedDevices []string `json:"subscribed_devices"`
}

// PutSubscription handles the creation or replacement of a subscription.
func (h *Handler) PutSubscription(c *gin.Context) {
	if h.history == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if err := h.history.SaveSubscription(c.Request.Context(), sub, req.SubscribedDevices); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	if h.history == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.history.DeleteSubscription(c.Request.Context(), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetSubscription handles the retrieval of a subscription's device list.
func (h *Handler) GetSubscription(c *gin.Context) {
	if h.history == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}

	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	ids, err := h.history.SubscribedDevices(c.Request.Context(), endpoint)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscribed_devices": ids})
}

// GetVAPIDPublicKey returns the application server key browsers pass to
// PushManager.subscribe. Push delivery needs the keys and the history DB.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if !h.pushEnabled() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "web push is not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"public_key":  h.webpush.VAPIDPublicKey,
		"ttl_seconds": h.webpush.TTL,
	})
}

func (h *Handler) pushEnabled() bool {
	return h.webpush != nil && h.webpush.VAPIDPublicKey != "" && h.history != nil
}
