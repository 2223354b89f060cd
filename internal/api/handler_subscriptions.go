package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ac-maintenance-backend/internal/model"
)

type putSubscriptionRequest struct {
	Endpoint       string `json:"endpoint" binding:"required"`
	P256DH         string `json:"p256dh" binding:"required"`
	Auth           string `json:"auth" binding:"required"`
	SubdivisionIDs []uint `json:"subdivision_ids"`
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// PutSubscription creates or replaces a subscription and the subdivisions
// whose breakdowns it follows.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	sub := model.PushSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}
	if actor := principal(c); actor.UserID != 0 {
		sub.UserID = &actor.UserID
	}

	if err := h.store.UpsertSubscription(c.Request.Context(), &sub, req.SubdivisionIDs); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	h.noContent(c, h.store.DeleteSubscription(c.Request.Context(), req.Endpoint))
}

// rawQueryParam reads a query value without URL decoding; push endpoints
// are matched byte for byte.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription returns the subdivisions a subscription follows.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		badRequest(c, "endpoint is required")
		return
	}

	sub, err := h.store.GetSubscription(c.Request.Context(), raw)
	if err != nil {
		h.respondError(c, err)
		return
	}

	ids := make([]uint, len(sub.Subdivisions))
	for i, sd := range sub.Subdivisions {
		ids[i] = sd.ID
	}
	c.JSON(http.StatusOK, gin.H{"subdivision_ids": ids})
}

// GetVAPIDPublicKey returns the key browsers need to subscribe. It answers
// 503 while push alerts are disabled.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push alerts are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
