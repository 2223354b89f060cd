// Package api exposes the maintenance service over HTTP.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/lifecycle"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/mw"
	"ac-maintenance-backend/internal/notification"
	"ac-maintenance-backend/internal/report"
	"ac-maintenance-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	auth    *auth.Service
	reports *report.Service
	alerts  notification.Dispatcher
	webpush *webpush.Options
	logger  *zap.Logger
}

// Deps lists what NewHandler needs. Alerts and WebPush are nil when push
// notifications are disabled.
type Deps struct {
	Store   store.Store
	Auth    *auth.Service
	Reports *report.Service
	Alerts  notification.Dispatcher
	WebPush *webpush.Options
	Logger  *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   d.Store,
		auth:    d.Auth,
		reports: d.Reports,
		alerts:  d.Alerts,
		webpush: d.WebPush,
		logger:  logger,
	}
}

// respondError writes err as {"error": message} with the status of its kind.
// Internal errors are logged and hidden from the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	var status int
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindUnauthenticated:
		status = http.StatusUnauthorized
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// principal returns the authenticated caller. Routes using it sit behind
// mw.Authenticate.
func principal(c *gin.Context) auth.Principal {
	p, _ := mw.CurrentPrincipal(c)
	return p
}

// idParam parses a positive integer path parameter, writing 400 on failure.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func uintQuery(c *gin.Context, key string) (*uint, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation("invalid %s", key)
	}
	id := uint(v)
	return &id, nil
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Validation("invalid %s", key)
	}
	return v, nil
}

func boolQuery(c *gin.Context, key string) (*bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s", key)
	}
	return &v, nil
}

func dateQuery(c *gin.Context, key string) (*model.Date, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("invalid %s: %v", key, err)
	}
	return &d, nil
}

func typeQuery(c *gin.Context, key string) (*model.MaintenanceType, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return nil, nil
	}
	t := model.MaintenanceType(raw)
	if lifecycle.ValidType(t) {
		return &t, nil
	}
	return nil, apperr.Validation("unknown maintenance type %q", raw)
}
