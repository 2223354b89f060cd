package api

import (
	"github.com/gin-gonic/gin"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
)

type vehicleRequest struct {
	VIN               string `json:"vin" binding:"required"`
	RegistrationNo    string `json:"registration_no"`
	Model             string `json:"model"`
	AssignedDriverID  *uint  `json:"assigned_driver_id"`
	ServicePeriodDays int    `json:"service_period_days"`
}

type assignRequest struct {
	DriverID uint   `json:"driver_id" binding:"required"`
	Reason   string `json:"reason"`
}

type transferRequest struct {
	VehicleID  uint   `json:"vehicle_id" binding:"required"`
	ToDriverID uint   `json:"to_driver_id" binding:"required"`
	Reason     string `json:"reason"`
}

type runRequest struct {
	VehicleID uint        `json:"vehicle_id" binding:"required"`
	DriverID  *uint       `json:"driver_id"`
	Date      *model.Date `json:"date"`
	Minutes   int         `json:"run_duration_minutes"`
	Notes     string      `json:"notes"`
}

type serviceRequest struct {
	VehicleID       uint        `json:"vehicle_id" binding:"required"`
	ServicedAt      *model.Date `json:"serviced_at"`
	DurationMinutes int         `json:"service_duration_minutes"`
	Notes           string      `json:"notes"`
	PeriodDays      *int        `json:"service_period_days"`
}

func (h *Handler) CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := h.store.CreateVehicle(c.Request.Context(), store.NewVehicle(req))
	h.created(c, v, err)
}

// ListVehicles lists active vehicles. Drivers only see their own.
func (h *Handler) ListVehicles(c *gin.Context) {
	driverID, err := uintQuery(c, "driver_id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if actor := principal(c); actor.Role == model.RoleDriver {
		driverID = &actor.UserID
	}
	vehicles, err := h.store.ListVehicles(c.Request.Context(), driverID)
	h.reply(c, vehicles, err)
}

func (h *Handler) GetVehicle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	v, err := h.store.GetVehicle(c.Request.Context(), id)
	if err == nil {
		actor := principal(c)
		if actor.Role == model.RoleDriver && (v.AssignedDriverID == nil || *v.AssignedDriverID != actor.UserID) {
			err = apperr.Forbidden("vehicle is not assigned to you")
		}
	}
	h.reply(c, v, err)
}

func (h *Handler) AssignVehicle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := h.store.AssignVehicle(c.Request.Context(), principal(c), id, req.DriverID, req.Reason)
	h.reply(c, v, err)
}

// TransferVehicle moves an assigned vehicle to another driver.
func (h *Handler) TransferVehicle(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	log, err := h.store.TransferVehicle(c.Request.Context(), principal(c), req.VehicleID, req.ToDriverID, req.Reason)
	h.created(c, log, err)
}

func (h *Handler) ListTransfers(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	logs, err := h.store.ListTransfers(c.Request.Context(), id)
	h.reply(c, logs, err)
}

func (h *Handler) RecordRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	run, err := h.store.RecordRun(c.Request.Context(), principal(c), store.NewRun(req))
	h.created(c, run, err)
}

func (h *Handler) RecordService(c *gin.Context) {
	var req serviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	rec, err := h.store.RecordService(c.Request.Context(), principal(c), store.NewService(req))
	h.created(c, rec, err)
}

func (h *Handler) DeleteServiceRecord(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeleteServiceRecord(c.Request.Context(), id))
}
