package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"ac-maintenance-backend/internal/model"
)

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

type subdivisionRequest struct {
	Name       string `json:"name" binding:"required"`
	DivisionID uint   `json:"division_id" binding:"required"`
}

type stationRequest struct {
	Name          string `json:"name" binding:"required"`
	DivisionID    uint   `json:"division_id"`
	SubdivisionID uint   `json:"subdivision_id" binding:"required"`
}

type capacityRequest struct {
	Tonnage decimal.Decimal `json:"tonnage"`
}

type refrigerantRequest struct {
	Type string `json:"type" binding:"required"`
}

type checklistItemRequest struct {
	Description     string                `json:"description" binding:"required"`
	MaintenanceType model.MaintenanceType `json:"maintenance_type" binding:"required"`
}

// reply writes v as 200 JSON, or the error.
func (h *Handler) reply(c *gin.Context, v any, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// created writes v as 201 JSON, or the error.
func (h *Handler) created(c *gin.Context, v any, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) noContent(c *gin.Context, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- divisions ---

func (h *Handler) ListDivisions(c *gin.Context) {
	divisions, err := h.store.ListDivisions(c.Request.Context())
	h.reply(c, divisions, err)
}

func (h *Handler) GetDivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.store.GetDivision(c.Request.Context(), id)
	h.reply(c, d, err)
}

func (h *Handler) CreateDivision(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	d := model.Division{Name: req.Name}
	h.created(c, &d, h.store.CreateDivision(c.Request.Context(), &d))
}

func (h *Handler) RenameDivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	d, err := h.store.RenameDivision(c.Request.Context(), id, req.Name)
	h.reply(c, d, err)
}

func (h *Handler) DeleteDivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeactivateDivision(c.Request.Context(), id))
}

// --- subdivisions ---

func (h *Handler) ListSubdivisions(c *gin.Context) {
	divisionID, err := uintQuery(c, "division_id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	subs, err := h.store.ListSubdivisions(c.Request.Context(), divisionID)
	h.reply(c, subs, err)
}

func (h *Handler) SubdivisionsByDivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	subs, err := h.store.ListSubdivisions(c.Request.Context(), &id)
	h.reply(c, subs, err)
}

func (h *Handler) GetSubdivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sd, err := h.store.GetSubdivision(c.Request.Context(), id)
	h.reply(c, sd, err)
}

func (h *Handler) CreateSubdivision(c *gin.Context) {
	var req subdivisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sd := model.Subdivision{Name: req.Name, DivisionID: req.DivisionID}
	h.created(c, &sd, h.store.CreateSubdivision(c.Request.Context(), &sd))
}

func (h *Handler) RenameSubdivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sd, err := h.store.RenameSubdivision(c.Request.Context(), id, req.Name)
	h.reply(c, sd, err)
}

func (h *Handler) DeleteSubdivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeactivateSubdivision(c.Request.Context(), id))
}

// --- stations ---

func (h *Handler) ListStations(c *gin.Context) {
	subdivisionID, err := uintQuery(c, "subdivision_id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	stations, err := h.store.ListStations(c.Request.Context(), subdivisionID)
	h.reply(c, stations, err)
}

func (h *Handler) StationsBySubdivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	stations, err := h.store.ListStations(c.Request.Context(), &id)
	h.reply(c, stations, err)
}

func (h *Handler) CreateStation(c *gin.Context) {
	var req stationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	st := model.Station{Name: req.Name, DivisionID: req.DivisionID, SubdivisionID: req.SubdivisionID}
	h.created(c, &st, h.store.CreateStation(c.Request.Context(), &st))
}

func (h *Handler) RenameStation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	st, err := h.store.RenameStation(c.Request.Context(), id, req.Name)
	h.reply(c, st, err)
}

func (h *Handler) DeleteStation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeactivateStation(c.Request.Context(), id))
}

// --- equipment catalogs ---

func (h *Handler) ListMakes(c *gin.Context) {
	makes, err := h.store.ListMakes(c.Request.Context())
	h.reply(c, makes, err)
}

func (h *Handler) CreateMake(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m := model.Make{Name: req.Name}
	h.created(c, &m, h.store.CreateMake(c.Request.Context(), &m))
}

func (h *Handler) RenameMake(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m, err := h.store.RenameMake(c.Request.Context(), id, req.Name)
	h.reply(c, m, err)
}

// DeleteMake removes the make and every air conditioner of that make.
func (h *Handler) DeleteMake(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeleteMake(c.Request.Context(), id))
}

func (h *Handler) ListCapacities(c *gin.Context) {
	capacities, err := h.store.ListCapacities(c.Request.Context())
	h.reply(c, capacities, err)
}

func (h *Handler) CreateCapacity(c *gin.Context) {
	var req capacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	cp := model.Capacity{Tonnage: req.Tonnage}
	h.created(c, &cp, h.store.CreateCapacity(c.Request.Context(), &cp))
}

func (h *Handler) DeleteCapacity(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeleteCapacity(c.Request.Context(), id))
}

func (h *Handler) ListRefrigerants(c *gin.Context) {
	refrigerants, err := h.store.ListRefrigerants(c.Request.Context())
	h.reply(c, refrigerants, err)
}

func (h *Handler) CreateRefrigerant(c *gin.Context) {
	var req refrigerantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	r := model.Refrigerant{Type: req.Type}
	h.created(c, &r, h.store.CreateRefrigerant(c.Request.Context(), &r))
}

func (h *Handler) DeleteRefrigerant(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeleteRefrigerant(c.Request.Context(), id))
}

// --- checklist items ---

func (h *Handler) ListChecklistItems(c *gin.Context) {
	t, err := typeQuery(c, "maintenance_type")
	if err != nil {
		h.respondError(c, err)
		return
	}
	items, err := h.store.ListChecklistItems(c.Request.Context(), t)
	h.reply(c, items, err)
}

func (h *Handler) CreateChecklistItem(c *gin.Context) {
	var req checklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	item := model.ChecklistItem{Description: req.Description, MaintenanceType: req.MaintenanceType}
	h.created(c, &item, h.store.CreateChecklistItem(c.Request.Context(), &item))
}

func (h *Handler) DeleteChecklistItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeactivateChecklistItem(c.Request.Context(), id))
}

func (h *Handler) DropdownData(c *gin.Context) {
	data, err := h.store.DropdownData(c.Request.Context())
	h.reply(c, data, err)
}
