package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ac-maintenance-backend/internal/lifecycle"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
)

type partRequest struct {
	PartName string `json:"part_name"`
	Quantity int    `json:"quantity"`
	Remarks  string `json:"remarks"`
}

type checklistEntryRequest struct {
	ChecklistItemID uint `json:"checklist_item_id" binding:"required"`
	Done            bool `json:"done"`
}

type maintenanceRequest struct {
	ACID            uint                    `json:"ac_id" binding:"required"`
	MaintainerID    uint                    `json:"maintainer_id" binding:"required"`
	MaintenanceType model.MaintenanceType   `json:"maintenance_type" binding:"required"`
	MaintenanceDate *model.Date             `json:"maintenance_date"`
	WorkDone        string                  `json:"work_done"`
	IsCompleted     bool                    `json:"is_completed"`
	Parts           []partRequest           `json:"parts_replaced"`
	Checklist       []checklistEntryRequest `json:"checklist"`
}

type maintenancePatchRequest struct {
	Type            *model.MaintenanceType `json:"maintenance_type"`
	MaintenanceDate *model.Date            `json:"maintenance_date"`
	WorkDone        *string                `json:"work_done"`
	IsCompleted     *bool                  `json:"is_completed"`
	MaintainerID    *uint                  `json:"maintainer_id"`
}

type completionRequest struct {
	MaintenanceDate *model.Date             `json:"maintenance_date"`
	WorkDone        *string                 `json:"work_done"`
	Checklist       []checklistEntryRequest `json:"checklist"`
	Parts           []partRequest           `json:"parts_replaced"`
}

type partsRequest struct {
	Parts []partRequest `json:"parts_replaced" binding:"required"`
}

func toParts(in []partRequest) []model.PartsReplaced {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.PartsReplaced, len(in))
	for i, p := range in {
		out[i] = model.PartsReplaced{PartName: p.PartName, Quantity: p.Quantity, Remarks: p.Remarks}
	}
	return out
}

func toChecklist(in []checklistEntryRequest) []store.ChecklistEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]store.ChecklistEntry, len(in))
	for i, e := range in {
		out[i] = store.ChecklistEntry{ChecklistItemID: e.ChecklistItemID, Done: e.Done}
	}
	return out
}

func effectiveStatus(r *model.MaintenanceRecord, today model.Date) model.MaintenanceStatus {
	return lifecycle.EffectiveStatus(r, today)
}

// present rewrites stored statuses with the status as of today.
func (h *Handler) present(records ...*model.MaintenanceRecord) {
	today := h.store.Today()
	for _, r := range records {
		r.Status = effectiveStatus(r, today)
	}
}

func (h *Handler) maintenanceFilter(c *gin.Context) (store.MaintenanceFilter, error) {
	var (
		f   store.MaintenanceFilter
		err error
	)
	if f.ACID, err = uintQuery(c, "ac_id"); err != nil {
		return f, err
	}
	if f.MaintainerID, err = uintQuery(c, "maintainer_id"); err != nil {
		return f, err
	}
	if f.DivisionID, err = uintQuery(c, "division_id"); err != nil {
		return f, err
	}
	if f.SubdivisionID, err = uintQuery(c, "subdivision_id"); err != nil {
		return f, err
	}
	if f.Type, err = typeQuery(c, "maintenance_type"); err != nil {
		return f, err
	}
	if f.Completed, err = boolQuery(c, "is_completed"); err != nil {
		return f, err
	}
	if f.From, err = dateQuery(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = dateQuery(c, "to"); err != nil {
		return f, err
	}
	return f, narrow(principal(c), &f.DivisionID, &f.SubdivisionID)
}

// CreateMaintenance schedules or records a maintenance event. A breakdown
// queues an alert to the subdivision's subscribers.
func (h *Handler) CreateMaintenance(c *gin.Context) {
	var req maintenanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	rec, err := h.store.CreateMaintenance(c.Request.Context(), principal(c), store.NewMaintenance{
		ACID:            req.ACID,
		MaintainerID:    req.MaintainerID,
		Type:            req.MaintenanceType,
		MaintenanceDate: req.MaintenanceDate,
		WorkDone:        req.WorkDone,
		IsCompleted:     req.IsCompleted,
		Parts:           toParts(req.Parts),
		Checklist:       toChecklist(req.Checklist),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	if rec.MaintenanceType == model.MaintenanceUnscheduled && h.alerts != nil {
		if !h.alerts.Dispatch(rec.ACID) {
			h.logger.Warn("breakdown alert dropped", zap.Uint("ac_id", rec.ACID), zap.Uint("record_id", rec.ID))
		}
	}

	h.present(rec)
	c.JSON(http.StatusCreated, rec)
}

// loadVisibleRecord fetches a record whose asset the caller may see.
func (h *Handler) loadVisibleRecord(c *gin.Context) (*model.MaintenanceRecord, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	rec, err := h.store.GetMaintenance(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	if _, err := h.getVisibleAC(c, rec.ACID); err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return rec, true
}

func (h *Handler) GetMaintenance(c *gin.Context) {
	rec, ok := h.loadVisibleRecord(c)
	if !ok {
		return
	}
	h.present(rec)
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListMaintenance(c *gin.Context) {
	f, err := h.maintenanceFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	records, err := h.store.ListMaintenance(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	for i := range records {
		h.present(&records[i])
	}
	c.JSON(http.StatusOK, records)
}

// ListOverdue lists periodic records past their due date and not completed.
func (h *Handler) ListOverdue(c *gin.Context) {
	f, err := h.maintenanceFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	records, err := h.store.ListOverdue(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	for i := range records {
		h.present(&records[i])
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) UpdateMaintenance(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req maintenancePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	rec, err := h.store.UpdateMaintenance(c.Request.Context(), principal(c), id, store.MaintenancePatch(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.present(rec)
	c.JSON(http.StatusOK, rec)
}

// CompleteMaintenance marks a record done, ticking checklist items and
// adding parts in the same transaction.
func (h *Handler) CompleteMaintenance(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req completionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	rec, err := h.store.CompleteMaintenance(c.Request.Context(), principal(c), id, store.Completion{
		MaintenanceDate: req.MaintenanceDate,
		WorkDone:        req.WorkDone,
		Checklist:       toChecklist(req.Checklist),
		Parts:           toParts(req.Parts),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.present(rec)
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) AddParts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req partsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	rec, err := h.store.AddParts(c.Request.Context(), principal(c), id, toParts(req.Parts))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.present(rec)
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) DeleteMaintenance(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeleteMaintenance(c.Request.Context(), principal(c), id))
}

// ListDueWindows serves /ac/maintenance_dates?ac_id=&active=. Rows are
// limited to assets in the caller's jurisdiction.
func (h *Handler) ListDueWindows(c *gin.Context) {
	acID, err := uintQuery(c, "ac_id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	active, err := boolQuery(c, "active")
	if err != nil {
		h.respondError(c, err)
		return
	}
	if acID != nil {
		if _, err := h.getVisibleAC(c, *acID); err != nil {
			h.respondError(c, err)
			return
		}
	}
	f := store.DueWindowFilter{ACID: acID, ActiveOnly: active != nil && *active}
	if err := narrow(principal(c), &f.DivisionID, &f.SubdivisionID); err != nil {
		h.respondError(c, err)
		return
	}
	windows, err := h.store.ListDueWindows(c.Request.Context(), f)
	h.reply(c, windows, err)
}

// RecomputeAsset rebuilds an asset's cached summary from its history.
func (h *Handler) RecomputeAsset(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ac, err := h.store.RecomputeAssetSummary(c.Request.Context(), id)
	h.reply(c, ac, err)
}
