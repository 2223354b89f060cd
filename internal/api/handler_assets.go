package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/model"
	"ac-maintenance-backend/internal/store"
)

type acRequest struct {
	SerialNumber      string      `json:"serial_number" binding:"required"`
	Model             string      `json:"model"`
	StationID         *uint       `json:"station_id"`
	PreciseLocation   string      `json:"precise_location"`
	InstallDate       *model.Date `json:"install_date"`
	ManufacturingDate *model.Date `json:"manufacturing_date"`
	MakeID            uint        `json:"make_id" binding:"required"`
	CapacityID        uint        `json:"capacity_id" binding:"required"`
	RefrigerantID     uint        `json:"refrigerant_id" binding:"required"`
	MaintainerID      *uint       `json:"maintainer_id"`
	SubdivisionID     *uint       `json:"subdivision_id"`
}

type acPatchRequest struct {
	Model             *string     `json:"model"`
	StationID         *uint       `json:"station_id"`
	PreciseLocation   *string     `json:"precise_location"`
	InstallDate       *model.Date `json:"install_date"`
	ManufacturingDate *model.Date `json:"manufacturing_date"`
	MakeID            *uint       `json:"make_id"`
	CapacityID        *uint       `json:"capacity_id"`
	RefrigerantID     *uint       `json:"refrigerant_id"`
	MaintainerID      *uint       `json:"maintainer_id"`
	SubdivisionID     *uint       `json:"subdivision_id"`
}

type maintainerRequest struct {
	Name          string `json:"name" binding:"required"`
	Contact       string `json:"contact"`
	SubdivisionID uint   `json:"subdivision_id" binding:"required"`
	UserID        *uint  `json:"user_id"`
}

type maintenanceHistory struct {
	ID           uint                      `json:"id"`
	SerialNumber string                    `json:"serial_number"`
	Records      []model.MaintenanceRecord `json:"maintenance_records"`
}

// narrow pins a division/subdivision filter pair to the caller's
// jurisdiction. Asking for another division or subdivision explicitly is
// Forbidden.
func narrow(actor auth.Principal, divisionID, subdivisionID **uint) error {
	switch actor.Role {
	case model.RoleSupervisor:
		if actor.DivisionID == nil {
			return nil
		}
		if *divisionID != nil && **divisionID != *actor.DivisionID {
			return apperr.Forbidden("division is outside your jurisdiction")
		}
		*divisionID = actor.DivisionID
	case model.RoleMaintainer:
		if actor.SubdivisionID == nil {
			return apperr.Forbidden("your account is not bound to a subdivision")
		}
		if *subdivisionID != nil && **subdivisionID != *actor.SubdivisionID {
			return apperr.Forbidden("subdivision is outside your jurisdiction")
		}
		*subdivisionID = actor.SubdivisionID
	}
	return nil
}

func scopeACs(actor auth.Principal, f *store.ACFilter) error {
	return narrow(actor, &f.DivisionID, &f.SubdivisionID)
}

func (h *Handler) listACs(c *gin.Context, f store.ACFilter) {
	if err := scopeACs(principal(c), &f); err != nil {
		h.respondError(c, err)
		return
	}
	acs, err := h.store.ListAirConditioners(c.Request.Context(), f)
	h.reply(c, acs, err)
}

// ListAirConditioners serves /ac/acs and /ac/all-ac with optional
// division_id, subdivision_id, station_id and maintainer_id filters.
func (h *Handler) ListAirConditioners(c *gin.Context) {
	var f store.ACFilter
	var err error
	for key, dst := range map[string]**uint{
		"division_id":    &f.DivisionID,
		"subdivision_id": &f.SubdivisionID,
		"station_id":     &f.StationID,
		"maintainer_id":  &f.MaintainerID,
	} {
		if *dst, err = uintQuery(c, key); err != nil {
			h.respondError(c, err)
			return
		}
	}
	h.listACs(c, f)
}

func (h *Handler) ACsByStation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.listACs(c, store.ACFilter{StationID: &id})
}

func (h *Handler) ACsBySubdivision(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.listACs(c, store.ACFilter{SubdivisionID: &id})
}

// getVisibleAC loads an asset and checks the caller may see it.
func (h *Handler) getVisibleAC(c *gin.Context, id uint) (*model.AirConditioner, error) {
	ac, err := h.store.GetAirConditioner(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !principal(c).Covers(ac.DivisionID, ac.SubdivisionID) {
		return nil, apperr.Forbidden("air conditioner is outside your jurisdiction")
	}
	return ac, nil
}

func (h *Handler) GetAirConditioner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ac, err := h.getVisibleAC(c, id)
	h.reply(c, ac, err)
}

func (h *Handler) CreateAirConditioner(c *gin.Context) {
	var req acRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ac := model.AirConditioner{
		SerialNumber:      req.SerialNumber,
		Model:             req.Model,
		StationID:         req.StationID,
		PreciseLocation:   req.PreciseLocation,
		InstallDate:       req.InstallDate,
		ManufacturingDate: req.ManufacturingDate,
		MakeID:            req.MakeID,
		CapacityID:        req.CapacityID,
		RefrigerantID:     req.RefrigerantID,
		MaintainerID:      req.MaintainerID,
		SubdivisionID:     req.SubdivisionID,
	}
	if err := h.store.CreateAirConditioner(c.Request.Context(), principal(c), &ac); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.store.GetAirConditioner(c.Request.Context(), ac.ID)
	h.created(c, out, err)
}

func (h *Handler) UpdateAirConditioner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req acPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	ac, err := h.store.UpdateAirConditioner(c.Request.Context(), principal(c), id, store.ACPatch(req))
	h.reply(c, ac, err)
}

func (h *Handler) DeleteAirConditioner(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeactivateAirConditioner(c.Request.Context(), principal(c), id))
}

func (h *Handler) maintenanceHistory(c *gin.Context, withChildren bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	ac, err := h.getVisibleAC(c, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	records, err := h.store.ListMaintenance(c.Request.Context(), store.MaintenanceFilter{ACID: &id, WithChildren: withChildren})
	if err != nil {
		h.respondError(c, err)
		return
	}
	today := h.store.Today()
	for i := range records {
		records[i].Status = effectiveStatus(&records[i], today)
	}
	c.JSON(http.StatusOK, maintenanceHistory{ID: ac.ID, SerialNumber: ac.SerialNumber, Records: records})
}

// MaintenanceSummary lists an asset's records, newest first.
func (h *Handler) MaintenanceSummary(c *gin.Context) {
	h.maintenanceHistory(c, false)
}

// MaintenanceDetailed is MaintenanceSummary with checklists and parts.
func (h *Handler) MaintenanceDetailed(c *gin.Context) {
	h.maintenanceHistory(c, true)
}

// ACDashboard bundles the hierarchy and the caller's visible assets.
func (h *Handler) ACDashboard(c *gin.Context) {
	ctx := c.Request.Context()
	actor := principal(c)

	var f store.ACFilter
	if err := scopeACs(actor, &f); err != nil {
		h.respondError(c, err)
		return
	}

	out := gin.H{}
	var err error
	if out["divisions"], err = h.store.ListDivisions(ctx); err != nil {
		h.respondError(c, err)
		return
	}
	if out["subdivisions"], err = h.store.ListSubdivisions(ctx, f.DivisionID); err != nil {
		h.respondError(c, err)
		return
	}
	if out["maintainers"], err = h.store.ListMaintainers(ctx, f.SubdivisionID); err != nil {
		h.respondError(c, err)
		return
	}
	if out["air_conditioners"], err = h.store.ListAirConditioners(ctx, f); err != nil {
		h.respondError(c, err)
		return
	}
	if actor.Role == model.RoleAdmin {
		if out["users"], err = h.store.ListUsers(ctx, nil); err != nil {
			h.respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, out)
}

// --- maintainers ---

func (h *Handler) ListMaintainers(c *gin.Context) {
	subdivisionID, err := uintQuery(c, "subdivision_id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	maintainers, err := h.store.ListMaintainers(c.Request.Context(), subdivisionID)
	h.reply(c, maintainers, err)
}

func (h *Handler) GetMaintainer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.store.GetMaintainer(c.Request.Context(), id)
	h.reply(c, m, err)
}

func (h *Handler) CreateMaintainer(c *gin.Context) {
	var req maintainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	m := model.Maintainer{Name: req.Name, Contact: req.Contact, SubdivisionID: req.SubdivisionID, UserID: req.UserID}
	h.created(c, &m, h.store.CreateMaintainer(c.Request.Context(), &m))
}

// DeleteMaintainer physically removes the maintainer and their assets.
func (h *Handler) DeleteMaintainer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	h.noContent(c, h.store.DeleteMaintainer(c.Request.Context(), id))
}
