package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	defaultReportDays  = 30
	defaultReportLimit = 10
)

// seesDivision reports whether the caller may read division-wide figures.
// Maintainers are scoped to a subdivision and never do.
func seesDivision(actor auth.Principal, divisionID uint) bool {
	switch actor.Role {
	case model.RoleAdmin:
		return true
	case model.RoleSupervisor:
		return actor.DivisionID == nil || *actor.DivisionID == divisionID
	}
	return false
}

func (h *Handler) divisionParam(c *gin.Context) (uint, bool) {
	id, ok := idParam(c, "id")
	if !ok {
		return 0, false
	}
	if !seesDivision(principal(c), id) {
		h.respondError(c, apperr.Forbidden("access denied to this division"))
		return 0, false
	}
	return id, true
}

// DivisionStatusReport counts the division's records per status.
func (h *Handler) DivisionStatusReport(c *gin.Context) {
	id, ok := h.divisionParam(c)
	if !ok {
		return
	}
	r, err := h.reports.DivisionStatusCounts(c.Request.Context(), id)
	h.reply(c, r, err)
}

// DivisionalDueReport counts due-soon, overdue and breakdown records.
func (h *Handler) DivisionalDueReport(c *gin.Context) {
	id, ok := h.divisionParam(c)
	if !ok {
		return
	}
	r, err := h.reports.DivisionalDueSummary(c.Request.Context(), id)
	h.reply(c, r, err)
}

// ExportDivision streams the division report as an Excel workbook.
func (h *Handler) ExportDivision(c *gin.Context) {
	id, ok := h.divisionParam(c)
	if !ok {
		return
	}
	data, filename, err := h.reports.ExportDivisionXLSX(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) SubdivisionDashboard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	overdue, err := boolQuery(c, "show_overdue")
	if err != nil {
		h.respondError(c, err)
		return
	}
	d, err := h.reports.SubdivisionDashboard(c.Request.Context(), principal(c), id, overdue != nil && *overdue)
	h.reply(c, d, err)
}

// DivisionDashboard is Admin only; the route guard enforces it.
func (h *Handler) DivisionDashboard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.reports.DivisionDashboard(c.Request.Context(), id)
	h.reply(c, d, err)
}

// --- fleet ---

func (h *Handler) VehicleTotalMinutes(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	days, err := intQuery(c, "days", defaultReportDays)
	if err != nil {
		h.respondError(c, err)
		return
	}
	r, err := h.reports.VehicleTotalMinutes(c.Request.Context(), id, days)
	h.reply(c, r, err)
}

func (h *Handler) ComparativeVehicles(c *gin.Context) {
	days, err := intQuery(c, "days", defaultReportDays)
	if err != nil {
		h.respondError(c, err)
		return
	}
	limit, err := intQuery(c, "limit", defaultReportLimit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	r, err := h.reports.ComparativeVehicles(c.Request.Context(), days, limit)
	h.reply(c, r, err)
}

func (h *Handler) FleetDue(c *gin.Context) {
	days, err := intQuery(c, "days", 0)
	if err != nil {
		h.respondError(c, err)
		return
	}
	r, err := h.reports.FleetDueSummary(c.Request.Context(), days)
	h.reply(c, r, err)
}
