// Package auth implements credentials, tokens and the role capability table.
package auth

import "ac-maintenance-backend/internal/model"

// Action is a capability checked against a role.
type Action string

const (
	ActionManageReference     Action = "manage_reference"
	ActionManageAssets        Action = "manage_assets"
	ActionViewAssets          Action = "view_assets"
	ActionRecordMaintenance   Action = "record_maintenance"
	ActionDeleteMaintenance   Action = "delete_maintenance"
	ActionViewReports         Action = "view_reports"
	ActionViewDivisionReports Action = "view_division_reports"
	ActionManageUsers         Action = "manage_users"
	ActionManageFleet         Action = "manage_fleet"
	ActionReportRun           Action = "report_run"
	ActionRecordService       Action = "record_service"
	ActionViewFleet           Action = "view_fleet"
	ActionViewFleetReports    Action = "view_fleet_reports"
	ActionSubscribeAlerts     Action = "subscribe_alerts"
)

var capabilities = map[Action][]model.Role{
	ActionManageReference:     {model.RoleAdmin, model.RoleSupervisor},
	ActionManageAssets:        {model.RoleAdmin, model.RoleSupervisor},
	ActionViewAssets:          {model.RoleAdmin, model.RoleSupervisor, model.RoleMaintainer},
	ActionRecordMaintenance:   {model.RoleAdmin, model.RoleSupervisor, model.RoleMaintainer},
	ActionDeleteMaintenance:   {model.RoleAdmin, model.RoleSupervisor},
	ActionViewReports:         {model.RoleAdmin, model.RoleSupervisor, model.RoleMaintainer},
	ActionViewDivisionReports: {model.RoleAdmin, model.RoleSupervisor},
	ActionManageUsers:         {model.RoleAdmin, model.RoleSupervisor},
	ActionManageFleet:         {model.RoleAdmin, model.RoleSupervisor},
	ActionReportRun:           {model.RoleAdmin, model.RoleSupervisor, model.RoleDriver},
	ActionRecordService:       {model.RoleAdmin, model.RoleSupervisor},
	ActionViewFleet:           {model.RoleAdmin, model.RoleSupervisor, model.RoleDriver},
	ActionViewFleetReports:    {model.RoleAdmin, model.RoleSupervisor},
	ActionSubscribeAlerts:     {model.RoleAdmin, model.RoleSupervisor, model.RoleMaintainer},
}

// Allowed reports whether role may perform action.
func Allowed(role model.Role, action Action) bool {
	for _, r := range capabilities[action] {
		if r == role {
			return true
		}
	}
	return false
}

// CanCreate reports whether an actor may create an account with the target
// role. Nobody creates Admins through the API; the first Admin comes from
// bootstrap.
func CanCreate(actor, target model.Role) bool {
	switch actor {
	case model.RoleAdmin:
		return target.Valid() && target != model.RoleAdmin
	case model.RoleSupervisor:
		return target == model.RoleMaintainer || target == model.RoleDriver
	}
	return false
}

// SelfRegistrable reports whether a role may be chosen on public registration.
func SelfRegistrable(role model.Role) bool {
	return role == model.RoleMaintainer || role == model.RoleDriver
}

// Principal is the authenticated caller as seen by the store.
type Principal struct {
	UserID        uint
	Role          model.Role
	DivisionID    *uint
	SubdivisionID *uint
}

// PrincipalOf builds a Principal from a user row.
func PrincipalOf(u *model.User) Principal {
	return Principal{
		UserID:        u.ID,
		Role:          u.Role,
		DivisionID:    u.DivisionID,
		SubdivisionID: u.SubdivisionID,
	}
}

// System is the principal used by operator commands.
var System = Principal{Role: model.RoleAdmin}

// Covers reports whether an asset placed in the given division and
// subdivision lies inside the principal's jurisdiction. Admins cover
// everything; a Supervisor bound to a division covers that division;
// Maintainers cover their own subdivision only.
func (p Principal) Covers(divisionID, subdivisionID *uint) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleSupervisor:
		if p.DivisionID == nil {
			return true
		}
		return divisionID != nil && *divisionID == *p.DivisionID
	case model.RoleMaintainer:
		return p.SubdivisionID != nil && subdivisionID != nil && *subdivisionID == *p.SubdivisionID
	}
	return false
}
