package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ac-maintenance-backend/internal/model"
)

func TestAllowed(t *testing.T) {
	testCases := []struct {
		role   model.Role
		action Action
		want   bool
	}{
		{model.RoleAdmin, ActionViewDivisionReports, true},
		{model.RoleSupervisor, ActionViewDivisionReports, true},
		{model.RoleMaintainer, ActionViewDivisionReports, false},
		{model.RoleMaintainer, ActionRecordMaintenance, true},
		{model.RoleMaintainer, ActionDeleteMaintenance, false},
		{model.RoleMaintainer, ActionManageReference, false},
		{model.RoleDriver, ActionReportRun, true},
		{model.RoleDriver, ActionRecordService, false},
		{model.RoleDriver, ActionViewAssets, false},
		{model.Role("Guest"), ActionViewAssets, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.role)+"/"+string(tc.action), func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.role, tc.action))
		})
	}
}

func TestCanCreate(t *testing.T) {
	assert.True(t, CanCreate(model.RoleAdmin, model.RoleSupervisor))
	assert.True(t, CanCreate(model.RoleAdmin, model.RoleDriver))
	assert.False(t, CanCreate(model.RoleAdmin, model.RoleAdmin))
	assert.True(t, CanCreate(model.RoleSupervisor, model.RoleMaintainer))
	assert.False(t, CanCreate(model.RoleSupervisor, model.RoleSupervisor))
	assert.False(t, CanCreate(model.RoleMaintainer, model.RoleDriver))
	assert.False(t, CanCreate(model.RoleDriver, model.RoleDriver))
}

func TestPrincipal_Covers(t *testing.T) {
	div1, div2 := uint(1), uint(2)
	sub10, sub20 := uint(10), uint(20)

	admin := Principal{Role: model.RoleAdmin}
	unboundSupervisor := Principal{Role: model.RoleSupervisor}
	divSupervisor := Principal{Role: model.RoleSupervisor, DivisionID: &div1}
	maintainer := Principal{Role: model.RoleMaintainer, SubdivisionID: &sub10}
	driver := Principal{Role: model.RoleDriver}

	assert.True(t, admin.Covers(nil, nil))
	assert.True(t, unboundSupervisor.Covers(&div2, &sub20))
	assert.True(t, divSupervisor.Covers(&div1, &sub20))
	assert.False(t, divSupervisor.Covers(&div2, &sub10))
	assert.True(t, maintainer.Covers(&div2, &sub10))
	assert.False(t, maintainer.Covers(&div1, &sub20))
	assert.False(t, maintainer.Covers(&div1, nil))
	assert.False(t, driver.Covers(&div1, &sub10))
}
