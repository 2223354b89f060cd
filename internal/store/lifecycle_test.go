package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ac-maintenance-backend/config"
	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/db"
	"ac-maintenance-backend/internal/model"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) set(y int, m time.Month, d int) {
	c.t = time.Date(y, m, d, 9, 30, 0, 0, time.UTC)
}

type fixture struct {
	store Store
	clock *testClock

	division, subdivision, otherSubdivision, station uint
	make, capacity, refrigerant, maintainer          uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gormDB, err := db.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB, zap.NewNop()))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})

	clock := &testClock{}
	clock.set(2024, 2, 15)
	s := NewGormStore(gormDB, WithClock(clock.now))
	ctx := context.Background()
	f := &fixture{store: s, clock: clock}

	d := model.Division{Name: "North"}
	require.NoError(t, s.CreateDivision(ctx, &d))
	sd := model.Subdivision{Name: "Depot A", DivisionID: d.ID}
	require.NoError(t, s.CreateSubdivision(ctx, &sd))
	other := model.Subdivision{Name: "Depot B", DivisionID: d.ID}
	require.NoError(t, s.CreateSubdivision(ctx, &other))
	st := model.Station{Name: "Platform 1", SubdivisionID: sd.ID}
	require.NoError(t, s.CreateStation(ctx, &st))

	mk := model.Make{Name: "Voltas"}
	require.NoError(t, s.CreateMake(ctx, &mk))
	cp := model.Capacity{Tonnage: decimal.RequireFromString("1.5")}
	require.NoError(t, s.CreateCapacity(ctx, &cp))
	rf := model.Refrigerant{Type: "R32"}
	require.NoError(t, s.CreateRefrigerant(ctx, &rf))
	mt := model.Maintainer{Name: "Ravi", SubdivisionID: sd.ID}
	require.NoError(t, s.CreateMaintainer(ctx, &mt))

	f.division, f.subdivision, f.otherSubdivision, f.station = d.ID, sd.ID, other.ID, st.ID
	f.make, f.capacity, f.refrigerant, f.maintainer = mk.ID, cp.ID, rf.ID, mt.ID
	return f
}

func (f *fixture) newAC(t *testing.T, serial string) uint {
	t.Helper()
	ac := model.AirConditioner{
		SerialNumber:  serial,
		StationID:     &f.station,
		MakeID:        f.make,
		CapacityID:    f.capacity,
		RefrigerantID: f.refrigerant,
		MaintainerID:  &f.maintainer,
	}
	require.NoError(t, f.store.CreateAirConditioner(context.Background(), auth.System, &ac))
	return ac.ID
}

func (f *fixture) record(t *testing.T, acID uint, typ model.MaintenanceType, date model.Date, completed bool) *model.MaintenanceRecord {
	t.Helper()
	rec, err := f.store.CreateMaintenance(context.Background(), auth.System, NewMaintenance{
		ACID:            acID,
		MaintainerID:    f.maintainer,
		Type:            typ,
		MaintenanceDate: &date,
		IsCompleted:     completed,
	})
	require.NoError(t, err)
	return rec
}

func (f *fixture) activeWindows(t *testing.T, acID uint) []model.DueWindow {
	t.Helper()
	windows, err := f.store.ListDueWindows(context.Background(), DueWindowFilter{ACID: &acID, ActiveOnly: true})
	require.NoError(t, err)
	return windows
}

func (f *fixture) asset(t *testing.T, acID uint) *model.AirConditioner {
	t.Helper()
	ac, err := f.store.GetAirConditioner(context.Background(), acID)
	require.NoError(t, err)
	return ac
}

func TestCreateAirConditioner_DerivesHierarchy(t *testing.T) {
	f := newFixture(t)
	ac := f.asset(t, f.newAC(t, "SN-1"))

	require.NotNil(t, ac.SubdivisionID)
	require.NotNil(t, ac.DivisionID)
	assert.Equal(t, f.subdivision, *ac.SubdivisionID)
	assert.Equal(t, f.division, *ac.DivisionID)
	assert.Nil(t, ac.LastMaintenanceDate)
	assert.Equal(t, "Voltas", ac.Make.Name)

	dup := model.AirConditioner{SerialNumber: "SN-1", MakeID: f.make, CapacityID: f.capacity, RefrigerantID: f.refrigerant}
	err := f.store.CreateAirConditioner(context.Background(), auth.System, &dup)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	badDates := model.AirConditioner{
		SerialNumber: "SN-2", MakeID: f.make, CapacityID: f.capacity, RefrigerantID: f.refrigerant,
		InstallDate: model.NewDate(2020, 1, 1).Ptr(), ManufacturingDate: model.NewDate(2021, 1, 1).Ptr(),
	}
	err = f.store.CreateAirConditioner(context.Background(), auth.System, &badDates)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	missingMake := model.AirConditioner{SerialNumber: "SN-3", MakeID: 999, CapacityID: f.capacity, RefrigerantID: f.refrigerant}
	err = f.store.CreateAirConditioner(context.Background(), auth.System, &missingMake)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMaintenance_ScheduledMonthly(t *testing.T) {
	f := newFixture(t)
	f.clock.set(2024, 1, 10)
	acID := f.newAC(t, "SN-1")

	rec := f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 1, 1), false)

	require.NotNil(t, rec.NextDueDate)
	assert.Equal(t, "2024-01-31", rec.NextDueDate.String())
	assert.Equal(t, model.StatusScheduled, rec.Status)
	assert.Nil(t, f.asset(t, acID).LastMaintenanceDate, "uncompleted records do not touch the summary")
	assert.Empty(t, f.activeWindows(t, acID))
}

func TestMaintenance_CompleteLater(t *testing.T) {
	f := newFixture(t)
	f.clock.set(2024, 1, 10)
	acID := f.newAC(t, "SN-1")
	rec := f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 1, 1), false)

	f.clock.set(2024, 2, 15)
	done, err := f.store.CompleteMaintenance(context.Background(), auth.System, rec.ID, Completion{
		MaintenanceDate: model.NewDate(2024, 2, 15).Ptr(),
		Parts:           []model.PartsReplaced{{PartName: "Filter", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.True(t, done.IsCompleted)
	assert.Equal(t, "2024-03-16", done.NextDueDate.String())
	require.Len(t, done.Parts, 1)

	ac := f.asset(t, acID)
	require.NotNil(t, ac.LastMaintenanceDate)
	assert.Equal(t, "2024-02-15", ac.LastMaintenanceDate.String())
	assert.Equal(t, "2024-03-16", ac.NextDueDate.String())
	assert.Equal(t, model.MaintenanceMonthly, *ac.LastMaintenanceType)

	windows := f.activeWindows(t, acID)
	require.Len(t, windows, 1)
	assert.Equal(t, "2024-02-15", windows[0].LastMaintenance.String())
	assert.Equal(t, "2024-03-16", windows[0].NextMaintenance.String())

	// completing again only applies the extra details
	again, err := f.store.CompleteMaintenance(context.Background(), auth.System, rec.ID, Completion{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, again.Status)
	assert.Len(t, f.activeWindows(t, acID), 1)
}

func TestMaintenance_Breakdown(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")

	rec := f.record(t, acID, model.MaintenanceUnscheduled, model.NewDate(2024, 2, 10), true)

	assert.Nil(t, rec.NextDueDate)
	assert.Equal(t, model.StatusBreakdown, rec.Status)
	ac := f.asset(t, acID)
	assert.Equal(t, model.MaintenanceUnscheduled, *ac.LastMaintenanceType)
	assert.Nil(t, ac.NextDueDate)
	assert.Empty(t, f.activeWindows(t, acID))
}

func TestMaintenance_OneActiveWindowAfterCompletions(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")

	f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2023, 11, 1), true)
	f.record(t, acID, model.MaintenanceQuarterly, model.NewDate(2023, 12, 1), true)
	f.record(t, acID, model.MaintenanceUnscheduled, model.NewDate(2024, 1, 5), true)
	f.record(t, acID, model.MaintenanceYearly, model.NewDate(2024, 2, 1), true)

	windows := f.activeWindows(t, acID)
	require.Len(t, windows, 1)
	assert.Equal(t, "2025-01-31", windows[0].NextMaintenance.String())

	all, err := f.store.ListDueWindows(context.Background(), DueWindowFilter{ACID: &acID})
	require.NoError(t, err)
	assert.Len(t, all, 3, "older windows are kept inactive")
}

func TestMaintenance_DeleteLaterRestoresEarlier(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")

	f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 1, 1), true)
	later := f.record(t, acID, model.MaintenanceQuarterly, model.NewDate(2024, 2, 1), true)

	require.NoError(t, f.store.DeleteMaintenance(context.Background(), auth.System, later.ID))

	ac := f.asset(t, acID)
	assert.Equal(t, "2024-01-01", ac.LastMaintenanceDate.String())
	assert.Equal(t, "2024-01-31", ac.NextDueDate.String())
	assert.Equal(t, model.MaintenanceMonthly, *ac.LastMaintenanceType)

	windows := f.activeWindows(t, acID)
	require.Len(t, windows, 1)
	assert.Equal(t, "2024-01-01", windows[0].LastMaintenance.String())
	assert.Equal(t, "2024-01-31", windows[0].NextMaintenance.String())

	_, err := f.store.GetMaintenance(context.Background(), later.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMaintenance_DeleteSoleCompletedResets(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")
	rec := f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 2, 1), true)
	require.Len(t, f.activeWindows(t, acID), 1)

	require.NoError(t, f.store.DeleteMaintenance(context.Background(), auth.System, rec.ID))

	ac := f.asset(t, acID)
	assert.Nil(t, ac.LastMaintenanceType)
	assert.Nil(t, ac.LastMaintenanceDate)
	assert.Nil(t, ac.NextDueDate)
	assert.Empty(t, f.activeWindows(t, acID))
}

func TestMaintenance_ZeroQuantityPersistsNothing(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")

	_, err := f.store.CreateMaintenance(context.Background(), auth.System, NewMaintenance{
		ACID:         acID,
		MaintainerID: f.maintainer,
		Type:         model.MaintenanceMonthly,
		IsCompleted:  true,
		Parts:        []model.PartsReplaced{{PartName: "Filter", Quantity: 0}},
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	records, err := f.store.ListMaintenance(context.Background(), MaintenanceFilter{ACID: &acID})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Nil(t, f.asset(t, acID).LastMaintenanceDate)
}

func TestMaintenance_RecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")
	f.record(t, acID, model.MaintenanceSixMonthly, model.NewDate(2024, 1, 20), true)

	first, err := f.store.RecomputeAssetSummary(context.Background(), acID)
	require.NoError(t, err)
	second, err := f.store.RecomputeAssetSummary(context.Background(), acID)
	require.NoError(t, err)

	assert.Equal(t, first.LastMaintenanceDate, second.LastMaintenanceDate)
	assert.Equal(t, first.NextDueDate, second.NextDueDate)
	assert.Equal(t, first.LastMaintenanceType, second.LastMaintenanceType)
	assert.Equal(t, "2024-07-18", second.NextDueDate.String())
}

func TestMaintenance_UpdateRules(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")
	ctx := context.Background()

	rec := f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 2, 1), true)

	reopen := false
	_, err := f.store.UpdateMaintenance(ctx, auth.System, rec.ID, MaintenancePatch{IsCompleted: &reopen})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "completed records cannot be reopened")

	breakdown := model.MaintenanceUnscheduled
	_, err = f.store.UpdateMaintenance(ctx, auth.System, rec.ID, MaintenancePatch{Type: &breakdown})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "periodic records cannot become breakdowns")

	quarterly := model.MaintenanceQuarterly
	updated, err := f.store.UpdateMaintenance(ctx, auth.System, rec.ID, MaintenancePatch{Type: &quarterly})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", updated.NextDueDate.String())

	ac := f.asset(t, acID)
	assert.Equal(t, model.MaintenanceQuarterly, *ac.LastMaintenanceType)
	assert.Equal(t, "2024-05-01", ac.NextDueDate.String())
	windows := f.activeWindows(t, acID)
	require.Len(t, windows, 1)
	assert.Equal(t, "2024-05-01", windows[0].NextMaintenance.String())
}

func TestMaintenance_UpdateRejectsFutureCompletedDate(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")
	ctx := context.Background()

	rec := f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 2, 1), true)
	_, err := f.store.UpdateMaintenance(ctx, auth.System, rec.ID, MaintenancePatch{MaintenanceDate: model.NewDate(2024, 3, 1).Ptr()})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	ac := f.asset(t, acID)
	assert.Equal(t, "2024-02-01", ac.LastMaintenanceDate.String())
	assert.Equal(t, "2024-03-02", ac.NextDueDate.String())

	planned := f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 3, 10), false)
	done := true
	_, err = f.store.UpdateMaintenance(ctx, auth.System, planned.ID, MaintenancePatch{
		IsCompleted: &done, MaintenanceDate: model.NewDate(2024, 3, 5).Ptr(),
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "completion cannot carry a future date")

	completed, err := f.store.UpdateMaintenance(ctx, auth.System, planned.ID, MaintenancePatch{IsCompleted: &done})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-15", completed.MaintenanceDate.String(), "early completion is dated today")
	assert.Equal(t, "2024-02-15", f.asset(t, acID).LastMaintenanceDate.String())
}

func TestListDueWindows_Jurisdiction(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")
	f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 2, 1), true)
	ctx := context.Background()

	hidden, err := f.store.ListDueWindows(ctx, DueWindowFilter{SubdivisionID: &f.otherSubdivision})
	require.NoError(t, err)
	assert.Empty(t, hidden)

	own, err := f.store.ListDueWindows(ctx, DueWindowFilter{SubdivisionID: &f.subdivision, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, acID, own[0].ACID)

	division, err := f.store.ListDueWindows(ctx, DueWindowFilter{DivisionID: &f.division})
	require.NoError(t, err)
	assert.Len(t, division, 1)
}

func TestMaintenance_OverdueAndSweep(t *testing.T) {
	f := newFixture(t)
	f.clock.set(2024, 1, 10)
	acID := f.newAC(t, "SN-1")
	rec := f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 1, 1), false)
	assert.Equal(t, model.StatusScheduled, rec.Status)

	f.clock.set(2024, 2, 15)
	overdue, err := f.store.ListOverdue(context.Background(), MaintenanceFilter{})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, rec.ID, overdue[0].ID)

	n, err := f.store.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := f.store.GetMaintenance(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOverdue, stored.Status)

	n, err = f.store.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMaintenance_Jurisdiction(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")

	outsider := auth.Principal{UserID: 9, Role: model.RoleMaintainer, SubdivisionID: &f.otherSubdivision}
	_, err := f.store.CreateMaintenance(context.Background(), outsider, NewMaintenance{
		ACID: acID, MaintainerID: f.maintainer, Type: model.MaintenanceMonthly,
	})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	insider := auth.Principal{UserID: 10, Role: model.RoleMaintainer, SubdivisionID: &f.subdivision}
	_, err = f.store.CreateMaintenance(context.Background(), insider, NewMaintenance{
		ACID: acID, MaintainerID: f.maintainer, Type: model.MaintenanceMonthly,
	})
	assert.NoError(t, err)
}

func TestMaintenance_ChecklistAndMissingRefs(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")
	ctx := context.Background()

	item := model.ChecklistItem{Description: "Clean filters", MaintenanceType: model.MaintenanceMonthly}
	require.NoError(t, f.store.CreateChecklistItem(ctx, &item))

	rec, err := f.store.CreateMaintenance(ctx, auth.System, NewMaintenance{
		ACID: acID, MaintainerID: f.maintainer, Type: model.MaintenanceMonthly,
		Checklist: []ChecklistEntry{{ChecklistItemID: item.ID, Done: false}},
	})
	require.NoError(t, err)
	require.Len(t, rec.Checklist, 1)
	assert.False(t, rec.Checklist[0].Done)

	done, err := f.store.CompleteMaintenance(ctx, auth.System, rec.ID, Completion{
		Checklist: []ChecklistEntry{{ChecklistItemID: item.ID, Done: true}},
	})
	require.NoError(t, err)
	require.Len(t, done.Checklist, 1)
	assert.True(t, done.Checklist[0].Done)
	assert.Equal(t, "Clean filters", done.Checklist[0].ChecklistItem.Description)

	_, err = f.store.CreateMaintenance(ctx, auth.System, NewMaintenance{
		ACID: 999, MaintainerID: f.maintainer, Type: model.MaintenanceMonthly,
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.store.CreateMaintenance(ctx, auth.System, NewMaintenance{
		ACID: acID, MaintainerID: f.maintainer, Type: model.MaintenanceMonthly,
		Checklist: []ChecklistEntry{{ChecklistItemID: 999}},
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteMake_PurgesAssets(t *testing.T) {
	f := newFixture(t)
	acID := f.newAC(t, "SN-1")
	f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 2, 1), true)

	require.NoError(t, f.store.DeleteMake(context.Background(), f.make))

	_, err := f.store.GetAirConditioner(context.Background(), acID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	all, err := f.store.ListDueWindows(context.Background(), DueWindowFilter{ACID: &acID})
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.True(t, apperr.Is(f.store.DeleteMake(context.Background(), f.make), apperr.KindNotFound))
}

func TestDeleteMaintainer_RecomputesOtherAssets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acID := f.newAC(t, "SN-1")

	guest := model.Maintainer{Name: "Guest", SubdivisionID: f.subdivision}
	require.NoError(t, f.store.CreateMaintainer(ctx, &guest))

	f.record(t, acID, model.MaintenanceMonthly, model.NewDate(2024, 1, 1), true)
	_, err := f.store.CreateMaintenance(ctx, auth.System, NewMaintenance{
		ACID: acID, MaintainerID: guest.ID, Type: model.MaintenanceQuarterly,
		MaintenanceDate: model.NewDate(2024, 2, 1).Ptr(), IsCompleted: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", f.asset(t, acID).NextDueDate.String())

	require.NoError(t, f.store.DeleteMaintainer(ctx, guest.ID))

	ac := f.asset(t, acID)
	assert.Equal(t, "2024-01-31", ac.NextDueDate.String())
	windows := f.activeWindows(t, acID)
	require.Len(t, windows, 1)
	assert.Equal(t, "2024-01-31", windows[0].NextMaintenance.String())
}

func TestFleet_ServiceSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	driver := model.User{FirstName: "Dev", Email: "dev@example.com", Role: model.RoleDriver, PasswordHash: "hash"}
	require.NoError(t, f.store.CreateUser(ctx, &driver))

	v, err := f.store.CreateVehicle(ctx, NewVehicle{VIN: "vin-001", ServicePeriodDays: 60})
	require.NoError(t, err)
	assert.Equal(t, "VIN-001", v.VIN)

	_, err = f.store.CreateVehicle(ctx, NewVehicle{VIN: "VIN-001"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.store.AssignVehicle(ctx, auth.System, v.ID, driver.ID, "new hire")
	require.NoError(t, err)

	first, err := f.store.RecordService(ctx, auth.System, NewService{VehicleID: v.ID, ServicedAt: model.NewDate(2024, 1, 1).Ptr()})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", first.NextServiceDue.String())

	override := 30
	second, err := f.store.RecordService(ctx, auth.System, NewService{VehicleID: v.ID, ServicedAt: model.NewDate(2024, 2, 1).Ptr(), PeriodDays: &override})
	require.NoError(t, err)

	got, err := f.store.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", got.NextServiceDue.String())

	require.NoError(t, f.store.DeleteServiceRecord(ctx, second.ID))
	got, err = f.store.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", got.LastServiceDate.String())
	assert.Equal(t, "2024-03-01", got.NextServiceDue.String())

	require.NoError(t, f.store.DeleteServiceRecord(ctx, first.ID))
	got, err = f.store.GetVehicle(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastServiceDate)
	assert.Nil(t, got.NextServiceDue)
}

func TestFleet_RunsAndTransfers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := model.User{FirstName: "Alice", Email: "alice@example.com", Role: model.RoleDriver, PasswordHash: "hash"}
	bob := model.User{FirstName: "Bob", Email: "bob@example.com", Role: model.RoleDriver, PasswordHash: "hash"}
	require.NoError(t, f.store.CreateUser(ctx, &alice))
	require.NoError(t, f.store.CreateUser(ctx, &bob))

	v, err := f.store.CreateVehicle(ctx, NewVehicle{VIN: "VIN-9", AssignedDriverID: &alice.ID})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultServicePeriodDays, v.ServicePeriodDays)

	asBob := auth.PrincipalOf(&bob)
	_, err = f.store.RecordRun(ctx, asBob, NewRun{VehicleID: v.ID, Minutes: 30})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	run, err := f.store.RecordRun(ctx, auth.PrincipalOf(&alice), NewRun{VehicleID: v.ID, Minutes: 45})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, *run.DriverID)
	assert.Equal(t, "2024-02-15", run.RunDate.String())

	admin := auth.Principal{UserID: 1, Role: model.RoleAdmin}
	entry, err := f.store.TransferVehicle(ctx, admin, v.ID, bob.ID, "shift change")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, *entry.FromDriverID)
	assert.Equal(t, bob.ID, entry.ToDriverID)

	_, err = f.store.TransferVehicle(ctx, admin, v.ID, bob.ID, "again")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	logs, err := f.store.ListTransfers(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestUsers_FirstUserAndMaintainerLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := model.User{FirstName: "Root", Email: "Root@Example.com ", Role: model.RoleAdmin, PasswordHash: "hash"}
	require.NoError(t, f.store.CreateFirstUser(ctx, &admin))
	assert.Equal(t, "root@example.com", admin.Email)

	again := model.User{FirstName: "Other", Email: "other@example.com", Role: model.RoleAdmin, PasswordHash: "hash"}
	assert.True(t, apperr.Is(f.store.CreateFirstUser(ctx, &again), apperr.KindForbidden))

	tech := model.User{FirstName: "Tech", LastName: "One", Email: "tech@example.com", Role: model.RoleMaintainer,
		PasswordHash: "hash", SubdivisionID: &f.subdivision, IsMaintainer: true}
	require.NoError(t, f.store.CreateUser(ctx, &tech))
	require.NotNil(t, tech.DivisionID)
	assert.Equal(t, f.division, *tech.DivisionID)

	maintainers, err := f.store.ListMaintainers(ctx, &f.subdivision)
	require.NoError(t, err)
	var linked bool
	for _, m := range maintainers {
		if m.UserID != nil && *m.UserID == tech.ID {
			linked = true
			assert.Equal(t, "Tech One", m.Name)
		}
	}
	assert.True(t, linked)

	dup := model.User{FirstName: "Dup", Email: "TECH@example.com", Role: model.RoleDriver, PasswordHash: "hash"}
	assert.True(t, apperr.Is(f.store.CreateUser(ctx, &dup), apperr.KindValidation))

	got, err := f.store.GetUserByEmail(ctx, "tech@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, tech.ID, got.ID)
}

func TestSubscriptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub := model.PushSubscription{Endpoint: "https://push.example/1", P256DH: "k", Auth: "a"}
	require.NoError(t, f.store.UpsertSubscription(ctx, &sub, []uint{f.subdivision}))

	got, err := f.store.GetSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	require.Len(t, got.Subdivisions, 1)
	assert.Equal(t, f.subdivision, got.Subdivisions[0].ID)

	sub.Auth = "b"
	require.NoError(t, f.store.UpsertSubscription(ctx, &sub, []uint{f.otherSubdivision}))
	got, err = f.store.GetSubscription(ctx, sub.Endpoint)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Auth)
	require.Len(t, got.Subdivisions, 1)
	assert.Equal(t, f.otherSubdivision, got.Subdivisions[0].ID)

	err = f.store.UpsertSubscription(ctx, &sub, []uint{999})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	require.NoError(t, f.store.DeleteSubscription(ctx, sub.Endpoint))
	_, err = f.store.GetSubscription(ctx, sub.Endpoint)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
