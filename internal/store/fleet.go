package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/lifecycle"
	"ac-maintenance-backend/internal/model"
)

func (s *gormStore) CreateVehicle(ctx context.Context, in NewVehicle) (*model.Vehicle, error) {
	vin := strings.ToUpper(strings.TrimSpace(in.VIN))
	if vin == "" {
		return nil, apperr.Validation("vin is required")
	}
	period := in.ServicePeriodDays
	if period < 0 {
		return nil, apperr.Validation("service_period_days must be positive")
	}
	if period == 0 {
		period = model.DefaultServicePeriodDays
	}

	v := model.Vehicle{
		VIN:               vin,
		RegistrationNo:    strings.TrimSpace(in.RegistrationNo),
		Model:             strings.TrimSpace(in.Model),
		AssignedDriverID:  in.AssignedDriverID,
		ServicePeriodDays: period,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Vehicle{}).Where("vin = ?", vin).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "vehicle", vin)
		}
		if n > 0 {
			return apperr.Validation("vin %q already exists", vin)
		}
		if v.AssignedDriverID != nil {
			if err := requireDriver(ctx, tx, *v.AssignedDriverID); err != nil {
				return err
			}
		}
		return apperr.FromDB(tx.Omit("AssignedDriver").Create(&v).Error, "vehicle", vin)
	})
	if err != nil {
		return nil, err
	}
	return s.GetVehicle(ctx, v.ID)
}

func (s *gormStore) GetVehicle(ctx context.Context, id uint) (*model.Vehicle, error) {
	var v model.Vehicle
	err := s.db.WithContext(ctx).Preload("AssignedDriver").Where("is_active = ?", true).First(&v, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "vehicle", id)
	}
	return &v, nil
}

func (s *gormStore) ListVehicles(ctx context.Context, driverID *uint) ([]model.Vehicle, error) {
	return listActive[model.Vehicle](ctx, s.db, eq("assigned_driver_id", driverID))
}

// AssignVehicle sets the vehicle's driver, assigned or not before, and logs
// the change.
func (s *gormStore) AssignVehicle(ctx context.Context, actor auth.Principal, vehicleID, driverID uint, reason string) (*model.Vehicle, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := getActive[model.Vehicle](ctx, tx, vehicleID, "vehicle")
		if err != nil {
			return err
		}
		_, err = changeDriver(ctx, tx, actor, v, driverID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetVehicle(ctx, vehicleID)
}

// TransferVehicle moves an assigned vehicle to another driver.
func (s *gormStore) TransferVehicle(ctx context.Context, actor auth.Principal, vehicleID, toDriverID uint, reason string) (*model.TransferLog, error) {
	var entry *model.TransferLog
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := getActive[model.Vehicle](ctx, tx, vehicleID, "vehicle")
		if err != nil {
			return err
		}
		if v.AssignedDriverID == nil {
			return apperr.Validation("vehicle %d has no driver to transfer from", vehicleID)
		}
		if *v.AssignedDriverID == toDriverID {
			return apperr.Validation("vehicle %d is already assigned to driver %d", vehicleID, toDriverID)
		}
		entry, err = changeDriver(ctx, tx, actor, v, toDriverID, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func changeDriver(ctx context.Context, tx *gorm.DB, actor auth.Principal, v *model.Vehicle, driverID uint, reason string) (*model.TransferLog, error) {
	if err := requireDriver(ctx, tx, driverID); err != nil {
		return nil, err
	}
	if err := tx.Model(&model.Vehicle{}).Where("id = ?", v.ID).Update("assigned_driver_id", driverID).Error; err != nil {
		return nil, apperr.FromDB(err, "vehicle", v.ID)
	}
	entry := model.TransferLog{
		VehicleID:    v.ID,
		FromDriverID: v.AssignedDriverID,
		ToDriverID:   driverID,
		Reason:       strings.TrimSpace(reason),
		ByUserID:     actor.UserID,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, apperr.FromDB(err, "transfer log", v.ID)
	}
	return &entry, nil
}

func requireDriver(ctx context.Context, tx *gorm.DB, userID uint) error {
	u, err := getActive[model.User](ctx, tx, userID, "driver")
	if err != nil {
		return err
	}
	if u.Role != model.RoleDriver {
		return apperr.Validation("user %d is not a driver", userID)
	}
	return nil
}

func (s *gormStore) ListTransfers(ctx context.Context, vehicleID uint) ([]model.TransferLog, error) {
	if _, err := s.GetVehicle(ctx, vehicleID); err != nil {
		return nil, err
	}
	return listActive[model.TransferLog](ctx, s.db, eq("vehicle_id", &vehicleID))
}

// RecordRun logs a day of usage. Drivers may only report runs of the vehicle
// assigned to them.
func (s *gormStore) RecordRun(ctx context.Context, actor auth.Principal, in NewRun) (*model.DailyRun, error) {
	if in.Minutes < 0 {
		return nil, apperr.Validation("run_duration_minutes must not be negative")
	}
	today := s.Today()
	date := today
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	if date.After(today) {
		return nil, apperr.Validation("a run cannot be dated after today")
	}

	run := model.DailyRun{
		VehicleID:          in.VehicleID,
		DriverID:           in.DriverID,
		RunDate:            date,
		RunDurationMinutes: in.Minutes,
		Notes:              strings.TrimSpace(in.Notes),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := getActive[model.Vehicle](ctx, tx, in.VehicleID, "vehicle")
		if err != nil {
			return err
		}
		if actor.Role == model.RoleDriver {
			if v.AssignedDriverID == nil || *v.AssignedDriverID != actor.UserID {
				return apperr.Forbidden("vehicle is not assigned to you")
			}
			run.DriverID = &actor.UserID
		}
		if run.DriverID == nil {
			run.DriverID = v.AssignedDriverID
		}
		return apperr.FromDB(tx.Create(&run).Error, "daily run", in.VehicleID)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RecordService stores a completed service, derives the next due date from
// the override, the vehicle's period or the default, and refreshes the
// vehicle's summary.
func (s *gormStore) RecordService(ctx context.Context, actor auth.Principal, in NewService) (*model.ServiceRecord, error) {
	if in.DurationMinutes < 0 {
		return nil, apperr.Validation("service_duration_minutes must not be negative")
	}
	if in.PeriodDays != nil && *in.PeriodDays <= 0 {
		return nil, apperr.Validation("service period must be positive")
	}
	today := s.Today()
	servicedAt := today
	if in.ServicedAt != nil && !in.ServicedAt.IsZero() {
		servicedAt = *in.ServicedAt
	}
	if servicedAt.After(today) {
		return nil, apperr.Validation("a service cannot be dated after today")
	}

	var rec model.ServiceRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := getActive[model.Vehicle](ctx, tx, in.VehicleID, "vehicle")
		if err != nil {
			return err
		}
		period := v.ServicePeriodDays
		if in.PeriodDays != nil {
			period = *in.PeriodDays
		}
		rec = model.ServiceRecord{
			VehicleID:              v.ID,
			ServicedAt:             servicedAt,
			ServiceDurationMinutes: in.DurationMinutes,
			Notes:                  strings.TrimSpace(in.Notes),
			NextServiceDue:         lifecycle.ServiceDue(servicedAt, period),
		}
		if actor.UserID != 0 {
			rec.RecordedByID = &actor.UserID
		}
		if err := tx.Create(&rec).Error; err != nil {
			return apperr.FromDB(err, "service record", v.ID)
		}
		return recomputeVehicleSummary(tx, v.ID)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteServiceRecord removes a service and recomputes the vehicle summary
// from what remains.
func (s *gormStore) DeleteServiceRecord(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.ServiceRecord
		if err := tx.First(&rec, id).Error; err != nil {
			return apperr.FromDB(err, "service record", id)
		}
		if err := tx.Delete(&model.ServiceRecord{}, id).Error; err != nil {
			return apperr.FromDB(err, "service record", id)
		}
		return recomputeVehicleSummary(tx, rec.VehicleID)
	})
}

// recomputeVehicleSummary is the only writer of the vehicle's cached
// last/next service columns.
func recomputeVehicleSummary(tx *gorm.DB, vehicleID uint) error {
	var latest []model.ServiceRecord
	err := tx.Where("vehicle_id = ?", vehicleID).
		Order("serviced_at DESC").Order("id DESC").
		Limit(1).Find(&latest).Error
	if err != nil {
		return apperr.FromDB(err, "service record", vehicleID)
	}

	updates := map[string]any{"last_service_date": nil, "next_service_due": nil}
	if len(latest) == 1 {
		updates["last_service_date"] = latest[0].ServicedAt
		updates["next_service_due"] = latest[0].NextServiceDue
	}
	err = tx.Model(&model.Vehicle{}).Where("id = ?", vehicleID).Updates(updates).Error
	return apperr.FromDB(err, "vehicle", vehicleID)
}
