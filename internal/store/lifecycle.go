package store

import (
	"context"

	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/model"
)

// The functions in this file run inside the caller's transaction and are the
// only writers of maintenance_dates and of the cached summary columns on
// air_conditioners.

// completeMaintenance is applied whenever a record becomes completed: the
// asset's due window is replaced by one derived from rec, then the cached
// summary is recomputed from history.
func completeMaintenance(tx *gorm.DB, rec *model.MaintenanceRecord) error {
	if rec.ACID == 0 {
		return nil
	}
	if rec.NextDueDate != nil {
		if err := deactivateDueWindows(tx, rec.ACID); err != nil {
			return err
		}
		window := model.DueWindow{
			ACID:            rec.ACID,
			LastMaintenance: rec.MaintenanceDate,
			NextMaintenance: *rec.NextDueDate,
		}
		if err := tx.Create(&window).Error; err != nil {
			return apperr.FromDB(err, "due window", rec.ACID)
		}
	}
	_, err := recomputeAssetSummary(tx, rec.ACID)
	return err
}

// recomputeAssetSummary copies the most recent completed record into the
// asset's cached summary. With no completed history the summary is cleared
// and every due window deactivated. It returns the record used, if any.
func recomputeAssetSummary(tx *gorm.DB, acID uint) (*model.MaintenanceRecord, error) {
	latest, err := latestCompleted(tx, acID, false)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"last_maintenance_type": nil,
		"last_maintenance_date": nil,
		"next_due_date":         nil,
	}
	if latest != nil {
		updates["last_maintenance_type"] = latest.MaintenanceType
		updates["last_maintenance_date"] = latest.MaintenanceDate
		updates["next_due_date"] = dateOrNil(latest.NextDueDate)
	} else if err := deactivateDueWindows(tx, acID); err != nil {
		return nil, err
	}

	if err := tx.Model(&model.AirConditioner{}).Where("id = ?", acID).Updates(updates).Error; err != nil {
		return nil, apperr.FromDB(err, "air conditioner", acID)
	}
	return latest, nil
}

// onMaintenanceRecordDeleted restores the derived state of the asset after
// rec has been removed.
func onMaintenanceRecordDeleted(tx *gorm.DB, rec *model.MaintenanceRecord) error {
	latest, err := recomputeAssetSummary(tx, rec.ACID)
	if err != nil || latest == nil || !rec.IsCompleted {
		return err
	}
	return resyncDueWindow(tx, rec.ACID)
}

// resyncDueWindow makes the active due window match the latest completed
// record that carries a due date. A matching active window is left alone.
func resyncDueWindow(tx *gorm.DB, acID uint) error {
	latest, err := latestCompleted(tx, acID, true)
	if err != nil {
		return err
	}
	if latest == nil {
		return deactivateDueWindows(tx, acID)
	}

	var active []model.DueWindow
	if err := tx.Where("ac_id = ? AND is_active = ?", acID, true).Find(&active).Error; err != nil {
		return apperr.FromDB(err, "due window", acID)
	}
	if len(active) == 1 &&
		active[0].LastMaintenance.Equal(latest.MaintenanceDate) &&
		active[0].NextMaintenance.Equal(*latest.NextDueDate) {
		return nil
	}

	if err := deactivateDueWindows(tx, acID); err != nil {
		return err
	}
	window := model.DueWindow{
		ACID:            acID,
		LastMaintenance: latest.MaintenanceDate,
		NextMaintenance: *latest.NextDueDate,
	}
	return apperr.FromDB(tx.Create(&window).Error, "due window", acID)
}

func latestCompleted(tx *gorm.DB, acID uint, withDueDate bool) (*model.MaintenanceRecord, error) {
	q := tx.Where("ac_id = ? AND is_completed = ?", acID, true)
	if withDueDate {
		q = q.Where("next_due_date IS NOT NULL")
	}
	var records []model.MaintenanceRecord
	if err := q.Order("maintenance_date DESC").Order("id DESC").Limit(1).Find(&records).Error; err != nil {
		return nil, apperr.FromDB(err, "maintenance record", acID)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func deactivateDueWindows(tx *gorm.DB, acID uint) error {
	err := tx.Model(&model.DueWindow{}).
		Where("ac_id = ? AND is_active = ?", acID, true).
		Update("is_active", false).Error
	return apperr.FromDB(err, "due window", acID)
}

// deleteRecords removes maintenance records and their children.
func deleteRecords(tx *gorm.DB, recordIDs []uint) error {
	if len(recordIDs) == 0 {
		return nil
	}
	if err := tx.Where("maintenance_id IN ?", recordIDs).Delete(&model.MaintenanceChecklistRecord{}).Error; err != nil {
		return apperr.FromDB(err, "checklist record", recordIDs)
	}
	if err := tx.Where("maintenance_id IN ?", recordIDs).Delete(&model.PartsReplaced{}).Error; err != nil {
		return apperr.FromDB(err, "parts replaced", recordIDs)
	}
	if err := tx.Where("id IN ?", recordIDs).Delete(&model.MaintenanceRecord{}).Error; err != nil {
		return apperr.FromDB(err, "maintenance record", recordIDs)
	}
	return nil
}

// purgeAirConditioners physically removes assets with their whole history.
func purgeAirConditioners(tx *gorm.DB, acIDs []uint) error {
	if len(acIDs) == 0 {
		return nil
	}
	var recordIDs []uint
	if err := tx.Model(&model.MaintenanceRecord{}).Where("ac_id IN ?", acIDs).Pluck("id", &recordIDs).Error; err != nil {
		return apperr.FromDB(err, "maintenance record", acIDs)
	}
	if err := deleteRecords(tx, recordIDs); err != nil {
		return err
	}
	if err := tx.Where("ac_id IN ?", acIDs).Delete(&model.DueWindow{}).Error; err != nil {
		return apperr.FromDB(err, "due window", acIDs)
	}
	if err := tx.Where("id IN ?", acIDs).Delete(&model.AirConditioner{}).Error; err != nil {
		return apperr.FromDB(err, "air conditioner", acIDs)
	}
	return nil
}

func dateOrNil(d *model.Date) any {
	if d == nil {
		return nil
	}
	return *d
}

// RecomputeAssetSummary rebuilds one asset's cached summary from its history.
// Running it repeatedly yields the same result.
func (s *gormStore) RecomputeAssetSummary(ctx context.Context, acID uint) (*model.AirConditioner, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActive[model.AirConditioner](tx, acID, "air conditioner"); err != nil {
			return err
		}
		_, err := recomputeAssetSummary(tx, acID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetAirConditioner(ctx, acID)
}

// SweepOverdue persists the Overdue status on scheduled records whose due
// date has passed. Reads derive the same status on the fly; the sweep keeps
// the stored column current for external consumers.
func (s *gormStore) SweepOverdue(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.MaintenanceRecord{}).
		Where("is_completed = ? AND status = ? AND maintenance_type <> ? AND next_due_date < ?",
			false, model.StatusScheduled, model.MaintenanceUnscheduled, s.Today()).
		Update("status", model.StatusOverdue)
	if res.Error != nil {
		return 0, apperr.FromDB(res.Error, "maintenance record", "sweep")
	}
	return res.RowsAffected, nil
}
