package store

import (
	"context"

	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/lifecycle"
	"ac-maintenance-backend/internal/model"
)

// CreateMaintenance records a maintenance event. Due date and status are
// derived from the type and event date; a completed event also replaces the
// asset's due window and refreshes its summary, all in one transaction.
func (s *gormStore) CreateMaintenance(ctx context.Context, actor auth.Principal, in NewMaintenance) (*model.MaintenanceRecord, error) {
	if !lifecycle.ValidType(in.Type) {
		return nil, apperr.Validation("unknown maintenance_type %q", in.Type)
	}
	if err := lifecycle.ValidateParts(in.Parts); err != nil {
		return nil, err
	}

	today := s.Today()
	date := today
	if in.MaintenanceDate != nil && !in.MaintenanceDate.IsZero() {
		date = *in.MaintenanceDate
	}
	if in.IsCompleted && date.After(today) {
		return nil, apperr.Validation("a completed maintenance cannot be dated after today")
	}

	due := lifecycle.DueDate(in.Type, date)
	rec := model.MaintenanceRecord{
		ACID:            in.ACID,
		MaintainerID:    in.MaintainerID,
		MaintenanceType: in.Type,
		MaintenanceDate: date,
		NextDueDate:     due,
		WorkDone:        in.WorkDone,
		IsCompleted:     in.IsCompleted,
		Status:          lifecycle.DeriveStatus(in.Type, due, in.IsCompleted, today),
		Parts:           copyParts(in.Parts, 0),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorizeAsset(tx, actor, in.ACID); err != nil {
			return err
		}
		if err := requireActive[model.Maintainer](tx, in.MaintainerID, "maintainer"); err != nil {
			return err
		}
		for _, entry := range in.Checklist {
			if err := requireActive[model.ChecklistItem](tx, entry.ChecklistItemID, "checklist item"); err != nil {
				return err
			}
			rec.Checklist = append(rec.Checklist, model.MaintenanceChecklistRecord{
				ChecklistItemID: entry.ChecklistItemID,
				Done:            entry.Done,
			})
		}

		if err := tx.Create(&rec).Error; err != nil {
			return apperr.FromDB(err, "maintenance record", in.ACID)
		}
		if rec.IsCompleted {
			return completeMaintenance(tx, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetMaintenance(ctx, rec.ID)
}

func (s *gormStore) GetMaintenance(ctx context.Context, id uint) (*model.MaintenanceRecord, error) {
	var rec model.MaintenanceRecord
	err := s.db.WithContext(ctx).
		Preload("Maintainer").
		Preload("Checklist.ChecklistItem").
		Preload("Parts").
		First(&rec, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "maintenance record", id)
	}
	return &rec, nil
}

func (s *gormStore) ListMaintenance(ctx context.Context, f MaintenanceFilter) ([]model.MaintenanceRecord, error) {
	q := s.db.WithContext(ctx)
	if f.WithChildren {
		q = q.Preload("Checklist.ChecklistItem").Preload("Parts")
	}
	var records []model.MaintenanceRecord
	err := q.
		Scopes(maintenanceScope(f)).
		Order("maintenance_records.maintenance_date DESC").
		Order("maintenance_records.id DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperr.FromDB(err, "maintenance record", "list")
	}
	return records, nil
}

// ListOverdue returns uncompleted periodic records whose due date has passed.
func (s *gormStore) ListOverdue(ctx context.Context, f MaintenanceFilter) ([]model.MaintenanceRecord, error) {
	completed := false
	f.Completed = &completed
	var records []model.MaintenanceRecord
	err := s.db.WithContext(ctx).
		Scopes(maintenanceScope(f)).
		Where("maintenance_records.maintenance_type <> ?", model.MaintenanceUnscheduled).
		Where("maintenance_records.next_due_date < ?", s.Today()).
		Order("maintenance_records.next_due_date").
		Find(&records).Error
	if err != nil {
		return nil, apperr.FromDB(err, "maintenance record", "overdue")
	}
	return records, nil
}

func maintenanceScope(f MaintenanceFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.DivisionID != nil || f.SubdivisionID != nil {
			db = db.Joins("JOIN air_conditioners ON air_conditioners.id = maintenance_records.ac_id")
			db = eq("air_conditioners.division_id", f.DivisionID)(db)
			db = eq("air_conditioners.subdivision_id", f.SubdivisionID)(db)
		}
		db = eq("maintenance_records.ac_id", f.ACID)(db)
		db = eq("maintenance_records.maintainer_id", f.MaintainerID)(db)
		db = eq("maintenance_records.maintenance_type", f.Type)(db)
		db = eq("maintenance_records.is_completed", f.Completed)(db)
		if f.From != nil {
			db = db.Where("maintenance_records.maintenance_date >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("maintenance_records.maintenance_date <= ?", *f.To)
		}
		return db
	}
}

// UpdateMaintenance edits a record and re-derives its due date and status.
// Completed records cannot be reopened; editing a completed record refreshes
// the asset's derived state from history.
func (s *gormStore) UpdateMaintenance(ctx context.Context, actor auth.Principal, id uint, p MaintenancePatch) (*model.MaintenanceRecord, error) {
	today := s.Today()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.loadForWrite(tx, actor, id)
		if err != nil {
			return err
		}
		if rec.IsCompleted && p.IsCompleted != nil && !*p.IsCompleted {
			return apperr.Validation("completed maintenance records cannot be reopened")
		}

		wasCompleted := rec.IsCompleted
		changed := false
		if p.Type != nil && *p.Type != rec.MaintenanceType {
			if err := lifecycle.ValidateTypeChange(rec.MaintenanceType, *p.Type); err != nil {
				return err
			}
			rec.MaintenanceType = *p.Type
			changed = true
		}
		if p.MaintenanceDate != nil && !p.MaintenanceDate.Equal(rec.MaintenanceDate) {
			rec.MaintenanceDate = *p.MaintenanceDate
			changed = true
		}
		if p.WorkDone != nil {
			rec.WorkDone = *p.WorkDone
		}
		if p.MaintainerID != nil && *p.MaintainerID != rec.MaintainerID {
			if err := requireActive[model.Maintainer](tx, *p.MaintainerID, "maintainer"); err != nil {
				return err
			}
			rec.MaintainerID = *p.MaintainerID
		}
		if p.IsCompleted != nil {
			rec.IsCompleted = *p.IsCompleted
		}
		if rec.IsCompleted && !wasCompleted && p.MaintenanceDate == nil && rec.MaintenanceDate.After(today) {
			rec.MaintenanceDate = today
			changed = true
		}
		if rec.IsCompleted && rec.MaintenanceDate.After(today) {
			return apperr.Validation("a completed maintenance cannot be dated after today")
		}

		if err := s.saveDerived(tx, rec, today); err != nil {
			return err
		}
		switch {
		case rec.IsCompleted && !wasCompleted:
			return completeMaintenance(tx, rec)
		case rec.IsCompleted && changed:
			return refreshAsset(tx, rec.ACID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetMaintenance(ctx, id)
}

// CompleteMaintenance marks a record done, ticking checklist items and adding
// replaced parts on the way. Completing an already completed record only
// applies the extra details.
func (s *gormStore) CompleteMaintenance(ctx context.Context, actor auth.Principal, id uint, c Completion) (*model.MaintenanceRecord, error) {
	if err := lifecycle.ValidateParts(c.Parts); err != nil {
		return nil, err
	}
	today := s.Today()
	if c.MaintenanceDate != nil && c.MaintenanceDate.After(today) {
		return nil, apperr.Validation("a completed maintenance cannot be dated after today")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.loadForWrite(tx, actor, id)
		if err != nil {
			return err
		}
		if err := addParts(tx, id, c.Parts); err != nil {
			return err
		}
		if err := applyChecklist(tx, id, c.Checklist); err != nil {
			return err
		}
		if c.WorkDone != nil {
			rec.WorkDone = *c.WorkDone
		}

		wasCompleted := rec.IsCompleted
		dateChanged := false
		switch {
		case c.MaintenanceDate != nil:
			dateChanged = !c.MaintenanceDate.Equal(rec.MaintenanceDate)
			rec.MaintenanceDate = *c.MaintenanceDate
		case !wasCompleted && rec.MaintenanceDate.After(today):
			// done ahead of plan: the event happened today
			rec.MaintenanceDate = today
			dateChanged = true
		}
		rec.IsCompleted = true

		if err := s.saveDerived(tx, rec, today); err != nil {
			return err
		}
		switch {
		case !wasCompleted:
			return completeMaintenance(tx, rec)
		case dateChanged:
			return refreshAsset(tx, rec.ACID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetMaintenance(ctx, id)
}

// AddParts appends replaced parts to an existing record.
func (s *gormStore) AddParts(ctx context.Context, actor auth.Principal, id uint, parts []model.PartsReplaced) (*model.MaintenanceRecord, error) {
	if len(parts) == 0 {
		return nil, apperr.Validation("parts_replaced must not be empty")
	}
	if err := lifecycle.ValidateParts(parts); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.loadForWrite(tx, actor, id); err != nil {
			return err
		}
		return addParts(tx, id, parts)
	})
	if err != nil {
		return nil, err
	}
	return s.GetMaintenance(ctx, id)
}

// DeleteMaintenance removes a record with its children and restores the
// asset's derived state from the remaining history.
func (s *gormStore) DeleteMaintenance(ctx context.Context, actor auth.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := s.loadForWrite(tx, actor, id)
		if err != nil {
			return err
		}
		if err := deleteRecords(tx, []uint{id}); err != nil {
			return err
		}
		return onMaintenanceRecordDeleted(tx, rec)
	})
}

func (s *gormStore) ListDueWindows(ctx context.Context, f DueWindowFilter) ([]model.DueWindow, error) {
	q := s.db.WithContext(ctx).Scopes(eq("maintenance_dates.ac_id", f.ACID))
	if f.DivisionID != nil || f.SubdivisionID != nil {
		q = q.Joins("JOIN air_conditioners ON air_conditioners.id = maintenance_dates.ac_id").
			Scopes(eq("air_conditioners.division_id", f.DivisionID), eq("air_conditioners.subdivision_id", f.SubdivisionID))
	}
	if f.ActiveOnly {
		q = q.Where("maintenance_dates.is_active = ?", true)
	}
	var windows []model.DueWindow
	if err := q.Order("maintenance_dates.ac_id").Order("maintenance_dates.id DESC").Find(&windows).Error; err != nil {
		return nil, apperr.FromDB(err, "due window", "list")
	}
	return windows, nil
}

// --- helpers ---

// authorizeAsset loads an active asset and checks it lies in actor's jurisdiction.
func (s *gormStore) authorizeAsset(tx *gorm.DB, actor auth.Principal, acID uint) error {
	var ac model.AirConditioner
	err := tx.Select("id", "division_id", "subdivision_id").
		Where("is_active = ?", true).
		First(&ac, acID).Error
	if err != nil {
		return apperr.FromDB(err, "air conditioner", acID)
	}
	if !actor.Covers(ac.DivisionID, ac.SubdivisionID) {
		return apperr.Forbidden("air conditioner is outside your jurisdiction")
	}
	return nil
}

func (s *gormStore) loadForWrite(tx *gorm.DB, actor auth.Principal, id uint) (*model.MaintenanceRecord, error) {
	var rec model.MaintenanceRecord
	if err := tx.First(&rec, id).Error; err != nil {
		return nil, apperr.FromDB(err, "maintenance record", id)
	}
	if err := s.authorizeAsset(tx, actor, rec.ACID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// saveDerived re-derives due date and status and writes the editable columns.
func (s *gormStore) saveDerived(tx *gorm.DB, rec *model.MaintenanceRecord, today model.Date) error {
	rec.NextDueDate = lifecycle.DueDate(rec.MaintenanceType, rec.MaintenanceDate)
	rec.Status = lifecycle.DeriveStatus(rec.MaintenanceType, rec.NextDueDate, rec.IsCompleted, today)
	err := tx.Model(&model.MaintenanceRecord{}).Where("id = ?", rec.ID).Updates(map[string]any{
		"maintenance_type": rec.MaintenanceType,
		"maintenance_date": rec.MaintenanceDate,
		"next_due_date":    dateOrNil(rec.NextDueDate),
		"work_done":        rec.WorkDone,
		"maintainer_id":    rec.MaintainerID,
		"is_completed":     rec.IsCompleted,
		"status":           rec.Status,
	}).Error
	return apperr.FromDB(err, "maintenance record", rec.ID)
}

// refreshAsset rebuilds summary and due window after completed history
// changed or lost records.
func refreshAsset(tx *gorm.DB, acID uint) error {
	latest, err := recomputeAssetSummary(tx, acID)
	if err != nil || latest == nil {
		return err
	}
	return resyncDueWindow(tx, acID)
}

func copyParts(parts []model.PartsReplaced, maintenanceID uint) []model.PartsReplaced {
	if len(parts) == 0 {
		return nil
	}
	out := make([]model.PartsReplaced, len(parts))
	for i, p := range parts {
		out[i] = model.PartsReplaced{
			MaintenanceID: maintenanceID,
			PartName:      p.PartName,
			Quantity:      p.Quantity,
			Remarks:       p.Remarks,
		}
	}
	return out
}

func addParts(tx *gorm.DB, maintenanceID uint, parts []model.PartsReplaced) error {
	rows := copyParts(parts, maintenanceID)
	if len(rows) == 0 {
		return nil
	}
	return apperr.FromDB(tx.Create(&rows).Error, "parts replaced", maintenanceID)
}

func applyChecklist(tx *gorm.DB, maintenanceID uint, entries []ChecklistEntry) error {
	for _, entry := range entries {
		if err := requireActive[model.ChecklistItem](tx, entry.ChecklistItemID, "checklist item"); err != nil {
			return err
		}
		res := tx.Model(&model.MaintenanceChecklistRecord{}).
			Where("maintenance_id = ? AND checklist_item_id = ?", maintenanceID, entry.ChecklistItemID).
			Update("done", entry.Done)
		if res.Error != nil {
			return apperr.FromDB(res.Error, "checklist record", maintenanceID)
		}
		if res.RowsAffected > 0 {
			continue
		}
		row := model.MaintenanceChecklistRecord{
			MaintenanceID:   maintenanceID,
			ChecklistItemID: entry.ChecklistItemID,
			Done:            entry.Done,
		}
		if err := tx.Create(&row).Error; err != nil {
			return apperr.FromDB(err, "checklist record", maintenanceID)
		}
	}
	return nil
}
