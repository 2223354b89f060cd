package store

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/model"
)

// --- air conditioners ---

// CreateAirConditioner registers an asset. Division is taken from the
// subdivision; references must be active and inside actor's jurisdiction.
func (s *gormStore) CreateAirConditioner(ctx context.Context, actor auth.Principal, ac *model.AirConditioner) error {
	ac.SerialNumber = strings.TrimSpace(ac.SerialNumber)
	if ac.SerialNumber == "" {
		return apperr.Validation("serial_number is required")
	}
	if err := checkAssetDates(ac.ManufacturingDate, ac.InstallDate); err != nil {
		return err
	}
	// the summary belongs to the lifecycle engine
	ac.LastMaintenanceType, ac.LastMaintenanceDate, ac.NextDueDate = nil, nil, nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.AirConditioner{}).Where("serial_number = ?", ac.SerialNumber).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "air conditioner", ac.SerialNumber)
		}
		if n > 0 {
			return apperr.Validation("serial_number %q already exists", ac.SerialNumber)
		}
		if err := resolveAssetRefs(ctx, tx, ac); err != nil {
			return err
		}
		if !actor.Covers(ac.DivisionID, ac.SubdivisionID) {
			return apperr.Forbidden("air conditioner is outside your jurisdiction")
		}
		return apperr.FromDB(tx.Omit(assetAssociations...).Create(ac).Error, "air conditioner", ac.SerialNumber)
	})
}

var assetAssociations = []string{"Make", "Capacity", "Refrigerant", "Maintainer", "Station", "Subdivision", "Division"}

func (s *gormStore) GetAirConditioner(ctx context.Context, id uint) (*model.AirConditioner, error) {
	var ac model.AirConditioner
	q := s.db.WithContext(ctx)
	for _, assoc := range assetAssociations {
		q = q.Preload(assoc)
	}
	if err := q.Where("is_active = ?", true).First(&ac, id).Error; err != nil {
		return nil, apperr.FromDB(err, "air conditioner", id)
	}
	return &ac, nil
}

func (s *gormStore) ListAirConditioners(ctx context.Context, f ACFilter) ([]model.AirConditioner, error) {
	q := s.db.WithContext(ctx).
		Preload("Make").Preload("Capacity").Preload("Refrigerant").Preload("Station").
		Scopes(
			eq("division_id", f.DivisionID),
			eq("subdivision_id", f.SubdivisionID),
			eq("station_id", f.StationID),
			eq("maintainer_id", f.MaintainerID),
		)
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	var acs []model.AirConditioner
	if err := q.Order("id").Find(&acs).Error; err != nil {
		return nil, apperr.FromDB(err, "air conditioner", "list")
	}
	return acs, nil
}

// UpdateAirConditioner applies the editable fields of p. Moving an asset to
// another subdivision requires jurisdiction over both ends.
func (s *gormStore) UpdateAirConditioner(ctx context.Context, actor auth.Principal, id uint, p ACPatch) (*model.AirConditioner, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ac, err := getActive[model.AirConditioner](ctx, tx, id, "air conditioner")
		if err != nil {
			return err
		}
		if !actor.Covers(ac.DivisionID, ac.SubdivisionID) {
			return apperr.Forbidden("air conditioner is outside your jurisdiction")
		}

		if p.Model != nil {
			ac.Model = *p.Model
		}
		if p.PreciseLocation != nil {
			ac.PreciseLocation = *p.PreciseLocation
		}
		if p.InstallDate != nil {
			ac.InstallDate = p.InstallDate
		}
		if p.ManufacturingDate != nil {
			ac.ManufacturingDate = p.ManufacturingDate
		}
		if p.StationID != nil {
			ac.StationID = p.StationID
		}
		if p.MakeID != nil {
			ac.MakeID = *p.MakeID
		}
		if p.CapacityID != nil {
			ac.CapacityID = *p.CapacityID
		}
		if p.RefrigerantID != nil {
			ac.RefrigerantID = *p.RefrigerantID
		}
		if p.MaintainerID != nil {
			ac.MaintainerID = p.MaintainerID
		}
		if p.SubdivisionID != nil {
			ac.SubdivisionID = p.SubdivisionID
		}

		if err := checkAssetDates(ac.ManufacturingDate, ac.InstallDate); err != nil {
			return err
		}
		if err := resolveAssetRefs(ctx, tx, ac); err != nil {
			return err
		}
		if !actor.Covers(ac.DivisionID, ac.SubdivisionID) {
			return apperr.Forbidden("air conditioner is outside your jurisdiction")
		}

		err = tx.Model(&model.AirConditioner{}).Where("id = ?", id).Updates(map[string]any{
			"model":              ac.Model,
			"precise_location":   ac.PreciseLocation,
			"install_date":       dateOrNil(ac.InstallDate),
			"manufacturing_date": dateOrNil(ac.ManufacturingDate),
			"station_id":         ac.StationID,
			"make_id":            ac.MakeID,
			"capacity_id":        ac.CapacityID,
			"refrigerant_id":     ac.RefrigerantID,
			"maintainer_id":      ac.MaintainerID,
			"subdivision_id":     ac.SubdivisionID,
			"division_id":        ac.DivisionID,
		}).Error
		return apperr.FromDB(err, "air conditioner", id)
	})
	if err != nil {
		return nil, err
	}
	return s.GetAirConditioner(ctx, id)
}

// DeactivateAirConditioner soft-deletes an asset. Its history is kept.
func (s *gormStore) DeactivateAirConditioner(ctx context.Context, actor auth.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.authorizeAsset(tx, actor, id); err != nil {
			return err
		}
		return deactivate[model.AirConditioner](ctx, tx, id, "air conditioner")
	})
}

func checkAssetDates(manufactured, installed *model.Date) error {
	if manufactured != nil && installed != nil && manufactured.After(*installed) {
		return apperr.Validation("manufacturing_date must not be after install_date")
	}
	return nil
}

// resolveAssetRefs checks every reference of ac and fills DivisionID from
// the subdivision.
func resolveAssetRefs(ctx context.Context, tx *gorm.DB, ac *model.AirConditioner) error {
	if err := requireActive[model.Make](tx, ac.MakeID, "make"); err != nil {
		return err
	}
	if err := requireActive[model.Capacity](tx, ac.CapacityID, "capacity"); err != nil {
		return err
	}
	if err := requireActive[model.Refrigerant](tx, ac.RefrigerantID, "refrigerant"); err != nil {
		return err
	}
	if ac.MaintainerID != nil {
		if err := requireActive[model.Maintainer](tx, *ac.MaintainerID, "maintainer"); err != nil {
			return err
		}
	}
	if ac.SubdivisionID != nil {
		sd, err := getActive[model.Subdivision](ctx, tx, *ac.SubdivisionID, "subdivision")
		if err != nil {
			return err
		}
		ac.DivisionID = &sd.DivisionID
	}
	if ac.StationID != nil {
		st, err := getActive[model.Station](ctx, tx, *ac.StationID, "station")
		if err != nil {
			return err
		}
		if ac.SubdivisionID == nil {
			ac.SubdivisionID = &st.SubdivisionID
			ac.DivisionID = &st.DivisionID
		}
		if st.SubdivisionID != *ac.SubdivisionID {
			return apperr.Validation("station %d does not belong to subdivision %d", st.ID, *ac.SubdivisionID)
		}
	}
	return nil
}

// --- maintainers ---

func (s *gormStore) CreateMaintainer(ctx context.Context, m *model.Maintainer) error {
	name, err := requireName(m.Name, "maintainer")
	if err != nil {
		return err
	}
	m.Name = name
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActive[model.Subdivision](tx, m.SubdivisionID, "subdivision"); err != nil {
			return err
		}
		if m.UserID != nil {
			if err := requireActive[model.User](tx, *m.UserID, "user"); err != nil {
				return err
			}
		}
		return apperr.FromDB(tx.Omit("Subdivision").Create(m).Error, "maintainer", name)
	})
}

func (s *gormStore) GetMaintainer(ctx context.Context, id uint) (*model.Maintainer, error) {
	var m model.Maintainer
	err := s.db.WithContext(ctx).Preload("Subdivision").Where("is_active = ?", true).First(&m, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "maintainer", id)
	}
	return &m, nil
}

func (s *gormStore) ListMaintainers(ctx context.Context, subdivisionID *uint) ([]model.Maintainer, error) {
	return listActive[model.Maintainer](ctx, s.db, eq("subdivision_id", subdivisionID))
}

// DeleteMaintainer physically removes a maintainer. Assets assigned to them
// are purged with their history; records they performed on other assets are
// removed and those assets' derived state recomputed.
func (s *gormStore) DeleteMaintainer(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Maintainer{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "maintainer", id)
		}
		if n == 0 {
			return apperr.NotFound("maintainer", id)
		}

		var assigned []uint
		if err := tx.Model(&model.AirConditioner{}).Where("maintainer_id = ?", id).Pluck("id", &assigned).Error; err != nil {
			return apperr.FromDB(err, "air conditioner", id)
		}
		if err := purgeAirConditioners(tx, assigned); err != nil {
			return err
		}

		var performed []model.MaintenanceRecord
		if err := tx.Select("id", "ac_id").Where("maintainer_id = ?", id).Find(&performed).Error; err != nil {
			return apperr.FromDB(err, "maintenance record", id)
		}
		recordIDs := make([]uint, 0, len(performed))
		touched := map[uint]struct{}{}
		for _, r := range performed {
			recordIDs = append(recordIDs, r.ID)
			touched[r.ACID] = struct{}{}
		}
		if err := deleteRecords(tx, recordIDs); err != nil {
			return err
		}
		for acID := range touched {
			if err := refreshAsset(tx, acID); err != nil {
				return err
			}
		}

		if err := tx.Delete(&model.Maintainer{}, id).Error; err != nil {
			return apperr.FromDB(err, "maintainer", id)
		}
		s.logger.Info("maintainer deleted",
			zap.Uint("id", id),
			zap.Int("purged_air_conditioners", len(assigned)),
			zap.Int("removed_records", len(recordIDs)),
			zap.Int("recomputed_air_conditioners", len(touched)))
		return nil
	})
}
