package store

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/lifecycle"
	"ac-maintenance-backend/internal/model"
)

var (
	minTonnage = decimal.RequireFromString("0.5")
	maxTonnage = decimal.NewFromInt(100)
)

func requireName(name, resource string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("%s name is required", resource)
	}
	return name, nil
}

// --- divisions ---

func (s *gormStore) CreateDivision(ctx context.Context, d *model.Division) error {
	name, err := requireName(d.Name, "division")
	if err != nil {
		return err
	}
	d.Name = name
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Division{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "division", name)
		}
		if n > 0 {
			return apperr.Validation("division %q already exists", name)
		}
		return apperr.FromDB(tx.Create(d).Error, "division", name)
	})
}

func (s *gormStore) ListDivisions(ctx context.Context) ([]model.Division, error) {
	return listActive[model.Division](ctx, s.db)
}

func (s *gormStore) GetDivision(ctx context.Context, id uint) (*model.Division, error) {
	return getActive[model.Division](ctx, s.db, id, "division")
}

func (s *gormStore) RenameDivision(ctx context.Context, id uint, name string) (*model.Division, error) {
	name, err := requireName(name, "division")
	if err != nil {
		return nil, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Division{}).Where("name = ? AND id <> ?", name, id).Count(&n).Error; err != nil {
		return nil, apperr.FromDB(err, "division", id)
	}
	if n > 0 {
		return nil, apperr.Validation("division %q already exists", name)
	}
	return rename[model.Division](ctx, s.db, id, name, "division")
}

func (s *gormStore) DeactivateDivision(ctx context.Context, id uint) error {
	return deactivate[model.Division](ctx, s.db, id, "division")
}

// --- subdivisions ---

func (s *gormStore) CreateSubdivision(ctx context.Context, sd *model.Subdivision) error {
	name, err := requireName(sd.Name, "subdivision")
	if err != nil {
		return err
	}
	sd.Name = name
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActive[model.Division](tx, sd.DivisionID, "division"); err != nil {
			return err
		}
		return apperr.FromDB(tx.Create(sd).Error, "subdivision", name)
	})
}

func (s *gormStore) ListSubdivisions(ctx context.Context, divisionID *uint) ([]model.Subdivision, error) {
	return listActive[model.Subdivision](ctx, s.db, eq("division_id", divisionID))
}

func (s *gormStore) GetSubdivision(ctx context.Context, id uint) (*model.Subdivision, error) {
	return getActive[model.Subdivision](ctx, s.db, id, "subdivision")
}

func (s *gormStore) RenameSubdivision(ctx context.Context, id uint, name string) (*model.Subdivision, error) {
	name, err := requireName(name, "subdivision")
	if err != nil {
		return nil, err
	}
	return rename[model.Subdivision](ctx, s.db, id, name, "subdivision")
}

func (s *gormStore) DeactivateSubdivision(ctx context.Context, id uint) error {
	return deactivate[model.Subdivision](ctx, s.db, id, "subdivision")
}

// --- stations ---

// CreateStation requires the subdivision to exist and belong to the given
// division; a zero DivisionID is filled from the subdivision.
func (s *gormStore) CreateStation(ctx context.Context, st *model.Station) error {
	name, err := requireName(st.Name, "station")
	if err != nil {
		return err
	}
	st.Name = name
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sd, err := getActive[model.Subdivision](ctx, tx, st.SubdivisionID, "subdivision")
		if err != nil {
			return err
		}
		if st.DivisionID == 0 {
			st.DivisionID = sd.DivisionID
		}
		if st.DivisionID != sd.DivisionID {
			return apperr.Validation("subdivision %d does not belong to division %d", sd.ID, st.DivisionID)
		}
		return apperr.FromDB(tx.Create(st).Error, "station", name)
	})
}

func (s *gormStore) ListStations(ctx context.Context, subdivisionID *uint) ([]model.Station, error) {
	return listActive[model.Station](ctx, s.db, eq("subdivision_id", subdivisionID))
}

func (s *gormStore) RenameStation(ctx context.Context, id uint, name string) (*model.Station, error) {
	name, err := requireName(name, "station")
	if err != nil {
		return nil, err
	}
	return rename[model.Station](ctx, s.db, id, name, "station")
}

func (s *gormStore) DeactivateStation(ctx context.Context, id uint) error {
	return deactivate[model.Station](ctx, s.db, id, "station")
}

// --- equipment catalogs ---

func (s *gormStore) CreateMake(ctx context.Context, m *model.Make) error {
	name, err := requireName(m.Name, "make")
	if err != nil {
		return err
	}
	if len(name) > 70 {
		return apperr.Validation("make name must be at most 70 characters")
	}
	m.Name = name
	return apperr.FromDB(s.db.WithContext(ctx).Create(m).Error, "make", name)
}

func (s *gormStore) ListMakes(ctx context.Context) ([]model.Make, error) {
	return listActive[model.Make](ctx, s.db)
}

func (s *gormStore) RenameMake(ctx context.Context, id uint, name string) (*model.Make, error) {
	name, err := requireName(name, "make")
	if err != nil {
		return nil, err
	}
	return rename[model.Make](ctx, s.db, id, name, "make")
}

// DeleteMake physically removes the make together with every air
// conditioner of that make and their maintenance history.
func (s *gormStore) DeleteMake(ctx context.Context, id uint) error {
	return s.deleteCatalogEntry(ctx, &model.Make{}, "make_id", id, "make")
}

func (s *gormStore) CreateCapacity(ctx context.Context, c *model.Capacity) error {
	if c.Tonnage.LessThan(minTonnage) || c.Tonnage.GreaterThan(maxTonnage) {
		return apperr.Validation("tonnage must be between %s and %s", minTonnage, maxTonnage)
	}
	c.Tonnage = c.Tonnage.Round(1)
	return apperr.FromDB(s.db.WithContext(ctx).Create(c).Error, "capacity", c.Tonnage)
}

func (s *gormStore) ListCapacities(ctx context.Context) ([]model.Capacity, error) {
	return listActive[model.Capacity](ctx, s.db)
}

func (s *gormStore) DeleteCapacity(ctx context.Context, id uint) error {
	return s.deleteCatalogEntry(ctx, &model.Capacity{}, "capacity_id", id, "capacity")
}

func (s *gormStore) CreateRefrigerant(ctx context.Context, r *model.Refrigerant) error {
	typ := strings.TrimSpace(r.Type)
	if typ == "" {
		return apperr.Validation("refrigerant type is required")
	}
	r.Type = typ
	return apperr.FromDB(s.db.WithContext(ctx).Create(r).Error, "refrigerant", typ)
}

func (s *gormStore) ListRefrigerants(ctx context.Context) ([]model.Refrigerant, error) {
	return listActive[model.Refrigerant](ctx, s.db)
}

func (s *gormStore) DeleteRefrigerant(ctx context.Context, id uint) error {
	return s.deleteCatalogEntry(ctx, &model.Refrigerant{}, "refrigerant_id", id, "refrigerant")
}

func (s *gormStore) deleteCatalogEntry(ctx context.Context, entry any, acColumn string, id uint, resource string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(entry).Where("id = ?", id).Count(&n).Error; err != nil {
			return apperr.FromDB(err, resource, id)
		}
		if n == 0 {
			return apperr.NotFound(resource, id)
		}

		var acIDs []uint
		if err := tx.Model(&model.AirConditioner{}).Where(acColumn+" = ?", id).Pluck("id", &acIDs).Error; err != nil {
			return apperr.FromDB(err, "air conditioner", id)
		}
		if err := purgeAirConditioners(tx, acIDs); err != nil {
			return err
		}
		if err := tx.Delete(entry, id).Error; err != nil {
			return apperr.FromDB(err, resource, id)
		}
		s.logger.Info("catalog entry deleted",
			zap.String("resource", resource), zap.Uint("id", id), zap.Int("air_conditioners", len(acIDs)))
		return nil
	})
}

// --- checklist items ---

func (s *gormStore) CreateChecklistItem(ctx context.Context, item *model.ChecklistItem) error {
	desc := strings.TrimSpace(item.Description)
	if desc == "" || len(desc) > 200 {
		return apperr.Validation("description must be 1 to 200 characters")
	}
	if !lifecycle.ValidType(item.MaintenanceType) {
		return apperr.Validation("unknown maintenance_type %q", item.MaintenanceType)
	}
	item.Description = desc
	return apperr.FromDB(s.db.WithContext(ctx).Create(item).Error, "checklist item", desc)
}

func (s *gormStore) ListChecklistItems(ctx context.Context, t *model.MaintenanceType) ([]model.ChecklistItem, error) {
	return listActive[model.ChecklistItem](ctx, s.db, eq("maintenance_type", t))
}

func (s *gormStore) DeactivateChecklistItem(ctx context.Context, id uint) error {
	return deactivate[model.ChecklistItem](ctx, s.db, id, "checklist item")
}

// DropdownData returns every active reference list in one call.
func (s *gormStore) DropdownData(ctx context.Context) (*DropdownData, error) {
	var (
		out DropdownData
		err error
	)
	if out.Makes, err = s.ListMakes(ctx); err != nil {
		return nil, err
	}
	if out.Capacities, err = s.ListCapacities(ctx); err != nil {
		return nil, err
	}
	if out.Refrigerants, err = s.ListRefrigerants(ctx); err != nil {
		return nil, err
	}
	if out.Divisions, err = s.ListDivisions(ctx); err != nil {
		return nil, err
	}
	if out.Subdivisions, err = s.ListSubdivisions(ctx, nil); err != nil {
		return nil, err
	}
	if out.Stations, err = s.ListStations(ctx, nil); err != nil {
		return nil, err
	}
	if out.Maintainers, err = s.ListMaintainers(ctx, nil); err != nil {
		return nil, err
	}
	out.MaintenanceTypes = []model.MaintenanceType{
		model.MaintenanceMonthly, model.MaintenanceQuarterly, model.MaintenanceSixMonthly,
		model.MaintenanceYearly, model.MaintenanceUnscheduled,
	}
	out.Statuses = []model.MaintenanceStatus{
		model.StatusScheduled, model.StatusCompleted, model.StatusOverdue, model.StatusBreakdown,
	}
	return &out, nil
}
