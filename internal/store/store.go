package store

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/auth"
	"ac-maintenance-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	Today() model.Date

	ReferenceStore
	AssetStore
	MaintenanceStore
	UserStore
	FleetStore
	SubscriptionStore
}

// ReferenceStore manages the organizational hierarchy and equipment catalogs.
type ReferenceStore interface {
	CreateDivision(ctx context.Context, d *model.Division) error
	ListDivisions(ctx context.Context) ([]model.Division, error)
	GetDivision(ctx context.Context, id uint) (*model.Division, error)
	RenameDivision(ctx context.Context, id uint, name string) (*model.Division, error)
	DeactivateDivision(ctx context.Context, id uint) error

	CreateSubdivision(ctx context.Context, sd *model.Subdivision) error
	ListSubdivisions(ctx context.Context, divisionID *uint) ([]model.Subdivision, error)
	GetSubdivision(ctx context.Context, id uint) (*model.Subdivision, error)
	RenameSubdivision(ctx context.Context, id uint, name string) (*model.Subdivision, error)
	DeactivateSubdivision(ctx context.Context, id uint) error

	CreateStation(ctx context.Context, st *model.Station) error
	ListStations(ctx context.Context, subdivisionID *uint) ([]model.Station, error)
	RenameStation(ctx context.Context, id uint, name string) (*model.Station, error)
	DeactivateStation(ctx context.Context, id uint) error

	CreateMake(ctx context.Context, m *model.Make) error
	ListMakes(ctx context.Context) ([]model.Make, error)
	RenameMake(ctx context.Context, id uint, name string) (*model.Make, error)
	DeleteMake(ctx context.Context, id uint) error

	CreateCapacity(ctx context.Context, c *model.Capacity) error
	ListCapacities(ctx context.Context) ([]model.Capacity, error)
	DeleteCapacity(ctx context.Context, id uint) error

	CreateRefrigerant(ctx context.Context, r *model.Refrigerant) error
	ListRefrigerants(ctx context.Context) ([]model.Refrigerant, error)
	DeleteRefrigerant(ctx context.Context, id uint) error

	CreateChecklistItem(ctx context.Context, item *model.ChecklistItem) error
	ListChecklistItems(ctx context.Context, t *model.MaintenanceType) ([]model.ChecklistItem, error)
	DeactivateChecklistItem(ctx context.Context, id uint) error

	DropdownData(ctx context.Context) (*DropdownData, error)
}

// AssetStore manages air conditioners and maintainers.
type AssetStore interface {
	CreateAirConditioner(ctx context.Context, actor auth.Principal, ac *model.AirConditioner) error
	GetAirConditioner(ctx context.Context, id uint) (*model.AirConditioner, error)
	ListAirConditioners(ctx context.Context, f ACFilter) ([]model.AirConditioner, error)
	UpdateAirConditioner(ctx context.Context, actor auth.Principal, id uint, p ACPatch) (*model.AirConditioner, error)
	DeactivateAirConditioner(ctx context.Context, actor auth.Principal, id uint) error

	CreateMaintainer(ctx context.Context, m *model.Maintainer) error
	GetMaintainer(ctx context.Context, id uint) (*model.Maintainer, error)
	ListMaintainers(ctx context.Context, subdivisionID *uint) ([]model.Maintainer, error)
	DeleteMaintainer(ctx context.Context, id uint) error
}

// MaintenanceStore records maintenance events and keeps the derived due
// windows and asset summaries consistent with them.
type MaintenanceStore interface {
	CreateMaintenance(ctx context.Context, actor auth.Principal, in NewMaintenance) (*model.MaintenanceRecord, error)
	GetMaintenance(ctx context.Context, id uint) (*model.MaintenanceRecord, error)
	ListMaintenance(ctx context.Context, f MaintenanceFilter) ([]model.MaintenanceRecord, error)
	UpdateMaintenance(ctx context.Context, actor auth.Principal, id uint, p MaintenancePatch) (*model.MaintenanceRecord, error)
	CompleteMaintenance(ctx context.Context, actor auth.Principal, id uint, c Completion) (*model.MaintenanceRecord, error)
	AddParts(ctx context.Context, actor auth.Principal, id uint, parts []model.PartsReplaced) (*model.MaintenanceRecord, error)
	DeleteMaintenance(ctx context.Context, actor auth.Principal, id uint) error

	ListOverdue(ctx context.Context, f MaintenanceFilter) ([]model.MaintenanceRecord, error)
	ListDueWindows(ctx context.Context, f DueWindowFilter) ([]model.DueWindow, error)
	RecomputeAssetSummary(ctx context.Context, acID uint) (*model.AirConditioner, error)
	SweepOverdue(ctx context.Context) (int64, error)
}

// UserStore manages login accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	CreateFirstUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, role *model.Role) ([]model.User, error)
}

// FleetStore manages vehicles, their drivers, runs and services.
type FleetStore interface {
	CreateVehicle(ctx context.Context, in NewVehicle) (*model.Vehicle, error)
	GetVehicle(ctx context.Context, id uint) (*model.Vehicle, error)
	ListVehicles(ctx context.Context, driverID *uint) ([]model.Vehicle, error)
	AssignVehicle(ctx context.Context, actor auth.Principal, vehicleID, driverID uint, reason string) (*model.Vehicle, error)
	TransferVehicle(ctx context.Context, actor auth.Principal, vehicleID, toDriverID uint, reason string) (*model.TransferLog, error)
	ListTransfers(ctx context.Context, vehicleID uint) ([]model.TransferLog, error)
	RecordRun(ctx context.Context, actor auth.Principal, in NewRun) (*model.DailyRun, error)
	RecordService(ctx context.Context, actor auth.Principal, in NewService) (*model.ServiceRecord, error)
	DeleteServiceRecord(ctx context.Context, id uint) error
}

// SubscriptionStore manages breakdown alert subscriptions.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription, subdivisionIDs []uint) error
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
}

// Option customizes a gormStore.
type Option func(*gormStore)

// WithClock sets the source of "today". Tests pin it; production passes a
// clock in the configured timezone.
func WithClock(now func() time.Time) Option {
	return func(s *gormStore) { s.now = now }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *gormStore) { s.logger = l }
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...Option) Store {
	s := &gormStore{db: db, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *gormStore) DB() *gorm.DB { return s.db }

func (s *gormStore) Today() model.Date { return model.DateOf(s.now()) }

// --- generic helpers ---

func getActive[T any](ctx context.Context, db *gorm.DB, id uint, resource string) (*T, error) {
	var v T
	if err := db.WithContext(ctx).Where("is_active = ?", true).First(&v, id).Error; err != nil {
		return nil, apperr.FromDB(err, resource, id)
	}
	return &v, nil
}

func requireActive[T any](tx *gorm.DB, id uint, resource string) error {
	var n int64
	if err := tx.Model(new(T)).Where("id = ? AND is_active = ?", id, true).Count(&n).Error; err != nil {
		return apperr.FromDB(err, resource, id)
	}
	if n == 0 {
		return apperr.NotFound(resource, id)
	}
	return nil
}

func listActive[T any](ctx context.Context, db *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) ([]T, error) {
	var out []T
	if err := db.WithContext(ctx).Scopes(scopes...).Where("is_active = ?", true).Order("id").Find(&out).Error; err != nil {
		return nil, apperr.FromDB(err, "list", "")
	}
	return out, nil
}

func deactivate[T any](ctx context.Context, db *gorm.DB, id uint, resource string) error {
	res := db.WithContext(ctx).Model(new(T)).Where("id = ? AND is_active = ?", id, true).Update("is_active", false)
	if res.Error != nil {
		return apperr.FromDB(res.Error, resource, id)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(resource, id)
	}
	return nil
}

func rename[T any](ctx context.Context, db *gorm.DB, id uint, name, resource string) (*T, error) {
	res := db.WithContext(ctx).Model(new(T)).Where("id = ? AND is_active = ?", id, true).Update("name", name)
	if res.Error != nil {
		return nil, apperr.FromDB(res.Error, resource, id)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound(resource, id)
	}
	return getActive[T](ctx, db, id, resource)
}

func eq[T any](column string, v *T) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v == nil {
			return db
		}
		return db.Where(column+" = ?", *v)
	}
}
