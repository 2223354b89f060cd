package store

import "ac-maintenance-backend/internal/model"

// ACFilter narrows air conditioner listings. Nil fields do not filter.
type ACFilter struct {
	DivisionID      *uint
	SubdivisionID   *uint
	StationID       *uint
	MaintainerID    *uint
	IncludeInactive bool
}

// ACPatch lists the editable fields of an air conditioner. The cached
// maintenance summary is deliberately absent.
type ACPatch struct {
	Model             *string
	StationID         *uint
	PreciseLocation   *string
	InstallDate       *model.Date
	ManufacturingDate *model.Date
	MakeID            *uint
	CapacityID        *uint
	RefrigerantID     *uint
	MaintainerID      *uint
	SubdivisionID     *uint
}

// ChecklistEntry ticks a checklist item on a maintenance record.
type ChecklistEntry struct {
	ChecklistItemID uint
	Done            bool
}

// NewMaintenance is the input of CreateMaintenance.
type NewMaintenance struct {
	ACID            uint
	MaintainerID    uint
	Type            model.MaintenanceType
	MaintenanceDate *model.Date // defaults to today
	WorkDone        string
	IsCompleted     bool
	Parts           []model.PartsReplaced
	Checklist       []ChecklistEntry
}

// MaintenancePatch is the input of UpdateMaintenance.
type MaintenancePatch struct {
	Type            *model.MaintenanceType
	MaintenanceDate *model.Date
	WorkDone        *string
	IsCompleted     *bool
	MaintainerID    *uint
}

// Completion is the input of CompleteMaintenance.
type Completion struct {
	MaintenanceDate *model.Date
	WorkDone        *string
	Checklist       []ChecklistEntry
	Parts           []model.PartsReplaced
}

// MaintenanceFilter narrows maintenance record listings.
type MaintenanceFilter struct {
	ACID          *uint
	MaintainerID  *uint
	Type          *model.MaintenanceType
	Completed     *bool
	DivisionID    *uint
	SubdivisionID *uint
	From          *model.Date
	To            *model.Date

	// WithChildren loads checklist entries and replaced parts.
	WithChildren bool
}

// DueWindowFilter narrows due window listings.
type DueWindowFilter struct {
	ACID          *uint
	DivisionID    *uint
	SubdivisionID *uint
	ActiveOnly    bool
}

// DropdownData bundles the reference lists a client needs to build forms.
type DropdownData struct {
	Makes            []model.Make              `json:"makes"`
	Capacities       []model.Capacity          `json:"capacities"`
	Refrigerants     []model.Refrigerant       `json:"refrigerants"`
	Divisions        []model.Division          `json:"divisions"`
	Subdivisions     []model.Subdivision       `json:"subdivisions"`
	Stations         []model.Station           `json:"stations"`
	Maintainers      []model.Maintainer        `json:"maintainers"`
	MaintenanceTypes []model.MaintenanceType   `json:"maintenance_types"`
	Statuses         []model.MaintenanceStatus `json:"statuses"`
}

// NewVehicle is the input of CreateVehicle.
type NewVehicle struct {
	VIN               string
	RegistrationNo    string
	Model             string
	AssignedDriverID  *uint
	ServicePeriodDays int
}

// NewRun is the input of RecordRun.
type NewRun struct {
	VehicleID uint
	DriverID  *uint
	Date      *model.Date
	Minutes   int
	Notes     string
}

// NewService is the input of RecordService.
type NewService struct {
	VehicleID       uint
	ServicedAt      *model.Date
	DurationMinutes int
	Notes           string
	PeriodDays      *int
}
