package model

// AirConditioner is a tracked asset. The Last*/NextDueDate columns are a
// cached summary of its maintenance history and are written only by the
// lifecycle engine.
type AirConditioner struct {
	Base
	SerialNumber      string `gorm:"size:100;not null;uniqueIndex" json:"serial_number"`
	Model             string `gorm:"size:100" json:"model,omitempty"`
	StationID         *uint  `gorm:"index" json:"station_id,omitempty"`
	PreciseLocation   string `gorm:"size:200" json:"precise_location,omitempty"`
	InstallDate       *Date  `json:"install_date,omitempty"`
	ManufacturingDate *Date  `gorm:"check:chk_air_conditioners_dates,manufacturing_date IS NULL OR install_date IS NULL OR manufacturing_date <= install_date" json:"manufacturing_date,omitempty"`
	MakeID            uint   `gorm:"not null;index" json:"make_id"`
	CapacityID        uint   `gorm:"not null;index" json:"capacity_id"`
	RefrigerantID     uint   `gorm:"not null;index" json:"refrigerant_id"`
	MaintainerID      *uint  `gorm:"index" json:"maintainer_id,omitempty"`
	DivisionID        *uint  `gorm:"index" json:"division_id,omitempty"`
	SubdivisionID     *uint  `gorm:"index" json:"subdivision_id,omitempty"`

	LastMaintenanceType *MaintenanceType `gorm:"size:20" json:"last_maintenance_type"`
	LastMaintenanceDate *Date            `json:"last_maintenance_date"`
	NextDueDate         *Date            `json:"next_due_date"`

	Make        *Make        `json:"make,omitempty"`
	Capacity    *Capacity    `json:"capacity,omitempty"`
	Refrigerant *Refrigerant `json:"refrigerant,omitempty"`
	Maintainer  *Maintainer  `json:"maintainer,omitempty"`
	Station     *Station     `json:"station,omitempty"`
	Subdivision *Subdivision `json:"subdivision,omitempty"`
	Division    *Division    `json:"division,omitempty"`
}
