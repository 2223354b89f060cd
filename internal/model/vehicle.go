package model

// DefaultServicePeriodDays applies when a vehicle has no period of its own.
const DefaultServicePeriodDays = 90

// Vehicle is a fleet asset. LastServiceDate and NextServiceDue are a cached
// summary of its service records.
type Vehicle struct {
	Base
	VIN               string `gorm:"column:vin;size:64;not null;uniqueIndex" json:"vin"`
	RegistrationNo    string `gorm:"size:32;index" json:"registration_no,omitempty"`
	Model             string `gorm:"size:100" json:"model,omitempty"`
	AssignedDriverID  *uint  `gorm:"index" json:"assigned_driver_id,omitempty"`
	ServicePeriodDays int    `gorm:"not null;default:90;check:chk_vehicles_period,service_period_days > 0" json:"service_period_days"`

	LastServiceDate *Date `json:"last_service_date"`
	NextServiceDue  *Date `json:"next_service_due"`

	AssignedDriver *User `gorm:"foreignKey:AssignedDriverID" json:"assigned_driver,omitempty"`
}

// DailyRun is a driver-reported usage entry.
type DailyRun struct {
	Base
	VehicleID          uint   `gorm:"not null;index" json:"vehicle_id"`
	DriverID           *uint  `gorm:"index" json:"driver_id,omitempty"`
	RunDate            Date   `gorm:"not null;index" json:"date"`
	RunDurationMinutes int    `gorm:"not null;check:chk_daily_runs_minutes,run_duration_minutes >= 0" json:"run_duration_minutes"`
	Notes              string `gorm:"type:text" json:"notes,omitempty"`
}

// ServiceRecord is a completed vehicle service.
type ServiceRecord struct {
	Base
	VehicleID              uint   `gorm:"not null;index" json:"vehicle_id"`
	ServicedAt             Date   `gorm:"not null;index" json:"serviced_at"`
	ServiceDurationMinutes int    `gorm:"not null;check:chk_service_records_minutes,service_duration_minutes >= 0" json:"service_duration_minutes"`
	Notes                  string `gorm:"type:text" json:"notes,omitempty"`
	NextServiceDue         Date   `gorm:"not null;check:chk_service_records_due,serviced_at <= next_service_due" json:"next_service_due"`
	RecordedByID           *uint  `json:"recorded_by_id,omitempty"`
}

// TransferLog records a change of a vehicle's assigned driver.
type TransferLog struct {
	Base
	VehicleID    uint   `gorm:"not null;index" json:"vehicle_id"`
	FromDriverID *uint  `json:"from_driver_id,omitempty"`
	ToDriverID   uint   `gorm:"not null" json:"to_driver_id"`
	Reason       string `gorm:"size:200" json:"reason,omitempty"`
	ByUserID     uint   `gorm:"not null" json:"by_user_id"`
}
