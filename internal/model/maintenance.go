package model

// MaintenanceType is the cadence of a maintenance event. Unscheduled marks a
// breakdown repair.
type MaintenanceType string

const (
	MaintenanceMonthly     MaintenanceType = "Monthly"
	MaintenanceQuarterly   MaintenanceType = "Quarterly"
	MaintenanceSixMonthly  MaintenanceType = "SixMonthly"
	MaintenanceYearly      MaintenanceType = "Yearly"
	MaintenanceUnscheduled MaintenanceType = "Unscheduled"
)

// MaintenanceStatus is the lifecycle state of a record.
type MaintenanceStatus string

const (
	StatusScheduled MaintenanceStatus = "Scheduled"
	StatusCompleted MaintenanceStatus = "Completed"
	StatusOverdue   MaintenanceStatus = "Overdue"
	StatusBreakdown MaintenanceStatus = "Breakdown"
)

// MaintenanceRecord is a single maintenance event on an air conditioner.
type MaintenanceRecord struct {
	Base
	ACID            uint              `gorm:"column:ac_id;not null;index" json:"ac_id"`
	MaintainerID    uint              `gorm:"not null;index" json:"maintainer_id"`
	MaintenanceType MaintenanceType   `gorm:"size:20;not null" json:"maintenance_type"`
	MaintenanceDate Date              `gorm:"not null;index" json:"maintenance_date"`
	NextDueDate     *Date             `gorm:"check:chk_maintenance_records_due,maintenance_date <= COALESCE(next_due_date, maintenance_date)" json:"next_due_date"`
	WorkDone        string            `gorm:"type:text" json:"work_done,omitempty"`
	Status          MaintenanceStatus `gorm:"size:20;not null;index" json:"status"`
	IsCompleted     bool              `gorm:"not null;default:false" json:"is_completed"`

	AC         *AirConditioner              `gorm:"foreignKey:ACID" json:"ac,omitempty"`
	Maintainer *Maintainer                  `json:"maintainer,omitempty"`
	Checklist  []MaintenanceChecklistRecord `gorm:"foreignKey:MaintenanceID" json:"checklist,omitempty"`
	Parts      []PartsReplaced              `gorm:"foreignKey:MaintenanceID" json:"parts_replaced,omitempty"`
}

// MaintenanceChecklistRecord ticks a checklist item for one maintenance event.
type MaintenanceChecklistRecord struct {
	Base
	MaintenanceID   uint           `gorm:"not null;index" json:"maintenance_id"`
	ChecklistItemID uint           `gorm:"not null;index" json:"checklist_item_id"`
	Done            bool           `gorm:"not null;default:false" json:"done"`
	ChecklistItem   *ChecklistItem `json:"checklist_item,omitempty"`
}

// PartsReplaced lists a part consumed by a maintenance event.
type PartsReplaced struct {
	Base
	MaintenanceID uint   `gorm:"not null;index" json:"maintenance_id"`
	PartName      string `gorm:"size:100;not null" json:"part_name"`
	Quantity      int    `gorm:"not null;check:chk_parts_replaced_quantity,quantity > 0" json:"quantity"`
	Remarks       string `gorm:"size:200" json:"remarks,omitempty"`
}

func (PartsReplaced) TableName() string { return "parts_replaced" }

// DueWindow is one row of an asset's due-date history. At most one row per
// asset is active; older rows are deactivated, never deleted, while the
// asset exists.
type DueWindow struct {
	Base
	ACID            uint `gorm:"column:ac_id;not null;index" json:"ac_id"`
	LastMaintenance Date `gorm:"not null" json:"last_maintenance"`
	NextMaintenance Date `gorm:"not null;check:chk_maintenance_dates_window,last_maintenance <= next_maintenance" json:"next_maintenance"`
}

func (DueWindow) TableName() string { return "maintenance_dates" }
