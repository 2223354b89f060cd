package model

import "github.com/shopspring/decimal"

// Make is an equipment manufacturer.
type Make struct {
	Base
	Name string `gorm:"size:70;not null" json:"name"`
}

// Capacity is a cooling capacity in tons.
type Capacity struct {
	Base
	Tonnage decimal.Decimal `gorm:"type:numeric(4,1);not null;check:chk_capacities_tonnage,tonnage >= 0.5 AND tonnage <= 100" json:"tonnage"`
}

// Refrigerant is a refrigerant gas type.
type Refrigerant struct {
	Base
	Type string `gorm:"size:100;not null" json:"type"`
}

// Division is the top level of the organizational hierarchy.
type Division struct {
	Base
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

// Subdivision belongs to a Division.
type Subdivision struct {
	Base
	Name       string    `gorm:"size:100;not null" json:"name"`
	DivisionID uint      `gorm:"not null;index" json:"division_id"`
	Division   *Division `gorm:"constraint:OnDelete:CASCADE" json:"division,omitempty"`
}

// Station is a site inside a subdivision where assets are installed.
type Station struct {
	Base
	Name          string       `gorm:"size:100;not null" json:"name"`
	DivisionID    uint         `gorm:"not null;index" json:"division_id"`
	SubdivisionID uint         `gorm:"not null;index" json:"subdivision_id"`
	Subdivision   *Subdivision `gorm:"constraint:OnDelete:CASCADE" json:"subdivision,omitempty"`
}

// ChecklistItem is a task expected during a maintenance of a given type.
type ChecklistItem struct {
	Base
	Description     string          `gorm:"size:200;not null" json:"description"`
	MaintenanceType MaintenanceType `gorm:"size:20;not null;index" json:"maintenance_type"`
}
