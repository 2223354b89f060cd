package model

import "time"

// Base carries the columns shared by every entity. Rows are soft-deleted by
// clearing IsActive.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
