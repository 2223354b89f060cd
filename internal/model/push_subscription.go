package model

import "time"

// PushSubscription is a browser push endpoint that receives breakdown alerts
// for the subdivisions it follows.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`

	Subdivisions []*Subdivision `gorm:"many2many:subscription_subdivision_mapping;" json:"subdivisions,omitempty"`
}
