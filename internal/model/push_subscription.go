package model

import "time"

// PushSubscription holds a browser push subscription for slot-freed alerts.
// A subscriber picks the instruments they want to watch; when a reservation
// on one of them is cancelled, the freed slot is announced over web push.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Instruments []*Instrument `gorm:"many2many:subscription_instrument_mapping;"`
}
