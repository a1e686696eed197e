package model

import "time"

// Instrument represents a shared telescope that can be reserved.
type Instrument struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:128;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Reservations []Reservation `gorm:"foreignKey:InstrumentID" json:"-"`
}
