package model

import "time"

// Reservation status values. A reservation is created CONFIRMED and moves
// once, irreversibly, to CANCELLED. Rows are never deleted.
const (
	StatusConfirmed = "CONFIRMED"
	StatusCancelled = "CANCELLED"
)

// Reservation is one exclusive booking of an instrument for a half-open
// UTC interval [StartsAt, EndsAt). For a given instrument no two CONFIRMED
// reservations may overlap; CANCELLED rows are kept for history and ignored
// by the overlap check.
type Reservation struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	ScientistID  int64     `gorm:"index;not null" json:"scientist_id"`
	InstrumentID int64     `gorm:"index;not null" json:"instrument_id"`
	StartsAt     time.Time `gorm:"not null;index" json:"start_utc"`
	EndsAt       time.Time `gorm:"not null" json:"end_utc"`
	Status       string    `gorm:"size:16;not null;default:CONFIRMED" json:"status"`
	CreatedAt    time.Time `gorm:"not null" json:"-"`
	UpdatedAt    time.Time `gorm:"not null" json:"-"`
}
