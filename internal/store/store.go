package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"telescope-booking-backend/internal/interval"
	"telescope-booking-backend/internal/model"
)

var (
	// ErrOverlap means the requested interval intersects an existing
	// CONFIRMED reservation for the same instrument.
	ErrOverlap = errors.New("reservation interval overlaps a confirmed reservation")

	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means a uniqueness constraint (e.g. scientist email)
	// rejected the write.
	ErrDuplicate = errors.New("record already exists")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// CreateReservation atomically re-checks the overlap condition and
	// inserts the row as CONFIRMED. Returns ErrOverlap when the interval
	// is already taken.
	CreateReservation(ctx context.Context, r *model.Reservation) error

	// CancelReservation flips the row to CANCELLED. Cancelling an
	// already-cancelled reservation is a no-op success. Returns
	// ErrNotFound for an unknown id.
	CancelReservation(ctx context.Context, id int64) (*model.Reservation, error)

	GetReservation(ctx context.Context, id int64) (*model.Reservation, error)
	ListReservations(ctx context.Context, instrumentID *int64) ([]model.Reservation, error)

	CreateScientist(ctx context.Context, s *model.Scientist) error
	ListInstruments(ctx context.Context) ([]model.Instrument, error)
	SeedDefaults(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateReservation runs the overlap check and the insert inside one
// transaction, so two attempts that slipped past the lease layer (different
// resource keys, overlapping intervals) cannot both commit. On Postgres the
// exclusion constraint backstops the same invariant; its violation is
// normalized to ErrOverlap as well.
func (s *gormStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	iv, err := interval.New(r.StartsAt, r.EndsAt)
	if err != nil {
		return err
	}
	r.StartsAt = iv.Start
	r.EndsAt = iv.End
	r.Status = model.StatusConfirmed

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Reservation{}).
			Where("instrument_id = ? AND status = ?", r.InstrumentID, model.StatusConfirmed).
			Where("starts_at < ? AND ends_at > ?", r.EndsAt, r.StartsAt).
			Count(&count).Error; err != nil {
			return fmt.Errorf("overlap query failed: %w", err)
		}
		if count > 0 {
			return ErrOverlap
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("insert reservation failed: %w", err)
		}
		return nil
	})
	if err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}
		return err
	}
	return nil
}

func (s *gormStore) GetReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var r model.Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) CancelReservation(ctx context.Context, id int64) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if r.Status == model.StatusCancelled {
			return nil
		}
		r.Status = model.StatusCancelled
		return tx.Model(&r).Update("status", model.StatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) ListReservations(ctx context.Context, instrumentID *int64) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Model(&model.Reservation{}).Order("starts_at")
	if instrumentID != nil {
		q = q.Where("instrument_id = ?", *instrumentID)
	}
	var out []model.Reservation
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *gormStore) CreateScientist(ctx context.Context, sc *model.Scientist) error {
	if err := s.db.WithContext(ctx).Create(sc).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *gormStore) ListInstruments(ctx context.Context) ([]model.Instrument, error) {
	var out []model.Instrument
	if err := s.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SeedDefaults inserts a default telescope when the table is empty, so a
// fresh deployment is immediately bookable.
func (s *gormStore) SeedDefaults(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Instrument{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&model.Instrument{Name: "Hubble-Acad"}).Error
}

// isExclusionViolation matches the Postgres exclusion constraint
// (SQLSTATE 23P01) installed by internal/db.
func isExclusionViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23P01") ||
		strings.Contains(msg, "reservations_no_confirmed_overlap")
}

// isUniqueViolation matches unique-index violations across the postgres
// (SQLSTATE 23505) and sqlite ("UNIQUE constraint failed") drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
