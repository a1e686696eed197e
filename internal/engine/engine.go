package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"telescope-booking-backend/internal/audit"
	"telescope-booking-backend/internal/interval"
	"telescope-booking-backend/internal/lock"
	"telescope-booking-backend/internal/model"
	"telescope-booking-backend/internal/store"
)

// LockClient is the coordinator surface the engine depends on.
type LockClient interface {
	Acquire(ctx context.Context, resource string, ttl time.Duration) (lock.Lease, error)
	Release(ctx context.Context, lease lock.Lease) error
}

// Notifier receives the instrument id of a freed slot after a cancellation.
// Like the audit sink it must never fail the operation that triggered it.
type Notifier interface {
	Dispatch(instrumentID int64)
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(int64) {}

// Engine orchestrates the lock client and the reservation store to process
// one booking attempt end to end. It holds no per-request state; the store
// and the coordinator are the only shared resources.
type Engine struct {
	store   store.Store
	locks   LockClient
	audit   audit.Sink
	notify  Notifier
	lockTTL time.Duration
}

// New wires the engine's collaborators. A nil notifier is allowed.
func New(s store.Store, locks LockClient, sink audit.Sink, notify Notifier, lockTTL time.Duration) *Engine {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if notify == nil {
		notify = nopNotifier{}
	}
	if lockTTL <= 0 {
		lockTTL = 15 * time.Second
	}
	return &Engine{
		store:   s,
		locks:   locks,
		audit:   sink,
		notify:  notify,
		lockTTL: lockTTL,
	}
}

// BookingRequest is one inbound booking attempt, timestamps still in their
// wire form (ISO-8601 with a Z suffix).
type BookingRequest struct {
	ScientistID  int64
	InstrumentID int64
	StartUTC     string
	EndUTC       string
}

// ResourceKey derives the lease key for one (instrument, start instant)
// slot. The start is rendered as an RFC3339 UTC string, not rounded, so the
// key is deterministic across callers for the same instant.
func ResourceKey(instrumentID int64, start time.Time) string {
	return fmt.Sprintf("telescope-%d_%s", instrumentID, start.UTC().Format(time.RFC3339Nano))
}

// Book runs the booking state machine: validate, acquire the lease, re-check
// the overlap under the lease, insert, release, audit. Every exit path after
// a successful acquire releases the lease; a crash in between is healed by
// the coordinator's TTL eviction.
func (e *Engine) Book(ctx context.Context, req BookingRequest) (*model.Reservation, error) {
	iv, err := e.validate(req)
	if err != nil {
		return nil, err
	}

	resource := ResourceKey(req.InstrumentID, iv.Start)

	lease, err := e.locks.Acquire(ctx, resource, e.lockTTL)
	if err != nil {
		// Denied and unreachable produce the same outcome; only the
		// detail differs. No store access on this branch.
		var denied *lock.DeniedError
		if errors.As(err, &denied) {
			return nil, &ConflictError{
				Cause:  CauseLockDenied,
				Detail: fmt.Sprintf("slot %s is being booked by another request (%s)", resource, denied.Reason),
			}
		}
		return nil, &ConflictError{
			Cause:  CauseCoordinatorUnreachable,
			Detail: "could not reach the lock coordination service",
		}
	}
	defer func() {
		// Release must run even when the request context is already gone.
		if relErr := e.locks.Release(context.WithoutCancel(ctx), lease); relErr != nil {
			log.Printf("engine: lease release failed for %s (TTL will evict): %v", resource, relErr)
		}
	}()

	r := &model.Reservation{
		ScientistID:  req.ScientistID,
		InstrumentID: req.InstrumentID,
		StartsAt:     iv.Start,
		EndsAt:       iv.End,
		Status:       model.StatusConfirmed,
	}
	if err := e.store.CreateReservation(ctx, r); err != nil {
		if errors.Is(err, store.ErrOverlap) {
			return nil, &ConflictError{
				Cause:  CauseSlotTaken,
				Detail: "interval overlaps an existing confirmed reservation",
			}
		}
		return nil, &StoreError{Err: err}
	}

	e.audit.Record(audit.EventReservationCreated, map[string]any{
		"id":            r.ID,
		"scientist_id":  r.ScientistID,
		"instrument_id": r.InstrumentID,
		"start_utc":     r.StartsAt.Format(time.RFC3339Nano),
		"end_utc":       r.EndsAt.Format(time.RFC3339Nano),
	})
	return r, nil
}

// Cancel flips the reservation to CANCELLED. Cancelling twice is a no-op
// success. Subscribers watching the instrument are told the slot freed up.
func (e *Engine) Cancel(ctx context.Context, id int64) (*model.Reservation, error) {
	r, err := e.store.CancelReservation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, &StoreError{Err: err}
	}

	e.audit.Record(audit.EventReservationCancelled, map[string]any{
		"id":            r.ID,
		"scientist_id":  r.ScientistID,
		"instrument_id": r.InstrumentID,
	})
	e.notify.Dispatch(r.InstrumentID)
	return r, nil
}

// List is a pure read, optionally filtered by instrument.
func (e *Engine) List(ctx context.Context, instrumentID *int64) ([]model.Reservation, error) {
	return e.store.ListReservations(ctx, instrumentID)
}

func (e *Engine) validate(req BookingRequest) (interval.Interval, error) {
	if req.ScientistID <= 0 {
		return interval.Interval{}, &ValidationError{Field: "scientist_id", Msg: "required"}
	}
	if req.InstrumentID <= 0 {
		return interval.Interval{}, &ValidationError{Field: "instrument_id", Msg: "required"}
	}
	start, err := parseUTC(req.StartUTC)
	if err != nil {
		return interval.Interval{}, &ValidationError{Field: "start_utc", Msg: err.Error()}
	}
	end, err := parseUTC(req.EndUTC)
	if err != nil {
		return interval.Interval{}, &ValidationError{Field: "end_utc", Msg: err.Error()}
	}
	iv, err := interval.New(start, end)
	if err != nil {
		return interval.Interval{}, &ValidationError{Field: "end_utc", Msg: "must be after start_utc"}
	}
	return iv, nil
}

func parseUTC(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("required")
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("must be an ISO-8601 UTC timestamp")
	}
	return t.UTC(), nil
}
