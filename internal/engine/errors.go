package engine

import "fmt"

// ConflictCause tells a caller which layer rejected the booking. All three
// map to the same HTTP status; the cause lives in the response detail so
// automation can treat them uniformly as "slot unavailable".
type ConflictCause string

const (
	// CauseLockDenied: another attempt holds the lease for this exact
	// (instrument, start) key right now.
	CauseLockDenied ConflictCause = "lock-denied"
	// CauseCoordinatorUnreachable: the lock coordinator did not answer.
	CauseCoordinatorUnreachable ConflictCause = "coordinator-unreachable"
	// CauseSlotTaken: the store already holds a CONFIRMED reservation
	// overlapping the requested interval.
	CauseSlotTaken ConflictCause = "slot-taken"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// ConflictError means the booking cannot be confirmed right now.
type ConflictError struct {
	Cause  ConflictCause
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict (%s): %s", e.Cause, e.Detail)
}

// StoreError wraps a durable-write failure unrelated to overlap. The API
// layer surfaces it generically, never leaking the wrapped detail.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
