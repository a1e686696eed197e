package interval

import (
	"errors"
	"time"
)

// ErrInvalid is returned when an interval's start is not strictly before its end.
var ErrInvalid = errors.New("interval start must be before end")

// Interval is a half-open UTC time range [Start, End).
// An interval ending at T does not conflict with one starting at T.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New normalizes both bounds to UTC and validates Start < End.
func New(start, end time.Time) (Interval, error) {
	start = start.UTC()
	end = end.UTC()
	if !start.Before(end) {
		return Interval{}, ErrInvalid
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open intervals intersect.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}
