package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, start, end string) Interval {
	t.Helper()
	s, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	e, err := time.Parse(time.RFC3339, end)
	require.NoError(t, err)
	iv, err := New(s, e)
	require.NoError(t, err)
	return iv
}

func TestNew_RejectsInvertedAndEmpty(t *testing.T) {
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := New(at, at)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = New(at.Add(time.Hour), at)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNew_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	start := time.Date(2025, 1, 1, 7, 0, 0, 0, loc)
	end := time.Date(2025, 1, 1, 8, 0, 0, 0, loc)

	iv, err := New(start, end)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, iv.Start.Location())
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), iv.Start)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     Interval
		overlaps bool
	}{
		{
			name:     "identical intervals",
			a:        mustNew(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z"),
			b:        mustNew(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z"),
			overlaps: true,
		},
		{
			name:     "partial overlap",
			a:        mustNew(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z"),
			b:        mustNew(t, "2025-01-01T10:30:00Z", "2025-01-01T11:30:00Z"),
			overlaps: true,
		},
		{
			name:     "contained interval",
			a:        mustNew(t, "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z"),
			b:        mustNew(t, "2025-01-01T10:30:00Z", "2025-01-01T11:00:00Z"),
			overlaps: true,
		},
		{
			name:     "back to back does not overlap",
			a:        mustNew(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z"),
			b:        mustNew(t, "2025-01-01T11:00:00Z", "2025-01-01T12:00:00Z"),
			overlaps: false,
		},
		{
			name:     "disjoint intervals",
			a:        mustNew(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z"),
			b:        mustNew(t, "2025-01-01T13:00:00Z", "2025-01-01T14:00:00Z"),
			overlaps: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlaps, tc.a.Overlaps(tc.b))
			// Overlap is symmetric.
			assert.Equal(t, tc.overlaps, tc.b.Overlaps(tc.a))
		})
	}
}

func TestOverlaps_SelfOverlap(t *testing.T) {
	iv := mustNew(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z")
	assert.True(t, iv.Overlaps(iv))
}
