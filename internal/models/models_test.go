package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func datetime(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestReservation_Duration(t *testing.T) {
	r := Reservation{
		StartTime: datetime(2026, 1, 15, 10, 0),
		EndTime:   datetime(2026, 1, 15, 11, 30),
	}
	assert.Equal(t, 90*time.Minute, r.Duration())
}

func TestReservation_OverlapsWith(t *testing.T) {
	existing := Reservation{
		StartTime: datetime(2026, 1, 15, 14, 0),
		EndTime:   datetime(2026, 1, 15, 15, 0),
	}

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		overlap bool
	}{
		{"ends at start", datetime(2026, 1, 15, 13, 0), datetime(2026, 1, 15, 14, 0), false},
		{"starts at end", datetime(2026, 1, 15, 15, 0), datetime(2026, 1, 15, 16, 0), false},
		{"starts during", datetime(2026, 1, 15, 14, 30), datetime(2026, 1, 15, 15, 30), true},
		{"ends during", datetime(2026, 1, 15, 13, 30), datetime(2026, 1, 15, 14, 30), true},
		{"contained", datetime(2026, 1, 15, 14, 15), datetime(2026, 1, 15, 14, 45), true},
		{"contains", datetime(2026, 1, 15, 13, 0), datetime(2026, 1, 15, 16, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := Reservation{StartTime: tt.start, EndTime: tt.end}
			assert.Equal(t, tt.overlap, existing.OverlapsWith(&other))
			assert.Equal(t, tt.overlap, other.OverlapsWith(&existing))
		})
	}
}

func TestReservation_ContainsTime(t *testing.T) {
	r := Reservation{
		StartTime: datetime(2026, 1, 15, 10, 0),
		EndTime:   datetime(2026, 1, 15, 12, 0),
	}

	assert.True(t, r.ContainsTime(datetime(2026, 1, 15, 10, 0)))
	assert.True(t, r.ContainsTime(datetime(2026, 1, 15, 11, 59)))
	assert.False(t, r.ContainsTime(datetime(2026, 1, 15, 12, 0)))
	assert.False(t, r.ContainsTime(datetime(2026, 1, 15, 9, 59)))
}

func TestStatus(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("changed").Valid())

	assert.True(t, StatusPending.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.False(t, StatusCancelled.Active())
	assert.False(t, StatusCompleted.Active())

	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestTimeWindow_Expand(t *testing.T) {
	w := TimeWindow{Start: datetime(2026, 1, 15, 14, 0), End: datetime(2026, 1, 15, 15, 0)}
	got := w.Expand(15 * time.Minute)
	assert.Equal(t, datetime(2026, 1, 15, 13, 45), got.Start)
	assert.Equal(t, datetime(2026, 1, 15, 15, 15), got.End)
}
