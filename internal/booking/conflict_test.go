package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"courtbook/internal/models"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindActiveReservations(ctx context.Context, courtID string, window models.TimeWindow, statuses []models.Status) ([]models.Reservation, error) {
	args := m.Called(ctx, courtID, window, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

func reservation(id string, status models.Status, start, end time.Time) models.Reservation {
	return models.Reservation{ID: id, CourtID: "c1", RequesterID: "u1", StartTime: start, EndTime: end, Status: status}
}

func TestEvaluateConflict(t *testing.T) {
	existing := []models.Reservation{
		reservation("r1", models.StatusConfirmed, at(3, 14, 0), at(3, 15, 0)),
	}

	tests := []struct {
		name   string
		start  time.Time
		end    time.Time
		buffer time.Duration
		want   Kind
	}{
		{"overlapping", at(3, 14, 30), at(3, 15, 30), 0, KindBookingConflict},
		{"contained", at(3, 14, 15), at(3, 14, 45), 0, KindBookingConflict},
		{"touching end", at(3, 15, 0), at(3, 16, 0), 0, ""},
		{"touching start", at(3, 13, 0), at(3, 14, 0), 0, ""},
		{"inside buffer", at(3, 15, 5), at(3, 16, 0), 10 * time.Minute, KindBufferViolation},
		{"outside buffer", at(3, 15, 10), at(3, 16, 0), 10 * time.Minute, ""},
		{"buffer before", at(3, 13, 0), at(3, 13, 55), 10 * time.Minute, KindBufferViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := EvaluateConflict(existing, tt.start, tt.end, models.ActiveStatuses, "", tt.buffer)
			if tt.want == "" {
				assert.False(t, res.HasConflict)
				assert.Nil(t, res.Conflict)
				return
			}
			assert.True(t, res.HasConflict)
			assert.Equal(t, tt.want, res.Reason)
			require.NotNil(t, res.Conflict)
			assert.Equal(t, "r1", res.Conflict.ID)
		})
	}
}

func TestEvaluateConflict_Statuses(t *testing.T) {
	existing := []models.Reservation{
		reservation("cancelled", models.StatusCancelled, at(3, 14, 0), at(3, 15, 0)),
		reservation("pending", models.StatusPending, at(3, 16, 0), at(3, 17, 0)),
	}

	res := EvaluateConflict(existing, at(3, 14, 0), at(3, 15, 0), models.ActiveStatuses, "", 0)
	assert.False(t, res.HasConflict, "cancelled reservations do not block")

	res = EvaluateConflict(existing, at(3, 16, 30), at(3, 17, 30), models.ActiveStatuses, "", 0)
	assert.True(t, res.HasConflict)
	assert.Equal(t, "pending", res.Conflict.ID)

	// The buffer only protects confirmed reservations.
	res = EvaluateConflict(existing, at(3, 17, 5), at(3, 18, 0), models.ActiveStatuses, "", 15*time.Minute)
	assert.False(t, res.HasConflict)
}

func TestEvaluateConflict_ExcludeSelf(t *testing.T) {
	existing := []models.Reservation{
		reservation("r1", models.StatusPending, at(3, 14, 0), at(3, 15, 0)),
	}

	res := EvaluateConflict(existing, at(3, 14, 0), at(3, 15, 0), models.ActiveStatuses, "r1", 0)
	assert.False(t, res.HasConflict)

	res = EvaluateConflict(existing, at(3, 14, 0), at(3, 15, 0), models.ActiveStatuses, "other", 0)
	assert.True(t, res.HasConflict)
}

func TestEvaluateConflict_DirectBeforeBuffer(t *testing.T) {
	existing := []models.Reservation{
		reservation("near", models.StatusConfirmed, at(3, 13, 0), at(3, 13, 55)),
		reservation("direct", models.StatusPending, at(3, 14, 30), at(3, 15, 0)),
	}

	res := EvaluateConflict(existing, at(3, 14, 0), at(3, 15, 0), models.ActiveStatuses, "", 10*time.Minute)
	assert.Equal(t, KindBookingConflict, res.Reason)
	assert.Equal(t, "direct", res.Conflict.ID)
}

func TestDetector_FindConflict(t *testing.T) {
	ctx := context.Background()
	finder := new(mockFinder)
	d := NewDetector(finder, 15*time.Minute)

	window := models.TimeWindow{Start: at(3, 13, 45), End: at(3, 15, 15)}
	statuses := []models.Status{models.StatusPending, models.StatusConfirmed}
	finder.On("FindActiveReservations", ctx, "c1", window, statuses).Return([]models.Reservation{
		reservation("r1", models.StatusConfirmed, at(3, 15, 0), at(3, 16, 0)),
	}, nil)

	res, err := d.FindConflict(ctx, "c1", at(3, 14, 0), at(3, 15, 0), statuses, "")
	require.NoError(t, err)
	assert.True(t, res.HasConflict)
	assert.Equal(t, KindBufferViolation, res.Reason)
	finder.AssertExpectations(t)
}

func TestDetector_LookupAddsConfirmedForBuffer(t *testing.T) {
	ctx := context.Background()
	finder := new(mockFinder)
	d := NewDetector(finder, 10*time.Minute)

	lookup := []models.Status{models.StatusPending, models.StatusConfirmed}
	finder.On("FindActiveReservations", ctx, "c1", mock.Anything, lookup).Return([]models.Reservation{}, nil)

	res, err := d.FindConflict(ctx, "c1", at(3, 14, 0), at(3, 15, 0), []models.Status{models.StatusPending}, "")
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	finder.AssertExpectations(t)
}

func TestDetector_FinderError(t *testing.T) {
	ctx := context.Background()
	finder := new(mockFinder)
	d := NewDetector(finder, 0)

	boom := errors.New("disk I/O error")
	finder.On("FindActiveReservations", ctx, "c1", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := d.FindConflict(ctx, "c1", at(3, 14, 0), at(3, 15, 0), models.ActiveStatuses, "")
	assert.ErrorIs(t, err, boom)
}

func TestDetector_PredicateMatchesFindConflict(t *testing.T) {
	existing := []models.Reservation{
		reservation("r1", models.StatusConfirmed, at(3, 14, 0), at(3, 15, 0)),
	}
	d := NewDetector(nil, 10*time.Minute)

	check := d.Predicate(at(3, 15, 5), at(3, 16, 0), models.ActiveStatuses, "")
	res := check(existing)
	assert.Equal(t, KindBufferViolation, res.Reason)
	assert.Equal(t, models.TimeWindow{Start: at(3, 14, 55), End: at(3, 16, 10)}, d.Window(at(3, 15, 5), at(3, 16, 0)))
}
