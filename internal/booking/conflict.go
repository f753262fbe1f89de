package booking

import (
	"context"
	"slices"
	"time"

	"courtbook/internal/models"
)

// ConflictResult reports the outcome of a conflict check.
type ConflictResult struct {
	HasConflict bool
	Conflict    *models.Reservation
	// Reason is KindBookingConflict or KindBufferViolation when HasConflict
	// is set. Stores use KindConcurrencyConflict for stale status writes.
	Reason Kind
}

// ReservationFinder is the read side of Store used for conflict checks.
type ReservationFinder interface {
	FindActiveReservations(ctx context.Context, courtID string, window models.TimeWindow, statuses []models.Status) ([]models.Reservation, error)
}

// Detector finds reservations that block a candidate interval.
type Detector struct {
	finder ReservationFinder
	buffer time.Duration
}

// NewDetector creates a detector enforcing the given buffer around
// confirmed reservations.
func NewDetector(finder ReservationFinder, buffer time.Duration) *Detector {
	return &Detector{finder: finder, buffer: buffer}
}

// Window returns the lookup window covering both the direct and the buffer pass.
func (d *Detector) Window(start, end time.Time) models.TimeWindow {
	return models.TimeWindow{Start: start, End: end}.Expand(d.buffer)
}

// FindConflict scans the court's reservations for one blocking [start, end).
// excludeID skips the reservation being re-checked; pass "" for none.
func (d *Detector) FindConflict(ctx context.Context, courtID string, start, end time.Time, statuses []models.Status, excludeID string) (ConflictResult, error) {
	lookup := statuses
	if d.buffer > 0 && !slices.Contains(lookup, models.StatusConfirmed) {
		lookup = append(slices.Clone(statuses), models.StatusConfirmed)
	}
	existing, err := d.finder.FindActiveReservations(ctx, courtID, d.Window(start, end), lookup)
	if err != nil {
		return ConflictResult{}, err
	}
	return EvaluateConflict(existing, start, end, statuses, excludeID, d.buffer), nil
}

// Predicate returns the same evaluation as FindConflict for use at the
// atomic write boundary.
func (d *Detector) Predicate(start, end time.Time, statuses []models.Status, excludeID string) ConflictPredicate {
	return func(existing []models.Reservation) ConflictResult {
		return EvaluateConflict(existing, start, end, statuses, excludeID, d.buffer)
	}
}

// EvaluateConflict runs the direct overlap pass followed by the buffer pass.
// The buffer pass only considers CONFIRMED reservations.
func EvaluateConflict(existing []models.Reservation, start, end time.Time, statuses []models.Status, excludeID string, buffer time.Duration) ConflictResult {
	for i := range existing {
		r := &existing[i]
		if r.ID == excludeID && excludeID != "" {
			continue
		}
		if slices.Contains(statuses, r.Status) && r.Overlaps(start, end) {
			return ConflictResult{HasConflict: true, Conflict: r, Reason: KindBookingConflict}
		}
	}

	if buffer <= 0 {
		return ConflictResult{}
	}
	padded := models.TimeWindow{Start: start, End: end}.Expand(buffer)
	for i := range existing {
		r := &existing[i]
		if r.ID == excludeID && excludeID != "" {
			continue
		}
		if r.Status == models.StatusConfirmed && r.Overlaps(padded.Start, padded.End) {
			return ConflictResult{HasConflict: true, Conflict: r, Reason: KindBufferViolation}
		}
	}
	return ConflictResult{}
}
