package booking

import (
	"slices"
	"time"

	"courtbook/internal/models"
)

// Guard enforces the reservation status machine.
type Guard struct {
	transitions        map[models.Status][]models.Status
	cancellationCutoff time.Duration
}

// NewGuard creates a guard with the standard transition table.
func NewGuard(cancellationCutoff time.Duration) *Guard {
	return &Guard{
		transitions: map[models.Status][]models.Status{
			models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
			models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
			models.StatusCancelled: {},
			models.StatusCompleted: {},
		},
		cancellationCutoff: cancellationCutoff,
	}
}

// CanTransition checks if the transition is in the table.
func (g *Guard) CanTransition(from, to models.Status) bool {
	return slices.Contains(g.transitions[from], to)
}

// Targets returns the statuses reachable from s.
func (g *Guard) Targets(s models.Status) []models.Status {
	return slices.Clone(g.transitions[s])
}

// AssertTransition fails with INVALID_STATUS_TRANSITION when from -> to is
// not allowed.
func (g *Guard) AssertTransition(from, to models.Status) error {
	if !g.CanTransition(from, to) {
		return fail(KindInvalidStatusTransition, "invalid booking status transition: %s -> %s", from, to).
			with("from", from).with("to", to)
	}
	return nil
}

// Check runs every precondition for moving r to target at now. expected is
// the status the caller last observed; empty skips the comparison.
func (g *Guard) Check(r *models.Reservation, target, expected models.Status, now time.Time) error {
	if expected != "" && expected != r.Status {
		return fail(KindConcurrencyConflict, "reservation status is %s, expected %s", r.Status, expected).
			with("current_status", r.Status)
	}
	if err := g.AssertTransition(r.Status, target); err != nil {
		return err
	}

	switch target {
	case models.StatusCancelled:
		if r.StartTime.Sub(now) <= g.cancellationCutoff {
			return fail(KindCancellationTooLate, "reservations can only be cancelled more than %s before start", g.cancellationCutoff)
		}
	case models.StatusCompleted:
		if now.Before(r.EndTime) {
			return fail(KindCompletionTooEarly, "cannot complete a reservation before it ends")
		}
	}
	return nil
}
