package booking

import (
	"time"

	"courtbook/internal/models"
)

// MaxQueryLimit caps the page size accepted by ListReservations.
const MaxQueryLimit = 500

// QueryFilter selects reservations for listing and statistics. Zero values
// leave a field unconstrained.
type QueryFilter struct {
	CourtID     string
	RequesterID string
	Status      models.Status
	// From and To bound the start time: From <= start < To.
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Validate rejects filters that cannot be sent to storage.
func (f QueryFilter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fail(KindMalformedInput, "unknown status %q", f.Status).with("field", "status")
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return fail(KindMalformedInput, "from must be before to").with("field", "from")
	}
	if f.Limit < 0 || f.Limit > MaxQueryLimit {
		return fail(KindMalformedInput, "limit must be between 0 and %d", MaxQueryLimit).with("field", "limit")
	}
	if f.Offset < 0 {
		return fail(KindMalformedInput, "offset must not be negative").with("field", "offset")
	}
	return nil
}

// Matches reports whether r satisfies every set field. Limit and Offset are
// ignored.
func (f QueryFilter) Matches(r *models.Reservation) bool {
	if f.CourtID != "" && r.CourtID != f.CourtID {
		return false
	}
	if f.RequesterID != "" && r.RequesterID != f.RequesterID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && r.StartTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.StartTime.Before(f.To) {
		return false
	}
	return true
}
