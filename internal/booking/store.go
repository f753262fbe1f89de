package booking

import (
	"context"
	"time"

	"courtbook/internal/models"
)

// ConflictPredicate evaluates the active reservations stored for a court
// and reports whether a pending write would violate the no-overlap rule.
// Stores run it inside the transaction that performs the write.
type ConflictPredicate func(existing []models.Reservation) ConflictResult

// StatusUpdate describes an atomic status write.
type StatusUpdate struct {
	ReservationID string
	To            models.Status
	// Expected, when set, must equal the stored status or the write is
	// rejected with a CONCURRENCY_CONFLICT signal.
	Expected  models.Status
	UpdatedAt time.Time

	// Window and Check re-verify conflicts at commit time. Check may be nil.
	Window models.TimeWindow
	Check  ConflictPredicate
}

// BulkFilter selects reservations for a bulk status change.
type BulkFilter struct {
	Status      models.Status
	EndedBefore time.Time
}

// Store is the persistence boundary consumed by the engine.
type Store interface {
	// FindActiveReservations returns reservations of a court with one of the
	// given statuses that intersect the window.
	FindActiveReservations(ctx context.Context, courtID string, window models.TimeWindow, statuses []models.Status) ([]models.Reservation, error)
	FindReservationByID(ctx context.Context, id string) (*models.Reservation, error)
	FindResourceByID(ctx context.Context, id string) (*models.Court, error)
	ListResourceIDs(ctx context.Context) ([]string, error)
	ListReservations(ctx context.Context, filter QueryFilter) ([]models.Reservation, error)

	// AtomicInsert loads the active reservations of r.CourtID intersecting
	// window, runs check and inserts r only when no conflict is reported,
	// all in one transaction. A detected conflict is returned as *ConflictSignal.
	AtomicInsert(ctx context.Context, r *models.Reservation, window models.TimeWindow, check ConflictPredicate) error
	AtomicUpdateStatus(ctx context.Context, update StatusUpdate) (*models.Reservation, error)
	Delete(ctx context.Context, id string) error
	BulkUpdateStatus(ctx context.Context, filter BulkFilter, to models.Status, updatedAt time.Time) (int64, error)
}
