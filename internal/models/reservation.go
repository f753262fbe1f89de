package models

import "time"

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ActiveStatuses are the statuses that hold a court.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

// AllStatuses lists every known status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Active reports whether s counts toward conflict detection.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// Reservation is a time-bounded claim on a court by a requester.
type Reservation struct {
	ID          string    `json:"id"`
	CourtID     string    `json:"court_id"`
	RequesterID string    `json:"requester_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Duration returns the reserved length.
func (r *Reservation) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Overlaps reports whether the reservation intersects [start, end).
// Touching boundaries do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// OverlapsWith checks if this reservation overlaps with another one.
func (r *Reservation) OverlapsWith(other *Reservation) bool {
	return r.Overlaps(other.StartTime, other.EndTime)
}

// ContainsTime reports whether t falls inside [start, end).
func (r *Reservation) ContainsTime(t time.Time) bool {
	return !t.Before(r.StartTime) && t.Before(r.EndTime)
}

// TimeWindow is a half-open interval used for storage lookups.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Expand widens the window by d on both sides.
func (w TimeWindow) Expand(d time.Duration) TimeWindow {
	return TimeWindow{Start: w.Start.Add(-d), End: w.End.Add(d)}
}
