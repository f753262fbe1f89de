package booking

import (
	"fmt"
	"time"
)

// Policy holds the facility-wide admission rules.
type Policy struct {
	MinDuration time.Duration
	MaxDuration time.Duration

	// OpensAt and ClosesAt are offsets from local midnight.
	OpensAt  time.Duration
	ClosesAt time.Duration

	// Buffer is the idle time required around confirmed reservations.
	Buffer time.Duration

	MinAdvance     time.Duration
	MaxAdvanceDays int

	CancellationCutoff time.Duration
	CompletionGrace    time.Duration

	// RequiresApproval creates reservations as PENDING instead of CONFIRMED.
	RequiresApproval bool

	// Location is the facility time zone used for business hours and
	// calendar days. Nil means UTC.
	Location *time.Location
}

// DefaultPolicy returns the rules a facility starts with.
func DefaultPolicy() Policy {
	return Policy{
		MinDuration:        30 * time.Minute,
		MaxDuration:        2 * time.Hour,
		OpensAt:            8 * time.Hour,
		ClosesAt:           22 * time.Hour,
		Buffer:             0,
		MinAdvance:         0,
		MaxAdvanceDays:     30,
		CancellationCutoff: 2 * time.Hour,
		CompletionGrace:    time.Hour,
		RequiresApproval:   false,
		Location:           time.UTC,
	}
}

// Validate checks the policy for inconsistent values.
func (p Policy) Validate() error {
	if p.MinDuration <= 0 {
		return fmt.Errorf("min duration must be positive")
	}
	if p.MaxDuration < p.MinDuration {
		return fmt.Errorf("max duration %s is shorter than min duration %s", p.MaxDuration, p.MinDuration)
	}
	if p.OpensAt < 0 || p.ClosesAt > 24*time.Hour || p.OpensAt >= p.ClosesAt {
		return fmt.Errorf("invalid business hours %s-%s", p.OpensAt, p.ClosesAt)
	}
	if p.Buffer < 0 || p.MinAdvance < 0 || p.CancellationCutoff < 0 || p.CompletionGrace < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if p.MaxAdvanceDays <= 0 {
		return fmt.Errorf("max advance days must be positive")
	}
	return nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// BusinessHours returns the opening and closing instants of the calendar
// day containing t.
func (p Policy) BusinessHours(t time.Time) (open, close time.Time) {
	local := t.In(p.location())
	return clockOn(local, p.OpensAt), clockOn(local, p.ClosesAt)
}

// OpenMinutesPerDay returns the bookable minutes of one business day.
func (p Policy) OpenMinutesPerDay() float64 {
	return (p.ClosesAt - p.OpensAt).Minutes()
}

// clockOn places a wall-clock offset on the calendar day of t.
func clockOn(t time.Time, offset time.Duration) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, int(offset/time.Minute), 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
