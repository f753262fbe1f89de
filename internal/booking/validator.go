package booking

import (
	"time"

	"courtbook/internal/models"
)

// ValidatedRange is a time range that passed every admission rule.
type ValidatedRange struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Window returns the range as a storage lookup window.
func (r ValidatedRange) Window() models.TimeWindow {
	return models.TimeWindow{Start: r.Start, End: r.End}
}

// Validator checks candidate ranges against a Policy. It has no state
// beyond the policy and is safe for concurrent use.
type Validator struct {
	policy Policy
}

// NewValidator creates a validator for the given policy.
func NewValidator(policy Policy) *Validator {
	return &Validator{policy: policy}
}

// ParseRange parses RFC 3339 start and end strings.
func ParseRange(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, time.Time{}, fail(KindMalformedInput, "invalid start time %q", start).with("field", "start_time")
	}
	e, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return time.Time{}, time.Time{}, fail(KindMalformedInput, "invalid end time %q", end).with("field", "end_time")
	}
	return s, e, nil
}

// ValidateStrings parses and validates a range given as RFC 3339 strings.
func (v *Validator) ValidateStrings(start, end string, now time.Time) (ValidatedRange, error) {
	s, e, err := ParseRange(start, end)
	if err != nil {
		return ValidatedRange{}, err
	}
	return v.Validate(s, e, now)
}

// Validate runs the admission checks in order and reports the first failure.
func (v *Validator) Validate(start, end, now time.Time) (ValidatedRange, error) {
	if start.IsZero() || end.IsZero() {
		return ValidatedRange{}, fail(KindMalformedInput, "start and end times are required")
	}
	if !end.After(start) {
		return ValidatedRange{}, fail(KindInvalidTimeRange, "end time must be after start time")
	}

	p := v.policy
	duration := end.Sub(start)
	if duration < p.MinDuration {
		return ValidatedRange{}, fail(KindMinDurationNotMet, "minimum booking duration is %s", p.MinDuration).
			with("duration_minutes", duration.Minutes())
	}
	if duration > p.MaxDuration {
		return ValidatedRange{}, fail(KindMaxDurationExceeded, "maximum booking duration is %s", p.MaxDuration).
			with("duration_minutes", duration.Minutes())
	}

	loc := p.location()
	localStart, localEnd := start.In(loc), end.In(loc)
	// A booking ending exactly at midnight still belongs to the start day.
	if !sameDay(localStart, localEnd.Add(-time.Nanosecond)) {
		return ValidatedRange{}, fail(KindCrossDayBooking, "booking must start and end on the same day")
	}
	open, closing := p.BusinessHours(localStart)
	if localStart.Before(open) || localEnd.After(closing) {
		return ValidatedRange{}, fail(KindOutsideBusinessHours, "booking must be within business hours %s-%s",
			open.Format("15:04"), closing.Format("15:04"))
	}

	if start.Before(now.Add(p.MinAdvance)) {
		return ValidatedRange{}, fail(KindMinAdvanceNotMet, "booking must start at least %s from now", p.MinAdvance)
	}
	if start.After(now.AddDate(0, 0, p.MaxAdvanceDays)) {
		return ValidatedRange{}, fail(KindMaxAdvanceExceeded, "bookings cannot be made more than %d days in advance", p.MaxAdvanceDays)
	}

	return ValidatedRange{Start: start, End: end, Duration: duration}, nil
}
