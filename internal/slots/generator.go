package slots

import (
	"context"
	"fmt"
	"sort"
	"time"

	"courtbook/internal/booking"
	"courtbook/internal/models"
)

// Slot represents a time slot on a court.
type Slot struct {
	StartTime time.Time
	EndTime   time.Time
	Available bool
	// Reason is set when the slot is unavailable.
	Reason booking.Kind
}

// SlotInfo is a simplified representation for display.
type SlotInfo struct {
	Start     string `json:"start"` // "10:00"
	End       string `json:"end"`   // "10:30"
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// ConflictChecker finds reservations blocking an interval.
type ConflictChecker interface {
	FindConflict(ctx context.Context, courtID string, start, end time.Time, statuses []models.Status, excludeID string) (booking.ConflictResult, error)
}

// Generator builds the slot grid of a court for one day.
type Generator struct {
	checker ConflictChecker
	policy  booking.Policy
}

// NewGenerator creates a new slot generator.
func NewGenerator(checker ConflictChecker, policy booking.Policy) *Generator {
	return &Generator{checker: checker, policy: policy}
}

// GenerateSlots splits the business hours of day into slots of length and
// marks each one available when it could be booked at now.
func (g *Generator) GenerateSlots(ctx context.Context, courtID string, day time.Time, length time.Duration, now time.Time) ([]Slot, error) {
	if length <= 0 {
		length = g.policy.MinDuration
	}
	if length <= 0 {
		return nil, fmt.Errorf("slot length must be positive")
	}

	open, closing := g.policy.BusinessHours(day)
	earliest := now.Add(g.policy.MinAdvance)
	latest := now.AddDate(0, 0, g.policy.MaxAdvanceDays)

	var slots []Slot
	for cursor := open; !cursor.Add(length).After(closing); cursor = cursor.Add(length) {
		slot := Slot{StartTime: cursor, EndTime: cursor.Add(length)}

		switch {
		case slot.StartTime.Before(earliest):
			slot.Reason = booking.KindMinAdvanceNotMet
		case slot.StartTime.After(latest):
			slot.Reason = booking.KindMaxAdvanceExceeded
		default:
			res, err := g.checker.FindConflict(ctx, courtID, slot.StartTime, slot.EndTime, models.ActiveStatuses, "")
			if err != nil {
				return nil, fmt.Errorf("check slot: %w", err)
			}
			if res.HasConflict {
				slot.Reason = res.Reason
			}
		}
		slot.Available = slot.Reason == ""
		slots = append(slots, slot)
	}

	return slots, nil
}

// ToSlotInfo converts slots to SlotInfo in the facility time zone.
func ToSlotInfo(slots []Slot, loc *time.Location) []SlotInfo {
	if loc == nil {
		loc = time.UTC
	}
	result := make([]SlotInfo, len(slots))
	for i, s := range slots {
		result[i] = SlotInfo{
			Start:     s.StartTime.In(loc).Format("15:04"),
			End:       s.EndTime.In(loc).Format("15:04"),
			Available: s.Available,
			Reason:    string(s.Reason),
		}
	}
	return result
}

// GetAvailableSlots returns only available slots.
func GetAvailableSlots(slots []Slot) []Slot {
	var available []Slot
	for _, s := range slots {
		if s.Available {
			available = append(available, s)
		}
	}
	return available
}

// FindConsecutiveSlots finds groups of consecutive available slots.
func FindConsecutiveSlots(slots []Slot) [][]Slot {
	available := GetAvailableSlots(slots)
	if len(available) == 0 {
		return nil
	}

	sort.Slice(available, func(i, j int) bool {
		return available[i].StartTime.Before(available[j].StartTime)
	})

	var groups [][]Slot
	current := []Slot{available[0]}
	for _, s := range available[1:] {
		if s.StartTime.Equal(current[len(current)-1].EndTime) {
			current = append(current, s)
			continue
		}
		groups = append(groups, current)
		current = []Slot{s}
	}
	return append(groups, current)
}

// DurationOptions returns the bookable durations starting at start: every
// run of consecutive available slots whose length lies within the policy
// duration bounds.
func (g *Generator) DurationOptions(slots []Slot, start time.Time) []time.Duration {
	startIdx := -1
	for i, s := range slots {
		if s.StartTime.Equal(start) && s.Available {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil
	}

	var options []time.Duration
	for i := startIdx; i < len(slots); i++ {
		if !slots[i].Available {
			break
		}
		if i > startIdx && !slots[i].StartTime.Equal(slots[i-1].EndTime) {
			break
		}
		d := slots[i].EndTime.Sub(start)
		if d > g.policy.MaxDuration {
			break
		}
		if d >= g.policy.MinDuration {
			options = append(options, d)
		}
	}
	return options
}

// FormatDuration formats a duration as "45m", "1h" or "1h30m".
func FormatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours, mins := minutes/60, minutes%60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}
