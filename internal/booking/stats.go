package booking

import (
	"context"
	"math"
	"time"

	"courtbook/internal/models"
)

// Stats summarizes the reservations selected by a filter.
type Stats struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"by_status"`
	// UtilizationRate is booked confirmed and completed time divided by the
	// open time of the selected courts over [From, To). It is zero when the
	// filter has no bounded period.
	UtilizationRate float64 `json:"utilization_rate"`
}

// Stats computes reservation statistics. Limit and Offset are ignored.
func (e *Engine) Stats(ctx context.Context, filter QueryFilter) (Stats, error) {
	const op = "stats"

	filter.Limit, filter.Offset = 0, 0
	if err := filter.Validate(); err != nil {
		return Stats{}, e.reject(op, err)
	}
	list, err := e.store.ListReservations(ctx, filter)
	if err != nil {
		return Stats{}, e.reject(op, storageFailure("list reservations", err))
	}

	stats := Stats{ByStatus: make(map[models.Status]int, len(models.AllStatuses))}
	for _, s := range models.AllStatuses {
		stats.ByStatus[s] = 0
	}
	var booked time.Duration
	for i := range list {
		r := &list[i]
		stats.Total++
		stats.ByStatus[r.Status]++
		if r.Status == models.StatusConfirmed || r.Status == models.StatusCompleted {
			booked += r.Duration()
		}
	}

	if filter.From.IsZero() || filter.To.IsZero() {
		return stats, nil
	}
	courts := 1
	if filter.CourtID == "" {
		ids, err := e.store.ListResourceIDs(ctx)
		if err != nil {
			return Stats{}, e.reject(op, storageFailure("list courts", err))
		}
		courts = len(ids)
	}
	days := math.Ceil(filter.To.Sub(filter.From).Hours() / 24)
	capacity := float64(courts) * days * e.policy.OpenMinutesPerDay()
	if capacity > 0 {
		stats.UtilizationRate = math.Round(booked.Minutes()/capacity*10000) / 10000
	}
	return stats, nil
}
