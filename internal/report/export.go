package report

import (
	"fmt"
	"io"
	"time"

	"courtbook/internal/booking"
	"courtbook/internal/models"
)

const (
	SheetReservations = "Reservations"
	SheetSummary      = "Summary"
)

var reservationColumns = []string{
	"ID", "Court", "Requester", "Date", "Start", "End", "Minutes", "Status", "Created",
}

// Exporter renders reservations into an XLSX workbook.
type Exporter struct {
	loc *time.Location
	// courtNames maps court ids to display names; unknown ids are printed as is.
	courtNames map[string]string
}

// NewExporter creates an exporter printing times in loc.
func NewExporter(loc *time.Location, courts []models.Court) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	names := make(map[string]string, len(courts))
	for _, c := range courts {
		names[c.ID] = c.Name
	}
	return &Exporter{loc: loc, courtNames: names}
}

// WriteReservations writes a reservations sheet and a summary sheet built
// from stats.
func (e *Exporter) WriteReservations(out io.Writer, reservations []models.Reservation, stats booking.Stats) error {
	w := newSheetWriter()
	defer func() { _ = w.close() }()

	if err := w.addSheet(SheetReservations); err != nil {
		return err
	}
	if err := w.writeHeader(reservationColumns); err != nil {
		return err
	}
	for i := range reservations {
		if err := w.writeRow(e.reservationRow(&reservations[i])); err != nil {
			return fmt.Errorf("write reservation %s: %w", reservations[i].ID, err)
		}
	}

	if err := w.addSheet(SheetSummary); err != nil {
		return err
	}
	if err := w.writeHeader([]string{"Metric", "Value"}); err != nil {
		return err
	}
	rows := [][]any{{"Total", stats.Total}}
	for _, s := range models.AllStatuses {
		rows = append(rows, []any{string(s), stats.ByStatus[s]})
	}
	rows = append(rows, []any{"Utilization", stats.UtilizationRate})
	for _, row := range rows {
		if err := w.writeRow(row); err != nil {
			return err
		}
	}

	return w.save(out)
}

func (e *Exporter) reservationRow(r *models.Reservation) []any {
	court := r.CourtID
	if name, ok := e.courtNames[r.CourtID]; ok && name != "" {
		court = name
	}
	start := r.StartTime.In(e.loc)
	return []any{
		r.ID,
		court,
		r.RequesterID,
		start.Format("2006-01-02"),
		start.Format("15:04"),
		r.EndTime.In(e.loc).Format("15:04"),
		int(r.Duration().Minutes()),
		string(r.Status),
		r.CreatedAt.In(e.loc).Format(time.RFC3339),
	}
}
