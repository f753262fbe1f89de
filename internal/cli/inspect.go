package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"courtbook/internal/models"
	"courtbook/internal/report"
	"courtbook/internal/service"
	"courtbook/internal/slots"
)

func newSlotsCmd(opts *options) *cobra.Command {
	var (
		court, date string
		length      time.Duration
		freeOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show the slot grid of a court for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := opts.app.Policy.Location
			day, err := time.ParseInLocation("2006-01-02", date, loc)
			if err != nil {
				return fmt.Errorf("invalid --date %q", date)
			}
			if _, err := opts.app.Store.FindResourceByID(cmd.Context(), court); err != nil {
				return fmt.Errorf("court %s: %w", court, err)
			}

			grid, err := opts.app.Slots.GenerateSlots(cmd.Context(), court, day, length, opts.now())
			if err != nil {
				return err
			}
			if freeOnly {
				grid = slots.GetAvailableSlots(grid)
			}
			for _, s := range slots.ToSlotInfo(grid, loc) {
				state := "free"
				if !s.Available {
					state = s.Reason
				}
				cmd.Printf("%s-%s  %s\n", s.Start, s.End, state)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&court, "court", "", "court id")
	cmd.Flags().StringVar(&date, "date", "", "day (YYYY-MM-DD)")
	cmd.Flags().DurationVar(&length, "length", 0, "slot length, defaults to the minimum duration")
	cmd.Flags().BoolVar(&freeOnly, "free", false, "only print free slots")
	_ = cmd.MarkFlagRequired("court")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter(opts.app.Policy.Location)
			if err != nil {
				return err
			}
			stats, err := opts.app.Engine.Stats(cmd.Context(), filter)
			if err != nil {
				return err
			}
			cmd.Printf("total: %d\n", stats.Total)
			for _, s := range models.AllStatuses {
				cmd.Printf("%s: %d\n", strings.ToLower(string(s)), stats.ByStatus[s])
			}
			cmd.Printf("utilization: %.2f%%\n", stats.UtilizationRate*100)
			return nil
		},
	}

	flags.bind(cmd, false)
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		flags filterFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reservations to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			filter, err := flags.filter(opts.app.Policy.Location)
			if err != nil {
				return err
			}
			list, err := opts.app.Engine.ListReservations(ctx, filter)
			if err != nil {
				return err
			}
			stats, err := opts.app.Engine.Stats(ctx, filter)
			if err != nil {
				return err
			}
			courts, err := opts.app.DB.ListCourts(ctx)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			exp := report.NewExporter(opts.app.Policy.Location, courts)
			if err := exp.WriteReservations(f, list, stats); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			cmd.Printf("Exported %d reservations to %s\n", len(list), out)
			return nil
		},
	}

	flags.bind(cmd, false)
	cmd.Flags().StringVarP(&out, "out", "o", "reservations.xlsx", "output file")
	return cmd
}

func newCourtsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "courts",
		Short: "List courts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			courts, err := opts.app.DB.ListCourts(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range courts {
				cmd.Printf("%s\t%s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}

func newSweepCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Complete confirmed reservations that have ended",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sweeper := service.NewSweeper(service.SweeperConfig{Clock: opts.now}, opts.app.Engine, &opts.app.Logger)
			res, err := sweeper.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Completed %d reservations\n", res.CompletedCount)
			return nil
		},
	}
}
