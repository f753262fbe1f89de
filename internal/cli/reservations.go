package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"courtbook/internal/booking"
	"courtbook/internal/models"
)

func newBookCmd(opts *options) *cobra.Command {
	var court, requester, start, end string

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Create a reservation",
		Example: `  courtbook book --court court-1 --requester alice \
    --start 2025-06-03T14:00:00Z --end 2025-06-03T15:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, e, err := booking.ParseRange(start, end)
			if err != nil {
				return err
			}
			r, err := opts.app.Engine.CreateReservation(cmd.Context(), booking.CreateRequest{
				CourtID: court, RequesterID: requester, Start: s, End: e,
			}, opts.now())
			if err != nil {
				return err
			}
			cmd.Printf("Reservation %s %s\n", r.ID, r.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&court, "court", "", "court id")
	cmd.Flags().StringVar(&requester, "requester", "", "requester id")
	cmd.Flags().StringVar(&start, "start", "", "start time (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "end time (RFC 3339)")
	for _, name := range []string{"court", "requester", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newStatusCmd(opts *options) *cobra.Command {
	var expected string

	cmd := &cobra.Command{
		Use:   "status <reservation-id> <status>",
		Short: "Change the status of a reservation",
		Long: `Moves a reservation to CONFIRMED, CANCELLED or COMPLETED.
With --expected the change is rejected when the stored status differs.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := models.Status(strings.ToUpper(args[1]))
			r, err := opts.app.Engine.UpdateStatus(cmd.Context(), args[0], target, opts.now(), models.Status(strings.ToUpper(expected)))
			if err != nil {
				return err
			}
			cmd.Printf("Reservation %s %s\n", r.ID, r.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&expected, "expected", "", "status the reservation must currently have")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	var actorID string

	cmd := &cobra.Command{
		Use:   "delete <reservation-id>",
		Short: "Delete a reservation that has not started",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := opts.app.Access.Actor(cmd.Context(), actorID)
			if err != nil {
				return err
			}
			if err := opts.app.Engine.DeleteReservation(cmd.Context(), args[0], actor, opts.now()); err != nil {
				return err
			}
			cmd.Printf("Reservation %s deleted\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "id of the requester or staff member")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

// filterFlags binds the QueryFilter flags shared by list, stats and export.
type filterFlags struct {
	court, requester, status string
	from, to                 string
	limit, offset            int
}

func (f *filterFlags) bind(cmd *cobra.Command, paging bool) {
	cmd.Flags().StringVar(&f.court, "court", "", "court id")
	cmd.Flags().StringVar(&f.requester, "requester", "", "requester id")
	cmd.Flags().StringVar(&f.status, "status", "", "reservation status")
	cmd.Flags().StringVar(&f.from, "from", "", "earliest start, RFC 3339 or YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "start before, RFC 3339 or YYYY-MM-DD")
	if paging {
		cmd.Flags().IntVar(&f.limit, "limit", 50, "maximum rows")
		cmd.Flags().IntVar(&f.offset, "offset", 0, "rows to skip")
	}
}

func (f *filterFlags) filter(loc *time.Location) (booking.QueryFilter, error) {
	q := booking.QueryFilter{
		CourtID:     f.court,
		RequesterID: f.requester,
		Status:      models.Status(strings.ToUpper(f.status)),
		Limit:       f.limit,
		Offset:      f.offset,
	}
	var err error
	if q.From, err = parseFlagTime("from", f.from, loc); err != nil {
		return q, err
	}
	if q.To, err = parseFlagTime("to", f.to, loc); err != nil {
		return q, err
	}
	return q, nil
}

func parseFlagTime(name, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q", name, value)
	}
	return t, nil
}

func newListCmd(opts *options) *cobra.Command {
	var flags filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := flags.filter(opts.app.Policy.Location)
			if err != nil {
				return err
			}
			list, err := opts.app.Engine.ListReservations(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printReservations(cmd.OutOrStdout(), list, opts.app.Policy.Location)
		},
	}

	flags.bind(cmd, true)
	return cmd
}

func printReservations(out io.Writer, list []models.Reservation, loc *time.Location) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOURT\tREQUESTER\tSTART\tEND\tSTATUS")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CourtID, r.RequesterID,
			r.StartTime.In(loc).Format("2006-01-02 15:04"),
			r.EndTime.In(loc).Format("15:04"),
			r.Status,
		)
	}
	return tw.Flush()
}

func newCheckCmd(opts *options) *cobra.Command {
	var court, start, end, excludeID string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a court is free for a time range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, e, err := booking.ParseRange(start, end)
			if err != nil {
				return err
			}
			res, err := opts.app.Engine.CheckAvailability(cmd.Context(), court, s, e, opts.now(), excludeID)
			if err != nil {
				return err
			}
			if !res.HasConflict {
				cmd.Println("available")
				return nil
			}
			cmd.Printf("unavailable: %s with %s\n", res.Reason, res.Conflict.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&court, "court", "", "court id")
	cmd.Flags().StringVar(&start, "start", "", "start time (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "end time (RFC 3339)")
	cmd.Flags().StringVar(&excludeID, "exclude-id", "", "reservation to ignore")
	for _, name := range []string{"court", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAvailableCmd(opts *options) *cobra.Command {
	var (
		start, end       string
		include, exclude []string
	)

	cmd := &cobra.Command{
		Use:   "available",
		Short: "List courts free for a time range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, e, err := booking.ParseRange(start, end)
			if err != nil {
				return err
			}
			ids, err := opts.app.Engine.QueryAvailableResources(cmd.Context(), s, e, opts.now(), booking.AvailabilityOptions{
				Include: include,
				Exclude: exclude,
			})
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				cmd.Println("no courts available")
				return nil
			}
			for _, id := range ids {
				cmd.Println(id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start time (RFC 3339)")
	cmd.Flags().StringVar(&end, "end", "", "end time (RFC 3339)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "only consider these courts")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "ignore these courts")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
