// Package cli implements the courtbook command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"courtbook/internal/config"
)

// options carries flag values and the lazily built App between the root
// command and its subcommands.
type options struct {
	configPath string
	logOutput  io.Writer
	now        func() time.Time
	app        *App
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "courtbook",
		Short:         "Court reservation engine",
		Long:          `courtbook admits court reservations without double-booking and manages their lifecycle.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return opts.close()
		},
	}

	defaultConfig := os.Getenv("COURTBOOK_CONFIG")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfig, "path to config file")

	root.AddCommand(
		newServeCmd(opts),
		newSweepCmd(opts),
		newBookCmd(opts),
		newStatusCmd(opts),
		newDeleteCmd(opts),
		newListCmd(opts),
		newCheckCmd(opts),
		newAvailableCmd(opts),
		newSlotsCmd(opts),
		newStatsCmd(opts),
		newExportCmd(opts),
		newCourtsCmd(opts),
	)
	return root
}

func (o *options) open(cmd *cobra.Command) error {
	if o.app != nil {
		return nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := o.logOutput
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	logger := newLogger(out, cfg.Logging.Level)

	app, err := NewApp(cmd.Context(), cfg, logger, o.now())
	if err != nil {
		return err
	}
	o.app = app
	return nil
}

func (o *options) close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

func newLogger(out io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		logger = logger.Level(lvl)
	}
	return logger
}

// Execute runs the root command. A failed command skips the post-run hook so
// the app is also closed here.
func Execute() error {
	opts := &options{now: time.Now}
	defer func() { _ = opts.close() }()

	root := newRootCmd(opts)
	root.SetOut(os.Stdout)
	return root.Execute()
}
