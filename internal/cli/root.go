// Package cli implements the smartfeeds command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"SmartFeeds/internal/app"
	"SmartFeeds/internal/config"
	"SmartFeeds/internal/domain"
	"SmartFeeds/internal/logging"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitPartial = 2
)

// Options carries the process streams and the configuration loader.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	// LoadConfig resolves settings from the --config path.
	LoadConfig func(path string) config.Config
}

func (o *Options) defaults() {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Err == nil {
		o.Err = os.Stderr
	}
	if o.LoadConfig == nil {
		o.LoadConfig = config.LoadFrom
	}
}

// exitError carries a non-default exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// ExitCode maps a command error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

type rootFlags struct {
	configPath string
	day        string
}

type runtime struct {
	opts  Options
	flags rootFlags
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	opts.defaults()
	rt := &runtime{opts: opts}

	root := &cobra.Command{
		Use:   "smartfeeds",
		Short: "Daily content pipeline over websites and feeds",
		Long: `smartfeeds collects items from configured websites and RSS/Atom feeds,
keeps the ones matching your interest profile in a daily record and condenses
that record into a digest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().StringVarP(&rt.flags.configPath, "config", "c", os.Getenv("SMART_FEEDS_CONFIG"), "path to the YAML settings file")
	root.PersistentFlags().StringVarP(&rt.flags.day, "day", "d", "", "day key YYYY-MM-DD (default: today in the configured timezone)")

	root.AddCommand(
		newFetchCmd(rt),
		newRunCmd(rt),
		newSummarizeCmd(rt),
		newShowCmd(rt),
		newConfigureBrowserCmd(rt),
		newServeCmd(rt),
		newDaemonCmd(rt),
	)
	return root
}

// Execute runs the command line and returns the process exit status.
func Execute(ctx context.Context, args []string, opts Options) int {
	opts.defaults()
	root := NewRootCommand(opts)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(opts.Err, "Error:", err)
	}
	return ExitCode(err)
}

func (rt *runtime) config() config.Config {
	return rt.opts.LoadConfig(rt.flags.configPath)
}

func (rt *runtime) logger(cfg config.Config) *slog.Logger {
	return logging.NewWithWriter(rt.opts.Err, cfg.Logging.Level, cfg.Logging.Format)
}

// open wires the application from settings. The caller closes it.
func (rt *runtime) open(ctx context.Context) (*app.Application, error) {
	cfg := rt.config()
	return app.New(ctx, cfg, rt.logger(cfg))
}

func (rt *runtime) day(application *app.Application) (domain.DayKey, error) {
	if rt.flags.day == "" {
		return application.Today(), nil
	}
	return domain.ParseDayKey(rt.flags.day)
}
