// Package cli implements the brushline command-line interface.
//
// # Commands
//
//   - place: evaluate a script and print every placement as JSON or YAML
//   - segments: list the segments and midpoints of each path in a script
//   - check: validate a script without placing anything
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and
// --log-file to tee log output into a rotating file. Loggers are passed
// through context.Context.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	lj "gopkg.in/natefinch/lumberjack.v2"

	"github.com/chazu/brushline/pkg/config"
	"github.com/chazu/brushline/pkg/engine"
	"github.com/chazu/brushline/pkg/job"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// globalOpts holds the persistent root flags.
type globalOpts struct {
	verbose    bool
	logFile    string
	configPath string
}

// Execute runs the brushline CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var opts globalOpts
	var logCloser io.Closer

	root := &cobra.Command{
		Use:          "brushline",
		Short:        "brushline lays prefab items along paths onto scene surfaces",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logFile != "" {
				cfg.Logging.File = opts.logFile
			}
			level, err := log.ParseLevel(cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("logging.level: %w", err)
			}
			if opts.verbose {
				level = log.DebugLevel
			}

			w := cmd.ErrOrStderr()
			if cfg.Logging.File != "" {
				f := &lj.Logger{Filename: cfg.Logging.File, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
				logCloser = f
				w = io.MultiWriter(w, f)
			}

			ctx := withLogger(cmd.Context(), newLogger(w, level))
			ctx = withConfig(ctx, cfg)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("brushline %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "also write logs to this file (rotated)")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.toml, .yaml or .yml)")

	root.AddCommand(newPlaceCmd())
	root.AddCommand(newSegmentsCmd())
	root.AddCommand(newCheckCmd())
	return root
}

// settingsFrom converts the configuration into engine settings.
func settingsFrom(cfg config.Config) (engine.Settings, error) {
	s := engine.DefaultSettings()
	spacing, err := cfg.SpacingPolicy()
	if err != nil {
		return s, err
	}
	opts, err := cfg.PlacementOptions()
	if err != nil {
		return s, err
	}
	s.Resolution = cfg.Sampling.Resolution
	s.Spacing = spacing
	s.Placement = opts
	s.MaxDistance = cfg.Placement.MaxDistance
	return s, nil
}

// loadJob reads and evaluates a script. Script errors are joined into one
// error prefixed with the file name.
func loadJob(ctx context.Context, script string) (*job.Job, error) {
	logger := loggerFromContext(ctx)
	settings, err := settingsFrom(configFromContext(ctx))
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(script)
	if err != nil {
		return nil, err
	}

	p := newProgress(logger)
	eng := engine.NewEngine(engine.WithSettings(settings), engine.WithLogger(logger))
	j, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", script, err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("%s: %w", script, errors.Join(errs...))
	}
	p.done(fmt.Sprintf("Evaluated %s", script))
	return j, nil
}
