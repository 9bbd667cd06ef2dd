package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"project-sweeper/internal/config"
	"project-sweeper/internal/database"
	"project-sweeper/internal/exitcodes"
	"project-sweeper/internal/logging"
	"project-sweeper/internal/metrics"
	"project-sweeper/internal/prompt"
	"project-sweeper/internal/report"
	"project-sweeper/internal/safety"
	"project-sweeper/internal/sweep"
)

type sweepOptions struct {
	ConfigPath  string
	Root        string
	DryRun      bool
	NoWait      bool
	NoColor     bool
	Strict      bool
	DBPath      string
	MetricsFile string
	LogFile     string
	LogLevel    string
	Directories []string
	Filenames   []string
}

var opts sweepOptions

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Remove build output and OS clutter from a project tree",
	Long: `Deletes the configured build and dependency directories relative to the
project root, then removes the configured clutter filenames (lock files,
.DS_Store, Thumbs.db, ...) anywhere below it. Missing entries are reported and
skipped; deletion failures are reported and never stop the sweep.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd, &opts)
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to YAML configuration file")
	f.StringVarP(&opts.Root, "root", "r", "", "Project root (default: directory containing the executable)")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Report what would be removed without deleting anything")
	f.BoolVar(&opts.NoWait, "no-wait", false, "Exit without waiting for Enter")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.BoolVar(&opts.Strict, "strict", false, "Exit with a non-zero code when any deletion failed")
	f.StringVar(&opts.DBPath, "db", "", "Record sweep history to this SQLite database")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.StringVar(&opts.LogFile, "log-file", "", "Append logs to this file")
	f.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringArrayVar(&opts.Directories, "dir", nil, "Target directory relative to root (repeatable, replaces the configured list)")
	f.StringArrayVar(&opts.Filenames, "file", nil, "Target filename matched at any depth (repeatable, replaces the configured list)")

	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the config file (or the defaults) and applies command-line overrides
func loadConfig(cmd *cobra.Command, o *sweepOptions) (*config.Config, error) {
	var cfg *config.Config
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", o.ConfigPath, err)
		}
		cfg = loaded
	} else {
		def, err := config.Default()
		if err != nil {
			return nil, err
		}
		cfg = def
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = o.Root
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = o.DryRun
	}
	if flags.Changed("strict") {
		cfg.Strict = o.Strict
	}
	if flags.Changed("db") {
		cfg.DatabasePath = o.DBPath
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.TextfilePath = o.MetricsFile
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = o.LogFile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.LogLevel
	}
	if len(o.Directories) > 0 {
		cfg.TargetDirectories = append([]string(nil), o.Directories...)
	}
	if len(o.Filenames) > 0 {
		cfg.TargetFilenames = append([]string(nil), o.Filenames...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSweep(cmd *cobra.Command, o *sweepOptions) error {
	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return withCode(exitcodes.InvalidConfig, err)
	}

	logger, logFile := logging.NewWithConfig(&cfg.Logging)
	defer logFile.Close()
	logger.WithFields(logrus.Fields{
		"root":    cfg.Root,
		"config":  o.ConfigPath,
		"dry_run": cfg.DryRun,
	}).Debug("Configuration loaded")

	var db *database.SweepDB
	if cfg.DatabasePath != "" {
		logger.WithField("path", cfg.DatabasePath).Debug("Opening sweep history database")
		db, err = database.NewSweepDB(cfg.DatabasePath)
		if err != nil {
			return withCode(exitcodes.RuntimeError, fmt.Errorf("open database: %w", err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Error("Failed to close database")
			}
		}()
	}

	out := cmd.OutOrStdout()
	s := sweep.NewSweeper(sweep.ParamsFromConfig(cfg), logger, db)
	s.SetReporter(report.NewConsole(out, o.NoColor))
	s.SetOnComplete(prompt.ForConsole(os.Stdin, out, o.NoWait))

	res, err := s.Sweep()
	if err != nil {
		if errors.Is(err, safety.ErrProtectedPath) {
			return withCode(exitcodes.SafetyViolation, err)
		}
		return withCode(exitcodes.InvalidConfig, err)
	}

	if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		logger.WithError(err).WithField("path", cfg.Metrics.TextfilePath).Error("Failed to write metrics textfile")
	}

	if cfg.Strict && res.HasFailures() {
		return withCode(exitcodes.PartialFailure,
			fmt.Errorf("%d deletions failed", res.Failed+res.Blocked))
	}
	return nil
}
