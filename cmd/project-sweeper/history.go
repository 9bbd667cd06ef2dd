package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"project-sweeper/internal/config"
	"project-sweeper/internal/database"
	"project-sweeper/internal/exitcodes"
	"project-sweeper/internal/report"
)

type historyOptions struct {
	ConfigPath  string
	DBPath      string
	Recent      int
	Sweeps      int
	Largest     int
	Action      string
	PathPattern string
	Stats       bool
	Days        int
	Prune       int
	JSON        bool
}

var hopts historyOptions

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the sweep history database",
	Example: `  project-sweeper history --db sweeps.db --sweeps 5       # Show the 5 most recent sweeps
  project-sweeper history --db sweeps.db --recent 20      # Show the 20 most recent actions
  project-sweeper history --db sweeps.db --stats          # Show statistics for the last 30 days
  project-sweeper history --db sweeps.db --action ERROR   # Show only failed deletions
  project-sweeper history --db sweeps.db --path '%/node_modules'
  project-sweeper history --db sweeps.db --largest 10     # Show the 10 largest removals`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd, &hopts)
	},
}

func init() {
	f := historyCmd.Flags()
	f.StringVarP(&hopts.ConfigPath, "config", "c", "", "Read database_path from this configuration file")
	f.StringVar(&hopts.DBPath, "db", "", "Path to the sweep history database")
	f.IntVar(&hopts.Recent, "recent", 0, "Show N most recent actions")
	f.IntVar(&hopts.Sweeps, "sweeps", 0, "Show N most recent sweeps")
	f.IntVar(&hopts.Largest, "largest", 0, "Show N largest removals")
	f.StringVar(&hopts.Action, "action", "", "Filter by action (DELETE, DRY_RUN, NOT_FOUND, ERROR, BLOCKED)")
	f.StringVar(&hopts.PathPattern, "path", "", "Filter by path pattern (SQL LIKE syntax)")
	f.BoolVar(&hopts.Stats, "stats", false, "Show sweep statistics")
	f.IntVar(&hopts.Days, "days", 30, "Number of days for statistics")
	f.IntVar(&hopts.Prune, "prune", 0, "Delete sweeps older than N days and compact the database")
	f.BoolVar(&hopts.JSON, "json", false, "Output in JSON format")
}

func historyDBPath(o *historyOptions) (string, error) {
	if o.DBPath != "" {
		return o.DBPath, nil
	}
	if o.ConfigPath != "" {
		cfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return "", fmt.Errorf("load config %s: %w", o.ConfigPath, err)
		}
		if cfg.DatabasePath != "" {
			return cfg.DatabasePath, nil
		}
	}
	return "", errors.New("no history database: pass --db or a config with database_path")
}

func runHistory(cmd *cobra.Command, o *historyOptions) error {
	dbPath, err := historyDBPath(o)
	if err != nil {
		return withCode(exitcodes.InvalidConfig, err)
	}

	db, err := database.NewSweepDB(dbPath)
	if err != nil {
		return withCode(exitcodes.RuntimeError, fmt.Errorf("open database %s: %w", dbPath, err))
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	switch {
	case o.Prune > 0:
		err = pruneHistory(out, db, o.Prune)
	case o.Stats:
		err = showStats(out, db, o.Days, o.JSON)
	case o.Sweeps > 0:
		err = showSweeps(out, db, o.Sweeps, o.JSON)
	case o.Recent > 0:
		err = showActions(out, "", o.JSON, func() ([]database.ActionRecord, error) {
			return db.GetRecentActions(o.Recent)
		})
	case o.Action != "":
		err = showActions(out, fmt.Sprintf("Actions of type: %s", o.Action), o.JSON, func() ([]database.ActionRecord, error) {
			return db.GetActionsByAction(o.Action)
		})
	case o.PathPattern != "":
		err = showActions(out, fmt.Sprintf("Actions matching path pattern: %s", o.PathPattern), o.JSON, func() ([]database.ActionRecord, error) {
			return db.GetActionsByPath(o.PathPattern)
		})
	case o.Largest > 0:
		err = showActions(out, fmt.Sprintf("Largest %d removals:", o.Largest), o.JSON, func() ([]database.ActionRecord, error) {
			return db.GetLargestRemovals(o.Largest)
		})
	default:
		_ = cmd.Usage()
		return withCode(exitcodes.InvalidConfig, errors.New("no query selected"))
	}
	if err != nil {
		return withCode(exitcodes.RuntimeError, err)
	}
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func showStats(out io.Writer, db *database.SweepDB, days int, jsonOutput bool) error {
	stats, err := db.GetSweepStats(days)
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, stats)
	}

	fmt.Fprintf(out, "Sweep Statistics (Last %d days)\n", days)
	fmt.Fprintf(out, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(out, "Sweeps:           %d\n", stats.TotalSweeps)
	fmt.Fprintf(out, "Removed:          %d\n", stats.TotalDeletions)
	fmt.Fprintf(out, "Not Found:        %d\n", stats.TotalNotFound)
	fmt.Fprintf(out, "Failed:           %d\n", stats.TotalErrors)
	fmt.Fprintf(out, "Space Freed:      %s\n", report.FormatBytes(stats.TotalSpaceFreed))

	if len(stats.ByAction) > 0 {
		fmt.Fprintln(out, "\nBy Action:")
		for action, count := range stats.ByAction {
			fmt.Fprintf(out, "  %-15s %d\n", action, count)
		}
	}
	return nil
}

func showSweeps(out io.Writer, db *database.SweepDB, limit int, jsonOutput bool) error {
	sweeps, err := db.GetRecentSweeps(limit)
	if err != nil {
		return fmt.Errorf("get recent sweeps: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, sweeps)
	}
	if len(sweeps) == 0 {
		fmt.Fprintln(out, "No sweeps found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tStarted\tDuration\tMode\tDirs\tFiles\tNot Found\tFailed\tFreed\tRoot")
	_, _ = fmt.Fprintln(w, "--\t-------\t--------\t----\t----\t-----\t---------\t------\t-----\t----")
	for _, s := range sweeps {
		duration := "-"
		if s.FinishedAt != nil {
			duration = s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond).String()
		}
		mode := "delete"
		if s.DryRun {
			mode = "dry-run"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), duration, mode,
			s.DirectoriesRemoved, s.FilesRemoved, s.NotFound, s.Failed,
			report.FormatBytes(s.BytesFreed), s.Root)
	}
	return w.Flush()
}

func showActions(out io.Writer, title string, jsonOutput bool, query func() ([]database.ActionRecord, error)) error {
	records, err := query()
	if err != nil {
		return fmt.Errorf("query actions: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, records)
	}
	if title != "" {
		fmt.Fprintf(out, "%s\n\n", title)
	}
	return printActions(out, records)
}

func printActions(out io.Writer, records []database.ActionRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSweep\tTimestamp\tAction\tType\tSize\tPath\tError")
	_, _ = fmt.Fprintln(w, "--\t-----\t---------\t------\t----\t----\t----\t-----")
	for _, r := range records {
		objectType := r.ObjectType
		if objectType == "" {
			objectType = "-"
		}
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.SweepID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Action,
			objectType, report.FormatBytes(r.Size), r.Path, r.ErrorMessage)
	}
	return w.Flush()
}

func pruneHistory(out io.Writer, db *database.SweepDB, days int) error {
	removed, err := db.DeleteOldRecords(days)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	if err := db.Vacuum(); err != nil {
		return fmt.Errorf("vacuum database: %w", err)
	}
	fmt.Fprintf(out, "Removed %d sweeps older than %d days\n", removed, days)
	return nil
}
