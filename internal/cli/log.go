package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmachta/molnorm/internal/config"
	"github.com/pmachta/molnorm/internal/journal"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	RunToken string
	Limit    int
}

// LogEntry is one journal record formatted for output.
type LogEntry struct {
	Seq        int64    `json:"seq"`
	ID         string   `json:"id"`
	RunToken   string   `json:"run_token"`
	Input      string   `json:"input"`
	Output     string   `json:"output"`
	Restarts   int64    `json:"restarts"`
	Converged  bool     `json:"converged"`
	RulesFired []string `json:"rules_fired,omitempty"`
}

// LogListing holds the log command output.
type LogListing struct {
	Records []LogEntry `json:"records"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show journal records",
		Long: `Show normalization records from the journal.

By default the newest records come first. With --run, shows one run's
records oldest first instead, which reads as the order the molecules
were normalized in.

Examples:
  molnorm log --db ./journal.db
  molnorm log --db ./journal.db -n 5 --verbose
  molnorm log --db ./journal.db --run 0190cafe-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", cfg.DBPath, "SQLite journal path")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "show a single run's records, oldest first")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum records to show")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Database == "" {
		return NewExitError(ExitCommandError, "no journal database (set --db or MOLNORM_DB)")
	}

	j, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var records []journal.Record
	if opts.RunToken != "" {
		records, err = j.RunRecords(ctx, opts.RunToken)
	} else {
		records, err = j.RecentRecords(ctx, opts.Limit)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	listing := LogListing{Records: make([]LogEntry, len(records))}
	for i, rec := range records {
		listing.Records[i] = LogEntry{
			Seq:        rec.Seq,
			ID:         rec.ID,
			RunToken:   rec.RunToken,
			Input:      rec.Input,
			Output:     rec.Output,
			Restarts:   rec.Restarts,
			Converged:  rec.Converged,
			RulesFired: rec.RulesFired,
		}
	}

	if opts.Format == "json" {
		return formatter.Success(listing)
	}

	w := formatter.Writer
	if len(listing.Records) == 0 {
		fmt.Fprintln(w, "No records.")
		return nil
	}
	for _, e := range listing.Records {
		fmt.Fprintf(w, "[%d] %s  %s -> %s\n", e.Seq, truncateID(e.ID), e.Input, e.Output)
		if opts.Verbose {
			fmt.Fprintf(w, "      run %s  restarts %d  converged %t\n", e.RunToken, e.Restarts, e.Converged)
			if len(e.RulesFired) > 0 {
				fmt.Fprintf(w, "      fired: %s\n", strings.Join(e.RulesFired, "; "))
			}
		}
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
