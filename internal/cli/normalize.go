package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pmachta/molnorm/internal/chem"
	"github.com/pmachta/molnorm/internal/config"
	"github.com/pmachta/molnorm/internal/journal"
	"github.com/pmachta/molnorm/internal/normalize"
	"github.com/pmachta/molnorm/internal/pattern"
	"github.com/pmachta/molnorm/internal/rulefile"
)

// NormalizeOptions holds flags for the normalize command.
type NormalizeOptions struct {
	*RootOptions
	RulesPath   string
	MaxRestarts int
	Database    string
}

// MoleculeResult is the outcome for one input molecule.
type MoleculeResult struct {
	Input      string   `json:"input"`
	Output     string   `json:"output,omitempty"`
	Converged  bool     `json:"converged"`
	Restarts   int      `json:"restarts"`
	RulesFired []string `json:"rules_fired,omitempty"`
	Cached     bool     `json:"cached,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// NormalizeReport holds the outcome for a whole invocation.
type NormalizeReport struct {
	RunToken  string           `json:"run_token,omitempty"`
	Molecules []MoleculeResult `json:"molecules"`
	Failed    int              `json:"failed"`
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	opts := &NormalizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "normalize [notation...]",
		Short: "Rewrite molecules to their rule fixed point",
		Long: `Rewrite molecules to their rule fixed point and print the result in
canonical notation, one line per molecule.

Inputs are not pre-checked beyond notation syntax: repairing graphs the
valence model rejects (pentavalent nitro nitrogen, charge-separated
forms) is exactly what the rules are for.

Reads notations from the arguments, or from stdin (one per line, blank
lines and #-comments skipped) when no arguments are given. With --db,
every run is journaled and previously seen molecules come from the
journal cache without touching the engine.

Examples:
  molnorm normalize 'CN(=O)=O'
  cat molecules.txt | molnorm normalize --db ./journal.db
  molnorm normalize --rules custom.cue --format json 'CN(=O)=O'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesPath, "rules", cfg.RulesPath, "CUE rule catalog replacing the built-in one")
	cmd.Flags().IntVar(&opts.MaxRestarts, "max-restarts", cfg.MaxRestarts, "restart budget before giving up")
	cmd.Flags().StringVar(&opts.Database, "db", cfg.DBPath, "SQLite journal path (records provenance, caches results)")

	return cmd
}

func runNormalize(opts *NormalizeOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	inputs, err := gatherInputs(args, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "reading stdin", err)
	}
	if len(inputs) == 0 {
		return NewExitError(ExitCommandError, "no molecules to normalize")
	}

	rules := normalize.DefaultRules()
	if opts.RulesPath != "" {
		loaded, err := rulefile.Load(opts.RulesPath)
		if err != nil {
			return exitWithLoadError(formatter, err)
		}
		formatter.VerboseLog("loaded %d rule(s) from %s", len(loaded), opts.RulesPath)
		rules = loaded
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var j *journal.Journal
	runToken := ""
	if opts.Database != "" {
		j, err = journal.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		runToken, err = j.BeginRun(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to begin journal run", err)
		}
		formatter.VerboseLog("journal %s, run %s", opts.Database, runToken)
	}

	sys := pattern.System{}
	n := normalize.New(sys,
		normalize.WithRules(rules),
		normalize.WithMaxRestarts(opts.MaxRestarts))

	report := NormalizeReport{
		RunToken:  runToken,
		Molecules: make([]MoleculeResult, 0, len(inputs)),
	}
	for _, notation := range inputs {
		result := normalizeOne(ctx, n, sys, j, runToken, notation)
		if result.Error != "" {
			report.Failed++
		}
		report.Molecules = append(report.Molecules, result)
	}

	return outputNormalizeReport(formatter, report)
}

// normalizeOne runs a single molecule through cache and engine. All
// failure modes land in the result's Error field; a batch never stops
// early on one bad molecule.
func normalizeOne(ctx context.Context, n *normalize.Normalizer, sys pattern.System, j *journal.Journal, runToken, notation string) MoleculeResult {
	result := MoleculeResult{Input: notation}

	mol, err := chem.Parse(notation)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	// The cache key is the canonical form of the raw input, computed
	// before any rule runs so notation variants of one graph share an
	// entry.
	inputCanonical := sys.Canonical(mol)

	if j != nil {
		rec, ok, err := j.Lookup(ctx, inputCanonical)
		if err != nil {
			slog.Warn("journal lookup failed", "error", err)
		} else if ok {
			slog.Info("cache hit", "input", inputCanonical, "output", rec.Output)
			result.Output = rec.Output
			result.Converged = rec.Converged
			result.Restarts = int(rec.Restarts)
			result.RulesFired = rec.RulesFired
			result.Cached = true
			return result
		}
	}

	res, err := n.Run(mol)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Output = sys.Canonical(res.Mol)
	result.Converged = res.Converged
	result.Restarts = res.Restarts
	result.RulesFired = res.Fired

	if j != nil {
		// Journal failures degrade to a warning: the journal records
		// work, it does not gate it.
		if _, err := j.WriteRecord(ctx, journal.Record{
			RunToken:   runToken,
			Input:      inputCanonical,
			Output:     result.Output,
			Restarts:   int64(res.Restarts),
			Converged:  res.Converged,
			RulesFired: res.Fired,
		}); err != nil {
			slog.Warn("journal write failed", "error", err)
		}
	}

	return result
}

// gatherInputs returns the molecules to normalize: the arguments, or
// non-blank stdin lines when there are none. Lines starting with #
// are comments.
func gatherInputs(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	var inputs []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return inputs, nil
}

// outputNormalizeReport renders the report and maps failures to exit
// codes.
func outputNormalizeReport(f *OutputFormatter, report NormalizeReport) error {
	if f.Format == "json" {
		response := CLIResponse{Status: "ok", Data: report}
		if report.Failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    rulefile.ErrCodeGeneric,
				Message: firstMoleculeError(report),
			}
		}

		encoder := json.NewEncoder(f.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failedExit(report)
	}

	// Text: canonical forms on stdout, failures on stderr, so piping a
	// clean batch stays line-per-molecule.
	for _, m := range report.Molecules {
		if m.Error != "" {
			fmt.Fprintf(f.GetErrWriter(), "error: %s: %s\n", m.Input, m.Error)
			continue
		}
		fmt.Fprintln(f.Writer, m.Output)

		switch {
		case m.Cached:
			f.VerboseLog("  %s: cached", m.Input)
		case len(m.RulesFired) > 0:
			f.VerboseLog("  %s: fired %s", m.Input, strings.Join(m.RulesFired, "; "))
		default:
			f.VerboseLog("  %s: already normal", m.Input)
		}
		if !m.Converged {
			f.VerboseLog("  %s: gave up after %d restarts", m.Input, m.Restarts)
		}
	}
	return failedExit(report)
}

func failedExit(report NormalizeReport) error {
	if report.Failed == 0 {
		return nil
	}
	return NewExitError(ExitFailure,
		fmt.Sprintf("%d of %d molecule(s) failed", report.Failed, len(report.Molecules)))
}

func firstMoleculeError(report NormalizeReport) string {
	for _, m := range report.Molecules {
		if m.Error != "" {
			return m.Error
		}
	}
	return ""
}
