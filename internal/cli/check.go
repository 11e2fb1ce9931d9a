package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmachta/molnorm/internal/pattern"
	"github.com/pmachta/molnorm/internal/rulefile"
)

// CheckResult holds rule compilation results for one catalog.
type CheckResult struct {
	Path   string   `json:"path"`
	Rules  int      `json:"rules"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <catalog.cue>",
		Short: "Check a rule catalog without normalizing anything",
		Long: `Load a CUE rule catalog and compile every pattern eagerly.

The normalizer compiles rules lazily on first use, so a broken pattern
deep in a catalog only surfaces once a molecule reaches it. check
front-loads that: it compiles the whole catalog and reports every rule
the pattern compiler rejects.

Exit codes:
  0  catalog loads and every rule compiles
  1  catalog loads but at least one rule is invalid
  2  catalog cannot be loaded at all

Examples:
  molnorm check custom.cue
  molnorm check custom.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rules, err := rulefile.Load(path)
	if err != nil {
		return exitWithLoadError(formatter, err)
	}
	formatter.VerboseLog("loaded %d rule(s) from %s", len(rules), path)

	compileErrs := rulefile.CompileAll(rules, pattern.System{})
	if len(compileErrs) == 0 {
		if opts.Format == "json" {
			return formatter.Success(CheckResult{Path: path, Rules: len(rules), Valid: true})
		}
		fmt.Fprintf(formatter.Writer, "✓ All %d rule(s) compile\n", len(rules))
		return nil
	}

	result := CheckResult{Path: path, Rules: len(rules)}
	for _, cerr := range compileErrs {
		result.Errors = append(result.Errors, cerr.Error())
	}

	if opts.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    rulefile.ErrCodeGeneric,
				Message: result.Errors[0],
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d invalid rule(s)", len(compileErrs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Catalog check failed")
	fmt.Fprintln(formatter.Writer)
	for _, msg := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", msg)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d invalid rule(s)", len(compileErrs)))
}

// exitWithLoadError reports a catalog load failure and maps it to a
// command-error exit. Loading problems are environment problems, never
// rule-validity verdicts, so the code is always ExitCommandError.
func exitWithLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *rulefile.LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", loadErr.Code, loadErr.Message))
	}
	_ = formatter.Error(rulefile.ErrCodeGeneric, err.Error(), nil)
	return NewExitError(ExitCommandError, err.Error())
}
