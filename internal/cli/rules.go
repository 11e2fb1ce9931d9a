package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmachta/molnorm/internal/config"
	"github.com/pmachta/molnorm/internal/normalize"
	"github.com/pmachta/molnorm/internal/rulefile"
)

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	*RootOptions
	RulesPath string
}

// RuleInfo describes one catalog entry for output.
type RuleInfo struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// CatalogListing holds the rules command output.
type CatalogListing struct {
	Source string     `json:"source"`
	Rules  []RuleInfo `json:"rules"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions, cfg config.Config) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule catalog",
		Long: `Print the active rule catalog in scan order.

Without --rules this is the built-in catalog. Order matters: the
normalizer prefers earlier rules and re-scans from the top after every
firing.

Examples:
  molnorm rules
  molnorm rules --rules custom.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RulesPath, "rules", cfg.RulesPath, "CUE rule catalog replacing the built-in one")

	return cmd
}

func runRules(opts *RulesOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	rules := normalize.DefaultRules()
	source := "built-in"
	if opts.RulesPath != "" {
		loaded, err := rulefile.Load(opts.RulesPath)
		if err != nil {
			return exitWithLoadError(formatter, err)
		}
		rules = loaded
		source = opts.RulesPath
	}

	listing := CatalogListing{
		Source: source,
		Rules:  make([]RuleInfo, len(rules)),
	}
	for i, r := range rules {
		listing.Rules[i] = RuleInfo{Index: i, Name: r.Name(), Pattern: r.Pattern()}
	}

	if opts.Format == "json" {
		return formatter.Success(listing)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Catalog: %s (%d rules)\n\n", listing.Source, len(listing.Rules))
	for _, info := range listing.Rules {
		fmt.Fprintf(w, "%3d  %s\n     %s\n", info.Index, info.Name, info.Pattern)
	}
	return nil
}
