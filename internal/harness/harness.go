package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/pmachta/molnorm/internal/chem"
	"github.com/pmachta/molnorm/internal/journal"
	"github.com/pmachta/molnorm/internal/normalize"
	"github.com/pmachta/molnorm/internal/pattern"
	"github.com/pmachta/molnorm/internal/rulefile"
)

// Run executes a scenario and returns its result.
//
// Each scenario runs against a fresh in-memory journal for isolation,
// so journal_state assertions see exactly this scenario's records.
// Engine logging is suppressed; the trace is the harness's record of
// what happened.
//
// Execution flow:
// 1. Build a normalizer from the scenario's catalog and budget
// 2. Open an in-memory journal and begin a run
// 3. Normalize each molecule, tracing and journaling the outcome
// 4. Check each molecule against its expect clause
// 5. Evaluate assertions against the trace and the journal
func Run(scenario *Scenario) (*Result, error) {
	rules := normalize.DefaultRules()
	if scenario.Rules != "" {
		var err error
		rules, err = rulefile.Load(scenario.Rules)
		if err != nil {
			return nil, fmt.Errorf("failed to load rule catalog: %w", err)
		}
	}

	opts := []normalize.NormalizerOption{
		normalize.WithRules(rules),
		// Suppress logs in tests
		normalize.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if scenario.MaxRestarts > 0 {
		opts = append(opts, normalize.WithMaxRestarts(scenario.MaxRestarts))
	}
	sys := pattern.System{}
	n := normalize.New(sys, opts...)

	j, err := journal.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	ctx := context.Background()
	runToken, err := j.BeginRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin journal run: %w", err)
	}

	result := NewResult()
	seq := 0
	nextSeq := func() int {
		seq++
		return seq
	}

	for i, step := range scenario.Molecules {
		outcome := MoleculeOutcome{Input: step.Input}

		mol, err := chem.Parse(step.Input)
		if err != nil {
			outcome.Error = err.Error()
			result.AddMoleculeTrace(nextSeq(), step.Input, "")
			result.AddErrorTrace(nextSeq(), outcome.Error)
			result.Outcomes = append(result.Outcomes, outcome)
			checkExpect(result, i, step, outcome)
			continue
		}

		outcome.Canonical = sys.Canonical(mol)
		result.AddMoleculeTrace(nextSeq(), step.Input, outcome.Canonical)

		res, err := n.Run(mol)
		if err != nil {
			outcome.Error = err.Error()
			result.AddErrorTrace(nextSeq(), outcome.Error)
			result.Outcomes = append(result.Outcomes, outcome)
			checkExpect(result, i, step, outcome)
			continue
		}

		for _, name := range res.Fired {
			result.AddFiringTrace(nextSeq(), name)
		}

		outcome.Output = sys.Canonical(res.Mol)
		outcome.Restarts = res.Restarts
		outcome.Converged = res.Converged
		outcome.Fired = res.Fired
		result.AddOutcomeTrace(nextSeq(), outcome.Output, outcome.Restarts, outcome.Converged)
		result.Outcomes = append(result.Outcomes, outcome)

		if res.Converged {
			if err := checkFixedPoint(n, sys, outcome.Output); err != nil {
				result.AddError(fmt.Sprintf("molecule %d (%q): %v", i, step.Input, err))
			}
		}

		if _, err := j.WriteRecord(ctx, journal.Record{
			RunToken:   runToken,
			Input:      outcome.Canonical,
			Output:     outcome.Output,
			Restarts:   int64(outcome.Restarts),
			Converged:  outcome.Converged,
			RulesFired: outcome.Fired,
		}); err != nil {
			return nil, fmt.Errorf("failed to journal outcome: %w", err)
		}

		checkExpect(result, i, step, outcome)
	}

	actx := &AssertionContext{
		Journal: j,
		Ctx:     ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// checkFixedPoint reparses a converged output and runs it again. The
// printed form of a fixed point must itself be a fixed point that
// prints identically, or the writer and the engine have drifted apart.
func checkFixedPoint(n *normalize.Normalizer, sys normalize.System, output string) error {
	mol, err := chem.Parse(output)
	if err != nil {
		return fmt.Errorf("output %q does not reparse: %w", output, err)
	}
	res, err := n.Run(mol)
	if err != nil {
		return fmt.Errorf("output %q failed to renormalize: %w", output, err)
	}
	if len(res.Fired) > 0 {
		return fmt.Errorf("output %q is not a fixed point: refired %v", output, res.Fired)
	}
	if got := sys.Canonical(res.Mol); got != output {
		return fmt.Errorf("output %q reprints as %q", output, got)
	}
	return nil
}

// checkExpect validates one molecule outcome against its expect
// clause. An unexpected failure flunks the step even without a clause.
func checkExpect(result *Result, i int, step MoleculeStep, outcome MoleculeOutcome) {
	expect := step.Expect

	if outcome.Error != "" {
		if expect == nil || expect.Error == "" {
			result.AddError(fmt.Sprintf("molecule %d (%q): unexpected failure: %s", i, step.Input, outcome.Error))
		} else if !strings.Contains(outcome.Error, expect.Error) {
			result.AddError(fmt.Sprintf("molecule %d (%q): error %q does not contain %q", i, step.Input, outcome.Error, expect.Error))
		}
		return
	}

	if expect == nil {
		return
	}

	if expect.Error != "" {
		result.AddError(fmt.Sprintf("molecule %d (%q): expected failure containing %q, got output %s", i, step.Input, expect.Error, outcome.Output))
		return
	}

	if expect.Output != "" {
		want, err := canonicalOf(expect.Output)
		if err != nil {
			result.AddError(fmt.Sprintf("molecule %d (%q): expect.output does not parse: %v", i, step.Input, err))
		} else if outcome.Output != want {
			result.AddError(fmt.Sprintf("molecule %d (%q): output %s, want %s", i, step.Input, outcome.Output, want))
		}
	}

	if expect.Converged != nil && outcome.Converged != *expect.Converged {
		result.AddError(fmt.Sprintf("molecule %d (%q): converged %t, want %t", i, step.Input, outcome.Converged, *expect.Converged))
	}

	if expect.Fired != nil && !slices.Equal(outcome.Fired, expect.Fired) {
		result.AddError(fmt.Sprintf("molecule %d (%q): fired %v, want %v", i, step.Input, outcome.Fired, expect.Fired))
	}
}

// canonicalOf parses a notation and returns its canonical form.
func canonicalOf(notation string) (string, error) {
	mol, err := chem.Parse(notation)
	if err != nil {
		return "", err
	}
	return mol.Canonical(), nil
}
