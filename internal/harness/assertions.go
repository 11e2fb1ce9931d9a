package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/pmachta/molnorm/internal/journal"
)

// AssertionContext carries what assertions need beyond the trace.
type AssertionContext struct {
	Journal *journal.Journal
	Ctx     context.Context
}

// AssertionError provides detailed information about assertion
// failures, with the full trace so failures can be debugged from the
// test log alone.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Assertion failed: %s\n", e.Type))
	sb.WriteString(fmt.Sprintf("  Expected: %s\n", e.Expected))
	sb.WriteString(fmt.Sprintf("  Actual: %s\n", e.Actual))

	if len(e.Trace) > 0 {
		sb.WriteString("\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case TraceMolecule:
				sb.WriteString(fmt.Sprintf("  [%d] molecule %s\n", event.Seq, event.Input))
			case TraceFiring:
				sb.WriteString(fmt.Sprintf("  [%d] fired %s\n", event.Seq, event.Rule))
			case TraceOutcome:
				sb.WriteString(fmt.Sprintf("  [%d] outcome %s (restarts=%d converged=%t)\n", event.Seq, event.Canonical, event.Restarts, event.Converged))
			case TraceError:
				sb.WriteString(fmt.Sprintf("  [%d] error %s\n", event.Seq, event.Message))
			}
		}
	}

	return sb.String()
}

// assertFiredContains verifies a rule fired at least once, optionally
// within the normalization of one input molecule.
func assertFiredContains(trace []TraceEvent, assertion Assertion) error {
	current := ""
	for _, event := range trace {
		switch event.Type {
		case TraceMolecule:
			current = event.Input
		case TraceFiring:
			if event.Rule != assertion.Rule {
				continue
			}
			if assertion.Input == "" || assertion.Input == current {
				return nil
			}
		}
	}

	expected := fmt.Sprintf("rule %q fired", assertion.Rule)
	if assertion.Input != "" {
		expected += fmt.Sprintf(" for input %q", assertion.Input)
	}
	return &AssertionError{
		Type:     AssertFiredContains,
		Expected: expected,
		Actual:   "no matching firing in trace",
		Trace:    trace,
	}
}

// assertFiredOrder verifies that the rules' first firings appear in
// the given relative order. Other firings may interleave.
func assertFiredOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if event.Type != TraceFiring {
			continue
		}
		if _, seen := positions[event.Rule]; !seen {
			positions[event.Rule] = i
		}
	}

	last := -1
	for _, rule := range assertion.Rules {
		pos, ok := positions[rule]
		if !ok {
			return &AssertionError{
				Type:     AssertFiredOrder,
				Expected: fmt.Sprintf("rules fired in order %v", assertion.Rules),
				Actual:   fmt.Sprintf("rule %q never fired", rule),
				Trace:    trace,
			}
		}
		if pos < last {
			return &AssertionError{
				Type:     AssertFiredOrder,
				Expected: fmt.Sprintf("rules fired in order %v", assertion.Rules),
				Actual:   fmt.Sprintf("rule %q first fired before its predecessor", rule),
				Trace:    trace,
			}
		}
		last = pos
	}

	return nil
}

// assertFiredCount verifies the exact number of firings of a rule
// across the whole scenario. Count zero asserts the rule never fired.
func assertFiredCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == TraceFiring && event.Rule == assertion.Rule {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertFiredCount,
			Expected: fmt.Sprintf("rule %q fired %d time(s)", assertion.Rule, assertion.Count),
			Actual:   fmt.Sprintf("fired %d time(s)", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertJournalState looks up the record keyed by the assertion's
// input molecule and checks the expected fields.
func assertJournalState(actx *AssertionContext, trace []TraceEvent, assertion Assertion) error {
	key, err := canonicalOf(assertion.Input)
	if err != nil {
		return fmt.Errorf("journal_state input %q does not parse: %w", assertion.Input, err)
	}

	rec, found, err := actx.Journal.Lookup(actx.Ctx, key)
	if err != nil {
		return fmt.Errorf("journal lookup failed: %w", err)
	}
	if !found {
		return &AssertionError{
			Type:     AssertJournalState,
			Expected: fmt.Sprintf("journal record for %q", assertion.Input),
			Actual:   "no record",
			Trace:    trace,
		}
	}

	// Sorted for deterministic failure reporting.
	fields := make([]string, 0, len(assertion.Expect))
	for field := range assertion.Expect {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if err := checkJournalField(rec, field, assertion.Expect[field]); err != nil {
			var aerr *AssertionError
			if errors.As(err, &aerr) {
				aerr.Trace = trace
			}
			return err
		}
	}

	return nil
}

// checkJournalField compares one journal record field against its
// expected YAML value. The expected output may be any notation of the
// right structure.
func checkJournalField(rec journal.Record, field string, want interface{}) error {
	fail := func(expected, actual string) error {
		return &AssertionError{
			Type:     AssertJournalState,
			Expected: expected,
			Actual:   actual,
		}
	}

	switch field {
	case "output":
		notation, ok := want.(string)
		if !ok {
			return fmt.Errorf("journal_state expect.output must be a string")
		}
		wantOut, err := canonicalOf(notation)
		if err != nil {
			return fmt.Errorf("journal_state expect.output %q does not parse: %w", notation, err)
		}
		if rec.Output != wantOut {
			return fail(fmt.Sprintf("output %s", wantOut), fmt.Sprintf("output %s", rec.Output))
		}
	case "converged":
		b, ok := want.(bool)
		if !ok {
			return fmt.Errorf("journal_state expect.converged must be a bool")
		}
		if rec.Converged != b {
			return fail(fmt.Sprintf("converged %t", b), fmt.Sprintf("converged %t", rec.Converged))
		}
	case "restarts":
		count, ok := want.(int)
		if !ok {
			return fmt.Errorf("journal_state expect.restarts must be an integer")
		}
		if rec.Restarts != int64(count) {
			return fail(fmt.Sprintf("restarts %d", count), fmt.Sprintf("restarts %d", rec.Restarts))
		}
	case "fired":
		names, err := toStringSlice(want)
		if err != nil {
			return fmt.Errorf("journal_state expect.fired must be a list of strings")
		}
		if !slices.Equal(rec.RulesFired, names) {
			return fail(fmt.Sprintf("fired %v", names), fmt.Sprintf("fired %v", rec.RulesFired))
		}
	default:
		return fmt.Errorf("journal_state does not support field %q", field)
	}

	return nil
}

// toStringSlice converts a decoded YAML list to []string.
func toStringSlice(v interface{}) ([]string, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("not a list")
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("element %v is not a string", item)
		}
		out = append(out, s)
	}
	return out, nil
}

// EvaluateAssertions runs all assertions against a result and returns
// the failure messages. The result itself is left untouched; callers
// decide how failures affect it.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertFiredContains:
			err = assertFiredContains(result.Trace, assertion)
		case AssertFiredOrder:
			err = assertFiredOrder(result.Trace, assertion)
		case AssertFiredCount:
			err = assertFiredCount(result.Trace, assertion)
		case AssertJournalState:
			if actx == nil || actx.Journal == nil {
				err = fmt.Errorf("journal_state requires a journal")
			} else {
				err = assertJournalState(actx, result.Trace, assertion)
			}
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}

	return failures
}
