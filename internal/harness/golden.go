package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/pmachta/molnorm/internal/canon"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// It serializes through canonical JSON so byte-for-byte golden
// comparison is meaningful.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot to the value types the
// canonical JSON encoder accepts. Optional fields are dropped when
// empty so each event carries only what its type means; outcome
// events always carry restarts and converged, zero or not.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"type": event.Type,
			"seq":  event.Seq,
		}
		if event.Input != "" {
			eventMap["input"] = event.Input
		}
		if event.Canonical != "" {
			eventMap["canonical"] = event.Canonical
		}
		if event.Rule != "" {
			eventMap["rule"] = event.Rule
		}
		if event.Type == TraceOutcome {
			eventMap["restarts"] = event.Restarts
			eventMap["converged"] = event.Converged
		}
		if event.Message != "" {
			eventMap["message"] = event.Message
		}
		traceList[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Hash returns the domain-separated digest of the canonical trace,
// suitable for pinning a failure in a suite report.
func (s *TraceSnapshot) Hash() (string, error) {
	return canon.HashRecord(canon.DomainTrace, s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file. The golden file is stored in
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails; trace mismatches fail the
// test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return fmt.Errorf("scenario execution failed: %w", err)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden
// file. This is useful when a scenario has already run and its result
// needs checking without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
	}

	traceJSON, err := canon.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return fmt.Errorf("failed to canonicalize trace: %w", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
