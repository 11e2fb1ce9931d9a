package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// SuiteResult summarizes a conformance run over a directory of
// scenario files.
type SuiteResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	TotalMolecules int               `json:"total_molecules"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure records one failed scenario. TraceHash digests the
// canonical trace so a rerun can be matched against a report.
type ScenarioFailure struct {
	Scenario  string   `json:"scenario,omitempty"`
	Path      string   `json:"path"`
	TraceHash string   `json:"trace_hash,omitempty"`
	Errors    []string `json:"errors"`
}

// Summary renders a one-line human-readable outcome.
func (r *SuiteResult) Summary() string {
	return fmt.Sprintf("%d/%d scenarios passed (%d molecules)", r.Passed, r.TotalScenarios, r.TotalMolecules)
}

// RunSuite loads and executes every scenario file in dir, in name
// order. A scenario that fails to load or execute counts as failed;
// the suite itself errors only when dir is unreadable or holds no
// scenario files.
func RunSuite(dir string) (*SuiteResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	suite := &SuiteResult{}
	for _, path := range paths {
		suite.TotalScenarios++

		scenario, err := LoadScenario(path)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Path:   path,
				Errors: []string{err.Error()},
			})
			continue
		}
		suite.TotalMolecules += len(scenario.Molecules)

		result, err := Run(scenario)
		if err != nil {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Scenario: scenario.Name,
				Path:     path,
				Errors:   []string{fmt.Sprintf("scenario execution failed: %v", err)},
			})
			continue
		}

		if result.Pass {
			suite.Passed++
			continue
		}

		failure := ScenarioFailure{
			Scenario: scenario.Name,
			Path:     path,
			Errors:   result.Errors,
		}
		snapshot := TraceSnapshot{ScenarioName: scenario.Name, Trace: result.Trace}
		if hash, err := snapshot.Hash(); err == nil {
			failure.TraceHash = hash
		}
		suite.Failed++
		suite.Failures = append(suite.Failures, failure)
	}

	return suite, nil
}
