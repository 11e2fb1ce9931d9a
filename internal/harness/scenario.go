package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Assertion type constants.
const (
	// AssertFiredContains verifies a rule fired at least once,
	// optionally scoped to one input molecule.
	AssertFiredContains = "fired_contains"

	// AssertFiredOrder verifies rules first fired in the given
	// relative order.
	AssertFiredOrder = "fired_order"

	// AssertFiredCount verifies a rule fired exactly N times.
	AssertFiredCount = "fired_count"

	// AssertJournalState verifies the journal record written for an
	// input molecule.
	AssertJournalState = "journal_state"
)

// Scenario defines a conformance run: molecules pushed through one
// normalizer configuration, with expectations.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Rules optionally names a CUE rule catalog. Relative paths are
	// resolved against the scenario file's directory, so catalog
	// fixtures can ship next to the scenarios that use them. Empty
	// means the built-in catalog.
	Rules string `yaml:"rules,omitempty"`

	// MaxRestarts optionally overrides the restart budget. Zero means
	// the engine default.
	MaxRestarts int `yaml:"max_restarts,omitempty"`

	Molecules  []MoleculeStep `yaml:"molecules"`
	Assertions []Assertion    `yaml:"assertions,omitempty"`
}

// MoleculeStep is one input molecule and its optional expectations.
type MoleculeStep struct {
	Input  string        `yaml:"input"`
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause states what a molecule step should produce.
//
// Output is compared canonically, so any notation of the right
// structure works. Fired, when present, must match the firing sequence
// exactly; an empty list asserts that nothing fired. Error expects the
// step to be rejected with a message containing the given substring
// and excludes the other fields.
type ExpectClause struct {
	Output    string   `yaml:"output,omitempty"`
	Converged *bool    `yaml:"converged,omitempty"`
	Fired     []string `yaml:"fired,omitempty"`
	Error     string   `yaml:"error,omitempty"`
}

// Assertion is a scenario-level check over the trace or the journal.
type Assertion struct {
	Type string `yaml:"type"`

	// Rule names the rule for fired_contains and fired_count.
	Rule string `yaml:"rule,omitempty"`

	// Rules lists rule names in expected first-firing order for
	// fired_order.
	Rules []string `yaml:"rules,omitempty"`

	// Count is the expected firing total for fired_count. Zero asserts
	// the rule never fired.
	Count int `yaml:"count,omitempty"`

	// Input scopes fired_contains to one molecule and names the
	// molecule whose record journal_state inspects.
	Input string `yaml:"input,omitempty"`

	// Expect holds the fields journal_state checks: output, converged,
	// restarts, fired.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected so typos fail loudly instead of silently skipping
// checks. A relative rules path is resolved against the scenario
// file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Rules != "" && !filepath.IsAbs(scenario.Rules) {
		scenario.Rules = filepath.Join(filepath.Dir(path), scenario.Rules)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.MaxRestarts < 0 {
		return fmt.Errorf("max_restarts must be non-negative")
	}

	if s.Rules != "" {
		if _, err := os.Stat(s.Rules); os.IsNotExist(err) {
			return fmt.Errorf("rule catalog not found: %s", s.Rules)
		}
	}

	if len(s.Molecules) == 0 {
		return fmt.Errorf("molecules list is required and must be non-empty")
	}

	for i, step := range s.Molecules {
		if step.Input == "" {
			return fmt.Errorf("molecules[%d]: input is required", i)
		}
		if e := step.Expect; e != nil && e.Error != "" {
			if e.Output != "" || e.Converged != nil || e.Fired != nil {
				return fmt.Errorf("molecules[%d]: expect.error excludes the other expect fields", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion checks one assertion's required fields per type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFiredContains:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for fired_contains", index)
		}
	case AssertFiredOrder:
		if len(a.Rules) < 2 {
			return fmt.Errorf("assertions[%d]: fired_order needs at least two rules", index)
		}
	case AssertFiredCount:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for fired_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fired_count", index)
		}
	case AssertJournalState:
		if a.Input == "" {
			return fmt.Errorf("assertions[%d]: input is required for journal_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for journal_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type: %s", index, a.Type)
	}

	return nil
}
