// Package harness provides conformance testing for the normalization
// engine.
//
// The harness loads scenario files, pushes their molecules through a
// real normalizer, records every outcome in a throwaway in-memory
// journal, and validates expectations two ways: per-molecule expect
// clauses checked inline, and scenario-level assertions evaluated over
// the full trace and the journal after the run.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	rules: ../catalogs/custom.cue   # optional, resolved relative to this file
//	max_restarts: 3                 # optional restart budget override
//	molecules:
//	  - input: "CN(=O)=O"
//	    expect:
//	      output: "C[N+](=O)[O-]"
//	      converged: true
//	      fired: ["Nitro to N+(O-)=O"]
//	  - input: "C(C"
//	    expect:
//	      error: "unclosed branch"
//	assertions:
//	  - type: fired_contains
//	    rule: "Nitro to N+(O-)=O"
//	  - type: journal_state
//	    input: "CN(=O)=O"
//	    expect: { output: "C[N+](=O)[O-]", restarts: 1 }
//
// Expected outputs are compared canonically, so any notation of the
// right structure works. A missing rules key means the built-in
// catalog.
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - fired_contains: a rule fired at least once, optionally scoped to one input
//   - fired_order: rules first fired in the given relative order
//   - fired_count: a rule fired exactly N times across the scenario
//   - journal_state: the journal record for an input has the expected fields
//
// # Deterministic Testing
//
// Scenario runs are reproducible by construction: the engine is
// deterministic, trace sequence numbers restart at 1 per scenario, and
// each run writes to a fresh in-memory journal. Traces serialize to
// canonical JSON for golden snapshot comparison (see golden.go).
package harness
