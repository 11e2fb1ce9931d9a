package harness

// Trace event types.
const (
	// TraceMolecule marks a molecule entering the run.
	TraceMolecule = "molecule"

	// TraceFiring marks one rule firing during normalization.
	TraceFiring = "firing"

	// TraceOutcome marks the end of one normalization.
	TraceOutcome = "outcome"

	// TraceError marks a molecule the run rejected.
	TraceError = "error"
)

// TraceEvent records one observable step of a scenario run. Which
// fields are meaningful depends on Type: molecule events carry Input
// and Canonical, firing events carry Rule, outcome events carry
// Canonical, Restarts and Converged, and error events carry Message.
type TraceEvent struct {
	Type      string `json:"type"`
	Seq       int    `json:"seq"`
	Input     string `json:"input,omitempty"`
	Canonical string `json:"canonical,omitempty"`
	Rule      string `json:"rule,omitempty"`
	Restarts  int    `json:"restarts,omitempty"`
	Converged bool   `json:"converged,omitempty"`
	Message   string `json:"message,omitempty"`
}

// MoleculeOutcome is the per-molecule summary of one scenario step.
// Canonical is the canonical form of the raw input; Output is the
// canonical fixed point. A rejected molecule has Error set and no
// Output.
type MoleculeOutcome struct {
	Input     string   `json:"input"`
	Canonical string   `json:"canonical,omitempty"`
	Output    string   `json:"output,omitempty"`
	Restarts  int      `json:"restarts"`
	Converged bool     `json:"converged"`
	Fired     []string `json:"fired,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Result carries everything a scenario run produced.
type Result struct {
	Pass     bool              `json:"pass"`
	Trace    []TraceEvent      `json:"trace"`
	Outcomes []MoleculeOutcome `json:"outcomes"`
	Errors   []string          `json:"errors,omitempty"`
}

// NewResult creates a Result that passes until an error is recorded.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failure message and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// AddMoleculeTrace records a molecule entering the run. Canonical is
// empty when the input never parsed.
func (r *Result) AddMoleculeTrace(seq int, input, canonical string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      TraceMolecule,
		Seq:       seq,
		Input:     input,
		Canonical: canonical,
	})
}

// AddFiringTrace records one rule firing.
func (r *Result) AddFiringTrace(seq int, rule string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type: TraceFiring,
		Seq:  seq,
		Rule: rule,
	})
}

// AddOutcomeTrace records the end of one normalization.
func (r *Result) AddOutcomeTrace(seq int, canonical string, restarts int, converged bool) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:      TraceOutcome,
		Seq:       seq,
		Canonical: canonical,
		Restarts:  restarts,
		Converged: converged,
	})
}

// AddErrorTrace records a molecule rejection.
func (r *Result) AddErrorTrace(seq int, message string) {
	r.Trace = append(r.Trace, TraceEvent{
		Type:    TraceError,
		Seq:     seq,
		Message: message,
	})
}
