package normalize

import (
	"fmt"
	"log/slog"
	"sort"
)

const (
	// DefaultMaxRestarts is the default restart budget: the maximum
	// number of times the rule sequence is re-scanned from the top
	// after some rule fired.
	DefaultMaxRestarts = 200

	// maxApplyRounds caps re-application of a single rule to its own
	// results inside applyExhaustively. Hitting the cap freezes the
	// frontier; it is not an error.
	maxApplyRounds = 20
)

// Normalizer drives molecular graphs to a rule fixed point.
//
// A Normalizer is cheap, holds no graph state between calls, and is
// safe for concurrent use: rules memoize their compiled transform
// behind a sync.Once, and everything else is read-only after New.
type Normalizer struct {
	sys         System
	rules       []*Rule // in declaration order, earlier rules win
	maxRestarts int
	log         *slog.Logger
}

// NormalizerOption allows configuration of normalizer parameters.
type NormalizerOption func(*Normalizer)

// WithRules replaces the built-in rule catalog.
//
// The slice is copied to prevent external mutation from breaking the
// declaration-order invariant. An empty slice is legal and makes every
// graph trivially converged.
func WithRules(rules []*Rule) NormalizerOption {
	return func(n *Normalizer) {
		n.rules = make([]*Rule, len(rules))
		copy(n.rules, rules)
	}
}

// WithMaxRestarts sets the restart budget.
//
// Default: 200 (DefaultMaxRestarts). Values below 1 are ignored.
// Use WithMaxRestarts(1) in tests that exercise the give-up path.
func WithMaxRestarts(maxRestarts int) NormalizerOption {
	return func(n *Normalizer) {
		if maxRestarts >= 1 {
			n.maxRestarts = maxRestarts
		}
	}
}

// WithLogger routes the normalizer's logging somewhere other than the
// process default. Test harnesses use it to keep firing noise out of
// test output.
func WithLogger(log *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if log != nil {
			n.log = log
		}
	}
}

// New creates a Normalizer running against the given system, with the
// built-in catalog (DefaultRules) unless WithRules overrides it.
func New(sys System, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		sys:         sys,
		rules:       DefaultRules(),
		maxRestarts: DefaultMaxRestarts,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Rules returns the rule sequence in declaration order. The slice is a
// copy; the normalizer's own order cannot be disturbed through it.
func (n *Normalizer) Rules() []*Rule {
	out := make([]*Rule, len(n.rules))
	copy(out, n.rules)
	return out
}

// Result carries the outcome of one normalization run.
type Result struct {
	// Mol is the final graph.
	Mol Mol

	// Converged is false when the restart budget ran out before a full
	// clean pass over the rules.
	Converged bool

	// Restarts is the number of restart units consumed, which equals
	// the number of rule firings.
	Restarts int

	// Fired lists rule names in firing order. A rule appears once per
	// firing; oscillating sequences repeat.
	Fired []string
}

// Normalize rewrites mol to its rule fixed point and returns the final
// graph. It is Run without the provenance.
func (n *Normalizer) Normalize(mol Mol) (Mol, error) {
	res, err := n.Run(mol)
	if err != nil {
		return nil, err
	}
	return res.Mol, nil
}

// Run rewrites mol to its rule fixed point.
//
// Each pass scans the rules in declaration order; the first rule that
// fires is applied to exhaustion and the pass restarts from rule zero.
// A pass that fires nothing means convergence. When the restart budget
// runs out instead, Run logs a warning and returns the best graph
// reached, re-validated first since the last accepted rewrite has not
// been checked beyond candidate filtering.
//
// Errors are either an *InvalidRuleError from a rule compiled on first
// use, or a validation failure on the give-up path. Both leave the
// input untouched: the caller's graph is never mutated.
func (n *Normalizer) Run(mol Mol) (Result, error) {
	var fired []string
	for restart := 0; restart < n.maxRestarts; restart++ {
		changed := false
		for _, rule := range n.rules {
			tf, err := rule.Transform(n.sys)
			if err != nil {
				return Result{}, err
			}
			result, applied := n.applyExhaustively(tf, mol)
			if applied {
				n.log.Info("rule applied", "rule", rule.Name())
				mol = result
				fired = append(fired, rule.Name())
				changed = true
				break
			}
		}
		if !changed {
			n.log.Debug("normalization converged",
				"restarts", restart,
				"fired", len(fired))
			return Result{Mol: mol, Converged: true, Restarts: restart, Fired: fired}, nil
		}
	}

	n.log.Warn("gave up normalization", "restarts", n.maxRestarts)
	if err := n.sys.Validate(mol); err != nil {
		return Result{}, fmt.Errorf("normalize: graph invalid after %d restarts: %w", n.maxRestarts, err)
	}
	return Result{Mol: mol, Converged: false, Restarts: n.maxRestarts, Fired: fired}, nil
}

// applyExhaustively applies one transform to mol until it stops firing,
// following every branch: each round applies the transform to every
// frontier graph, validates the candidates, and collapses structural
// duplicates by canonical string. The round cap freezes whatever
// frontier remains.
//
// Returns (mol, false) when the transform never fired. Otherwise
// returns the frontier graph with the smallest canonical string, which
// makes the choice among ambiguous outcomes deterministic regardless of
// candidate generation order.
func (n *Normalizer) applyExhaustively(tf Transform, mol Mol) (Mol, bool) {
	frontier := []Mol{mol}
	for round := 0; round < maxApplyRounds; round++ {
		candidates := map[string]Mol{}
		for _, g := range frontier {
			for _, cand := range tf.Apply(g) {
				if err := n.sys.Validate(cand); err != nil {
					n.log.Debug("candidate discarded", "error", err)
					continue
				}
				candidates[n.sys.Canonical(cand)] = cand
			}
		}
		if len(candidates) == 0 {
			if round == 0 {
				return mol, false
			}
			break
		}
		frontier = sortByCanonical(candidates)
	}
	// frontier came out of sortByCanonical at least once, so index 0 is
	// the lexicographically smallest survivor.
	return frontier[0], true
}

// sortByCanonical flattens a candidate set into ascending canonical
// order.
func sortByCanonical(candidates map[string]Mol) []Mol {
	keys := make([]string, 0, len(candidates))
	for k := range candidates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Mol, len(keys))
	for i, k := range keys {
		out[i] = candidates[k]
	}
	return out
}
