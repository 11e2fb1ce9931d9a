// Package normalize implements the fixed-point rule-application engine.
//
// The engine repeatedly rewrites a molecular graph with an ordered list
// of named rules until a full pass over the list changes nothing. It
// never inspects graphs itself: parsing, rewriting, validation, and
// canonicalization are supplied through the System interface, so the
// engine works over any graph representation (tests run it over plain
// strings).
//
// CONVERGENCE LOOP:
//
// Outer loop (Run): scan rules in declaration order. The first rule
// that fires is applied to exhaustion, then scanning restarts from rule
// zero - an earlier rule may become applicable only after a later one
// has rewritten the graph. Convergence is declared when one complete
// pass fires nothing. Each restart consumes one unit of the restart
// budget (default 200); exhausting it logs a warning, re-validates the
// graph, and returns the best graph reached rather than failing.
//
// Inner loop (applyExhaustively): one rule is re-applied to every
// structurally-distinct result it produces, for at most 20 rounds.
// Each round collects all candidates from the whole frontier, drops
// the ones that fail validation, and collapses duplicates by canonical
// string. When the rule stops firing (or the round cap freezes the
// frontier), the candidate with the lexicographically smallest
// canonical string is the result.
//
// CRITICAL PATTERNS:
//
// Restart from zero: after any rule fires, the entire sequence is
// re-scanned from the first rule before convergence may be declared.
// Continuing from the current position would miss rewrites that enable
// earlier rules.
//
// Deterministic selection: iteration order never leaks into results.
// Candidate sets are keyed and ordered by canonical string, so the same
// input and rule list always produce the same output, bit for bit.
//
// Failure asymmetry: a candidate that fails validation is silently
// dropped. A rule whose pattern does not compile is fatal for the call
// (*InvalidRuleError, surfaced on first use). Restart exhaustion is not
// an error at all.
package normalize
