package normalize

import (
	"errors"
	"fmt"
)

// InvalidRuleError reports a rule whose pattern text failed to compile.
//
// The error surfaces on first use of the rule, not at construction, and
// it is fatal for the normalize call that triggered the compile: a
// broken rule in the sequence is a configuration bug, not a condition
// to route around.
type InvalidRuleError struct {
	// Rule is the display name of the offending rule.
	Rule string

	// Pattern is the source pattern text that failed.
	Pattern string

	// Err is the underlying compile error.
	Err error
}

// Error implements the error interface.
func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %q: cannot compile %q: %v", e.Rule, e.Pattern, e.Err)
}

// Unwrap returns the underlying compile error.
func (e *InvalidRuleError) Unwrap() error {
	return e.Err
}

// IsInvalidRuleError returns true if the error is a rule compilation
// failure. Uses errors.As to handle wrapped errors.
func IsInvalidRuleError(err error) bool {
	var ire *InvalidRuleError
	return errors.As(err, &ire)
}
