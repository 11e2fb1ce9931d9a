package normalize

import "sync"

// Rule is an immutable named rewrite rule. The pattern text is compiled
// into an executable Transform on first use and cached; construction
// never touches a compiler and never fails.
//
// Two rules with identical pattern text are interchangeable to the
// engine. Names are display and log identifiers, not enforced unique -
// the built-in catalog itself repeats names across related variants.
type Rule struct {
	name    string
	pattern string

	once sync.Once
	tf   Transform
	err  error
}

// NewRule builds a rule from a name and pattern text. Malformed pattern
// text is not detected here; it surfaces as an *InvalidRuleError from
// Transform.
func NewRule(name, pattern string) *Rule {
	return &Rule{name: name, pattern: pattern}
}

// Name returns the display name.
func (r *Rule) Name() string { return r.name }

// Pattern returns the source pattern text.
func (r *Rule) Pattern() string { return r.pattern }

// Transform returns the compiled transform, compiling it on the first
// call. Both the transform and a compile failure are memoized, so a
// rule resolves against the first compiler it sees and every later call
// gets the same answer. Safe for concurrent use.
func (r *Rule) Transform(c Compiler) (Transform, error) {
	r.once.Do(func() {
		tf, err := c.Compile(r.pattern)
		if err != nil {
			r.err = &InvalidRuleError{Rule: r.name, Pattern: r.pattern, Err: err}
			return
		}
		r.tf = tf
	})
	return r.tf, r.err
}
