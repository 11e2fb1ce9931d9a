package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules_WellFormed(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 17)
	for i, r := range rules {
		assert.NotEmpty(t, r.Name(), "rule %d", i)
		assert.Contains(t, r.Pattern(), ">>", "rule %d (%s)", i, r.Name())
	}
}

func TestDefaultRules_Order(t *testing.T) {
	// The sequence is the preference order: functional-group rewrites
	// first, then charge recombination, most specific variants first
	var names []string
	for _, r := range DefaultRules() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{
		"Nitro to N+(O-)=O",
		"Sulfone to S(=O)(=O)",
		"Pyridine oxide to n+O-",
		"Azide to N=N+=N-",
		"Diazo/azo to =N+=N-",
		"Sulfoxide to -S+(O-)-",
		"Phosphate to P(O-)=O",
		"Amidinium to C(=NH2+)NH2",
		"Normalize hydrazine-diazonium",
		"Recombine 1,3-separated charges",
		"Recombine 1,3-separated charges",
		"Recombine 1,3-separated charges",
		"Recombine 1,5-separated charges",
		"Recombine 1,5-separated charges",
		"Recombine 1,5-separated charges",
		"Charge normalization",
		"Charge recombination",
	}, names)
}

func TestDefaultRules_FreshInstancesPerCall(t *testing.T) {
	// Compiled transforms memoize against the first compiler a rule
	// sees, so callers get fresh rules rather than shared pinned ones
	a := DefaultRules()
	b := DefaultRules()
	for i := range a {
		assert.NotSame(t, a[i], b[i], "rule %d", i)
		assert.Equal(t, a[i].Pattern(), b[i].Pattern(), "rule %d", i)
	}
}

func TestDefaultRules_SingleSeparator(t *testing.T) {
	// The pattern compiler has its own tests; here just guard against a
	// stray second separator slipping into the catalog text
	for _, r := range DefaultRules() {
		assert.Equal(t, 1, strings.Count(r.Pattern(), ">>"), r.Name())
	}
}
