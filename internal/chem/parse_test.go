package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Parse Structure Tests
// =============================================================================

func TestParse_LinearChain(t *testing.T) {
	m, err := Parse("CCO")
	require.NoError(t, err)

	require.Equal(t, 3, m.NumAtoms())
	require.Equal(t, 2, m.NumBonds())
	assert.Equal(t, "C", m.Atom(0).Element)
	assert.Equal(t, "C", m.Atom(1).Element)
	assert.Equal(t, "O", m.Atom(2).Element)

	bi, ok := m.BondBetween(0, 1)
	require.True(t, ok)
	assert.Equal(t, Single, m.Bond(bi).Order)
}

func TestParse_ImplicitHydrogens(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		counts []int
	}{
		{"methane", "C", []int{4}},
		{"ammonia", "N", []int{3}},
		{"water", "O", []int{2}},
		{"ethanol", "CCO", []int{3, 2, 1}},
		{"carbon dioxide", "O=C=O", []int{0, 0, 0}},
		{"hydrogen cyanide", "C#N", []int{1, 0}},
		{"benzene", "c1ccccc1", []int{1, 1, 1, 1, 1, 1}},
		{"pentavalent nitro", "CN(=O)=O", []int{3, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, len(tt.counts), m.NumAtoms())
			for i, want := range tt.counts {
				assert.Equal(t, want, m.Atom(i).HCount, "atom %d", i)
			}
		})
	}
}

func TestParse_Branches(t *testing.T) {
	// Acetic acid: carbonyl in a branch
	m, err := Parse("CC(=O)O")
	require.NoError(t, err)

	require.Equal(t, 4, m.NumAtoms())
	require.Equal(t, 3, m.NumBonds())

	bi, ok := m.BondBetween(1, 2)
	require.True(t, ok)
	assert.Equal(t, Double, m.Bond(bi).Order)

	bi, ok = m.BondBetween(1, 3)
	require.True(t, ok)
	assert.Equal(t, Single, m.Bond(bi).Order)

	// Branch closes back to atom 1, not atom 2
	_, ok = m.BondBetween(2, 3)
	assert.False(t, ok)
}

func TestParse_NestedBranches(t *testing.T) {
	m, err := Parse("CC(C(C)C)C")
	require.NoError(t, err)
	assert.Equal(t, 6, m.NumAtoms())
	assert.Equal(t, 5, m.NumBonds())
	assert.Equal(t, 3, m.Degree(1))
	assert.Equal(t, 3, m.Degree(2))
}

func TestParse_RingClosure(t *testing.T) {
	m, err := Parse("C1CCCCC1")
	require.NoError(t, err)

	assert.Equal(t, 6, m.NumAtoms())
	assert.Equal(t, 6, m.NumBonds())

	bi, ok := m.BondBetween(0, 5)
	require.True(t, ok)
	assert.Equal(t, Single, m.Bond(bi).Order)
}

func TestParse_RingClosureBondSymbol(t *testing.T) {
	// Symbol on the opening side only
	m, err := Parse("C=1CCCCC1")
	require.NoError(t, err)
	bi, ok := m.BondBetween(0, 5)
	require.True(t, ok)
	assert.Equal(t, Double, m.Bond(bi).Order)

	// Symbol on both sides, consistent
	m, err = Parse("C=1CCCCC=1")
	require.NoError(t, err)
	bi, ok = m.BondBetween(0, 5)
	require.True(t, ok)
	assert.Equal(t, Double, m.Bond(bi).Order)
}

func TestParse_PercentRingNumber(t *testing.T) {
	m, err := Parse("C%12CCCCC%12")
	require.NoError(t, err)
	assert.Equal(t, 6, m.NumBonds())
}

func TestParse_FusedRings(t *testing.T) {
	m, err := Parse("c1ccc2ccccc2c1")
	require.NoError(t, err)

	assert.Equal(t, 10, m.NumAtoms())
	assert.Equal(t, 11, m.NumBonds())

	// Fusion carbons carry no hydrogen
	assert.Equal(t, 0, m.Atom(3).HCount)
	assert.Equal(t, 0, m.Atom(8).HCount)
}

func TestParse_AromaticBondDefault(t *testing.T) {
	m, err := Parse("c1ccccc1")
	require.NoError(t, err)

	for i := 0; i < m.NumBonds(); i++ {
		assert.Equal(t, Aromatic, m.Bond(i).Order, "bond %d", i)
	}
	for i := 0; i < m.NumAtoms(); i++ {
		assert.True(t, m.Atom(i).Aromatic, "atom %d", i)
	}
}

func TestParse_SingleBondBetweenAromaticAtoms(t *testing.T) {
	// Biphenyl: the inter-ring bond is single even though both ends are
	// aromatic
	m, err := Parse("c1ccc(-c2ccccc2)cc1")
	require.NoError(t, err)

	bi, ok := m.BondBetween(3, 4)
	require.True(t, ok)
	assert.Equal(t, Single, m.Bond(bi).Order)
}

func TestParse_DotSeparatedComponents(t *testing.T) {
	m, err := Parse("CCO.[Cl-]")
	require.NoError(t, err)

	assert.Equal(t, 4, m.NumAtoms())
	assert.Equal(t, 2, m.NumBonds())
	_, ok := m.BondBetween(2, 3)
	assert.False(t, ok, "dot must not bond components")
}

// =============================================================================
// Bracket Atom Tests
// =============================================================================

func TestParse_BracketAtoms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		element  string
		aromatic bool
		charge   int
		hcount   int
	}{
		{"chloride anion", "[Cl-]", "Cl", false, -1, 0},
		{"ammonium", "[NH4+]", "N", false, 1, 4},
		{"oxide dianion", "[O-2]", "O", false, -2, 0},
		{"double minus", "[O--]", "O", false, -2, 0},
		{"sulfur plus two", "[S+2]", "S", false, 2, 0},
		{"aromatic nH", "[nH]", "N", true, 0, 1},
		{"explicit zero H", "[NH0]", "N", false, 0, 0},
		{"selenium", "[SeH2]", "Se", false, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(tt.input)
			require.NoError(t, err)
			require.Equal(t, 1, m.NumAtoms())
			a := m.Atom(0)
			assert.Equal(t, tt.element, a.Element)
			assert.Equal(t, tt.aromatic, a.Aromatic)
			assert.Equal(t, tt.charge, a.Charge)
			assert.Equal(t, tt.hcount, a.HCount)
		})
	}
}

func TestParse_BracketAtomNoAutoFill(t *testing.T) {
	// Bracket atoms take exactly the written H count
	m, err := Parse("[CH2]")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Atom(0).HCount)

	m, err = Parse("[N]")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Atom(0).HCount)
}

// =============================================================================
// Parse Error Tests
// =============================================================================

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"unclosed branch", "C(CO"},
		{"unmatched close", "CCO)"},
		{"branch before atom", "(CC)"},
		{"unclosed ring", "C1CCC"},
		{"ring self closure", "C11"},
		{"two bond symbols", "C=-C"},
		{"dangling bond", "CC="},
		{"bond before dot", "C=.C"},
		{"conflicting ring bonds", "C=1CCCCC#1"},
		{"unknown element", "[Xx]"},
		{"lone lowercase", "x"},
		{"isotope", "[13CH4]"},
		{"stereo", "[C@H](N)(C)O"},
		{"wildcard", "C*"},
		{"bracket wildcard", "[*]"},
		{"explicit hydrogen atom", "[H]"},
		{"unterminated bracket", "[NH4"},
		{"zero ring number", "C0CC"},
		{"percent needs two digits", "C%1CC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.True(t, IsParseError(err), "want *ParseError, got %T: %v", err, err)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := Parse("CC(=O")
	require.Error(t, err)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "CC(=O", pe.Input)
	assert.Equal(t, 5, pe.Pos)
}
