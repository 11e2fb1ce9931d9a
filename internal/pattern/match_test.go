package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmachta/molnorm/internal/chem"
)

func mustCompile(t *testing.T, text string) *Transform {
	t.Helper()
	tf, err := Compile(text)
	require.NoError(t, err, text)
	return tf
}

func mol(t *testing.T, notation string) *chem.Molecule {
	t.Helper()
	m, err := chem.Parse(notation)
	require.NoError(t, err, notation)
	return m
}

// =============================================================================
// Atom Matching Tests
// =============================================================================

func TestTransform_Embeddings_AtomPrimitives(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		molecule string
		want     int
	}{
		{"aliphatic element", "[C:1]>>[C:1]", "CCO", 2},
		{"aliphatic misses aromatic", "[C:1]>>[C:1]", "c1ccccc1", 0},
		{"aromatic element", "[c:1]>>[c:1]", "c1ccccc1", 6},
		{"aromatic misses aliphatic", "[c:1]>>[c:1]", "CCO", 0},
		{"any aliphatic", "[A:1]>>[A:1]", "Cc1ccccc1", 1},
		{"any aromatic", "[a:1]>>[a:1]", "Cc1ccccc1", 6},
		{"wildcard", "[*:1]>>[*:1]", "Cc1ccccc1", 7},
		{"positive charge", "[N;+1:1]>>[N:1]", "C[N+](=O)[O-]", 1},
		{"zero charge", "[O;+0:1]>>[O:1]", "C[N+](=O)[O-]", 1},
		{"hydrogen count", "[CH3:1]>>[C:1]", "CCO", 1},
		{"bare H means one", "[OH:1]>>[O:1]", "CCO", 1},
		{"degree", "[CD2:1]>>[C:1]", "CCC", 1},
		{"connectivity", "[CX4:1]>>[C:1]", "CCC", 3},
		{"negated element", "[!O:1]>>[*:1]", "CCO", 2},
		{"or alternatives", "[C,O:1]>>[*:1]", "CCO", 3},
		{"semicolon groups", "[C;H2:1]>>[C:1]", "CCO", 1},
		{"ampersand", "[C&H3:1]>>[C:1]", "CCO", 1},
		{"two-letter element", "[Se:1]>>[Se:1]", "C[SeH]", 1},
		{"absent element", "[N:1]>>[N:1]", "CCO", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := mustCompile(t, tt.pattern)
			assert.Len(t, tf.embeddings(mol(t, tt.molecule)), tt.want)
		})
	}
}

// =============================================================================
// Bond Matching Tests
// =============================================================================

func TestTransform_Embeddings_BondKinds(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		molecule string
		want     int
	}{
		{"default matches single", "[C:1][C:2]>>[C:1][C:2]", "CC", 2},
		{"default matches aromatic", "[c:1][c:2]>>[c:1][c:2]", "c1ccccc1", 12},
		{"default rejects double", "[C:1][C:2]>>[C:1][C:2]", "C=C", 0},
		{"explicit single", "[C:1]-[C:2]>>[C:1][C:2]", "CC", 2},
		{"single excludes aromatic", "[c:1]-[c:2]>>[c:1]-[c:2]", "c1ccc(-c2ccccc2)cc1", 2},
		{"double", "[C:1]=[C:2]>>[C:1]=[C:2]", "C=C", 2},
		{"double rejects single", "[C:1]=[C:2]>>[C:1]=[C:2]", "CC", 0},
		{"triple", "[C:1]#[N:2]>>[C:1]#[N:2]", "CC#N", 1},
		{"aromatic bond", "[c:1]:[c:2]>>[c:1]:[c:2]", "c1ccccc1", 12},
		{"any bond", "[C:1]~[C:2]>>[C:1][C:2]", "C=C", 2},
		{"ring pattern", "[C:1]1[C:2][C:3]1>>[C:1]1[C:2][C:3]1", "C1CC1", 6},
		{"ring pattern on chain", "[C:1]1[C:2][C:3]1>>[C:1]1[C:2][C:3]1", "CCC", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tf := mustCompile(t, tt.pattern)
			assert.Len(t, tf.embeddings(mol(t, tt.molecule)), tt.want)
		})
	}
}

func TestTransform_Embeddings_DeterministicOrder(t *testing.T) {
	// Template atom zero walks molecule atoms ascending, later atoms
	// walk their anchor's neighbors ascending
	tf := mustCompile(t, "[C:1][C:2]>>[C:1][C:2]")
	embs := tf.embeddings(mol(t, "CCC"))
	assert.Equal(t, [][]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}}, embs)
}

func TestTransform_Embeddings_Injective(t *testing.T) {
	// Two template atoms never share a molecule atom
	tf := mustCompile(t, "[C:1][C:2][C:3]>>[C:1][C:2][C:3]")
	embs := tf.embeddings(mol(t, "CCC"))
	assert.Equal(t, [][]int{{0, 1, 2}, {2, 1, 0}}, embs)
}

func TestTransform_Embeddings_PatternLargerThanMolecule(t *testing.T) {
	tf := mustCompile(t, "[C:1][C:2][C:3]>>[C:1][C:2][C:3]")
	assert.Empty(t, tf.embeddings(mol(t, "CC")))
}

// =============================================================================
// Rewrite Tests
// =============================================================================

func TestTransform_Apply_NoMatchReturnsNil(t *testing.T) {
	tf := mustCompile(t, "[N:1]=[O:2]>>[N:1][O:2]")
	assert.Nil(t, tf.Apply(mol(t, "CCO")))
}

func TestTransform_Apply_InputUntouched(t *testing.T) {
	tf := mustCompile(t, "[NH2:1]>>[NH1+1:1]")
	m := mol(t, "CN")
	before := m.Canonical()

	products := tf.Apply(m)

	require.Len(t, products, 1)
	assert.Equal(t, 1, products[0].Atom(1).HCount)
	assert.Equal(t, 1, products[0].Atom(1).Charge)
	assert.Equal(t, 2, m.Atom(1).HCount)
	assert.Equal(t, 0, m.Atom(1).Charge)
	assert.Equal(t, before, m.Canonical())
}

func TestTransform_Apply_BondEditKeepsHydrogens(t *testing.T) {
	// Hydrogen bookkeeping belongs to the template; a bond edit alone
	// never adjusts H counts
	tf := mustCompile(t, "[C:1]=[O:2]>>[C:1][O:2]")
	products := tf.Apply(mol(t, "C=O"))

	require.Len(t, products, 1)
	p := products[0]
	bi, ok := p.BondBetween(0, 1)
	require.True(t, ok)
	assert.Equal(t, chem.Single, p.Bond(bi).Order)
	assert.Equal(t, 2, p.Atom(0).HCount)
	assert.Equal(t, 0, p.Atom(1).HCount)
}

func TestTransform_Apply_OneProductPerSite(t *testing.T) {
	tf := mustCompile(t, "[OH:1]>>[O-1H0:1]")
	products := tf.Apply(mol(t, "OCCO"))

	require.Len(t, products, 2)
	assert.Equal(t, -1, products[0].Atom(0).Charge)
	assert.Equal(t, 0, products[0].Atom(3).Charge)
	assert.Equal(t, 0, products[1].Atom(0).Charge)
	assert.Equal(t, -1, products[1].Atom(3).Charge)
}

func TestTransform_Apply_AutomorphicProductsCoincide(t *testing.T) {
	// The symmetric nitro group embeds twice; both rewrites build the
	// same structure and collapse later under canonical dedup
	tf := mustCompile(t, "[*:1][N:2](=[O:3])=[O:4]>>[*:1][N+1:2]([O-1:3])=[O:4]")
	products := tf.Apply(mol(t, "CN(=O)=O"))

	require.Len(t, products, 2)
	want := mol(t, "C[N+](=O)[O-]").Canonical()
	for i, p := range products {
		assert.Equal(t, want, p.Canonical(), "product %d", i)
		require.NoError(t, p.Validate(), "product %d", i)
	}
}

func TestTransform_Apply_AromaticityPreserved(t *testing.T) {
	// Rewrites edit charge, hydrogens, and bond orders; element and
	// aromatic flags always survive
	tf := mustCompile(t, "[n:1]=[O:2]>>[n+:1][O-:2]")
	products := tf.Apply(mol(t, "O=n1ccccc1"))

	require.Len(t, products, 1)
	p := products[0]
	assert.True(t, p.Atom(1).Aromatic)
	assert.Equal(t, 1, p.Atom(1).Charge)
	assert.Equal(t, -1, p.Atom(0).Charge)
	bi, ok := p.BondBetween(0, 1)
	require.True(t, ok)
	assert.Equal(t, chem.Single, p.Bond(bi).Order)
	require.NoError(t, p.Validate())
}
