package pattern

import (
	"sort"

	"github.com/pmachta/molnorm/internal/chem"
)

// matches reports whether molecule atom i satisfies this pattern atom:
// every ';' group must hold, a group holds when any ',' alternative
// does, an alternative holds when all its primitives do.
func (ap *atomPattern) matches(m *chem.Molecule, i int) bool {
	a := m.Atom(i)
	deg := m.Degree(i)
	for _, group := range ap.terms {
		ok := false
		for _, alt := range group {
			if altMatches(alt, a, deg) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func altMatches(alt []prim, a chem.Atom, deg int) bool {
	for _, pr := range alt {
		if pr.matches(a, deg) == pr.negate {
			return false
		}
	}
	return true
}

func (pr prim) matches(a chem.Atom, deg int) bool {
	switch pr.kind {
	case primElement:
		return a.Element == pr.element && a.Aromatic == pr.aromatic
	case primAnyAliphatic:
		return !a.Aromatic
	case primAnyAromatic:
		return a.Aromatic
	case primWildcard:
		return true
	case primCharge:
		return a.Charge == pr.n
	case primHCount:
		return a.HCount == pr.n
	case primDegree:
		return deg == pr.n
	case primConnectivity:
		return deg+a.HCount == pr.n
	default:
		return false
	}
}

// matches reports whether a molecule bond order satisfies this bond
// test. An unwritten query bond accepts single or aromatic.
func (k bondKind) matches(o chem.BondOrder) bool {
	switch k {
	case bondDefault:
		return o == chem.Single || o == chem.Aromatic
	case bondSingle:
		return o == chem.Single
	case bondDouble:
		return o == chem.Double
	case bondTriple:
		return o == chem.Triple
	case bondAromatic:
		return o == chem.Aromatic
	case bondAny:
		return true
	default:
		return false
	}
}

// embeddings returns every injective mapping of the query side onto m,
// as a slice indexed by template atom. Template atoms are placed in
// declaration order; atom zero tries every molecule atom ascending, and
// each later atom tries its anchor's matched neighbors ascending, so
// the embedding order is a pure function of the molecule and pattern.
//
// Symmetric molecules yield automorphic duplicates (two embeddings
// that differ only by swapping equivalent atoms). They are kept: the
// products they generate collapse under canonical-string dedup.
func (t *Transform) embeddings(m *chem.Molecule) [][]int {
	n := len(t.lhs.atoms)
	if n > m.NumAtoms() {
		return nil
	}
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	used := make([]bool, m.NumAtoms())
	var out [][]int

	var extend func(ti int)
	extend = func(ti int) {
		if ti == n {
			emb := make([]int, n)
			copy(emb, assign)
			out = append(out, emb)
			return
		}
		for _, mi := range t.candidates(m, ti, assign) {
			if used[mi] || !t.feasible(m, ti, mi, assign) {
				continue
			}
			assign[ti] = mi
			used[mi] = true
			extend(ti + 1)
			used[mi] = false
			assign[ti] = -1
		}
	}
	extend(0)
	return out
}

// candidates lists the molecule atoms template atom ti may map to, in
// ascending index order. Atom zero ranges over the whole molecule;
// later atoms range over the neighbors of their anchor's image.
func (t *Transform) candidates(m *chem.Molecule, ti int, assign []int) []int {
	if ti == 0 {
		all := make([]int, m.NumAtoms())
		for i := range all {
			all[i] = i
		}
		return all
	}
	anchor := t.lhs.bonds[t.anchorBond[ti]].other(ti)
	nbrs := m.Neighbors(assign[anchor])
	sort.Ints(nbrs)
	return nbrs
}

// feasible checks template atom ti against molecule atom mi: the atom
// test must hold and every template bond from ti into already-placed
// atoms must have a matching molecule bond.
func (t *Transform) feasible(m *chem.Molecule, ti, mi int, assign []int) bool {
	if !t.lhs.atoms[ti].matches(m, mi) {
		return false
	}
	for _, bi := range t.lhs.adj[ti] {
		b := t.lhs.bonds[bi]
		tj := b.other(ti)
		if assign[tj] < 0 {
			continue
		}
		mbi, ok := m.BondBetween(assign[tj], mi)
		if !ok || !b.kind.matches(m.Bond(mbi).Order) {
			return false
		}
	}
	return true
}
