package chem

import (
	"fmt"
	"sort"
)

// BondOrder is the order of a bond between two heavy atoms.
type BondOrder uint8

const (
	Single BondOrder = iota + 1
	Double
	Triple
	// Aromatic marks a bond inside an aromatic system. For valence
	// purposes it counts as 1.5 (see valence.go, which works in doubled
	// units to stay in integer arithmetic).
	Aromatic
)

// String returns the SMILES symbol for the order.
func (o BondOrder) String() string {
	switch o {
	case Single:
		return "-"
	case Double:
		return "="
	case Triple:
		return "#"
	case Aromatic:
		return ":"
	default:
		return fmt.Sprintf("BondOrder(%d)", uint8(o))
	}
}

// doubled returns twice the bond order contribution, so that aromatic
// bonds (1.5) stay integral.
func (o BondOrder) doubled() int {
	switch o {
	case Single:
		return 2
	case Double:
		return 4
	case Triple:
		return 6
	case Aromatic:
		return 3
	default:
		return 0
	}
}

// Atom is one heavy atom in a molecular graph. Hydrogens are not graph
// nodes; they live in HCount on the heavy atom that carries them.
type Atom struct {
	// Element is the IUPAC symbol with standard capitalization
	// ("C", "Cl", "N"), independent of aromaticity.
	Element string

	// Aromatic marks the atom as part of an aromatic system.
	Aromatic bool

	// Charge is the formal charge.
	Charge int

	// HCount is the number of attached hydrogens.
	HCount int
}

// Bond connects the atoms at indices A and B.
//
// INVARIANT: A < B at rest. AddBond normalizes the endpoints, so bond
// identity never depends on argument order.
type Bond struct {
	A, B  int
	Order BondOrder
}

// other returns the endpoint that is not i.
func (b Bond) other(i int) int {
	if b.A == i {
		return b.B
	}
	return b.A
}

// Molecule is a mutable molecular graph. Atoms and bonds are addressed
// by dense indices assigned in insertion order.
//
// Molecule is not safe for concurrent mutation. The normalizer never
// shares one: every rewrite works on a Clone.
type Molecule struct {
	atoms []Atom
	bonds []Bond
	// adj[i] holds the indices into bonds of every bond incident to
	// atom i, in insertion order.
	adj [][]int
}

// NewMolecule returns an empty molecule.
func NewMolecule() *Molecule {
	return &Molecule{}
}

// NumAtoms returns the number of heavy atoms.
func (m *Molecule) NumAtoms() int { return len(m.atoms) }

// NumBonds returns the number of bonds.
func (m *Molecule) NumBonds() int { return len(m.bonds) }

// AddAtom appends a and returns its index.
func (m *Molecule) AddAtom(a Atom) int {
	m.atoms = append(m.atoms, a)
	m.adj = append(m.adj, nil)
	return len(m.atoms) - 1
}

// AddBond connects atoms a and b and returns the bond index. It rejects
// out-of-range indices, self-bonds, and duplicate bonds: those are always
// programming errors in a caller, never chemistry.
func (m *Molecule) AddBond(a, b int, order BondOrder) (int, error) {
	if a < 0 || a >= len(m.atoms) || b < 0 || b >= len(m.atoms) {
		return 0, fmt.Errorf("chem: bond endpoints %d-%d out of range (%d atoms)", a, b, len(m.atoms))
	}
	if a == b {
		return 0, fmt.Errorf("chem: self-bond on atom %d", a)
	}
	if a > b {
		a, b = b, a
	}
	if _, ok := m.BondBetween(a, b); ok {
		return 0, fmt.Errorf("chem: duplicate bond %d-%d", a, b)
	}
	m.bonds = append(m.bonds, Bond{A: a, B: b, Order: order})
	idx := len(m.bonds) - 1
	m.adj[a] = append(m.adj[a], idx)
	m.adj[b] = append(m.adj[b], idx)
	return idx, nil
}

// Atom returns a copy of the atom at index i.
func (m *Molecule) Atom(i int) Atom { return m.atoms[i] }

// Bond returns a copy of the bond at index i.
func (m *Molecule) Bond(i int) Bond { return m.bonds[i] }

// BondBetween returns the index of the bond connecting a and b.
func (m *Molecule) BondBetween(a, b int) (int, bool) {
	if a < 0 || a >= len(m.atoms) {
		return 0, false
	}
	for _, bi := range m.adj[a] {
		if m.bonds[bi].other(a) == b {
			return bi, true
		}
	}
	return 0, false
}

// Neighbors returns the atom indices bonded to i, in insertion order.
// The slice is freshly allocated on every call.
func (m *Molecule) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adj[i]))
	for _, bi := range m.adj[i] {
		out = append(out, m.bonds[bi].other(i))
	}
	return out
}

// Bonds returns the bond indices incident to atom i, in insertion order.
// The slice is freshly allocated on every call.
func (m *Molecule) Bonds(i int) []int {
	out := make([]int, len(m.adj[i]))
	copy(out, m.adj[i])
	return out
}

// Degree returns the heavy-atom degree of atom i. Implicit hydrogens do
// not count; add HCount for total connectivity.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

// SetCharge sets the formal charge of atom i.
func (m *Molecule) SetCharge(i, charge int) { m.atoms[i].Charge = charge }

// SetHCount sets the implicit hydrogen count of atom i. Negative counts
// are clamped to zero.
func (m *Molecule) SetHCount(i, h int) {
	if h < 0 {
		h = 0
	}
	m.atoms[i].HCount = h
}

// SetAromatic sets the aromatic flag of atom i.
func (m *Molecule) SetAromatic(i int, aromatic bool) { m.atoms[i].Aromatic = aromatic }

// SetBondOrder sets the order of the bond at index bi.
func (m *Molecule) SetBondOrder(bi int, order BondOrder) { m.bonds[bi].Order = order }

// Clone returns a deep copy. Mutating the copy never affects the
// original; rewrite rules depend on this to produce independent
// candidates from one parent.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		atoms: make([]Atom, len(m.atoms)),
		bonds: make([]Bond, len(m.bonds)),
		adj:   make([][]int, len(m.adj)),
	}
	copy(c.atoms, m.atoms)
	copy(c.bonds, m.bonds)
	for i, bs := range m.adj {
		if len(bs) == 0 {
			continue
		}
		c.adj[i] = make([]int, len(bs))
		copy(c.adj[i], bs)
	}
	return c
}

// components returns the connected components as atom-index slices.
// Components are ordered by their lowest atom index, atoms within a
// component ascending.
func (m *Molecule) components() [][]int {
	seen := make([]bool, len(m.atoms))
	var comps [][]int
	for start := range m.atoms {
		if seen[start] {
			continue
		}
		comp := []int{start}
		seen[start] = true
		for head := 0; head < len(comp); head++ {
			for _, n := range m.Neighbors(comp[head]) {
				if !seen[n] {
					seen[n] = true
					comp = append(comp, n)
				}
			}
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	return comps
}

// subgraph returns the induced subgraph on the given atoms, which must
// form a union of whole components: bonds leaving the set are dropped
// silently, so callers pass component slices only.
func (m *Molecule) subgraph(atoms []int) *Molecule {
	remap := make(map[int]int, len(atoms))
	sub := NewMolecule()
	for _, ai := range atoms {
		remap[ai] = sub.AddAtom(m.atoms[ai])
	}
	for _, b := range m.bonds {
		na, aok := remap[b.A]
		nb, bok := remap[b.B]
		if aok && bok {
			// Indices were valid in m, so this cannot fail.
			_, _ = sub.AddBond(na, nb, b.Order)
		}
	}
	return sub
}
