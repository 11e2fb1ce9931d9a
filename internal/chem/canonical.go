package chem

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical returns a canonical line notation for the molecule: two
// molecules receive the same string exactly when their graphs are
// isomorphic under element, aromaticity, charge, hydrogen count, and
// bond order. Components are canonicalized independently and joined in
// sorted order with '.'.
//
// CRITICAL: the normalizer uses this string for candidate deduplication
// and for picking the winner among ambiguous rewrites. Any change here
// changes which structures the engine considers equal and which
// candidate it prefers.
func (m *Molecule) Canonical() string {
	if m.NumAtoms() == 0 {
		return ""
	}
	comps := m.components()
	if len(comps) == 1 {
		return canonicalComponent(m)
	}
	parts := make([]string, 0, len(comps))
	for _, comp := range comps {
		parts = append(parts, canonicalComponent(m.subgraph(comp)))
	}
	sort.Strings(parts)
	return strings.Join(parts, ".")
}

// canonicalComponent canonicalizes one connected molecule.
//
// The ranking is iterative partition refinement over atom invariants.
// When refinement stalls with tied atoms, every member of the first tied
// cell is individualized in turn and the lexicographically smallest
// resulting string wins. That brute-force tie-break is exponential on
// adversarial regular graphs but cheap on chemistry-sized input, and it
// is what makes the result independent of atom numbering.
func canonicalComponent(m *Molecule) string {
	keys := make([]string, m.NumAtoms())
	for i := range keys {
		a := m.Atom(i)
		arom := 0
		if a.Aromatic {
			arom = 1
		}
		keys[i] = fmt.Sprintf("%02d|%s|%d|%+03d|%02d",
			m.Degree(i), a.Element, arom, a.Charge, a.HCount)
	}
	return canonicalFrom(m, rankOf(keys))
}

func canonicalFrom(m *Molecule, ranks []int) string {
	ranks = refine(m, ranks)
	cell := firstTiedCell(ranks)
	if cell == nil {
		return writeComponent(m, ranks)
	}
	best := ""
	for _, a := range cell {
		s := canonicalFrom(m, individualize(ranks, a))
		if best == "" || s < best {
			best = s
		}
	}
	return best
}

// refine splits rank classes until stable: each round re-keys every atom
// by its own rank plus the sorted (bond order, rank) list of its
// neighbors. Keys are prefixed with the old rank, so a round only ever
// splits classes, never merges them.
func refine(m *Molecule, ranks []int) []int {
	for {
		keys := make([]string, len(ranks))
		for i := range keys {
			var sb strings.Builder
			fmt.Fprintf(&sb, "%04d", ranks[i])
			nbr := make([]string, 0, m.Degree(i))
			for _, bi := range m.Bonds(i) {
				b := m.Bond(bi)
				nbr = append(nbr, fmt.Sprintf("|%d:%04d", b.Order, ranks[b.other(i)]))
			}
			sort.Strings(nbr)
			for _, s := range nbr {
				sb.WriteString(s)
			}
			keys[i] = sb.String()
		}
		next := rankOf(keys)
		if classCount(next) == classCount(ranks) {
			return next
		}
		ranks = next
	}
}

// rankOf maps each key to its dense index in the sorted unique key list.
func rankOf(keys []string) []int {
	uniq := make([]string, len(keys))
	copy(uniq, keys)
	sort.Strings(uniq)
	pos := make(map[string]int, len(uniq))
	for _, k := range uniq {
		if _, ok := pos[k]; !ok {
			pos[k] = len(pos)
		}
	}
	ranks := make([]int, len(keys))
	for i, k := range keys {
		ranks[i] = pos[k]
	}
	return ranks
}

func classCount(ranks []int) int {
	seen := map[int]bool{}
	for _, r := range ranks {
		seen[r] = true
	}
	return len(seen)
}

// firstTiedCell returns the atoms sharing the smallest duplicated rank,
// or nil when every rank is unique.
func firstTiedCell(ranks []int) []int {
	counts := map[int]int{}
	for _, r := range ranks {
		counts[r]++
	}
	best := -1
	for r, c := range counts {
		if c > 1 && (best < 0 || r < best) {
			best = r
		}
	}
	if best < 0 {
		return nil
	}
	var cell []int
	for i, r := range ranks {
		if r == best {
			cell = append(cell, i)
		}
	}
	return cell
}

// individualize returns a copy of ranks where atom a sorts strictly
// before its former cell mates while every other ordering is preserved.
func individualize(ranks []int, a int) []int {
	next := make([]int, len(ranks))
	for i, r := range ranks {
		next[i] = 2*r + 1
	}
	next[a] = 2 * ranks[a]
	return next
}

// ringRef is one ring-closure digit at an atom in the writer.
type ringRef struct {
	digit int
	bond  int
	open  bool
}

// writer emits the line notation for a connected molecule under a
// discrete rank permutation. Emission is a DFS from the rank-0 atom,
// neighbors in rank order; non-tree bonds become ring closures with the
// lowest free digit.
type writer struct {
	m        *Molecule
	ranks    []int
	visited  []bool
	usedBond []bool
	children [][]int // tree children per atom, in rank order
	childVia [][]int // bond index to each child
	backFrom [][]int // back-edge bonds discovered at this atom
	rings    [][]ringRef
	preorder []int
	sb       strings.Builder
}

func writeComponent(m *Molecule, ranks []int) string {
	w := &writer{
		m:        m,
		ranks:    ranks,
		visited:  make([]bool, m.NumAtoms()),
		usedBond: make([]bool, m.NumBonds()),
		children: make([][]int, m.NumAtoms()),
		childVia: make([][]int, m.NumAtoms()),
		backFrom: make([][]int, m.NumAtoms()),
		rings:    make([][]ringRef, m.NumAtoms()),
	}
	start := 0
	for i, r := range ranks {
		if r == 0 {
			start = i
			break
		}
	}
	w.walk(start)
	w.assignDigits()
	w.emit(start, -1)
	return w.sb.String()
}

// walk builds the spanning tree and collects back edges in preorder.
func (w *writer) walk(a int) {
	w.visited[a] = true
	w.preorder = append(w.preorder, a)
	bonds := w.m.Bonds(a)
	sort.Slice(bonds, func(i, j int) bool {
		return w.ranks[w.m.Bond(bonds[i]).other(a)] < w.ranks[w.m.Bond(bonds[j]).other(a)]
	})
	for _, bi := range bonds {
		if w.usedBond[bi] {
			continue
		}
		n := w.m.Bond(bi).other(a)
		if w.visited[n] {
			w.usedBond[bi] = true
			w.backFrom[a] = append(w.backFrom[a], bi)
			continue
		}
		w.usedBond[bi] = true
		w.children[a] = append(w.children[a], n)
		w.childVia[a] = append(w.childVia[a], bi)
		w.walk(n)
	}
}

// assignDigits replays the emission order and hands each back edge the
// lowest digit that is free at its opening atom. A digit frees up the
// moment its closing atom is emitted, so digits get reused.
func (w *writer) assignDigits() {
	pre := make([]int, w.m.NumAtoms())
	for ord, a := range w.preorder {
		pre[a] = ord
	}
	type backEdge struct {
		bond        int
		open, close int
	}
	var edges []backEdge
	for _, bonds := range w.backFrom {
		for _, bi := range bonds {
			b := w.m.Bond(bi)
			openAt, closeAt := b.A, b.B
			if pre[openAt] > pre[closeAt] {
				openAt, closeAt = closeAt, openAt
			}
			edges = append(edges, backEdge{bond: bi, open: openAt, close: closeAt})
		}
	}
	digitFor := make(map[int]int, len(edges))
	inUse := map[int]bool{}
	for _, a := range w.preorder {
		// Closings first: the digit was assigned at the opening atom.
		var closes []backEdge
		var opens []backEdge
		for _, e := range edges {
			if e.close == a {
				closes = append(closes, e)
			}
			if e.open == a {
				opens = append(opens, e)
			}
		}
		sort.Slice(closes, func(i, j int) bool { return pre[closes[i].open] < pre[closes[j].open] })
		sort.Slice(opens, func(i, j int) bool { return pre[opens[i].close] < pre[opens[j].close] })
		for _, e := range closes {
			d := digitFor[e.bond]
			w.rings[a] = append(w.rings[a], ringRef{digit: d, bond: e.bond})
			delete(inUse, d)
		}
		for _, e := range opens {
			d := 1
			for inUse[d] {
				d++
			}
			inUse[d] = true
			digitFor[e.bond] = d
			w.rings[a] = append(w.rings[a], ringRef{digit: d, bond: e.bond, open: true})
		}
	}
}

// emit writes atom a, its ring digits, and its subtrees. via is the bond
// from the parent, -1 at the root.
func (w *writer) emit(a, via int) {
	if via >= 0 {
		w.sb.WriteString(w.bondPrefix(via))
	}
	w.sb.WriteString(w.atomToken(a))
	for _, r := range w.rings[a] {
		w.sb.WriteString(w.bondPrefix(r.bond))
		if r.digit > 9 {
			fmt.Fprintf(&w.sb, "%%%02d", r.digit)
		} else {
			fmt.Fprintf(&w.sb, "%d", r.digit)
		}
	}
	for i, c := range w.children[a] {
		if i < len(w.children[a])-1 {
			w.sb.WriteByte('(')
			w.emit(c, w.childVia[a][i])
			w.sb.WriteByte(')')
		} else {
			w.emit(c, w.childVia[a][i])
		}
	}
}

// bondPrefix returns the bond symbol, or "" where the parser default
// already yields this order.
func (w *writer) bondPrefix(bi int) string {
	b := w.m.Bond(bi)
	bothArom := w.m.Atom(b.A).Aromatic && w.m.Atom(b.B).Aromatic
	switch b.Order {
	case Single:
		if bothArom {
			return "-"
		}
		return ""
	case Aromatic:
		if bothArom {
			return ""
		}
		return ":"
	default:
		return b.Order.String()
	}
}

// atomToken writes atom a bare when the organic-subset shorthand would
// reparse to the identical atom, bracketed otherwise.
func (w *writer) atomToken(a int) string {
	at := w.m.Atom(a)
	bareOK := at.Charge == 0 &&
		organicSubset[at.Element] &&
		(!at.Aromatic || aromaticElements[at.Element]) &&
		at.HCount == impliedHCount(at.Element, w.m.doubledBondSum(a))
	sym := at.Element
	if at.Aromatic {
		sym = strings.ToLower(sym)
	}
	if bareOK {
		return sym
	}
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(sym)
	switch {
	case at.HCount == 1:
		sb.WriteByte('H')
	case at.HCount > 1:
		fmt.Fprintf(&sb, "H%d", at.HCount)
	}
	switch {
	case at.Charge == 1:
		sb.WriteByte('+')
	case at.Charge == -1:
		sb.WriteByte('-')
	case at.Charge > 1:
		fmt.Fprintf(&sb, "+%d", at.Charge)
	case at.Charge < -1:
		fmt.Fprintf(&sb, "-%d", -at.Charge)
	}
	sb.WriteByte(']')
	return sb.String()
}
