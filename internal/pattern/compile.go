package pattern

import (
	"fmt"
	"strings"

	"github.com/pmachta/molnorm/internal/chem"
)

// Transform is a compiled rewrite pattern. It is immutable after
// Compile and safe for concurrent use.
type Transform struct {
	pattern string
	lhs     *sideGraph

	// atomEdits and bondEdits are indexed like lhs.atoms and lhs.bonds.
	// Every matched bond is set to its target order; atom charge and
	// hydrogen count change only where the product template wrote them.
	atomEdits []atomEdit
	bondEdits []chem.BondOrder

	// anchorBond[i] is a bond from template atom i to a lower-numbered
	// atom, used to seed match candidates. anchorBond[0] is unused:
	// atom zero matches against every molecule atom.
	anchorBond []int
}

// atomEdit is the per-atom rewrite extracted from the product template.
type atomEdit struct {
	setCharge bool
	charge    int
	setH      bool
	h         int
}

// Pattern returns the source pattern text.
func (t *Transform) Pattern() string { return t.pattern }

// Compile parses a "LHS>>RHS" rewrite pattern. The left side becomes
// the subgraph query, the right side is checked against it (same atom
// maps, same bond topology) and reduced to per-atom and per-bond edits.
func Compile(text string) (*Transform, error) {
	idx := strings.Index(text, ">>")
	if idx < 0 {
		return nil, &ParseError{Pattern: text, Pos: 0, Msg: "pattern needs a '>>' separator"}
	}
	if strings.Contains(text[idx+2:], ">>") {
		second := idx + 2 + strings.Index(text[idx+2:], ">>")
		return nil, &ParseError{Pattern: text, Pos: second, Msg: "pattern has more than one '>>'"}
	}

	lhs, err := parseSide(text, text[:idx], 0)
	if err != nil {
		return nil, err
	}
	rhs, err := parseSide(text, text[idx+2:], idx+2)
	if err != nil {
		return nil, err
	}

	t := &Transform{pattern: text, lhs: lhs}
	if err := t.bindSides(rhs); err != nil {
		return nil, err
	}
	t.anchorBond = anchorBonds(lhs)
	return t, nil
}

// bindSides checks the product template against the query side and
// fills atomEdits and bondEdits. Both sides must carry the same atom
// maps with the same bond topology between them: the product edits
// matched atoms, it never creates or deletes them.
func (t *Transform) bindSides(rhs *sideGraph) error {
	lhs := t.lhs
	for mapID, li := range lhs.byMap {
		if _, ok := rhs.byMap[mapID]; !ok {
			return &ParseError{Pattern: t.pattern, Pos: lhs.atoms[li].pos,
				Msg: errMapOnlyOn(mapID, "left")}
		}
	}
	for mapID, ri := range rhs.byMap {
		if _, ok := lhs.byMap[mapID]; !ok {
			return &ParseError{Pattern: t.pattern, Pos: rhs.atoms[ri].pos,
				Msg: errMapOnlyOn(mapID, "right")}
		}
	}

	t.atomEdits = make([]atomEdit, len(lhs.atoms))
	for _, ra := range rhs.atoms {
		edit, err := productEdit(t.pattern, ra)
		if err != nil {
			return err
		}
		t.atomEdits[lhs.byMap[ra.mapID]] = edit
	}

	// Bond topology must agree. Counting both directions catches bonds
	// present on only one side.
	rhsBond := make(map[[2]int]bondPattern, len(rhs.bonds))
	for _, rb := range rhs.bonds {
		rhsBond[mapKey(rhs.atoms[rb.a].mapID, rhs.atoms[rb.b].mapID)] = rb
	}
	t.bondEdits = make([]chem.BondOrder, len(lhs.bonds))
	for bi, lb := range lhs.bonds {
		key := mapKey(lhs.atoms[lb.a].mapID, lhs.atoms[lb.b].mapID)
		rb, ok := rhsBond[key]
		if !ok {
			return &ParseError{Pattern: t.pattern, Pos: lb.pos,
				Msg: errBondOnlyOn(key, "left")}
		}
		order, err := productOrder(t.pattern, rb)
		if err != nil {
			return err
		}
		t.bondEdits[bi] = order
		delete(rhsBond, key)
	}
	for _, rb := range rhs.bonds {
		key := mapKey(rhs.atoms[rb.a].mapID, rhs.atoms[rb.b].mapID)
		if _, left := rhsBond[key]; left {
			return &ParseError{Pattern: t.pattern, Pos: rb.pos,
				Msg: errBondOnlyOn(key, "right")}
		}
	}
	return nil
}

// productEdit reduces a product-template atom to its edit. Element and
// aromaticity primitives are descriptive (the matched atom keeps its
// own); charge and hydrogen primitives are edits; query-only primitives
// and alternatives are rejected.
func productEdit(pattern string, ra atomPattern) (atomEdit, error) {
	var edit atomEdit
	errAt := func(msg string) (atomEdit, error) {
		return atomEdit{}, &ParseError{Pattern: pattern, Pos: ra.pos, Msg: msg}
	}
	for _, group := range ra.terms {
		if len(group) != 1 {
			return errAt("',' alternatives are not allowed in the product")
		}
		for _, pr := range group[0] {
			if pr.negate {
				return errAt("'!' is not allowed in the product")
			}
			switch pr.kind {
			case primElement, primWildcard, primAnyAliphatic, primAnyAromatic:
				// Descriptive only; the matched atom keeps its element
				// and aromaticity.
			case primCharge:
				if edit.setCharge && edit.charge != pr.n {
					return errAt("conflicting charges in product atom")
				}
				edit.setCharge = true
				edit.charge = pr.n
			case primHCount:
				if edit.setH && edit.h != pr.n {
					return errAt("conflicting hydrogen counts in product atom")
				}
				edit.setH = true
				edit.h = pr.n
			case primDegree:
				return errAt("'D' is a query primitive, not allowed in the product")
			case primConnectivity:
				return errAt("'X' is a query primitive, not allowed in the product")
			}
		}
	}
	return edit, nil
}

// productOrder maps a product-template bond to the order it writes.
// An unwritten product bond writes a single bond; '~' never appears in
// a product.
func productOrder(pattern string, rb bondPattern) (chem.BondOrder, error) {
	switch rb.kind {
	case bondDefault, bondSingle:
		return chem.Single, nil
	case bondDouble:
		return chem.Double, nil
	case bondTriple:
		return chem.Triple, nil
	case bondAromatic:
		return chem.Aromatic, nil
	default:
		return 0, &ParseError{Pattern: pattern, Pos: rb.pos,
			Msg: "'~' bonds are not allowed in the product"}
	}
}

// anchorBonds picks, for every template atom after the first, a bond
// to a lower-numbered atom. The side parser links each new atom to an
// earlier one, so an anchor always exists; the matcher seeds each
// atom's candidates from its anchor's matched neighbors.
func anchorBonds(g *sideGraph) []int {
	anchors := make([]int, len(g.atoms))
	for ai := 1; ai < len(g.atoms); ai++ {
		for _, bi := range g.adj[ai] {
			if g.bonds[bi].other(ai) < ai {
				anchors[ai] = bi
				break
			}
		}
	}
	return anchors
}

func mapKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func errMapOnlyOn(mapID int, side string) string {
	return fmt.Sprintf("atom map :%d appears only on the %s side", mapID, side)
}

func errBondOnlyOn(key [2]int, side string) string {
	return fmt.Sprintf("bond between :%d and :%d appears only on the %s side", key[0], key[1], side)
}
