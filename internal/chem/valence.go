package chem

import (
	"errors"
	"fmt"
)

// defaultValences lists the accepted valences per element for a neutral
// atom, lowest first. The set matches the Daylight "normal valence"
// model for the organic subset plus the heavier pnictogens and
// chalcogens that show up in charge-normalization chemistry.
var defaultValences = map[string][]int{
	"B":  {3},
	"C":  {4},
	"N":  {3, 5},
	"O":  {2},
	"F":  {1},
	"Si": {4},
	"P":  {3, 5},
	"S":  {2, 4, 6},
	"Cl": {1},
	"As": {3, 5},
	"Se": {2, 4, 6},
	"Br": {1},
	"Sb": {3, 5},
	"Te": {2, 4, 6},
	"I":  {1},
}

// KnownElement reports whether the parser and validator understand sym.
// Symbols use standard capitalization ("Cl", not "CL" or "cl").
func KnownElement(sym string) bool {
	_, ok := defaultValences[sym]
	return ok
}

// aromaticElements are the elements allowed to carry the aromatic flag.
var aromaticElements = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
}

// allowedValences returns the accepted valences for an element at a
// given formal charge.
//
// Charge shifts the neutral valences. Elements right of carbon move
// with the charge (N+ is tetravalent, O- is monovalent), boron moves
// against it (borohydride B- is tetravalent, borenium B+ divalent), and
// carbon loses capacity in both directions (carbenium and carbanion are
// both trivalent). Shifted values below zero are dropped.
func allowedValences(elem string, charge int) []int {
	base, ok := defaultValences[elem]
	if !ok {
		return nil
	}
	var delta int
	switch elem {
	case "B":
		delta = -charge
	case "C", "Si":
		delta = -abs(charge)
	default:
		delta = charge
	}
	out := make([]int, 0, len(base))
	for _, v := range base {
		if v+delta >= 0 {
			out = append(out, v+delta)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// doubledBondSum returns twice the bond-order sum at atom i, counting
// aromatic bonds as 1.5.
func (m *Molecule) doubledBondSum(i int) int {
	sum := 0
	for _, bi := range m.adj[i] {
		sum += m.bonds[bi].Order.doubled()
	}
	return sum
}

// kekuleDoubledSum is doubledBondSum with aromatic bonds counted as
// single. Validation of aromatic atoms works against this floor plus an
// optional Kekule double, which handles pyrrole-type atoms (lone pair in
// the ring, no double) and pyridine-type atoms (one double) with one
// rule.
func (m *Molecule) kekuleDoubledSum(i int) int {
	sum := 0
	for _, bi := range m.adj[i] {
		if m.bonds[bi].Order == Aromatic {
			sum += 2
		} else {
			sum += m.bonds[bi].Order.doubled()
		}
	}
	return sum
}

// impliedHCount computes the hydrogen fill for an atom written without
// brackets: the lowest accepted neutral valence that covers the bond
// sum, minus the bond sum. Atoms already over every accepted valence
// get zero.
//
// The bond sum is rounded up, so an aromatic atom with two ring bonds
// (2 x 1.5 = 3) fills against 3.
func impliedHCount(elem string, doubledBondSum int) int {
	need := (doubledBondSum + 1) / 2
	for _, v := range defaultValences[elem] {
		if v >= need {
			return v - need
		}
	}
	return 0
}

// ValenceError reports an atom whose total connectivity matches none of
// the accepted valences for its element and charge.
type ValenceError struct {
	AtomIndex int
	Element   string
	Charge    int
	// Valence is the observed bond-order sum plus hydrogens, rounded
	// up when aromatic bonds leave a half.
	Valence int
	Allowed []int
}

func (e *ValenceError) Error() string {
	return fmt.Sprintf("valence %d not allowed for %s (charge %+d) at atom %d, accepted %v",
		e.Valence, e.Element, e.Charge, e.AtomIndex, e.Allowed)
}

// IsValenceError reports whether err is (or wraps) a *ValenceError.
func IsValenceError(err error) bool {
	var ve *ValenceError
	return errors.As(err, &ve)
}

// Validate checks every atom against the charge-adjusted valence model
// and returns the first violation found, scanning atoms in index order.
//
// An aliphatic atom must hit an accepted valence exactly. An aromatic
// atom is checked with its ring bonds counted as single and may sit at
// an accepted valence or one unit below it: pyrrole-type atoms donate a
// lone pair and carry no Kekule double, pyridine-type atoms carry
// exactly one.
func (m *Molecule) Validate() error {
	for i, a := range m.atoms {
		allowed := allowedValences(a.Element, a.Charge)
		if len(allowed) == 0 {
			return &ValenceError{
				AtomIndex: i,
				Element:   a.Element,
				Charge:    a.Charge,
				Valence:   (m.doubledBondSum(i)+1)/2 + a.HCount,
			}
		}
		var doubled int
		if a.Aromatic {
			doubled = m.kekuleDoubledSum(i) + 2*a.HCount
		} else {
			doubled = m.doubledBondSum(i) + 2*a.HCount
		}
		ok := false
		for _, v := range allowed {
			if doubled == 2*v {
				ok = true
				break
			}
			if a.Aromatic && doubled == 2*v-2 {
				ok = true
				break
			}
		}
		if !ok {
			return &ValenceError{
				AtomIndex: i,
				Element:   a.Element,
				Charge:    a.Charge,
				Valence:   (doubled + 1) / 2,
				Allowed:   allowed,
			}
		}
	}
	return nil
}
