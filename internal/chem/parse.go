package chem

import (
	"errors"
	"fmt"
	"strings"
)

// ParseError reports a syntactically invalid line notation. Pos is a
// byte offset into Input.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d in %q: %s", e.Pos, e.Input, e.Msg)
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// organicSubset are the elements that may be written without brackets.
// Their hydrogen counts are filled implicitly after parsing, once all
// ring-closure bonds are known.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true,
}

// parser is the single-pass state for Parse.
type parser struct {
	in  string
	pos int
	mol *Molecule

	prev    int       // atom awaiting the next bond, -1 at a chain start
	pending BondOrder // explicit bond symbol seen, 0 if none
	stack   []int     // prev atoms saved at open branches
	rings   map[int]ringOpen
	bare    []bool // atoms written without brackets, filled at the end
}

type ringOpen struct {
	atom  int
	order BondOrder // 0 when the opening had no bond symbol
	pos   int
}

// Parse reads a molecule from a subset of the SMILES line notation:
// organic-subset atoms, bracket atoms with hydrogen counts and charges,
// single/double/triple/aromatic bonds, branches, ring closures (with %nn
// two-digit form), and dot-separated components.
//
// Isotopes, stereo descriptors, wildcard atoms, and explicit hydrogen
// atoms are rejected with a *ParseError. Parse never checks valence;
// call Validate for that.
func Parse(notation string) (*Molecule, error) {
	p := &parser{
		in:    notation,
		mol:   NewMolecule(),
		prev:  -1,
		rings: map[int]ringOpen{},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.mol, nil
}

func (p *parser) errf(pos int, format string, args ...any) error {
	return &ParseError{Input: p.in, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) run() error {
	if strings.TrimSpace(p.in) == "" {
		return p.errf(0, "empty input")
	}
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		switch {
		case c == '(':
			if p.prev < 0 {
				return p.errf(p.pos, "branch before any atom")
			}
			if p.pending != 0 {
				return p.errf(p.pos, "bond symbol before branch open")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return p.errf(p.pos, "unmatched ')'")
			}
			if p.pending != 0 {
				return p.errf(p.pos, "dangling bond symbol before ')'")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case c == '-' || c == '=' || c == '#' || c == ':':
			if p.pending != 0 {
				return p.errf(p.pos, "two bond symbols in a row")
			}
			p.pending = bondFromSymbol(c)
			p.pos++
		case c == '.':
			if len(p.stack) > 0 {
				return p.errf(p.pos, "'.' inside a branch")
			}
			if p.pending != 0 {
				return p.errf(p.pos, "bond symbol before '.'")
			}
			p.prev = -1
			p.pos++
		case c >= '1' && c <= '9':
			if err := p.ringBond(int(c-'0'), p.pos); err != nil {
				return err
			}
			p.pos++
		case c == '%':
			start := p.pos
			if p.pos+2 >= len(p.in) || !isDigit(p.in[p.pos+1]) || !isDigit(p.in[p.pos+2]) {
				return p.errf(start, "'%%' needs two digits")
			}
			n := int(p.in[p.pos+1]-'0')*10 + int(p.in[p.pos+2]-'0')
			if err := p.ringBond(n, start); err != nil {
				return err
			}
			p.pos += 3
		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		case c == '*':
			return p.errf(p.pos, "wildcard atoms are not valid in molecules")
		case isDigit(c):
			// c is '0' here; 1-9 are ring bonds above.
			return p.errf(p.pos, "ring bond numbers start at 1")
		default:
			if err := p.bareAtom(); err != nil {
				return err
			}
		}
	}
	if len(p.stack) > 0 {
		return p.errf(len(p.in), "unclosed branch")
	}
	if p.pending != 0 {
		return p.errf(len(p.in), "dangling bond symbol")
	}
	if len(p.rings) > 0 {
		min := -1
		for n := range p.rings {
			if min < 0 || n < min {
				min = n
			}
		}
		return p.errf(p.rings[min].pos, "unclosed ring bond %d", min)
	}
	p.fillHydrogens()
	return nil
}

// attach adds the atom to the graph, bonds it to the previous atom if
// there is one, and makes it the new chain head.
func (p *parser) attach(a Atom, wasBare bool, pos int) error {
	idx := p.mol.AddAtom(a)
	p.bare = append(p.bare, wasBare)
	if p.prev >= 0 {
		order := p.pending
		if order == 0 {
			order = defaultOrder(p.mol.Atom(p.prev), a)
		}
		if _, err := p.mol.AddBond(p.prev, idx, order); err != nil {
			return p.errf(pos, "%v", err)
		}
	}
	p.pending = 0
	p.prev = idx
	return nil
}

// bareAtom parses an unbracketed atom token at the current position.
func (p *parser) bareAtom() error {
	start := p.pos
	c := p.in[p.pos]
	switch {
	case c == 'C' && p.pos+1 < len(p.in) && p.in[p.pos+1] == 'l':
		p.pos += 2
		return p.attach(Atom{Element: "Cl"}, true, start)
	case c == 'B' && p.pos+1 < len(p.in) && p.in[p.pos+1] == 'r':
		p.pos += 2
		return p.attach(Atom{Element: "Br"}, true, start)
	case c == 'B' || c == 'C' || c == 'N' || c == 'O' || c == 'P' || c == 'S' || c == 'F' || c == 'I':
		p.pos++
		return p.attach(Atom{Element: string(c)}, true, start)
	case c == 'b' || c == 'c' || c == 'n' || c == 'o' || c == 'p' || c == 's':
		p.pos++
		return p.attach(Atom{Element: strings.ToUpper(string(c)), Aromatic: true}, true, start)
	default:
		return p.errf(start, "unexpected character %q", c)
	}
}

// bracketAtom parses "[...]" starting at '['.
func (p *parser) bracketAtom() error {
	start := p.pos
	p.pos++ // consume '['
	if p.pos >= len(p.in) {
		return p.errf(start, "unterminated bracket atom")
	}
	if isDigit(p.in[p.pos]) {
		return p.errf(p.pos, "isotope labels are not supported")
	}

	var a Atom
	switch c := p.in[p.pos]; {
	case c >= 'A' && c <= 'Z':
		sym := string(c)
		if p.pos+1 < len(p.in) && p.in[p.pos+1] >= 'a' && p.in[p.pos+1] <= 'z' &&
			KnownElement(sym+string(p.in[p.pos+1])) {
			sym += string(p.in[p.pos+1])
			p.pos++
		}
		if sym == "H" {
			return p.errf(start, "explicit hydrogen atoms are not supported, use an H count")
		}
		if !KnownElement(sym) {
			return p.errf(start, "unknown element %q", sym)
		}
		a = Atom{Element: sym}
		p.pos++
	case c == 'b' || c == 'c' || c == 'n' || c == 'o' || c == 'p' || c == 's':
		a = Atom{Element: strings.ToUpper(string(c)), Aromatic: true}
		p.pos++
	case c == '*':
		return p.errf(p.pos, "wildcard atoms are not valid in molecules")
	case c == '@':
		return p.errf(p.pos, "stereo descriptors are not supported")
	default:
		return p.errf(p.pos, "unexpected character %q in bracket atom", c)
	}

	if p.pos < len(p.in) && p.in[p.pos] == '@' {
		return p.errf(p.pos, "stereo descriptors are not supported")
	}

	if p.pos < len(p.in) && p.in[p.pos] == 'H' {
		p.pos++
		a.HCount = 1
		if n, w := readDigits(p.in[p.pos:]); w > 0 {
			a.HCount = n
			p.pos += w
		}
	}

	if p.pos < len(p.in) && (p.in[p.pos] == '+' || p.in[p.pos] == '-') {
		sign := 1
		if p.in[p.pos] == '-' {
			sign = -1
		}
		mark := p.in[p.pos]
		p.pos++
		if n, w := readDigits(p.in[p.pos:]); w > 0 {
			a.Charge = sign * n
			p.pos += w
		} else {
			a.Charge = sign
			for p.pos < len(p.in) && p.in[p.pos] == mark {
				a.Charge += sign
				p.pos++
			}
		}
	}

	if p.pos >= len(p.in) || p.in[p.pos] != ']' {
		if p.pos < len(p.in) {
			return p.errf(p.pos, "unexpected character %q in bracket atom", p.in[p.pos])
		}
		return p.errf(start, "unterminated bracket atom")
	}
	p.pos++
	return p.attach(a, false, start)
}

// ringBond opens or closes ring-closure number n on the current atom.
func (p *parser) ringBond(n, pos int) error {
	if p.prev < 0 {
		return p.errf(pos, "ring bond before any atom")
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = ringOpen{atom: p.prev, order: p.pending, pos: pos}
		p.pending = 0
		return nil
	}
	delete(p.rings, n)
	order := open.order
	switch {
	case order == 0:
		order = p.pending
	case p.pending != 0 && p.pending != order:
		return p.errf(pos, "ring bond %d has conflicting bond symbols", n)
	}
	if order == 0 {
		order = defaultOrder(p.mol.Atom(open.atom), p.mol.Atom(p.prev))
	}
	p.pending = 0
	if open.atom == p.prev {
		return p.errf(pos, "ring bond %d closes on its own atom", n)
	}
	if _, err := p.mol.AddBond(open.atom, p.prev, order); err != nil {
		return p.errf(pos, "%v", err)
	}
	return nil
}

// fillHydrogens applies the implicit-valence fill to every atom that was
// written without brackets. Runs after parsing so ring-closure bonds are
// counted.
func (p *parser) fillHydrogens() {
	for i, bare := range p.bare {
		if !bare {
			continue
		}
		p.mol.atoms[i].HCount = impliedHCount(p.mol.atoms[i].Element, p.mol.doubledBondSum(i))
	}
}

// defaultOrder is the order of a bond written without a symbol: aromatic
// between two aromatic atoms, single otherwise.
func defaultOrder(a, b Atom) BondOrder {
	if a.Aromatic && b.Aromatic {
		return Aromatic
	}
	return Single
}

func bondFromSymbol(c byte) BondOrder {
	switch c {
	case '-':
		return Single
	case '=':
		return Double
	case '#':
		return Triple
	default:
		return Aromatic
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// readDigits reads a leading run of decimal digits, returning the value
// and the number of bytes consumed.
func readDigits(s string) (int, int) {
	n, w := 0, 0
	for w < len(s) && isDigit(s[w]) {
		n = n*10 + int(s[w]-'0')
		w++
	}
	return n, w
}
