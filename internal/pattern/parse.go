package pattern

import (
	"errors"
	"fmt"

	"github.com/pmachta/molnorm/internal/chem"
)

// ParseError reports an invalid pattern. Pos is a byte offset into the
// full pattern text, spanning both sides of the ">>".
type ParseError struct {
	Pattern string
	Pos     int
	Msg     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid pattern at offset %d in %q: %s", e.Pos, e.Pattern, e.Msg)
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// primKind enumerates the atom-test primitives.
type primKind uint8

const (
	primElement primKind = iota
	primAnyAliphatic
	primAnyAromatic
	primWildcard
	primCharge
	primHCount
	primDegree
	primConnectivity
)

// prim is one atomic test inside a bracket expression.
type prim struct {
	kind     primKind
	negate   bool
	element  string // primElement: standard capitalization
	aromatic bool   // primElement: written lowercase
	n        int    // charge / H / degree / connectivity value
}

// atomPattern is one bracketed pattern atom. terms is AND over ';'
// groups; each group is OR over ',' alternatives; each alternative is
// AND over juxtaposed primitives. SMARTS precedence, two levels of AND.
// pos is the byte offset of the '[' in the full pattern text.
type atomPattern struct {
	mapID int
	pos   int
	terms [][][]prim
}

// bondKind enumerates bond tests and edits.
type bondKind uint8

const (
	bondDefault bondKind = iota // no symbol written
	bondSingle
	bondDouble
	bondTriple
	bondAromatic
	bondAny // '~'
)

type bondPattern struct {
	a, b int // template atom indices
	kind bondKind
	pos  int // byte offset in the full pattern text
}

func (b bondPattern) other(i int) int {
	if b.a == i {
		return b.b
	}
	return b.a
}

// sideGraph is one parsed side of a pattern.
type sideGraph struct {
	atoms []atomPattern
	bonds []bondPattern
	byMap map[int]int // atom map number -> template atom index
	adj   [][]int     // bond indices per template atom
}

func (g *sideGraph) addBond(full string, pos, a, b int, kind bondKind) error {
	for _, bi := range g.adj[a] {
		if g.bonds[bi].other(a) == b {
			return &ParseError{Pattern: full, Pos: pos, Msg: fmt.Sprintf(
				"duplicate bond between atoms :%d and :%d", g.atoms[a].mapID, g.atoms[b].mapID)}
		}
	}
	g.bonds = append(g.bonds, bondPattern{a: a, b: b, kind: kind, pos: pos})
	bi := len(g.bonds) - 1
	g.adj[a] = append(g.adj[a], bi)
	g.adj[b] = append(g.adj[b], bi)
	return nil
}

// sideParser walks one side of the pattern text. base is the side's
// offset inside the full pattern so errors point into the original.
type sideParser struct {
	full string
	in   string
	base int
	pos  int
	g    *sideGraph

	prev    int
	pending bondKind
	stack   []int
	rings   map[int]patRingOpen
}

type patRingOpen struct {
	atom int
	kind bondKind
	pos  int
}

func (p *sideParser) errf(pos int, format string, args ...any) error {
	return &ParseError{Pattern: p.full, Pos: p.base + pos, Msg: fmt.Sprintf(format, args...)}
}

// parseSide parses one side of a pattern into its template graph.
func parseSide(full, side string, base int) (*sideGraph, error) {
	p := &sideParser{
		full:  full,
		in:    side,
		base:  base,
		g:     &sideGraph{byMap: map[int]int{}},
		prev:  -1,
		rings: map[int]patRingOpen{},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.g, nil
}

func (p *sideParser) run() error {
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		switch {
		case c == '[':
			if err := p.bracketAtom(); err != nil {
				return err
			}
		case c == '(':
			if p.prev < 0 {
				return p.errf(p.pos, "branch before any atom")
			}
			if p.pending != bondDefault {
				return p.errf(p.pos, "bond symbol before branch open")
			}
			p.stack = append(p.stack, p.prev)
			p.pos++
		case c == ')':
			if len(p.stack) == 0 {
				return p.errf(p.pos, "unmatched ')'")
			}
			if p.pending != bondDefault {
				return p.errf(p.pos, "dangling bond symbol before ')'")
			}
			p.prev = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			p.pos++
		case c == '-' || c == '=' || c == '#' || c == ':' || c == '~':
			if p.pending != bondDefault {
				return p.errf(p.pos, "two bond symbols in a row")
			}
			p.pending = bondKindOf(c)
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
		case c == '.':
			return p.errf(p.pos, "multi-component patterns are not supported")
		case isLetter(c) || c == '*':
			return p.errf(p.pos, "pattern atoms must be bracketed")
		default:
			return p.errf(p.pos, "unexpected character %q", c)
		}
	}
	if len(p.stack) > 0 {
		return p.errf(len(p.in), "unclosed branch")
	}
	if p.pending != bondDefault {
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
	if len(p.g.atoms) == 0 {
		return p.errf(0, "empty pattern side")
	}
	return nil
}

// bracketAtom parses "[<expr>:<map>]" starting at '['.
func (p *sideParser) bracketAtom() error {
	start := p.pos
	p.pos++ // consume '['

	var terms [][][]prim
	var group [][]prim
	var seq []prim
	negate := false
	mapID := -1

	flushSeq := func() error {
		if negate {
			return p.errf(p.pos, "dangling '!'")
		}
		if len(seq) == 0 {
			return p.errf(p.pos, "empty primitive sequence")
		}
		group = append(group, seq)
		seq = nil
		return nil
	}
	flushGroup := func() error {
		if err := flushSeq(); err != nil {
			return err
		}
		terms = append(terms, group)
		group = nil
		return nil
	}

loop:
	for {
		if p.pos >= len(p.in) {
			return p.errf(start, "unterminated bracket atom")
		}
		switch c := p.in[p.pos]; c {
		case ':':
			if err := flushGroup(); err != nil {
				return err
			}
			p.pos++
			n, w := readDigits(p.in[p.pos:])
			if w == 0 {
				return p.errf(p.pos, "atom map needs a number")
			}
			mapID = n
			p.pos += w
			if p.pos >= len(p.in) || p.in[p.pos] != ']' {
				return p.errf(p.pos, "atom map must end the bracket atom")
			}
			p.pos++
			break loop
		case ']':
			return p.errf(start, "pattern atom is missing its atom map")
		case ';':
			if err := flushGroup(); err != nil {
				return err
			}
			p.pos++
		case ',':
			if err := flushSeq(); err != nil {
				return err
			}
			p.pos++
		case '&':
			if len(seq) == 0 || negate {
				return p.errf(p.pos, "'&' needs a primitive on each side")
			}
			p.pos++
		case '!':
			if negate {
				return p.errf(p.pos, "doubled '!'")
			}
			negate = true
			p.pos++
		default:
			pr, err := p.primitive()
			if err != nil {
				return err
			}
			pr.negate = negate
			negate = false
			seq = append(seq, pr)
		}
	}

	idx := len(p.g.atoms)
	p.g.atoms = append(p.g.atoms, atomPattern{mapID: mapID, pos: p.base + start, terms: terms})
	p.g.adj = append(p.g.adj, nil)
	if _, dup := p.g.byMap[mapID]; dup {
		return p.errf(start, "atom map :%d used twice on one side", mapID)
	}
	p.g.byMap[mapID] = idx

	if p.prev >= 0 {
		if err := p.g.addBond(p.full, p.base+start, p.prev, idx, p.pending); err != nil {
			return err
		}
	}
	p.pending = bondDefault
	p.prev = idx
	return nil
}

// primitive parses one atom test at the current position.
func (p *sideParser) primitive() (prim, error) {
	c := p.in[p.pos]
	switch {
	case c == '*':
		p.pos++
		return prim{kind: primWildcard}, nil
	case c == '$':
		return prim{}, p.errf(p.pos, "recursive patterns are not supported")
	case c == 'R' || c == 'r':
		return prim{}, p.errf(p.pos, "ring-membership primitives are not supported")
	case c == '@':
		return prim{}, p.errf(p.pos, "stereo descriptors are not supported")
	case c == '+' || c == '-':
		sign := 1
		if c == '-' {
			sign = -1
		}
		p.pos++
		if n, w := readDigits(p.in[p.pos:]); w > 0 {
			p.pos += w
			return prim{kind: primCharge, n: sign * n}, nil
		}
		n := sign
		for p.pos < len(p.in) && p.in[p.pos] == c {
			n += sign
			p.pos++
		}
		return prim{kind: primCharge, n: n}, nil
	case isDigit(c):
		return prim{}, p.errf(p.pos, "isotope labels are not supported")
	case c >= 'A' && c <= 'Z':
		// Two-letter element symbols take priority: As is arsenic, not
		// any-aliphatic followed by aromatic sulfur.
		if p.pos+1 < len(p.in) && p.in[p.pos+1] >= 'a' && p.in[p.pos+1] <= 'z' &&
			chem.KnownElement(string(c)+string(p.in[p.pos+1])) {
			sym := p.in[p.pos : p.pos+2]
			p.pos += 2
			return prim{kind: primElement, element: sym}, nil
		}
		switch c {
		case 'A':
			p.pos++
			return prim{kind: primAnyAliphatic}, nil
		case 'H':
			p.pos++
			n, w := readDigits(p.in[p.pos:])
			if w == 0 {
				n = 1
			}
			p.pos += w
			return prim{kind: primHCount, n: n}, nil
		case 'D':
			p.pos++
			n, w := readDigits(p.in[p.pos:])
			if w == 0 {
				n = 1
			}
			p.pos += w
			return prim{kind: primDegree, n: n}, nil
		case 'X':
			p.pos++
			n, w := readDigits(p.in[p.pos:])
			if w == 0 {
				n = 1
			}
			p.pos += w
			return prim{kind: primConnectivity, n: n}, nil
		default:
			if !chem.KnownElement(string(c)) {
				return prim{}, p.errf(p.pos, "unknown element %q", string(c))
			}
			p.pos++
			return prim{kind: primElement, element: string(c)}, nil
		}
	case c == 'a':
		p.pos++
		return prim{kind: primAnyAromatic}, nil
	case c == 'b' || c == 'c' || c == 'n' || c == 'o' || c == 'p' || c == 's':
		p.pos++
		return prim{kind: primElement, element: string(c - 'a' + 'A'), aromatic: true}, nil
	default:
		return prim{}, p.errf(p.pos, "unexpected character %q in atom expression", c)
	}
}

// ringBond opens or closes ring-closure number n on the current atom.
func (p *sideParser) ringBond(n, pos int) error {
	if p.prev < 0 {
		return p.errf(pos, "ring bond before any atom")
	}
	open, ok := p.rings[n]
	if !ok {
		p.rings[n] = patRingOpen{atom: p.prev, kind: p.pending, pos: pos}
		p.pending = bondDefault
		return nil
	}
	delete(p.rings, n)
	kind := open.kind
	switch {
	case kind == bondDefault:
		kind = p.pending
	case p.pending != bondDefault && p.pending != kind:
		return p.errf(pos, "ring bond %d has conflicting bond symbols", n)
	}
	p.pending = bondDefault
	if open.atom == p.prev {
		return p.errf(pos, "ring bond %d closes on its own atom", n)
	}
	return p.g.addBond(p.full, p.base+pos, open.atom, p.prev, kind)
}

func bondKindOf(c byte) bondKind {
	switch c {
	case '-':
		return bondSingle
	case '=':
		return bondDouble
	case '#':
		return bondTriple
	case ':':
		return bondAromatic
	default:
		return bondAny
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

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
