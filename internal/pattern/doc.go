// Package pattern compiles rewrite patterns into molecule transforms.
//
// A pattern is a reaction expression "LHS>>RHS" over a SMARTS-flavored
// subset. The left side describes a subgraph to find, the right side
// describes in-place edits to the matched atoms and bonds. Compiled
// patterns implement the normalize.Transform interface, and
// pattern.System plugs the whole chemistry layer (compile, validate,
// canonicalize) into the normalize engine.
//
// SUPPORTED SYNTAX:
//
// Atoms are always bracketed and always carry an atom map:
//
//	[<expr>:<n>]
//
// where <expr> combines primitives with SMARTS precedence:
// "!" negation, juxtaposition or "&" for AND, "," for OR, ";" for
// low-precedence AND. Primitives:
//
//	C N O ...   aliphatic element        c n o ...  aromatic element
//	A           any aliphatic atom       a          any aromatic atom
//	*           any atom
//	+ - +2 --   formal charge            +0 -0      exactly zero charge
//	H Hn        hydrogen count           Dn         heavy-atom degree
//	Xn          total connectivity (heavy degree plus hydrogens)
//
// Bonds: "-" single, "=" double, "#" triple, ":" aromatic, "~" any
// (left side only). An unwritten bond matches single-or-aromatic on the
// left and writes a single bond on the right. Branches and ring-closure
// digits work as in the molecule notation.
//
// RIGHT SIDE RULES:
//
// The right side edits matched atoms, it never creates or deletes them:
// both sides must use the same atom maps, and the bond topology between
// mapped atoms must be identical. A right-side atom keeps its matched
// element and aromaticity (write "*" or repeat the one element the left
// side allows), keeps its charge unless the template writes one (so
// "+0" and "-0" are meaningful), and keeps its hydrogen count unless an
// H primitive is written.
//
// NOT SUPPORTED: recursive environments "$(...)", ring-membership
// primitives R/r, isotopes, stereo, wildcard bonds on the right side,
// and multi-component patterns. Compile rejects all of these with a
// *ParseError rather than guessing.
//
// DETERMINISM:
//
// Apply returns one product per embedding, enumerated by walking
// molecule atoms in ascending index order. The same molecule and
// pattern always yield the same products in the same order; the engine
// layers its canonical-form ordering on top.
package pattern
