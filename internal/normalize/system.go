package normalize

// Mol is an opaque molecular graph. The engine reads it, hands it to
// the System, and rebinds to returned values; it never mutates one and
// never looks inside.
type Mol any

// Transform is a compiled rewrite rule.
type Transform interface {
	// Apply returns every candidate rewrite of mol, in a deterministic
	// order, or nil when the rule does not fire. Implementations must
	// not mutate mol: each candidate is an independent value.
	Apply(mol Mol) []Mol
}

// Compiler builds executable transforms from rule pattern text.
type Compiler interface {
	Compile(pattern string) (Transform, error)
}

// System is the external chemistry surface the engine runs against.
type System interface {
	Compiler

	// Validate reports whether mol is structurally acceptable. The
	// engine uses it to filter rewrite candidates and to re-check the
	// final graph when the restart budget runs out.
	Validate(mol Mol) error

	// Canonical returns a deterministic string form of mol: same
	// structure, same string. Used as a dedup and ordering key only,
	// never persisted by the engine.
	Canonical(mol Mol) string
}
