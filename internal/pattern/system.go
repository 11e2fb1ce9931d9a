package pattern

import (
	"fmt"

	"github.com/pmachta/molnorm/internal/chem"
	"github.com/pmachta/molnorm/internal/normalize"
)

// System plugs the chemistry layer into the normalize engine: patterns
// compile through Compile, molecules validate through chem's valence
// model, and canonical strings come from chem's canonical writer.
//
// This is the boundary where the engine's opaque graph value becomes a
// *chem.Molecule. The zero value is ready to use and stateless.
type System struct{}

var _ normalize.System = System{}

// Compile implements normalize.Compiler.
func (System) Compile(patternText string) (normalize.Transform, error) {
	tf, err := Compile(patternText)
	if err != nil {
		return nil, err
	}
	return molTransform{tf}, nil
}

// Validate implements normalize.System.
func (System) Validate(mol normalize.Mol) error {
	return mustMol(mol).Validate()
}

// Canonical implements normalize.System.
func (System) Canonical(mol normalize.Mol) string {
	return mustMol(mol).Canonical()
}

// molTransform adapts a compiled Transform to the engine's opaque
// Transform interface.
type molTransform struct {
	tf *Transform
}

func (w molTransform) Apply(mol normalize.Mol) []normalize.Mol {
	products := w.tf.Apply(mustMol(mol))
	if len(products) == 0 {
		return nil
	}
	out := make([]normalize.Mol, len(products))
	for i, p := range products {
		out[i] = p
	}
	return out
}

// mustMol unwraps the engine's opaque graph value. The engine only ever
// passes back values it was given or values produced by molTransform,
// so any other type is a caller bug, not a runtime condition.
func mustMol(mol normalize.Mol) *chem.Molecule {
	m, ok := mol.(*chem.Molecule)
	if !ok {
		panic(fmt.Sprintf("pattern: molecule value has type %T, want *chem.Molecule", mol))
	}
	return m
}
