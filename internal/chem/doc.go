// Package chem provides the molecular graph model for molnorm.
//
// This package is the foundational layer: every other internal package that
// touches molecules imports chem; chem imports nothing internal.
//
// The model is deliberately small:
//   - Molecule: heavy atoms with charge and implicit-hydrogen counts,
//     bonds with single/double/triple/aromatic orders
//   - Parse / Canonical: a pragmatic subset of the SMILES line notation
//     (no isotopes, no stereochemistry, no explicit hydrogen atoms)
//   - Validate: a charge-adjusted valence check
//
// # Determinism
//
// Canonical() is a total, deterministic function of graph structure:
// relabeled copies of the same structure produce byte-identical strings.
// The normalizer relies on this for candidate deduplication and tie-break
// ordering, so any change to the canonical ranking or writer is a
// behavioral change for the whole pipeline.
package chem
