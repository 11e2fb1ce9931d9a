package pattern

import (
	"github.com/pmachta/molnorm/internal/chem"
)

// Apply runs the transform against m and returns one product per
// embedding of the query side, or nil when the pattern does not match.
// Each product is an independent deep copy with the template's charge,
// hydrogen, and bond-order edits applied to the matched atoms; m itself
// is never touched.
//
// Products are not deduplicated or validated here. The normalizer
// filters candidates through validation and collapses structural
// duplicates by canonical string.
func (t *Transform) Apply(m *chem.Molecule) []*chem.Molecule {
	embs := t.embeddings(m)
	if len(embs) == 0 {
		return nil
	}
	products := make([]*chem.Molecule, 0, len(embs))
	for _, emb := range embs {
		products = append(products, t.rewrite(m, emb))
	}
	return products
}

// rewrite builds one product for one embedding.
func (t *Transform) rewrite(m *chem.Molecule, emb []int) *chem.Molecule {
	p := m.Clone()
	for ti, e := range t.atomEdits {
		ai := emb[ti]
		if e.setCharge {
			p.SetCharge(ai, e.charge)
		}
		if e.setH {
			p.SetHCount(ai, e.h)
		}
	}
	for bi, b := range t.lhs.bonds {
		// The embedding matched this bond, so it exists in the product.
		mbi, _ := p.BondBetween(emb[b.a], emb[b.b])
		p.SetBondOrder(mbi, t.bondEdits[bi])
	}
	return p
}
