// Package pedersen implements a Pedersen vector commitment over an
// abstract prime-order group: C = g*r + MSM(H, m).
package pedersen

import (
	"fmt"
	"math/big"

	"github.com/takakv/ringsig/group"
)

// Params holds the generators of a Pedersen vector commitment scheme
// supporting vectors of length len(H). g and H must have pairwise
// unknown discrete logarithms; Setup derives them via hash-to-curve so
// no party (including whoever ran Setup) ever learns a relation
// between them.
type Params struct {
	G group.Group
	// g is the blinding-factor generator.
	g group.Element
	// H is the ordered sequence of per-coordinate generators.
	H []group.Element
}

// Opening is a Pedersen opening (m, r) for a commitment of size len(m).
type Opening struct {
	M []*big.Int
	R *big.Int
}

// Setup derives g and size further generators, all nothing-up-my-sleeve
// via domain-separated hash-to-curve under label. Distinct labels yield
// independent parameter sets, so a signer can hold multiple Pedersen
// families (as ringsig's Sigma protocol requires) without their
// generators colliding.
func Setup(grp group.Group, size int, label string) (*Params, error) {
	if size < 0 {
		return nil, fmt.Errorf("pedersen: negative size %d", size)
	}
	g, err := grp.Element().MapToGroup(fmt.Sprintf("pedersen/g/%s/%s", grp.Name(), label))
	if err != nil {
		return nil, fmt.Errorf("pedersen: deriving g: %w", err)
	}
	h := make([]group.Element, size)
	for i := 0; i < size; i++ {
		hi, err := grp.Element().MapToGroup(fmt.Sprintf("pedersen/h/%s/%s/%d", grp.Name(), label, i))
		if err != nil {
			return nil, fmt.Errorf("pedersen: deriving H[%d]: %w", i, err)
		}
		h[i] = hi
	}
	return &Params{G: grp, g: g, H: h}, nil
}

// NewParams assembles a Params from already-derived generators,
// without deriving fresh ones. Useful when a caller needs a one-off
// commitment reusing generators another Params already derived (e.g.
// ringsig's single-element commitment to the Sigma protocol's t1, t2
// cross terms, which intentionally reuses two other parameter sets'
// blinding generators instead of deriving its own).
func NewParams(grp group.Group, blind group.Element, h []group.Element) *Params {
	return &Params{G: grp, g: blind, H: h}
}

// Size returns the supported vector length.
func (p *Params) Size() int { return len(p.H) }

// Generators returns the per-coordinate generator sequence.
func (p *Params) Generators() []group.Element { return p.H }

// Blind returns the blinding-factor generator g.
func (p *Params) Blind() group.Element { return p.g }

// Commit returns g*r + MSM(H, m). Fails if len(m) != len(H).
func (p *Params) Commit(m []*big.Int, r *big.Int) (group.Element, error) {
	if len(m) != len(p.H) {
		return nil, fmt.Errorf("pedersen: Commit: len(m)=%d != size=%d", len(m), len(p.H))
	}
	out := p.G.Element().BaseScale(big.NewInt(0))
	out.Scale(p.g, r)
	if len(m) > 0 {
		msm := group.MultiScalarMul(p.G, m, p.H)
		out.Add(out, msm)
	}
	return out, nil
}

// Verify recomputes the commitment from (m, r) and checks it against C.
func (p *Params) Verify(c group.Element, opening *Opening) (bool, error) {
	recomputed, err := p.Commit(opening.M, opening.R)
	if err != nil {
		return false, err
	}
	return recomputed.IsEqual(c), nil
}
