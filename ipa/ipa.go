// Package ipa implements the Bulletproofs-style inner-product argument:
// a protocol that opens the relation
//
//	P = u^<a,b> * MSM(G, a*factorsG) * MSM(H, b*factorsH)
//
// for a length-n witness (a, b) in O(log n) group elements, by folding
// the statement in half at each round and recording the two
// cross-terms (L, R) the verifier needs to check the fold. The caller
// supplies the running Fiat-Shamir transcript so an IPA proof can be
// embedded inside a larger Sigma-protocol proof (the ring-signature
// compression step) rather than only standing alone.
package ipa

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/takakv/ringsig/group"
	"github.com/takakv/ringsig/transcript"
	"github.com/takakv/ringsig/vecutil"
)

// Params fixes one instance of the IPA relation: the generator vectors
// G, H, the auxiliary generator u the inner product is bound to, and
// the per-coordinate weighting factors applied to a and b before they
// are exponentiated against G and H respectively. A weight-1 FactorG/
// FactorH pair recovers the unweighted Bulletproofs IPA.
type Params struct {
	G       []group.Element
	H       []group.Element
	U       group.Element
	FactorG []*big.Int
	FactorH []*big.Int
}

// Proof is a non-interactive inner-product argument: log2(n) rounds of
// (L, R) commitments, the Fiat-Shamir challenge recorded at each round,
// and the two surviving scalars once the vectors have folded to length 1.
type Proof struct {
	L          []group.Element
	R          []group.Element
	Challenges []*big.Int
	A          *big.Int
	B          *big.Int
}

func validate(grp group.Group, p *Params, a, b []*big.Int) (int, error) {
	n := len(p.G)
	if len(p.H) != n || len(a) != n || len(b) != n || len(p.FactorG) != n || len(p.FactorH) != n {
		return 0, fmt.Errorf("ipa: mismatched vector lengths (n=%d)", n)
	}
	if n == 0 {
		return 0, fmt.Errorf("ipa: empty relation")
	}
	if n&(n-1) != 0 {
		return 0, fmt.Errorf("ipa: vector length %d is not a power of two", n)
	}
	_ = grp
	return n, nil
}

// Prove folds (a, b) against (G, H) under the weighting in params,
// recording one (L, R) pair and one challenge per halving round, until
// a single pair of scalars remains. tr is advanced in place; the
// caller is responsible for having already bound the statement (e.g.
// the target commitment P) into tr before calling Prove.
func Prove(grp group.Group, params *Params, a, b []*big.Int, tr *transcript.Transcript) (*Proof, error) {
	n, err := validate(grp, params, a, b)
	if err != nil {
		return nil, err
	}
	order := grp.N()

	vecG := append([]group.Element(nil), params.G...)
	vecH := append([]group.Element(nil), params.H...)
	vecA := append([]*big.Int(nil), a...)
	vecB := append([]*big.Int(nil), b...)
	facG := params.FactorG
	facH := params.FactorH

	tr.AppendUint64("ipa/n", uint64(n))

	logN := bits.TrailingZeros(uint(n))
	proof := &Proof{
		L:          make([]group.Element, 0, logN),
		R:          make([]group.Element, 0, logN),
		Challenges: make([]*big.Int, 0, logN),
	}

	// The base round applies the per-coordinate factorsG/factorsH
	// weighting; every later round folds an already-weighted vector, so
	// the fold itself is unweighted from here on.
	weighted := true

	m := n
	for m != 1 {
		m /= 2

		aL, aR := vecutil.VecSplit(vecA, m)
		bL, bR := vecutil.VecSplit(vecB, m)
		gL, gR := vecutil.VecSplit(vecG, m)
		hL, hR := vecutil.VecSplit(vecH, m)

		cL := vecutil.InnerProduct(aL, bR, order)
		cR := vecutil.InnerProduct(aR, bL, order)

		var lCoeffA, rCoeffA, lCoeffB, rCoeffB []*big.Int
		if weighted {
			lCoeffA = vecutil.Hadamard(aL, facG[m:2*m], order)
			lCoeffB = vecutil.Hadamard(bR, facH[0:m], order)
			rCoeffA = vecutil.Hadamard(aR, facG[0:m], order)
			rCoeffB = vecutil.Hadamard(bL, facH[m:2*m], order)
		} else {
			lCoeffA, lCoeffB = aL, bR
			rCoeffA, rCoeffB = aR, bL
		}

		L := group.MultiScalarMul(grp, append(append(append([]*big.Int{}, lCoeffA...), lCoeffB...), cL),
			append(append(append([]group.Element{}, gR...), hL...), params.U))
		R := group.MultiScalarMul(grp, append(append(append([]*big.Int{}, rCoeffA...), rCoeffB...), cR),
			append(append(append([]group.Element{}, gL...), hR...), params.U))

		proof.L = append(proof.L, L)
		proof.R = append(proof.R, R)

		if err := tr.AppendPoint("ipa/L", L); err != nil {
			return nil, fmt.Errorf("ipa: appending L: %w", err)
		}
		if err := tr.AppendPoint("ipa/R", R); err != nil {
			return nil, fmt.Errorf("ipa: appending R: %w", err)
		}
		x := tr.Challenge("ipa/x", order)
		xInv := new(big.Int).ModInverse(x, order)
		if xInv == nil {
			return nil, fmt.Errorf("ipa: challenge %s has no inverse mod order", x)
		}
		proof.Challenges = append(proof.Challenges, x)

		vecA = vecutil.VecAdd(vecutil.ScalarMul(aL, x, order), vecutil.ScalarMul(aR, xInv, order), order)
		vecB = vecutil.VecAdd(vecutil.ScalarMul(bL, xInv, order), vecutil.ScalarMul(bR, x, order), order)

		nextG := make([]group.Element, m)
		nextH := make([]group.Element, m)
		for i := 0; i < m; i++ {
			var gScalars, hScalars []*big.Int
			if weighted {
				gScalars = []*big.Int{
					new(big.Int).Mod(new(big.Int).Mul(xInv, facG[i]), order),
					new(big.Int).Mod(new(big.Int).Mul(x, facG[m+i]), order),
				}
				hScalars = []*big.Int{
					new(big.Int).Mod(new(big.Int).Mul(x, facH[i]), order),
					new(big.Int).Mod(new(big.Int).Mul(xInv, facH[m+i]), order),
				}
			} else {
				gScalars = []*big.Int{xInv, x}
				hScalars = []*big.Int{x, xInv}
			}
			nextG[i] = group.MultiScalarMul(grp, gScalars, []group.Element{gL[i], gR[i]})
			nextH[i] = group.MultiScalarMul(grp, hScalars, []group.Element{hL[i], hR[i]})
		}
		vecG, vecH = nextG, nextH
		weighted = false
	}

	proof.A = vecA[0]
	proof.B = vecB[0]
	return proof, nil
}

// Verify checks that proof opens target under params, i.e. that
//
//	target = u^<a,b> * MSM(G, a*factorsG) * MSM(H, b*factorsH)
//
// for the (a, b) hidden in proof, without ever reconstructing them: the
// L/R commitments and recorded challenges let the verifier collapse
// the whole fold into a single multi-scalar multiplication (the "box"
// expansion), avoiding log(n) rounds of point arithmetic.
func Verify(grp group.Group, params *Params, target group.Element, proof *Proof, tr *transcript.Transcript) error {
	n := len(params.G)
	if len(params.H) != n || len(params.FactorG) != n || len(params.FactorH) != n {
		return fmt.Errorf("ipa: mismatched parameter lengths (n=%d)", n)
	}
	if n == 0 || n&(n-1) != 0 {
		return fmt.Errorf("ipa: invalid relation size %d", n)
	}
	logN := len(proof.L)
	if len(proof.R) != logN || len(proof.Challenges) != logN {
		return fmt.Errorf("ipa: malformed proof: L/R/challenge count mismatch")
	}
	if logN >= 32 || n != 1<<uint(logN) {
		return fmt.Errorf("ipa: proof round count %d inconsistent with n=%d", logN, n)
	}

	order := grp.N()
	tr.AppendUint64("ipa/n", uint64(n))

	challengesSq := make([]*big.Int, logN)
	challengesInvSq := make([]*big.Int, logN)
	allInv := big.NewInt(1)
	for i := 0; i < logN; i++ {
		if err := tr.AppendPoint("ipa/L", proof.L[i]); err != nil {
			return fmt.Errorf("ipa: appending L: %w", err)
		}
		if err := tr.AppendPoint("ipa/R", proof.R[i]); err != nil {
			return fmt.Errorf("ipa: appending R: %w", err)
		}
		x := tr.Challenge("ipa/x", order)
		if x.Cmp(proof.Challenges[i]) != 0 {
			return fmt.Errorf("ipa: round %d challenge does not match transcript", i)
		}
		xInv := new(big.Int).ModInverse(x, order)
		if xInv == nil {
			return fmt.Errorf("ipa: round %d challenge has no inverse", i)
		}
		challengesSq[i] = new(big.Int).Mod(new(big.Int).Mul(x, x), order)
		challengesInvSq[i] = new(big.Int).Mod(new(big.Int).Mul(xInv, xInv), order)
		allInv.Mod(new(big.Int).Mul(allInv, xInv), order)
	}

	// vecBox[i] collapses the per-round folding scalars applied to
	// G[i]/H[i] into a single exponent, so the final check needs one
	// multi-scalar multiplication instead of log(n) fold rounds.
	// vecBox[i] = vecBox[i-k] * x_{j*}^2 where k = 2^floor(log2 i) and
	// j* = logN-1-floor(log2 i); bit i's highest set bit picks which
	// round's challenge squared it carries forward from vecBox[i-k].
	vecBox := make([]*big.Int, n)
	vecBox[0] = allInv
	for i := 1; i < n; i++ {
		logI := bits.Len(uint(i)) - 1
		k := 1 << uint(logI)
		xSq := challengesSq[logN-1-logI]
		vecBox[i] = new(big.Int).Mod(new(big.Int).Mul(vecBox[i-k], xSq), order)
	}
	vecBoxRev := make([]*big.Int, n)
	for i, v := range vecBox {
		vecBoxRev[n-1-i] = v
	}

	gExp := vecutil.Hadamard(vecutil.ScalarMul(vecBox, proof.A, order), params.FactorG, order)
	hExp := vecutil.Hadamard(vecutil.ScalarMul(vecBoxRev, proof.B, order), params.FactorH, order)

	negChallengesSq := make([]*big.Int, logN)
	negChallengesInvSq := make([]*big.Int, logN)
	for i := 0; i < logN; i++ {
		negChallengesSq[i] = new(big.Int).Mod(new(big.Int).Neg(challengesSq[i]), order)
		negChallengesInvSq[i] = new(big.Int).Mod(new(big.Int).Neg(challengesInvSq[i]), order)
	}

	ab := new(big.Int).Mod(new(big.Int).Mul(proof.A, proof.B), order)

	scalars := make([]*big.Int, 0, 1+2*n+2*logN)
	points := make([]group.Element, 0, 1+2*n+2*logN)

	scalars = append(scalars, ab)
	points = append(points, params.U)
	scalars = append(scalars, gExp...)
	points = append(points, params.G...)
	scalars = append(scalars, hExp...)
	points = append(points, params.H...)
	scalars = append(scalars, negChallengesSq...)
	points = append(points, proof.L...)
	scalars = append(scalars, negChallengesInvSq...)
	points = append(points, proof.R...)

	// This MSM is the size-(2n+2log(n)+1) box-expansion check, the single
	// most expensive operation in Verify; spread it across
	// GOMAXPROCS workers rather than folding it sequentially.
	expected := group.MultiScalarMulParallel(grp, scalars, points)
	if !expected.IsEqual(target) {
		return fmt.Errorf("ipa: proof does not open target commitment")
	}
	return nil
}
