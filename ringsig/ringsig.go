// Package ringsig implements a logarithmic-size linkable-style ring
// signature: a Sigma protocol proving knowledge of a secret key behind
// one (unrevealed) member of a public ring, with its opening vectors
// compressed by the Bulletproofs inner-product argument from package
// ipa instead of sent in full. The arithmetization follows the
// uncompressed Sigma protocol exactly (ring membership as a rank-1
// constraint over a weight-1 indicator vector, randomized by two
// challenges and bound to the message by a third), then folds the
// ring's public keys into the Pedersen generators so the two opening
// vectors can be handed to the IPA instead of serialized directly.
package ringsig

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/takakv/ringsig/group"
	"github.com/takakv/ringsig/ipa"
	"github.com/takakv/ringsig/pedersen"
	"github.com/takakv/ringsig/transcript"
	"github.com/takakv/ringsig/vecutil"
)

const transcriptDomain = "ringsig/v1"

// PublicParams fixes one ring-signature instance: the group, the
// supported ring size N, and the three Pedersen generator families the
// Sigma protocol commits against. RingG backs the b0 commitment (and,
// folded with the ring, the IPA's G' generators); RingH backs b1 (and
// is reused unweighted as H'); KeyParams' single generator is the
// fixed "key base" every ring member's public key is a scalar multiple
// of.
type PublicParams struct {
	Group     group.Group
	N         int
	RingG     *pedersen.Params
	RingH     *pedersen.Params
	KeyParams *pedersen.Params
}

// Setup derives a fresh parameter set for rings of size n (must be a
// power of two) over grp. All generators are nothing-up-my-sleeve,
// domain-separated by label so distinct instances never collide.
func Setup(grp group.Group, n int, label string) (*PublicParams, error) {
	var perr paramErrors
	if n <= 0 || n&(n-1) != 0 {
		perr.add("ring size %d is not a positive power of two", n)
	}
	if err := perr.errorOrNil(); err != nil {
		return nil, err
	}

	ringG, err := pedersen.Setup(grp, n, label+"/g")
	if err != nil {
		return nil, newError(InvalidParameters, fmt.Errorf("deriving RingG: %w", err))
	}
	ringH, err := pedersen.Setup(grp, n, label+"/h")
	if err != nil {
		return nil, newError(InvalidParameters, fmt.Errorf("deriving RingH: %w", err))
	}
	keyParams, err := pedersen.Setup(grp, 1, label+"/key")
	if err != nil {
		return nil, newError(InvalidParameters, fmt.Errorf("deriving KeyParams: %w", err))
	}

	return &PublicParams{Group: grp, N: n, RingG: ringG, RingH: ringH, KeyParams: keyParams}, nil
}

// KeyBase returns the fixed generator every ring member's public key
// is sk*KeyBase() for.
func (p *PublicParams) KeyBase() group.Element { return p.KeyParams.Generators()[0] }

// PublicKey returns sk*KeyBase(), the value a ring entry for sk holds.
func (p *PublicParams) PublicKey(sk *big.Int) group.Element {
	return p.Group.Element().Scale(p.KeyBase(), sk)
}

// Signature is a non-interactive proof that the signer knows the
// secret key behind one (unrevealed) entry of the ring it was produced
// against, bound to message. The would-be O(N) openings zeta, eta are
// never serialized; ipa.Proof carries their compressed O(log N) form.
type Signature struct {
	A, B, E, T1, T2 group.Element
	THat            *big.Int
	TauX            *big.Int
	Mu              *big.Int
	Fs              *big.Int
	// Y, Z, X are the three Fiat-Shamir challenges the prover derived
	// from the transcript, and Digest is the message's sha256 digest.
	// Verify recomputes all four independently from (ring, sig,
	// message) and rejects if a stored value disagrees with the
	// recomputation, so neither can be tampered with to smuggle a
	// different statement through an otherwise-valid proof.
	Y, Z, X *big.Int
	Digest  [32]byte
	IPA     *ipa.Proof
}

// Sign proves knowledge of sk for the ring entry at PublicKey(sk)
// against ring, binding the proof to message. rng is the CSPRNG used
// for every blinding scalar and masking vector; pass nil for
// crypto/rand.Reader. logger receives one debug-level event when
// signing completes; the zero value logs nothing.
func Sign(params *PublicParams, sk *big.Int, ring []group.Element, message []byte, rng io.Reader, logger zerolog.Logger) (*Signature, error) {
	start := time.Now()
	if rng == nil {
		rng = rand.Reader
	}
	grp := params.Group
	order := grp.N()
	n := params.N

	var perr paramErrors
	if len(ring) != n {
		perr.add("ring length %d != supported size %d", len(ring), n)
	}
	if err := perr.errorOrNil(); err != nil {
		return nil, err
	}

	pk := params.PublicKey(sk)
	signerIdx := -1
	for i, p := range ring {
		if p.IsEqual(pk) {
			signerIdx = i
			break
		}
	}
	if signerIdx < 0 {
		return nil, newError(InvalidParameters, errNotFound)
	}

	b0 := make([]*big.Int, n)
	b1 := make([]*big.Int, n)
	for i := range b0 {
		if i == signerIdx {
			b0[i] = big.NewInt(1)
		} else {
			b0[i] = big.NewInt(0)
		}
		b1[i] = new(big.Int).Sub(big.NewInt(1), b0[i])
	}

	alpha := randScalar(rng, order)
	beta := randScalar(rng, order)
	r0 := randVector(rng, order, n)
	r1 := randVector(rng, order, n)

	comB0, err := params.RingG.Commit(b0, alpha)
	if err != nil {
		return nil, newError(InvalidParameters, err)
	}
	comB1, err := params.RingH.Commit(b1, big.NewInt(0))
	if err != nil {
		return nil, newError(InvalidParameters, err)
	}
	A := grp.Element().Add(comB0, comB1)

	comR0, err := params.RingG.Commit(r0, beta)
	if err != nil {
		return nil, newError(InvalidParameters, err)
	}
	comR1, err := params.RingH.Commit(r1, big.NewInt(0))
	if err != nil {
		return nil, newError(InvalidParameters, err)
	}
	B := grp.Element().Add(comR0, comR1)

	tr := transcript.New(transcriptDomain)
	if err := appendRing(tr, ring); err != nil {
		return nil, newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("A", A); err != nil {
		return nil, newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("B", B); err != nil {
		return nil, newError(TranscriptError, err)
	}
	y := tr.Challenge("y", order)
	z := tr.Challenge("z", order)

	powersYN := vecutil.Powers(y, n, order)
	z1n := constVector(z, n)
	r0Yn := vecutil.Hadamard(r0, powersYN, order)

	t1 := new(big.Int).Add(
		vecutil.InnerProduct(r0Yn, vecutil.VecAdd(z1n, b1, order), order),
		vecutil.InnerProduct(vecutil.Hadamard(vecutil.VecAdd(b0, z1n, order), powersYN, order), r1, order),
	)
	t1.Mod(t1, order)
	t2 := vecutil.InnerProduct(r0Yn, r1, order)

	rs := randScalar(rng, order)
	tau1 := randScalar(rng, order)
	tau2 := randScalar(rng, order)

	ringMSM := group.MultiScalarMul(grp, r0Yn, ring)
	negRs := new(big.Int).Mod(new(big.Int).Neg(rs), order)
	comNegRs, err := params.KeyParams.Commit([]*big.Int{negRs}, big.NewInt(0))
	if err != nil {
		return nil, newError(InvalidParameters, err)
	}
	E := grp.Element().Add(ringMSM, comNegRs)

	tParams := tCommitmentParams(params)
	T1, err := tParams.Commit([]*big.Int{t1}, tau1)
	if err != nil {
		return nil, newError(InvalidParameters, err)
	}
	T2, err := tParams.Commit([]*big.Int{t2}, tau2)
	if err != nil {
		return nil, newError(InvalidParameters, err)
	}

	if err := tr.AppendPoint("E", E); err != nil {
		return nil, newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("T1", T1); err != nil {
		return nil, newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("T2", T2); err != nil {
		return nil, newError(TranscriptError, err)
	}
	digest := sha256.Sum256(message)
	tr.AppendBytes("message-digest", digest[:])
	x := tr.Challenge("x", order)

	zeta := vecutil.Hadamard(vecutil.VecAdd(b0, vecutil.VecAdd(z1n, vecutil.ScalarMul(r0, x, order), order), order), powersYN, order)
	eta := vecutil.VecAdd(b1, vecutil.VecAdd(z1n, vecutil.ScalarMul(r1, x, order), order), order)
	tHat := vecutil.InnerProduct(zeta, eta, order)

	tauX := new(big.Int).Mod(new(big.Int).Add(new(big.Int).Mul(tau1, x), new(big.Int).Mul(tau2, new(big.Int).Mul(x, x))), order)
	mu := new(big.Int).Mod(new(big.Int).Add(alpha, new(big.Int).Mul(beta, x)), order)
	// Only the signer's coordinate of b is nonzero, so the weighted
	// secret-key sum collapses to a single term.
	fs := new(big.Int).Mod(new(big.Int).Add(new(big.Int).Mul(powersYN[signerIdx], sk), new(big.Int).Mul(rs, x)), order)

	ipaParams := foldedIPAParams(params, ring, y, order)
	ipaProof, err := ipa.Prove(grp, ipaParams, zeta, eta, tr)
	if err != nil {
		return nil, newError(InvalidProof, fmt.Errorf("compressing openings: %w", err))
	}

	logger.Debug().Int("ring_size", n).Dur("elapsed", time.Since(start)).Msg("ringsig: sign complete")

	return &Signature{
		A: A, B: B, E: E, T1: T1, T2: T2,
		THat: tHat, TauX: tauX, Mu: mu, Fs: fs,
		Y: y, Z: z, X: x, Digest: digest,
		IPA: ipaProof,
	}, nil
}

// Verify checks sig against ring and message. Every cryptographic
// rejection surfaces identically as InvalidProof, regardless of which
// internal check failed, so a verifier cannot be used as an oracle for
// narrowing down why a forged signature was rejected.
func Verify(params *PublicParams, ring []group.Element, message []byte, sig *Signature, logger zerolog.Logger) error {
	start := time.Now()
	grp := params.Group
	order := grp.N()
	n := params.N

	var perr paramErrors
	if len(ring) != n {
		perr.add("ring length %d != supported size %d", len(ring), n)
	}
	if err := perr.errorOrNil(); err != nil {
		return err
	}

	tr := transcript.New(transcriptDomain)
	if err := appendRing(tr, ring); err != nil {
		return newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("A", sig.A); err != nil {
		return newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("B", sig.B); err != nil {
		return newError(TranscriptError, err)
	}
	y := tr.Challenge("y", order)
	z := tr.Challenge("z", order)

	if err := tr.AppendPoint("E", sig.E); err != nil {
		return newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("T1", sig.T1); err != nil {
		return newError(TranscriptError, err)
	}
	if err := tr.AppendPoint("T2", sig.T2); err != nil {
		return newError(TranscriptError, err)
	}
	digest := sha256.Sum256(message)
	tr.AppendBytes("message-digest", digest[:])
	x := tr.Challenge("x", order)

	if sig.Y.Cmp(y) != 0 || sig.Z.Cmp(z) != 0 || sig.X.Cmp(x) != 0 || sig.Digest != digest {
		return newError(InvalidProof, fmt.Errorf("stored challenges/digest disagree with transcript recomputation"))
	}

	powersYN := vecutil.Powers(y, n, order)
	ones := constVector(big.NewInt(1), n)
	delta := new(big.Int).Mod(new(big.Int).Mul(new(big.Int).Add(z, new(big.Int).Mul(z, z)), vecutil.InnerProduct(ones, powersYN, order)), order)

	gBlind := params.RingG.Blind()
	hBlind := params.RingH.Blind()

	// R1: the t1/t2 polynomial-evaluation check.
	r1 := grp.Element().Scale(hBlind, delta)
	r1.Add(r1, grp.Element().Scale(sig.T1, x))
	r1.Add(r1, grp.Element().Scale(sig.T2, new(big.Int).Mod(new(big.Int).Mul(x, x), order)))
	r1.Subtract(r1, grp.Element().Scale(gBlind, sig.TauX))

	// R2: the A/B commitment-consistency check. A + x*B carries the
	// RingG blinding term mu, which is subtracted from P* below before
	// the IPA check.
	z1n := constVector(z, n)
	comZ1nG, err := params.RingG.Commit(z1n, big.NewInt(0))
	if err != nil {
		return newError(InvalidParameters, err)
	}
	comZ1nH, err := params.RingH.Commit(z1n, big.NewInt(0))
	if err != nil {
		return newError(InvalidParameters, err)
	}
	r2 := grp.Element().Add(sig.A, grp.Element().Scale(sig.B, x))
	r2.Add(r2, comZ1nG)
	r2.Add(r2, comZ1nH)

	// R3: the ring-membership check.
	zYn := vecutil.ScalarMul(powersYN, z, order)
	comFs, err := params.KeyParams.Commit([]*big.Int{sig.Fs}, big.NewInt(0))
	if err != nil {
		return newError(InvalidParameters, err)
	}
	r3 := grp.Element().Add(comFs, grp.Element().Scale(sig.E, x))
	r3.Add(r3, group.MultiScalarMul(grp, zYn, ring))

	pStar := grp.Element().Add(r1, r2)
	pStar.Add(pStar, r3)

	target := grp.Element().Subtract(pStar, grp.Element().Scale(gBlind, sig.Mu))

	ipaParams := foldedIPAParams(params, ring, y, order)
	if err := ipa.Verify(grp, ipaParams, target, sig.IPA, tr); err != nil {
		logger.Debug().Int("ring_size", n).Dur("elapsed", time.Since(start)).Msg("ringsig: verify rejected")
		return newError(InvalidProof, err)
	}

	logger.Debug().Int("ring_size", n).Dur("elapsed", time.Since(start)).Msg("ringsig: verify accepted")
	return nil
}

// foldedIPAParams builds the synthesized IPA parameter set the
// compression step proves zeta, eta against: G'_i = RingG.H[i]*y^-i +
// ring[i] (the Pedersen generator folded with the ring's public keys,
// weighted by the inverse power of y that zeta's own y-weighting
// introduced), H' = RingH.H unweighted, u' = RingH's blinding
// generator. factorsG/factorsH are all-ones since the weighting is
// already baked into G' itself.
func foldedIPAParams(params *PublicParams, ring []group.Element, y, order *big.Int) *ipa.Params {
	grp := params.Group
	n := params.N
	yInv := new(big.Int).ModInverse(y, order)
	invPowersYN := vecutil.Powers(yInv, n, order)

	gPrime := make([]group.Element, n)
	ringGGen := params.RingG.Generators()
	for i := 0; i < n; i++ {
		gPrime[i] = grp.Element().Scale(ringGGen[i], invPowersYN[i])
		gPrime[i].Add(gPrime[i], ring[i])
	}

	return &ipa.Params{
		G:       gPrime,
		H:       params.RingH.Generators(),
		U:       params.RingH.Blind(),
		FactorG: constVector(big.NewInt(1), n),
		FactorH: constVector(big.NewInt(1), n),
	}
}

// tCommitmentParams is the single-element Pedersen used only for T1,
// T2: message generator RingH's blinding point (v, also the IPA's u'),
// blinding generator RingG's blinding point (u), so that Verify's R1
// (x*T1 + x^2*T2 - u*tauX) leaves exactly v*(t1*x + t2*x^2). Grounded on the Rust original's
// param_u_v construction rather than spec.md, which leaves this
// commitment's exact generators unspecified beyond "an independent
// single-element Pedersen".
func tCommitmentParams(params *PublicParams) *pedersen.Params {
	return pedersen.NewParams(params.Group, params.RingG.Blind(), []group.Element{params.RingH.Blind()})
}

func appendRing(tr *transcript.Transcript, ring []group.Element) error {
	tr.AppendUint64("ring-size", uint64(len(ring)))
	for i, p := range ring {
		if err := tr.AppendPoint(fmt.Sprintf("ring[%d]", i), p); err != nil {
			return err
		}
	}
	return nil
}

func randScalar(rng io.Reader, order *big.Int) *big.Int {
	s, err := rand.Int(rng, order)
	if err != nil {
		panic(fmt.Sprintf("ringsig: rng failure: %v", err))
	}
	return s
}

func randVector(rng io.Reader, order *big.Int, n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = randScalar(rng, order)
	}
	return out
}

func constVector(c *big.Int, n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = new(big.Int).Set(c)
	}
	return out
}
