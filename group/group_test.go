package group

import (
	"math/big"
	"testing"
)

var modpTestGroup = NewModPGroup(
	"RFC3526ModPGroup3072",
	`FFFFFFFF FFFFFFFF C90FDAA2 2168C234 C4C6628B 80DC1CD1
		29024E08 8A67CC74 020BBEA6 3B139B22 514A0879 8E3404DD
		EF9519B3 CD3A431B 302B0A6D F25F1437 4FE1356D 6D51C245
		E485B576 625E7EC6 F44C42E9 A637ED6B 0BFF5CB6 F406B7ED
		EE386BFB 5A899FA5 AE9F2411 7C4B1FE6 49286651 ECE45B3D
		C2007CB8 A163BF05 98DA4836 1C55D39A 69163FA8 FD24CF5F
		83655D23 DCA3AD96 1C62F356 208552BB 9ED52907 7096966D
		670C354E 4ABC9804 F1746C08 CA18217C 32905E46 2E36CE3B
		E39E772C 180E8603 9B2783A2 EC07A28F B5C55DF0 6F4C52C9
		DE2BCBF6 95581718 3995497C EA956AE5 15D22618 98FA0510
		15728E5A 8AAAC42D AD33170D 04507A33 A85521AB DF1CBA64
		ECFB8504 58DBEF0A 8AEA7157 5D060C7D B3970F85 A6E1E4C7
		ABF5AE8C DB0933D7 1E8C94E0 4A25619D CEE3D226 1AD2EE6B
		F12FFA06 D98A0864 D8760273 3EC86A64 521F2B18 177B200C
		BBE11757 7A615D6C 770988C0 BAD946E2 08E24FA0 74E5AB31
		43DB5BFC E0FD108E 4B82D120 A93AD2CA FFFFFFFF FFFFFFFF
		`, "2")

var allGroups = []Group{
	Ristretto255(),
	P256(),
	P384(),
	SecP256k1(),
	modpTestGroup,
}

func TestNegation(t *testing.T) {
	const rounds = 1 << 6
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			Q := g.Element()
			for i := 0; i < rounds; i++ {
				P := g.Random()
				Q.Negate(P)
				Q.Add(Q, P)
				if !Q.IsIdentity() {
					t.Fatalf("P + (-P) did not vanish")
				}
			}
		})
	}
}

func TestScaleByOrder(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			P := g.Random()
			Q := g.Element().Scale(P, g.N())
			if !Q.IsIdentity() {
				t.Fatalf("N*P did not reach the identity")
			}
		})
	}
}

func TestSetAndEqual(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			P := g.Random()
			Q := g.Element().Set(P)
			if !Q.IsEqual(P) {
				t.Fatalf("Set did not reproduce the source element")
			}
		})
	}
}

func TestDoublingMatchesAddition(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			a := g.Element().BaseScale(big.NewInt(2))
			b := g.Element().Add(g.Generator(), g.Generator())
			if !a.IsEqual(b) {
				t.Fatalf("2*G != G+G")
			}
		})
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			P := g.Random()
			raw, err := P.MarshalBinary()
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			Q := g.Element().SetBytes(raw)
			if !Q.IsEqual(P) {
				t.Fatalf("SetBytes(MarshalBinary(P)) != P")
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			P := g.Random()
			raw, err := P.MarshalJSON()
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			Q := g.Element()
			if err := Q.UnmarshalJSON(raw); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !Q.IsEqual(P) {
				t.Fatalf("UnmarshalJSON(MarshalJSON(P)) != P")
			}
		})
	}
}

func TestMapToGroupDeterministic(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			a, err := g.Element().MapToGroup("ringsig/test-label")
			if err != nil {
				t.Fatalf("MapToGroup: %v", err)
			}
			b, err := g.Element().MapToGroup("ringsig/test-label")
			if err != nil {
				t.Fatalf("MapToGroup: %v", err)
			}
			if !a.IsEqual(b) {
				t.Fatalf("MapToGroup is not deterministic for a fixed label")
			}
			c, err := g.Element().MapToGroup("ringsig/other-label")
			if err != nil {
				t.Fatalf("MapToGroup: %v", err)
			}
			if a.IsEqual(c) {
				t.Fatalf("MapToGroup collided across distinct labels")
			}
		})
	}
}

func TestMultiScalarMulMatchesSequential(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			const n = 9
			scalars := make([]*big.Int, n)
			points := make([]Element, n)
			for i := 0; i < n; i++ {
				scalars[i] = big.NewInt(int64(i + 1))
				points[i] = g.Random()
			}
			seq := MultiScalarMul(g, scalars, points)
			par := MultiScalarMulParallel(g, scalars, points)
			if !seq.IsEqual(par) {
				t.Fatalf("parallel MSM disagrees with sequential MSM")
			}
		})
	}
}

// TestIdentityReachedThroughArithmeticIsRecognized guards against a
// backend reporting the identity reached via Add/Scale/BaseScale as
// non-identity because it only recognizes the identity constructed
// directly by Identity(). secp256k1 hit exactly this: btcec's Add,
// ScalarMult, and ScalarBaseMult all return affine (0, 0) for
// infinity, distinct from this package's nil sentinel, unless
// normalized.
func TestIdentityReachedThroughArithmeticIsRecognized(t *testing.T) {
	for _, g := range allGroups {
		g := g
		t.Run(g.Name(), func(t *testing.T) {
			P := g.Random()

			viaAdd := g.Element().Negate(P)
			viaAdd.Add(viaAdd, P)
			if !viaAdd.IsIdentity() {
				t.Fatalf("P + (-P) via Add not recognized as identity")
			}

			viaScale := g.Element().Scale(P, g.N())
			if !viaScale.IsIdentity() {
				t.Fatalf("N*P via Scale not recognized as identity")
			}

			viaBaseScale := g.Element().BaseScale(g.N())
			if !viaBaseScale.IsIdentity() {
				t.Fatalf("N*G via BaseScale not recognized as identity")
			}
		})
	}
}
