package pedersen

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/ringsig/group"
)

func randScalar(grp group.Group) *big.Int {
	s, err := rand.Int(rand.Reader, grp.N())
	if err != nil {
		panic(err)
	}
	return s
}

func TestCommitVerifyRoundTrip(t *testing.T) {
	for _, grp := range []group.Group{group.Ristretto255(), group.P256(), group.SecP256k1()} {
		grp := grp
		t.Run(grp.Name(), func(t *testing.T) {
			params, err := Setup(grp, 4, "test")
			require.NoError(t, err)

			m := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3), big.NewInt(4)}
			r := randScalar(grp)

			c, err := params.Commit(m, r)
			require.NoError(t, err)

			ok, err := params.Verify(c, &Opening{M: m, R: r})
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}

func TestCommitRejectsWrongOpening(t *testing.T) {
	grp := group.Ristretto255()
	params, err := Setup(grp, 3, "test")
	require.NoError(t, err)

	m := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}
	r := randScalar(grp)
	c, err := params.Commit(m, r)
	require.NoError(t, err)

	wrongM := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(4)}
	ok, err := params.Verify(c, &Opening{M: wrongM, R: r})
	require.NoError(t, err)
	require.False(t, ok)

	wrongR := new(big.Int).Add(r, big.NewInt(1))
	ok, err = params.Verify(c, &Opening{M: m, R: wrongR})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCommitRejectsLengthMismatch(t *testing.T) {
	grp := group.Ristretto255()
	params, err := Setup(grp, 3, "test")
	require.NoError(t, err)

	_, err = params.Commit([]*big.Int{big.NewInt(1), big.NewInt(2)}, big.NewInt(1))
	require.Error(t, err)
}

func TestSetupDistinctLabelsDeriveIndependentGenerators(t *testing.T) {
	grp := group.Ristretto255()
	a, err := Setup(grp, 2, "family-a")
	require.NoError(t, err)
	b, err := Setup(grp, 2, "family-b")
	require.NoError(t, err)

	require.False(t, a.g.IsEqual(b.g))
	for i := range a.H {
		require.False(t, a.H[i].IsEqual(b.H[i]))
	}
}

func TestBlindGeneratorNotReusedInH(t *testing.T) {
	grp := group.Ristretto255()
	params, err := Setup(grp, 5, "test")
	require.NoError(t, err)
	for _, h := range params.H {
		require.False(t, h.IsEqual(params.g))
	}
}
