package transcript

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/takakv/ringsig/group"
)

func TestIdenticalTranscriptsAgree(t *testing.T) {
	order := group.Ristretto255().N()

	build := func() *big.Int {
		tr := New("test/v1")
		tr.AppendBytes("label-a", []byte("hello"))
		tr.AppendScalar("label-b", big.NewInt(42))
		return tr.Challenge("chal", order)
	}

	require.Equal(t, build(), build())
}

func TestDifferentLabelsDiverge(t *testing.T) {
	order := group.Ristretto255().N()

	tr1 := New("test/v1")
	tr1.AppendBytes("label-a", []byte("hello"))
	c1 := tr1.Challenge("chal", order)

	tr2 := New("test/v1")
	tr2.AppendBytes("label-b", []byte("hello"))
	c2 := tr2.Challenge("chal", order)

	require.NotEqual(t, c1, c2)
}

func TestDifferentByteOrderDiverges(t *testing.T) {
	order := group.Ristretto255().N()

	tr1 := New("test/v1")
	tr1.AppendBytes("x", []byte("a"))
	tr1.AppendBytes("y", []byte("b"))
	c1 := tr1.Challenge("chal", order)

	tr2 := New("test/v1")
	tr2.AppendBytes("x", []byte("b"))
	tr2.AppendBytes("y", []byte("a"))
	c2 := tr2.Challenge("chal", order)

	require.NotEqual(t, c1, c2)
}

func TestRepeatedChallengesDiffer(t *testing.T) {
	order := group.Ristretto255().N()
	tr := New("test/v1")
	c1 := tr.Challenge("chal", order)
	c2 := tr.Challenge("chal", order)
	require.NotEqual(t, c1, c2)
}

func TestChallengeCloneDoesNotAdvanceOriginal(t *testing.T) {
	order := group.Ristretto255().N()

	tr1 := New("test/v1")
	tr1.AppendBytes("a", []byte("x"))
	snapshot := tr1.clone()

	c1 := tr1.Challenge("chal", order)

	tr2 := snapshot
	c2 := tr2.Challenge("chal", order)

	require.Equal(t, c1, c2)
}

func TestAppendPointRoundTripsThroughBinary(t *testing.T) {
	g := group.Ristretto255()
	order := g.N()
	p := g.Random()

	tr := New("test/v1")
	require.NoError(t, tr.AppendPoint("p", p))
	c1 := tr.Challenge("chal", order)

	tr2 := New("test/v1")
	raw, err := p.MarshalBinary()
	require.NoError(t, err)
	tr2.AppendBytes("p", raw)
	// AppendPoint uses the same length-prefixed framing as AppendBytes
	// with the marshaled point bytes, so replaying those bytes directly
	// must reproduce the same challenge.
	c2 := tr2.Challenge("chal", order)

	require.Equal(t, c1, c2)
}
