// Package vecutil provides the scalar- and point-vector arithmetic
// shared by the Pedersen commitment, inner-product argument, and
// ring-signature packages: inner products, Hadamard products,
// scalar multiples, splits, power sequences, and ring shuffling.
package vecutil

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/takakv/ringsig/group"
)

// InnerProduct returns sum_i a[i]*b[i] mod order. Panics if len(a) != len(b).
func InnerProduct(a, b []*big.Int, order *big.Int) *big.Int {
	mustSameLen(a, b, "InnerProduct")
	acc := new(big.Int)
	t := new(big.Int)
	for i := range a {
		t.Mul(a[i], b[i])
		acc.Add(acc, t)
	}
	return acc.Mod(acc, order)
}

// Hadamard returns the elementwise product a[i]*b[i] mod order.
func Hadamard(a, b []*big.Int, order *big.Int) []*big.Int {
	mustSameLen(a, b, "Hadamard")
	out := make([]*big.Int, len(a))
	for i := range a {
		out[i] = new(big.Int).Mod(new(big.Int).Mul(a[i], b[i]), order)
	}
	return out
}

// ScalarMul returns the elementwise product a[i]*c mod order.
func ScalarMul(a []*big.Int, c, order *big.Int) []*big.Int {
	out := make([]*big.Int, len(a))
	for i := range a {
		out[i] = new(big.Int).Mod(new(big.Int).Mul(a[i], c), order)
	}
	return out
}

// VecAdd returns the elementwise sum a[i]+b[i] mod order.
func VecAdd(a, b []*big.Int, order *big.Int) []*big.Int {
	mustSameLen(a, b, "VecAdd")
	out := make([]*big.Int, len(a))
	for i := range a {
		out[i] = new(big.Int).Mod(new(big.Int).Add(a[i], b[i]), order)
	}
	return out
}

// VecAddConst returns a[i]+c mod order for every element.
func VecAddConst(a []*big.Int, c, order *big.Int) []*big.Int {
	out := make([]*big.Int, len(a))
	for i := range a {
		out[i] = new(big.Int).Mod(new(big.Int).Add(a[i], c), order)
	}
	return out
}

// VecSplit splits v into (v[0:n], v[n:]). Panics if len(v) < n.
func VecSplit[T any](v []T, n int) ([]T, []T) {
	if len(v) < n {
		panic(fmt.Sprintf("vecutil: VecSplit: len(v)=%d < n=%d", len(v), n))
	}
	left := make([]T, n)
	right := make([]T, len(v)-n)
	copy(left, v[:n])
	copy(right, v[n:])
	return left, right
}

// Powers returns (y, y^2, ..., y^n) mod order. Note the sequence
// starts at y^1, not y^0 — every caller in this module relies on that.
func Powers(y *big.Int, n int, order *big.Int) []*big.Int {
	out := make([]*big.Int, n)
	cur := new(big.Int).Mod(y, order)
	for i := 0; i < n; i++ {
		out[i] = new(big.Int).Set(cur)
		cur = new(big.Int).Mod(new(big.Int).Mul(cur, y), order)
	}
	return out
}

// ShuffleRing performs a Fisher-Yates shuffle of ring using rng as the
// source of randomness, and returns the shuffled ring together with
// the {0,1}-valued indicator vector marking pk's new position. Panics
// if pk is not present in ring, and guarantees each of the len(ring)!
// permutations of ring is equiprobable provided rng is uniform.
func ShuffleRing(rng io.Reader, ring []group.Element, pk group.Element) ([]group.Element, []*big.Int) {
	if rng == nil {
		rng = rand.Reader
	}
	shuffled := make([]group.Element, len(ring))
	copy(shuffled, ring)

	for i := len(shuffled) - 1; i > 0; i-- {
		j, err := rand.Int(rng, big.NewInt(int64(i+1)))
		if err != nil {
			panic(fmt.Sprintf("vecutil: ShuffleRing: rng failure: %v", err))
		}
		jj := int(j.Int64())
		shuffled[i], shuffled[jj] = shuffled[jj], shuffled[i]
	}

	indicator := make([]*big.Int, len(shuffled))
	found := false
	for i, p := range shuffled {
		if !found && p.IsEqual(pk) {
			indicator[i] = big.NewInt(1)
			found = true
		} else {
			indicator[i] = big.NewInt(0)
		}
	}
	if !found {
		panic("vecutil: ShuffleRing: signer public key not present in ring")
	}
	return shuffled, indicator
}

func mustSameLen(a, b []*big.Int, op string) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vecutil: %s: mismatched lengths %d != %d", op, len(a), len(b)))
	}
}
