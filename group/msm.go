package group

import (
	"context"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MultiScalarMul computes sum_i scalars[i] * points[i]. Group addition
// is commutative, so the partial sums can be accumulated in any order;
// MultiScalarMulParallel exploits this to spread the work across
// goroutines.
func MultiScalarMul(g Group, scalars []*big.Int, points []Element) Element {
	if len(scalars) != len(points) {
		panic("group: mismatched scalar/point counts")
	}
	acc := g.Identity()
	term := g.Element()
	for i := range scalars {
		term.Scale(points[i], scalars[i])
		acc.Add(acc, term)
	}
	return acc
}

// MultiScalarMulParallel computes the same sum as MultiScalarMul, but
// splits the terms across GOMAXPROCS worker goroutines and combines
// their partial sums. Useful once n grows large enough (e.g. a wide
// ring) that curve arithmetic, not goroutine overhead, dominates.
func MultiScalarMulParallel(g Group, scalars []*big.Int, points []Element) Element {
	if len(scalars) != len(points) {
		panic("group: mismatched scalar/point counts")
	}
	n := len(scalars)
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return MultiScalarMul(g, scalars, points)
	}

	chunk := (n + workers - 1) / workers
	partials := make([]Element, workers)

	eg, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		end := start + chunk
		if start >= n {
			partials[w] = g.Identity()
			continue
		}
		if end > n {
			end = n
		}
		eg.Go(func() error {
			partials[w] = MultiScalarMul(g, scalars[start:end], points[start:end])
			return nil
		})
	}
	// None of the workers return an error; MultiScalarMul only panics
	// on malformed input, which is checked before any goroutine starts.
	_ = eg.Wait()

	acc := g.Identity()
	for _, p := range partials {
		acc.Add(acc, p)
	}
	return acc
}
