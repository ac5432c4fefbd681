package ring

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minParallelCoefficients is the number of coefficients from which
// the towers of a polynomial are processed concurrently.
const minParallelCoefficients = 1 << 15

// forEachTower calls f on the towers [0, level] of the ring and returns the first error.
// Each call of f must only write on the i-th tower of its outputs.
func (r *Ring) forEachTower(level int, f func(i int, s *SubRing) error) error {

	if level == 0 || r.N()*(level+1) < minParallelCoefficients {
		for i, s := range r.SubRings[:level+1] {
			if err := f(i, s); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, s := range r.SubRings[:level+1] {
		i, s := i, s
		g.Go(func() error {
			return f(i, s)
		})
	}

	return g.Wait()
}
