package ring

import (
	"fmt"

	"github.com/rnslab/dcrt/utils/sampling"
)

// TernarySampler keeps the state of a polynomial sampler in the ternary distribution.
type TernarySampler struct {
	baseSampler
	p float64
	h int
}

// NewTernarySampler creates a new instance of TernarySampler from a PRNG, the ring definition and the distribution
// parameters (see type Ternary).
func NewTernarySampler(prng sampling.PRNG, baseRing *Ring, X Ternary) (ts *TernarySampler, err error) {

	switch {
	case X.P != 0 && X.H == 0:
		if X.P < 0 || X.P > 1 {
			return nil, fmt.Errorf("invalid TernaryDistribution: P=%f must be in [0, 1]", X.P)
		}
	case X.P == 0 && X.H != 0:
		if X.H < 0 || X.H > baseRing.N() {
			return nil, fmt.Errorf("invalid TernaryDistribution: H=%d must be in [0, %d]", X.H, baseRing.N())
		}
	default:
		return nil, fmt.Errorf("invalid TernaryDistribution: at exactly one of (H, P) should be > 0")
	}

	return &TernarySampler{baseSampler: baseSampler{prng: prng, baseRing: baseRing}, p: X.P, h: X.H}, nil
}

// AtLevel returns an instance of the target TernarySampler that operates at the target level.
func (ts *TernarySampler) AtLevel(level int) Sampler {
	return &TernarySampler{baseSampler: ts.baseSampler.AtLevel(level), p: ts.p, h: ts.h}
}

// Read samples a polynomial into pol.
func (ts *TernarySampler) Read(pol *Poly) {
	ts.read(pol, false)
}

// ReadNew allocates and samples a polynomial at the max level.
func (ts *TernarySampler) ReadNew() (pol *Poly) {
	pol = ts.baseRing.NewPoly()
	ts.Read(pol)
	return
}

// ReadAndAdd samples a polynomial and adds it on pol.
func (ts *TernarySampler) ReadAndAdd(pol *Poly) {
	ts.read(pol, true)
}

func (ts *TernarySampler) read(pol *Poly, add bool) {

	N := ts.baseRing.N()
	buf := make([]byte, 8)

	// values in {-1, 0, 1}
	values := make([]int8, N)

	if ts.h != 0 {

		// Fisher-Yates on the indices, the first h are non-zero
		index := make([]int, N)
		for i := range index {
			index[i] = i
		}

		for i := 0; i < ts.h; i++ {
			j := i + int(ts.randUint64(buf)%uint64(N-i))
			index[i], index[j] = index[j], index[i]
			values[index[i]] = int8(1 - 2*int(ts.randUint64(buf)&1))
		}

	} else {

		threshold := uint64(ts.p * float64(1<<53))

		for i := range values {
			r := ts.randUint64(buf)
			if r>>11 < threshold {
				values[i] = int8(1 - 2*int(r&1))
			}
		}
	}

	for i, s := range ts.baseRing.SubRings[:ts.baseRing.level+1] {
		q := s.Modulus
		coeffs := pol.Coeffs[i]
		for j, v := range values {
			var c uint64
			switch v {
			case 1:
				c = 1
			case -1:
				c = q - 1
			}
			if add {
				coeffs[j] = CRed(coeffs[j]+c, q)
			} else {
				coeffs[j] = c
			}
		}
	}

	if !add {
		pol.Format = Coefficient
	}
}
