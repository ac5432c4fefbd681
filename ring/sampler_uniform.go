package ring

import (
	"github.com/rnslab/dcrt/utils/sampling"
)

// UniformSampler wraps a util.PRNG and represents the state of a sampler of uniform polynomials.
type UniformSampler struct {
	baseSampler
}

// NewUniformSampler creates a new instance of UniformSampler from a PRNG and ring definition.
func NewUniformSampler(prng sampling.PRNG, baseRing *Ring) (u *UniformSampler) {
	return &UniformSampler{baseSampler: baseSampler{prng: prng, baseRing: baseRing}}
}

// AtLevel returns an instance of the target UniformSampler that operates at the target level.
func (u *UniformSampler) AtLevel(level int) Sampler {
	return &UniformSampler{baseSampler: u.baseSampler.AtLevel(level)}
}

// Read generates a new polynomial with coefficients following a uniform distribution over [0, Qi-1].
func (u *UniformSampler) Read(pol *Poly) {
	u.read(pol, func(a, b, c uint64) uint64 {
		return b
	})
}

// ReadAndAdd generates a new polynomial with coefficients following a uniform distribution over [0, Qi-1]
// and adds it on pol.
func (u *UniformSampler) ReadAndAdd(pol *Poly) {
	u.read(pol, func(a, b, c uint64) uint64 {
		return CRed(a+b, c)
	})
}

func (u *UniformSampler) read(pol *Poly, f func(a, b, c uint64) uint64) {

	buf := make([]byte, 8)

	for i, s := range u.baseRing.SubRings[:u.baseRing.level+1] {

		qi := s.Modulus
		mask := s.Mask
		coeffs := pol.Coeffs[i]

		for j := range coeffs {

			var randomUint uint64
			for {
				randomUint = u.randUint64(buf) & mask
				if randomUint < qi {
					break
				}
			}

			coeffs[j] = f(coeffs[j], randomUint, qi)
		}
	}
}

// ReadNew generates a new polynomial with coefficients following a uniform distribution over [0, Qi-1].
// Polynomial is created at the max level.
func (u *UniformSampler) ReadNew() (pol *Poly) {
	pol = u.baseRing.NewPoly()
	u.Read(pol)
	return
}
