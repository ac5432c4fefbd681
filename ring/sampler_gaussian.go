package ring

import (
	"math"

	"github.com/rnslab/dcrt/utils/sampling"
)

// GaussianSampler keeps the state of a truncated Gaussian polynomial sampler.
type GaussianSampler struct {
	baseSampler
	xe DiscreteGaussian
}

// NewGaussianSampler creates a new instance of GaussianSampler from a PRNG, a ring definition and the truncated
// Gaussian distribution parameters. Sigma is the desired standard deviation and Bound is the maximum coefficient norm in absolute
// value. A zero Sigma or Bound selects DefaultSigma and DefaultBound*Sigma.
func NewGaussianSampler(prng sampling.PRNG, baseRing *Ring, X DiscreteGaussian) (g *GaussianSampler) {

	if X.Sigma == 0 {
		X.Sigma = DefaultSigma
	}

	if X.Bound == 0 {
		X.Bound = DefaultBound * X.Sigma
	}

	return &GaussianSampler{baseSampler: baseSampler{prng: prng, baseRing: baseRing}, xe: X}
}

// AtLevel returns an instance of the target GaussianSampler that operates at the target level.
func (g *GaussianSampler) AtLevel(level int) Sampler {
	return &GaussianSampler{baseSampler: g.baseSampler.AtLevel(level), xe: g.xe}
}

// Read samples a truncated Gaussian polynomial on "pol" at the maximum level in the default ring, standard deviation and bound.
func (g *GaussianSampler) Read(pol *Poly) {
	g.read(pol, false)
}

// ReadNew samples a new truncated Gaussian polynomial at the maximum level in the default ring, standard deviation and bound.
func (g *GaussianSampler) ReadNew() (pol *Poly) {
	pol = g.baseRing.NewPoly()
	g.Read(pol)
	return pol
}

// ReadAndAdd samples a truncated Gaussian polynomial at the given level for the receiver's default standard deviation and bound and adds it on "pol".
func (g *GaussianSampler) ReadAndAdd(pol *Poly) {
	g.read(pol, true)
}

// normFloat64 samples a standard normal value with the Box-Muller transform.
func (g *GaussianSampler) normFloat64(buf []byte) float64 {
	for {
		u1 := float64(g.randUint64(buf)>>11) / (1 << 53)
		u2 := float64(g.randUint64(buf)>>11) / (1 << 53)
		if u1 > 0 {
			return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		}
	}
}

func (g *GaussianSampler) read(pol *Poly, add bool) {

	N := g.baseRing.N()
	buf := make([]byte, 8)

	values := make([]int64, N)
	for i := range values {
		for {
			v := math.Round(g.normFloat64(buf) * g.xe.Sigma)
			if math.Abs(v) <= g.xe.Bound {
				values[i] = int64(v)
				break
			}
		}
	}

	for i, s := range g.baseRing.SubRings[:g.baseRing.level+1] {
		q := s.Modulus
		coeffs := pol.Coeffs[i]
		for j, v := range values {
			c := uint64(v)
			if v < 0 {
				c = q - uint64(-v)
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
