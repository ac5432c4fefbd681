package ring

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/rnslab/dcrt/utils/sampling"
)

const (
	uniform          = "uniform"
	ternary          = "ternary"
	discreteGaussian = "discrete-gaussian"
)

// DefaultSigma is the default standard deviation of the discrete Gaussian distribution.
const DefaultSigma = 3.2

// DefaultBound is the default tail bound of the discrete Gaussian distribution, in multiples of sigma.
const DefaultBound = 6.0

// DistributionParameters is an interface for distribution
// parameters in the ring.
// There are three implementation of this interface:
//   - DiscreteGaussian for sampling polynomials with discretized
//     gaussian coefficient of given standard deviation and bound.
//   - Ternary for sampling polynomials with coefficients in [-1, 1].
//   - Uniform for sampling polynomials with uniformly random
//     coefficients in the ring.
type DistributionParameters interface {
	// Type returns a string representation of the distribution name.
	Type() string
	mustBeDist()
}

// DiscreteGaussian represents the parameters of a
// discrete Gaussian distribution with standard
// deviation Sigma and bounds [-Bound, Bound].
type DiscreteGaussian struct {
	Sigma float64
	Bound float64
}

// Ternary represent the parameters of a distribution with coefficients
// in [-1, 0, 1]. Only one of its field must be set to a non-zero value:
//
//   - If P is set, each coefficient in the polynomial is sampled in [-1, 0, 1]
//     with probabilities [0.5*P, 1-P, 0.5*P].
//   - if H is set, the coefficients are sampled uniformly in the set of ternary
//     polynomials with H non-zero coefficients (i.e., of hamming weight H).
type Ternary struct {
	P float64
	H int
}

// Uniform represents the parameters of a uniform distribution
// i.e., with coefficients uniformly distributed in the given ring.
type Uniform struct{}

// Type returns the name of the distribution.
func (d DiscreteGaussian) Type() string {
	return discreteGaussian
}

func (d DiscreteGaussian) mustBeDist() {}

// Type returns the name of the distribution.
func (d Ternary) Type() string {
	return ternary
}

func (d Ternary) mustBeDist() {}

// Type returns the name of the distribution.
func (d Uniform) Type() string {
	return uniform
}

func (d Uniform) mustBeDist() {}

// MarshalJSON encodes the distribution with its type name.
func (d DiscreteGaussian) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{"Type": discreteGaussian, "Sigma": d.Sigma, "Bound": d.Bound})
}

// MarshalJSON encodes the distribution with its type name.
func (d Ternary) MarshalJSON() ([]byte, error) {
	if d.P != 0 && d.H != 0 {
		return nil, fmt.Errorf("invalid ternary distribution: only one of P and H can be set")
	}
	return json.Marshal(map[string]interface{}{"Type": ternary, "P": d.P, "H": d.H})
}

// MarshalJSON encodes the distribution with its type name.
func (d Uniform) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{"Type": uniform})
}

// ParametersFromMap decodes a distribution from its JSON map representation.
func ParametersFromMap(distDef map[string]interface{}) (DistributionParameters, error) {

	distTypeVal, specified := distDef["Type"]
	if !specified {
		return nil, fmt.Errorf("map specifies no distribution type")
	}

	distTypeStr, isString := distTypeVal.(string)
	if !isString {
		return nil, fmt.Errorf("value for key Type of map should be of type string")
	}

	getFloat := func(key string) float64 {
		if v, ok := distDef[key].(float64); ok {
			return v
		}
		return 0
	}

	switch distTypeStr {
	case uniform:
		return Uniform{}, nil
	case ternary:
		d := Ternary{P: getFloat("P"), H: int(getFloat("H"))}
		if d.P != 0 && d.H != 0 {
			return nil, fmt.Errorf("invalid ternary distribution: only one of P and H can be set")
		}
		return d, nil
	case discreteGaussian:
		return DiscreteGaussian{Sigma: getFloat("Sigma"), Bound: getFloat("Bound")}, nil
	default:
		return nil, fmt.Errorf("distribution type %s does not exist", distTypeStr)
	}
}

// Sampler is an interface for random polynomial samplers.
// Polynomials are sampled in the Coefficient format, except for
// the uniform distribution which is format-agnostic and keeps
// the format of the target polynomial.
type Sampler interface {
	Read(pol *Poly)
	ReadNew() (pol *Poly)
	ReadAndAdd(pol *Poly)
	AtLevel(level int) Sampler
}

// NewSampler instantiates a new Sampler interface from the provided parameters.
func NewSampler(prng sampling.PRNG, baseRing *Ring, X DistributionParameters) (Sampler, error) {
	switch X := X.(type) {
	case DiscreteGaussian:
		return NewGaussianSampler(prng, baseRing, X), nil
	case Ternary:
		return NewTernarySampler(prng, baseRing, X)
	case Uniform:
		return NewUniformSampler(prng, baseRing), nil
	default:
		return nil, fmt.Errorf("invalid distribution: want ring.DiscreteGaussian, ring.Ternary or ring.Uniform but have %T", X)
	}
}

type baseSampler struct {
	prng     sampling.PRNG
	baseRing *Ring
}

// AtLevel returns an instance of the target base sampler that operates at the target level.
func (b *baseSampler) AtLevel(level int) baseSampler {
	return baseSampler{
		prng:     b.prng,
		baseRing: b.baseRing.AtLevel(level),
	}
}

// randUint64 reads a uint64 from the PRNG.
func (b *baseSampler) randUint64(buf []byte) uint64 {
	if _, err := b.prng.Read(buf[:8]); err != nil {
		// Sanity check, this error should not happen.
		panic(err)
	}
	return binary.LittleEndian.Uint64(buf[:8])
}
