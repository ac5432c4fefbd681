package keyswitch

import (
	"encoding/json"
	"fmt"
	"math/bits"

	"github.com/google/go-cmp/cmp"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/ring/ringqp"
	"github.com/rnslab/dcrt/utils"
)

// DefaultXs is the default secret distribution.
var DefaultXs = ring.Ternary{P: 2.0 / 3.0}

// DefaultXe is the default error distribution.
var DefaultXe = ring.DiscreteGaussian{Sigma: ring.DefaultSigma, Bound: ring.DefaultBound * ring.DefaultSigma}

// ParametersLiteral is a literal representation of key-switching parameters. It has public fields and
// is used to express unchecked user-defined parameters literally into Go programs.
// The [NewParametersFromLiteral] function is used to generate the actual checked parameters
// from the literal representation.
//
// Users must set either the degree LogN of a power-of-two ring or the CyclotomicOrder of
// an arbitrary cyclotomic ring, and the moduli chains, by either setting the Q and P fields
// to the desired moduli, or by setting the LogQ and LogP fields to the desired moduli sizes.
//
// The technique selects the key-switching procedure:
//   - BV uses Q only and the optional BaseBits decomposition of each tower.
//   - GHS and HYBRID require a non-empty P. HYBRID splits Q in NumPartQ partitions.
type ParametersLiteral struct {
	LogN            int                         `json:",omitempty"`
	CyclotomicOrder int                         `json:",omitempty"`
	Q               []uint64                    `json:",omitempty"`
	P               []uint64                    `json:",omitempty"`
	LogQ            []int                       `json:",omitempty"`
	LogP            []int                       `json:",omitempty"`
	Technique       Technique                   `json:",omitempty"`
	BaseBits        int                         `json:",omitempty"`
	NumPartQ        int                         `json:",omitempty"`
	Xs              ring.DistributionParameters `json:",omitempty"`
	Xe              ring.DistributionParameters `json:",omitempty"`
}

// Parameters represents a set of key-switching parameters. Its fields are private and
// immutable. See [ParametersLiteral] for user-specified parameters.
type Parameters struct {
	technique Technique
	baseBits  int
	numPartQ  int
	xs        ring.DistributionParameters
	xe        ring.DistributionParameters
	ringQ     *ring.Ring
	ringP     *ring.Ring
}

// NewParametersFromLiteral instantiates a set of [Parameters] from a [ParametersLiteral] specification.
// It returns the empty parameters [Parameters]{} and a non-nil error if the specified parameters are invalid.
//
// If the moduli chain is specified through the LogQ and LogP fields, the method generates a moduli chain matching
// the specified sizes (see [GenerateNTTPrimesQP]).
//
// If the secret or error distributions are left unset, they are set to [DefaultXs] and [DefaultXe].
func NewParametersFromLiteral(paramDef ParametersLiteral) (params Parameters, err error) {

	var m int
	switch {
	case paramDef.LogN != 0 && paramDef.CyclotomicOrder != 0:
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: only one of LogN and CyclotomicOrder can be set: %w", ring.ErrParameterMismatch)
	case paramDef.LogN != 0:
		if paramDef.LogN < ring.MinLogN || paramDef.LogN > ring.MaxLogN {
			return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: LogN=%d must be between %d and %d: %w", paramDef.LogN, ring.MinLogN, ring.MaxLogN, ring.ErrParameterMismatch)
		}
		m = 2 << paramDef.LogN
	case paramDef.CyclotomicOrder != 0:
		m = paramDef.CyclotomicOrder
	default:
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: LogN or CyclotomicOrder must be set: %w", ring.ErrParameterMismatch)
	}

	Q, P := paramDef.Q, paramDef.P

	switch {
	case len(paramDef.Q) != 0 && len(paramDef.LogQ) == 0 && len(paramDef.LogP) == 0:
	case len(paramDef.Q) == 0 && len(paramDef.P) == 0 && len(paramDef.LogQ) != 0:
		if Q, P, err = GenerateNTTPrimesQP(ring.RequiredNthRoot(m), paramDef.LogQ, paramDef.LogP); err != nil {
			return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: %w", err)
		}
	default:
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: exactly one of the pairs (Q, P) and (LogQ, LogP) must be set: %w", ring.ErrParameterMismatch)
	}

	xs, xe := paramDef.Xs, paramDef.Xe

	if xs == nil {
		xs = DefaultXs
	}

	if xe == nil {
		xe = DefaultXe
	}

	return NewParameters(m, Q, P, paramDef.Technique, paramDef.BaseBits, paramDef.NumPartQ, xs, xe)
}

// NewParameters returns a new set of key-switching parameters for the cyclotomic ring of order m with moduli
// chains Q and P. It returns the empty parameters [Parameters]{} and a non-nil error if the specified
// parameters are invalid.
func NewParameters(m int, Q, P []uint64, technique Technique, baseBits, numPartQ int, xs, xe ring.DistributionParameters) (params Parameters, err error) {

	if !utils.AllDistinct(append(append([]uint64{}, Q...), P...)) {
		return Parameters{}, fmt.Errorf("cannot NewParameters: moduli of Q and P must be pairwise distinct: %w", ring.ErrParameterMismatch)
	}

	params = Parameters{
		technique: technique,
		baseBits:  baseBits,
		numPartQ:  numPartQ,
		xs:        xs,
		xe:        xe,
	}

	if params.ringQ, err = ring.NewRingFromCyclotomicOrder(m, Q); err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParameters: ringQ: %w", err)
	}

	if len(P) != 0 {
		if params.ringP, err = ring.NewRingFromCyclotomicOrder(m, P); err != nil {
			return Parameters{}, fmt.Errorf("cannot NewParameters: ringP: %w", err)
		}
	}

	switch technique {
	case BV:
		if baseBits < 0 || baseBits > ring.MaxModuliSize {
			return Parameters{}, fmt.Errorf("cannot NewParameters: BaseBits=%d must be between 0 and %d: %w", baseBits, ring.MaxModuliSize, ring.ErrParameterMismatch)
		}
		params.numPartQ = 0
	case GHS:
		if params.ringP == nil {
			return Parameters{}, fmt.Errorf("cannot NewParameters: GHS requires a non-empty P: %w", ring.ErrParameterMismatch)
		}
		if params.ringP.Modulus().Cmp(params.ringQ.Modulus()) <= 0 {
			return Parameters{}, fmt.Errorf("cannot NewParameters: GHS requires P > Q: %w", ring.ErrParameterMismatch)
		}
		params.baseBits = 0
		params.numPartQ = 1
	case HYBRID:
		if params.ringP == nil {
			return Parameters{}, fmt.Errorf("cannot NewParameters: HYBRID requires a non-empty P: %w", ring.ErrParameterMismatch)
		}
		if numPartQ < 1 || numPartQ > len(Q) {
			return Parameters{}, fmt.Errorf("cannot NewParameters: NumPartQ=%d must be between 1 and %d: %w", numPartQ, len(Q), ring.ErrParameterMismatch)
		}
		params.baseBits = 0
	default:
		return Parameters{}, fmt.Errorf("cannot NewParameters: %s: %w", technique, ErrUnsupportedTechnique)
	}

	switch xs := xs.(type) {
	case ring.Ternary, ring.DiscreteGaussian:
	default:
		return Parameters{}, fmt.Errorf("cannot NewParameters: secret distribution type must be Ternary or DiscreteGaussian but is %T", xs)
	}

	switch xe := xe.(type) {
	case ring.Ternary, ring.DiscreteGaussian:
	default:
		return Parameters{}, fmt.Errorf("cannot NewParameters: error distribution type must be Ternary or DiscreteGaussian but is %T", xe)
	}

	return
}

// GenerateNTTPrimesQP generates the moduli chains Q and P of the given bit-sizes, all congruent to 1 mod NthRoot
// and pairwise distinct.
func GenerateNTTPrimesQP(NthRoot uint64, LogQ, LogP []int) (Q, P []uint64, err error) {

	count := map[int]int{}
	for _, logqi := range append(append([]int{}, LogQ...), LogP...) {
		count[logqi]++
	}

	primes := map[int][]uint64{}
	for logqi, n := range count {
		if primes[logqi], err = ring.GenerateNTTPrimes(logqi, NthRoot, n); err != nil {
			return nil, nil, err
		}
	}

	next := func(logqi int) (qi uint64) {
		qi, primes[logqi] = primes[logqi][0], primes[logqi][1:]
		return
	}

	Q = make([]uint64, len(LogQ))
	for i, logqi := range LogQ {
		Q[i] = next(logqi)
	}

	P = make([]uint64, len(LogP))
	for i, logpi := range LogP {
		P[i] = next(logpi)
	}

	return
}

// ParametersLiteral returns the [ParametersLiteral] of the target [Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {

	var P []uint64
	if p.ringP != nil {
		P = p.ringP.ModuliChain()
	}

	pl := ParametersLiteral{
		Q:         p.ringQ.ModuliChain(),
		P:         P,
		Technique: p.technique,
		BaseBits:  p.baseBits,
		NumPartQ:  p.numPartQ,
		Xs:        p.xs,
		Xe:        p.xe,
	}

	if p.ringQ.IsPowerOfTwo() {
		pl.LogN = bits.Len64(uint64(p.N())) - 1
	} else {
		pl.CyclotomicOrder = p.ringQ.CyclotomicOrder()
	}

	return pl
}

// N returns the ring degree.
func (p Parameters) N() int {
	return p.ringQ.N()
}

// CyclotomicOrder returns the cyclotomic order m of the ring.
func (p Parameters) CyclotomicOrder() int {
	return p.ringQ.CyclotomicOrder()
}

// Technique returns the key-switching technique.
func (p Parameters) Technique() Technique {
	return p.technique
}

// BaseBits returns the base 2 decomposition of the BV digits (zero if the towers are not decomposed).
func (p Parameters) BaseBits() int {
	return p.baseBits
}

// NumPartQ returns the number of partitions of Q used by HYBRID (one for GHS).
func (p Parameters) NumPartQ() int {
	return p.numPartQ
}

// Xs returns the secret distribution.
func (p Parameters) Xs() ring.DistributionParameters {
	return p.xs
}

// Xe returns the error distribution.
func (p Parameters) Xe() ring.DistributionParameters {
	return p.xe
}

// RingQ returns a pointer to ringQ.
func (p Parameters) RingQ() *ring.Ring {
	return p.ringQ
}

// RingP returns a pointer to ringP, nil if P is empty.
func (p Parameters) RingP() *ring.Ring {
	return p.ringP
}

// RingQP returns the extended ring QP. Its RingP is nil if P is empty.
func (p Parameters) RingQP() ringqp.Ring {
	return ringqp.Ring{RingQ: p.ringQ, RingP: p.ringP}
}

// MaxLevelQ returns the maximum level of the modulus Q.
func (p Parameters) MaxLevelQ() int {
	return p.ringQ.MaxLevel()
}

// MaxLevelP returns the maximum level of the modulus P, -1 if P is empty.
func (p Parameters) MaxLevelP() int {
	if p.ringP != nil {
		return p.ringP.MaxLevel()
	}
	return -1
}

// HintLevelP returns the level of the P part of the hints, -1 for BV.
func (p Parameters) HintLevelP() int {
	if p.technique == BV {
		return -1
	}
	return p.MaxLevelP()
}

// Q returns a new slice with the factors of the ciphertext modulus q.
func (p Parameters) Q() []uint64 {
	return p.ringQ.ModuliChain()
}

// P returns a new slice with the factors of the auxiliary modulus p.
func (p Parameters) P() []uint64 {
	if p.ringP != nil {
		return p.ringP.ModuliChain()
	}
	return nil
}

// Equal checks two Parameter structs for equality.
func (p Parameters) Equal(other *Parameters) bool {
	return cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral())
}

// MarshalJSON returns a JSON representation of this parameter set. See [json.Marshal].
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See [json.Unmarshal].
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var params ParametersLiteral
	if err = json.Unmarshal(data, &params); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(params)
	return
}

// UnmarshalJSON reads a JSON representation of a parameter literal, decoding the distributions
// with [ring.ParametersFromMap].
func (p *ParametersLiteral) UnmarshalJSON(b []byte) (err error) {

	type literal ParametersLiteral

	var pl struct {
		literal
		Xs map[string]interface{}
		Xe map[string]interface{}
	}

	if err = json.Unmarshal(b, &pl); err != nil {
		return
	}

	*p = ParametersLiteral(pl.literal)

	if pl.Xs != nil {
		if p.Xs, err = ring.ParametersFromMap(pl.Xs); err != nil {
			return
		}
	}

	if pl.Xe != nil {
		if p.Xe, err = ring.ParametersFromMap(pl.Xe); err != nil {
			return
		}
	}

	return
}
