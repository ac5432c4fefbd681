// Package ring implements RNS-accelerated modular arithmetic operations for polynomials, including:
// RNS basis extension; RNS rescaling; number theoretic transform (NTT); uniform, Gaussian and ternary sampling.
package ring

import (
	"fmt"
	"math/big"

	"github.com/rnslab/dcrt/utils"
	"github.com/rnslab/dcrt/utils/bignum"
)

const (
	// MinLogN is the log2 of the smallest power-of-two ring degree.
	MinLogN = 1

	// MaxLogN is the log2 of the largest supported power-of-two ring degree.
	MaxLogN = 20

	// MaxModuliSize is the largest bit-length supported for the moduli in the RNS representation.
	MaxModuliSize = 61
)

// Ring is a structure that keeps all the variables required to operate on a polynomial represented in this ring:
// the cyclotomic order, the chain of moduli with their reduction and NTT constants, and the big moduli per level.
//
// A Ring is never mutated after its creation and can be shared between goroutines.
type Ring struct {
	SubRings []*SubRing

	// Product of the Moduli for each level
	ModulusAtLevel []*big.Int

	// Rescaling parameters: RescaleConstants[l][i] = q_l^-1 mod q_i, for i < l
	RescaleConstants [][]uint64

	level int
}

// NewRing creates a new RNS Ring with degree N and coefficient moduli Moduli, i.e. Z_Q[X]/(X^N+1).
// N must be a power of two and Moduli a list of distinct primes congruent to 1 mod 2N.
func NewRing(N int, Moduli []uint64) (r *Ring, err error) {
	if !utils.IsPowerOfTwo(N) || N < 1<<MinLogN || N > 1<<MaxLogN {
		return nil, fmt.Errorf("invalid ring degree: N=%d must be a power of two between 2^%d and 2^%d: %w", N, MinLogN, MaxLogN, ErrParameterMismatch)
	}
	return newRing(2*N, Moduli)
}

// NewRingFromCyclotomicOrder creates a new RNS Ring Z_Q[X]/(Phi_m(X)) for an arbitrary cyclotomic order m.
// If m is a power of two, the returned Ring is the same as NewRing(m/2, Moduli).
// Otherwise, Moduli must be distinct primes congruent to 1 mod lcm(2m, 2M), where M is the
// smallest power of two greater or equal to 2m-1 (see RequiredNthRoot).
func NewRingFromCyclotomicOrder(m int, Moduli []uint64) (r *Ring, err error) {
	if utils.IsPowerOfTwo(m) {
		return NewRing(m>>1, Moduli)
	}
	if m < 3 {
		return nil, fmt.Errorf("invalid cyclotomic order: m=%d: %w", m, ErrParameterMismatch)
	}
	return newRing(m, Moduli)
}

// RequiredNthRoot returns the value NthRoot such that the moduli of a ring of
// cyclotomic order m must be congruent to 1 mod NthRoot.
func RequiredNthRoot(m int) uint64 {
	if utils.IsPowerOfTwo(m) {
		return uint64(m)
	}
	return uint64(utils.LCM(2*m, 2*bluesteinSize(m)))
}

func newRing(m int, Moduli []uint64) (r *Ring, err error) {

	if len(Moduli) == 0 {
		return nil, fmt.Errorf("invalid moduli chain: empty: %w", ErrParameterMismatch)
	}

	if !utils.AllDistinct(Moduli) {
		return nil, fmt.Errorf("invalid moduli chain: moduli must be pairwise distinct: %w", ErrParameterMismatch)
	}

	r = &Ring{}
	r.level = len(Moduli) - 1
	r.SubRings = make([]*SubRing, len(Moduli))

	for i, qi := range Moduli {

		if r.SubRings[i], err = newSubRing(m, qi); err != nil {
			return nil, err
		}

		if err = r.SubRings[i].GenerateNTTConstants(); err != nil {
			return nil, err
		}
	}

	r.ModulusAtLevel = make([]*big.Int, len(Moduli))
	r.ModulusAtLevel[0] = bignum.NewInt(Moduli[0])
	for i := 1; i < len(Moduli); i++ {
		r.ModulusAtLevel[i] = new(big.Int).Mul(r.ModulusAtLevel[i-1], bignum.NewInt(Moduli[i]))
	}

	r.RescaleConstants = make([][]uint64, len(Moduli))
	for l := 1; l < len(Moduli); l++ {
		r.RescaleConstants[l] = make([]uint64, l)
		for i := 0; i < l; i++ {
			if r.RescaleConstants[l][i], err = ModInverse(Moduli[l], Moduli[i]); err != nil {
				return nil, err
			}
		}
	}

	return
}

// N returns the ring degree, i.e. phi(m).
func (r *Ring) N() int {
	return r.SubRings[0].N
}

// CyclotomicOrder returns the cyclotomic order m of the ring.
func (r *Ring) CyclotomicOrder() int {
	return r.SubRings[0].CyclotomicOrder
}

// NthRoot returns the order of the roots of unity used by the NTT of the ring.
func (r *Ring) NthRoot() uint64 {
	return r.SubRings[0].NthRoot
}

// IsPowerOfTwo returns true if the cyclotomic order of the ring is a power of two.
func (r *Ring) IsPowerOfTwo() bool {
	return r.SubRings[0].IsPowerOfTwo()
}

// Totient returns the integers in [1, m) coprime with m, in the order of the
// evaluations of the NTT of a ring with arbitrary cyclotomic order.
// Returns nil for power-of-two rings.
func (r *Ring) Totient() []int {
	return r.SubRings[0].totient
}

// Level returns the level of the current ring.
func (r *Ring) Level() int {
	return r.level
}

// MaxLevel returns the maximum level allowed by the ring (#NbModuli -1).
func (r *Ring) MaxLevel() int {
	return len(r.SubRings) - 1
}

// AtLevel returns an instance of the target ring that operates at the target level.
// This instance is thread safe and can be use concurrently with the base ring.
func (r *Ring) AtLevel(level int) *Ring {

	if level < 0 || level > r.MaxLevel() {
		panic(fmt.Errorf("cannot AtLevel: level=%d must be between 0 and %d: %w", level, r.MaxLevel(), ErrParameterMismatch))
	}

	return &Ring{
		SubRings:         r.SubRings,
		ModulusAtLevel:   r.ModulusAtLevel,
		RescaleConstants: r.RescaleConstants,
		level:            level,
	}
}

// ModuliChain returns the list of the primes in the modulus chain.
func (r *Ring) ModuliChain() (moduli []uint64) {
	moduli = make([]uint64, len(r.SubRings))
	for i := range r.SubRings {
		moduli[i] = r.SubRings[i].Modulus
	}
	return
}

// ModuliChainLength returns the number of primes in the RNS basis of the ring.
func (r *Ring) ModuliChainLength() int {
	return len(r.SubRings)
}

// Modulus returns the product of the moduli up to the current level of the ring.
func (r *Ring) Modulus() *big.Int {
	return new(big.Int).Set(r.ModulusAtLevel[r.level])
}

// NewPoly creates a new polynomial with all coefficients set to 0 at the level of the ring.
func (r *Ring) NewPoly() *Poly {
	return NewPoly(r.N(), r.level)
}

// Equal checks if p1 = p2 in the given Ring, at the level of the ring.
func (r *Ring) Equal(p1, p2 *Poly) bool {

	if p1.Level() < r.level || p2.Level() < r.level || p1.Format != p2.Format {
		return false
	}

	for i := 0; i <= r.level; i++ {
		if !utils.EqualSlice(p1.Coeffs[i][:r.N()], p2.Coeffs[i][:r.N()]) {
			return false
		}
	}

	return true
}

// String returns a short description of the ring.
func (r *Ring) String() string {
	return fmt.Sprintf("m=%d/N=%d/Qi=%d", r.CyclotomicOrder(), r.N(), r.level+1)
}
