package ring

import (
	"fmt"
	"math/bits"

	"github.com/rnslab/dcrt/utils"
)

// SubRing is a struct storing precomputation
// for fast modular reduction and NTT for
// a given modulus.
type SubRing struct {
	ntt NumberTheoreticTransformer

	// Polynomial nb.Coefficients, i.e. phi(m)
	N int

	// Cyclotomic order m
	CyclotomicOrder int

	// Order of the roots of unity required by the transform:
	// 2N if m is a power of two, lcm(2m, 2M) otherwise where M is
	// the size of the convolution used by the Bluestein transform.
	NthRoot uint64

	// Modulus
	Modulus uint64

	// Unique factors of Modulus-1
	Factors []uint64

	// 2^bit_length(Modulus) - 1
	Mask uint64

	// Fast reduction constants
	BRedConstant [2]uint64 // Barrett Reduction
	MRedConstant uint64    // Montgomery Reduction

	totient []int

	*NTTTable // NTT related constants
}

// NTTTable store all the constants that are specifically tied to the NTT.
type NTTTable struct {
	PrimitiveRoot uint64   // 2N-th primitive root
	RootsForward  []uint64 // powers of the 2N-th primitive root in Montgomery form (in bit-reversed order)
	RootsBackward []uint64 // powers of the inverse of the 2N-th primitive root in Montgomery form (in bit-reversed order)
	NInv          uint64   // [N^-1] mod Modulus in Montgomery form
}

// NewSubRing creates a new SubRing for the power-of-two cyclotomic ring Z_q[X]/(X^N+1).
// The NTT tables are not generated, see GenerateNTTConstants.
func NewSubRing(N int, Modulus uint64) (s *SubRing, err error) {

	if !utils.IsPowerOfTwo(N) || N < 2 {
		return nil, fmt.Errorf("invalid ring degree: N=%d must be a power of two greater than one: %w", N, ErrParameterMismatch)
	}

	return newSubRing(2*N, Modulus)
}

// NewSubRingFromCyclotomicOrder creates a new SubRing for the cyclotomic ring Z_q[X]/(Phi_m(X)) of arbitrary order m.
// The NTT tables are not generated, see GenerateNTTConstants.
func NewSubRingFromCyclotomicOrder(m int, Modulus uint64) (s *SubRing, err error) {
	if m < 3 {
		return nil, fmt.Errorf("invalid cyclotomic order: m=%d must be at least 3: %w", m, ErrParameterMismatch)
	}
	return newSubRing(m, Modulus)
}

func newSubRing(m int, Modulus uint64) (s *SubRing, err error) {

	if Modulus < 2 || bits.Len64(Modulus) > MaxModuliSize {
		return nil, fmt.Errorf("invalid modulus: %d must be between 2 and 2^%d: %w", Modulus, MaxModuliSize, ErrParameterMismatch)
	}

	s = &SubRing{}
	s.CyclotomicOrder = m
	s.Modulus = Modulus
	s.Mask = (1 << uint64(bits.Len64(Modulus-1))) - 1

	if utils.IsPowerOfTwo(m) {
		s.N = m >> 1
		s.NthRoot = uint64(m)
	} else {
		s.totient = utils.Totient(m)
		s.N = len(s.totient)
		M := bluesteinSize(m)
		s.NthRoot = uint64(utils.LCM(2*m, 2*M))
	}

	s.BRedConstant = GenBRedConstant(Modulus)
	s.MRedConstant = GenMRedConstant(Modulus)

	return
}

// bluesteinSize returns the smallest power of two greater or equal to 2m-1.
func bluesteinSize(m int) int {
	return 1 << bits.Len64(uint64(2*m-2))
}

// IsPowerOfTwo returns true if the SubRing uses the power-of-two nega-cyclic transform.
func (s *SubRing) IsPowerOfTwo() bool {
	return s.totient == nil
}

// GenerateNTTConstants checks that Modulus is a prime congruent to 1 mod NthRoot
// and generates the NTT constants of the SubRing.
func (s *SubRing) GenerateNTTConstants() (err error) {

	if s.N == 0 || s.Modulus == 0 {
		return fmt.Errorf("invalid t parameters (missing): %w", ErrParameterMismatch)
	}

	Modulus := s.Modulus
	NthRoot := s.NthRoot

	if !IsPrime(Modulus) {
		return fmt.Errorf("invalid modulus: %d is not prime: %w", Modulus, ErrParameterMismatch)
	}

	if Modulus%NthRoot != 1 {
		return fmt.Errorf("invalid modulus: %d != 1 mod NthRoot=%d: %w", Modulus, NthRoot, ErrParameterMismatch)
	}

	g, factors, err := PrimitiveRoot(Modulus, s.Factors)
	if err != nil {
		return err
	}

	s.Factors = factors

	// Size of the nega-cyclic transform
	n := s.N
	if !s.IsPowerOfTwo() {
		n = bluesteinSize(s.CyclotomicOrder)
	}

	s.NTTTable = newNTTTable(g, n, Modulus, s.MRedConstant, s.BRedConstant)

	if s.IsPowerOfTwo() {
		s.ntt = NewNumberTheoreticTransformerStandard(s, n)
	} else {
		m := uint64(s.CyclotomicOrder)
		w := ModExp(g, (Modulus-1)/(2*m), Modulus)
		s.ntt = newNumberTheoreticTransformerBluestein(s, s.CyclotomicOrder, n, w)
	}

	return
}

// newNTTTable generates the tables of the nega-cyclic NTT of size n given
// a generator g of Z_q^*.
func newNTTTable(g uint64, n int, Modulus, mredconstant uint64, bredconstant [2]uint64) (t *NTTTable) {

	NthRoot := uint64(2 * n)

	t = &NTTTable{}

	t.PrimitiveRoot = g

	logN := bits.Len64(uint64(n)) - 1

	// N^(-1) mod Q in Montgomery form
	t.NInv = MForm(ModExp(uint64(n), Modulus-2, Modulus), Modulus, bredconstant)

	// Psi and PsiInv in Montgomery form
	PsiMont := MForm(ModExp(g, (Modulus-1)/NthRoot, Modulus), Modulus, bredconstant)
	PsiInvMont := MForm(ModExp(g, Modulus-((Modulus-1)/NthRoot)-1, Modulus), Modulus, bredconstant)

	t.RootsForward = make([]uint64, n)
	t.RootsBackward = make([]uint64, n)

	t.RootsForward[0] = MForm(1, Modulus, bredconstant)
	t.RootsBackward[0] = MForm(1, Modulus, bredconstant)

	// RootsForward[brv(j)] = Psi^j and RootsBackward[brv(j)] = Psi^-j
	for j := uint64(1); j < uint64(n); j++ {

		indexReversePrev := utils.BitReverse64(j-1, logN)
		indexReverseNext := utils.BitReverse64(j, logN)

		t.RootsForward[indexReverseNext] = MRed(t.RootsForward[indexReversePrev], PsiMont, Modulus, mredconstant)
		t.RootsBackward[indexReverseNext] = MRed(t.RootsBackward[indexReversePrev], PsiInvMont, Modulus, mredconstant)
	}

	return
}

// NTT evaluates p2 = NTT(p1).
func (s *SubRing) NTT(p1, p2 []uint64) error {
	if s.ntt == nil {
		return fmt.Errorf("cannot NTT: modulus %d: %w", s.Modulus, ErrNotPrecomputed)
	}
	s.ntt.Forward(p1, p2)
	return nil
}

// INTT evaluates p2 = INTT(p1).
func (s *SubRing) INTT(p1, p2 []uint64) error {
	if s.ntt == nil {
		return fmt.Errorf("cannot INTT: modulus %d: %w", s.Modulus, ErrNotPrecomputed)
	}
	s.ntt.Backward(p1, p2)
	return nil
}
