package ring

import (
	"fmt"
	"math/bits"

	"github.com/rnslab/dcrt/utils"
)

// GaloisGen is an integer of order N/2 modulo 2N that spans Z_2N with the integer -1.
// The j-th ring automorphism takes the root zeta to zeta^(5j).
const GaloisGen uint64 = 5

// GaloisElement returns GaloisGen^k mod 2N, the Galois element of the rotation by k
// positions of a power-of-two ring. Negative k are rotations to the right.
func (r *Ring) GaloisElement(k int) (galEl uint64, err error) {

	if !r.IsPowerOfTwo() {
		return 0, fmt.Errorf("cannot GaloisElement: the rotation group is only defined for power-of-two rings: %w", ErrParameterMismatch)
	}

	NthRoot := r.NthRoot()
	order := NthRoot >> 2

	e := uint64(k) & (order - 1)
	if k < 0 {
		e = (order - uint64(-k)&(order-1)) & (order - 1)
	}

	return ModExp(GaloisGen, e, NthRoot), nil
}

// GaloisElementInverse returns galEl^-1 mod m.
func (r *Ring) GaloisElementInverse(galEl uint64) (uint64, error) {
	m := uint64(r.CyclotomicOrder())
	inv, err := ModInverse(galEl%m, m)
	if err != nil {
		return 0, fmt.Errorf("cannot GaloisElementInverse: %w", err)
	}
	return inv, nil
}

// checkGaloisElement returns an error if k is not coprime with the cyclotomic order.
func (r *Ring) checkGaloisElement(op string, k uint64) error {
	m := uint64(r.CyclotomicOrder())
	if utils.GCD(k%m, m) != 1 {
		return fmt.Errorf("cannot %s: automorphism index %d is not coprime with m=%d: %w", op, k, m, ErrParameterMismatch)
	}
	return nil
}

// AutomorphismNTTIndex computes the look-up table for the automorphism X^i -> X^(i*k) in the Evaluation format:
// the automorphism is evaluated as p2[i] = p1[index[i]].
func (r *Ring) AutomorphismNTTIndex(k uint64) (index []uint64, err error) {

	if err = r.checkGaloisElement("AutomorphismNTTIndex", k); err != nil {
		return
	}

	N := r.N()
	index = make([]uint64, N)

	if r.IsPowerOfTwo() {

		mask := r.NthRoot() - 1
		logN := bits.Len64(uint64(N)) - 1

		for i := 0; i < N; i++ {
			tmp1 := 2*utils.BitReverse64(i, logN) + 1
			tmp2 := ((k*tmp1)&mask - 1) >> 1
			index[i] = utils.BitReverse64(tmp2, logN)
		}

		return
	}

	m := uint64(r.CyclotomicOrder())
	totient := r.Totient()

	position := make(map[uint64]uint64, N)
	for i, t := range totient {
		position[uint64(t)] = uint64(i)
	}

	for i, t := range totient {
		index[i] = position[ModMul(uint64(t), k%m, m)]
	}

	return
}

// AutomorphismTransform applies the automorphism X^i -> X^(i*k) on p1 and writes the result on p2.
// k must be coprime with the cyclotomic order. Works in both formats, p1 and p2 can be the same polynomial.
func (r *Ring) AutomorphismTransform(p1 *Poly, k uint64, p2 *Poly) (err error) {

	if err = r.checkGaloisElement("AutomorphismTransform", k); err != nil {
		return
	}

	if p1.Format == Evaluation {
		index, err := r.AutomorphismNTTIndex(k)
		if err != nil {
			return err
		}
		return r.AutomorphismTransformWithIndex(p1, index, p2)
	}

	level, err := r.checkOperands("AutomorphismTransform", p1, p2)
	if err != nil {
		return
	}

	N := r.N()
	m := uint64(r.CyclotomicOrder())

	var phi [][]uint64
	if !r.IsPowerOfTwo() {
		phi = make([][]uint64, level+1)
		for i, s := range r.SubRings[:level+1] {
			phi[i] = cyclotomicPolynomialModQ(int(m), s.Modulus)
		}
	}

	if err = r.forEachTower(level, func(i int, s *SubRing) error {

		q := s.Modulus
		c1 := p1.Coeffs[i]

		if r.IsPowerOfTwo() {

			// X^j -> X^(jk mod 2N) with X^N = -1
			mask := m - 1
			tmp := make([]uint64, N)
			for j := 0; j < N; j++ {
				idx := (uint64(j) * k) & mask
				if idx < uint64(N) {
					tmp[idx] = c1[j]
				} else {
					tmp[idx-uint64(N)] = ModNeg(c1[j], q)
				}
			}
			copy(p2.Coeffs[i], tmp)

			return nil
		}

		// X^j -> X^(jk mod m) with X^m = 1, then reduction modulo Phi_m
		tmp := make([]uint64, m)
		km := k % m
		for j := 0; j < N; j++ {
			idx := ModMul(uint64(j), km, m)
			tmp[idx] = ModAdd(tmp[idx], c1[j], q)
		}

		reduceModCyclotomic(tmp, phi[i], q, s.BRedConstant)

		copy(p2.Coeffs[i], tmp[:N])

		return nil

	}); err != nil {
		return
	}

	p2.Format = Coefficient

	return
}

// AutomorphismTransformWithIndex applies the automorphism described by the precomputed table
// index (see AutomorphismNTTIndex) on p1 in the Evaluation format and writes the result on p2.
func (r *Ring) AutomorphismTransformWithIndex(p1 *Poly, index []uint64, p2 *Poly) (err error) {

	level, err := r.checkOperands("AutomorphismTransformWithIndex", p1, p2)
	if err != nil {
		return
	}

	if err = checkFormat("AutomorphismTransformWithIndex", Evaluation, p1); err != nil {
		return
	}

	if len(index) != r.N() {
		return fmt.Errorf("cannot AutomorphismTransformWithIndex: index has %d entries but ring has degree %d: %w", len(index), r.N(), ErrParameterMismatch)
	}

	if err = r.forEachTower(level, func(i int, s *SubRing) error {
		c1 := p1.Coeffs[i]
		tmp := make([]uint64, len(index))
		for j := range index {
			tmp[j] = c1[index[j]]
		}
		copy(p2.Coeffs[i], tmp)
		return nil
	}); err != nil {
		return
	}

	p2.Format = Evaluation

	return
}
