package ring

import (
	"fmt"
)

// DivRoundByLastModulus divides the polynomial by its last modulus q_l and rounds the result:
// p <- round(p/q_l) mod q_0*...*q_{l-1}. The last tower is dropped.
// Works in both formats, the output keeps the format of the input.
func (r *Ring) DivRoundByLastModulus(p *Poly) (err error) {

	level, err := r.checkOperands("DivRoundByLastModulus", p)
	if err != nil {
		return
	}

	if level == 0 {
		return fmt.Errorf("cannot DivRoundByLastModulus: polynomial has a single tower: %w", ErrParameterMismatch)
	}

	sLast := r.SubRings[level]
	qLast := sLast.Modulus
	half := qLast >> 1

	// r_L = (x + floor(q_L/2)) mod q_L in the coefficient domain
	last := make([]uint64, r.N())
	if p.Format == Evaluation {
		if err = sLast.INTT(p.Coeffs[level], last); err != nil {
			return
		}
	} else {
		copy(last, p.Coeffs[level])
	}

	addscalarvec(last, half, last, qLast)

	// p_i <- (p_i + floor(q_L/2) - r_L) * q_L^-1 mod q_i
	if err = r.forEachTower(level-1, func(i int, s *SubRing) error {

		qi := s.Modulus
		brc := s.BRedConstant

		buff := make([]uint64, len(last))
		reducevec(last, buff, qi, brc)

		if p.Format == Evaluation {
			if err := s.NTT(buff, buff); err != nil {
				return err
			}
		}

		halfi := BRedAdd(half, qi, brc)
		qLastInv := r.RescaleConstants[level][i]

		pi := p.Coeffs[i]
		for j := range pi {
			pi[j] = BRed(CRed(pi[j]+halfi, qi)+qi-buff[j], qLastInv, qi, brc)
		}

		return nil

	}); err != nil {
		return
	}

	p.Resize(level - 1)

	return
}

// ModReduce divides the polynomial by the product of its last towersToDrop moduli and rounds the result,
// i.e. it rescales the polynomial and drops towersToDrop towers.
// The result is exact modulo the remaining chain, up to the rounding of each division.
func (r *Ring) ModReduce(p *Poly, towersToDrop int) (err error) {

	level, err := r.checkOperands("ModReduce", p)
	if err != nil {
		return
	}

	if towersToDrop < 0 || towersToDrop > level {
		return fmt.Errorf("cannot ModReduce: cannot drop %d towers of a polynomial with %d towers: %w", towersToDrop, level+1, ErrParameterMismatch)
	}

	for i := 0; i < towersToDrop; i++ {
		if err = r.DivRoundByLastModulus(p); err != nil {
			return
		}
	}

	return
}

// DropLastElements removes the last n towers of the polynomial without rescaling it,
// which maps p mod Q to p mod Q/(q_{l-n+1}...q_l).
func (r *Ring) DropLastElements(p *Poly, n int) (err error) {

	level, err := r.checkOperands("DropLastElements", p)
	if err != nil {
		return
	}

	if n < 0 || n > level {
		return fmt.Errorf("cannot DropLastElements: cannot drop %d towers of a polynomial with %d towers: %w", n, level+1, ErrParameterMismatch)
	}

	p.Resize(level - n)

	return
}
