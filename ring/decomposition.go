package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/rnslab/dcrt/utils/bignum"
)

// CRTDecomposeDigits returns the number of digits produced by CRTDecompose
// on a polynomial with level+1 towers.
func (r *Ring) CRTDecomposeDigits(level, baseBits int) (n int) {
	if baseBits == 0 {
		return level + 1
	}
	for _, s := range r.SubRings[:level+1] {
		n += (bits.Len64(s.Modulus) + baseBits - 1) / baseBits
	}
	return
}

// CRTDecompose decomposes p along its RNS towers. If baseBits is zero, the i-th digit is the
// i-th tower of p (in the Coefficient format) lifted to every modulus of the chain.
// Otherwise, each tower is further decomposed in base 2^baseBits, the digits of the
// i-th tower being ordered from the least significant.
// Digits are returned in the Evaluation format. p is not modified.
func (r *Ring) CRTDecompose(p *Poly, baseBits int) (digits []*Poly, err error) {

	level, err := r.checkOperands("CRTDecompose", p)
	if err != nil {
		return
	}

	if baseBits < 0 || baseBits > MaxModuliSize {
		return nil, fmt.Errorf("cannot CRTDecompose: invalid baseBits=%d: %w", baseBits, ErrParameterMismatch)
	}

	pCoeff := p
	if p.Format == Evaluation {
		pCoeff = NewPoly(r.N(), level)
		if err = r.INTT(p, pCoeff); err != nil {
			return
		}
	}

	digits = make([]*Poly, 0, r.CRTDecomposeDigits(level, baseBits))

	for i, si := range r.SubRings[:level+1] {

		tower := pCoeff.Coeffs[i]

		if baseBits == 0 {

			digit := NewPoly(r.N(), level)

			if err = r.forEachTower(level, func(j int, s *SubRing) error {
				if j == i {
					copy(digit.Coeffs[j], tower)
				} else {
					reducevec(tower, digit.Coeffs[j], s.Modulus, s.BRedConstant)
				}
				return s.NTT(digit.Coeffs[j], digit.Coeffs[j])
			}); err != nil {
				return nil, err
			}

			digit.Format = Evaluation
			digits = append(digits, digit)

			continue
		}

		nbDigits := (bits.Len64(si.Modulus) + baseBits - 1) / baseBits
		mask := uint64(1)<<baseBits - 1

		for k := 0; k < nbDigits; k++ {

			digit := NewPoly(r.N(), level)
			shift := uint(k * baseBits)

			if err = r.forEachTower(level, func(j int, s *SubRing) error {
				dj := digit.Coeffs[j]
				for l, c := range tower {
					dj[l] = BRedAdd((c>>shift)&mask, s.Modulus, s.BRedConstant)
				}
				return s.NTT(dj, dj)
			}); err != nil {
				return nil, err
			}

			digit.Format = Evaluation
			digits = append(digits, digit)
		}
	}

	return
}

// BaseDecomposeDigits returns the number of digits produced by BaseDecompose
// on a polynomial with level+1 towers.
func (r *Ring) BaseDecomposeDigits(level, baseBits int) int {
	return (r.ModulusAtLevel[level].BitLen() + baseBits - 1) / baseBits
}

// BaseDecompose decomposes the coefficients of p, taken as integers in [0, Q), in base 2^baseBits.
// The k-th digit holds the k-th least significant digit of every coefficient.
// Digits are returned in the Evaluation format. p is not modified.
func (r *Ring) BaseDecompose(p *Poly, baseBits int) (digits []*Poly, err error) {

	level, err := r.checkOperands("BaseDecompose", p)
	if err != nil {
		return
	}

	if baseBits <= 0 || baseBits > MaxModuliSize {
		return nil, fmt.Errorf("cannot BaseDecompose: invalid baseBits=%d: %w", baseBits, ErrParameterMismatch)
	}

	pCoeff := p
	if p.Format == Evaluation {
		pCoeff = NewPoly(r.N(), level)
		if err = r.INTT(p, pCoeff); err != nil {
			return
		}
	}

	coeffs := make([]*big.Int, r.N())
	if err = r.PolyToBigint(pCoeff, 1, coeffs); err != nil {
		return
	}

	nbDigits := r.BaseDecomposeDigits(level, baseBits)
	mask := new(big.Int).Sub(new(big.Int).Lsh(bignum.NewInt(1), uint(baseBits)), bignum.NewInt(1))

	digits = make([]*Poly, nbDigits)

	digitCoeffs := make([]*big.Int, r.N())
	for j := range digitCoeffs {
		digitCoeffs[j] = new(big.Int)
	}

	for k := 0; k < nbDigits; k++ {

		for j, c := range coeffs {
			digitCoeffs[j].Rsh(c, uint(k*baseBits)).And(digitCoeffs[j], mask)
		}

		digits[k] = NewPoly(r.N(), level)

		if err = r.SetCoefficientsBigint(digitCoeffs, digits[k]); err != nil {
			return
		}

		if err = r.NTT(digits[k], digits[k]); err != nil {
			return
		}
	}

	return
}

// PowersOfBase returns the polynomials p * 2^(k*baseBits) for k in [0, BaseDecomposeDigits),
// such that sum_k BaseDecompose(a)[k] * PowersOfBase(b)[k] = a * b.
// The outputs are in the format of p.
func (r *Ring) PowersOfBase(p *Poly, baseBits int) (powers []*Poly, err error) {

	level, err := r.checkOperands("PowersOfBase", p)
	if err != nil {
		return
	}

	if baseBits <= 0 || baseBits > MaxModuliSize {
		return nil, fmt.Errorf("cannot PowersOfBase: invalid baseBits=%d: %w", baseBits, ErrParameterMismatch)
	}

	powers = make([]*Poly, r.BaseDecomposeDigits(level, baseBits))

	pow := bignum.NewInt(1)
	for k := range powers {
		powers[k] = NewPoly(r.N(), level)
		if err = r.MulScalarBigint(p, pow, powers[k]); err != nil {
			return
		}
		pow.Lsh(pow, uint(baseBits))
	}

	return
}
