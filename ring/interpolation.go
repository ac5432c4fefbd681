package ring

import (
	"fmt"
	"math/big"

	"github.com/rnslab/dcrt/utils/bignum"
)

// crtReconstruction returns [Q/q_i * (Q/q_i)^-1 mod q_i] for each modulus up to level, together with Q.
func (r *Ring) crtReconstruction(level int) (crt []*big.Int, Q *big.Int, err error) {

	Q = r.ModulusAtLevel[level]

	crt = make([]*big.Int, level+1)

	for i, s := range r.SubRings[:level+1] {
		qi := bignum.NewInt(s.Modulus)
		QiHat := new(big.Int).Quo(Q, qi)
		QiHatInv, err := bignum.ModInverse(QiHat, qi)
		if err != nil {
			return nil, nil, err
		}
		crt[i] = QiHat.Mul(QiHat, QiHatInv)
	}

	return
}

// PolyToBigint reconstructs the coefficients of p1 in [0, Q) and writes them on coeffsBigint.
// gap defines coefficients X^{i*gap} that will be reconstructed.
// For example, if gap = 1, then all coefficients are reconstructed, while
// if gap = 2 then only coefficients X^{2*i} are reconstructed.
// p1 must be in the Coefficient format.
func (r *Ring) PolyToBigint(p1 *Poly, gap int, coeffsBigint []*big.Int) (err error) {

	level, err := r.checkOperands("PolyToBigint", p1)
	if err != nil {
		return
	}

	if err = checkFormat("PolyToBigint", Coefficient, p1); err != nil {
		return
	}

	if gap < 1 || len(coeffsBigint) < (r.N()+gap-1)/gap {
		return fmt.Errorf("cannot PolyToBigint: invalid gap=%d or output length=%d: %w", gap, len(coeffsBigint), ErrParameterMismatch)
	}

	crt, Q, err := r.crtReconstruction(level)
	if err != nil {
		return
	}

	tmp := new(big.Int)

	for i, j := 0, 0; j < r.N(); i, j = i+1, j+gap {

		if coeffsBigint[i] == nil {
			coeffsBigint[i] = new(big.Int)
		}

		coeffsBigint[i].SetUint64(0)

		for k := 0; k < level+1; k++ {
			coeffsBigint[i].Add(coeffsBigint[i], tmp.Mul(bignum.NewInt(p1.Coeffs[k][j]), crt[k]))
		}

		coeffsBigint[i].Mod(coeffsBigint[i], Q)
	}

	return
}

// PolyToBigintCentered reconstructs the coefficients of p1 in [-Q/2, Q/2) and writes them on coeffsBigint.
// See PolyToBigint for the role of gap.
func (r *Ring) PolyToBigintCentered(p1 *Poly, gap int, coeffsBigint []*big.Int) (err error) {

	if err = r.PolyToBigint(p1, gap, coeffsBigint); err != nil {
		return
	}

	Q := r.ModulusAtLevel[p1.Level()]
	QHalf := new(big.Int).Rsh(Q, 1)

	for i, j := 0, 0; j < r.N(); i, j = i+1, j+gap {
		if coeffsBigint[i].Cmp(QHalf) >= 0 {
			coeffsBigint[i].Sub(coeffsBigint[i], Q)
		}
	}

	return
}

// SetCoefficientsBigint sets the coefficients of p1 from an array of Int variables.
// The polynomial is set in the Coefficient format.
func (r *Ring) SetCoefficientsBigint(coeffs []*big.Int, p1 *Poly) (err error) {

	level, err := r.checkOperands("SetCoefficientsBigint", p1)
	if err != nil {
		return
	}

	if len(coeffs) > r.N() {
		return fmt.Errorf("cannot SetCoefficientsBigint: %d coefficients for a ring of degree %d: %w", len(coeffs), r.N(), ErrParameterMismatch)
	}

	p1.Zero()

	QiBigint := new(big.Int)
	coeffTmp := new(big.Int)
	for i, s := range r.SubRings[:level+1] {
		QiBigint.SetUint64(s.Modulus)
		for j, coeff := range coeffs {
			p1.Coeffs[i][j] = coeffTmp.Mod(coeff, QiBigint).Uint64()
		}
	}

	p1.Format = Coefficient

	return
}

// SetCoefficientsInt64 sets the coefficients of p1 from small signed integers.
// The polynomial is set in the Coefficient format.
func (r *Ring) SetCoefficientsInt64(coeffs []int64, p1 *Poly) (err error) {
	bigCoeffs := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		bigCoeffs[i] = big.NewInt(c)
	}
	return r.SetCoefficientsBigint(bigCoeffs, p1)
}
