package ring

import (
	"fmt"
	"math/big"

	"github.com/rnslab/dcrt/utils/bignum"
)

// checkOperands returns the common level of the operands, or an error if an operand is empty
// or if the operands are not defined over the same towers of the ring.
func (r *Ring) checkOperands(op string, polys ...*Poly) (level int, err error) {

	for i, p := range polys {

		if p == nil || p.Level() < 0 {
			return -1, fmt.Errorf("cannot %s: operand %d: %w", op, i, ErrEmptyPolynomial)
		}

		if p.N() != r.N() {
			return -1, fmt.Errorf("cannot %s: operand %d has degree %d but ring has degree %d: %w", op, i, p.N(), r.N(), ErrParameterMismatch)
		}

		if i == 0 {
			level = p.Level()
		} else if p.Level() != level {
			return -1, fmt.Errorf("cannot %s: operand %d has %d towers but operand 0 has %d: %w", op, i, p.Level()+1, level+1, ErrParameterMismatch)
		}
	}

	if level > r.MaxLevel() {
		return -1, fmt.Errorf("cannot %s: operands have %d towers but ring has %d: %w", op, level+1, r.MaxLevel()+1, ErrParameterMismatch)
	}

	return
}

// checkFormat returns an error if one of the operands is not in the given format.
func checkFormat(op string, format Format, polys ...*Poly) error {
	for i, p := range polys {
		if p.Format != format {
			return fmt.Errorf("cannot %s: operand %d is in %s format but %s is required: %w", op, i, p.Format, format, ErrWrongFormat)
		}
	}
	return nil
}

// Add evaluates p3 = p1 + p2 coefficient-wise in the ring.
// p1 and p2 must be in the same format.
func (r *Ring) Add(p1, p2, p3 *Poly) (err error) {

	level, err := r.checkOperands("Add", p1, p2, p3)
	if err != nil {
		return
	}

	if err = checkFormat("Add", p1.Format, p2); err != nil {
		return
	}

	p3.Format = p1.Format

	return r.forEachTower(level, func(i int, s *SubRing) error {
		addvec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], s.Modulus)
		return nil
	})
}

// Sub evaluates p3 = p1 - p2 coefficient-wise in the ring.
// p1 and p2 must be in the same format.
func (r *Ring) Sub(p1, p2, p3 *Poly) (err error) {

	level, err := r.checkOperands("Sub", p1, p2, p3)
	if err != nil {
		return
	}

	if err = checkFormat("Sub", p1.Format, p2); err != nil {
		return
	}

	p3.Format = p1.Format

	return r.forEachTower(level, func(i int, s *SubRing) error {
		subvec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], s.Modulus)
		return nil
	})
}

// Neg evaluates p2 = -p1 coefficient-wise in the ring.
func (r *Ring) Neg(p1, p2 *Poly) (err error) {

	level, err := r.checkOperands("Neg", p1, p2)
	if err != nil {
		return
	}

	p2.Format = p1.Format

	return r.forEachTower(level, func(i int, s *SubRing) error {
		negvec(p1.Coeffs[i], p2.Coeffs[i], s.Modulus)
		return nil
	})
}

// MulCoeffs evaluates p3 = p1 * p2 coefficient-wise in the ring, which is
// the polynomial product when both operands are in the Evaluation format.
func (r *Ring) MulCoeffs(p1, p2, p3 *Poly) (err error) {

	level, err := r.checkOperands("MulCoeffs", p1, p2, p3)
	if err != nil {
		return
	}

	if err = checkFormat("MulCoeffs", Evaluation, p1, p2); err != nil {
		return
	}

	p3.Format = Evaluation

	return r.forEachTower(level, func(i int, s *SubRing) error {
		mulcoeffsvec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], s.Modulus, s.BRedConstant)
		return nil
	})
}

// MulCoeffsThenAdd evaluates p3 = p3 + p1 * p2 coefficient-wise in the ring.
// All operands must be in the Evaluation format.
func (r *Ring) MulCoeffsThenAdd(p1, p2, p3 *Poly) (err error) {

	level, err := r.checkOperands("MulCoeffsThenAdd", p1, p2, p3)
	if err != nil {
		return
	}

	if err = checkFormat("MulCoeffsThenAdd", Evaluation, p1, p2, p3); err != nil {
		return
	}

	return r.forEachTower(level, func(i int, s *SubRing) error {
		mulcoeffsthenaddvec(p1.Coeffs[i], p2.Coeffs[i], p3.Coeffs[i], s.Modulus, s.BRedConstant)
		return nil
	})
}

// MulScalar evaluates p2 = p1 * scalar coefficient-wise in the ring.
func (r *Ring) MulScalar(p1 *Poly, scalar uint64, p2 *Poly) (err error) {

	level, err := r.checkOperands("MulScalar", p1, p2)
	if err != nil {
		return
	}

	p2.Format = p1.Format

	return r.forEachTower(level, func(i int, s *SubRing) error {
		mulscalarvec(p1.Coeffs[i], BRedAdd(scalar, s.Modulus, s.BRedConstant), p2.Coeffs[i], s.Modulus, s.BRedConstant)
		return nil
	})
}

// MulScalarBigint evaluates p2 = p1 * scalar coefficient-wise in the ring.
func (r *Ring) MulScalarBigint(p1 *Poly, scalar *big.Int, p2 *Poly) (err error) {

	level, err := r.checkOperands("MulScalarBigint", p1, p2)
	if err != nil {
		return
	}

	p2.Format = p1.Format

	return r.forEachTower(level, func(i int, s *SubRing) error {
		si := new(big.Int).Mod(scalar, bignum.NewInt(s.Modulus)).Uint64()
		mulscalarvec(p1.Coeffs[i], si, p2.Coeffs[i], s.Modulus, s.BRedConstant)
		return nil
	})
}

// MulScalarThenAdd evaluates p2 = p2 + p1 * scalar coefficient-wise in the ring.
func (r *Ring) MulScalarThenAdd(p1 *Poly, scalar uint64, p2 *Poly) (err error) {

	level, err := r.checkOperands("MulScalarThenAdd", p1, p2)
	if err != nil {
		return
	}

	if err = checkFormat("MulScalarThenAdd", p1.Format, p2); err != nil {
		return
	}

	return r.forEachTower(level, func(i int, s *SubRing) error {
		mulscalarthenaddvec(p1.Coeffs[i], BRedAdd(scalar, s.Modulus, s.BRedConstant), p2.Coeffs[i], s.Modulus, s.BRedConstant)
		return nil
	})
}

// MulRNSScalarThenAdd evaluates p2 = p2 + p1 * scalar, where scalar is given in the RNS basis:
// the i-th tower of p1 is multiplied by scalar[i], which must be smaller than q_i.
func (r *Ring) MulRNSScalarThenAdd(p1 *Poly, scalar []uint64, p2 *Poly) (err error) {

	level, err := r.checkOperands("MulRNSScalarThenAdd", p1, p2)
	if err != nil {
		return
	}

	if err = checkFormat("MulRNSScalarThenAdd", p1.Format, p2); err != nil {
		return
	}

	if len(scalar) < level+1 {
		return fmt.Errorf("cannot MulRNSScalarThenAdd: scalar has %d residues but operands have %d towers: %w", len(scalar), level+1, ErrParameterMismatch)
	}

	return r.forEachTower(level, func(i int, s *SubRing) error {
		if scalar[i] != 0 {
			mulscalarthenaddvec(p1.Coeffs[i], scalar[i], p2.Coeffs[i], s.Modulus, s.BRedConstant)
		}
		return nil
	})
}

// AddScalar evaluates p2 = p1 + scalar, where the scalar is added to every coefficient.
// In the Coefficient format this is not the addition of a constant polynomial, in the
// Evaluation format it is.
func (r *Ring) AddScalar(p1 *Poly, scalar uint64, p2 *Poly) (err error) {

	level, err := r.checkOperands("AddScalar", p1, p2)
	if err != nil {
		return
	}

	p2.Format = p1.Format

	return r.forEachTower(level, func(i int, s *SubRing) error {
		addscalarvec(p1.Coeffs[i], BRedAdd(scalar, s.Modulus, s.BRedConstant), p2.Coeffs[i], s.Modulus)
		return nil
	})
}

// NTT evaluates p2 = NTT(p1). p1 must be in the Coefficient format.
func (r *Ring) NTT(p1, p2 *Poly) (err error) {

	level, err := r.checkOperands("NTT", p1, p2)
	if err != nil {
		return
	}

	if err = checkFormat("NTT", Coefficient, p1); err != nil {
		return
	}

	if err = r.forEachTower(level, func(i int, s *SubRing) error {
		return s.NTT(p1.Coeffs[i], p2.Coeffs[i])
	}); err != nil {
		return
	}

	p2.Format = Evaluation

	return
}

// INTT evaluates p2 = INTT(p1). p1 must be in the Evaluation format.
func (r *Ring) INTT(p1, p2 *Poly) (err error) {

	level, err := r.checkOperands("INTT", p1, p2)
	if err != nil {
		return
	}

	if err = checkFormat("INTT", Evaluation, p1); err != nil {
		return
	}

	if err = r.forEachTower(level, func(i int, s *SubRing) error {
		return s.INTT(p1.Coeffs[i], p2.Coeffs[i])
	}); err != nil {
		return
	}

	p2.Format = Coefficient

	return
}

// SetFormat switches the polynomial to the target format, applying the forward or inverse
// transform on every tower. Does nothing if the polynomial is already in the target format.
func (r *Ring) SetFormat(p *Poly, format Format) (err error) {

	if _, err = r.checkOperands("SetFormat", p); err != nil {
		return
	}

	if p.Format == format {
		return
	}

	switch format {
	case Evaluation:
		return r.NTT(p, p)
	case Coefficient:
		return r.INTT(p, p)
	default:
		return fmt.Errorf("cannot SetFormat: invalid format %s: %w", format, ErrWrongFormat)
	}
}
