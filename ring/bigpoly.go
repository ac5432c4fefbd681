package ring

import (
	"fmt"
	"math/big"

	"github.com/rnslab/dcrt/utils"
	"github.com/rnslab/dcrt/utils/bignum"
)

// BigPoly is a polynomial of Z_Q[X]/(Phi_m(X)) for a single arbitrary-precision modulus Q.
// It is the one-tower counterpart of Poly: it is only defined in the Coefficient format, operations
// that require an NTT-friendly modulus return ErrNotImplementedForElement.
type BigPoly struct {
	Coeffs          []*big.Int
	Modulus         *big.Int
	CyclotomicOrder int
}

// NewBigPoly allocates a zero BigPoly of Z_Q[X]/(Phi_m(X)).
func NewBigPoly(m int, Q *big.Int) *BigPoly {

	N := len(CyclotomicPolynomial(m)) - 1

	coeffs := make([]*big.Int, N)
	for i := range coeffs {
		coeffs[i] = new(big.Int)
	}

	return &BigPoly{Coeffs: coeffs, Modulus: new(big.Int).Set(Q), CyclotomicOrder: m}
}

// ToBigPoly returns the CRT reconstruction of p as a BigPoly modulo the product of its moduli.
func (r *Ring) ToBigPoly(p *Poly) (bp *BigPoly, err error) {

	pCoeff := p
	if p.Format == Evaluation {
		pCoeff = NewPoly(r.N(), p.Level())
		if err = r.INTT(p, pCoeff); err != nil {
			return
		}
	}

	bp = NewBigPoly(r.CyclotomicOrder(), r.ModulusAtLevel[p.Level()])

	if err = r.PolyToBigint(pCoeff, 1, bp.Coeffs); err != nil {
		return nil, err
	}

	return
}

// FromBigPoly sets p, in the Coefficient format, to the RNS decomposition of bp.
func (r *Ring) FromBigPoly(bp *BigPoly, p *Poly) (err error) {
	if bp.CyclotomicOrder != r.CyclotomicOrder() {
		return fmt.Errorf("cannot FromBigPoly: cyclotomic orders %d and %d differ: %w", bp.CyclotomicOrder, r.CyclotomicOrder(), ErrParameterMismatch)
	}
	return r.SetCoefficientsBigint(bp.Coeffs, p)
}

// N returns the number of coefficients of the polynomial.
func (p *BigPoly) N() int {
	return len(p.Coeffs)
}

// Level returns 0, a BigPoly has a single modulus.
func (p *BigPoly) Level() int {
	return 0
}

// CopyNew returns a deep copy of the polynomial.
func (p *BigPoly) CopyNew() *BigPoly {
	cpy := NewBigPoly(p.CyclotomicOrder, p.Modulus)
	for i := range p.Coeffs {
		cpy.Coeffs[i].Set(p.Coeffs[i])
	}
	return cpy
}

// Equal returns true if both polynomials have the same modulus and coefficients.
func (p *BigPoly) Equal(other *BigPoly) bool {

	if p.CyclotomicOrder != other.CyclotomicOrder || p.Modulus.Cmp(other.Modulus) != 0 || len(p.Coeffs) != len(other.Coeffs) {
		return false
	}

	for i := range p.Coeffs {
		if p.Coeffs[i].Cmp(other.Coeffs[i]) != 0 {
			return false
		}
	}

	return true
}

func (p *BigPoly) check(op string, others ...*BigPoly) error {
	for _, o := range others {
		if o.CyclotomicOrder != p.CyclotomicOrder || o.Modulus.Cmp(p.Modulus) != 0 {
			return fmt.Errorf("cannot %s: operands are defined over different rings: %w", op, ErrParameterMismatch)
		}
	}
	return nil
}

// Add evaluates out = p + other mod Q.
func (p *BigPoly) Add(other, out *BigPoly) error {
	if err := p.check("Add", other, out); err != nil {
		return err
	}
	for i := range out.Coeffs {
		out.Coeffs[i].Add(p.Coeffs[i], other.Coeffs[i]).Mod(out.Coeffs[i], p.Modulus)
	}
	return nil
}

// Sub evaluates out = p - other mod Q.
func (p *BigPoly) Sub(other, out *BigPoly) error {
	if err := p.check("Sub", other, out); err != nil {
		return err
	}
	for i := range out.Coeffs {
		out.Coeffs[i].Sub(p.Coeffs[i], other.Coeffs[i]).Mod(out.Coeffs[i], p.Modulus)
	}
	return nil
}

// Mul evaluates out = p * other mod (Q, Phi_m(X)) with the schoolbook algorithm.
func (p *BigPoly) Mul(other, out *BigPoly) error {

	if err := p.check("Mul", other, out); err != nil {
		return err
	}

	N := p.N()

	prod := make([]*big.Int, 2*N-1)
	for i := range prod {
		prod[i] = new(big.Int)
	}

	tmp := new(big.Int)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			prod[i+j].Add(prod[i+j], tmp.Mul(p.Coeffs[i], other.Coeffs[j]))
		}
	}

	p.reduce(prod, out)

	return nil
}

// reduce sets out to coeffs mod (Q, Phi_m(X)).
func (p *BigPoly) reduce(coeffs []*big.Int, out *BigPoly) {

	phi := CyclotomicPolynomial(p.CyclotomicOrder)
	N := len(phi) - 1

	tmp := new(big.Int)
	for d := len(coeffs) - 1; d >= N; d-- {
		c := coeffs[d]
		if c.Sign() == 0 {
			continue
		}
		for i := 0; i < N; i++ {
			coeffs[d-N+i].Sub(coeffs[d-N+i], tmp.Mul(c, bignum.NewInt(phi[i])))
		}
		c.SetUint64(0)
	}

	for i := 0; i < N; i++ {
		out.Coeffs[i].Mod(coeffs[i], p.Modulus)
	}
}

// AutomorphismTransform evaluates out = p(X^k) mod (Q, Phi_m(X)).
func (p *BigPoly) AutomorphismTransform(k uint64, out *BigPoly) error {

	if err := p.check("AutomorphismTransform", out); err != nil {
		return err
	}

	m := uint64(p.CyclotomicOrder)

	if utils.GCD(k%m, m) != 1 {
		return fmt.Errorf("cannot AutomorphismTransform: automorphism index %d is not coprime with m=%d: %w", k, m, ErrParameterMismatch)
	}

	coeffs := make([]*big.Int, m)
	for i := range coeffs {
		coeffs[i] = new(big.Int)
	}

	for j, c := range p.Coeffs {
		idx := ModMul(uint64(j), k%m, m)
		coeffs[idx].Add(coeffs[idx], c)
	}

	p.reduce(coeffs, out)

	return nil
}

// SetFormat only accepts the Coefficient format: a BigPoly has no NTT representation.
func (p *BigPoly) SetFormat(format Format) error {
	if format != Coefficient {
		return fmt.Errorf("cannot SetFormat: BigPoly has no %s format: %w", format, ErrNotImplementedForElement)
	}
	return nil
}
