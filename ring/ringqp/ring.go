// Package ringqp implements a wrapper for both the ringQ and ringP, i.e. the extended basis Q*P
// over which the key-switching hints are defined.
package ringqp

import (
	"fmt"
	"math"
	"math/big"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/utils/bignum"
)

// Ring is a structure that implements the operation in the ring R_QP.
// This type is simply a union type between the two Ring types representing
// R_Q and R_P. RingP can be nil, in which case all operations are carried on R_Q only.
type Ring struct {
	RingQ, RingP *ring.Ring
}

// NewRing creates a new Ring from the chains Q and P, which must define rings of the same cyclotomic order.
func NewRing(ringQ, ringP *ring.Ring) (r Ring, err error) {

	if ringQ == nil {
		return r, fmt.Errorf("cannot NewRing: ringQ is nil: %w", ring.ErrParameterMismatch)
	}

	if ringP != nil && ringP.CyclotomicOrder() != ringQ.CyclotomicOrder() {
		return r, fmt.Errorf("cannot NewRing: ringQ has cyclotomic order %d but ringP has %d: %w", ringQ.CyclotomicOrder(), ringP.CyclotomicOrder(), ring.ErrParameterMismatch)
	}

	return Ring{RingQ: ringQ, RingP: ringP}, nil
}

// N returns the degree of the ring.
func (r Ring) N() int {
	if r.RingQ != nil {
		return r.RingQ.N()
	}

	if r.RingP != nil {
		return r.RingP.N()
	}

	return 0
}

// AtLevel returns a shallow copy of the target ring configured to
// carry on operations at the specified levels.
func (r Ring) AtLevel(levelQ, levelP int) Ring {

	var ringQ, ringP *ring.Ring

	if levelQ > -1 && r.RingQ != nil {
		ringQ = r.RingQ.AtLevel(levelQ)
	}

	if levelP > -1 && r.RingP != nil {
		ringP = r.RingP.AtLevel(levelP)
	}

	return Ring{
		RingQ: ringQ,
		RingP: ringP,
	}
}

// LevelQ returns the level at which the target
// ring operates for the modulus Q.
func (r Ring) LevelQ() int {
	if r.RingQ != nil {
		return r.RingQ.Level()
	}

	return -1
}

// LevelP returns the level at which the target
// ring operates for the modulus P.
func (r Ring) LevelP() int {
	if r.RingP != nil {
		return r.RingP.Level()
	}

	return -1
}

// Modulus returns Q*P at the current levels.
func (r Ring) Modulus() (QP *big.Int) {
	QP = bignum.NewInt(1)
	if r.RingQ != nil {
		QP.Mul(QP, r.RingQ.Modulus())
	}
	if r.RingP != nil {
		QP.Mul(QP, r.RingP.Modulus())
	}
	return
}

// Equal checks if p1 = p2 in the given Ring.
func (r Ring) Equal(p1, p2 *Poly) (v bool) {
	v = true
	if r.RingQ != nil {
		v = v && r.RingQ.Equal(p1.Q, p2.Q)
	}

	if r.RingP != nil {
		v = v && p1.P != nil && p2.P != nil && r.RingP.Equal(p1.P, p2.P)
	}

	return
}

// NewPoly creates a new polynomial with all coefficients set to 0.
func (r Ring) NewPoly() *Poly {
	var Q, P *ring.Poly
	if r.RingQ != nil {
		Q = r.RingQ.NewPoly()
	}

	if r.RingP != nil {
		P = r.RingP.NewPoly()
	}
	return &Poly{Q, P}
}

// PolyToBigintCentered reconstructs p1 over Q*P and returns the result in an array of Int.
// Coefficients are centered around 0.
// gap defines coefficients X^{i*gap} that will be reconstructed.
// Both parts of p1 must be in the Coefficient format.
func (r Ring) PolyToBigintCentered(p1 *Poly, gap int, coeffsBigint []*big.Int) (err error) {

	if err = r.checkFormat("PolyToBigintCentered", ring.Coefficient, p1); err != nil {
		return
	}

	LevelQ := r.LevelQ()
	LevelP := r.LevelP()

	moduli := make([]uint64, 0, LevelQ+LevelP+2)
	towers := make([][]uint64, 0, LevelQ+LevelP+2)

	if LevelQ > -1 {
		moduli = append(moduli, r.RingQ.ModuliChain()[:LevelQ+1]...)
		towers = append(towers, p1.Q.Coeffs[:LevelQ+1]...)
	}

	if LevelP > -1 {
		moduli = append(moduli, r.RingP.ModuliChain()[:LevelP+1]...)
		towers = append(towers, p1.P.Coeffs[:LevelP+1]...)
	}

	modulusBigint := bignum.Product(moduli)
	modulusBigintHalf := new(big.Int).Rsh(modulusBigint, 1)

	crtReconstruction := make([]*big.Int, len(moduli))

	for i, qi := range moduli {
		QiB := bignum.NewInt(qi)
		crtReconstruction[i] = new(big.Int).Quo(modulusBigint, QiB)
		QiHatInv, err := bignum.ModInverse(crtReconstruction[i], QiB)
		if err != nil {
			return fmt.Errorf("cannot PolyToBigintCentered: %w", err)
		}
		crtReconstruction[i].Mul(crtReconstruction[i], QiHatInv)
	}

	N := r.N()

	if gap < 1 || len(coeffsBigint) < (N+gap-1)/gap {
		return fmt.Errorf("cannot PolyToBigintCentered: invalid gap=%d or output length=%d: %w", gap, len(coeffsBigint), ring.ErrParameterMismatch)
	}

	tmp := new(big.Int)

	for i, j := 0, 0; j < N; i, j = i+1, j+gap {

		if coeffsBigint[i] == nil {
			coeffsBigint[i] = new(big.Int)
		}

		coeffsBigint[i].SetUint64(0)

		for k := range towers {
			coeffsBigint[i].Add(coeffsBigint[i], tmp.Mul(bignum.NewInt(towers[k][j]), crtReconstruction[k]))
		}

		coeffsBigint[i].Mod(coeffsBigint[i], modulusBigint)

		// Centers the coefficients
		if coeffsBigint[i].Cmp(modulusBigintHalf) >= 0 {
			coeffsBigint[i].Sub(coeffsBigint[i], modulusBigint)
		}
	}

	return
}

// Log2OfStandardDeviation returns base 2 logarithm of the standard deviation of the coefficients
// of the polynomial, taken over Q*P and centered.
func (r Ring) Log2OfStandardDeviation(poly *Poly) (std float64, err error) {

	N := r.N()

	prec := uint(128)

	coeffs := make([]*big.Int, N)

	if err = r.PolyToBigintCentered(poly, 1, coeffs); err != nil {
		return
	}

	mean := bignum.NewFloat(0, prec)
	tmp := bignum.NewFloat(0, prec)

	for i := 0; i < N; i++ {
		mean.Add(mean, tmp.SetInt(coeffs[i]))
	}

	mean.Quo(mean, bignum.NewFloat(float64(N), prec))

	stdFloat := bignum.NewFloat(0, prec)

	for i := 0; i < N; i++ {
		tmp.SetInt(coeffs[i])
		tmp.Sub(tmp, mean)
		tmp.Mul(tmp, tmp)
		stdFloat.Add(stdFloat, tmp)
	}

	stdFloat.Quo(stdFloat, bignum.NewFloat(float64(N-1), prec))

	stdFloat.Sqrt(stdFloat)

	stdF64, _ := stdFloat.Float64()

	return math.Log2(stdF64), nil
}

func (r Ring) checkFormat(op string, format ring.Format, polys ...*Poly) error {
	for i, p := range polys {
		if r.RingQ != nil && p.Q != nil && p.Q.Format != format {
			return fmt.Errorf("cannot %s: Q part of operand %d is in %s format: %w", op, i, p.Q.Format, ring.ErrWrongFormat)
		}
		if r.RingP != nil && p.P != nil && p.P.Format != format {
			return fmt.Errorf("cannot %s: P part of operand %d is in %s format: %w", op, i, p.P.Format, ring.ErrWrongFormat)
		}
	}
	return nil
}
