package ringqp

import (
	"fmt"

	"github.com/rnslab/dcrt/ring"
)

// Add adds p1 to p2 coefficient-wise and writes the result on p3.
func (r Ring) Add(p1, p2, p3 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.Add(p1.Q, p2.Q, p3.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.Add(p1.P, p2.P, p3.P)
	}
	return
}

// Sub subtracts p2 to p1 coefficient-wise and writes the result on p3.
func (r Ring) Sub(p1, p2, p3 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.Sub(p1.Q, p2.Q, p3.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.Sub(p1.P, p2.P, p3.P)
	}
	return
}

// Neg negates p1 coefficient-wise and writes the result on p2.
func (r Ring) Neg(p1, p2 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.Neg(p1.Q, p2.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.Neg(p1.P, p2.P)
	}
	return
}

// MulScalar multiplies p1 by scalar and returns the result in p2.
func (r Ring) MulScalar(p1 *Poly, scalar uint64, p2 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.MulScalar(p1.Q, scalar, p2.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.MulScalar(p1.P, scalar, p2.P)
	}
	return
}

// MulCoeffs multiplies p1 by p2 coefficient-wise and writes the result on p3.
// The operands must be in the Evaluation format.
func (r Ring) MulCoeffs(p1, p2, p3 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.MulCoeffs(p1.Q, p2.Q, p3.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.MulCoeffs(p1.P, p2.P, p3.P)
	}
	return
}

// MulCoeffsThenAdd multiplies p1 by p2 coefficient-wise and adds the result on p3.
// The operands must be in the Evaluation format.
func (r Ring) MulCoeffsThenAdd(p1, p2, p3 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.MulCoeffsThenAdd(p1.Q, p2.Q, p3.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.MulCoeffsThenAdd(p1.P, p2.P, p3.P)
	}
	return
}

// NTT computes the NTT of p1 and returns the result on p2.
func (r Ring) NTT(p1, p2 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.NTT(p1.Q, p2.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.NTT(p1.P, p2.P)
	}
	return
}

// INTT computes the inverse-NTT of p1 and returns the result on p2.
func (r Ring) INTT(p1, p2 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.INTT(p1.Q, p2.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.INTT(p1.P, p2.P)
	}
	return
}

// SetFormat converts both parts of p to the given format.
func (r Ring) SetFormat(p *Poly, format ring.Format) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.SetFormat(p.Q, format); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.SetFormat(p.P, format)
	}
	return
}

// AutomorphismTransform applies the automorphism X^i -> X^(i*galEl) on p1 and writes the result on p2.
// Both formats are supported.
func (r Ring) AutomorphismTransform(p1 *Poly, galEl uint64, p2 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.AutomorphismTransform(p1.Q, galEl, p2.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.AutomorphismTransform(p1.P, galEl, p2.P)
	}
	return
}

// AutomorphismTransformWithIndex applies the automorphism on p1 in the Evaluation format
// given the look-up table index and writes the result on p2.
func (r Ring) AutomorphismTransformWithIndex(p1 *Poly, index []uint64, p2 *Poly) (err error) {
	if r.RingQ != nil {
		if err = r.RingQ.AutomorphismTransformWithIndex(p1.Q, index, p2.Q); err != nil {
			return
		}
	}
	if r.RingP != nil {
		return r.RingP.AutomorphismTransformWithIndex(p1.P, index, p2.P)
	}
	return
}

// ExtendBasisSmallNormAndCenter extends a polynomial with small norm from the first modulus of Q
// to the moduli of Q and P. Its coefficients are first centered in (-q_0/2, q_0/2].
// polyInQ must be in the Coefficient format; the outputs are returned in the Coefficient format.
func (r Ring) ExtendBasisSmallNormAndCenter(polyInQ *ring.Poly, polyOutQ, polyOutP *ring.Poly) (err error) {

	if polyInQ.Format != ring.Coefficient {
		return fmt.Errorf("cannot ExtendBasisSmallNormAndCenter: input is in %s format: %w", polyInQ.Format, ring.ErrWrongFormat)
	}

	Q := r.RingQ.SubRings[0].Modulus
	QHalf := Q >> 1

	extend := func(sub []*ring.SubRing, out *ring.Poly) {
		for i, s := range sub {
			coeffs := out.Coeffs[i]
			for j, c := range polyInQ.Coeffs[0] {
				if c > QHalf {
					coeffs[j] = s.Modulus - ring.BRedAdd(Q-c, s.Modulus, s.BRedConstant)
					if coeffs[j] == s.Modulus {
						coeffs[j] = 0
					}
				} else {
					coeffs[j] = ring.BRedAdd(c, s.Modulus, s.BRedConstant)
				}
			}
		}
		out.Format = ring.Coefficient
	}

	if polyOutQ != nil {
		extend(r.RingQ.SubRings[1:polyOutQ.Level()+1], &ring.Poly{Coeffs: polyOutQ.Coeffs[1:]})
		copy(polyOutQ.Coeffs[0], polyInQ.Coeffs[0])
		polyOutQ.Format = ring.Coefficient
	}

	if polyOutP != nil && r.RingP != nil {
		extend(r.RingP.SubRings[:polyOutP.Level()+1], polyOutP)
	}

	return
}
