package keyswitch

import (
	"fmt"
	"math"
	"math/big"

	"github.com/montanaflynn/stats"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/ring/ringqp"
	"github.com/rnslab/dcrt/utils/bignum"
)

// NoiseStats are statistics of the centered coefficients of a polynomial.
// Std and Max are given in bits, Mean is the plain signed mean.
// Max is computed on the exact coefficients, Std and Mean on their float64 approximations.
type NoiseStats struct {
	Std  float64
	Max  float64
	Mean float64
}

// String implements fmt.Stringer.
func (n NoiseStats) String() string {
	return fmt.Sprintf("std=%.2f bits, max=%.2f bits, mean=%.2f", n.Std, n.Max, n.Mean)
}

// Phase returns Value[0] + Value[1]*s (+ Value[2]*s^2) in the Coefficient format, at the level of ct.
func Phase(params Parameters, ct *Ciphertext, sk *SecretKey) (pt *ring.Poly, err error) {

	level, err := ct.check("Phase")
	if err != nil {
		return
	}

	ringQ := params.RingQ().AtLevel(level)

	s := &ring.Poly{Coeffs: sk.Value.Q.Coeffs[:level+1], Format: sk.Value.Q.Format}

	tmp := ring.NewPoly(ringQ.N(), level)

	pt = ct.Value[ct.Degree()].CopyNew()
	if err = ringQ.SetFormat(pt, ring.Evaluation); err != nil {
		return
	}

	for i := ct.Degree() - 1; i >= 0; i-- {

		if err = ringQ.MulCoeffs(pt, s, pt); err != nil {
			return
		}

		tmp.Copy(ct.Value[i])
		if err = ringQ.SetFormat(tmp, ring.Evaluation); err != nil {
			return
		}

		if err = ringQ.Add(pt, tmp, pt); err != nil {
			return
		}
	}

	return pt, ringQ.INTT(pt, pt)
}

// Noise returns the statistics of the centered coefficients of p, which can be in either format.
func Noise(params Parameters, p *ring.Poly) (ns NoiseStats, err error) {

	ringQ := params.RingQ().AtLevel(p.Level())

	pCoeff := p.CopyNew()
	if err = ringQ.SetFormat(pCoeff, ring.Coefficient); err != nil {
		return
	}

	coeffs := make([]*big.Int, ringQ.N())
	if err = ringQ.PolyToBigintCentered(pCoeff, 1, coeffs); err != nil {
		return
	}

	values := make(stats.Float64Data, len(coeffs))
	maxAbs := new(big.Int)
	for i, c := range coeffs {
		values[i], _ = new(big.Float).SetInt(c).Float64()
		if c.CmpAbs(maxAbs) > 0 {
			maxAbs.Abs(c)
		}
	}

	std, err := stats.StandardDeviation(values)
	if err != nil {
		return
	}

	if ns.Mean, err = stats.Mean(values); err != nil {
		return
	}

	ns.Std = math.Log2(std)
	ns.Max = bignum.Log2(maxAbs)

	return
}

// HintNoise returns the base 2 logarithm of the standard deviation, over Q*P, of the error
// B[d] + A[d]*sNew - Gadget[d]*sOld of the d-th pair of a hint generated from skOld to skNew.
func HintNoise(params Parameters, tables *Tables, hint *Hint, d int, skOld, skNew *SecretKey) (std float64, err error) {

	if hint.Fingerprint != tables.Fingerprint || tables.Fingerprint != Fingerprint(params) {
		return 0, fmt.Errorf("cannot HintNoise: hint, tables and parameters do not match: %w", ring.ErrParameterMismatch)
	}

	if d < 0 || d >= hint.DigitCount() {
		return 0, fmt.Errorf("cannot HintNoise: no digit %d in a hint with %d digits: %w", d, hint.DigitCount(), ring.ErrParameterMismatch)
	}

	ringQP := params.RingQP().AtLevel(hint.LevelQ(), hint.LevelP())

	sNew := &ringqp.Poly{Q: skNew.Value.Q}
	if ringQP.RingP != nil {
		sNew.P = skNew.Value.P
	}

	e := ringQP.NewPoly()

	if err = ringQP.MulCoeffs(&hint.A[d], sNew, e); err != nil {
		return
	}

	if err = ringQP.Add(e, &hint.B[d], e); err != nil {
		return
	}

	g := ringQP.RingQ.NewPoly()
	g.Format = ring.Evaluation
	if err = ringQP.RingQ.MulRNSScalarThenAdd(skOld.Value.Q, tables.Gadget[d], g); err != nil {
		return
	}

	if err = ringQP.RingQ.Sub(e.Q, g, e.Q); err != nil {
		return
	}

	if err = ringQP.INTT(e, e); err != nil {
		return
	}

	return ringQP.Log2OfStandardDeviation(e)
}

// NoiseKeySwitch returns the statistics of the error introduced by a key switch: the difference between
// the phase of ctOut under skOut and the phase of ctIn under skIn, where ctOut is the result of the
// key switch of ctIn. For automorphisms, ctIn must be the automorphism of the input ciphertext.
func NoiseKeySwitch(params Parameters, ctIn *Ciphertext, skIn *SecretKey, ctOut *Ciphertext, skOut *SecretKey) (ns NoiseStats, err error) {

	ptIn, err := Phase(params, ctIn, skIn)
	if err != nil {
		return
	}

	ptOut, err := Phase(params, ctOut, skOut)
	if err != nil {
		return
	}

	if err = params.RingQ().AtLevel(ptOut.Level()).Sub(ptOut, ptIn, ptOut); err != nil {
		return
	}

	return Noise(params, ptOut)
}
