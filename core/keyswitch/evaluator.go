package keyswitch

import (
	"fmt"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/ring/ringqp"
)

// Evaluator is a struct that holds the necessary elements to execute key switches and automorphisms
// on ciphertexts with the technique of its [Tables].
// An Evaluator is not safe for concurrent use: use [Evaluator.ShallowCopy] to obtain one per goroutine.
type Evaluator struct {
	params Parameters
	tables *Tables

	ringQP ringqp.Ring
	pool   *ringqp.BufferPool

	automorphismIndex map[uint64][]uint64
}

// NewEvaluator creates a new [Evaluator] for the given parameters and their precomputed tables.
func NewEvaluator(params Parameters, tables *Tables) (eval *Evaluator, err error) {

	if tables == nil || tables.Fingerprint != Fingerprint(params) {
		return nil, fmt.Errorf("cannot NewEvaluator: tables were built for other parameters: %w", ring.ErrParameterMismatch)
	}

	ringQP := params.RingQP()
	if params.HintLevelP() == -1 {
		ringQP.RingP = nil
	}

	return &Evaluator{
		params:            params,
		tables:            tables,
		ringQP:            ringQP,
		pool:              ringqp.NewPool(ringQP),
		automorphismIndex: map[uint64][]uint64{},
	}, nil
}

// ShallowCopy creates a shallow copy of this [Evaluator] in which all the read-only data-structures are
// shared with the receiver and the temporary buffers are reallocated. The receiver and the returned
// evaluators can be used concurrently.
func (eval *Evaluator) ShallowCopy() *Evaluator {
	return &Evaluator{
		params:            eval.params,
		tables:            eval.tables,
		ringQP:            eval.ringQP,
		pool:              ringqp.NewPool(eval.ringQP),
		automorphismIndex: map[uint64][]uint64{},
	}
}

// Parameters returns the parameters of the evaluator.
func (eval *Evaluator) Parameters() Parameters {
	return eval.params
}

// Apply re-encrypts ct, decrypting under the old key of the hint, into a ciphertext decrypting under its new key.
// A ciphertext of degree one (c0, c1) becomes (c0 + ks0, ks1) where ks0 + ks1*sNew ~ c1*sOld. A ciphertext
// of degree two (c0, c1, c2) becomes (c0 + ks0, c1 + ks1) where ks0 + ks1*sNew ~ c2*sOld, i.e. the hint
// is a relinearization key from s^2 to s.
// ct can be at any level up to the level of the hint and in either format, which is preserved.
func (eval *Evaluator) Apply(hint *Hint, ct *Ciphertext) (err error) {

	level, err := ct.check("Apply")
	if err != nil {
		return
	}

	if err = eval.checkHint("Apply", hint, ct, level); err != nil {
		return
	}

	ringQ := eval.params.RingQ().AtLevel(level)

	ks0 := ring.NewPoly(ringQ.N(), level)
	ks1 := ring.NewPoly(ringQ.N(), level)

	if err = eval.keySwitch(level, ct.Value[ct.Degree()], hint, ks0, ks1); err != nil {
		return fmt.Errorf("cannot Apply: %w", err)
	}

	if ct.Format() == ring.Coefficient {
		if err = ringQ.INTT(ks0, ks0); err != nil {
			return
		}
		if err = ringQ.INTT(ks1, ks1); err != nil {
			return
		}
	}

	if err = ringQ.Add(ct.Value[0], ks0, ct.Value[0]); err != nil {
		return
	}

	if ct.Degree() == 1 {
		ct.Value[1].Copy(ks1)
	} else {
		if err = ringQ.Add(ct.Value[1], ks1, ct.Value[1]); err != nil {
			return
		}
		ct.Value = ct.Value[:2]
	}

	ct.Technique = eval.tables.Technique

	return
}

// Automorphism computes phi(ct), where phi is the map X -> X^galEl, and switches the result back to the
// original key with the hint generated by [KeyGenerator.GenerateAutomorphism].
// ctIn must be of degree one; ctIn and ctOut can be the same ciphertext.
func (eval *Evaluator) Automorphism(ctIn *Ciphertext, galEl uint64, hint *Hint, ctOut *Ciphertext) (err error) {

	level, err := ctIn.check("Automorphism")
	if err != nil {
		return
	}

	if ctIn.Degree() != 1 {
		return fmt.Errorf("cannot Automorphism: input ciphertext must be of degree 1: %w", ring.ErrParameterMismatch)
	}

	if err = eval.checkHint("Automorphism", hint, ctIn, level); err != nil {
		return
	}

	if hint.GaloisElement != galEl {
		return fmt.Errorf("cannot Automorphism: hint is for the Galois element %d but %d was requested: %w", hint.GaloisElement, galEl, ring.ErrParameterMismatch)
	}

	ringQ := eval.params.RingQ().AtLevel(level)

	c0 := ring.NewPoly(ringQ.N(), level)
	c1 := ring.NewPoly(ringQ.N(), level)

	if err = ringQ.AutomorphismTransform(ctIn.Value[0], galEl, c0); err != nil {
		return fmt.Errorf("cannot Automorphism: %w", err)
	}

	if err = ringQ.AutomorphismTransform(ctIn.Value[1], galEl, c1); err != nil {
		return fmt.Errorf("cannot Automorphism: %w", err)
	}

	ks0 := ring.NewPoly(ringQ.N(), level)
	ks1 := ring.NewPoly(ringQ.N(), level)

	if err = eval.keySwitch(level, c1, hint, ks0, ks1); err != nil {
		return fmt.Errorf("cannot Automorphism: %w", err)
	}

	return eval.finalize(ringQ, c0, ks0, ks1, ctIn.Format(), ctOut)
}

// finalize writes (c0 + ks0, ks1) in the given format on ctOut. c0, ks0 and ks1 are in the
// Evaluation format, except c0 which can already be in the target format.
func (eval *Evaluator) finalize(ringQ *ring.Ring, c0, ks0, ks1 *ring.Poly, format ring.Format, ctOut *Ciphertext) (err error) {

	if format == ring.Coefficient {
		if err = ringQ.INTT(ks0, ks0); err != nil {
			return
		}
		if err = ringQ.INTT(ks1, ks1); err != nil {
			return
		}
		if err = ringQ.SetFormat(c0, ring.Coefficient); err != nil {
			return
		}
	} else if err = ringQ.SetFormat(c0, ring.Evaluation); err != nil {
		return
	}

	if err = ringQ.Add(c0, ks0, ks0); err != nil {
		return
	}

	if len(ctOut.Value) != 2 {
		ctOut.Value = make([]*ring.Poly, 2)
	}

	for i, p := range []*ring.Poly{ks0, ks1} {
		if ctOut.Value[i] == nil {
			ctOut.Value[i] = p
		} else {
			ctOut.Value[i].Copy(p)
		}
	}

	ctOut.Technique = eval.tables.Technique

	return
}

// checkHint checks that the hint can be applied to ct with the tables of the evaluator.
func (eval *Evaluator) checkHint(op string, hint *Hint, ct *Ciphertext, level int) error {

	t := eval.tables

	if hint == nil || hint.DigitCount() == 0 {
		return fmt.Errorf("cannot %s: hint is empty: %w", op, ring.ErrEmptyPolynomial)
	}

	if hint.Technique != t.Technique {
		return fmt.Errorf("cannot %s: hint uses %s but evaluator uses %s: %w", op, hint.Technique, t.Technique, ErrUnsupportedTechnique)
	}

	if ct.Technique != 0 && ct.Technique != t.Technique {
		return fmt.Errorf("cannot %s: ciphertext was switched with %s but evaluator uses %s: %w", op, ct.Technique, t.Technique, ErrUnsupportedTechnique)
	}

	if hint.Fingerprint != t.Fingerprint || hint.BaseBits != t.BaseBits {
		return fmt.Errorf("cannot %s: hint was generated for other parameters: %w", op, ring.ErrParameterMismatch)
	}

	if level > hint.LevelQ() {
		return fmt.Errorf("cannot %s: ciphertext level %d is above hint level %d: %w", op, level, hint.LevelQ(), ErrLevelMismatch)
	}

	if hint.DigitCount() < t.DigitCount(level) || len(hint.A) != len(hint.B) {
		return fmt.Errorf("cannot %s: hint has %d digits but %d are required: %w", op, hint.DigitCount(), t.DigitCount(level), ring.ErrParameterMismatch)
	}

	return nil
}

// keySwitch computes (ks0, ks1) in the Evaluation format such that ks0 + ks1*sNew = c*sOld + e,
// where (sOld, sNew) are the keys of the hint.
func (eval *Evaluator) keySwitch(levelQ int, c *ring.Poly, hint *Hint, ks0, ks1 *ring.Poly) (err error) {

	digits, err := eval.decompose(levelQ, c)
	if err != nil {
		return
	}

	return eval.innerProduct(levelQ, digits, hint, ks0, ks1)
}

// decompose returns the digits of c at levelQ in the Evaluation format:
//   - BV: the CRTDecompose digits of c over Q.
//   - GHS and HYBRID: for each partition j, the towers of c in the partition extended
//     to the remaining towers of Q and to P.
func (eval *Evaluator) decompose(levelQ int, c *ring.Poly) (digits []ringqp.Poly, err error) {

	t := eval.tables
	ringQ := eval.params.RingQ().AtLevel(levelQ)

	if t.Technique == BV {

		var ds []*ring.Poly
		if ds, err = ringQ.CRTDecompose(c, t.BaseBits); err != nil {
			return
		}

		digits = make([]ringqp.Poly, len(ds))
		for i := range ds {
			digits[i] = ringqp.Poly{Q: ds[i]}
		}

		return
	}

	levelP := eval.params.MaxLevelP()
	ringQP := eval.ringQP.AtLevel(levelQ, levelP)

	cCoeff := c
	if c.Format == ring.Evaluation {
		cCoeff = ring.NewPoly(ringQ.N(), levelQ)
		if err = ringQ.INTT(c, cCoeff); err != nil {
			return
		}
	}

	digits = make([]ringqp.Poly, t.DigitCount(levelQ))

	for j := range digits {

		start, end := t.Partition(levelQ, j)

		digit := ringqp.NewPoly(ringQ.N(), levelQ, levelP)

		out := make([][]uint64, 0, levelQ+1-(end-start)+levelP+1)
		out = append(out, digit.Q.Coeffs[:start]...)
		out = append(out, digit.Q.Coeffs[end:]...)
		out = append(out, digit.P.Coeffs...)

		if err = t.SwitchConstants(levelQ, j).ApproxSwitchCRTBasis(cCoeff.Coeffs[start:end], out); err != nil {
			return
		}

		for i := start; i < end; i++ {
			copy(digit.Q.Coeffs[i], cCoeff.Coeffs[i])
		}

		if err = ringQP.NTT(digit, digit); err != nil {
			return
		}

		digits[j] = *digit
	}

	return
}

// innerProduct computes (ks0, ks1) = ModDown(<digits, B>, <digits, A>) in the Evaluation format,
// the division by P being skipped for BV.
func (eval *Evaluator) innerProduct(levelQ int, digits []ringqp.Poly, hint *Hint, ks0, ks1 *ring.Poly) (err error) {

	t := eval.tables

	levelP := -1
	if t.Technique != BV {
		levelP = eval.params.MaxLevelP()
	}

	ringQP := eval.ringQP.AtLevel(levelQ, levelP)

	acc0 := eval.pool.GetBuffPolyQP()
	defer eval.pool.RecycleBuffPolyQP(acc0)
	acc1 := eval.pool.GetBuffPolyQP()
	defer eval.pool.RecycleBuffPolyQP(acc1)

	for _, acc := range []*ringqp.Poly{acc0, acc1} {
		acc.Resize(levelQ, levelP)
		acc.Q.Zero()
		acc.Q.Format = ring.Evaluation
		if acc.P != nil {
			acc.P.Zero()
			acc.P.Format = ring.Evaluation
		}
	}

	for d := range digits {

		a, b := hint.view(d, levelQ)

		if err = ringQP.MulCoeffsThenAdd(&digits[d], b, acc0); err != nil {
			return
		}

		if err = ringQP.MulCoeffsThenAdd(&digits[d], a, acc1); err != nil {
			return
		}
	}

	if t.Technique == BV {
		ks0.Copy(acc0.Q)
		ks1.Copy(acc1.Q)
		return
	}

	if err = t.BasisConverter.ApproxModDown(levelQ, levelP, acc0.Q, acc0.P, ks0); err != nil {
		return
	}

	return t.BasisConverter.ApproxModDown(levelQ, levelP, acc1.Q, acc1.P, ks1)
}

// automorphismIndexOf returns the cached look-up table of the automorphism X -> X^galEl in the Evaluation format.
func (eval *Evaluator) automorphismIndexOf(galEl uint64) (index []uint64, err error) {

	var ok bool
	if index, ok = eval.automorphismIndex[galEl]; !ok {

		if index, err = eval.params.RingQ().AutomorphismNTTIndex(galEl); err != nil {
			return
		}

		eval.automorphismIndex[galEl] = index
	}

	return
}
