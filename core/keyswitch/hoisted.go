package keyswitch

import (
	"fmt"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/ring/ringqp"
)

// Precomputed stores the decomposition of a ciphertext of degree one, from which any number of
// automorphisms can be evaluated with [Evaluator.ApplyAutomorphismHoisted] without decomposing the
// ciphertext again.
type Precomputed struct {
	// C0 is the first element of the ciphertext in the Evaluation format.
	C0 *ring.Poly
	// Format is the format of the ciphertext, in which the outputs are returned.
	Format ring.Format
	// LevelQ is the level of the ciphertext.
	LevelQ int
	// Digits is the decomposition of the second element of the ciphertext, in the Evaluation format.
	Digits []ringqp.Poly
}

// Precompute decomposes the ciphertext ct of degree one (and extends its digits to P for GHS and HYBRID)
// for later hoisted automorphisms.
func (eval *Evaluator) Precompute(ct *Ciphertext) (pre *Precomputed, err error) {

	level, err := ct.check("Precompute")
	if err != nil {
		return
	}

	if ct.Degree() != 1 {
		return nil, fmt.Errorf("cannot Precompute: ciphertext must be of degree 1: %w", ring.ErrParameterMismatch)
	}

	if ct.Technique != 0 && ct.Technique != eval.tables.Technique {
		return nil, fmt.Errorf("cannot Precompute: ciphertext was switched with %s but evaluator uses %s: %w", ct.Technique, eval.tables.Technique, ErrUnsupportedTechnique)
	}

	ringQ := eval.params.RingQ().AtLevel(level)

	pre = &Precomputed{
		C0:     ct.Value[0].CopyNew(),
		Format: ct.Format(),
		LevelQ: level,
	}

	if err = ringQ.SetFormat(pre.C0, ring.Evaluation); err != nil {
		return nil, fmt.Errorf("cannot Precompute: %w", err)
	}

	if pre.Digits, err = eval.decompose(level, ct.Value[1]); err != nil {
		return nil, fmt.Errorf("cannot Precompute: %w", err)
	}

	return
}

// ApplyAutomorphismHoisted evaluates the automorphism X -> X^galEl on the ciphertext decomposed in pre and
// switches the result back to the original key with the hint generated by [KeyGenerator.GenerateAutomorphism].
// The automorphism is applied on the cached digits, which are permuted in the Evaluation format.
// The result is written on ctOut, in the format of the decomposed ciphertext.
func (eval *Evaluator) ApplyAutomorphismHoisted(pre *Precomputed, galEl uint64, hint *Hint, ctOut *Ciphertext) (err error) {

	if pre == nil || pre.C0 == nil || len(pre.Digits) == 0 {
		return fmt.Errorf("cannot ApplyAutomorphismHoisted: nothing was precomputed: %w", ring.ErrEmptyPolynomial)
	}

	level := pre.LevelQ

	if err = eval.checkHint("ApplyAutomorphismHoisted", hint, &Ciphertext{}, level); err != nil {
		return
	}

	if hint.GaloisElement != galEl {
		return fmt.Errorf("cannot ApplyAutomorphismHoisted: hint is for the Galois element %d but %d was requested: %w", hint.GaloisElement, galEl, ring.ErrParameterMismatch)
	}

	index, err := eval.automorphismIndexOf(galEl)
	if err != nil {
		return fmt.Errorf("cannot ApplyAutomorphismHoisted: %w", err)
	}

	levelP := -1
	if eval.tables.Technique != BV {
		levelP = eval.params.MaxLevelP()
	}

	ringQP := eval.ringQP.AtLevel(level, levelP)
	ringQ := ringQP.RingQ

	digits := make([]ringqp.Poly, len(pre.Digits))
	for d := range pre.Digits {

		digits[d] = *ringqp.NewPoly(ringQ.N(), level, levelP)

		if err = ringQP.AutomorphismTransformWithIndex(&pre.Digits[d], index, &digits[d]); err != nil {
			return fmt.Errorf("cannot ApplyAutomorphismHoisted: %w", err)
		}
	}

	ks0 := ring.NewPoly(ringQ.N(), level)
	ks1 := ring.NewPoly(ringQ.N(), level)

	if err = eval.innerProduct(level, digits, hint, ks0, ks1); err != nil {
		return fmt.Errorf("cannot ApplyAutomorphismHoisted: %w", err)
	}

	c0 := ring.NewPoly(ringQ.N(), level)
	if err = ringQ.AutomorphismTransformWithIndex(pre.C0, index, c0); err != nil {
		return fmt.Errorf("cannot ApplyAutomorphismHoisted: %w", err)
	}

	return eval.finalize(ringQ, c0, ks0, ks1, pre.Format, ctOut)
}
