package keyswitch

import (
	"fmt"
	"sync/atomic"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/ring/ringqp"
	"github.com/rnslab/dcrt/utils/sampling"
)

// KeyGenerator is a structure that stores the elements required to create new keys,
// as well as a memory buffer for intermediate values.
//
// The secrets and errors are sampled from a keyed PRNG derived from the seed of the generator, and
// the A part of each hint from its own keyed PRNG, whose key is stored in the hint.
type KeyGenerator struct {
	params Parameters
	tables *Tables

	seed    []byte
	counter atomic.Uint64

	xsSampler ring.Sampler
	xeSampler ring.Sampler
}

// NewKeyGenerator creates a new [KeyGenerator], from which the secret and key-switching keys can be generated.
// If seed is nil, a fresh seed is read from crypto/rand. Two generators with the same seed and parameters
// generate the same keys, provided they are called in the same order. KeyGenerator is not safe for
// concurrent use: all its methods read the same secret and error stream.
func NewKeyGenerator(params Parameters, tables *Tables, seed []byte) (kgen *KeyGenerator, err error) {

	if tables.Fingerprint != Fingerprint(params) {
		return nil, fmt.Errorf("cannot NewKeyGenerator: tables were built for other parameters: %w", ring.ErrParameterMismatch)
	}

	if seed == nil {

		var prng *sampling.ThreadSafePRNG
		if prng, err = sampling.NewPRNG(); err != nil {
			return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
		}

		seed = make([]byte, 32)
		if _, err = prng.Read(seed); err != nil {
			return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
		}
	}

	prng, err := sampling.NewKeyedPRNG(sampling.DeriveKey(seed, "keygen/secrets"))
	if err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
	}

	kgen = &KeyGenerator{
		params: params,
		tables: tables,
		seed:   append([]byte{}, seed...),
	}

	if kgen.xsSampler, err = ring.NewSampler(prng, params.RingQ(), params.Xs()); err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
	}

	if kgen.xeSampler, err = ring.NewSampler(prng, params.RingQ(), params.Xe()); err != nil {
		return nil, fmt.Errorf("cannot NewKeyGenerator: %w", err)
	}

	return
}

// GenSecretKeyNew generates a new [SecretKey] with the distribution specified in the crypto parameters.
func (kgen *KeyGenerator) GenSecretKeyNew() (sk *SecretKey, err error) {
	sk = NewSecretKey(kgen.params)
	return sk, kgen.GenSecretKey(sk)
}

// GenSecretKey generates a [SecretKey] with the distribution specified in the crypto parameters.
func (kgen *KeyGenerator) GenSecretKey(sk *SecretKey) (err error) {
	return kgen.genSmallNormPolyQP(kgen.xsSampler, sk.Value)
}

// genSmallNormPolyQP samples a polynomial with a small-norm distribution over Q, extends it to P
// and returns it in the Evaluation format.
func (kgen *KeyGenerator) genSmallNormPolyQP(sampler ring.Sampler, pol *ringqp.Poly) (err error) {

	ringQP := kgen.params.RingQP().AtLevel(pol.LevelQ(), pol.LevelP())

	sampler.AtLevel(pol.LevelQ()).Read(pol.Q)

	if pol.P != nil {
		if err = ringQP.ExtendBasisSmallNormAndCenter(pol.Q, nil, pol.P); err != nil {
			return
		}
	}

	return ringQP.NTT(pol, pol)
}

// Generate generates a [Hint] switching ciphertexts decrypting under oldKey to ciphertexts decrypting
// under newKey, with the technique of the parameters. If prior is not nil, its A part is reused
// (e.g. for hints generated by several parties with a common reference string) and only the B part
// is recomputed.
func (kgen *KeyGenerator) Generate(oldKey, newKey *SecretKey, prior *Hint) (hint *Hint, err error) {

	params := kgen.params
	t := kgen.tables

	levelQ := params.MaxLevelQ()
	levelP := params.HintLevelP()

	ringQP := params.RingQP()
	if levelP == -1 {
		ringQP.RingP = nil
	}

	nbDigits := t.DigitCount(levelQ)

	hint = &Hint{
		Technique:   t.Technique,
		BaseBits:    t.BaseBits,
		Fingerprint: t.Fingerprint,
	}

	if prior != nil {

		if prior.Technique != t.Technique {
			return nil, fmt.Errorf("cannot Generate: prior hint uses %s but parameters use %s: %w", prior.Technique, t.Technique, ErrUnsupportedTechnique)
		}

		if prior.Fingerprint != t.Fingerprint || prior.DigitCount() != nbDigits {
			return nil, fmt.Errorf("cannot Generate: prior hint was generated for other parameters: %w", ring.ErrParameterMismatch)
		}

		if prior.LevelQ() != levelQ || prior.LevelP() != levelP {
			return nil, fmt.Errorf("cannot Generate: prior hint is at levels (%d, %d) but parameters require (%d, %d): %w", prior.LevelQ(), prior.LevelP(), levelQ, levelP, ErrLevelMismatch)
		}

		hint.Seed = append([]byte{}, prior.Seed...)
		hint.A = prior.A.CopyNew()

	} else {

		hint.Seed = sampling.DeriveKey(kgen.seed, fmt.Sprintf("keygen/hint/%d", kgen.counter.Add(1)))

		prng, err := sampling.NewKeyedPRNG(hint.Seed)
		if err != nil {
			return nil, fmt.Errorf("cannot Generate: %w", err)
		}

		sampler := ringqp.NewUniformSampler(prng, ringQP)

		hint.A = make([]ringqp.Poly, nbDigits)
		for d := range hint.A {
			hint.A[d] = *sampler.ReadNew()
			hint.A[d].Q.Format = ring.Evaluation
			if hint.A[d].P != nil {
				hint.A[d].P.Format = ring.Evaluation
			}
		}
	}

	sNew := &ringqp.Poly{Q: newKey.Value.Q}
	if levelP > -1 {
		sNew.P = newKey.Value.P
	}

	hint.B = make([]ringqp.Poly, nbDigits)

	e := ringqp.NewPoly(params.N(), levelQ, levelP)

	for d := range hint.B {

		b := ringQP.NewPoly()

		// b = -a*sNew + e
		if err = ringQP.MulCoeffs(&hint.A[d], sNew, b); err != nil {
			return nil, fmt.Errorf("cannot Generate: %w", err)
		}

		if err = ringQP.Neg(b, b); err != nil {
			return nil, fmt.Errorf("cannot Generate: %w", err)
		}

		if err = kgen.genSmallNormPolyQP(kgen.xeSampler, e); err != nil {
			return nil, fmt.Errorf("cannot Generate: %w", err)
		}

		if err = ringQP.Add(b, e, b); err != nil {
			return nil, fmt.Errorf("cannot Generate: %w", err)
		}

		// b = b + Gadget[d] * sOld
		if err = ringQP.RingQ.MulRNSScalarThenAdd(oldKey.Value.Q, t.Gadget[d], b.Q); err != nil {
			return nil, fmt.Errorf("cannot Generate: %w", err)
		}

		hint.B[d] = *b
	}

	return
}

// GenerateAutomorphism generates the [Hint] switching ciphertexts decrypting under sigma_galEl(sk)
// to ciphertexts decrypting under sk, as required by [Evaluator.Automorphism] and
// [Evaluator.ApplyAutomorphismHoisted].
func (kgen *KeyGenerator) GenerateAutomorphism(sk *SecretKey, galEl uint64) (hint *Hint, err error) {

	ringQP := kgen.params.RingQP()

	skIn := &SecretKey{Value: ringQP.NewPoly()}

	if err = ringQP.AutomorphismTransform(sk.Value, galEl, skIn.Value); err != nil {
		return nil, fmt.Errorf("cannot GenerateAutomorphism: %w", err)
	}

	if hint, err = kgen.Generate(skIn, sk, nil); err != nil {
		return nil, fmt.Errorf("cannot GenerateAutomorphism: %w", err)
	}

	hint.GaloisElement = galEl

	return
}
