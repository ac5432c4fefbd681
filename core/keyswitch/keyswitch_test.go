package keyswitch

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/utils/sampling"
)

var flagParamString = flag.String("params", "", "specify the test cryptographic parameters as a JSON string. Overrides the default parameters.")

func testString(params Parameters, level int, opname string) string {
	return fmt.Sprintf("%s/m=%d/N=%d/Qi=%d/Pi=%d/Technique=%s/BaseBits=%d/NumPartQ=%d",
		opname,
		params.CyclotomicOrder(),
		params.N(),
		level+1,
		params.MaxLevelP()+1,
		params.Technique(),
		params.BaseBits(),
		params.NumPartQ())
}

type testContext struct {
	params Parameters
	tables *Tables
	kgen   *KeyGenerator
	eval   *Evaluator
	skIn   *SecretKey
	skOut  *SecretKey
	hint   *Hint
	prng   sampling.PRNG
}

func newTestContext(params Parameters) (tc *testContext, err error) {

	tc = &testContext{params: params}

	if tc.tables, err = NewTables(params); err != nil {
		return
	}

	if tc.kgen, err = NewKeyGenerator(params, tc.tables, []byte("keyswitch test")); err != nil {
		return
	}

	if tc.eval, err = NewEvaluator(params, tc.tables); err != nil {
		return
	}

	if tc.skIn, err = tc.kgen.GenSecretKeyNew(); err != nil {
		return
	}

	if tc.skOut, err = tc.kgen.GenSecretKeyNew(); err != nil {
		return
	}

	if tc.hint, err = tc.kgen.Generate(tc.skIn, tc.skOut, nil); err != nil {
		return
	}

	tc.prng, err = sampling.NewKeyedPRNG([]byte("keyswitch ciphertexts"))

	return
}

// newRandomCiphertext returns a ciphertext with uniformly random elements.
func (tc *testContext) newRandomCiphertext(degree, level int, format ring.Format) *Ciphertext {
	ct := NewCiphertext(tc.params, degree, level)
	sampler := ring.NewUniformSampler(tc.prng, tc.params.RingQ()).AtLevel(level)
	for _, p := range ct.Value {
		sampler.Read(p)
		p.Format = format
	}
	return ct
}

// noiseBound returns an upper bound, in bits, on the standard deviation of the error of a key switch at the given level.
func (tc *testContext) noiseBound(level int) float64 {

	params := tc.params
	t := tc.tables

	logN := math.Log2(float64(params.N()))
	logSigma := math.Log2(params.Xe().(ring.DiscreteGaussian).Sigma)
	logDigits := math.Log2(float64(t.DigitCount(level)))

	slack := 6.0
	if !params.RingQ().IsPowerOfTwo() {
		slack = 10
	}

	Q := params.Q()

	if t.Technique == BV {

		logB := float64(t.BaseBits)
		if logB == 0 {
			for _, qi := range Q[:level+1] {
				logB = math.Max(logB, float64(bits.Len64(qi)))
			}
		}

		return logB + logSigma + 0.5*(logN+logDigits) + slack
	}

	var logP float64
	for _, pi := range params.P() {
		logP += math.Log2(float64(pi))
	}

	var logQj float64
	for j := 0; j < t.DigitCount(level); j++ {
		start, end := t.Partition(level, j)
		var logq float64
		for _, qi := range Q[start:end] {
			logq += math.Log2(float64(qi))
		}
		logQj = math.Max(logQj, logq+math.Log2(float64(end-start)))
	}

	gadget := logQj + logSigma + 0.5*(logN+logDigits) - logP
	rounding := math.Log2(float64(params.MaxLevelP()+2)) + 0.5*logN

	return math.Max(gadget, rounding) + slack
}

func TestKeySwitch(t *testing.T) {

	var err error

	defaultParamsLiteral := testInsecure

	if *flagParamString != "" {
		var jsonParams ParametersLiteral
		if err = json.Unmarshal([]byte(*flagParamString), &jsonParams); err != nil {
			t.Fatal(err)
		}
		defaultParamsLiteral = []ParametersLiteral{jsonParams} // the custom test suite reads the parameters from the -params flag
	}

	for _, paramsLit := range defaultParamsLiteral {

		var params Parameters
		if params, err = NewParametersFromLiteral(paramsLit); err != nil {
			t.Fatal(err)
		}

		tc, err := newTestContext(params)
		require.NoError(t, err)

		testParameters(tc, t)
		testKeyGenerator(tc, t)
		testErrors(tc, t)

		for _, level := range []int{0, params.MaxLevelQ()} {

			for _, testSet := range []func(tc *testContext, level int, t *testing.T){
				testApply,
				testRelinearize,
				testAutomorphism,
			} {
				testSet(tc, level, t)
				runtime.GC()
			}
		}
	}

	testUserDefinedParameters(t)
}

func testParameters(tc *testContext, t *testing.T) {

	params := tc.params

	t.Run(testString(params, params.MaxLevelQ(), "Parameters/MarshalJSON"), func(t *testing.T) {
		data, err := json.Marshal(params)
		require.NoError(t, err)
		var paramsNew Parameters
		require.NoError(t, json.Unmarshal(data, &paramsNew))
		require.True(t, params.Equal(&paramsNew))
		require.Equal(t, Fingerprint(params), Fingerprint(paramsNew))
	})

	t.Run(testString(params, params.MaxLevelQ(), "Noise"), func(t *testing.T) {

		ringQ := params.RingQ()

		// single coefficient -2^k, beyond the float64 mantissa
		k := ringQ.Modulus().BitLen() - 8
		coeffs := make([]*big.Int, ringQ.N())
		for i := range coeffs {
			coeffs[i] = new(big.Int)
		}
		coeffs[1].Lsh(big.NewInt(1), uint(k)).Neg(coeffs[1])

		p := ringQ.NewPoly()
		require.NoError(t, ringQ.SetCoefficientsBigint(coeffs, p))
		require.NoError(t, ringQ.NTT(p, p))

		ns, err := Noise(params, p)
		require.NoError(t, err)
		require.InDelta(t, float64(k), ns.Max, 1e-9)
		require.Less(t, ns.Mean, 0.0)
	})

	t.Run(testString(params, params.MaxLevelQ(), "Tables/DigitCount"), func(t *testing.T) {

		tables := tc.tables

		for level := 0; level <= params.MaxLevelQ(); level++ {
			switch params.Technique() {
			case BV:
				require.Equal(t, params.RingQ().CRTDecomposeDigits(level, params.BaseBits()), tables.DigitCount(level))
			case GHS:
				require.Equal(t, 1, tables.DigitCount(level))
			case HYBRID:
				require.Equal(t, (level+tables.Alpha)/tables.Alpha, tables.DigitCount(level))
			}
		}

		require.Equal(t, tables.DigitCount(params.MaxLevelQ()), len(tables.Gadget))

		if params.Technique() != BV {
			// The partitions cover Q exactly once
			covered := make([]int, params.MaxLevelQ()+1)
			for _, part := range tables.Partitions {
				for i := part[0]; i < part[1]; i++ {
					covered[i]++
				}
			}
			for i := range covered {
				require.Equal(t, 1, covered[i])
			}
		}
	})
}

func testKeyGenerator(tc *testContext, t *testing.T) {

	params := tc.params
	ringQ := params.RingQ()

	t.Run(testString(params, params.MaxLevelQ(), "KeyGenerator/Hint/Relation"), func(t *testing.T) {

		hint := tc.hint

		require.Equal(t, tc.tables.DigitCount(params.MaxLevelQ()), hint.DigitCount())
		require.Equal(t, params.MaxLevelQ(), hint.LevelQ())
		require.Equal(t, params.HintLevelP(), hint.LevelP())

		bound := math.Log2(params.Xe().(ring.DiscreteGaussian).Bound)

		// B[d] + A[d]*sNew - Gadget[d]*sOld = e[d] over Q
		for d := range hint.B {

			e := ringQ.NewPoly()
			require.NoError(t, ringQ.MulCoeffs(hint.A[d].Q, tc.skOut.Value.Q, e))
			require.NoError(t, ringQ.Add(e, hint.B[d].Q, e))

			g := ringQ.NewPoly()
			g.Format = ring.Evaluation
			require.NoError(t, ringQ.MulRNSScalarThenAdd(tc.skIn.Value.Q, tc.tables.Gadget[d], g))
			require.NoError(t, ringQ.Sub(e, g, e))

			ns, err := Noise(params, e)
			require.NoError(t, err)
			require.LessOrEqual(t, ns.Max, bound+1e-9)

			// same relation over Q*P
			std, err := HintNoise(params, tc.tables, hint, d, tc.skIn, tc.skOut)
			require.NoError(t, err)
			require.LessOrEqual(t, std, bound+0.5)
		}

		_, err := HintNoise(params, tc.tables, hint, hint.DigitCount(), tc.skIn, tc.skOut)
		require.ErrorIs(t, err, ring.ErrParameterMismatch)
	})

	t.Run(testString(params, params.MaxLevelQ(), "KeyGenerator/Deterministic"), func(t *testing.T) {

		kgen0, err := NewKeyGenerator(params, tc.tables, []byte("seed"))
		require.NoError(t, err)
		kgen1, err := NewKeyGenerator(params, tc.tables, []byte("seed"))
		require.NoError(t, err)

		sk0, err := kgen0.GenSecretKeyNew()
		require.NoError(t, err)
		sk1, err := kgen1.GenSecretKeyNew()
		require.NoError(t, err)
		require.True(t, sk0.Equal(sk1))

		hint0, err := kgen0.Generate(sk0, tc.skOut, nil)
		require.NoError(t, err)
		hint1, err := kgen1.Generate(sk1, tc.skOut, nil)
		require.NoError(t, err)
		require.True(t, hint0.Equal(hint1))

		// secrets and errors share one stream: the keys depend on the call order
		kgen3, err := NewKeyGenerator(params, tc.tables, []byte("seed"))
		require.NoError(t, err)
		sk3, err := kgen3.GenSecretKeyNew()
		require.NoError(t, err)
		_, err = kgen3.GenSecretKeyNew()
		require.NoError(t, err)
		hint3, err := kgen3.Generate(sk3, tc.skOut, nil)
		require.NoError(t, err)
		require.True(t, hint3.A.Equal(hint0.A))
		require.False(t, hint3.B.Equal(hint0.B))

		// fresh seeds yield fresh keys
		kgen2, err := NewKeyGenerator(params, tc.tables, nil)
		require.NoError(t, err)
		sk2, err := kgen2.GenSecretKeyNew()
		require.NoError(t, err)
		require.False(t, sk0.Equal(sk2))
	})

	t.Run(testString(params, params.MaxLevelQ(), "KeyGenerator/Prior"), func(t *testing.T) {

		skNew, err := tc.kgen.GenSecretKeyNew()
		require.NoError(t, err)

		hint, err := tc.kgen.Generate(tc.skIn, skNew, tc.hint)
		require.NoError(t, err)

		require.True(t, hint.A.Equal(tc.hint.A))
		require.Equal(t, tc.hint.Seed, hint.Seed)
		require.False(t, hint.B.Equal(tc.hint.B))

		ct := tc.newRandomCiphertext(1, params.MaxLevelQ(), ring.Evaluation)
		ctIn := ct.CopyNew()
		require.NoError(t, tc.eval.Apply(hint, ct))

		ns, err := NoiseKeySwitch(params, ctIn, tc.skIn, ct, skNew)
		require.NoError(t, err)
		require.LessOrEqual(t, ns.Std, tc.noiseBound(params.MaxLevelQ()))

		// a prior hint of another technique is rejected
		other := tc.hint.CopyNew()
		other.Technique = other.Technique%HYBRID + 1
		_, err = tc.kgen.Generate(tc.skIn, skNew, other)
		require.ErrorIs(t, err, ErrUnsupportedTechnique)
	})

	t.Run(testString(params, params.MaxLevelQ(), "Hint/CopyNew"), func(t *testing.T) {
		hint := tc.hint.CopyNew()
		require.True(t, hint.Equal(tc.hint))
		require.Len(t, hint.Polys(), 2*hint.DigitCount())
		hint.B[0].Q.Coeffs[0][0] ^= 1
		require.False(t, hint.Equal(tc.hint))
	})
}

func testApply(tc *testContext, level int, t *testing.T) {

	params := tc.params

	for _, format := range []ring.Format{ring.Evaluation, ring.Coefficient} {

		t.Run(testString(params, level, fmt.Sprintf("Apply/Format=%s", format)), func(t *testing.T) {

			ct := tc.newRandomCiphertext(1, level, format)
			ctIn := ct.CopyNew()

			require.NoError(t, tc.eval.Apply(tc.hint, ct))

			require.Equal(t, format, ct.Format())
			require.Equal(t, level, ct.Level())
			require.Equal(t, params.Technique(), ct.Technique)

			ns, err := NoiseKeySwitch(params, ctIn, tc.skIn, ct, tc.skOut)
			require.NoError(t, err)
			require.LessOrEqual(t, ns.Std, tc.noiseBound(level), ns.String())
		})
	}

	t.Run(testString(params, level, "Apply/ShallowCopy"), func(t *testing.T) {

		ct0 := tc.newRandomCiphertext(1, level, ring.Evaluation)
		ct1 := ct0.CopyNew()

		require.NoError(t, tc.eval.Apply(tc.hint, ct0))
		require.NoError(t, tc.eval.ShallowCopy().Apply(tc.hint, ct1))

		ringQ := params.RingQ().AtLevel(level)
		require.True(t, ringQ.Equal(ct0.Value[0], ct1.Value[0]))
		require.True(t, ringQ.Equal(ct0.Value[1], ct1.Value[1]))
	})
}

func testRelinearize(tc *testContext, level int, t *testing.T) {

	params := tc.params

	t.Run(testString(params, level, "Apply/Degree=2"), func(t *testing.T) {

		ringQP := params.RingQP()
		if params.HintLevelP() == -1 {
			ringQP.RingP = nil
		}

		// s^2 -> s
		sk2 := &SecretKey{Value: tc.skOut.Value.CopyNew()}
		require.NoError(t, ringQP.MulCoeffs(tc.skOut.Value, tc.skOut.Value, sk2.Value))

		rlk, err := tc.kgen.Generate(sk2, tc.skOut, nil)
		require.NoError(t, err)

		ct := tc.newRandomCiphertext(2, level, ring.Evaluation)
		ctIn := ct.CopyNew()

		require.NoError(t, tc.eval.Apply(rlk, ct))
		require.Equal(t, 1, ct.Degree())

		ns, err := NoiseKeySwitch(params, ctIn, tc.skOut, ct, tc.skOut)
		require.NoError(t, err)
		require.LessOrEqual(t, ns.Std, tc.noiseBound(level), ns.String())
	})
}

func testAutomorphism(tc *testContext, level int, t *testing.T) {

	params := tc.params
	ringQ := params.RingQ().AtLevel(level)

	galEl := uint64(2)
	if ringQ.IsPowerOfTwo() {
		var err error
		galEl, err = ringQ.GaloisElement(1)
		require.NoError(t, err)
	}

	hint, err := tc.kgen.GenerateAutomorphism(tc.skOut, galEl)
	require.NoError(t, err)
	require.Equal(t, galEl, hint.GaloisElement)

	ct := tc.newRandomCiphertext(1, level, ring.Evaluation)

	// phi(<ct, s>)
	want, err := Phase(params, ct, tc.skOut)
	require.NoError(t, err)
	require.NoError(t, ringQ.AutomorphismTransform(want, galEl, want))

	noise := func(t *testing.T, ctOut *Ciphertext) NoiseStats {
		have, err := Phase(params, ctOut, tc.skOut)
		require.NoError(t, err)
		require.NoError(t, ringQ.Sub(have, want, have))
		ns, err := Noise(params, have)
		require.NoError(t, err)
		return ns
	}

	ctOut := NewCiphertext(params, 1, level)

	t.Run(testString(params, level, "Automorphism"), func(t *testing.T) {
		require.NoError(t, tc.eval.Automorphism(ct, galEl, hint, ctOut))
		ns := noise(t, ctOut)
		require.LessOrEqual(t, ns.Std, tc.noiseBound(level), ns.String())
	})

	t.Run(testString(params, level, "Automorphism/Hoisted"), func(t *testing.T) {

		pre, err := tc.eval.Precompute(ct)
		require.NoError(t, err)
		require.Len(t, pre.Digits, tc.tables.DigitCount(level))

		ctHoisted := NewCiphertext(params, 1, level)
		require.NoError(t, tc.eval.ApplyAutomorphismHoisted(pre, galEl, hint, ctHoisted))
		require.Equal(t, ring.Evaluation, ctHoisted.Format())

		ns := noise(t, ctHoisted)
		require.LessOrEqual(t, ns.Std, tc.noiseBound(level), ns.String())

		// both paths decrypt to the same plaintext up to the key-switching error
		have, err := Phase(params, ctHoisted, tc.skOut)
		require.NoError(t, err)
		ref, err := Phase(params, ctOut, tc.skOut)
		require.NoError(t, err)
		require.NoError(t, ringQ.Sub(have, ref, have))
		ns, err = Noise(params, have)
		require.NoError(t, err)
		require.LessOrEqual(t, ns.Std, tc.noiseBound(level)+1, ns.String())

		// the hint of another Galois element is rejected
		require.ErrorIs(t, tc.eval.ApplyAutomorphismHoisted(pre, galEl*galEl, hint, ctHoisted), ring.ErrParameterMismatch)
	})
}

func testErrors(tc *testContext, t *testing.T) {

	params := tc.params
	level := params.MaxLevelQ()

	t.Run(testString(params, level, "Errors/Technique"), func(t *testing.T) {

		hint := tc.hint.CopyNew()
		hint.Technique = hint.Technique%HYBRID + 1
		require.ErrorIs(t, tc.eval.Apply(hint, tc.newRandomCiphertext(1, level, ring.Evaluation)), ErrUnsupportedTechnique)

		ct := tc.newRandomCiphertext(1, level, ring.Evaluation)
		ct.Technique = params.Technique()%HYBRID + 1
		require.ErrorIs(t, tc.eval.Apply(tc.hint, ct), ErrUnsupportedTechnique)
		_, err := tc.eval.Precompute(ct)
		require.ErrorIs(t, err, ErrUnsupportedTechnique)
	})

	t.Run(testString(params, level, "Errors/Level"), func(t *testing.T) {

		if level > 0 {
			hint := tc.hint.CopyNew()
			for d := range hint.B {
				hint.A[d].Q.Resize(0)
				hint.B[d].Q.Resize(0)
			}
			require.ErrorIs(t, tc.eval.Apply(hint, tc.newRandomCiphertext(1, level, ring.Evaluation)), ErrLevelMismatch)

			ct := tc.newRandomCiphertext(1, level, ring.Evaluation)
			ct.Value[1].Resize(level - 1)
			require.ErrorIs(t, tc.eval.Apply(tc.hint, ct), ErrLevelMismatch)
		}

		ct := tc.newRandomCiphertext(1, level, ring.Evaluation)
		ct.Value[1].Format = ring.Coefficient
		require.ErrorIs(t, tc.eval.Apply(tc.hint, ct), ring.ErrWrongFormat)
	})

	t.Run(testString(params, level, "Errors/Parameters"), func(t *testing.T) {

		hint := tc.hint.CopyNew()
		hint.Fingerprint[0] ^= 1
		require.ErrorIs(t, tc.eval.Apply(hint, tc.newRandomCiphertext(1, level, ring.Evaluation)), ring.ErrParameterMismatch)

		lit := params.ParametersLiteral()
		lit.Xs = ring.Ternary{H: 2}
		paramsOther, err := NewParametersFromLiteral(lit)
		require.NoError(t, err)

		// the distributions are not part of the fingerprint
		_, err = NewEvaluator(paramsOther, tc.tables)
		require.NoError(t, err)

		lit.Q = append([]uint64{}, lit.Q[:len(lit.Q)-1]...)
		if params.Technique() == HYBRID && params.NumPartQ() > len(lit.Q) {
			lit.NumPartQ = len(lit.Q)
		}
		paramsOther, err = NewParametersFromLiteral(lit)
		require.NoError(t, err)

		_, err = NewEvaluator(paramsOther, tc.tables)
		require.ErrorIs(t, err, ring.ErrParameterMismatch)

		_, err = NewKeyGenerator(paramsOther, tc.tables, nil)
		require.ErrorIs(t, err, ring.ErrParameterMismatch)

		require.ErrorIs(t, tc.eval.Apply(tc.hint, &Ciphertext{Value: []*ring.Poly{ring.NewPoly(params.N(), level)}}), ring.ErrParameterMismatch)
	})
}

func testUserDefinedParameters(t *testing.T) {

	t.Run("Parameters/UnmarshalJSON", func(t *testing.T) {

		var err error

		// checks that Parameters can be unmarshalled with log-moduli definition without error
		dataWithLogModuli := []byte(`{"LogN":4,"LogQ":[50,40],"LogP":[60],"Technique":"HYBRID","NumPartQ":2}`)
		var paramsWithLogModuli Parameters
		require.NoError(t, json.Unmarshal(dataWithLogModuli, &paramsWithLogModuli))
		require.Equal(t, HYBRID, paramsWithLogModuli.Technique())
		require.Equal(t, 2, paramsWithLogModuli.NumPartQ())
		require.Equal(t, 1, paramsWithLogModuli.MaxLevelQ())
		require.Equal(t, 0, paramsWithLogModuli.MaxLevelP())
		require.True(t, paramsWithLogModuli.Xe() == DefaultXe) // Omitting Xe should result in Default being used
		require.True(t, paramsWithLogModuli.Xs() == DefaultXs) // Omitting Xs should result in Default being used

		// checks that one can provide custom parameters for the secret-key and error distributions
		dataWithCustomSecrets := []byte(`{"CyclotomicOrder":15,"LogQ":[50],"Technique":"BV","BaseBits":10,"Xs":{"Type":"Ternary", "H":4},"Xe":{"Type":"DiscreteGaussian","Sigma":6.4,"Bound":38}}`)
		var paramsWithCustomSecrets Parameters
		require.NoError(t, json.Unmarshal(dataWithCustomSecrets, &paramsWithCustomSecrets))
		require.Equal(t, 8, paramsWithCustomSecrets.N())
		require.Equal(t, BV, paramsWithCustomSecrets.Technique())
		require.Equal(t, 10, paramsWithCustomSecrets.BaseBits())
		require.True(t, paramsWithCustomSecrets.Xe() == ring.DiscreteGaussian{Sigma: 6.4, Bound: 38})
		require.True(t, paramsWithCustomSecrets.Xs() == ring.Ternary{H: 4})

		// checks that an unknown technique yields an error
		var paramsWithBadTechnique Parameters
		err = json.Unmarshal([]byte(`{"LogN":4,"LogQ":[50],"Technique":"BGV"}`), &paramsWithBadTechnique)
		require.ErrorIs(t, err, ErrUnsupportedTechnique)
	})

	t.Run("Parameters/Invalid", func(t *testing.T) {

		// GHS without P
		_, err := NewParametersFromLiteral(ParametersLiteral{LogN: 4, LogQ: []int{50}, Technique: GHS})
		require.ErrorIs(t, err, ring.ErrParameterMismatch)

		// GHS with P < Q
		_, err = NewParametersFromLiteral(ParametersLiteral{LogN: 4, LogQ: []int{50, 50}, LogP: []int{40}, Technique: GHS})
		require.ErrorIs(t, err, ring.ErrParameterMismatch)

		// HYBRID with more partitions than moduli
		_, err = NewParametersFromLiteral(ParametersLiteral{LogN: 4, LogQ: []int{50}, LogP: []int{50}, Technique: HYBRID, NumPartQ: 2})
		require.ErrorIs(t, err, ring.ErrParameterMismatch)

		// No technique
		_, err = NewParametersFromLiteral(ParametersLiteral{LogN: 4, LogQ: []int{50}})
		require.ErrorIs(t, err, ErrUnsupportedTechnique)

		// Both LogN and CyclotomicOrder
		_, err = NewParametersFromLiteral(ParametersLiteral{LogN: 4, CyclotomicOrder: 15, LogQ: []int{50}, Technique: BV})
		require.ErrorIs(t, err, ring.ErrParameterMismatch)
	})

	t.Run("Tables/EmptyPartition", func(t *testing.T) {

		// ceil(4/3) = 2 towers per partition leaves the third partition empty
		params, err := NewParametersFromLiteral(ParametersLiteral{LogN: 4, LogQ: []int{40, 40, 40, 40}, LogP: []int{50}, Technique: HYBRID, NumPartQ: 3})
		require.NoError(t, err)

		_, err = NewTables(params)
		require.ErrorIs(t, err, ring.ErrParameterMismatch)
	})
}
