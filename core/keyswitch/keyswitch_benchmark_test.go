package keyswitch

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rnslab/dcrt/ring"
)

func BenchmarkKeySwitch(b *testing.B) {

	var err error

	defaultParamsLiteral := testInsecure

	if *flagParamString != "" {
		var jsonParams ParametersLiteral
		if err = json.Unmarshal([]byte(*flagParamString), &jsonParams); err != nil {
			b.Fatal(err)
		}
		defaultParamsLiteral = []ParametersLiteral{jsonParams} // the custom test suite reads the parameters from the -params flag
	}

	for _, paramsLit := range defaultParamsLiteral {

		var params Parameters
		if params, err = NewParametersFromLiteral(paramsLit); err != nil {
			b.Fatal(err)
		}

		tc, err := newTestContext(params)
		require.NoError(b, err)

		for _, testSet := range []func(tc *testContext, b *testing.B){
			benchTables,
			benchKeyGenerator,
			benchEvaluator,
		} {
			testSet(tc, b)
			runtime.GC()
		}
	}
}

func benchTables(tc *testContext, b *testing.B) {

	params := tc.params

	b.Run(testString(params, params.MaxLevelQ(), "NewTables"), func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := NewTables(params); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func benchKeyGenerator(tc *testContext, b *testing.B) {

	params := tc.params
	kgen := tc.kgen

	b.Run(testString(params, params.MaxLevelQ(), "KeyGenerator/GenSecretKey"), func(b *testing.B) {
		sk := NewSecretKey(params)
		for i := 0; i < b.N; i++ {
			if err := kgen.GenSecretKey(sk); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run(testString(params, params.MaxLevelQ(), "KeyGenerator/Generate"), func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := kgen.Generate(tc.skIn, tc.skOut, nil); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func benchEvaluator(tc *testContext, b *testing.B) {

	params := tc.params
	eval := tc.eval
	level := params.MaxLevelQ()

	b.Run(testString(params, level, "Evaluator/Apply"), func(b *testing.B) {
		ct := tc.newRandomCiphertext(1, level, ring.Evaluation)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ct.Technique = 0
			if err := eval.Apply(tc.hint, ct); err != nil {
				b.Fatal(err)
			}
		}
	})

	galEl := uint64(2)
	if params.RingQ().IsPowerOfTwo() {
		var err error
		galEl, err = params.RingQ().GaloisElement(1)
		require.NoError(b, err)
	}

	hint, err := tc.kgen.GenerateAutomorphism(tc.skOut, galEl)
	require.NoError(b, err)

	ct := tc.newRandomCiphertext(1, level, ring.Evaluation)
	ctOut := NewCiphertext(params, 1, level)

	b.Run(testString(params, level, "Evaluator/Precompute"), func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := eval.Precompute(ct); err != nil {
				b.Fatal(err)
			}
		}
	})

	pre, err := eval.Precompute(ct)
	require.NoError(b, err)

	b.Run(testString(params, level, "Evaluator/ApplyAutomorphismHoisted"), func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if err := eval.ApplyAutomorphismHoisted(pre, galEl, hint, ctOut); err != nil {
				b.Fatal(err)
			}
		}
	})
}
