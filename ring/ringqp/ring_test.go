package ringqp

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/utils/sampling"
	"github.com/rnslab/dcrt/utils/structs"
)

func testString(opname string, r Ring) string {
	return fmt.Sprintf("%s/N=%d/LevelQ=%d/LevelP=%d", opname, r.N(), r.LevelQ(), r.LevelP())
}

func TestRingQP(t *testing.T) {

	LogN := 4

	primes, err := ring.GenerateNTTPrimes(40, 2<<LogN, 5)
	require.NoError(t, err)

	ringQ, err := ring.NewRing(1<<LogN, primes[:3])
	require.NoError(t, err)

	ringP, err := ring.NewRing(1<<LogN, primes[3:])
	require.NoError(t, err)

	ringQP, err := NewRing(ringQ, ringP)
	require.NoError(t, err)

	prng, err := sampling.NewKeyedPRNG([]byte{'r', 'i', 'n', 'g', 'q', 'p'})
	require.NoError(t, err)

	usampler := NewUniformSampler(prng, ringQP)

	t.Run(testString("NewRing/Mismatch", ringQP), func(t *testing.T) {
		Q15, err := ring.GenerateNTTPrimes(30, ring.RequiredNthRoot(15), 1)
		require.NoError(t, err)
		ringQ15, err := ring.NewRingFromCyclotomicOrder(15, Q15)
		require.NoError(t, err)
		_, err = NewRing(ringQ15, ringP)
		require.ErrorIs(t, err, ring.ErrParameterMismatch)
		_, err = NewRing(nil, ringP)
		require.ErrorIs(t, err, ring.ErrParameterMismatch)
	})

	t.Run(testString("NTT", ringQP), func(t *testing.T) {
		p := usampler.ReadNew()
		q := ringQP.NewPoly()
		require.NoError(t, ringQP.NTT(p, q))
		require.NoError(t, ringQP.INTT(q, q))
		require.True(t, ringQP.Equal(p, q))
	})

	t.Run(testString("Add/Sub", ringQP), func(t *testing.T) {
		a := usampler.ReadNew()
		b := usampler.ReadNew()
		c := ringQP.NewPoly()
		require.NoError(t, ringQP.Add(a, b, c))
		require.NoError(t, ringQP.Sub(c, b, c))
		require.True(t, ringQP.Equal(a, c))
		require.NoError(t, ringQP.Neg(a, c))
		require.NoError(t, ringQP.Add(a, c, c))
		require.True(t, ringQP.Equal(ringQP.NewPoly(), c))
	})

	t.Run(testString("MulCoeffsThenAdd", ringQP), func(t *testing.T) {
		a := usampler.ReadNew()
		b := usampler.ReadNew()
		require.NoError(t, ringQP.SetFormat(a, ring.Evaluation))
		require.NoError(t, ringQP.SetFormat(b, ring.Evaluation))

		c := ringQP.NewPoly()
		require.NoError(t, ringQP.SetFormat(c, ring.Evaluation))
		require.NoError(t, ringQP.MulCoeffsThenAdd(a, b, c))
		require.NoError(t, ringQP.MulCoeffsThenAdd(a, b, c))

		d := ringQP.NewPoly()
		require.NoError(t, ringQP.MulCoeffs(a, b, d))
		require.NoError(t, ringQP.MulScalar(d, 2, d))
		require.True(t, ringQP.Equal(c, d))

		require.ErrorIs(t, ringQP.MulCoeffs(a, usampler.ReadNew(), d), ring.ErrWrongFormat)
	})

	t.Run(testString("ExtendBasisSmallNormAndCenter", ringQP), func(t *testing.T) {

		small := []int64{-7, 3, 0, 1, -1, 5}

		pQ := ringQ.NewPoly()
		require.NoError(t, ringQ.SetCoefficientsInt64(small, pQ))

		// only the first tower is read
		for i := 1; i < len(pQ.Coeffs); i++ {
			for j := range pQ.Coeffs[i] {
				pQ.Coeffs[i][j] = 0
			}
		}

		out := ringQP.NewPoly()
		require.NoError(t, ringQP.ExtendBasisSmallNormAndCenter(pQ, out.Q, out.P))

		coeffs := make([]*big.Int, ringQP.N())
		require.NoError(t, ringQP.PolyToBigintCentered(out, 1, coeffs))

		for j := range coeffs {
			want := int64(0)
			if j < len(small) {
				want = small[j]
			}
			require.Equal(t, want, coeffs[j].Int64())
		}

		// in place on the Q part
		require.NoError(t, ringQP.ExtendBasisSmallNormAndCenter(pQ, pQ, nil))
		require.True(t, ringQ.Equal(out.Q, pQ))
	})

	t.Run(testString("AtLevel", ringQP), func(t *testing.T) {
		r := ringQP.AtLevel(1, 0)
		require.Equal(t, 1, r.LevelQ())
		require.Equal(t, 0, r.LevelP())
		p := r.NewPoly()
		require.Equal(t, 1, p.LevelQ())
		require.Equal(t, 0, p.LevelP())
		require.Zero(t, r.Modulus().Cmp(new(big.Int).Mul(ringQ.AtLevel(1).Modulus(), ringP.AtLevel(0).Modulus())))

		require.Equal(t, -1, ringQP.AtLevel(1, -1).LevelP())
		require.Nil(t, NewPoly(ringQP.N(), 1, -1).P)
	})

	t.Run(testString("Log2OfStandardDeviation", ringQP), func(t *testing.T) {
		p := usampler.ReadNew()
		std, err := ringQP.Log2OfStandardDeviation(p)
		require.NoError(t, err)
		// uniform over QP: std ~ QP/sqrt(12)
		logQP := float64(ringQP.Modulus().BitLen())
		require.InDelta(t, logQP-1.79, std, 2)
	})

	t.Run(testString("BufferPool", ringQP), func(t *testing.T) {
		pool := NewPool(ringQP)
		p := pool.GetBuffPolyQP()
		require.Equal(t, ringQ.MaxLevel(), p.LevelQ())
		require.Equal(t, ringP.MaxLevel(), p.LevelP())
		p.Resize(0, 0)
		pool.RecycleBuffPolyQP(p)
		p = pool.GetBuffPolyQP()
		require.Equal(t, ringQ.MaxLevel(), p.LevelQ())
	})

	t.Run(testString("structs/PolyVector", ringQP), func(t *testing.T) {

		polys := make([]Poly, 4)

		for i := range polys {
			polys[i] = *usampler.ReadNew()
		}

		pv := structs.Vector[Poly](polys)
		cpy := pv.CopyNew()
		require.True(t, pv.Equal(cpy))
		cpy[0].Q.Coeffs[0][0]++
		require.False(t, pv.Equal(cpy))
	})
}
