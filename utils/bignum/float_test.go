package bignum

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {

	t.Run("Log", func(t *testing.T) {
		y, _ := Log(NewFloat(1.4142135623730951, 53)).Float64()
		require.InDelta(t, math.Log(1.4142135623730951), y, 1e-15)
	})

	t.Run("Log2", func(t *testing.T) {
		require.InDelta(t, 200.0, Log2(new(big.Int).Lsh(NewInt(1), 200)), 1e-12)
		require.InDelta(t, math.Log2(12345), Log2(NewInt(-12345)), 1e-12)
		require.Equal(t, 0.0, Log2(NewInt(0)))
	})

}

func TestInt(t *testing.T) {

	t.Run("ModInverse", func(t *testing.T) {
		y, err := ModInverse(NewInt(3), NewInt(7))
		require.NoError(t, err)
		require.Equal(t, int64(5), y.Int64())

		_, err = ModInverse(NewInt(6), NewInt(9))
		require.ErrorIs(t, err, ErrNoInverseExists)
	})

	t.Run("CenteredMod", func(t *testing.T) {
		require.Equal(t, int64(-3), CenteredMod(NewInt(14), NewInt(17)).Int64())
		require.Equal(t, int64(3), CenteredMod(NewInt(-14), NewInt(17)).Int64())
	})

	t.Run("DivRound", func(t *testing.T) {
		i := new(big.Int)
		DivRound(NewInt(7), NewInt(2), i)
		require.Equal(t, int64(4), i.Int64())
		DivRound(NewInt(-7), NewInt(3), i)
		require.Equal(t, int64(-2), i.Int64())
	})

	t.Run("Product", func(t *testing.T) {
		require.Equal(t, int64(105), Product([]uint64{3, 5, 7}).Int64())
		require.Equal(t, int64(8), ModExp(NewInt(2), NewInt(3), NewInt(11)).Int64())
	})
}
