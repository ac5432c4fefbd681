package sampling_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rnslab/dcrt/utils/sampling"
)

func Test_PRNG(t *testing.T) {

	t.Run("PRNG", func(t *testing.T) {

		key := []byte{0x49, 0x0a, 0x42, 0x3d, 0x97, 0x9d, 0xc1, 0x07, 0xa1, 0xd7, 0xe9, 0x7b, 0x3b, 0xce, 0xa1, 0xdb,
			0x42, 0xf3, 0xa6, 0xd5, 0x75, 0xd2, 0x0c, 0x92, 0xb7, 0x35, 0xce, 0x0c, 0xee, 0x09, 0x7c, 0x98}

		Ha, _ := sampling.NewKeyedPRNG(key)
		Hb, _ := sampling.NewKeyedPRNG(key)

		sum0 := make([]byte, 512)
		sum1 := make([]byte, 512)

		for i := 0; i < 128; i++ {
			Hb.Read(sum1)
		}

		Hb.Reset()

		Ha.Read(sum0)
		Hb.Read(sum1)

		require.Equal(t, sum0, sum1)
		require.Equal(t, key, Ha.Key())
	})

	t.Run("DeriveKey", func(t *testing.T) {
		seed := []byte("seed")
		k0 := sampling.DeriveKey(seed, "a")
		k1 := sampling.DeriveKey(seed, "a")
		k2 := sampling.DeriveKey(seed, "b")
		require.Len(t, k0, 32)
		require.Equal(t, k0, k1)
		require.NotEqual(t, k0, k2)

		// the seed and the label are not concatenated
		require.NotEqual(t, sampling.DeriveKey([]byte("ab"), "c"), sampling.DeriveKey([]byte("a"), "bc"))
		require.NotEqual(t, sampling.DeriveKey(seed, "a"), sampling.DeriveKey(append(seed, 'a'), ""))
	})
}
