package structs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type pair struct {
	a, b []uint64
}

func (p *pair) CopyNew() *pair {
	return &pair{a: append([]uint64{}, p.a...), b: append([]uint64{}, p.b...)}
}

func (p *pair) Equal(other *pair) bool {
	return Vector[uint64](p.a).Equal(other.a) && Vector[uint64](p.b).Equal(other.b)
}

func TestStructs(t *testing.T) {

	t.Run("Vector/Scalar", func(t *testing.T) {
		v := Vector[uint64]{1, 2, 3}
		w := v.CopyNew()
		require.True(t, v.Equal(w))
		w[0] = 4
		require.False(t, v.Equal(w))
		require.Equal(t, uint64(1), v[0])
	})

	t.Run("Vector/Struct", func(t *testing.T) {
		v := Vector[pair]{{a: []uint64{1}, b: []uint64{2}}, {a: []uint64{3}, b: []uint64{4}}}
		w := v.CopyNew()
		require.True(t, v.Equal(w))
		w[1].b[0] = 5
		require.False(t, v.Equal(w))
		require.False(t, v.Equal(w[:1]))
	})

	t.Run("SyncPool", func(t *testing.T) {
		pool := NewSyncPool(func() []uint64 { return make([]uint64, 8) })
		buf := pool.Get()
		require.Len(t, buf, 8)
		pool.Put(buf)
	})
}
