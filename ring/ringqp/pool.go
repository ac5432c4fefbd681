package ringqp

import (
	"github.com/rnslab/dcrt/utils/structs"
)

// BufferPool represents a pool of polys that can be used (concurrently) to instantiate temporary polynomials in RingQP.
// Polynomials drawn from the pool are allocated at the maximum levels of the ring.
type BufferPool struct {
	ringQP Ring
	pool   *structs.SyncPool[*Poly]
}

// NewPool returns a new pool of polynomials of the given RingQP.
func NewPool(ringQP Ring) *BufferPool {

	levelQ, levelP := -1, -1
	if ringQP.RingQ != nil {
		levelQ = ringQP.RingQ.MaxLevel()
	}
	if ringQP.RingP != nil {
		levelP = ringQP.RingP.MaxLevel()
	}

	N := ringQP.N()

	return &BufferPool{
		ringQP: ringQP,
		pool: structs.NewSyncPool(func() *Poly {
			return NewPoly(N, levelQ, levelP)
		}),
	}
}

// GetBuffPolyQP returns a new [Poly] obtained from the pool, at the maximum levels and with undefined coefficients.
// After use, the [Poly] should be recycled using the [BufferPool.RecycleBuffPolyQP] method.
func (p *BufferPool) GetBuffPolyQP() *Poly {
	return p.pool.Get()
}

// RecycleBuffPolyQP returns the [Poly] to the pool. The input [Poly] must not be used after calling this method.
// Polynomials that were resized are restored to the maximum levels.
func (p *BufferPool) RecycleBuffPolyQP(poly *Poly) {
	levelQ, levelP := -1, -1
	if p.ringQP.RingQ != nil {
		levelQ = p.ringQP.RingQ.MaxLevel()
	}
	if p.ringQP.RingP != nil {
		levelP = p.ringQP.RingP.MaxLevel()
	}
	poly.Resize(levelQ, levelP)
	p.pool.Put(poly)
}
