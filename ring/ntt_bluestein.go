package ring

import (
	"github.com/rnslab/dcrt/utils/structs"
)

// NumberTheoreticTransformerBluestein computes the NTT in the ring Z[X]/(Phi_m(X)) for an
// arbitrary cyclotomic order m. The i-th evaluation is p(w^(2*k_i)) where w is a primitive
// 2m-th root of unity and k_i is the i-th integer of [1, m) coprime with m.
//
// The length-m DFT is computed with the Bluestein chirp-z algorithm: jk = (j^2 + k^2 - (k-j)^2)/2
// turns it into a linear convolution that is evaluated with a nega-cyclic NTT of
// power-of-two size M >= 2m-1.
type NumberTheoreticTransformerBluestein struct {
	m, n, M      int
	modulus      uint64
	bredconstant [2]uint64

	totient []int
	conv    NumberTheoreticTransformerStandard

	// w^(j^2) and w^(-j^2) for j in [0, m).
	chirpForward, chirpBackward []uint64

	// NTT of the convolution kernels w^(-l^2) and w^(l^2) for l in (-m, m).
	kernelForward, kernelBackward []uint64

	mInv uint64
	phi  []uint64
	pool *structs.SyncPool[[]uint64]
}

// newNumberTheoreticTransformerBluestein builds the Bluestein transformer of order m. w must be a primitive
// 2m-th root of unity mod s.Modulus and the tables of s must be the ones of a nega-cyclic NTT of size M.
func newNumberTheoreticTransformerBluestein(s *SubRing, m, M int, w uint64) *NumberTheoreticTransformerBluestein {

	q := s.Modulus
	brc := s.BRedConstant

	b := &NumberTheoreticTransformerBluestein{
		m:            m,
		n:            s.N,
		M:            M,
		modulus:      q,
		bredconstant: brc,
		totient:      s.totient,
		phi:          cyclotomicPolynomialModQ(m, q),
	}

	b.conv = NewNumberTheoreticTransformerStandard(s, M).(NumberTheoreticTransformerStandard)

	// powers of w up to 2m
	wPow := make([]uint64, 2*m)
	wPow[0] = 1
	for i := 1; i < 2*m; i++ {
		wPow[i] = BRed(wPow[i-1], w, q, brc)
	}

	pow := func(e int) uint64 {
		e %= 2 * m
		if e < 0 {
			e += 2 * m
		}
		return wPow[e]
	}

	b.chirpForward = make([]uint64, m)
	b.chirpBackward = make([]uint64, m)
	for j := 0; j < m; j++ {
		b.chirpForward[j] = pow(j * j)
		b.chirpBackward[j] = pow(-j * j)
	}

	// kernel[l] = w^(-(l-m+1)^2) for l in [0, 2m-1)
	b.kernelForward = make([]uint64, M)
	b.kernelBackward = make([]uint64, M)
	for l := 0; l < 2*m-1; l++ {
		d := l - m + 1
		b.kernelForward[l] = pow(-d * d)
		b.kernelBackward[l] = pow(d * d)
	}

	b.conv.Forward(b.kernelForward, b.kernelForward)
	b.conv.Forward(b.kernelBackward, b.kernelBackward)

	b.mInv = ModExp(uint64(m)%q, q-2, q)

	b.pool = structs.NewSyncPool(func() []uint64 {
		return make([]uint64, M)
	})

	return b
}

// Forward writes the evaluations of p1 at the primitive m-th roots of unity on p2.
func (b *NumberTheoreticTransformerBluestein) Forward(p1, p2 []uint64) {

	q, brc := b.modulus, b.bredconstant

	buff := b.pool.Get()
	defer b.pool.Put(buff)

	for j := 0; j < b.n; j++ {
		buff[j] = BRed(p1[j], b.chirpForward[j], q, brc)
	}

	for j := b.n; j < b.M; j++ {
		buff[j] = 0
	}

	b.convolve(buff, b.kernelForward)

	for i, k := range b.totient {
		p2[i] = BRed(buff[k+b.m-1], b.chirpForward[k], q, brc)
	}
}

// Backward writes on p2 the polynomial of degree smaller than phi(m) whose evaluations are p1.
func (b *NumberTheoreticTransformerBluestein) Backward(p1, p2 []uint64) {

	q, brc := b.modulus, b.bredconstant

	buff := b.pool.Get()
	defer b.pool.Put(buff)

	for j := range buff {
		buff[j] = 0
	}

	for i, k := range b.totient {
		buff[k] = BRed(p1[i], b.chirpBackward[k], q, brc)
	}

	b.convolve(buff, b.kernelBackward)

	// x_j = m^-1 * w^(-j^2) * conv[j+m-1]
	m := b.m
	copy(buff[:m], buff[m-1:2*m-1])
	for j := 0; j < m; j++ {
		buff[j] = BRed(BRed(buff[j], b.chirpBackward[j], q, brc), b.mInv, q, brc)
	}

	reduceModCyclotomic(buff[:m], b.phi, q, brc)

	copy(p2[:b.n], buff[:b.n])
}

// convolve computes buff * kernel mod X^M+1, where kernel is given in the NTT domain.
func (b *NumberTheoreticTransformerBluestein) convolve(buff, kernel []uint64) {
	b.conv.Forward(buff, buff)
	for i := range buff {
		buff[i] = BRed(buff[i], kernel[i], b.modulus, b.bredconstant)
	}
	b.conv.Backward(buff, buff)
}
