package ring

// NumberTheoreticTransformer is an interface to provide
// flexibility on what type of NTT is used by the struct SubRing.
// Forward maps the coefficients of a polynomial of Z_q[X]/(Phi_m(X)) to its
// evaluations at the primitive m-th roots of unity, Backward is its exact inverse.
// Both accept p1 == p2.
type NumberTheoreticTransformer interface {
	Forward(p1, p2 []uint64)
	Backward(p1, p2 []uint64)
}

// NumberTheoreticTransformerStandard computes the standard nega-cyclic NTT in the ring Z[X]/(X^N+1).
// Evaluations are returned in bit-reversed order: the i-th value is p(psi^(2*brv(i)+1)).
type NumberTheoreticTransformerStandard struct {
	n                           int
	nInv, modulus, mredConstant uint64
	rootsForward, rootsBackward []uint64
}

// NewNumberTheoreticTransformerStandard returns the nega-cyclic transformer of dimension n
// built on the tables of the SubRing s.
func NewNumberTheoreticTransformerStandard(s *SubRing, n int) NumberTheoreticTransformer {
	return NumberTheoreticTransformerStandard{
		n:             n,
		nInv:          s.NInv,
		modulus:       s.Modulus,
		mredConstant:  s.MRedConstant,
		rootsForward:  s.RootsForward,
		rootsBackward: s.RootsBackward,
	}
}

// Forward writes the forward NTT in Z[X]/(X^N+1) of p1 on p2.
func (rntt NumberTheoreticTransformerStandard) Forward(p1, p2 []uint64) {
	nttStandard(p1, p2, rntt.n, rntt.modulus, rntt.mredConstant, rntt.rootsForward)
}

// Backward writes the backward NTT in Z[X]/(X^N+1) of p1 on p2.
func (rntt NumberTheoreticTransformerStandard) Backward(p1, p2 []uint64) {
	inttStandard(p1, p2, rntt.n, rntt.nInv, rntt.modulus, rntt.mredConstant, rntt.rootsBackward)
}

// nttStandard computes the Cooley-Tukey nega-cyclic NTT of p1 on p2 in place,
// with the roots in bit-reversed order and in the Montgomery domain.
func nttStandard(p1, p2 []uint64, N int, Q, MRedConstant uint64, roots []uint64) {

	if &p1[0] != &p2[0] {
		copy(p2[:N], p1[:N])
	}

	var U, V, F uint64

	t := N
	for m := 1; m < N; m <<= 1 {

		t >>= 1

		for i := 0; i < m; i++ {

			j1 := 2 * i * t

			F = roots[m+i]

			for jx, jy := j1, j1+t; jx < j1+t; jx, jy = jx+1, jy+1 {
				U = p2[jx]
				V = MRed(p2[jy], F, Q, MRedConstant)
				p2[jx] = CRed(U+V, Q)
				p2[jy] = CRed(U+Q-V, Q)
			}
		}
	}
}

// inttStandard computes the Gentleman-Sande inverse nega-cyclic NTT of p1 on p2,
// including the final multiplication by N^-1.
func inttStandard(p1, p2 []uint64, N int, NInv, Q, MRedConstant uint64, roots []uint64) {

	if &p1[0] != &p2[0] {
		copy(p2[:N], p1[:N])
	}

	var U, V, F uint64

	t := 1
	for m := N; m > 1; m >>= 1 {

		h := m >> 1

		for i, j1 := 0, 0; i < h; i, j1 = i+1, j1+2*t {

			F = roots[h+i]

			for jx, jy := j1, j1+t; jx < j1+t; jx, jy = jx+1, jy+1 {
				U = p2[jx]
				V = p2[jy]
				p2[jx] = CRed(U+V, Q)
				p2[jy] = MRed(U+Q-V, F, Q, MRedConstant)
			}
		}

		t <<= 1
	}

	for i := range p2[:N] {
		p2[i] = MRed(p2[i], NInv, Q, MRedConstant)
	}
}
