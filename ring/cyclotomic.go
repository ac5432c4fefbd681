package ring

import (
	"sync"

	"github.com/rnslab/dcrt/utils"
)

var cyclotomicCache = struct {
	sync.Mutex
	polys map[int][]int64
}{polys: map[int][]int64{}}

// CyclotomicPolynomial returns the integer coefficients of the m-th cyclotomic
// polynomial Phi_m(X), from the constant term up to the leading (unit) coefficient.
// It is computed from X^m - 1 = prod_{d | m} Phi_d(X).
func CyclotomicPolynomial(m int) []int64 {

	cyclotomicCache.Lock()
	defer cyclotomicCache.Unlock()

	return cyclotomicPolynomial(m)
}

func cyclotomicPolynomial(m int) (phi []int64) {

	if phi, ok := cyclotomicCache.polys[m]; ok {
		return phi
	}

	// X^m - 1
	phi = make([]int64, m+1)
	phi[0] = -1
	phi[m] = 1

	for _, d := range utils.Divisors(m) {
		if d < m {
			phi = divideMonic(phi, cyclotomicPolynomial(d))
		}
	}

	cyclotomicCache.polys[m] = phi

	return
}

// divideMonic returns a / b for a monic divisor b that divides a exactly.
func divideMonic(a, b []int64) (quo []int64) {

	rem := make([]int64, len(a))
	copy(rem, a)

	degB := len(b) - 1
	quo = make([]int64, len(a)-degB)

	for d := len(a) - 1; d >= degB; d-- {
		c := rem[d]
		quo[d-degB] = c
		if c != 0 {
			for i := 0; i <= degB; i++ {
				rem[d-degB+i] -= c * b[i]
			}
		}
	}

	return
}

// cyclotomicPolynomialModQ returns Phi_m(X) mod q.
func cyclotomicPolynomialModQ(m int, q uint64) (phi []uint64) {
	phiZ := CyclotomicPolynomial(m)
	phi = make([]uint64, len(phiZ))
	for i, c := range phiZ {
		if c < 0 {
			phi[i] = ModNeg(uint64(-c)%q, q)
		} else {
			phi[i] = uint64(c) % q
		}
	}
	return
}

// reduceModCyclotomic reduces in place the polynomial p of degree smaller than len(p)
// modulo the monic polynomial phi of degree n. The result is stored in p[:n].
func reduceModCyclotomic(p, phi []uint64, q uint64, bredconstant [2]uint64) {

	n := len(phi) - 1

	for d := len(p) - 1; d >= n; d-- {

		c := p[d]

		if c == 0 {
			continue
		}

		for i := 0; i < n; i++ {
			p[d-n+i] = ModSub(p[d-n+i], BRed(c, phi[i], q, bredconstant), q)
		}

		p[d] = 0
	}
}
