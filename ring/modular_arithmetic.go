package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/rnslab/dcrt/utils/bignum"
)

// ModAdd returns a + b mod q, for a and b in [0, q-1].
func ModAdd(a, b, q uint64) uint64 {
	return CRed(a+b, q)
}

// ModSub returns a - b mod q, for a and b in [0, q-1].
func ModSub(a, b, q uint64) uint64 {
	return CRed(a+q-b, q)
}

// ModNeg returns -a mod q, for a in [0, q-1].
func ModNeg(a, q uint64) uint64 {
	if a == 0 {
		return 0
	}
	return q - a
}

// ModMul returns a * b mod q.
func ModMul(a, b, q uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	_, r := bits.Div64(hi%q, lo, q)
	return r
}

// ModExp performs the modular exponentiation x^e mod q,
// x and q are required to be at most 64 bits to avoid an overflow.
func ModExp(x, e, q uint64) (result uint64) {
	brc := GenBRedConstant(q)
	result = 1 % q
	x %= q
	for i := e; i > 0; i >>= 1 {
		if i&1 == 1 {
			result = BRed(result, x, q, brc)
		}
		x = BRed(x, x, q, brc)
	}
	return result
}

// ModInverse returns x^-1 mod q.
// Returns an error wrapping ErrNoInverseExists if gcd(x, q) != 1.
func ModInverse(x, q uint64) (uint64, error) {
	y, err := bignum.ModInverse(new(big.Int).SetUint64(x), new(big.Int).SetUint64(q))
	if err != nil {
		return 0, fmt.Errorf("cannot ModInverse: %w", err)
	}
	return y.Uint64(), nil
}

// BigModInverse returns x^-1 mod q over arbitrary precision integers.
// Returns an error wrapping ErrNoInverseExists if gcd(x, q) != 1.
func BigModInverse(x, q *big.Int) (*big.Int, error) {
	return bignum.ModInverse(x, q)
}

// EvalPolyModP evaluates y = sum poly[i] * x^{i} mod p.
func EvalPolyModP(x uint64, poly []uint64, p uint64) (y uint64) {
	brc := GenBRedConstant(p)
	y = poly[len(poly)-1]
	for i := len(poly) - 2; i >= 0; i-- {
		y = BRed(y, x, p, brc)
		y = CRed(y+poly[i], p)
	}
	return
}
