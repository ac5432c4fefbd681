// Package utils implements various helper functions.
package utils

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Number is the set of scalar types the generic helpers operate on.
type Number interface {
	constraints.Integer | constraints.Float
}

// Min returns the minimum of the two inputs.
func Min[V Number](a, b V) (r V) {
	if a <= b {
		return a
	}
	return b
}

// Max returns the maximum of the two inputs.
func Max[V Number](a, b V) (r V) {
	if a >= b {
		return a
	}
	return b
}

// MaxSlice returns the maximum value of the input slice.
func MaxSlice[V Number](slice []V) (max V) {
	for i := range slice {
		if i == 0 || slice[i] > max {
			max = slice[i]
		}
	}
	return
}

// Abs returns |x|.
func Abs[V constraints.Signed | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

// IsInSlice checks if x is in slice.
func IsInSlice[V comparable](x V, slice []V) (v bool) {
	for i := range slice {
		v = v || (slice[i] == x)
	}
	return
}

// BitReverse64 returns the bit-reverse value of the input value, within a context of 2^bitLen.
func BitReverse64[T constraints.Integer](index T, bitLen int) uint64 {
	return bits.Reverse64(uint64(index)) >> (64 - bitLen)
}

// IsPowerOfTwo returns true if x is a positive power of two.
func IsPowerOfTwo[T constraints.Integer](x T) bool {
	return x > 0 && x&(x-1) == 0
}

// GCD computes the greatest common divisor between a and b.
func GCD[T constraints.Integer](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM computes the least common multiple between a and b.
func LCM[T constraints.Integer](a, b T) T {
	if a == 0 || b == 0 {
		return 0
	}
	return a / GCD(a, b) * b
}

// AllDistinct returns true if all elements in s are distinct, and false otherwise.
func AllDistinct[V comparable](s []V) bool {
	m := make(map[V]struct{}, len(s))
	for _, si := range s {
		if _, exists := m[si]; exists {
			return false
		}
		m[si] = struct{}{}
	}
	return true
}

// Totient returns the sorted list of integers in [1, m) coprime with m.
func Totient(m int) (indices []int) {
	for i := 1; i < m; i++ {
		if GCD(i, m) == 1 {
			indices = append(indices, i)
		}
	}
	if m == 1 {
		indices = []int{0}
	}
	return
}

// Divisors returns the positive divisors of n in increasing order.
func Divisors(n int) (div []int) {
	for d := 1; d <= n; d++ {
		if n%d == 0 {
			div = append(div, d)
		}
	}
	return
}
