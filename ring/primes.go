package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/rnslab/dcrt/utils"
)

// IsPrime applies the Baillie-PSW, which is 100% accurate for numbers bellow 2^64.
func IsPrime(x uint64) bool {
	return new(big.Int).SetUint64(x).ProbablyPrime(0)
}

// GenerateNTTPrimes generates n NthRoot NTT friendly primes given logQ = size of the primes,
// i.e. primes q = 1 mod NthRoot. It starts from the largest integer = 1 mod NthRoot not above
// 2^logQ+1 and alternates between upward and downward search, keeping only primes of exactly
// logQ bits when logQ = MaxModuliSize.
func GenerateNTTPrimes(logQ int, NthRoot uint64, n int) (primes []uint64, err error) {

	if logQ > MaxModuliSize || logQ < 2 {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: logQ=%d must be between 2 and %d: %w", logQ, MaxModuliSize, ErrParameterMismatch)
	}

	if NthRoot == 0 {
		return nil, fmt.Errorf("cannot GenerateNTTPrimes: NthRoot cannot be zero: %w", ErrParameterMismatch)
	}

	Qpow2 := uint64(1) << logQ

	start := Qpow2 - Qpow2%NthRoot + 1

	// upward candidates are start+k*NthRoot for k > 0, downward ones start-k*NthRoot for k >= 0
	nextPrime, previousPrime := start, start+NthRoot

	checkNext := logQ < MaxModuliSize
	checkPrevious := true

	for len(primes) < n {

		if !(checkNext || checkPrevious) {
			return primes, fmt.Errorf("cannot GenerateNTTPrimes: not enough primes of %d bits for NthRoot=%d: %w", logQ, NthRoot, ErrParameterMismatch)
		}

		if checkNext {
			nextPrime += NthRoot
			if bits.Len64(nextPrime) > logQ+1 {
				checkNext = false
			} else if IsPrime(nextPrime) {
				primes = append(primes, nextPrime)
				continue
			}
		}

		if checkPrevious && len(primes) < n {
			if previousPrime <= NthRoot || bits.Len64(previousPrime-NthRoot) < logQ {
				checkPrevious = false
			} else {
				previousPrime -= NthRoot
				if IsPrime(previousPrime) {
					primes = append(primes, previousPrime)
				}
			}
		}
	}

	return
}

// PrimitiveRoot computes the smallest primitive root of the given prime q.
// The unique factors of q-1 can be given to speed up the search for the root.
func PrimitiveRoot(q uint64, factors []uint64) (uint64, []uint64, error) {

	if factors != nil {
		if err := CheckFactors(q-1, factors); err != nil {
			return 0, factors, err
		}
	} else {
		factors = Factorize(q - 1)
	}

	for g := uint64(2); g < q; g++ {
		if CheckPrimitiveRoot(g, q, factors) == nil {
			return g, factors, nil
		}
	}

	return 0, factors, fmt.Errorf("cannot PrimitiveRoot: no primitive root found for %d: %w", q, ErrParameterMismatch)
}

// CheckFactors checks that the given list of factors contains
// all the unique primes of m.
func CheckFactors(m uint64, factors []uint64) (err error) {

	for _, factor := range factors {

		if !IsPrime(factor) {
			return fmt.Errorf("composite factor %d: %w", factor, ErrParameterMismatch)
		}

		for m%factor == 0 {
			m /= factor
		}
	}

	if m != 1 {
		return fmt.Errorf("incomplete factor list: %w", ErrParameterMismatch)
	}

	return
}

// CheckPrimitiveRoot checks that g is a valid primitive root mod q,
// given the factors of q-1.
func CheckPrimitiveRoot(g, q uint64, factors []uint64) (err error) {

	if err = CheckFactors(q-1, factors); err != nil {
		return
	}

	for _, factor := range factors {
		if ModExp(g, (q-1)/factor, q) == 1 {
			return fmt.Errorf("invalid primitive root %d for %d: %w", g, q, ErrParameterMismatch)
		}
	}

	return
}

// Factorize returns the distinct prime factors of n in increasing order.
// Small factors are removed by trial division, the remaining cofactor
// is split with Pollard-Brent rho.
func Factorize(n uint64) (factors []uint64) {

	m := map[uint64]bool{}

	for _, p := range []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37} {
		for n%p == 0 {
			m[p] = true
			n /= p
		}
	}

	var split func(n uint64)
	split = func(n uint64) {
		if n == 1 {
			return
		}
		if IsPrime(n) {
			m[n] = true
			return
		}
		d := pollardBrent(n)
		split(d)
		split(n / d)
	}

	split(n)

	return utils.GetSortedKeys(m)
}

// pollardBrent returns a non-trivial factor of the composite odd n.
func pollardBrent(n uint64) uint64 {

	for c := uint64(1); ; c++ {

		f := func(x uint64) uint64 {
			return ModAdd(ModMul(x, x, n), c%n, n)
		}

		y, r, q, g := uint64(2), uint64(1), uint64(1), uint64(1)
		var x, ys uint64

		for g == 1 {
			x = y
			for i := uint64(0); i < r; i++ {
				y = f(y)
			}
			for k := uint64(0); k < r && g == 1; k += 128 {
				ys = y
				for i := uint64(0); i < 128 && i < r-k; i++ {
					y = f(y)
					q = ModMul(q, absDiff(x, y), n)
				}
				g = utils.GCD(q, n)
			}
			r <<= 1
		}

		if g == n {
			for g = 1; g == 1; {
				ys = f(ys)
				g = utils.GCD(absDiff(x, ys), n)
			}
		}

		if g != n && g != 0 {
			return g
		}
	}
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
