package bignum

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrNoInverseExists is returned when a modular inverse is requested
// for an element that is not coprime with the modulus.
var ErrNoInverseExists = errors.New("no modular inverse exists")

// NewInt allocates a new *big.Int.
// Accepted types are: string, uint, uint64, int64, int, *big.Float or *big.Int.
func NewInt(x interface{}) (y *big.Int) {

	y = new(big.Int)

	if x == nil {
		return
	}

	switch x := x.(type) {
	case string:
		y.SetString(x, 0)
	case uint:
		y.SetUint64(uint64(x))
	case uint64:
		y.SetUint64(x)
	case int64:
		y.SetInt64(x)
	case int:
		y.SetInt64(int64(x))
	case *big.Float:
		x.Int(y)
	case *big.Int:
		y.Set(x)
	default:
		panic(fmt.Sprintf("cannot Newint: accepted types are string, uint, uint64, int, int64, *big.Float, *big.Int, but is %T", x))
	}

	return
}

// DivRound sets the target i to round(a/b).
func DivRound(a, b, i *big.Int) {
	_a := new(big.Int).Set(a)
	i.Quo(_a, b)
	r := new(big.Int).Rem(_a, b)
	r2 := new(big.Int).Mul(r, NewInt(2))
	if r2.CmpAbs(b) != -1.0 {
		if _a.Sign() == b.Sign() {
			i.Add(i, NewInt(1))
		} else {
			i.Sub(i, NewInt(1))
		}
	}
}

// Product returns the product of the input moduli.
func Product(moduli []uint64) (p *big.Int) {
	p = NewInt(1)
	for _, qi := range moduli {
		p.Mul(p, NewInt(qi))
	}
	return
}

// Mod returns x mod q in [0, q).
func Mod(x, q *big.Int) *big.Int {
	return new(big.Int).Mod(x, q)
}

// CenteredMod returns x mod q in [-q/2, q/2).
func CenteredMod(x, q *big.Int) (y *big.Int) {
	y = new(big.Int).Mod(x, q)
	half := new(big.Int).Rsh(q, 1)
	if y.Cmp(half) >= 0 {
		y.Sub(y, q)
	}
	return
}

// ModExp returns x^e mod q.
func ModExp(x, e, q *big.Int) *big.Int {
	return new(big.Int).Exp(x, e, q)
}

// ModInverse returns x^-1 mod q.
// Returns an error wrapping ErrNoInverseExists if gcd(x, q) != 1.
func ModInverse(x, q *big.Int) (*big.Int, error) {
	y := new(big.Int).ModInverse(new(big.Int).Mod(x, q), q)
	if y == nil || q.Cmp(NewInt(1)) == 0 {
		return nil, fmt.Errorf("cannot ModInverse: %v mod %v: %w", x, q, ErrNoInverseExists)
	}
	return y, nil
}
