// Package sampling implements secure sampling of bytes and integers.
package sampling

import (
	"crypto/rand"
	"math/big"
)

// RandInt generates a random Int in [0, max-1].
func RandInt(max *big.Int) (n *big.Int) {
	var err error
	if n, err = rand.Int(rand.Reader, max); err != nil {
		panic(err)
	}
	return
}
