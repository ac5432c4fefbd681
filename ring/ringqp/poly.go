package ringqp

import (
	"github.com/rnslab/dcrt/ring"
)

// Poly represents a polynomial in the ring of polynomial modulo Q*P.
// This type is simply the union type between two ring.Poly, each one
// containing the modulus Q and P coefficients of that polynomial.
// The modulus Q represent the ciphertext modulus and the modulus P
// the special primes for the RNS decomposition during homomorphic
// operations involving keys.
type Poly struct {
	Q, P *ring.Poly
}

// NewPoly creates a new polynomial at the given levels.
// If levelP < 0, the P part is nil.
func NewPoly(N, levelQ, levelP int) *Poly {
	p := &Poly{Q: ring.NewPoly(N, levelQ)}
	if levelP > -1 {
		p.P = ring.NewPoly(N, levelP)
	}
	return p
}

// LevelQ returns the level of the polynomial modulo Q.
// Returns -1 if the modulus Q is absent.
func (p *Poly) LevelQ() int {
	if p.Q != nil {
		return p.Q.Level()
	}
	return -1
}

// LevelP returns the level of the polynomial modulo P.
// Returns -1 if the modulus P is absent.
func (p *Poly) LevelP() int {
	if p.P != nil {
		return p.P.Level()
	}
	return -1
}

// Equal returns true if the receiver Poly is equal to the provided other Poly.
func (p *Poly) Equal(other *Poly) (v bool) {

	if p == other {
		return true
	}

	if (p.Q == nil) != (other.Q == nil) || (p.P == nil) != (other.P == nil) {
		return false
	}

	if p.Q != nil && !p.Q.Equal(other.Q) {
		return false
	}

	return p.P == nil || p.P.Equal(other.P)
}

// Copy copies the coefficients of other on the target polynomial.
// This method simply calls the Copy method for each of its sub-polynomials.
func (p *Poly) Copy(other *Poly) {
	if p.Q != nil && other.Q != nil {
		p.Q.Copy(other.Q)
	}

	if p.P != nil && other.P != nil {
		p.P.Copy(other.P)
	}
}

// CopyNew creates an exact copy of the target polynomial.
func (p *Poly) CopyNew() *Poly {

	var Q, P *ring.Poly

	if p.Q != nil {
		Q = p.Q.CopyNew()
	}

	if p.P != nil {
		P = p.P.CopyNew()
	}

	return &Poly{Q, P}
}

// Resize resizes the levels of the target polynomial to the provided levels.
// If the provided level is larger than the current level, then allocates zero
// coefficients, otherwise dereferences the coefficients above the provided level.
// Nil polynomials are not resized.
func (p *Poly) Resize(levelQ, levelP int) {
	if p.Q != nil {
		p.Q.Resize(levelQ)
	}

	if p.P != nil {
		p.P.Resize(levelP)
	}
}
