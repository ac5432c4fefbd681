package ring

import (
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// Format is the representation of a polynomial: its coefficients,
// or its evaluations at the primitive roots of unity.
type Format int

const (
	// Coefficient is the coefficient representation.
	Coefficient Format = iota
	// Evaluation is the NTT representation.
	Evaluation
)

func (f Format) String() string {
	switch f {
	case Coefficient:
		return "Coefficient"
	case Evaluation:
		return "Evaluation"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Poly is the structure that contains the coefficients of a polynomial in the double-CRT
// representation: one tower of N residues per modulus of the chain.
// All the towers share the same Format.
type Poly struct {
	Coeffs [][]uint64
	Format Format
	Buff   []uint64
}

// NewPoly creates a new polynomial with N coefficients set to zero and level+1 moduli, in the Coefficient format.
func NewPoly(N, level int) (pol *Poly) {

	if level < 0 {
		return &Poly{}
	}

	Coeffs := make([][]uint64, level+1)
	Buff := make([]uint64, N*(level+1))

	for i := 0; i < level+1; i++ {
		Coeffs[i] = Buff[i*N : (i+1)*N]
	}

	return &Poly{Coeffs: Coeffs, Buff: Buff}
}

// Resize resizes the level of the target polynomial to the provided level.
// If the provided level is larger than the current level, then allocates zero
// coefficients, otherwise dereferences the coefficients above the provided level.
// A polynomial whose towers are not backed by Buff, such as one rebuilt from
// [Poly.Towers], is resized tower by tower.
func (pol *Poly) Resize(level int) {

	N := pol.N()

	if len(pol.Buff) != N*(pol.Level()+1) {
		pol.resizeTowers(level, N)
		return
	}

	if pol.Level() > level {
		pol.Buff = pol.Buff[:N*(level+1)]
		pol.Coeffs = pol.Coeffs[:level+1]
	} else if level > pol.Level() {
		prevLevel := pol.Level()
		pol.Buff = append(pol.Buff[:N*(prevLevel+1)], make([]uint64, N*(level-prevLevel))...)
		pol.Coeffs = make([][]uint64, level+1)
		for i := 0; i < level+1; i++ {
			pol.Coeffs[i] = pol.Buff[i*N : (i+1)*N]
		}
	}
}

func (pol *Poly) resizeTowers(level, N int) {

	pol.Buff = nil

	if pol.Level() > level {
		pol.Coeffs = pol.Coeffs[:level+1]
		return
	}

	for i := pol.Level() + 1; i < level+1; i++ {
		pol.Coeffs = append(pol.Coeffs, make([]uint64, N))
	}
}

// N returns the number of coefficients of the polynomial, which equals the degree of the Ring cyclotomic polynomial.
func (pol *Poly) N() int {
	if len(pol.Coeffs) == 0 {
		return 0
	}
	return len(pol.Coeffs[0])
}

// Level returns the current number of moduli minus 1.
func (pol *Poly) Level() int {
	return len(pol.Coeffs) - 1
}

// Towers returns the residue vectors of the polynomial, one per modulus.
func (pol *Poly) Towers() [][]uint64 {
	return pol.Coeffs
}

// Zero sets all coefficients of the target polynomial to 0.
func (pol *Poly) Zero() {
	for i := range pol.Coeffs {
		ptmp := pol.Coeffs[i]
		for j := range ptmp {
			ptmp[j] = 0
		}
	}
}

// CopyNew creates an exact copy of the target polynomial.
func (pol *Poly) CopyNew() *Poly {
	cpy := NewPoly(pol.N(), pol.Level())
	cpy.Copy(pol)
	return cpy
}

// Copy copies the coefficients and the format of p1 on the target polynomial.
// This method does nothing if the underlying arrays are the same.
// This method will resize the target polynomial to the level of
// the input polynomial.
func (pol *Poly) Copy(p1 *Poly) {
	pol.Resize(p1.Level())
	pol.CopyLvl(p1.Level(), p1)
}

// CopyLvl copies the coefficients and the format of p1 on the target polynomial.
// Copies for up to level+1 moduli.
func (pol *Poly) CopyLvl(level int, p1 *Poly) {
	if pol != p1 {
		for i := 0; i < level+1; i++ {
			if &pol.Coeffs[i][0] != &p1.Coeffs[i][0] {
				copy(pol.Coeffs[i], p1.Coeffs[i])
			}
		}
		pol.Format = p1.Format
	}
}

// Equal returns true if the receiver Poly is equal to the provided other Poly.
// This function checks for strict equality between the polynomial coefficients
// (i.e., it does not consider congruence as equality within the ring like
// `Ring.Equal` does).
func (pol *Poly) Equal(other *Poly) bool {

	if pol == other {
		return true
	}

	if pol == nil || other == nil {
		return false
	}

	return pol.Format == other.Format && cmp.Equal(pol.Coeffs, other.Coeffs)
}
