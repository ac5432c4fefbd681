package keyswitch

import (
	"fmt"

	"github.com/rnslab/dcrt/ring"
)

// Ciphertext is a generic type for RLWE ciphertexts of degree one or two, decrypting to
// Value[0] + Value[1]*s (+ Value[2]*s^2).
type Ciphertext struct {
	Value []*ring.Poly

	// Technique is the technique of the last key switch applied to the ciphertext, zero if none.
	Technique Technique
}

// NewCiphertext returns a new [Ciphertext] of the given degree and level with zero values.
func NewCiphertext(params Parameters, degree, level int) (ct *Ciphertext) {
	ct = &Ciphertext{Value: make([]*ring.Poly, degree+1)}
	for i := range ct.Value {
		ct.Value[i] = ring.NewPoly(params.N(), level)
	}
	return
}

// Degree returns the degree of the target Ciphertext.
func (ct *Ciphertext) Degree() int {
	return len(ct.Value) - 1
}

// Level returns the level of the target Ciphertext.
func (ct *Ciphertext) Level() int {
	return ct.Value[0].Level()
}

// Format returns the format of the target Ciphertext.
func (ct *Ciphertext) Format() ring.Format {
	return ct.Value[0].Format
}

// CopyNew creates a new element as a copy of the target element.
func (ct *Ciphertext) CopyNew() *Ciphertext {
	cpy := &Ciphertext{Value: make([]*ring.Poly, len(ct.Value)), Technique: ct.Technique}
	for i := range ct.Value {
		cpy.Value[i] = ct.Value[i].CopyNew()
	}
	return cpy
}

// check returns the level of the ciphertext or an error if its elements are empty or do not
// share the same level and format.
func (ct *Ciphertext) check(op string) (level int, err error) {

	if ct == nil || len(ct.Value) < 2 || len(ct.Value) > 3 {
		return -1, fmt.Errorf("cannot %s: ciphertext must have degree 1 or 2: %w", op, ring.ErrParameterMismatch)
	}

	if ct.Value[0] == nil {
		return -1, fmt.Errorf("cannot %s: element 0: %w", op, ring.ErrEmptyPolynomial)
	}

	level = ct.Value[0].Level()

	for i, p := range ct.Value {

		if p == nil || p.Level() < 0 {
			return -1, fmt.Errorf("cannot %s: element %d: %w", op, i, ring.ErrEmptyPolynomial)
		}

		if p.Level() != level {
			return -1, fmt.Errorf("cannot %s: element %d is at level %d but element 0 is at level %d: %w", op, i, p.Level(), level, ErrLevelMismatch)
		}

		if p.Format != ct.Value[0].Format {
			return -1, fmt.Errorf("cannot %s: element %d is in %s format but element 0 is in %s format: %w", op, i, p.Format, ct.Value[0].Format, ring.ErrWrongFormat)
		}
	}

	return
}
