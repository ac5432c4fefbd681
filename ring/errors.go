package ring

import (
	"errors"

	"github.com/rnslab/dcrt/utils/bignum"
)

// Error kinds returned by the operations of this package.
// Call sites wrap them with fmt.Errorf and %w, use errors.Is to test for them.
var (
	// ErrParameterMismatch is returned when operands are defined over different rings,
	// towers or levels, or when a parameter is invalid for the ring.
	ErrParameterMismatch = errors.New("parameter mismatch")

	// ErrWrongFormat is returned when an operand is not in the format required by the operation.
	ErrWrongFormat = errors.New("wrong format")

	// ErrEmptyPolynomial is returned when an operation is called on a polynomial without towers.
	ErrEmptyPolynomial = errors.New("empty polynomial")

	// ErrNotPrecomputed is returned when a transform is requested before its tables have been built.
	ErrNotPrecomputed = errors.New("not precomputed")

	// ErrNoInverseExists is returned when a modular inverse is requested for a non-invertible element.
	ErrNoInverseExists = bignum.ErrNoInverseExists

	// ErrBasisMismatch is returned when a basis conversion receives towers that do not match its source basis.
	ErrBasisMismatch = errors.New("basis mismatch")

	// ErrNotImplementedForElement is returned when an operation has no implementation for the element type.
	ErrNotImplementedForElement = errors.New("not implemented for element")
)
