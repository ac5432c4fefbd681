package keyswitch

import (
	"fmt"
)

// Technique is the key-switching technique.
type Technique int

const (
	// BV is the digit-decomposition technique: the key-dependent component is split along the
	// RNS towers (and optionally in base 2^BaseBits) and each digit is multiplied with its own hint.
	BV = Technique(iota + 1)
	// GHS extends the key-dependent component to the auxiliary modulus P, multiplies it with a
	// single hint over QP and divides the result by P. It requires P > Q.
	GHS
	// HYBRID splits the chain Q into NumPartQ partitions, extends each partition to its complement
	// in QP and divides the accumulated result by P.
	HYBRID
)

// String returns the name of the technique.
func (t Technique) String() string {
	switch t {
	case BV:
		return "BV"
	case GHS:
		return "GHS"
	case HYBRID:
		return "HYBRID"
	default:
		return fmt.Sprintf("Technique(%d)", int(t))
	}
}

// MarshalText encodes the technique as its name.
func (t Technique) MarshalText() ([]byte, error) {
	switch t {
	case BV, GHS, HYBRID:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("cannot MarshalText: %s: %w", t, ErrUnsupportedTechnique)
	}
}

// UnmarshalText decodes the technique from its name.
func (t *Technique) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BV":
		*t = BV
	case "GHS":
		*t = GHS
	case "HYBRID":
		*t = HYBRID
	default:
		return fmt.Errorf("cannot UnmarshalText: %q: %w", text, ErrUnsupportedTechnique)
	}
	return nil
}
