package keyswitch

import (
	"github.com/rnslab/dcrt/ring/ringqp"
)

// SecretKey is a type for generic RLWE secret keys.
// The Value field stores the polynomial in the Evaluation format over Q and, if present, P.
type SecretKey struct {
	Value *ringqp.Poly
}

// NewSecretKey generates a new [SecretKey] with zero values.
func NewSecretKey(params Parameters) *SecretKey {
	return &SecretKey{Value: ringqp.NewPoly(params.N(), params.MaxLevelQ(), params.MaxLevelP())}
}

// LevelQ returns the level of the modulus Q of the target.
func (sk *SecretKey) LevelQ() int {
	return sk.Value.LevelQ()
}

// LevelP returns the level of the modulus P of the target.
// Returns -1 if P is absent.
func (sk *SecretKey) LevelP() int {
	return sk.Value.LevelP()
}

// CopyNew creates a deep copy of the receiver secret key and returns it.
func (sk *SecretKey) CopyNew() *SecretKey {
	if sk == nil {
		return nil
	}
	return &SecretKey{Value: sk.Value.CopyNew()}
}

// Equal performs a deep equal.
func (sk *SecretKey) Equal(other *SecretKey) bool {
	return sk.Value.Equal(other.Value)
}
