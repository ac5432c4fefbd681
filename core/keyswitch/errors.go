package keyswitch

import (
	"errors"
)

var (
	// ErrUnsupportedTechnique is returned when a hint, a ciphertext or a set of tables were
	// produced for a key-switching technique other than the one of the evaluator.
	ErrUnsupportedTechnique = errors.New("unsupported key-switching technique")

	// ErrLevelMismatch is returned when the level of a ciphertext is larger than the level of
	// the hint, or when the elements of a ciphertext are not at the same level.
	ErrLevelMismatch = errors.New("level mismatch")
)
