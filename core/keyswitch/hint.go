package keyswitch

import (
	"github.com/google/go-cmp/cmp"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/ring/ringqp"
	"github.com/rnslab/dcrt/utils/structs"
)

// Hint is a key-switching key: a vector of pairs (A[d], B[d]) in the Evaluation format, one per digit,
// such that B[d] + A[d]*sNew = e[d] + Gadget[d]*sOld.
//
//   - BV: one pair per digit (tower, power of the base) over Q, with a nil P part.
//   - GHS: a single pair over QP.
//   - HYBRID: one pair per partition of Q over QP.
//
// A Hint is never modified after its generation and can be read concurrently.
type Hint struct {
	Technique Technique
	BaseBits  int

	// GaloisElement is the Galois element k of the automorphism for hints
	// switching from sigma_k(s) to s, zero otherwise.
	GaloisElement uint64

	// Seed is the seed of the keyed PRNG from which A was sampled.
	Seed []byte

	// Fingerprint identifies the parameters the hint was generated for (see [Fingerprint]).
	Fingerprint [32]byte

	A structs.Vector[ringqp.Poly]
	B structs.Vector[ringqp.Poly]
}

// LevelQ returns the level of the modulus Q of the hint.
func (h *Hint) LevelQ() int {
	return h.B[0].LevelQ()
}

// LevelP returns the level of the modulus P of the hint, -1 for BV.
func (h *Hint) LevelP() int {
	return h.B[0].LevelP()
}

// DigitCount returns the number of pairs of the hint.
func (h *Hint) DigitCount() int {
	return len(h.B)
}

// CopyNew creates a deep copy of the receiver and returns it.
func (h *Hint) CopyNew() *Hint {
	return &Hint{
		Technique:     h.Technique,
		BaseBits:      h.BaseBits,
		GaloisElement: h.GaloisElement,
		Seed:          append([]byte{}, h.Seed...),
		Fingerprint:   h.Fingerprint,
		A:             h.A.CopyNew(),
		B:             h.B.CopyNew(),
	}
}

// Equal performs a deep equal.
func (h *Hint) Equal(other *Hint) bool {
	return h.Technique == other.Technique &&
		h.BaseBits == other.BaseBits &&
		h.GaloisElement == other.GaloisElement &&
		h.Fingerprint == other.Fingerprint &&
		cmp.Equal(h.Seed, other.Seed) &&
		h.A.Equal(other.A) &&
		h.B.Equal(other.B)
}

// Polys returns the polynomials of the hint as the flat list A[0], B[0], A[1], B[1], ...
// Each [ringqp.Poly] exposes its towers, format and level for external serializers.
func (h *Hint) Polys() (polys []*ringqp.Poly) {
	polys = make([]*ringqp.Poly, 0, 2*len(h.B))
	for d := range h.B {
		polys = append(polys, &h.A[d], &h.B[d])
	}
	return
}

// view returns the d-th pair of the hint truncated at levelQ, sharing its backing arrays.
func (h *Hint) view(d, levelQ int) (a, b *ringqp.Poly) {
	return truncate(&h.A[d], levelQ), truncate(&h.B[d], levelQ)
}

// truncate returns a view of p with its Q part restricted to the towers 0 to levelQ.
func truncate(p *ringqp.Poly, levelQ int) *ringqp.Poly {
	return &ringqp.Poly{
		Q: &ring.Poly{Coeffs: p.Q.Coeffs[:levelQ+1], Format: p.Q.Format},
		P: p.P,
	}
}
