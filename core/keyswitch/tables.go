package keyswitch

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/zeebo/blake3"

	"github.com/rnslab/dcrt/ring"
	"github.com/rnslab/dcrt/utils"
	"github.com/rnslab/dcrt/utils/bignum"
)

// Tables stores the constants of a key-switching technique for a set of parameters.
// Tables are built once by [NewTables] and never modified: they can be shared by
// any number of evaluators and key generators.
type Tables struct {
	Technique Technique
	BaseBits  int

	// Alpha is the number of towers of each partition of Q (GHS and HYBRID).
	Alpha int
	// Partitions are the towers [start, end) of each partition of Q at the maximum level (GHS and HYBRID).
	Partitions [][2]int

	// Gadget[d] is the gadget vector of the d-th digit in the RNS basis of Q:
	//   - BV: 2^(k*BaseBits) on the tower i of the digit (i, k) and zero elsewhere.
	//   - GHS and HYBRID: [P]_{q_i} on the towers of the partition and zero elsewhere.
	Gadget [][]uint64

	// PModq[i] = [P]_{q_i} (GHS and HYBRID).
	PModq []uint64

	// BasisConverter holds the ModUp and ModDown constants between Q and P (GHS and HYBRID).
	BasisConverter *ring.BasisConverter

	// Fingerprint identifies the parameters the tables were built for.
	Fingerprint [32]byte

	// digitCount[levelQ] is the number of BV digits of a polynomial with levelQ+1 towers.
	digitCount []int

	// switchConstants[levelQ][j] extends the partition j of Q_levelQ to its complement in Q_levelQ * P.
	switchConstants [][]*ring.SwitchCRTBasisConstants
}

// NewTables precomputes the key-switching tables of the technique of the given parameters.
func NewTables(params Parameters) (t *Tables, err error) {

	ringQ := params.RingQ()
	levelQ := params.MaxLevelQ()
	Q := params.Q()
	P := params.P()

	t = &Tables{
		Technique:   params.Technique(),
		BaseBits:    params.BaseBits(),
		Fingerprint: Fingerprint(params),
	}

	switch params.Technique() {

	case BV:

		for i, s := range ringQ.SubRings {

			nbDigits := 1
			if t.BaseBits > 0 {
				nbDigits = (bits.Len64(s.Modulus) + t.BaseBits - 1) / t.BaseBits
			}

			for k := 0; k < nbDigits; k++ {
				g := make([]uint64, levelQ+1)
				g[i] = ring.ModExp(2, uint64(k*t.BaseBits), s.Modulus)
				t.Gadget = append(t.Gadget, g)
			}

			t.digitCount = append(t.digitCount, len(t.Gadget))
		}

	case GHS, HYBRID:

		numPartQ := params.NumPartQ()

		t.Alpha = (levelQ + numPartQ) / numPartQ

		if (numPartQ-1)*t.Alpha >= levelQ+1 {
			return nil, fmt.Errorf("cannot NewTables: NumPartQ=%d partitions of %d towers over %d moduli leaves the last partition empty: %w", numPartQ, t.Alpha, levelQ+1, ring.ErrParameterMismatch)
		}

		t.Partitions = utils.Partition(levelQ+1, t.Alpha)

		if t.BasisConverter, err = ring.NewBasisConverter(ringQ, params.RingP()); err != nil {
			return nil, fmt.Errorf("cannot NewTables: %w", err)
		}

		PBig := bignum.Product(P)
		t.PModq = make([]uint64, levelQ+1)
		for i, qi := range Q {
			t.PModq[i] = new(big.Int).Mod(PBig, bignum.NewInt(qi)).Uint64()
		}

		for _, part := range t.Partitions {
			g := make([]uint64, levelQ+1)
			copy(g[part[0]:part[1]], t.PModq[part[0]:part[1]])
			t.Gadget = append(t.Gadget, g)
		}

		t.switchConstants = make([][]*ring.SwitchCRTBasisConstants, levelQ+1)

		for level := 0; level < levelQ+1; level++ {

			for j := 0; j < t.DigitCount(level); j++ {

				start, end := t.Partition(level, j)

				to := make([]uint64, 0, level+1-(end-start)+len(P))
				to = append(to, Q[:start]...)
				to = append(to, Q[end:level+1]...)
				to = append(to, P...)

				c, err := ring.NewSwitchCRTBasisConstants(Q[start:end], to)
				if err != nil {
					return nil, fmt.Errorf("cannot NewTables: %w", err)
				}

				t.switchConstants[level] = append(t.switchConstants[level], c)
			}
		}

	default:
		return nil, fmt.Errorf("cannot NewTables: %s: %w", params.Technique(), ErrUnsupportedTechnique)
	}

	return
}

// DigitCount returns the number of digits of the decomposition of a polynomial with levelQ+1 towers,
// which is also the number of hint pairs it consumes.
func (t *Tables) DigitCount(levelQ int) int {
	if t.Technique == BV {
		return t.digitCount[levelQ]
	}
	return (levelQ + t.Alpha) / t.Alpha
}

// Partition returns the towers [start, end) of the j-th partition of Q truncated at levelQ.
func (t *Tables) Partition(levelQ, j int) (start, end int) {
	return t.Partitions[j][0], utils.Min(t.Partitions[j][1], levelQ+1)
}

// SwitchConstants returns the constants extending the j-th partition of Q_levelQ to the
// remaining towers of Q_levelQ followed by P.
func (t *Tables) SwitchConstants(levelQ, j int) *ring.SwitchCRTBasisConstants {
	return t.switchConstants[levelQ][j]
}

// Fingerprint returns a digest of the technique, its knobs and the moduli chains of the parameters.
func Fingerprint(params Parameters) [32]byte {

	buf := make([]byte, 0, 8*(6+len(params.Q())+len(params.P())))

	buf = binary.LittleEndian.AppendUint64(buf, uint64(params.Technique()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(params.BaseBits()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(params.NumPartQ()))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(params.CyclotomicOrder()))

	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(params.Q())))
	for _, qi := range params.Q() {
		buf = binary.LittleEndian.AppendUint64(buf, qi)
	}

	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(params.P())))
	for _, pi := range params.P() {
		buf = binary.LittleEndian.AppendUint64(buf, pi)
	}

	return blake3.Sum256(buf)
}
