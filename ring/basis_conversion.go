package ring

import (
	"fmt"
	"math/big"
	"math/bits"

	"github.com/rnslab/dcrt/utils/bignum"
)

// SwitchCRTBasisConstants stores the constants of the approximate conversion
// of a polynomial from the RNS basis From = {f_i} to the RNS basis To = {t_j},
// with F = prod f_i.
type SwitchCRTBasisConstants struct {
	From, To []uint64

	// QHatInvModq[i] = (F/f_i)^-1 mod f_i
	QHatInvModq []uint64

	// QHatModp[j][i] = (F/f_i) mod t_j
	QHatModp [][]uint64

	bredFrom, bredTo [][2]uint64
}

// NewSwitchCRTBasisConstants generates the constants of the conversion from the basis from to the basis to.
// The moduli of from must be pairwise coprime.
func NewSwitchCRTBasisConstants(from, to []uint64) (c *SwitchCRTBasisConstants, err error) {

	if len(from) == 0 || len(to) == 0 {
		return nil, fmt.Errorf("cannot NewSwitchCRTBasisConstants: empty basis: %w", ErrBasisMismatch)
	}

	c = &SwitchCRTBasisConstants{
		From:        append([]uint64{}, from...),
		To:          append([]uint64{}, to...),
		QHatInvModq: make([]uint64, len(from)),
		QHatModp:    make([][]uint64, len(to)),
		bredFrom:    make([][2]uint64, len(from)),
		bredTo:      make([][2]uint64, len(to)),
	}

	F := bignum.Product(from)

	QHat := make([]*big.Int, len(from))

	for i, fi := range from {

		fiBig := bignum.NewInt(fi)
		QHat[i] = new(big.Int).Quo(F, fiBig)

		inv, err := bignum.ModInverse(QHat[i], fiBig)
		if err != nil {
			return nil, fmt.Errorf("cannot NewSwitchCRTBasisConstants: %w", err)
		}

		c.QHatInvModq[i] = inv.Uint64()
		c.bredFrom[i] = GenBRedConstant(fi)
	}

	tmp := new(big.Int)
	for j, tj := range to {
		tjBig := bignum.NewInt(tj)
		c.QHatModp[j] = make([]uint64, len(from))
		for i := range from {
			c.QHatModp[j][i] = tmp.Mod(QHat[i], tjBig).Uint64()
		}
		c.bredTo[j] = GenBRedConstant(tj)
	}

	return
}

// ApproxSwitchCRTBasis converts the residues in, one tower per modulus of From, to the residues
// out, one tower per modulus of To, by computing for each coefficient
//
//	out_j = sum_i [in_i * (F/f_i)^-1]_{f_i} * (F/f_i) mod t_j.
//
// The result represents x + u*F for some integer 0 <= u < len(From), where x is the value in [0, F)
// represented by in. If out has fewer towers than To, only the first len(out) moduli of To are computed.
// The inputs must be in the coefficient domain.
func (c *SwitchCRTBasisConstants) ApproxSwitchCRTBasis(in, out [][]uint64) (err error) {

	if len(in) != len(c.From) {
		return fmt.Errorf("cannot ApproxSwitchCRTBasis: input has %d towers but source basis has %d moduli: %w", len(in), len(c.From), ErrBasisMismatch)
	}

	if len(out) > len(c.To) {
		return fmt.Errorf("cannot ApproxSwitchCRTBasis: output has %d towers but target basis has %d moduli: %w", len(out), len(c.To), ErrBasisMismatch)
	}

	N := len(in[0])

	y := make([][]uint64, len(in))
	for i, fi := range c.From {
		y[i] = make([]uint64, N)
		mulscalarvec(in[i][:N], c.QHatInvModq[i], y[i], fi, c.bredFrom[i])
	}

	hi := make([]uint64, N)
	lo := make([]uint64, N)

	for j := range out {

		tj := c.To[j]
		brc := c.bredTo[j]
		QHatModp := c.QHatModp[j]

		for k := range lo {
			hi[k], lo[k] = 0, 0
		}

		var mhi, mlo, carry uint64

		for i := range y {

			yi := y[i]
			qHat := QHatModp[i]

			for k := 0; k < N; k++ {
				mhi, mlo = bits.Mul64(yi[k], qHat)
				lo[k], carry = bits.Add64(lo[k], mlo, 0)
				hi[k] += mhi + carry
			}

			// products are smaller than 2^122, the accumulator is folded before it can overflow
			if i&31 == 31 {
				for k := 0; k < N; k++ {
					hi[k], lo[k] = 0, BRedUint128(hi[k], lo[k], tj, brc)
				}
			}
		}

		outj := out[j]
		for k := 0; k < N; k++ {
			outj[k] = BRedUint128(hi[k], lo[k], tj, brc)
		}
	}

	return
}

// BasisConverter is a structure storing the constants of the approximate basis extensions
// between the chain Q and the auxiliary chain P.
// A BasisConverter is never mutated after its creation and can be shared between goroutines.
type BasisConverter struct {
	ringQ, ringP *Ring

	// modUpConstants[levelQ] converts from {q_0, ..., q_levelQ} to P
	modUpConstants []*SwitchCRTBasisConstants

	// modDownConstants[levelP] converts from {p_0, ..., p_levelP} to Q
	modDownConstants []*SwitchCRTBasisConstants

	// PInvModq[levelP][i] = (p_0*...*p_levelP)^-1 mod q_i
	PInvModq [][]uint64

	// PModq[levelP][i] = (p_0*...*p_levelP) mod q_i
	PModq [][]uint64
}

// NewBasisConverter creates a new BasisConverter between ringQ and ringP.
// The moduli of ringQ and ringP must be pairwise distinct.
func NewBasisConverter(ringQ, ringP *Ring) (bc *BasisConverter, err error) {

	if ringQ.N() != ringP.N() || ringQ.CyclotomicOrder() != ringP.CyclotomicOrder() {
		return nil, fmt.Errorf("cannot NewBasisConverter: ringQ and ringP have different dimensions: %w", ErrParameterMismatch)
	}

	Q := ringQ.ModuliChain()
	P := ringP.ModuliChain()

	for _, qi := range Q {
		for _, pj := range P {
			if qi == pj {
				return nil, fmt.Errorf("cannot NewBasisConverter: modulus %d is both in Q and P: %w", qi, ErrParameterMismatch)
			}
		}
	}

	bc = &BasisConverter{ringQ: ringQ, ringP: ringP}

	bc.modUpConstants = make([]*SwitchCRTBasisConstants, len(Q))
	for levelQ := range Q {
		if bc.modUpConstants[levelQ], err = NewSwitchCRTBasisConstants(Q[:levelQ+1], P); err != nil {
			return nil, err
		}
	}

	bc.modDownConstants = make([]*SwitchCRTBasisConstants, len(P))
	bc.PInvModq = make([][]uint64, len(P))
	bc.PModq = make([][]uint64, len(P))

	for levelP := range P {

		if bc.modDownConstants[levelP], err = NewSwitchCRTBasisConstants(P[:levelP+1], Q); err != nil {
			return nil, err
		}

		PBig := ringP.ModulusAtLevel[levelP]

		bc.PInvModq[levelP] = make([]uint64, len(Q))
		bc.PModq[levelP] = make([]uint64, len(Q))

		for i, qi := range Q {
			qiBig := bignum.NewInt(qi)
			PInv, err := bignum.ModInverse(PBig, qiBig)
			if err != nil {
				return nil, fmt.Errorf("cannot NewBasisConverter: %w", err)
			}
			bc.PInvModq[levelP][i] = PInv.Uint64()
			bc.PModq[levelP][i] = new(big.Int).Mod(PBig, qiBig).Uint64()
		}
	}

	return
}

// RingQ returns the ring of the chain Q.
func (bc *BasisConverter) RingQ() *Ring {
	return bc.ringQ
}

// RingP returns the ring of the auxiliary chain P.
func (bc *BasisConverter) RingP() *Ring {
	return bc.ringP
}

// ApproxModUp extends the polynomial pQ with levelQ+1 towers to the towers {p_0, ..., p_levelP} of P
// and writes the result on pP: the pair (pQ, pP) then represents x + u*Q_levelQ for some 0 <= u <= levelQ.
// pQ can be in either format, pP is returned in the same format. pQ is not modified.
func (bc *BasisConverter) ApproxModUp(levelQ, levelP int, pQ, pP *Poly) (err error) {

	if pQ.Level() != levelQ || pP.Level() != levelP || levelQ > bc.ringQ.MaxLevel() || levelP > bc.ringP.MaxLevel() {
		return fmt.Errorf("cannot ApproxModUp: got %d Q towers and %d P towers for levelQ=%d and levelP=%d: %w", pQ.Level()+1, pP.Level()+1, levelQ, levelP, ErrBasisMismatch)
	}

	ringQ := bc.ringQ.AtLevel(levelQ)
	ringP := bc.ringP.AtLevel(levelP)

	in := pQ
	if pQ.Format == Evaluation {
		in = NewPoly(ringQ.N(), levelQ)
		if err = ringQ.INTT(pQ, in); err != nil {
			return
		}
	}

	if err = bc.modUpConstants[levelQ].ApproxSwitchCRTBasis(in.Coeffs, pP.Coeffs); err != nil {
		return fmt.Errorf("cannot ApproxModUp: %w", err)
	}

	pP.Format = Coefficient

	if pQ.Format == Evaluation {
		return ringP.NTT(pP, pP)
	}

	return
}

// ApproxModDown computes pOut = (pQ - ApproxSwitchCRTBasis(pP)) * P^-1 mod Q, i.e. the division by
// P = p_0*...*p_levelP of the polynomial (pQ, pP) over the extended basis, up to an additive error of at most levelP+1
// per coefficient. pQ and pP must be in the same format, which is kept for pOut. pOut can alias pQ.
func (bc *BasisConverter) ApproxModDown(levelQ, levelP int, pQ, pP, pOut *Poly) (err error) {

	if pQ.Level() != levelQ || pP.Level() != levelP || pOut.Level() != levelQ || levelQ > bc.ringQ.MaxLevel() || levelP > bc.ringP.MaxLevel() {
		return fmt.Errorf("cannot ApproxModDown: got %d Q towers and %d P towers for levelQ=%d and levelP=%d: %w", pQ.Level()+1, pP.Level()+1, levelQ, levelP, ErrBasisMismatch)
	}

	if pQ.Format != pP.Format {
		return fmt.Errorf("cannot ApproxModDown: Q part is in %s format but P part is in %s format: %w", pQ.Format, pP.Format, ErrWrongFormat)
	}

	ringQ := bc.ringQ.AtLevel(levelQ)
	ringP := bc.ringP.AtLevel(levelP)

	in := pP
	if pP.Format == Evaluation {
		in = NewPoly(ringP.N(), levelP)
		if err = ringP.INTT(pP, in); err != nil {
			return
		}
	}

	conv := NewPoly(ringQ.N(), levelQ)
	if err = bc.modDownConstants[levelP].ApproxSwitchCRTBasis(in.Coeffs, conv.Coeffs); err != nil {
		return fmt.Errorf("cannot ApproxModDown: %w", err)
	}

	if pQ.Format == Evaluation {
		if err = ringQ.NTT(conv, conv); err != nil {
			return
		}
	}

	PInvModq := bc.PInvModq[levelP]

	if err = ringQ.forEachTower(levelQ, func(i int, s *SubRing) error {
		q := s.Modulus
		x, c, out := pQ.Coeffs[i], conv.Coeffs[i], pOut.Coeffs[i]
		for k := range out {
			out[k] = BRed(x[k]+q-c[k], PInvModq[i], q, s.BRedConstant)
		}
		return nil
	}); err != nil {
		return
	}

	pOut.Format = pQ.Format

	return
}
