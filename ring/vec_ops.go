package ring

// Element-wise kernels on residue vectors. All inputs are assumed to be in [0, q-1].

func addvec(p1, p2, p3 []uint64, modulus uint64) {
	for j := range p3 {
		p3[j] = CRed(p1[j]+p2[j], modulus)
	}
}

func subvec(p1, p2, p3 []uint64, modulus uint64) {
	for j := range p3 {
		p3[j] = CRed(p1[j]+modulus-p2[j], modulus)
	}
}

func negvec(p1, p2 []uint64, modulus uint64) {
	for j := range p2 {
		p2[j] = ModNeg(p1[j], modulus)
	}
}

func mulcoeffsvec(p1, p2, p3 []uint64, modulus uint64, bredconstant [2]uint64) {
	for j := range p3 {
		p3[j] = BRed(p1[j], p2[j], modulus, bredconstant)
	}
}

func mulcoeffsthenaddvec(p1, p2, p3 []uint64, modulus uint64, bredconstant [2]uint64) {
	for j := range p3 {
		p3[j] = CRed(p3[j]+BRed(p1[j], p2[j], modulus, bredconstant), modulus)
	}
}

func mulscalarvec(p1 []uint64, scalar uint64, p2 []uint64, modulus uint64, bredconstant [2]uint64) {
	for j := range p2 {
		p2[j] = BRed(p1[j], scalar, modulus, bredconstant)
	}
}

func mulscalarthenaddvec(p1 []uint64, scalar uint64, p2 []uint64, modulus uint64, bredconstant [2]uint64) {
	for j := range p2 {
		p2[j] = CRed(p2[j]+BRed(p1[j], scalar, modulus, bredconstant), modulus)
	}
}

func addscalarvec(p1 []uint64, scalar uint64, p2 []uint64, modulus uint64) {
	for j := range p2 {
		p2[j] = CRed(p1[j]+scalar, modulus)
	}
}

// reducevec reduces inputs of any size mod modulus.
func reducevec(p1, p2 []uint64, modulus uint64, bredconstant [2]uint64) {
	for j := range p2 {
		p2[j] = BRedAdd(p1[j], modulus, bredconstant)
	}
}
