package keyswitch

var (
	logN = 4
	logQ = []int{50, 40, 40, 40}

	// testInsecure are insecure parameters used for the sole purpose of fast testing.
	testInsecure = []ParametersLiteral{
		// RNS decomposition
		{
			LogN:      logN,
			LogQ:      logQ,
			Technique: BV,
		},
		// RNS decomposition, Pw2 decomposition
		{
			LogN:      logN,
			LogQ:      logQ,
			Technique: BV,
			BaseBits:  16,
		},
		// Single digit, P > Q
		{
			LogN:      logN,
			LogQ:      logQ,
			LogP:      []int{60, 60, 60},
			Technique: GHS,
		},
		// Two partitions of two towers
		{
			LogN:      logN,
			LogQ:      logQ,
			LogP:      []int{50, 50},
			Technique: HYBRID,
			NumPartQ:  2,
		},
		// Arbitrary cyclotomic ring (Bluestein NTT), one tower per partition
		{
			CyclotomicOrder: 15,
			LogQ:            []int{50, 40, 40},
			LogP:            []int{55},
			Technique:       HYBRID,
			NumPartQ:        3,
		},
	}
)
