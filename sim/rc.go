package sim

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = 'N'
	}
	complement['A'], complement['a'] = 'T', 't'
	complement['T'], complement['t'] = 'A', 'a'
	complement['G'], complement['g'] = 'C', 'c'
	complement['C'], complement['c'] = 'G', 'g'
	complement['N'], complement['n'] = 'N', 'n'
}

// revComp returns the reverse complement of seq, preserving case.
// Characters outside ACGTN map to N.
func revComp(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = complement[seq[n-1-i]]
	}
	return string(out)
}
