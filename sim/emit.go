package sim

import (
	"fmt"
)

// head returns the first n bytes of s, or all of s when shorter.
func head(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// positionTag renders a "chrom_start_strand" tag for a read spanning
// readLen bases at one end of the fragment.  start is 1-based and names the
// leftmost genome coordinate of the read's span.
func positionTag(chrom string, start int64, minus bool) string {
	strand := byte('+')
	if minus {
		strand = '-'
	}
	return fmt.Sprintf("%s_%d_%c", chrom, start+1, strand)
}

// readTag names a single-end read taken from the fragment's 5' end.
func readTag(f Fragment, readLen int) string {
	if f.Minus {
		return positionTag(f.Chrom, f.End-int64(readLen), true)
	}
	return positionTag(f.Chrom, f.Start, false)
}

// mateTags names the two reads of a pair: mate 1 from the fragment's 5'
// end, mate 2 reading inward from the 3' end on the opposite strand.
func mateTags(f Fragment, readLen int) (string, string) {
	rl := int64(readLen)
	if f.Minus {
		return positionTag(f.Chrom, f.End-rl, true), positionTag(f.Chrom, f.Start, false)
	}
	return positionTag(f.Chrom, f.Start, false), positionTag(f.Chrom, f.End-rl, true)
}
