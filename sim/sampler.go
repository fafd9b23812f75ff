package sim

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/tinyheero/wessim/encoding/fasta"
	"github.com/tinyheero/wessim/target"
)

// maxSampleAttempts bounds per-fragment resampling.  Sustained failure
// signals a systemic target/genome mismatch and escalates to a fatal error.
const maxSampleAttempts = 1000

// LengthDist is the fragment length distribution: normal with a hard floor.
// Draws below Min are rejected and redrawn.
type LengthDist struct {
	Mean float64
	SD   float64
	Min  int
}

func (d LengthDist) draw(rng *rand.Rand) int64 {
	for {
		l := int64(rng.NormFloat64()*d.SD + d.Mean)
		if l >= int64(d.Min) {
			return l
		}
	}
}

// Fragment is one simulated capture fragment.  Seq is already
// reverse-complemented for minus-strand fragments.
type Fragment struct {
	Chrom string
	Start int64 // 0-based genome coordinates of the forward-strand extraction
	End   int64
	Minus bool
	Seq   string
}

// sampler draws fragments from the shared immutable genome and target set.
// It holds no mutable state of its own; each worker passes its private rng.
type sampler struct {
	genome  fasta.Fasta
	targets *target.Set
	lengths LengthDist
}

// sample produces one fragment.  Recoverable misses (fragment does not fit,
// fetch out of range near a contig edge) are retried up to
// maxSampleAttempts.
func (s *sampler) sample(rng *rand.Rand) (Fragment, error) {
	for attempt := 0; attempt < maxSampleAttempts; attempt++ {
		iv := s.targets.Choose(rng)
		contigLen, err := s.genome.Len(iv.Chrom)
		if err != nil {
			return Fragment{}, err
		}
		length := s.lengths.draw(rng)
		if length > contigLen {
			continue
		}

		// When the fragment fits inside the interval, place it uniformly
		// within.  When it is longer, let it overhang the interval
		// symmetrically in expectation: any start that keeps the whole
		// interval covered is equally likely, reflecting capture-probe reach
		// into flanking sequence.
		width := iv.End - iv.Start
		lo, hi := iv.Start, iv.End-length
		if length > width {
			lo, hi = iv.End-length, iv.Start
		}
		if lo < 0 {
			lo = 0
		}
		if hi > contigLen-length {
			hi = contigLen - length
		}
		if hi < lo {
			continue
		}
		start := lo + rng.Int63n(hi-lo+1)

		seq, err := s.genome.Get(iv.Chrom, start, start+length)
		if err != nil {
			if errors.Cause(err) == fasta.ErrOutOfRange {
				continue
			}
			return Fragment{}, err
		}
		frag := Fragment{Chrom: iv.Chrom, Start: start, End: start + length, Seq: seq}
		if rng.Intn(2) == 1 {
			frag.Minus = true
			frag.Seq = revComp(seq)
		}
		return frag, nil
	}
	return Fragment{}, errors.Errorf(
		"no valid fragment after %d attempts; targets and genome appear mismatched", maxSampleAttempts)
}
