package model

import (
	"math/rand"
)

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// qualFrom draws a quality score from table[pos], walking down to the
// nearest lower covered position when pos has no distribution, and falling
// back to def when no position does.
func qualFrom(table []*qualDist, pos int, def byte, rng *rand.Rand) byte {
	for p := pos; p >= 0; p-- {
		if p < len(table) && table[p] != nil {
			return table[p].draw(rng)
		}
	}
	return def
}

// Apply turns a true template sequence into an observed read of exactly
// readLen bases with a parallel quality string, drawing substitutions,
// qualities and indels from the model's tables for the given side.  Quality
// characters are rendered with the qualBase ASCII offset.
//
// The template should be readLen+TemplatePad bases long so deletions cannot
// exhaust it; a short template is padded with N.
//
// Lookups are indexed by output position throughout: an insertion or
// deletion does not shift the positions used for subsequent table lookups.
// This mirrors the empirical-model semantics the tables were trained under
// and must not be "corrected" to track reference drift.
func (m *Model) Apply(template string, side Side, readLen, qualBase int, rng *rand.Rand) (string, string) {
	st := m.sides[side]
	seq := make([]byte, 0, readLen)
	qual := make([]byte, 0, readLen)

	ti := 0 // template index; advances past deleted bases
	pos := 0
	for pos < readLen {
		tb := byte('N')
		if ti < len(template) {
			tb = template[ti]
		}
		ti++

		ob := upper(tb)
		faithful := true
		if bi, ok := baseIndex(tb); ok && pos < m.maxLen {
			if d := st.sub[pos][bi]; d != nil {
				oi := d.draw(rng)
				ob = baseChars[oi]
				faithful = oi == bi
			}
		}
		seq = append(seq, ob)
		if faithful {
			qual = append(qual, qualFrom(st.qual, pos, defaultGoodQual, rng)+byte(qualBase))
		} else {
			qual = append(qual, qualFrom(st.bqual, pos, defaultBadQual, rng)+byte(qualBase))
		}
		pos++
		if pos == readLen {
			break
		}

		if pos-1 < m.maxLen {
			if p := st.del[pos-1]; p > 0 && rng.Float64() < p {
				ti++ // one reference base skipped
			}
			if p := st.ins[pos-1]; p > 0 && rng.Float64() < p {
				seq = append(seq, baseChars[rng.Intn(4)])
				qual = append(qual, qualFrom(st.iqual, pos, defaultBadQual, rng)+byte(qualBase))
				pos++
			}
		}
	}
	return string(seq), string(qual)
}
