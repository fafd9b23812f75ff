// Package model loads and applies empirical sequencing error models.
//
// A model is a set of position-indexed tables derived from real instrument
// data: for each 0-based read position and true base, a distribution over
// observed bases (substitutions), distributions over quality scores for
// faithful calls, miscalls and inserted bases, and per-position insertion /
// deletion probabilities.  Paired models carry two sides so mate 1 and
// mate 2 can have asymmetric profiles.
//
// The file format is line-oriented, tab- or space-separated, optionally
// gzip-compressed.  '#' lines are comments.  The first directive must be
// maxlen:
//
//	maxlen <n>
//	sub   <side> <pos> <base> <pA> <pT> <pG> <pC> <pN>
//	qual  <side> <pos> <q>:<w>,<q>:<w>,...
//	bqual <side> <pos> <q>:<w>,...
//	iqual <side> <pos> <q>:<w>,...
//	indel <side> <pos> <pIns> <pDel>
//
// <side> is 1 or 2, <pos> in [0, maxlen), <base> one of ACGT.  qual rows
// hold quality scores for faithful calls, bqual for miscalled bases, iqual
// for inserted bases; weights are relative.  Positions without a quality row
// fall back to the nearest lower covered position, then to fixed defaults
// (q30 faithful, q2 otherwise), mirroring the GemSim lookup behavior.
package model

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Side selects which per-mate table to apply.
type Side int

const (
	// Read1 is the model side for single-end reads and paired mate 1.
	Read1 Side = iota
	// Read2 is the model side for paired mate 2.
	Read2

	numSides = 2
)

const (
	// TemplatePad is how many template bases beyond the read length callers
	// should supply so deletions never exhaust the template.
	TemplatePad = 10

	numBases = 5 // A T G C N

	defaultGoodQual = 30
	defaultBadQual  = 2
)

var baseChars = [numBases]byte{'A', 'T', 'G', 'C', 'N'}

// baseIndex maps A/T/G/C (either case) to 0..3.
func baseIndex(b byte) (int, bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'T', 't':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'C', 'c':
		return 3, true
	}
	return 0, false
}

// CoverageError reports a model that cannot cover the requested reads.
// It is fatal: simulation must not start without model data for every
// output position.
type CoverageError struct {
	ReadLen int
	MaxLen  int
	Side    Side // set when a whole side is missing
}

func (e *CoverageError) Error() string {
	if e.ReadLen > e.MaxLen {
		return fmt.Sprintf("error model covers %d positions but read length is %d", e.MaxLen, e.ReadLen)
	}
	return fmt.Sprintf("error model has no tables for mate %d", int(e.Side)+1)
}

// baseDist is a cumulative categorical distribution over observed bases.
type baseDist struct {
	cum [numBases]float64
}

func (d *baseDist) draw(rng *rand.Rand) int {
	x := rng.Float64() * d.cum[numBases-1]
	for i, c := range d.cum {
		if x < c {
			return i
		}
	}
	return numBases - 1
}

// qualDist is a cumulative categorical distribution over quality scores.
type qualDist struct {
	quals []byte
	cum   []float64
}

func (d *qualDist) draw(rng *rand.Rand) byte {
	x := rng.Float64() * d.cum[len(d.cum)-1]
	i := sort.SearchFloat64s(d.cum, x)
	if i == len(d.cum) {
		i--
	}
	// SearchFloat64s finds the first cum >= x; equality means the draw
	// belongs to the next bucket.
	if d.cum[i] == x && i+1 < len(d.cum) {
		i++
	}
	return d.quals[i]
}

type sideTable struct {
	sub   [][4]*baseDist
	qual  []*qualDist
	bqual []*qualDist
	iqual []*qualDist
	ins   []float64
	del   []float64
}

func newSideTable(maxLen int) *sideTable {
	return &sideTable{
		sub:   make([][4]*baseDist, maxLen),
		qual:  make([]*qualDist, maxLen),
		bqual: make([]*qualDist, maxLen),
		iqual: make([]*qualDist, maxLen),
		ins:   make([]float64, maxLen),
		del:   make([]float64, maxLen),
	}
}

// Model is an immutable empirical error model, safe for concurrent use once
// loaded.
type Model struct {
	maxLen int
	sides  [numSides]*sideTable
}

// MaxLen returns the number of read positions the model covers.
func (m *Model) MaxLen() int { return m.maxLen }

// Validate checks that the model can generate reads of the given length in
// the given mode.  It returns a *CoverageError on failure.
func (m *Model) Validate(readLen int, paired bool) error {
	if readLen > m.maxLen {
		return &CoverageError{ReadLen: readLen, MaxLen: m.maxLen}
	}
	if m.sides[Read1] == nil {
		return &CoverageError{ReadLen: readLen, MaxLen: m.maxLen, Side: Read1}
	}
	if paired && m.sides[Read2] == nil {
		return &CoverageError{ReadLen: readLen, MaxLen: m.maxLen, Side: Read2}
	}
	return nil
}

// Read parses a model from r.
func Read(r io.Reader) (*Model, error) {
	m := &Model{}
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		cols := strings.Fields(line)
		if cols[0] == "maxlen" {
			if len(cols) != 2 {
				return nil, errors.Errorf("model line %d: maxlen takes one argument", lineno)
			}
			n, err := strconv.Atoi(cols[1])
			if err != nil || n <= 0 {
				return nil, errors.Errorf("model line %d: bad maxlen %q", lineno, cols[1])
			}
			m.maxLen = n
			continue
		}
		if m.maxLen == 0 {
			return nil, errors.Errorf("model line %d: maxlen must precede table rows", lineno)
		}
		if len(cols) < 4 {
			return nil, errors.Errorf("model line %d: too few columns", lineno)
		}
		side, pos, err := m.parseSidePos(cols[1], cols[2])
		if err != nil {
			return nil, errors.Wrapf(err, "model line %d", lineno)
		}
		st := m.side(side)
		switch cols[0] {
		case "sub":
			if len(cols) != 4+numBases {
				return nil, errors.Errorf("model line %d: sub needs base and %d probabilities", lineno, numBases)
			}
			bi, ok := baseIndex(cols[3][0])
			if !ok || len(cols[3]) != 1 {
				return nil, errors.Errorf("model line %d: bad base %q", lineno, cols[3])
			}
			d := &baseDist{}
			total := 0.0
			for i := 0; i < numBases; i++ {
				p, err := strconv.ParseFloat(cols[4+i], 64)
				if err != nil || p < 0 {
					return nil, errors.Errorf("model line %d: bad probability %q", lineno, cols[4+i])
				}
				total += p
				d.cum[i] = total
			}
			if total <= 0 {
				return nil, errors.Errorf("model line %d: empty distribution", lineno)
			}
			st.sub[pos][bi] = d
		case "qual", "bqual", "iqual":
			d, err := parseQualDist(cols[3])
			if err != nil {
				return nil, errors.Wrapf(err, "model line %d", lineno)
			}
			switch cols[0] {
			case "qual":
				st.qual[pos] = d
			case "bqual":
				st.bqual[pos] = d
			case "iqual":
				st.iqual[pos] = d
			}
		case "indel":
			if len(cols) != 5 {
				return nil, errors.Errorf("model line %d: indel needs pIns and pDel", lineno)
			}
			pIns, err1 := strconv.ParseFloat(cols[3], 64)
			pDel, err2 := strconv.ParseFloat(cols[4], 64)
			if err1 != nil || err2 != nil || pIns < 0 || pDel < 0 || pIns > 1 || pDel > 1 {
				return nil, errors.Errorf("model line %d: bad indel probabilities", lineno)
			}
			st.ins[pos] = pIns
			st.del[pos] = pDel
		default:
			return nil, errors.Errorf("model line %d: unknown record type %q", lineno, cols[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading model")
	}
	if m.maxLen == 0 {
		return nil, errors.New("model has no maxlen directive")
	}
	if m.sides[Read1] == nil {
		return nil, errors.New("model has no side-1 tables")
	}
	return m, nil
}

// Load reads a model file, transparently decompressing ".gz" paths.
func Load(path string) (*Model, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening model")
	}
	defer in.Close() // nolint: errcheck
	var r io.Reader = in
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		defer gz.Close() // nolint: errcheck
		r = gz
	}
	return Read(r)
}

func (m *Model) parseSidePos(sideCol, posCol string) (Side, int, error) {
	s, err := strconv.Atoi(sideCol)
	if err != nil || (s != 1 && s != 2) {
		return 0, 0, errors.Errorf("bad side %q", sideCol)
	}
	pos, err := strconv.Atoi(posCol)
	if err != nil || pos < 0 || pos >= m.maxLen {
		return 0, 0, errors.Errorf("position %q outside [0, %d)", posCol, m.maxLen)
	}
	return Side(s - 1), pos, nil
}

func (m *Model) side(s Side) *sideTable {
	if m.sides[s] == nil {
		m.sides[s] = newSideTable(m.maxLen)
	}
	return m.sides[s]
}

// parseQualDist parses "q:w,q:w,..." into a cumulative distribution.
func parseQualDist(s string) (*qualDist, error) {
	d := &qualDist{}
	total := 0.0
	for _, item := range strings.Split(s, ",") {
		qw := strings.SplitN(item, ":", 2)
		if len(qw) != 2 {
			return nil, errors.Errorf("bad quality entry %q", item)
		}
		q, err := strconv.Atoi(qw[0])
		if err != nil || q < 0 || q > 93 {
			return nil, errors.Errorf("bad quality score %q", qw[0])
		}
		w, err := strconv.ParseFloat(qw[1], 64)
		if err != nil || w <= 0 {
			return nil, errors.Errorf("bad quality weight %q", qw[1])
		}
		total += w
		d.quals = append(d.quals, byte(q))
		d.cum = append(d.cum, total)
	}
	if len(d.quals) == 0 {
		return nil, errors.New("empty quality distribution")
	}
	return d, nil
}
