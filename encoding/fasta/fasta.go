// Package fasta provides random access to reference sequences stored in
// (optionally faidx-indexed) FASTA files.  FASTA files consist of a number of
// named sequences whose bases may be interrupted by newlines:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// A sequence name is the stretch of characters immediately after '>' up to
// the first space; anything after a space is ignored.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ErrOutOfRange is wrapped by errors returned for requests that fall outside
// the recorded bounds of a sequence.  Callers that sample coordinates can
// test for it with errors.Cause / errors.Is and retry.
var ErrOutOfRange = errors.New("request out of sequence range")

// Fasta is a read-only collection of named sequences.  Implementations are
// safe for concurrent use.
type Fasta interface {
	// Get returns the bases of seqName in the 0-based half-open interval
	// [start, end).
	Get(seqName string, start, end int64) (string, error)

	// Len returns the number of bases in seqName.
	Len(seqName string) (int64, error)

	// SeqNames returns all sequence names in file order.
	SeqNames() []string
}

type memFasta struct {
	seqs     map[string]string
	seqNames []string
}

// New reads all FASTA data from r into memory.
func New(r io.Reader) (Fasta, error) {
	f := &memFasta{seqs: map[string]string{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, 1024*1024*1024)
	var name string
	var seq strings.Builder
	flush := func() error {
		if seq.Len() == 0 {
			return nil
		}
		if name == "" {
			return errors.New("malformed FASTA: bases before first header")
		}
		f.seqs[name] = seq.String()
		f.seqNames = append(f.seqNames, name)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = line[1:]
			if i := strings.IndexByte(name, ' '); i >= 0 {
				name = name[:i]
			}
		} else {
			seq.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading FASTA")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(f.seqNames) == 0 {
		return nil, errors.New("empty FASTA")
	}
	return f, nil
}

func (f *memFasta) Get(seqName string, start, end int64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if err := checkRange(seqName, start, end, int64(len(s))); err != nil {
		return "", err
	}
	return s[start:end], nil
}

func (f *memFasta) Len(seqName string) (int64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return int64(len(s)), nil
}

func (f *memFasta) SeqNames() []string { return f.seqNames }

func checkRange(seqName string, start, end, length int64) error {
	if start < 0 || end <= start {
		return errors.Wrapf(ErrOutOfRange, "bad interval [%d, %d) for %s", start, end, seqName)
	}
	if end > length {
		return errors.Wrapf(ErrOutOfRange, "[%d, %d) extends past end of %s (length %d)",
			start, end, seqName, length)
	}
	return nil
}
