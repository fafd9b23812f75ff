package fasta

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// faiEntry is one line of a samtools faidx index: name, sequence length,
// byte offset of the first base, bases per line, and bytes per line
// (including the line terminator).
type faiEntry struct {
	length    int64
	offset    int64
	lineBases int64
	lineWidth int64
}

type indexedFasta struct {
	seqs     map[string]faiEntry
	seqNames []string

	mu  sync.Mutex
	r   io.ReadSeeker
	buf []byte
}

// NewIndexed returns a Fasta backed by fasta and its faidx index, performing
// random lookups without loading sequence data into memory.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{seqs: map[string]faiEntry{}, r: fasta}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 5 {
			return nil, errors.Errorf("invalid index line: %q", line)
		}
		var ent faiEntry
		var err error
		if ent.length, err = strconv.ParseInt(cols[1], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid index line: %q", line)
		}
		if ent.offset, err = strconv.ParseInt(cols[2], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid index line: %q", line)
		}
		if ent.lineBases, err = strconv.ParseInt(cols[3], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid index line: %q", line)
		}
		if ent.lineWidth, err = strconv.ParseInt(cols[4], 10, 64); err != nil {
			return nil, errors.Wrapf(err, "invalid index line: %q", line)
		}
		if ent.lineBases <= 0 || ent.lineWidth < ent.lineBases {
			return nil, errors.Errorf("invalid line geometry in index line: %q", line)
		}
		f.seqs[cols[0]] = ent
		f.seqNames = append(f.seqNames, cols[0])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading FASTA index")
	}
	if len(f.seqNames) == 0 {
		return nil, errors.New("empty FASTA index")
	}
	return f, nil
}

func (f *indexedFasta) Get(seqName string, start, end int64) (string, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if err := checkRange(seqName, start, end, ent.length); err != nil {
		return "", err
	}

	// Translate base coordinates to byte coordinates, allowing for the
	// newline bytes between lines.
	gap := ent.lineWidth - ent.lineBases
	byteStart := ent.offset + start + gap*(start/ent.lineBases)
	byteEnd := ent.offset + (end - 1) + gap*((end-1)/ent.lineBases) + 1

	f.mu.Lock()
	defer f.mu.Unlock()
	n := int(byteEnd - byteStart)
	if cap(f.buf) < n {
		f.buf = make([]byte, n)
	}
	f.buf = f.buf[:n]
	if _, err := f.r.Seek(byteStart, io.SeekStart); err != nil {
		return "", errors.Wrapf(err, "seeking to %s:%d", seqName, start)
	}
	if _, err := io.ReadFull(f.r, f.buf); err != nil {
		return "", errors.Wrapf(err, "short read for %s:[%d, %d); truncated file or stale index",
			seqName, start, end)
	}

	out := make([]byte, 0, end-start)
	linePos := (byteStart - ent.offset) % ent.lineWidth
	for _, b := range f.buf {
		if linePos < ent.lineBases {
			out = append(out, b)
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(out), nil
}

func (f *indexedFasta) Len(seqName string) (int64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

func (f *indexedFasta) SeqNames() []string { return f.seqNames }
