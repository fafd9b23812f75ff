package fasta

import (
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Open opens the FASTA file at path.  If a faidx index (path + ".fai")
// exists, sequences are fetched on demand from disk; otherwise the whole
// file is loaded into memory.  Gzip-compressed FASTA (".gz") cannot be
// indexed and is always loaded into memory.
func Open(path string) (Fasta, error) {
	if !strings.HasSuffix(path, ".gz") {
		if _, err := os.Stat(path + ".fai"); err == nil {
			return openIndexed(path)
		}
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening FASTA")
	}
	defer in.Close() // nolint: errcheck
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		defer gz.Close() // nolint: errcheck
		return New(gz)
	}
	return New(in)
}

// openIndexed leaves the FASTA file handle open for the lifetime of the
// returned Fasta.  The process exits when simulation ends, so the handle is
// reclaimed then.
func openIndexed(path string) (Fasta, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening FASTA")
	}
	idx, err := os.Open(path + ".fai")
	if err != nil {
		_ = in.Close()
		return nil, errors.Wrap(err, "opening FASTA index")
	}
	defer idx.Close() // nolint: errcheck
	f, err := NewIndexed(in, idx)
	if err != nil {
		_ = in.Close()
		return nil, err
	}
	return f, nil
}
