// Package fastq writes FASTQ-formatted read records: four lines per record
// (identifier, sequence, separator, quality), with sequence and quality of
// equal length.
package fastq

import (
	"io"

	"github.com/pkg/errors"
)

var (
	newline   = []byte{'\n'}
	separator = []byte{'+', '\n'}
)

// Writer emits FASTQ records to an underlying writer.  Write errors are
// sticky: once a write fails, subsequent calls return the same error.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter returns a Writer that writes records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes one record.  The id should include the leading '@'.
func (w *Writer) Write(id, seq, qual string) error {
	if len(seq) != len(qual) {
		return errors.Errorf("fastq: sequence and quality lengths differ for %s: %d != %d",
			id, len(seq), len(qual))
	}
	w.writeln(id)
	w.writeln(seq)
	w.write(separator)
	w.writeln(qual)
	return w.err
}

// Err returns the first error encountered by the writer.
func (w *Writer) Err() error { return w.err }

func (w *Writer) writeln(s string) {
	if w.err != nil {
		return
	}
	if _, w.err = io.WriteString(w.w, s); w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}
