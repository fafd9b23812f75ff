package fastq_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyheero/wessim/encoding/fastq"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	w := fastq.NewWriter(&buf)
	require.NoError(t, w.Write("@r0_from_chr1_1001_+", "ACGT", "IIII"))
	require.NoError(t, w.Write("@r1_from_chr1_1042_-", "TTGA", "II#I"))
	want := "@r0_from_chr1_1001_+\nACGT\n+\nIIII\n" +
		"@r1_from_chr1_1042_-\nTTGA\n+\nII#I\n"
	assert.Equal(t, want, buf.String())
	assert.NoError(t, w.Err())
}

func TestWriteLengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	w := fastq.NewWriter(&buf)
	assert.Error(t, w.Write("@r0", "ACGT", "III"))
	assert.Zero(t, buf.Len())
}

type failWriter struct{ n int }

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n <= 0 {
		return 0, assert.AnError
	}
	f.n -= len(p)
	return len(p), nil
}

func TestStickyError(t *testing.T) {
	w := fastq.NewWriter(&failWriter{n: 2})
	assert.Error(t, w.Write("@r0", "ACGT", "IIII"))
	assert.Error(t, w.Write("@r1", "ACGT", "IIII"))
	assert.Error(t, w.Err())
}
