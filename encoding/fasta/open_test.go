package fasta_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyheero/wessim/encoding/fasta"
)

func TestOpen(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)

	plain := filepath.Join(tmpdir, "ref.fa")
	require.NoError(t, os.WriteFile(plain, []byte(fastaData), 0644))

	indexed := filepath.Join(tmpdir, "indexed.fa")
	require.NoError(t, os.WriteFile(indexed, []byte(fastaData), 0644))
	require.NoError(t, os.WriteFile(indexed+".fai", []byte(fastaIndex), 0644))

	zipped := filepath.Join(tmpdir, "ref.fa.gz")
	out, err := os.Create(zipped)
	require.NoError(t, err)
	gz := gzip.NewWriter(out)
	_, err = gz.Write([]byte(fastaData))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, out.Close())

	for _, path := range []string{plain, indexed, zipped} {
		f, err := fasta.Open(path)
		require.NoError(t, err, path)
		assert.Equal(t, []string{"seq1", "seq2"}, f.SeqNames(), path)
		got, err := f.Get("seq1", 0, 12)
		require.NoError(t, err, path)
		assert.Equal(t, "ACGTACGTACGT", got, path)
	}

	_, err = fasta.Open(filepath.Join(tmpdir, "missing.fa"))
	assert.Error(t, err)
}
