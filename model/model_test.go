package model_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinyheero/wessim/model"
)

// identityModelText builds a model that reproduces the template exactly:
// every substitution row keeps the true base and all faithful calls get q40.
func identityModelText(maxLen int, sides []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "maxlen\t%d\n", maxLen)
	rows := map[byte]string{
		'A': "1 0 0 0 0",
		'T': "0 1 0 0 0",
		'G': "0 0 1 0 0",
		'C': "0 0 0 1 0",
	}
	for _, side := range sides {
		for pos := 0; pos < maxLen; pos++ {
			for _, base := range []byte("ATGC") {
				fmt.Fprintf(&b, "sub %d %d %c %s\n", side, pos, base, rows[base])
			}
			fmt.Fprintf(&b, "qual %d %d 40:1\n", side, pos)
		}
	}
	return b.String()
}

func mustRead(t *testing.T, text string) *model.Model {
	m, err := model.Read(strings.NewReader(text))
	require.NoError(t, err)
	return m
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"noMaxlen", "sub 1 0 A 1 0 0 0 0\n"},
		{"badSide", "maxlen 10\nsub 3 0 A 1 0 0 0 0\n"},
		{"posPastMaxlen", "maxlen 10\nsub 1 10 A 1 0 0 0 0\n"},
		{"badBase", "maxlen 10\nsub 1 0 X 1 0 0 0 0\n"},
		{"shortSub", "maxlen 10\nsub 1 0 A 1 0\n"},
		{"badQual", "maxlen 10\nqual 1 0 40\n"},
		{"badIndel", "maxlen 10\nindel 1 0 2.0 0\n"},
		{"unknownType", "maxlen 10\nfoo 1 0 bar\n"},
		{"noSide1", "maxlen 10\nqual 2 0 40:1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := model.Read(strings.NewReader(tt.text))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	m := mustRead(t, identityModelText(50, []int{1}))
	assert.Equal(t, 50, m.MaxLen())
	assert.NoError(t, m.Validate(50, false))

	err := m.Validate(51, false)
	require.Error(t, err)
	_, ok := err.(*model.CoverageError)
	assert.True(t, ok, "want *CoverageError, got %T", err)

	// Single-sided model cannot serve paired mode.
	err = m.Validate(50, true)
	require.Error(t, err)
	_, ok = err.(*model.CoverageError)
	assert.True(t, ok, "want *CoverageError, got %T", err)

	paired := mustRead(t, identityModelText(50, []int{1, 2}))
	assert.NoError(t, paired.Validate(50, true))
}

func TestApplyIdentity(t *testing.T) {
	m := mustRead(t, identityModelText(20, []int{1}))
	rng := rand.New(rand.NewSource(1))
	template := "acgtACGTacgtACGTacgtACGTacgt"
	seq, qual := m.Apply(template, model.Read1, 20, 33, rng)
	assert.Equal(t, strings.ToUpper(template)[:20], seq)
	assert.Equal(t, strings.Repeat(string(rune(40+33)), 20), qual)
}

func TestApplyAlwaysSubstitutes(t *testing.T) {
	text := "maxlen 5\n" +
		"sub 1 0 A 0 1 0 0 0\n" + // A always observed as T
		"qual 1 0 40:1\n" +
		"bqual 1 0 2:1\n"
	m := mustRead(t, text)
	rng := rand.New(rand.NewSource(1))
	seq, qual := m.Apply("AAAAAAAAAAAAAAA", model.Read1, 5, 33, rng)
	require.Len(t, seq, 5)
	assert.Equal(t, byte('T'), seq[0])
	assert.Equal(t, byte(2+33), qual[0])
	// Positions without sub rows pass the base through with the fallback
	// faithful quality from position 0.
	assert.Equal(t, "AAAA", seq[1:])
	assert.Equal(t, strings.Repeat(string(rune(40+33)), 4), qual[1:])
}

func TestApplyQualityFallback(t *testing.T) {
	// No quality rows at all: defaults q30 for faithful calls.
	m := mustRead(t, "maxlen 5\nsub 1 0 A 1 0 0 0 0\n")
	rng := rand.New(rand.NewSource(1))
	_, qual := m.Apply("AAAAAAAAAAAAAAA", model.Read1, 5, 33, rng)
	assert.Equal(t, strings.Repeat(string(rune(30+33)), 5), qual)
}

func TestApplyHandlesN(t *testing.T) {
	m := mustRead(t, identityModelText(10, []int{1}))
	rng := rand.New(rand.NewSource(1))
	seq, qual := m.Apply("ANNGT", model.Read1, 10, 33, rng)
	require.Len(t, seq, 10)
	require.Len(t, qual, 10)
	assert.Equal(t, "ANNGT", seq[:5])
	// Template exhausted: padded with N.
	assert.Equal(t, "NNNNN", seq[5:])
}

func TestApplyInsertions(t *testing.T) {
	var b strings.Builder
	b.WriteString("maxlen 10\nqual 1 0 40:1\niqual 1 0 2:1\n")
	for pos := 0; pos < 10; pos++ {
		fmt.Fprintf(&b, "indel 1 %d 1 0\n", pos) // insert after every base
	}
	m := mustRead(t, b.String())
	rng := rand.New(rand.NewSource(1))
	seq, qual := m.Apply("AAAAAAAAAAAAAAAAAAAA", model.Read1, 10, 33, rng)
	require.Len(t, seq, 10)
	require.Len(t, qual, 10)
	// Output alternates template base, inserted base; inserted bases carry
	// the iqual score.
	for i := 0; i < 10; i += 2 {
		assert.Equal(t, byte('A'), seq[i])
		assert.Equal(t, byte(40+33), qual[i])
		if i+1 < 10 {
			assert.Equal(t, byte(2+33), qual[i+1])
		}
	}
}

func TestApplyDeletions(t *testing.T) {
	var b strings.Builder
	b.WriteString("maxlen 10\nqual 1 0 40:1\n")
	for pos := 0; pos < 10; pos++ {
		fmt.Fprintf(&b, "indel 1 %d 0 1\n", pos) // delete after every base
	}
	m := mustRead(t, b.String())
	rng := rand.New(rand.NewSource(1))
	// Template alternates A and C; deleting one base after each output
	// position means only the As survive.
	seq, _ := m.Apply("ACACACACACACACACACAC", model.Read1, 10, 33, rng)
	assert.Equal(t, "AAAAAAAAAA", seq)
}

func TestApplyDeterministic(t *testing.T) {
	text := "maxlen 100\n"
	var b strings.Builder
	b.WriteString(text)
	for pos := 0; pos < 100; pos++ {
		fmt.Fprintf(&b, "sub 1 %d A 0.9 0.05 0.03 0.01 0.01\n", pos)
		fmt.Fprintf(&b, "qual 1 %d 40:8,35:1,20:1\n", pos)
		fmt.Fprintf(&b, "bqual 1 %d 10:1,2:1\n", pos)
		fmt.Fprintf(&b, "indel 1 %d 0.01 0.01\n", pos)
	}
	m := mustRead(t, b.String())
	template := strings.Repeat("A", 110)
	s1, q1 := m.Apply(template, model.Read1, 100, 33, rand.New(rand.NewSource(42)))
	s2, q2 := m.Apply(template, model.Read1, 100, 33, rand.New(rand.NewSource(42)))
	assert.Equal(t, s1, s2)
	assert.Equal(t, q1, q2)
	assert.Len(t, s1, 100)
	assert.Len(t, q1, 100)
}
