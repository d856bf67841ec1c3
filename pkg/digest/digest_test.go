package digest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// patterned returns 0x00..0xff repeated n times.
func patterned(n int) []byte {
	out := make([]byte, 0, 256*n)
	for i := 0; i < n; i++ {
		for b := 0; b < 256; b++ {
			out = append(out, byte(b))
		}
	}
	return out
}

func TestEncode_KnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		sum     uint64
		encoded string
	}{
		{name: "empty", input: nil, sum: 0xef46db3751d8e999, encoded: "menYUTfbRu8="},
		{name: "abc", input: []byte("abc"), sum: 0x44bc2cf5ad770999, encoded: "mQl3rfUsvEQ="},
		{
			name:    "pangram",
			input:   []byte("The quick brown fox jumps over the lazy dog"),
			sum:     0x0b242d361fda71bc,
			encoded: "vHHaHzYtJAs=",
		},
		{name: "patterned 10KiB", input: patterned(40), sum: 0x58b820aa7970dbe2, encoded: "4ttweaoguFg="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sum, xxhash.Sum64(tt.input))
			assert.Equal(t, tt.encoded, Encode(tt.sum))
		})
	}
}

func TestEncode_IsByteReversedCanonicalForm(t *testing.T) {
	// The canonical big-endian encoding of the empty digest is "70bbN1HY6Zk=";
	// manifests carry the reversed byte order instead.
	assert.NotEqual(t, "70bbN1HY6Zk=", Encode(0xef46db3751d8e999))
	assert.Equal(t, "menYUTfbRu8=", Encode(0xef46db3751d8e999))
}

func TestCompare(t *testing.T) {
	h := xxhash.New()
	_, err := h.WriteString("abc")
	require.NoError(t, err)

	assert.True(t, Compare(h, "mQl3rfUsvEQ="))
	assert.False(t, Compare(h, "MQL3RFUSVEQ="), "comparison is case sensitive")
	assert.False(t, Compare(h, "menYUTfbRu8="))
}

func TestEngine_ChunkSizeDoesNotChangeDigest(t *testing.T) {
	data := patterned(40)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/blob.bin", data, 0o644))

	for _, size := range []int{-1, 0, 1, 7, 255, 256, 4096, DefaultChunkSize, 1 << 20} {
		e := &Engine{FS: fs, ChunkSize: size}

		sum, err := e.SumFile("/dl/blob.bin")
		require.NoError(t, err, "chunk size %d", size)
		assert.Equal(t, uint64(0x58b820aa7970dbe2), sum, "chunk size %d", size)

		sum, err = e.Sum(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, uint64(0x58b820aa7970dbe2), sum, "chunk size %d", size)
	}
}

func TestEngine_CompareFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dl/mod.7z", []byte("abc"), 0o644))
	e := NewEngine(fs)

	ok, err := e.CompareFile("/dl/mod.7z", "mQl3rfUsvEQ=")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.CompareFile("/dl/mod.7z", "menYUTfbRu8=")
	require.NoError(t, err, "a mismatch is not an error")
	assert.False(t, ok)

	_, err = e.CompareFile("/dl/missing.7z", "menYUTfbRu8=")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "open for digest"))
}
