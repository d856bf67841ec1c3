// Package digest computes the xxHash64 digests Wabbajack stores in its manifests
// and compares them against files on disk.
package digest

import (
	"encoding/base64"
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultChunkSize is the read buffer used when hashing files.
const DefaultChunkSize = 256 * 1024

// Sum64er is anything holding a finished 64-bit hash state, such as *xxhash.Digest.
type Sum64er interface {
	Sum64() uint64
}

// Engine hashes files on a filesystem.
type Engine struct {
	FS        afero.Fs
	ChunkSize int
}

// NewEngine creates an Engine reading from fs with the default chunk size.
func NewEngine(fs afero.Fs) *Engine {
	return &Engine{FS: fs, ChunkSize: DefaultChunkSize}
}

// Encode renders a digest the way manifests store it: the 64-bit value in
// little-endian byte order, base64 encoded. This is the reverse of the
// canonical big-endian xxHash64 byte order.
func Encode(sum uint64) string {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], sum)
	return base64.StdEncoding.EncodeToString(buf[:])
}

// Compare reports whether an already computed hash state matches the expected
// manifest digest. The comparison is case sensitive.
func Compare(h Sum64er, expected string) bool {
	return Encode(h.Sum64()) == expected
}

// Sum streams r through xxHash64 using the engine's chunk size.
func (e *Engine) Sum(r io.Reader) (uint64, error) {
	h := xxhash.New()
	if _, err := io.CopyBuffer(h, r, make([]byte, e.chunkSize())); err != nil {
		return 0, errors.Wrap(err, "hashing")
	}
	return h.Sum64(), nil
}

// SumFile hashes the file at path.
func (e *Engine) SumFile(path string) (uint64, error) {
	f, err := e.FS.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open for digest")
	}
	defer func() { _ = f.Close() }()

	return e.Sum(f)
}

// EncodeFile hashes the file at path and returns its manifest encoding.
func (e *Engine) EncodeFile(path string) (string, error) {
	sum, err := e.SumFile(path)
	if err != nil {
		return "", err
	}
	return Encode(sum), nil
}

// CompareFile hashes the file at path and reports whether it matches expected.
// A mismatch is reported as false, only I/O failures are errors.
func (e *Engine) CompareFile(path, expected string) (bool, error) {
	got, err := e.EncodeFile(path)
	if err != nil {
		return false, err
	}
	return got == expected, nil
}

func (e *Engine) chunkSize() int {
	if e.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return e.ChunkSize
}
