// Opening manifest files, including compressed copies.
//
// Manifests pulled off production systems are often archived with zstd or
// gzip before they reach the machine doing the debugging. Open sniffs the
// magic bytes and decompresses transparently, so a compressed copy decodes
// to exactly the same edit stream as the raw file. Detection is by content,
// not filename — archived copies rarely keep a meaningful extension.
package manifest

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Open opens a manifest file read-only and returns a Reader over its
// decompressed content. Close the Reader to release the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	src, err := decompressor(br)
	if err != nil {
		f.Close()
		return nil, err
	}

	r := NewReader(src)
	r.src = f
	return r, nil
}

// decompressor wraps br in a decompressing reader when its first bytes
// carry a known magic. Files shorter than the longest magic cannot be
// compressed archives and pass through untouched.
func decompressor(br *bufio.Reader) (io.Reader, error) {
	head, err := br.Peek(len(zstdMagic))
	if err != nil {
		return br, nil
	}
	switch {
	case bytes.Equal(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case bytes.Equal(head[:len(gzipMagic)], gzipMagic):
		return gzip.NewReader(br)
	default:
		return br, nil
	}
}

// Fingerprint returns the xxh3 hash of the file's raw bytes, compressed or
// not. It identifies a manifest across dump runs and copies.
func Fingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
