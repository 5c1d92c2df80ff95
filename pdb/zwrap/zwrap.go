// Package zwrap takes a file pointer and optionally wraps it in a gzip
// reader, so that upon calling Close, the decompressor is closed,
// followed by the underlying file.

package zwrap

import (
	"compress/gzip"
	"errors"
	"io"
)

type FpGzip struct { // This is what we return.
	fp   io.ReadCloser
	zrdr *gzip.Reader
}

// Close closes the decompressor, then the underlying file.
func (fc *FpGzip) Close() error {
	if fc.zrdr == nil {
		return fc.fp.Close()
	}
	return errors.Join(fc.zrdr.Close(), fc.fp.Close())
}

// Read makes sure we read from the compressed stream and
// not the underlying file stream.
func (fc *FpGzip) Read(p []byte) (int, error) {
	if fc.zrdr != nil {
		return fc.zrdr.Read(p)
	}
	return fc.fp.Read(p)
}

// Wrap puts a gzip reader in front of fp. fp must be compressed.
func Wrap(fp io.ReadCloser) (*FpGzip, error) {
	zrdr, err := gzip.NewReader(fp)
	if err != nil {
		return nil, err
	}
	return &FpGzip{fp: fp, zrdr: zrdr}, nil
}

// Compressed peeks at the gzip magic number and rewinds. Files shorter
// than the magic number are not compressed.
func Compressed(fp io.ReadSeeker) (bool, error) {
	var magic [2]byte
	n, err := io.ReadFull(fp, magic[:])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	if _, err := fp.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return n == 2 && magic[0] == 0x1f && magic[1] == 0x8b, nil
}

// WrapMaybe wraps fpIn only if it is compressed. You lose the
// ability to seek.
func WrapMaybe(fpIn io.ReadSeekCloser) (*FpGzip, error) {
	gz, err := Compressed(fpIn)
	if err != nil {
		return nil, err
	}
	if gz {
		return Wrap(fpIn)
	}
	return &FpGzip{fp: fpIn}, nil // Leave the zrdr nil
}
