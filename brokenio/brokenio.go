// Package brokenio wraps readers and writers so they fail after a set
// number of bytes. Typical use: you have a reader from a file, a
// decompressor or an http body. You write
// reader = brokenio.NewReader(reader, 100) and everything works as
// before until the 101st byte, when ErrBroken comes back.
package brokenio

import (
	"errors"
	"io"
)

// ErrBroken is what every read or write gets once the budget is used up.
var ErrBroken = errors.New("brokenio: artificial failure")

// Reader passes through the first After bytes of R.
type Reader struct {
	R     io.Reader
	After int
	n     int
}

// NewReader returns a reader that fails once after bytes have been read.
func NewReader(r io.Reader, after int) *Reader {
	return &Reader{R: r, After: after}
}

func (r *Reader) Read(p []byte) (int, error) {
	left := r.After - r.n
	if left <= 0 {
		return 0, ErrBroken
	}
	if len(p) > left {
		p = p[:left]
	}
	n, err := r.R.Read(p)
	r.n += n
	return n, err
}

// Writer accepts After bytes, then fails. A write that crosses the
// limit is cut short.
type Writer struct {
	W     io.Writer
	After int
	n     int
}

func NewWriter(w io.Writer, after int) *Writer {
	return &Writer{W: w, After: after}
}

func (w *Writer) Write(p []byte) (int, error) {
	left := w.After - w.n
	if left <= 0 {
		return 0, ErrBroken
	}
	if len(p) <= left {
		n, err := w.W.Write(p)
		w.n += n
		return n, err
	}
	n, err := w.W.Write(p[:left])
	w.n += n
	if err == nil {
		err = ErrBroken
	}
	return n, err
}

// Count is the number of bytes that got through.
func (r *Reader) Count() int { return r.n }
func (w *Writer) Count() int { return w.n }
