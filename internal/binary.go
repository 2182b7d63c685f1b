// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package internal provides little-endian encoding helpers shared by the
// bbi index and container packages.
package internal

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrShort is returned by a Buffer when a read extends past its data.
var ErrShort = errors.New("internal: short buffer")

// Writer is a little-endian binary writer that latches the first error
// returned by its underlying io.Writer. Subsequent writes are no-ops.
type Writer struct {
	w   io.Writer
	n   int64
	err error
	buf [8]byte
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	var n int
	n, w.err = w.w.Write(p)
	w.n += int64(n)
	return n, w.err
}

// N returns the number of bytes written.
func (w *Writer) N() int64 { return w.n }

// Err returns the first error encountered while writing.
func (w *Writer) Err() error { return w.err }

func (w *Writer) WriteUint8(v uint8) {
	w.buf[0] = v
	w.Write(w.buf[:1])
}

func (w *Writer) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.Write(w.buf[:2])
}

func (w *Writer) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.Write(w.buf[:4])
}

func (w *Writer) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.Write(w.buf[:8])
}

// WritePadded writes b followed by zero bytes up to a total of n bytes.
// If b is longer than n only the first n bytes are written.
func (w *Writer) WritePadded(b []byte, n int) {
	if len(b) > n {
		b = b[:n]
	}
	w.Write(b)
	w.Zero(n - len(b))
}

// Zero writes n zero bytes.
func (w *Writer) Zero(n int) {
	var zero [64]byte
	for n > 0 {
		c := n
		if c > len(zero) {
			c = len(zero)
		}
		w.Write(zero[:c])
		n -= c
	}
}

// Buffer is a little-endian decoder over a byte slice. Reads past the
// end of the data latch ErrShort and return zero values.
type Buffer struct {
	off  int
	data []byte
	err  error
}

// NewBuffer returns a Buffer reading from data.
func NewBuffer(data []byte) *Buffer { return &Buffer{data: data} }

// Err returns ErrShort if any read extended past the end of the data.
func (b *Buffer) Err() error { return b.err }

// Len returns the number of unread bytes.
func (b *Buffer) Len() int { return len(b.data) - b.off }

// Offset returns the current read offset.
func (b *Buffer) Offset() int { return b.off }

// Bytes returns the next n bytes of the buffer without copying.
func (b *Buffer) Bytes(n int) []byte {
	if b.err != nil {
		return nil
	}
	if n < 0 || b.off+n > len(b.data) {
		b.err = ErrShort
		b.off = len(b.data)
		return nil
	}
	s := b.off
	b.off += n
	return b.data[s:b.off:b.off]
}

// Discard skips n bytes.
func (b *Buffer) Discard(n int) { b.Bytes(n) }

func (b *Buffer) ReadUint8() uint8 {
	p := b.Bytes(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (b *Buffer) ReadUint16() uint16 {
	p := b.Bytes(2)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(p)
}

func (b *Buffer) ReadUint32() uint32 {
	p := b.Bytes(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (b *Buffer) ReadUint64() uint64 {
	p := b.Bytes(8)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(p)
}

// ReadAt fills buf from r at off. A read that does not fill buf is
// reported as io.ErrUnexpectedEOF.
func ReadAt(r io.ReaderAt, buf []byte, off int64) error {
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
