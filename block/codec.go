// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block provides the compression codecs and block cache types
// used for bbi data blocks.
package block

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec identifiers stored in a container's extension header.
const (
	ZlibID byte = iota
	ZstdID
	XZID
)

var (
	// ErrUnknownCodec is returned when a codec identifier or name is not known.
	ErrUnknownCodec = errors.New("block: unknown codec")

	// ErrTooLarge is returned when a block decompresses to more
	// than the allowed number of bytes.
	ErrTooLarge = errors.New("block: decompressed block too large")
)

// Codec compresses and decompresses whole data blocks.
type Codec interface {
	// Name returns the name of the codec.
	Name() string

	// ID returns the identifier of the codec stored in
	// container files.
	ID() byte

	// Compress appends the compressed form of src to dst.
	Compress(dst, src []byte) ([]byte, error)

	// Decompress appends the decompressed form of src to dst.
	// If the decompressed form is longer than limit bytes,
	// Decompress stops and returns ErrTooLarge.
	Decompress(dst, src []byte, limit int) ([]byte, error)
}

var (
	// Zlib is the zlib codec used by UCSC bigBed files.
	Zlib Codec = zlibCodec{}

	// Zstd is a zstandard codec.
	Zstd Codec = &zstdCodec{}

	// XZ is an xz/LZMA2 codec.
	XZ Codec = xzCodec{}
)

var codecs = []Codec{ZlibID: Zlib, ZstdID: Zstd, XZID: XZ}

// ByID returns the Codec with the given identifier.
func ByID(id byte) (Codec, error) {
	if int(id) >= len(codecs) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownCodec, id)
	}
	return codecs[id], nil
}

// ByName returns the Codec with the given name.
func ByName(name string) (Codec, error) {
	for _, c := range codecs {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

type zlibCodec struct{}

func (zlibCodec) Name() string { return "zlib" }
func (zlibCodec) ID() byte     { return ZlibID }

func (zlibCodec) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w, err := zlib.NewWriterLevel(buf, zlib.BestCompression)
	if err != nil {
		return dst, err
	}
	_, err = w.Write(src)
	if err != nil {
		return dst, err
	}
	err = w.Close()
	return buf.Bytes(), err
}

func (zlibCodec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return dst, fmt.Errorf("block: zlib: %w", err)
	}
	defer r.Close()
	return readAll(dst, r, limit, "zlib")
}

type zstdCodec struct {
	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

func (*zstdCodec) Name() string { return "zstd" }
func (*zstdCodec) ID() byte     { return ZstdID }

// init lazily constructs the shared encoder and decoder. Both are safe
// for concurrent use through EncodeAll and DecodeAll.
func (c *zstdCodec) init() error {
	c.once.Do(func() {
		c.enc, c.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if c.err != nil {
			return
		}
		c.dec, c.err = zstd.NewReader(nil)
	})
	return c.err
}

func (c *zstdCodec) Compress(dst, src []byte) ([]byte, error) {
	if err := c.init(); err != nil {
		return dst, err
	}
	return c.enc.EncodeAll(src, dst), nil
}

func (c *zstdCodec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	if err := c.init(); err != nil {
		return dst, err
	}
	var h zstd.Header
	err := h.Decode(src)
	if err != nil {
		return dst, fmt.Errorf("block: zstd: %w", err)
	}
	if !h.HasFCS {
		// Streams without a declared size are decoded incrementally.
		r, err := zstd.NewReader(bytes.NewReader(src), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return dst, fmt.Errorf("block: zstd: %w", err)
		}
		defer r.Close()
		return readAll(dst, r, limit, "zstd")
	}
	if h.FrameContentSize > uint64(limit) {
		return dst, fmt.Errorf("%w: zstd frame holds %d bytes, limit %d", ErrTooLarge, h.FrameContentSize, limit)
	}
	n := len(dst)
	b, err := c.dec.DecodeAll(src, dst)
	if err != nil {
		return dst, fmt.Errorf("block: zstd: %w", err)
	}
	if len(b)-n > limit {
		return dst, fmt.Errorf("%w: limit %d", ErrTooLarge, limit)
	}
	return b, nil
}

type xzCodec struct{}

func (xzCodec) Name() string { return "xz" }
func (xzCodec) ID() byte     { return XZID }

func (xzCodec) Compress(dst, src []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w, err := xz.NewWriter(buf)
	if err != nil {
		return dst, err
	}
	_, err = w.Write(src)
	if err != nil {
		return dst, err
	}
	err = w.Close()
	return buf.Bytes(), err
}

func (xzCodec) Decompress(dst, src []byte, limit int) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(src))
	if err != nil {
		return dst, fmt.Errorf("block: xz: %w", err)
	}
	return readAll(dst, r, limit, "xz")
}

// readAll appends at most limit bytes read from r to dst.
func readAll(dst []byte, r io.Reader, limit int, name string) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	n, err := buf.ReadFrom(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return dst, fmt.Errorf("block: %s: %w", name, err)
	}
	if n > int64(limit) {
		return dst, fmt.Errorf("%w: %s stream exceeds %d bytes", ErrTooLarge, name, limit)
	}
	return buf.Bytes(), nil
}
