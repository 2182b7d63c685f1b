// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bbi implements reading and writing of indexed block-compressed
// bigBed containers holding BED-family records.
//
// A container holds a fixed header, a length-prefixed autoSql declaration,
// an extension header, a chromosome B+ tree, a block R-tree and a data
// section of compressed blocks of records.
package bbi

import (
	"errors"
	"fmt"
	"io"

	"github.com/biogo/bbi/internal"
)

// Magic is the bigBed file signature.
const Magic = 0x8789f2eb

// Version is the bigBed format version written by this package.
const Version = 4

const (
	headerSize    = 64
	extensionSize = 64
)

var (
	ErrMagic       = errors.New("bbi: magic number mismatch")
	ErrVersion     = errors.New("bbi: unsupported version")
	ErrClosed      = errors.New("bbi: used after close")
	ErrBlockSize   = errors.New("bbi: block exceeds declared uncompressed size")
	ErrCorrupt     = errors.New("bbi: corrupt data block")
	ErrNoChrom     = errors.New("bbi: unknown chromosome")
	ErrInterval    = errors.New("bbi: invalid interval")
	ErrDeclaration = errors.New("bbi: declaration mismatch")
)

// Header is the bigBed file header with the extension header fields.
type Header struct {
	Version            uint16
	ZoomLevels         uint16
	ChromTreeOffset    uint64
	FullDataOffset     uint64
	FullIndexOffset    uint64
	FieldCount         uint16
	DefinedFieldCount  uint16
	DeclarationOffset  uint64
	TotalSummaryOffset uint64
	UncompressBufSize  uint32
	ExtensionOffset    uint64

	ExtensionSize        uint16
	ExtraIndexCount      uint16
	ExtraIndexListOffset uint64

	// Codec is the block codec identifier held in the first
	// reserved byte of the extension header.
	Codec byte
}

// Compressed returns whether data blocks are compressed.
func (h *Header) Compressed() bool { return h.UncompressBufSize != 0 }

func (h *Header) write(w io.Writer) error {
	bw := internal.NewWriter(w)
	bw.WriteUint32(Magic)
	bw.WriteUint16(h.Version)
	bw.WriteUint16(h.ZoomLevels)
	bw.WriteUint64(h.ChromTreeOffset)
	bw.WriteUint64(h.FullDataOffset)
	bw.WriteUint64(h.FullIndexOffset)
	bw.WriteUint16(h.FieldCount)
	bw.WriteUint16(h.DefinedFieldCount)
	bw.WriteUint64(h.DeclarationOffset)
	bw.WriteUint64(h.TotalSummaryOffset)
	bw.WriteUint32(h.UncompressBufSize)
	bw.WriteUint64(h.ExtensionOffset)
	return bw.Err()
}

func (h *Header) writeExtension(w io.Writer) error {
	bw := internal.NewWriter(w)
	bw.WriteUint16(h.ExtensionSize)
	bw.WriteUint16(h.ExtraIndexCount)
	bw.WriteUint64(h.ExtraIndexListOffset)
	bw.WriteUint8(h.Codec)
	bw.Zero(extensionSize - 13)
	return bw.Err()
}

func readHeader(r io.ReaderAt) (Header, error) {
	var h Header
	buf := make([]byte, headerSize)
	err := internal.ReadAt(r, buf, 0)
	if err != nil {
		return h, fmt.Errorf("bbi: failed to read header: %w", err)
	}
	b := internal.NewBuffer(buf)
	if b.ReadUint32() != Magic {
		return h, ErrMagic
	}
	h.Version = b.ReadUint16()
	h.ZoomLevels = b.ReadUint16()
	h.ChromTreeOffset = b.ReadUint64()
	h.FullDataOffset = b.ReadUint64()
	h.FullIndexOffset = b.ReadUint64()
	h.FieldCount = b.ReadUint16()
	h.DefinedFieldCount = b.ReadUint16()
	h.DeclarationOffset = b.ReadUint64()
	h.TotalSummaryOffset = b.ReadUint64()
	h.UncompressBufSize = b.ReadUint32()
	h.ExtensionOffset = b.ReadUint64()
	if h.Version < 3 {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.ExtensionOffset == 0 {
		return h, nil
	}

	buf = buf[:extensionSize]
	err = internal.ReadAt(r, buf, int64(h.ExtensionOffset))
	if err != nil {
		return h, fmt.Errorf("bbi: failed to read extension header: %w", err)
	}
	b = internal.NewBuffer(buf)
	h.ExtensionSize = b.ReadUint16()
	h.ExtraIndexCount = b.ReadUint16()
	h.ExtraIndexListOffset = b.ReadUint64()
	h.Codec = b.ReadUint8()
	return h, nil
}
