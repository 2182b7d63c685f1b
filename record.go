// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bbi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/biogo/bbi/rtree"
)

// Record is a BED-family record held in a container.
type Record struct {
	Chrom      string
	Start, End int

	// Rest holds the tab-separated fields following
	// the chromosome, start and end columns.
	Rest string
}

// Fields returns the fields held by Rest.
func (r *Record) Fields() []string {
	if r.Rest == "" {
		return nil
	}
	return strings.Split(r.Rest, "\t")
}

// Overlaps returns whether the record overlaps the half-open interval
// [start, end). Zero-width records and queries are treated as points.
func (r *Record) Overlaps(start, end int) bool {
	return rtree.Overlaps(start, end, r.Start, r.End)
}

// rowHeaderSize is the size of the chromosome id, start and end
// fields of a data block row.
const rowHeaderSize = 12

// appendRow appends the data block encoding of rec on chromosome id to dst.
func appendRow(dst []byte, id uint32, rec *Record) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, id)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(rec.Start))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(rec.End))
	dst = append(dst, rec.Rest...)
	return append(dst, 0)
}

// row is a decoded data block row.
type row struct {
	id         uint32
	start, end uint32
	rest       []byte
}

// readRow decodes the row at the start of data, returning the row and the
// number of bytes consumed.
func readRow(data []byte) (row, int, error) {
	if len(data) < rowHeaderSize {
		return row{}, 0, fmt.Errorf("%w: truncated row", ErrCorrupt)
	}
	r := row{
		id:    binary.LittleEndian.Uint32(data),
		start: binary.LittleEndian.Uint32(data[4:]),
		end:   binary.LittleEndian.Uint32(data[8:]),
	}
	n := bytes.IndexByte(data[rowHeaderSize:], 0)
	if n < 0 {
		return row{}, 0, fmt.Errorf("%w: unterminated row", ErrCorrupt)
	}
	r.rest = data[rowHeaderSize : rowHeaderSize+n]
	return r, rowHeaderSize + n + 1, nil
}
