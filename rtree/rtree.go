// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rtree implements the on-disk chromosome interval R-tree used by
// bbi files to locate data blocks overlapping genomic regions.
package rtree

import (
	"errors"
	"fmt"
	"io"

	"github.com/biogo/bbi/internal"
)

// Magic is the R-tree header signature.
const Magic = 0x2468ace0

const (
	headerSize       = 48
	nodeHeaderSize   = 4
	leafItemSize     = 32
	internalItemSize = 24
)

var (
	ErrMagic = errors.New("rtree: magic number mismatch")
	ErrOrder = errors.New("rtree: items not in file order")
	ErrSpan  = errors.New("rtree: span end precedes start")
)

// Pos is a position in chromosome-major genome coordinates.
type Pos struct {
	Chrom uint32
	Base  uint32
}

// Less returns whether p precedes q.
func (p Pos) Less(q Pos) bool {
	return p.Chrom < q.Chrom || (p.Chrom == q.Chrom && p.Base < q.Base)
}

// Span is a genomic interval that may cross chromosomes.
type Span struct {
	Start, End Pos
}

// extend returns the smallest Span containing s and o given that o does
// not start before s.
func (s Span) extend(o Span) Span {
	if s.End.Less(o.End) {
		s.End = o.End
	}
	return s
}

// Ref is the location of a data block in a file.
type Ref struct {
	Offset uint64
	Size   uint64
}

// Item is a leaf entry of the R-tree.
type Item struct {
	Span
	Ref
}

// Tree is an in-memory R-tree ready for serialization.
type Tree struct {
	// ItemsPerSlot and EndFileOffset are recorded
	// in the serialized header.
	ItemsPerSlot  uint32
	EndFileOffset uint64

	blockSize int
	items     []Item

	// bounds holds the bounding spans of the
	// nodes at each level, root first.
	bounds [][]Span
}

// Build returns a Tree over items, which must be in file order. Each node
// holds at most blockSize children.
func Build(items []Item, blockSize int) (*Tree, error) {
	if blockSize < 2 || blockSize > 0xffff {
		return nil, fmt.Errorf("rtree: invalid block size: %d", blockSize)
	}
	for i, it := range items {
		if it.End.Less(it.Start) {
			return nil, fmt.Errorf("%w: item %d", ErrSpan, i)
		}
		if i > 0 && it.Start.Less(items[i-1].Start) {
			return nil, fmt.Errorf("%w: item %d", ErrOrder, i)
		}
	}
	t := &Tree{blockSize: blockSize, items: items}

	level := make([]Span, len(items))
	for i, it := range items {
		level[i] = it.Span
	}
	for {
		level = t.group(level)
		t.bounds = append(t.bounds, level)
		if len(level) <= 1 {
			break
		}
	}
	for i, j := 0, len(t.bounds)-1; i < j; i, j = i+1, j-1 {
		t.bounds[i], t.bounds[j] = t.bounds[j], t.bounds[i]
	}
	return t, nil
}

// group returns the bounds of nodes holding blockSize consecutive
// children with the given spans.
func (t *Tree) group(children []Span) []Span {
	if len(children) == 0 {
		return []Span{{}}
	}
	var nodes []Span
	for i := 0; i < len(children); i += t.blockSize {
		end := min(i+t.blockSize, len(children))
		b := children[i]
		for _, c := range children[i+1 : end] {
			b = b.extend(c)
		}
		nodes = append(nodes, b)
	}
	return nodes
}

// Len returns the number of items in the tree.
func (t *Tree) Len() int { return len(t.items) }

func (t *Tree) nodeSize(leaf bool) int64 {
	if leaf {
		return nodeHeaderSize + int64(t.blockSize)*leafItemSize
	}
	return nodeHeaderSize + int64(t.blockSize)*internalItemSize
}

// Size returns the number of bytes in the serialized tree.
func (t *Tree) Size() int64 {
	n := int64(headerSize)
	for l, nodes := range t.bounds {
		n += int64(len(nodes)) * t.nodeSize(l == len(t.bounds)-1)
	}
	return n
}

// Write serializes the tree to w. The off parameter is the file offset
// at which the tree header is written; child pointers are absolute file
// offsets.
func (t *Tree) Write(w io.Writer, off int64) (int64, error) {
	bw := internal.NewWriter(w)
	bw.WriteUint32(Magic)
	bw.WriteUint32(uint32(t.blockSize))
	bw.WriteUint64(uint64(len(t.items)))
	root := t.bounds[0][0]
	writeSpan(bw, root)
	bw.WriteUint64(t.EndFileOffset)
	bw.WriteUint32(t.ItemsPerSlot)
	bw.WriteUint32(0)

	levelOff := off + headerSize
	for l, nodes := range t.bounds {
		leaf := l == len(t.bounds)-1
		nextLevel := levelOff + int64(len(nodes))*t.nodeSize(leaf)
		var nChildren int
		if leaf {
			nChildren = len(t.items)
		} else {
			nChildren = len(t.bounds[l+1])
		}
		childSize := t.nodeSize(l+1 == len(t.bounds)-1)
		for i := range nodes {
			first := i * t.blockSize
			count := max(min(t.blockSize, nChildren-first), 0)
			if leaf {
				bw.WriteUint8(1)
			} else {
				bw.WriteUint8(0)
			}
			bw.WriteUint8(0)
			bw.WriteUint16(uint16(count))
			for j := first; j < first+count; j++ {
				if leaf {
					it := t.items[j]
					writeSpan(bw, it.Span)
					bw.WriteUint64(it.Offset)
					bw.WriteUint64(it.Size)
				} else {
					writeSpan(bw, t.bounds[l+1][j])
					bw.WriteUint64(uint64(nextLevel + int64(j)*childSize))
				}
			}
			if leaf {
				bw.Zero((t.blockSize - count) * leafItemSize)
			} else {
				bw.Zero((t.blockSize - count) * internalItemSize)
			}
		}
		levelOff = nextLevel
	}
	if bw.Err() != nil {
		return bw.N(), fmt.Errorf("rtree: failed to write tree: %w", bw.Err())
	}
	return bw.N(), nil
}

func writeSpan(bw *internal.Writer, s Span) {
	bw.WriteUint32(s.Start.Chrom)
	bw.WriteUint32(s.Start.Base)
	bw.WriteUint32(s.End.Chrom)
	bw.WriteUint32(s.End.Base)
}

func readSpan(b *internal.Buffer) Span {
	var s Span
	s.Start.Chrom = b.ReadUint32()
	s.Start.Base = b.ReadUint32()
	s.End.Chrom = b.ReadUint32()
	s.End.Base = b.ReadUint32()
	return s
}
