// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtree

import (
	"fmt"
	"io"

	"github.com/biogo/bbi/internal"
)

// Index is a read-only view of a serialized R-tree. An Index is safe for
// concurrent use by multiple Traversers.
type Index struct {
	r   io.ReaderAt
	off int64

	BlockSize     int
	ItemCount     uint64
	Bounds        Span
	EndFileOffset uint64
	ItemsPerSlot  uint32
}

// Open reads the R-tree header at off in r.
func Open(r io.ReaderAt, off int64) (*Index, error) {
	buf := make([]byte, headerSize)
	err := internal.ReadAt(r, buf, off)
	if err != nil {
		return nil, fmt.Errorf("rtree: failed to read header: %w", err)
	}
	b := internal.NewBuffer(buf)
	if b.ReadUint32() != Magic {
		return nil, ErrMagic
	}
	idx := &Index{
		r:         r,
		off:       off,
		BlockSize: int(b.ReadUint32()),
		ItemCount: b.ReadUint64(),
		Bounds:    readSpan(b),
	}
	idx.EndFileOffset = b.ReadUint64()
	idx.ItemsPerSlot = b.ReadUint32()
	if idx.BlockSize < 1 || idx.BlockSize > 0xffff {
		return nil, fmt.Errorf("rtree: invalid block size: %d", idx.BlockSize)
	}
	return idx, nil
}

// query is a node filter. The zero query accepts all nodes.
type query struct {
	kind  int
	chrom uint32
	start uint32
	end   uint32
}

const (
	all = iota
	chromosome
	region
)

// accepts returns whether a node bounded by s may hold items satisfying
// the query. Comparisons are inclusive so that zero-width intervals at
// node boundaries are not lost.
func (q query) accepts(s Span) bool {
	switch q.kind {
	case chromosome:
		return s.Start.Chrom <= q.chrom && q.chrom <= s.End.Chrom
	case region:
		return !(Pos{q.chrom, q.end}).Less(s.Start) && !s.End.Less(Pos{q.chrom, q.start})
	default:
		return true
	}
}

// All returns a Traverser over all leaf items in file order.
func (idx *Index) All() *Traverser {
	return idx.traverse(query{kind: all})
}

// Chromosome returns a Traverser over leaf items whose span includes
// the chromosome with the given id.
func (idx *Index) Chromosome(id uint32) *Traverser {
	return idx.traverse(query{kind: chromosome, chrom: id})
}

// Region returns a Traverser over leaf items that may hold records
// overlapping the half-open interval [start, end) on chromosome id.
// A zero-width interval matches items holding records that contain
// start or that are zero-width at start.
func (idx *Index) Region(id, start, end uint32) *Traverser {
	return idx.traverse(query{kind: region, chrom: id, start: start, end: end})
}

// Point returns a Traverser over leaf items that may hold records
// covering pos on chromosome id.
func (idx *Index) Point(id, pos uint32) *Traverser {
	return idx.Region(id, pos, pos+1)
}

func (idx *Index) traverse(q query) *Traverser {
	t := &Traverser{idx: idx, q: q}
	if idx.ItemCount != 0 {
		t.stack = []int64{idx.off + headerSize}
	}
	return t
}

// Traverser is a lazy pre-order walk of an R-tree. Nodes are read from
// the underlying io.ReaderAt on demand. Each Traverser holds its own
// position and is independent of other Traversers on the same Index.
type Traverser struct {
	idx *Index
	q   query

	// stack holds offsets of nodes yet to be
	// visited, with the next node last.
	stack []int64

	// leaf holds accepted items of the current
	// leaf node yet to be returned.
	leaf []Item

	item Item
	err  error
}

// Next advances the Traverser to the next accepted leaf item. It returns
// false when no items remain or an error has occurred.
func (t *Traverser) Next() bool {
	if t.err != nil {
		return false
	}
	for len(t.leaf) == 0 {
		if len(t.stack) == 0 {
			return false
		}
		off := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.err = t.visit(off)
		if t.err != nil {
			return false
		}
	}
	t.item = t.leaf[0]
	t.leaf = t.leaf[1:]
	return true
}

// visit reads the node at off, queueing accepted children or items.
func (t *Traverser) visit(off int64) error {
	if len(t.stack) > 64*t.idx.BlockSize {
		return fmt.Errorf("rtree: traversal stack exceeded at node %d", off)
	}
	var head [nodeHeaderSize]byte
	err := internal.ReadAt(t.idx.r, head[:], off)
	if err != nil {
		return fmt.Errorf("rtree: failed to read node at %d: %w", off, err)
	}
	hb := internal.NewBuffer(head[:])
	leaf := hb.ReadUint8() != 0
	hb.Discard(1)
	count := int(hb.ReadUint16())
	if count > t.idx.BlockSize {
		return fmt.Errorf("rtree: node at %d holds %d items in %d slots", off, count, t.idx.BlockSize)
	}
	size := internalItemSize
	if leaf {
		size = leafItemSize
	}
	buf := make([]byte, count*size)
	err = internal.ReadAt(t.idx.r, buf, off+nodeHeaderSize)
	if err != nil {
		return fmt.Errorf("rtree: failed to read node at %d: %w", off, err)
	}
	b := internal.NewBuffer(buf)
	if leaf {
		for i := 0; i < count; i++ {
			it := Item{Span: readSpan(b)}
			it.Offset = b.ReadUint64()
			it.Size = b.ReadUint64()
			if t.q.accepts(it.Span) {
				t.leaf = append(t.leaf, it)
			}
		}
		return nil
	}
	var children []int64
	for i := 0; i < count; i++ {
		s := readSpan(b)
		child := int64(b.ReadUint64())
		if t.q.accepts(s) {
			children = append(children, child)
		}
	}
	for i := len(children) - 1; i >= 0; i-- {
		t.stack = append(t.stack, children[i])
	}
	return nil
}

// Item returns the current leaf item.
func (t *Traverser) Item() Item { return t.item }

// Err returns the first error encountered during traversal.
func (t *Traverser) Err() error { return t.err }

// Overlaps returns whether the half-open record interval [start, end)
// overlaps the half-open query interval [qs, qe). Zero-width intervals
// are treated as points: a zero-width query matches records containing
// it or equal to it, and a zero-width record matches queries containing
// it.
func Overlaps(qs, qe, start, end int) bool {
	switch {
	case qs == qe && start == end:
		return qs == start
	case qs == qe:
		return start <= qs && qs < end
	case start == end:
		return qs <= start && start < qe
	default:
		return start < qe && qs < end
	}
}
