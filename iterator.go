// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bbi

import (
	"fmt"

	"github.com/biogo/bbi/rtree"
)

// query is the record level filter applied after block selection.
type query struct {
	chrom bool
	id    uint32

	region     bool
	start, end int
}

// Iterator wraps a Reader to provide a convenient loop interface for
// reading container records. Each Iterator holds its own index traversal
// and current block and does not affect other Iterators on the same
// Reader.
type Iterator struct {
	r *Reader
	t *rtree.Traverser
	q query

	data []byte

	rec *Record
	err error
}

func newIterator(r *Reader, t *rtree.Traverser, q query) *Iterator {
	return &Iterator{r: r, t: t, q: q}
}

// Next advances the Iterator past the next record, which will then be
// available through the Record method. It returns false when the
// iteration stops, either by reaching the end of the selected records or
// an error. After Next returns false, the Error method will return any
// error that occurred during iteration.
func (i *Iterator) Next() bool {
	if i.err != nil {
		return false
	}
	if i.r != nil && i.r.closed.Load() {
		i.err = ErrClosed
		i.rec = nil
		return false
	}
	for {
		for len(i.data) != 0 {
			row, n, err := readRow(i.data)
			if err != nil {
				i.err = err
				return false
			}
			i.data = i.data[n:]
			if row.end < row.start {
				i.err = fmt.Errorf("%w: row end %d precedes start %d", ErrCorrupt, row.end, row.start)
				return false
			}
			if !i.accept(row) {
				continue
			}
			name, err := i.r.chromName(row.id)
			if err != nil {
				i.err = err
				return false
			}
			i.rec = &Record{
				Chrom: name,
				Start: int(row.start),
				End:   int(row.end),
				Rest:  string(row.rest),
			}
			return true
		}
		if i.t == nil || !i.t.Next() {
			if i.t != nil {
				i.err = i.t.Err()
			}
			i.rec = nil
			return false
		}
		b, err := i.r.block(i.t.Item().Ref)
		if err != nil {
			i.err = err
			return false
		}
		i.data = b.Data
	}
}

func (i *Iterator) accept(r row) bool {
	if i.q.chrom && r.id != i.q.id {
		return false
	}
	return !i.q.region || rtree.Overlaps(i.q.start, i.q.end, int(r.start), int(r.end))
}

// Record returns the most recent record read by a call to Next.
func (i *Iterator) Record() *Record { return i.rec }

// Error returns the first error that was encountered by the Iterator.
func (i *Iterator) Error() error { return i.err }

// Close releases the Iterator's current block and returns any error
// encountered during iteration.
func (i *Iterator) Close() error {
	i.data = nil
	i.t = nil
	return i.err
}
