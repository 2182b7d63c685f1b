// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigpsl

import (
	"fmt"
	"io"

	"github.com/biogo/bbi"
	"github.com/biogo/bbi/align"
	"github.com/biogo/bbi/block"
	"github.com/biogo/bbi/bptree"
)

// Reader reads alignments from a bigPsl container.
type Reader struct {
	r *bbi.Reader
}

// NewReader returns a Reader reading the bigPsl container held by r.
func NewReader(r io.ReaderAt) (*Reader, error) {
	br, err := bbi.NewReader(r)
	if err != nil {
		return nil, err
	}
	return wrap(br)
}

// Open opens the named bigPsl container file.
func Open(path string) (*Reader, error) {
	br, err := bbi.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := wrap(br)
	if err != nil {
		br.Close()
		return nil, fmt.Errorf("bigpsl: failed to open %s: %w", path, err)
	}
	return r, nil
}

func wrap(br *bbi.Reader) (*Reader, error) {
	d := br.Declaration()
	if d == nil || d.String() != Declaration {
		return nil, bbi.ErrDeclaration
	}
	return &Reader{r: br}, nil
}

// Container returns the underlying container reader.
func (r *Reader) Container() *bbi.Reader { return r.r }

// SetCache sets the block cache used by the Reader.
func (r *Reader) SetCache(c block.Cache) { r.r.SetCache(c) }

// Chromosomes returns the target sequences held by the container.
func (r *Reader) Chromosomes() ([]bptree.Entry, error) { return r.r.Chromosomes() }

// Close closes the Reader.
func (r *Reader) Close() error { return r.r.Close() }

// Search returns an Iterator over the alignments selected by q.
func (r *Reader) Search(q bbi.Query) (*Iterator, error) {
	it, err := r.r.Search(q)
	if err != nil {
		return nil, err
	}
	return &Iterator{it: it}, nil
}

// All returns an Iterator over all alignments in the container.
func (r *Reader) All() (*Iterator, error) { return r.Search(bbi.Query{}) }

// Chromosome returns an Iterator over the alignments on the named
// target sequence.
func (r *Reader) Chromosome(name string) (*Iterator, error) {
	return r.Search(bbi.Query{Chrom: name})
}

// Region returns an Iterator over the alignments overlapping
// [start, end) of the named target sequence.
func (r *Reader) Region(name string, start, end int) (*Iterator, error) {
	return r.Search(bbi.Query{Chrom: name, Range: true, Start: start, End: end})
}

// Point returns an Iterator over the alignments covering pos of the
// named target sequence.
func (r *Reader) Point(name string, pos int) (*Iterator, error) {
	return r.Search(bbi.Query{Chrom: name, Range: true, Start: pos, End: pos + 1})
}

// Iterator wraps a container Iterator, decoding each record.
type Iterator struct {
	it  *bbi.Iterator
	aln *align.Alignment
	err error
}

// Next advances the Iterator past the next alignment, which will then be
// available through the Alignment method. It returns false when the
// iteration stops, either by reaching the end of the query or an error.
func (i *Iterator) Next() bool {
	if i.err != nil {
		return false
	}
	if !i.it.Next() {
		i.aln = nil
		return false
	}
	i.aln, i.err = FromRecord(i.it.Record())
	return i.err == nil
}

// Alignment returns the most recent alignment read by a call to Next.
func (i *Iterator) Alignment() *align.Alignment { return i.aln }

// Error returns the first non-EOF error that was encountered by the
// Iterator.
func (i *Iterator) Error() error {
	if i.err != nil {
		return i.err
	}
	return i.it.Error()
}

// Close releases the underlying Iterator.
func (i *Iterator) Close() error {
	i.aln = nil
	return i.it.Close()
}
