// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bbi

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/log"
	"golang.org/x/exp/mmap"

	"github.com/biogo/bbi/block"
	"github.com/biogo/bbi/bptree"
	"github.com/biogo/bbi/internal"
	"github.com/biogo/bbi/internal/pool"
	"github.com/biogo/bbi/rtree"
)

// Reader implements bigBed container reading. Any number of Iterators
// may be used concurrently on a single Reader.
type Reader struct {
	r io.ReaderAt
	c io.Closer

	Header Header

	decl  *Declaration
	codec block.Codec

	load    sync.Once
	loadErr error
	chroms  *bptree.Index
	index   *rtree.Index
	names   map[uint32]string

	mu    sync.Mutex
	cache block.Cache

	closed atomic.Bool
}

// NewReader returns a Reader reading the container held by r. The header
// and declaration are read immediately; the chromosome and block indexes
// are read on first use.
func NewReader(r io.ReaderAt) (*Reader, error) {
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	br := &Reader{r: r, Header: h}
	if h.Compressed() {
		br.codec, err = block.ByID(h.Codec)
		if err != nil {
			return nil, fmt.Errorf("bbi: %w", err)
		}
	}
	if h.DeclarationOffset != 0 {
		br.decl, err = readDeclaration(r, int64(h.DeclarationOffset))
		if err != nil {
			return nil, err
		}
		if len(br.decl.Fields) != int(h.FieldCount) {
			return nil, fmt.Errorf("bbi: declaration has %d fields, header has %d", len(br.decl.Fields), h.FieldCount)
		}
	}
	return br, nil
}

// Open opens the named container file. The file is memory mapped and is
// unmapped when the Reader is closed.
func Open(path string) (*Reader, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bbi: failed to open %s: %w", path, err)
	}
	r.c = f
	return r, nil
}

func readDeclaration(r io.ReaderAt, off int64) (*Declaration, error) {
	var n [4]byte
	err := internal.ReadAt(r, n[:], off)
	if err != nil {
		return nil, fmt.Errorf("bbi: failed to read declaration length: %w", err)
	}
	length := internal.NewBuffer(n[:]).ReadUint32()
	if length > 1<<24 {
		return nil, fmt.Errorf("bbi: declaration length too large: %d", length)
	}
	text := make([]byte, length)
	err = internal.ReadAt(r, text, off+4)
	if err != nil {
		return nil, fmt.Errorf("bbi: failed to read declaration: %w", err)
	}
	return ParseDeclaration(string(text))
}

// Declaration returns the autoSql declaration of the container. It
// returns nil if the container has no declaration.
func (r *Reader) Declaration() *Declaration { return r.decl }

// SetCache sets the block cache used by the Reader. A nil cache disables
// caching. SetCache must not be called while Iterators are in use.
func (r *Reader) SetCache(c block.Cache) {
	r.mu.Lock()
	r.cache = c
	r.mu.Unlock()
}

// Close closes the Reader. Iterators on the Reader return ErrClosed
// after the Reader is closed.
func (r *Reader) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	if r.c != nil {
		return r.c.Close()
	}
	return nil
}

// indexes loads the chromosome and block indexes once.
func (r *Reader) indexes() error {
	if r.closed.Load() {
		return ErrClosed
	}
	r.load.Do(func() {
		r.chroms, r.loadErr = bptree.Open(r.r, int64(r.Header.ChromTreeOffset))
		if r.loadErr != nil {
			return
		}
		var all []bptree.Entry
		all, r.loadErr = r.chroms.All()
		if r.loadErr != nil {
			return
		}
		r.names = make(map[uint32]string, len(all))
		for _, e := range all {
			if _, dup := r.names[e.ID]; dup {
				r.loadErr = fmt.Errorf("bbi: duplicate chromosome id %d", e.ID)
				return
			}
			r.names[e.ID] = e.Name
		}
		r.index, r.loadErr = rtree.Open(r.r, int64(r.Header.FullIndexOffset))
		if r.loadErr != nil {
			return
		}
		log.Debug.Printf("bbi: loaded %d chromosomes and %d block index entries", len(all), r.index.ItemCount)
	})
	return r.loadErr
}

// Chromosomes returns the chromosome entries of the container in name order.
func (r *Reader) Chromosomes() ([]bptree.Entry, error) {
	err := r.indexes()
	if err != nil {
		return nil, err
	}
	return r.chroms.All()
}

// Lookup returns the chromosome entry for name. If no chromosome
// matches, ok is false.
func (r *Reader) Lookup(name string) (e bptree.Entry, ok bool, err error) {
	err = r.indexes()
	if err != nil {
		return bptree.Entry{}, false, err
	}
	return r.chroms.Lookup(name)
}

// ItemCount returns the number of records in the container.
func (r *Reader) ItemCount() (uint64, error) {
	var n [8]byte
	err := internal.ReadAt(r.r, n[:], int64(r.Header.FullDataOffset))
	if err != nil {
		return 0, fmt.Errorf("bbi: failed to read item count: %w", err)
	}
	return internal.NewBuffer(n[:]).ReadUint64(), nil
}

// Query describes a container search. An empty Chrom selects all records.
// When Range is true only records on Chrom overlapping the half-open
// interval [Start, End) are selected; otherwise all records on Chrom
// are selected.
type Query struct {
	Chrom      string
	Range      bool
	Start, End int
}

// Search returns an Iterator over the records selected by q in file order.
// A query on a chromosome that is not present returns an empty Iterator.
func (r *Reader) Search(q Query) (*Iterator, error) {
	if q.Range && (q.Start < 0 || q.End < q.Start || q.End > 1<<32-1) {
		return nil, fmt.Errorf("%w: [%d,%d)", ErrInterval, q.Start, q.End)
	}
	err := r.indexes()
	if err != nil {
		return nil, err
	}
	if q.Chrom == "" {
		if q.Range {
			return nil, fmt.Errorf("%w: range query without chromosome", ErrInterval)
		}
		return newIterator(r, r.index.All(), query{}), nil
	}
	e, ok, err := r.chroms.Lookup(q.Chrom)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Iterator{r: r}, nil
	}
	if !q.Range {
		return newIterator(r, r.index.Chromosome(e.ID), query{chrom: true, id: e.ID}), nil
	}
	var t *rtree.Traverser
	if q.End == q.Start+1 {
		t = r.index.Point(e.ID, uint32(q.Start))
	} else {
		t = r.index.Region(e.ID, uint32(q.Start), uint32(q.End))
	}
	return newIterator(r, t, query{chrom: true, id: e.ID, region: true, start: q.Start, end: q.End}), nil
}

// All returns an Iterator over all records in the container.
func (r *Reader) All() (*Iterator, error) { return r.Search(Query{}) }

// Chromosome returns an Iterator over all records on the named chromosome.
func (r *Reader) Chromosome(name string) (*Iterator, error) {
	return r.Search(Query{Chrom: name})
}

// Region returns an Iterator over records on the named chromosome that
// overlap the half-open interval [start, end).
func (r *Reader) Region(name string, start, end int) (*Iterator, error) {
	return r.Search(Query{Chrom: name, Range: true, Start: start, End: end})
}

// Point returns an Iterator over records on the named chromosome that
// cover pos, including zero-width records at pos.
func (r *Reader) Point(name string, pos int) (*Iterator, error) {
	return r.Search(Query{Chrom: name, Range: true, Start: pos, End: pos + 1})
}

// block returns the decompressed data block referenced by ref.
func (r *Reader) block(ref rtree.Ref) (*block.Block, error) {
	off := int64(ref.Offset)
	r.mu.Lock()
	if r.cache != nil {
		if b := r.cache.Get(off); b != nil {
			r.mu.Unlock()
			return b, nil
		}
	}
	r.mu.Unlock()

	if ref.Size > 1<<31 {
		return nil, fmt.Errorf("%w: block at %d has size %d", ErrCorrupt, off, ref.Size)
	}
	buf := pool.Get(int(ref.Size))
	defer pool.Put(buf)
	err := internal.ReadAt(r.r, buf, off)
	if err != nil {
		if r.closed.Load() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("bbi: failed to read block at %d: %w", off, err)
	}

	var data []byte
	if r.codec == nil {
		data = append([]byte(nil), buf...)
	} else {
		limit := int(r.Header.UncompressBufSize)
		data, err = r.codec.Decompress(make([]byte, 0, min(limit, 4*len(buf))), buf, limit)
		if errors.Is(err, block.ErrTooLarge) {
			return nil, fmt.Errorf("%w: block at %d: %v", ErrBlockSize, off, err)
		}
		if err != nil {
			return nil, fmt.Errorf("bbi: failed to decompress block at %d: %w", off, err)
		}
	}
	b := &block.Block{Offset: off, Data: data}

	r.mu.Lock()
	if r.cache != nil {
		r.cache.Put(b)
	}
	r.mu.Unlock()
	return b, nil
}

// chromName returns the name of the chromosome with the given id.
func (r *Reader) chromName(id uint32) (string, error) {
	name, ok := r.names[id]
	if !ok {
		return "", fmt.Errorf("%w: id %d", ErrNoChrom, id)
	}
	return name, nil
}

