// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bbi

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"strings"

	"github.com/grailbio/base/log"
	"golang.org/x/sync/errgroup"

	"github.com/biogo/bbi/block"
	"github.com/biogo/bbi/bptree"
	"github.com/biogo/bbi/internal"
	"github.com/biogo/bbi/rtree"
)

// Default container layout parameters.
const (
	DefaultBlockSize    = 256
	DefaultItemsPerSlot = 512
)

// WriteOptions specifies the container layout used by Write. The zero
// value is valid.
type WriteOptions struct {
	// BlockSize is the maximum number of children of
	// an index node. If zero, DefaultBlockSize is used.
	BlockSize int

	// ItemsPerSlot is the maximum number of records
	// in a data block. If zero, DefaultItemsPerSlot is
	// used.
	ItemsPerSlot int

	// Codec is the block compression codec. If nil,
	// block.Zlib is used.
	Codec block.Codec

	// Uncompressed specifies that data blocks are
	// written without compression.
	Uncompressed bool

	// Concurrency is the number of blocks compressed
	// concurrently. If zero, GOMAXPROCS is used.
	Concurrency int

	// DefinedFieldCount is the number of standard BED
	// fields in the declaration. If zero, the lesser of
	// 12 and the number of declared fields is used.
	DefinedFieldCount int
}

func (o *WriteOptions) withDefaults() WriteOptions {
	var opts WriteOptions
	if o != nil {
		opts = *o
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.ItemsPerSlot == 0 {
		opts.ItemsPerSlot = DefaultItemsPerSlot
	}
	if opts.Codec == nil {
		opts.Codec = block.Zlib
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	return opts
}

// dataBlock is a run of records on a single chromosome.
type dataBlock struct {
	span rtree.Span
	raw  []byte
	data []byte
}

// Write writes a container holding records to w. The chromosome lengths
// in chromSizes bound the records; only chromosomes holding records are
// included in the chromosome index, with identifiers assigned in name
// order. Records are stored sorted by chromosome, start and end.
func Write(w io.Writer, decl *Declaration, chromSizes map[string]int, records []Record, opts *WriteOptions) error {
	o := opts.withDefaults()
	if decl == nil {
		return fmt.Errorf("bbi: missing declaration")
	}
	if o.ItemsPerSlot < 1 {
		return fmt.Errorf("bbi: invalid items per slot: %d", o.ItemsPerSlot)
	}
	if o.DefinedFieldCount == 0 {
		o.DefinedFieldCount = min(len(decl.Fields), 12)
	}
	if o.DefinedFieldCount < 3 || o.DefinedFieldCount > len(decl.Fields) {
		return fmt.Errorf("bbi: invalid defined field count: %d", o.DefinedFieldCount)
	}

	ids, entries, err := chromIDs(chromSizes, records)
	if err != nil {
		return err
	}
	for i := range records {
		err = checkRecord(&records[i], chromSizes, len(decl.Fields))
		if err != nil {
			return fmt.Errorf("bbi: record %d: %w", i, err)
		}
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := &records[order[i]], &records[order[j]]
		ia, ib := ids[a.Chrom], ids[b.Chrom]
		if ia != ib {
			return ia < ib
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})

	blocks := makeBlocks(records, order, ids, o.ItemsPerSlot)
	maxRaw, err := compress(blocks, &o)
	if err != nil {
		return err
	}

	chromTree, err := bptree.Build(entries, o.BlockSize)
	if err != nil {
		return fmt.Errorf("bbi: failed to build chromosome index: %w", err)
	}

	h := Header{
		Version:           Version,
		FieldCount:        uint16(len(decl.Fields)),
		DefinedFieldCount: uint16(o.DefinedFieldCount),
		DeclarationOffset: headerSize,
		ExtensionSize:     extensionSize,
	}
	if !o.Uncompressed {
		h.UncompressBufSize = uint32(maxRaw)
		h.Codec = o.Codec.ID()
	}
	h.ExtensionOffset = h.DeclarationOffset + 4 + uint64(len(decl.String()))
	h.ChromTreeOffset = h.ExtensionOffset + extensionSize
	h.FullIndexOffset = h.ChromTreeOffset + uint64(chromTree.Size())

	// The block index precedes the data, so its size is taken from
	// a tree built before block offsets are known.
	items := make([]rtree.Item, len(blocks))
	for i, b := range blocks {
		items[i].Span = b.span
	}
	index, err := rtree.Build(items, o.BlockSize)
	if err != nil {
		return fmt.Errorf("bbi: failed to build block index: %w", err)
	}
	h.FullDataOffset = h.FullIndexOffset + uint64(index.Size())
	off := h.FullDataOffset + 8
	for i, b := range blocks {
		items[i].Ref = rtree.Ref{Offset: off, Size: uint64(len(b.data))}
		off += uint64(len(b.data))
	}
	index, err = rtree.Build(items, o.BlockSize)
	if err != nil {
		return fmt.Errorf("bbi: failed to build block index: %w", err)
	}
	index.ItemsPerSlot = uint32(o.ItemsPerSlot)
	index.EndFileOffset = off

	bw := internal.NewWriter(w)
	h.write(bw)
	bw.WriteUint32(uint32(len(decl.String())))
	io.WriteString(bw, decl.String())
	h.writeExtension(bw)
	if bw.Err() != nil {
		return fmt.Errorf("bbi: failed to write header: %w", bw.Err())
	}
	_, err = chromTree.Write(bw, int64(h.ChromTreeOffset))
	if err != nil {
		return err
	}
	_, err = index.Write(bw, int64(h.FullIndexOffset))
	if err != nil {
		return err
	}
	bw.WriteUint64(uint64(len(records)))
	for _, b := range blocks {
		bw.Write(b.data)
	}
	if bw.Err() != nil {
		return fmt.Errorf("bbi: failed to write data: %w", bw.Err())
	}
	log.Debug.Printf("bbi: wrote %d records in %d blocks over %d chromosomes", len(records), len(blocks), len(entries))
	return nil
}

// chromIDs assigns identifiers in name order to the chromosomes holding
// records.
func chromIDs(sizes map[string]int, records []Record) (map[string]uint32, []bptree.Entry, error) {
	used := make(map[string]bool)
	for i := range records {
		used[records[i].Chrom] = true
	}
	names := make([]string, 0, len(used))
	for n := range used {
		if _, ok := sizes[n]; !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrNoChrom, n)
		}
		names = append(names, n)
	}
	sort.Strings(names)
	ids := make(map[string]uint32, len(names))
	entries := make([]bptree.Entry, len(names))
	for i, n := range names {
		size := sizes[n]
		if size < 0 || size > 1<<32-1 {
			return nil, nil, fmt.Errorf("bbi: invalid length for %s: %d", n, size)
		}
		ids[n] = uint32(i)
		entries[i] = bptree.Entry{Name: n, ID: uint32(i), Length: uint32(size)}
	}
	return ids, entries, nil
}

func checkRecord(r *Record, sizes map[string]int, fields int) error {
	switch {
	case r.Start < 0 || r.End < r.Start:
		return fmt.Errorf("%w: [%d,%d)", ErrInterval, r.Start, r.End)
	case r.End > sizes[r.Chrom]:
		return fmt.Errorf("%w: end %d beyond %s length %d", ErrInterval, r.End, r.Chrom, sizes[r.Chrom])
	case strings.ContainsAny(r.Rest, "\x00\n"):
		return fmt.Errorf("bbi: record fields contain NUL or newline")
	}
	if n := 3 + len(r.Fields()); n != fields {
		return fmt.Errorf("bbi: record has %d fields, declaration has %d", n, fields)
	}
	return nil
}

// makeBlocks groups sorted records into blocks of at most itemsPerSlot
// records that do not span chromosomes.
func makeBlocks(records []Record, order []int, ids map[string]uint32, itemsPerSlot int) []*dataBlock {
	var (
		blocks []*dataBlock
		cur    *dataBlock
		n      int
	)
	for _, i := range order {
		r := &records[i]
		id := ids[r.Chrom]
		if cur == nil || n == itemsPerSlot || cur.span.Start.Chrom != id {
			cur = &dataBlock{span: rtree.Span{
				Start: rtree.Pos{Chrom: id, Base: uint32(r.Start)},
				End:   rtree.Pos{Chrom: id, Base: uint32(r.End)},
			}}
			blocks = append(blocks, cur)
			n = 0
		}
		if uint32(r.End) > cur.span.End.Base {
			cur.span.End.Base = uint32(r.End)
		}
		cur.raw = appendRow(cur.raw, id, r)
		n++
	}
	return blocks
}

// compress fills the data field of each block, returning the largest
// uncompressed block size.
func compress(blocks []*dataBlock, o *WriteOptions) (int, error) {
	var maxRaw int
	for _, b := range blocks {
		maxRaw = max(maxRaw, len(b.raw))
	}
	if o.Uncompressed {
		for _, b := range blocks {
			b.data = b.raw
		}
		return maxRaw, nil
	}
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(o.Concurrency, 1))
	for _, b := range blocks {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var err error
			b.data, err = o.Codec.Compress(nil, b.raw)
			if err != nil {
				return fmt.Errorf("bbi: failed to compress block: %w", err)
			}
			if len(b.data) == 0 {
				return fmt.Errorf("bbi: %s codec produced an empty block", o.Codec.Name())
			}
			return nil
		})
	}
	err := g.Wait()
	return maxRaw, err
}
