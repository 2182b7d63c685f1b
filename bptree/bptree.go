// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bptree implements the on-disk B+ tree used by bbi files to map
// chromosome names to chromosome identifiers and lengths.
package bptree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/biogo/bbi/internal"
)

// Magic is the B+ tree header signature.
const Magic = 0x78ca8c91

const (
	headerSize = 32
	valSize    = 8
)

var (
	ErrMagic     = errors.New("bptree: magic number mismatch")
	ErrDuplicate = errors.New("bptree: duplicate name")
	ErrName      = errors.New("bptree: invalid name")
)

// Entry is a chromosome index entry.
type Entry struct {
	Name   string
	ID     uint32
	Length uint32
}

// Tree is an in-memory B+ tree ready for serialization.
type Tree struct {
	blockSize int
	keySize   int
	entries   []Entry
}

// Build returns a Tree holding the provided entries sorted by name. Each
// node holds at most blockSize items; blockSize is reduced to the number
// of entries when there are fewer entries than blockSize.
func Build(entries []Entry, blockSize int) (*Tree, error) {
	if blockSize < 2 || blockSize > 0xffff {
		return nil, fmt.Errorf("bptree: invalid block size: %d", blockSize)
	}
	t := &Tree{entries: append([]Entry(nil), entries...)}
	sort.Slice(t.entries, func(i, j int) bool { return t.entries[i].Name < t.entries[j].Name })
	for i, e := range t.entries {
		if e.Name == "" || strings.IndexByte(e.Name, 0) >= 0 {
			return nil, fmt.Errorf("%w: %q", ErrName, e.Name)
		}
		if i > 0 && t.entries[i-1].Name == e.Name {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, e.Name)
		}
		if len(e.Name) > t.keySize {
			t.keySize = len(e.Name)
		}
	}
	t.blockSize = blockSize
	if len(t.entries) < blockSize {
		t.blockSize = max(len(t.entries), 1)
	}
	return t, nil
}

// Len returns the number of entries in the tree.
func (t *Tree) Len() int { return len(t.entries) }

// Entries returns the entries of the tree in name order.
func (t *Tree) Entries() []Entry { return t.entries }

// levels returns the number of nodes at each level of the tree, root first.
func (t *Tree) levels() []int {
	n := (len(t.entries) + t.blockSize - 1) / t.blockSize
	lv := []int{max(n, 1)}
	for n > 1 {
		n = (n + t.blockSize - 1) / t.blockSize
		lv = append(lv, n)
	}
	for i, j := 0, len(lv)-1; i < j; i, j = i+1, j-1 {
		lv[i], lv[j] = lv[j], lv[i]
	}
	return lv
}

func (t *Tree) nodeSize() int64 {
	return 4 + int64(t.blockSize)*int64(t.keySize+valSize)
}

// Size returns the number of bytes in the serialized tree.
func (t *Tree) Size() int64 {
	var nodes int
	for _, n := range t.levels() {
		nodes += n
	}
	return headerSize + int64(nodes)*t.nodeSize()
}

// Write serializes the tree to w. The off parameter is the file offset at
// which the tree header is written; child pointers are absolute file
// offsets. Nodes are written level by level, root first, each padded to
// blockSize items.
func (t *Tree) Write(w io.Writer, off int64) (int64, error) {
	bw := internal.NewWriter(w)
	bw.WriteUint32(Magic)
	bw.WriteUint32(uint32(t.blockSize))
	bw.WriteUint32(uint32(t.keySize))
	bw.WriteUint32(valSize)
	bw.WriteUint64(uint64(len(t.entries)))
	bw.WriteUint64(0)

	levels := t.levels()
	nodeSize := t.nodeSize()
	itemSize := t.keySize + valSize

	// span is the number of entries below a node at the current level.
	span := 1
	for range levels {
		span *= t.blockSize
	}
	levelOff := off + headerSize
	for l, n := range levels {
		span /= t.blockSize
		leaf := l == len(levels)-1
		nextLevel := levelOff + int64(n)*nodeSize
		for i := 0; i < n; i++ {
			first := i * t.blockSize
			var count int
			if leaf {
				count = min(t.blockSize, len(t.entries)-first)
				bw.WriteUint8(1)
			} else {
				count = min(t.blockSize, levels[l+1]-first)
				bw.WriteUint8(0)
			}
			bw.WriteUint8(0)
			bw.WriteUint16(uint16(count))
			for j := 0; j < count; j++ {
				child := first + j
				if leaf {
					e := t.entries[child]
					bw.WritePadded([]byte(e.Name), t.keySize)
					bw.WriteUint32(e.ID)
					bw.WriteUint32(e.Length)
				} else {
					bw.WritePadded([]byte(t.entries[child*span].Name), t.keySize)
					bw.WriteUint64(uint64(nextLevel + int64(child)*nodeSize))
				}
			}
			bw.Zero((t.blockSize - count) * itemSize)
		}
		levelOff = nextLevel
	}
	if bw.Err() != nil {
		return bw.N(), fmt.Errorf("bptree: failed to write tree: %w", bw.Err())
	}
	return bw.N(), nil
}

// Index is a read-only view of a serialized B+ tree.
type Index struct {
	r   io.ReaderAt
	off int64

	blockSize int
	keySize   int
	itemCount uint64
}

// Open reads the B+ tree header at off in r.
func Open(r io.ReaderAt, off int64) (*Index, error) {
	buf := make([]byte, headerSize)
	err := internal.ReadAt(r, buf, off)
	if err != nil {
		return nil, fmt.Errorf("bptree: failed to read header: %w", err)
	}
	b := internal.NewBuffer(buf)
	if b.ReadUint32() != Magic {
		return nil, ErrMagic
	}
	idx := &Index{
		r:         r,
		off:       off,
		blockSize: int(b.ReadUint32()),
		keySize:   int(b.ReadUint32()),
	}
	vs := b.ReadUint32()
	idx.itemCount = b.ReadUint64()
	switch {
	case vs != valSize:
		return nil, fmt.Errorf("bptree: unexpected value size: %d", vs)
	case idx.blockSize < 1 || idx.blockSize > 0xffff:
		return nil, fmt.Errorf("bptree: invalid block size: %d", idx.blockSize)
	case idx.keySize < 1 && idx.itemCount != 0:
		return nil, fmt.Errorf("bptree: invalid key size: %d", idx.keySize)
	}
	return idx, nil
}

// Len returns the number of entries held by the index.
func (idx *Index) Len() int { return int(idx.itemCount) }

type node struct {
	leaf  bool
	count int
	buf   *internal.Buffer
}

func (idx *Index) readNode(off int64) (node, error) {
	buf := make([]byte, 4+idx.blockSize*(idx.keySize+valSize))
	err := internal.ReadAt(idx.r, buf, off)
	if err != nil {
		return node{}, fmt.Errorf("bptree: failed to read node at %d: %w", off, err)
	}
	b := internal.NewBuffer(buf)
	n := node{leaf: b.ReadUint8() != 0}
	b.Discard(1)
	n.count = int(b.ReadUint16())
	if n.count > idx.blockSize {
		return node{}, fmt.Errorf("bptree: node at %d holds %d items in %d slots", off, n.count, idx.blockSize)
	}
	n.buf = b
	return n, nil
}

// Lookup returns the entry with the given name. If no entry matches, ok
// is false and err is nil.
func (idx *Index) Lookup(name string) (e Entry, ok bool, err error) {
	if idx.itemCount == 0 || len(name) > idx.keySize || name == "" {
		return Entry{}, false, nil
	}
	key := make([]byte, idx.keySize)
	copy(key, name)

	off := idx.off + headerSize
	for depth := 0; ; depth++ {
		if depth > 64 {
			return Entry{}, false, errors.New("bptree: tree too deep")
		}
		n, err := idx.readNode(off)
		if err != nil {
			return Entry{}, false, err
		}
		if n.leaf {
			for i := 0; i < n.count; i++ {
				k := n.buf.Bytes(idx.keySize)
				id := n.buf.ReadUint32()
				length := n.buf.ReadUint32()
				if bytes.Equal(k, key) {
					return Entry{Name: name, ID: id, Length: length}, true, nil
				}
			}
			return Entry{}, false, nil
		}

		// Descend into the last child whose first key is not
		// greater than the query key.
		var child uint64
		for i := 0; i < n.count; i++ {
			k := n.buf.Bytes(idx.keySize)
			o := n.buf.ReadUint64()
			if i > 0 && bytes.Compare(key, k) < 0 {
				break
			}
			child = o
		}
		off = int64(child)
	}
}

// All returns all entries of the index in name order.
func (idx *Index) All() ([]Entry, error) {
	if idx.itemCount == 0 {
		return nil, nil
	}
	entries := make([]Entry, 0, idx.itemCount)
	err := idx.walk(idx.off+headerSize, 0, func(e Entry) { entries = append(entries, e) })
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (idx *Index) walk(off int64, depth int, fn func(Entry)) error {
	if depth > 64 {
		return errors.New("bptree: tree too deep")
	}
	n, err := idx.readNode(off)
	if err != nil {
		return err
	}
	if n.leaf {
		for i := 0; i < n.count; i++ {
			k := n.buf.Bytes(idx.keySize)
			e := Entry{
				Name:   string(bytes.TrimRight(k, "\x00")),
				ID:     n.buf.ReadUint32(),
				Length: n.buf.ReadUint32(),
			}
			fn(e)
		}
		return nil
	}
	children := make([]int64, n.count)
	for i := range children {
		n.buf.Discard(idx.keySize)
		children[i] = int64(n.buf.ReadUint64())
	}
	for _, c := range children {
		err = idx.walk(c, depth+1, fn)
		if err != nil {
			return err
		}
	}
	return nil
}
