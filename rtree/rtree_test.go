// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rtree

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

// randomItems returns n items over chroms chromosomes in file order.
// Items are single-chromosome blocks, some of them zero-width.
func randomItems(rnd *rand.Rand, n, chroms int) []Item {
	items := make([]Item, n)
	var (
		chrom uint32
		pos   uint32
	)
	for i := range items {
		if rnd.Intn(n/chroms+1) == 0 && int(chrom) < chroms-1 {
			chrom++
			pos = 0
		}
		pos += uint32(rnd.Intn(100))
		length := uint32(rnd.Intn(300))
		if rnd.Intn(10) == 0 {
			length = 0
		}
		items[i] = Item{
			Span: Span{Start: Pos{chrom, pos}, End: Pos{chrom, pos + length}},
			Ref:  Ref{Offset: uint64(i * 100), Size: 100},
		}
	}
	return items
}

func serialize(c *check.C, t *Tree, prefix int) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, prefix))
	n, err := t.Write(&buf, int64(prefix))
	c.Assert(err, check.Equals, nil)
	c.Assert(n, check.Equals, t.Size())
	return buf.Bytes()
}

func collect(c *check.C, t *Traverser) []Item {
	var items []Item
	for t.Next() {
		items = append(items, t.Item())
	}
	c.Assert(t.Err(), check.Equals, nil)
	return items
}

func (s *S) TestQueries(c *check.C) {
	rnd := rand.New(rand.NewSource(1))
	for _, test := range []struct {
		n, chroms, blockSize int
	}{
		{n: 0, chroms: 1, blockSize: 256},
		{n: 1, chroms: 1, blockSize: 256},
		{n: 50, chroms: 3, blockSize: 256},
		{n: 500, chroms: 5, blockSize: 4},
		{n: 1000, chroms: 10, blockSize: 7},
	} {
		items := randomItems(rnd, test.n, test.chroms)
		tree, err := Build(items, test.blockSize)
		c.Assert(err, check.Equals, nil)
		tree.ItemsPerSlot = 512
		tree.EndFileOffset = 1 << 20
		data := serialize(c, tree, 11)

		idx, err := Open(bytes.NewReader(data), 11)
		c.Assert(err, check.Equals, nil)
		c.Check(idx.ItemCount, check.Equals, uint64(test.n))
		c.Check(idx.ItemsPerSlot, check.Equals, uint32(512))
		c.Check(idx.EndFileOffset, check.Equals, uint64(1<<20))

		got := collect(c, idx.All())
		if test.n == 0 {
			c.Check(got, check.HasLen, 0)
			continue
		}
		c.Check(got, check.DeepEquals, items)

		for chrom := uint32(0); chrom <= uint32(test.chroms); chrom++ {
			var want []Item
			for _, it := range items {
				if it.Start.Chrom == chrom {
					want = append(want, it)
				}
			}
			c.Check(collect(c, idx.Chromosome(chrom)), check.DeepEquals, want)
		}

		for i := 0; i < 200; i++ {
			chrom := uint32(rnd.Intn(test.chroms))
			start := uint32(rnd.Intn(5000))
			end := start + uint32(rnd.Intn(3))*uint32(rnd.Intn(500))
			got := collect(c, idx.Region(chrom, start, end))

			// Every item holding a record that overlaps the query
			// must be returned, in file order.
			var j int
			for _, it := range items {
				if it.Start.Chrom != chrom {
					continue
				}
				if !Overlaps(int(start), int(end), int(it.Start.Base), int(it.End.Base)) {
					continue
				}
				for j < len(got) && got[j] != it {
					j++
				}
				c.Check(j < len(got), check.Equals, true, check.Commentf("missing %+v for %d:%d-%d", it, chrom, start, end))
			}
			for _, it := range got {
				c.Check(it.Start.Chrom <= chrom && chrom <= it.End.Chrom, check.Equals, true)
			}
		}
	}
}

func (s *S) TestZeroWidth(c *check.C) {
	items := []Item{
		{Span: Span{Start: Pos{0, 10}, End: Pos{0, 10}}, Ref: Ref{Offset: 0}},
		{Span: Span{Start: Pos{0, 20}, End: Pos{0, 30}}, Ref: Ref{Offset: 1}},
		{Span: Span{Start: Pos{1, 5}, End: Pos{1, 5}}, Ref: Ref{Offset: 2}},
	}
	tree, err := Build(items, 2)
	c.Assert(err, check.Equals, nil)
	idx, err := Open(bytes.NewReader(serialize(c, tree, 0)), 0)
	c.Assert(err, check.Equals, nil)

	offsets := func(t *Traverser) []uint64 {
		var o []uint64
		for _, it := range collect(c, t) {
			o = append(o, it.Offset)
		}
		return o
	}
	c.Check(offsets(idx.Region(0, 10, 10)), check.DeepEquals, []uint64{0})
	c.Check(offsets(idx.Point(0, 10)), check.DeepEquals, []uint64{0})
	c.Check(offsets(idx.Region(0, 25, 25)), check.DeepEquals, []uint64{1})
	c.Check(offsets(idx.Point(1, 5)), check.DeepEquals, []uint64{2})
	c.Check(offsets(idx.Region(1, 6, 100)), check.IsNil)
	c.Check(offsets(idx.Chromosome(2)), check.IsNil)
}

func (s *S) TestIndependentTraversers(c *check.C) {
	rnd := rand.New(rand.NewSource(2))
	items := randomItems(rnd, 300, 3)
	tree, err := Build(items, 4)
	c.Assert(err, check.Equals, nil)
	idx, err := Open(bytes.NewReader(serialize(c, tree, 0)), 0)
	c.Assert(err, check.Equals, nil)

	want := [3][]Item{
		collect(c, idx.All()),
		collect(c, idx.Chromosome(1)),
		collect(c, idx.Region(0, 100, 2000)),
	}
	ts := [3]*Traverser{idx.All(), idx.Chromosome(1), idx.Region(0, 100, 2000)}
	var got [3][]Item
	for live := true; live; {
		live = false
		for i, t := range ts {
			if rnd.Intn(2) == 0 {
				live = true
				continue
			}
			if t.Next() {
				got[i] = append(got[i], t.Item())
				live = true
			} else if t.Err() != nil {
				c.Fatalf("unexpected error: %v", t.Err())
			}
		}
	}
	c.Check(got, check.DeepEquals, want)
}

func (s *S) TestBuildErrors(c *check.C) {
	_, err := Build([]Item{
		{Span: Span{Start: Pos{0, 10}, End: Pos{0, 5}}},
	}, 4)
	c.Check(errors.Is(err, ErrSpan), check.Equals, true)
	_, err = Build([]Item{
		{Span: Span{Start: Pos{1, 10}, End: Pos{1, 15}}},
		{Span: Span{Start: Pos{0, 10}, End: Pos{0, 15}}},
	}, 4)
	c.Check(errors.Is(err, ErrOrder), check.Equals, true)
}

func (s *S) TestOverlaps(c *check.C) {
	for _, test := range []struct {
		qs, qe, s, e int
		want         bool
	}{
		{qs: 0, qe: 10, s: 5, e: 15, want: true},
		{qs: 0, qe: 10, s: 10, e: 15, want: false},
		{qs: 10, qe: 20, s: 0, e: 10, want: false},
		{qs: 5, qe: 5, s: 5, e: 5, want: true},
		{qs: 5, qe: 5, s: 6, e: 6, want: false},
		{qs: 5, qe: 5, s: 0, e: 10, want: true},
		{qs: 10, qe: 10, s: 0, e: 10, want: false},
		{qs: 0, qe: 10, s: 0, e: 0, want: true},
		{qs: 0, qe: 10, s: 10, e: 10, want: false},
	} {
		c.Check(Overlaps(test.qs, test.qe, test.s, test.e), check.Equals, test.want, check.Commentf("%+v", test))
	}
}

func (s *S) TestOpenErrors(c *check.C) {
	tree, err := Build(randomItems(rand.New(rand.NewSource(3)), 20, 1), 4)
	c.Assert(err, check.Equals, nil)
	data := serialize(c, tree, 0)
	bad := append([]byte(nil), data...)
	bad[3] ^= 0xff
	_, err = Open(bytes.NewReader(bad), 0)
	c.Check(err, check.Equals, ErrMagic)

	idx, err := Open(bytes.NewReader(data[:60]), 0)
	c.Assert(err, check.Equals, nil)
	t := idx.All()
	c.Check(t.Next(), check.Equals, false)
	c.Check(t.Err(), check.ErrorMatches, "rtree: failed to read node at 48: .*")
}
