// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

import (
	"testing"

	"github.com/biogo/bbi/block"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func blocks(offsets ...int64) []*block.Block {
	b := make([]*block.Block, len(offsets))
	for i, o := range offsets {
		b[i] = &block.Block{Offset: o, Data: []byte{byte(o)}}
	}
	return b
}

func (s *S) TestNilCaches(c *check.C) {
	c.Check(NewLRU(0), check.IsNil)
	c.Check(NewFIFO(0), check.IsNil)
	c.Check(NewRandom(-1), check.IsNil)
}

func (s *S) TestLRU(c *check.C) {
	lru := NewLRU(2)
	b := blocks(0, 10, 20)
	for _, blk := range b[:2] {
		ev, ok := lru.Put(blk)
		c.Check(ev, check.IsNil)
		c.Check(ok, check.Equals, true)
	}
	c.Check(lru.Len(), check.Equals, 2)

	// Touch 0 so that 10 is least recently used.
	c.Check(lru.Get(0), check.Equals, b[0])
	ev, ok := lru.Put(b[2])
	c.Check(ok, check.Equals, true)
	c.Check(ev, check.Equals, b[1])
	c.Check(lru.Get(10), check.IsNil)
	c.Check(lru.Get(0), check.Equals, b[0])
	c.Check(lru.Get(20), check.Equals, b[2])

	// Duplicate puts are not retained.
	ev, ok = lru.Put(&block.Block{Offset: 20})
	c.Check(ev, check.IsNil)
	c.Check(ok, check.Equals, false)

	lru.Resize(1)
	c.Check(lru.Len(), check.Equals, 1)
	c.Check(lru.Cap(), check.Equals, 1)
	c.Check(lru.Get(20), check.Equals, b[2])
	lru.Drop(5)
	c.Check(lru.Len(), check.Equals, 0)
}

func (s *S) TestFIFO(c *check.C) {
	fifo := NewFIFO(2)
	b := blocks(0, 10, 20)
	fifo.Put(b[0])
	fifo.Put(b[1])

	// Gets do not change eviction order.
	c.Check(fifo.Get(0), check.Equals, b[0])
	ev, ok := fifo.Put(b[2])
	c.Check(ok, check.Equals, true)
	c.Check(ev, check.Equals, b[0])
	c.Check(fifo.Get(0), check.IsNil)
	c.Check(fifo.Get(10), check.Equals, b[1])
}

func (s *S) TestRandom(c *check.C) {
	r := NewRandom(2)
	b := blocks(0, 10, 20)
	for _, blk := range b {
		_, ok := r.Put(blk)
		c.Check(ok, check.Equals, true)
	}
	c.Check(r.Len(), check.Equals, 2)
	c.Check(r.Get(20), check.Equals, b[2])
	r.Resize(0)
	c.Check(r.Len(), check.Equals, 0)
}

func (s *S) TestStatsRecorder(c *check.C) {
	r := &StatsRecorder{Cache: NewLRU(1)}
	b := blocks(0, 10)
	r.Get(0)
	r.Put(b[0])
	r.Get(0)
	r.Put(b[1])
	r.Put(b[1])
	c.Check(r.Stats(), check.Equals, Stats{Gets: 2, Misses: 1, Puts: 3, Retains: 2, Evictions: 1})
	r.Reset()
	c.Check(r.Stats(), check.Equals, Stats{})
}
