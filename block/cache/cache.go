// Copyright ©2015 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cache provides basic block cache types for the block package.
package cache

import (
	"github.com/biogo/bbi/block"
)

var (
	_ Cache = (*LRU)(nil)
	_ Cache = (*FIFO)(nil)
	_ Cache = (*Random)(nil)
)

// Cache is an extension of block.Cache that allows inspection
// and manipulation of the cache.
type Cache interface {
	block.Cache

	// Len returns the number of elements held by
	// the cache.
	Len() int

	// Cap returns the maximum number of elements
	// that can be held by the cache.
	Cap() int

	// Resize changes the capacity of the cache to n,
	// dropping excess blocks if n is less than the
	// number of cached blocks.
	Resize(n int)

	// Drop evicts n elements from the cache according
	// to the cache eviction policy.
	Drop(n int)
}

type node struct {
	b *block.Block

	next, prev *node
}

// list is a circular doubly linked list of cached blocks with a table
// index. The most recent insertion is at root.next.
type list struct {
	root  node
	table map[int64]*node
	cap   int
}

func newList(n int) list {
	return list{table: make(map[int64]*node, n), cap: n}
}

func (l *list) init() {
	l.root.next = &l.root
	l.root.prev = &l.root
}

func (l *list) pushFront(n *node) {
	n.prev = &l.root
	n.next = l.root.next
	l.root.next.prev = n
	l.root.next = n
	l.table[n.b.Offset] = n
}

func (l *list) unlink(n *node) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.next = nil
	n.prev = nil
}

func (l *list) remove(n *node) {
	delete(l.table, n.b.Offset)
	l.unlink(n)
}

// Len returns the number of elements held by the cache.
func (l *list) Len() int { return len(l.table) }

// Cap returns the maximum number of elements that can be held by the cache.
func (l *list) Cap() int { return l.cap }

// Resize changes the capacity of the cache to n, dropping excess blocks
// if n is less than the number of cached blocks.
func (l *list) Resize(n int) {
	if n < len(l.table) {
		l.Drop(len(l.table) - n)
	}
	l.cap = n
}

// Drop evicts n elements from the cache according to the cache eviction policy.
func (l *list) Drop(n int) {
	for ; n > 0 && l.Len() > 0; n-- {
		l.remove(l.root.prev)
	}
}

// put inserts b at the front of the list, evicting the oldest element
// when the list is full.
func (l *list) put(b *block.Block) (evicted *block.Block, retained bool) {
	if b == nil || l.cap < 1 {
		return b, false
	}
	if _, ok := l.table[b.Offset]; ok {
		return nil, false
	}
	if len(l.table) >= l.cap {
		evicted = l.root.prev.b
		l.remove(l.root.prev)
	}
	l.pushFront(&node{b: b})
	return evicted, true
}

// NewLRU returns an LRU cache with n slots. If n is less than 1
// a nil cache is returned.
func NewLRU(n int) Cache {
	if n < 1 {
		return nil
	}
	c := LRU{list: newList(n)}
	c.init()
	return &c
}

// LRU satisfies the Cache interface with least recently used eviction
// behavior.
type LRU struct {
	list
}

// Get returns the Block in the Cache with the specified offset or nil
// if it does not exist. A successful Get marks the Block as most recently
// used.
func (c *LRU) Get(offset int64) *block.Block {
	n, ok := c.table[offset]
	if !ok {
		return nil
	}
	c.unlink(n)
	c.pushFront(n)
	return n.b
}

// Put inserts a Block into the Cache, returning the Block that was evicted
// or nil if no eviction was necessary and whether the Block was retained.
func (c *LRU) Put(b *block.Block) (evicted *block.Block, retained bool) {
	return c.put(b)
}

// NewFIFO returns a FIFO cache with n slots. If n is less than 1
// a nil cache is returned.
func NewFIFO(n int) Cache {
	if n < 1 {
		return nil
	}
	c := FIFO{list: newList(n)}
	c.init()
	return &c
}

// FIFO satisfies the Cache interface with first in first out eviction
// behavior.
type FIFO struct {
	list
}

// Get returns the Block in the Cache with the specified offset or nil
// if it does not exist.
func (c *FIFO) Get(offset int64) *block.Block {
	n, ok := c.table[offset]
	if !ok {
		return nil
	}
	return n.b
}

// Put inserts a Block into the Cache, returning the Block that was evicted
// or nil if no eviction was necessary and whether the Block was retained.
func (c *FIFO) Put(b *block.Block) (evicted *block.Block, retained bool) {
	return c.put(b)
}

// NewRandom returns a random eviction cache with n slots. If n is less than 1
// a nil cache is returned.
func NewRandom(n int) Cache {
	if n < 1 {
		return nil
	}
	return &Random{
		table: make(map[int64]*block.Block, n),
		cap:   n,
	}
}

// Random satisfies the Cache interface with random eviction behavior.
type Random struct {
	table map[int64]*block.Block
	cap   int
}

// Len returns the number of elements held by the cache.
func (c *Random) Len() int { return len(c.table) }

// Cap returns the maximum number of elements that can be held by the cache.
func (c *Random) Cap() int { return c.cap }

// Resize changes the capacity of the cache to n, dropping excess blocks
// if n is less than the number of cached blocks.
func (c *Random) Resize(n int) {
	if n < len(c.table) {
		c.Drop(len(c.table) - n)
	}
	c.cap = n
}

// Drop evicts n elements from the cache according to the cache eviction policy.
func (c *Random) Drop(n int) {
	for k := range c.table {
		if n <= 0 {
			return
		}
		delete(c.table, k)
		n--
	}
}

// Get returns the Block in the Cache with the specified offset or nil
// if it does not exist.
func (c *Random) Get(offset int64) *block.Block {
	return c.table[offset]
}

// Put inserts a Block into the Cache, returning the Block that was evicted
// or nil if no eviction was necessary and whether the Block was retained.
func (c *Random) Put(b *block.Block) (evicted *block.Block, retained bool) {
	if b == nil || c.cap < 1 {
		return b, false
	}
	if _, ok := c.table[b.Offset]; ok {
		return nil, false
	}
	if len(c.table) >= c.cap {
		for k, v := range c.table {
			delete(c.table, k)
			evicted = v
			break
		}
	}
	c.table[b.Offset] = b
	return evicted, true
}

// StatsRecorder allows a block.Cache to capture cache statistics.
type StatsRecorder struct {
	block.Cache

	stats Stats
}

// Stats represents statistics of a block.Cache.
type Stats struct {
	Gets      int // number of Get operations
	Misses    int // number of cache misses
	Puts      int // number of Put operations
	Retains   int // number of times a Put has resulted in Block retention
	Evictions int // number of times a Put has resulted in a Block eviction
}

// Stats returns the current statistics for the cache.
func (s *StatsRecorder) Stats() Stats { return s.stats }

// Reset zeros the statistics kept by the StatsRecorder.
func (s *StatsRecorder) Reset() { s.stats = Stats{} }

// Get returns the Block in the underlying Cache with the specified offset or
// nil if it does not exist. It updates the gets and misses statistics.
func (s *StatsRecorder) Get(offset int64) *block.Block {
	s.stats.Gets++
	b := s.Cache.Get(offset)
	if b == nil {
		s.stats.Misses++
	}
	return b
}

// Put inserts a Block into the underlying Cache, returning the Block and eviction
// status according to the underlying cache behavior. It updates the puts, retains and
// evictions statistics.
func (s *StatsRecorder) Put(b *block.Block) (evicted *block.Block, retained bool) {
	s.stats.Puts++
	evicted, retained = s.Cache.Put(b)
	if retained {
		s.stats.Retains++
	}
	if evicted != nil && retained {
		s.stats.Evictions++
	}
	return evicted, retained
}
