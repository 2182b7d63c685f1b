// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pool provides size stratified byte slice pools used for
// compressed block reads.
package pool

import (
	"math/bits"
	"sync"
)

// pool contains size stratified []byte pools. Each pool element i
// returns slices with a capacity of 1<<i.
var pool [48]sync.Pool

func init() {
	for i := range pool {
		l := 1 << uint(i)
		pool[i].New = func() any {
			b := make([]byte, l)
			return &b
		}
	}
}

// Get returns a []byte with len size and a cap that is less than
// 2*size.
func Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	i := poolFor(uint(size))
	if i >= len(pool) {
		return make([]byte, size)
	}
	b := *pool[i].Get().(*[]byte)
	return b[:size]
}

// Put returns a buffer obtained from Get to the pool. Buffers whose
// capacity is not a power of two are dropped.
func Put(buf []byte) {
	c := cap(buf)
	if c == 0 || c&(c-1) != 0 {
		return
	}
	i := poolFor(uint(c))
	if i >= len(pool) {
		return
	}
	buf = buf[:0]
	pool[i].Put(&buf)
}

// poolFor returns the ceiling of base 2 log of size. It provides an index
// into a pool array to a sync.Pool that will return values able to hold
// size elements.
func poolFor(size uint) int {
	return bits.Len(size - 1)
}
