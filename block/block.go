// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package block

// Block is a decompressed data block. A Block held by a Cache is shared
// between readers and must not be modified.
type Block struct {
	// Offset is the file offset of the compressed block.
	Offset int64

	// Data is the decompressed block content.
	Data []byte
}

// Cache is a Block caching type. Basic cache implementations are provided
// in the block/cache package. A Cache must be safe for use by a single
// goroutine; readers serialize access to their Cache.
type Cache interface {
	// Get returns the Block in the Cache with the specified
	// offset or nil if it does not exist. The returned Block
	// is retained by the Cache.
	Get(offset int64) *Block

	// Put inserts a Block into the Cache, returning the Block
	// that was evicted or nil if no eviction was necessary and
	// a boolean indicating whether the put Block was retained
	// by the Cache.
	Put(*Block) (evicted *Block, retained bool)
}
