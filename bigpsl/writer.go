// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigpsl

import (
	"fmt"
	"io"
	"sync"

	"github.com/biogo/bbi"
	"github.com/biogo/bbi/align"
)

var (
	declOnce sync.Once
	decl     *bbi.Declaration
	declErr  error
)

func declaration() (*bbi.Declaration, error) {
	declOnce.Do(func() {
		decl, declErr = bbi.ParseDeclaration(Declaration)
	})
	return decl, declErr
}

// Write writes a bigPsl container holding alns to w. If chromSizes is
// nil, target lengths are taken from the alignments, which must then
// agree for each target. Otherwise each alignment's target length must
// match its entry in chromSizes.
func Write(w io.Writer, alns []*align.Alignment, chromSizes map[string]int, opts *bbi.WriteOptions) error {
	d, err := declaration()
	if err != nil {
		return err
	}
	given := chromSizes != nil
	if !given {
		chromSizes = make(map[string]int)
	}
	for i, a := range alns {
		if len(a.Sequences) == 0 {
			return fmt.Errorf("bigpsl: alignment %d has no sequences", i)
		}
		t := a.Sequences[0]
		n, ok := chromSizes[t.ID]
		switch {
		case ok && n != t.Length && given:
			return fmt.Errorf("bigpsl: alignment %d: target %s has length %d, chromosome sizes give %d", i, t.ID, t.Length, n)
		case ok && n != t.Length:
			return fmt.Errorf("bigpsl: conflicting lengths for %s: %d and %d", t.ID, n, t.Length)
		case !ok && !given:
			chromSizes[t.ID] = t.Length
		}
	}
	records := make([]bbi.Record, len(alns))
	for i, a := range alns {
		records[i], err = Record(a)
		if err != nil {
			return fmt.Errorf("bigpsl: alignment %d: %w", i, err)
		}
	}
	var o bbi.WriteOptions
	if opts != nil {
		o = *opts
	}
	o.DefinedFieldCount = DefinedFields
	return bbi.Write(w, d, chromSizes, records, &o)
}
