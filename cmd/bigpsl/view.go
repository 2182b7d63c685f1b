// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/biogo/bbi"
	"github.com/biogo/bbi/bigpsl"
	"github.com/biogo/bbi/block/cache"
)

var viewCmd = &cobra.Command{
	Use:   "view <in.bb> [region]",
	Short: "Write container records as bigPsl text",
	Long: `View writes the records of a container as tab separated bigPsl text.
A region may be a chromosome name, chr:pos for a single position, or
chr:start-end for a zero-based half-open interval.

Examples:
  bigpsl view aln.bb
  bigpsl view aln.bb chr1:1000000-2000000`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := bigpsl.Open(args[0])
		if err != nil {
			return err
		}
		defer r.Close()
		r.SetCache(cache.NewLRU(64))

		var q bbi.Query
		if len(args) == 2 {
			q, err = parseRegion(args[1])
			if err != nil {
				return err
			}
		}
		it, err := r.Search(q)
		if err != nil {
			return err
		}
		defer it.Close()
		w := bigpsl.NewTextWriter(cmd.OutOrStdout())
		for it.Next() {
			err = w.Write(it.Alignment())
			if err != nil {
				return err
			}
		}
		if err = it.Error(); err != nil {
			return err
		}
		return w.Flush()
	},
}

// parseRegion parses a chr, chr:pos or chr:start-end region.
func parseRegion(s string) (bbi.Query, error) {
	chrom, rng, ok := strings.Cut(s, ":")
	if chrom == "" {
		return bbi.Query{}, fmt.Errorf("invalid region %q: missing chromosome", s)
	}
	if !ok {
		return bbi.Query{Chrom: chrom}, nil
	}
	rng = strings.ReplaceAll(rng, ",", "")
	from, to, isRange := strings.Cut(rng, "-")
	start, err := strconv.Atoi(from)
	if err != nil || start < 0 {
		return bbi.Query{}, fmt.Errorf("invalid region %q: bad start", s)
	}
	end := start + 1
	if isRange {
		end, err = strconv.Atoi(to)
		if err != nil || end < start {
			return bbi.Query{}, fmt.Errorf("invalid region %q: bad end", s)
		}
	}
	return bbi.Query{Chrom: chrom, Range: true, Start: start, End: end}, nil
}
