// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/grailbio/base/log"
	"github.com/spf13/cobra"

	"github.com/biogo/bbi"
	"github.com/biogo/bbi/bigpsl"
	"github.com/biogo/bbi/block"
)

var convertOpts struct {
	chromSizes   string
	codec        string
	uncompressed bool
	blockSize    int
	itemsPerSlot int
	concurrency  int
}

var convertCmd = &cobra.Command{
	Use:   "convert <in.psl.txt> <out.bb>",
	Short: "Convert bigPsl text records to a container",
	Long: `Convert reads tab separated bigPsl records and writes them to an
indexed container. Target sequence lengths are taken from the chromSize
field of each record unless a chromosome sizes file is given.

Examples:
  bigpsl convert aln.txt aln.bb
  bigpsl convert --chrom-sizes hg38.sizes --codec zstd aln.txt aln.bb`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()
		alns, err := bigpsl.NewTextReader(in).ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		log.Debug.Printf("read %d records from %s", len(alns), args[0])

		var sizes map[string]int
		if convertOpts.chromSizes != "" {
			f, err := os.Open(convertOpts.chromSizes)
			if err != nil {
				return err
			}
			sizes, err = bigpsl.ReadChromSizes(f)
			f.Close()
			if err != nil {
				return err
			}
		}

		opts := &bbi.WriteOptions{
			BlockSize:    convertOpts.blockSize,
			ItemsPerSlot: convertOpts.itemsPerSlot,
			Uncompressed: convertOpts.uncompressed,
			Concurrency:  convertOpts.concurrency,
		}
		if !opts.Uncompressed {
			opts.Codec, err = block.ByName(convertOpts.codec)
			if err != nil {
				return err
			}
		}

		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		err = bigpsl.Write(out, alns, sizes, opts)
		if err != nil {
			out.Close()
			return err
		}
		return out.Close()
	},
}

func init() {
	f := convertCmd.Flags()
	f.StringVar(&convertOpts.chromSizes, "chrom-sizes", "", "tab separated target sequence lengths")
	f.StringVar(&convertOpts.codec, "codec", "zlib", "block compression codec (zlib, zstd or xz)")
	f.BoolVar(&convertOpts.uncompressed, "uncompressed", false, "write data blocks without compression")
	f.IntVar(&convertOpts.blockSize, "block-size", bbi.DefaultBlockSize, "maximum children per index node")
	f.IntVar(&convertOpts.itemsPerSlot, "items-per-slot", bbi.DefaultItemsPerSlot, "maximum records per data block")
	f.IntVar(&convertOpts.concurrency, "concurrency", 0, "number of blocks compressed concurrently (0 uses GOMAXPROCS)")
}
