// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/spf13/cobra"

	"github.com/biogo/bbi"
	"github.com/biogo/bbi/align"
	"github.com/biogo/bbi/bigpsl"
	"github.com/biogo/bbi/block/cache"
	"github.com/biogo/bbi/fai"
)

var countsOpts struct {
	target string
	query  string
	score  bool
}

var countsCmd = &cobra.Command{
	Use:   "counts <in.bb> [region]",
	Short: "Report identity, substitution and gap counts",
	Long: `Counts writes one tab separated line per alignment giving the number
of aligned positions, identities, mismatches, positives, the substitution
score and the gap open and extend counts of the left, internal and right
gaps in each sequence. Identities and mismatches are only reported when
target and query FASTA files are given; both must be indexable by fai.

Examples:
  bigpsl counts aln.bb
  bigpsl counts --target hg38.fa --query rna.fa --score aln.bb chr1`,
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

		var target, query *fai.File
		if countsOpts.target != "" && countsOpts.query != "" {
			target, err = fai.OpenFile(countsOpts.target, nil)
			if err != nil {
				return err
			}
			defer target.Close()
			query, err = fai.OpenFile(countsOpts.query, nil)
			if err != nil {
				return err
			}
			defer query.Close()
		} else if countsOpts.target != "" || countsOpts.query != "" {
			return fmt.Errorf("both --target and --query are required to compare letters")
		}
		var m align.Matrix
		if countsOpts.score {
			m = align.NucleotideTable()
		}

		it, err := r.Search(q)
		if err != nil {
			return err
		}
		defer it.Close()
		w := bufio.NewWriter(cmd.OutOrStdout())
		writeCountsHeader(w)
		var n int
		for it.Next() {
			a := it.Alignment()
			if target != nil {
				a, err = withLetters(a, target, query)
				if err != nil {
					return err
				}
			}
			c, err := a.Counts(m)
			if err != nil {
				return fmt.Errorf("%s: %w", a.Sequences[1].ID, err)
			}
			writeCounts(w, a, c)
			n++
		}
		if err = it.Error(); err != nil {
			return err
		}
		log.Debug.Printf("counted %d alignments", n)
		return w.Flush()
	},
}

func init() {
	f := countsCmd.Flags()
	f.StringVar(&countsOpts.target, "target", "", "target sequence FASTA file")
	f.StringVar(&countsOpts.query, "query", "", "query sequence FASTA file")
	f.BoolVar(&countsOpts.score, "score", false, "score substitutions with the nucleotide table")
}

func withLetters(a *align.Alignment, target, query *fai.File) (*align.Alignment, error) {
	t, err := target.Letters(a.Sequences[0].ID)
	if err != nil {
		return nil, err
	}
	a, err = a.WithLetters(0, t)
	if err != nil {
		return nil, err
	}
	q, err := query.Letters(a.Sequences[1].ID)
	if err != nil {
		return nil, err
	}
	return a.WithLetters(1, q)
}

var countsColumns = []string{
	"#target", "start", "end", "query", "strand", "aligned", "identities", "mismatches", "positives", "score",
	"left.ins.open", "left.ins.extend", "left.del.open", "left.del.extend",
	"int.ins.open", "int.ins.extend", "int.del.open", "int.del.extend",
	"right.ins.open", "right.ins.extend", "right.del.open", "right.del.extend",
}

func writeCountsHeader(w io.Writer) {
	for i, c := range countsColumns {
		if i != 0 {
			io.WriteString(w, "\t")
		}
		io.WriteString(w, c)
	}
	io.WriteString(w, "\n")
}

func writeCounts(w io.Writer, a *align.Alignment, c align.Counts) {
	start, end := a.Bounds(0)
	na := func(ok bool, v string) string {
		if !ok {
			return "."
		}
		return v
	}
	fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s",
		a.Sequences[0].ID, start, end, a.Sequences[1].ID, a.Strand(1), c.Aligned,
		na(c.Compared, strconv.Itoa(c.Identities)),
		na(c.Compared, strconv.Itoa(c.Mismatches)),
		na(c.Scored, strconv.Itoa(c.Positives)),
		na(c.Scored, strconv.FormatFloat(c.Score, 'g', -1, 64)),
	)
	for _, g := range []align.Gaps{c.Left, c.Internal, c.Right} {
		fmt.Fprintf(w, "\t%d\t%d\t%d\t%d", g.Insertions.Open, g.Insertions.Extend, g.Deletions.Open, g.Deletions.Extend)
	}
	io.WriteString(w, "\n")
}
