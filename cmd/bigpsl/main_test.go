// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/check.v1"

	"github.com/biogo/bbi"
	"github.com/biogo/bbi/align"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func (s *S) TestParseRegion(c *check.C) {
	for _, test := range []struct {
		in   string
		want bbi.Query
		err  string
	}{
		{in: "chr1", want: bbi.Query{Chrom: "chr1"}},
		{in: "chr1:100", want: bbi.Query{Chrom: "chr1", Range: true, Start: 100, End: 101}},
		{in: "chr1:1,000-2,000", want: bbi.Query{Chrom: "chr1", Range: true, Start: 1000, End: 2000}},
		{in: "chr1:5-5", want: bbi.Query{Chrom: "chr1", Range: true, Start: 5, End: 5}},
		{in: ":1-2", err: `invalid region ":1-2": missing chromosome`},
		{in: "chr1:x", err: `invalid region "chr1:x": bad start`},
		{in: "chr1:5-4", err: `invalid region "chr1:5-4": bad end`},
	} {
		got, err := parseRegion(test.in)
		if test.err != "" {
			c.Check(err, check.ErrorMatches, test.err)
			continue
		}
		c.Check(err, check.Equals, nil)
		c.Check(got, check.Equals, test.want)
	}
}

const row = "chr1\t1207056\t1207106\tNR_046018.2\t1000\t+\t1207056\t1207106\t0\t1\t50,\t0,\t0\t50\t+\t50\t0,\t\t\t249250621\t50\t0\t0\t0\t0\n"

func (s *S) TestConvertView(c *check.C) {
	dir := c.MkDir()
	in := filepath.Join(dir, "aln.txt")
	out := filepath.Join(dir, "aln.bb")
	c.Assert(os.WriteFile(in, []byte(row), 0o644), check.Equals, nil)

	rootCmd.SetArgs([]string{"convert", "--codec", "zstd", in, out})
	c.Assert(rootCmd.Execute(), check.Equals, nil)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"chroms", out})
	c.Assert(rootCmd.Execute(), check.Equals, nil)
	c.Check(buf.String(), check.Equals, "chr1\t249250621\n")

	buf.Reset()
	rootCmd.SetArgs([]string{"view", out, "chr1:1207100-1207200"})
	c.Assert(rootCmd.Execute(), check.Equals, nil)
	c.Check(buf.String(), check.Equals, row)

	buf.Reset()
	rootCmd.SetArgs([]string{"view", out, "chr1:1207106"})
	c.Assert(rootCmd.Execute(), check.Equals, nil)
	c.Check(buf.String(), check.Equals, "")

	buf.Reset()
	rootCmd.SetArgs([]string{"counts", out})
	c.Assert(rootCmd.Execute(), check.Equals, nil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	c.Assert(len(lines), check.Equals, 2)
	c.Check(lines[1], check.Equals, "chr1\t1207056\t1207106\tNR_046018.2\t+\t50\t.\t.\t.\t.\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0\t0")

	buf.Reset()
	rootCmd.SetArgs([]string{"declaration", out})
	c.Assert(rootCmd.Execute(), check.Equals, nil)
	c.Check(strings.HasPrefix(buf.String(), "table bigPsl\n"), check.Equals, true)
}

func (s *S) TestWriteCounts(c *check.C) {
	a := &align.Alignment{
		Sequences:   []align.Seq{{ID: "chr1", Length: 100}, {ID: "q", Length: 30}},
		Coordinates: [][]int{{10, 20, 25, 35}, {30, 20, 20, 10}},
	}
	counts, err := a.Counts(nil)
	c.Assert(err, check.Equals, nil)
	var buf bytes.Buffer
	writeCounts(&buf, a, counts)
	c.Check(buf.String(), check.Equals, "chr1\t10\t35\tq\t-\t20\t.\t.\t.\t.\t0\t0\t0\t0\t0\t0\t1\t4\t0\t0\t0\t0\n")
}
