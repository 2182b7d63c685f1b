// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/kortschak/utter"
	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

const chr1Length = 249250621

func pairwise(target, query Seq, coords [][]int) *Alignment {
	return &Alignment{Sequences: []Seq{target, query}, Coordinates: coords}
}

func (s *S) TestUngapped(c *check.C) {
	a := pairwise(
		Seq{ID: "chr1", Length: chr1Length},
		Seq{ID: "NR_046018.2", Length: 50},
		[][]int{{1207056, 1207106}, {0, 50}},
	)
	c.Assert(a.Validate(), check.Equals, nil)
	rows, cols := a.Shape()
	c.Check(rows, check.Equals, 2)
	c.Check(cols, check.Equals, 50)

	counts, err := a.Counts(nil)
	c.Assert(err, check.Equals, nil)
	c.Check(counts.Aligned, check.Equals, 50)
	c.Check(counts.Gaps(), check.Equals, 0)
	c.Check(counts.Compared, check.Equals, false)
	c.Check(counts.Scored, check.Equals, false)
}

// gapped is a reverse strand alignment with two internal deletions.
var gapped = [][]int{
	{42530895, 42530958, 42532020, 42532095, 42532563, 42532606},
	{181, 118, 118, 43, 43, 0},
}

// gappedLetters returns target letters for the window covered by gapped
// and query letters whose reverse complement matches the target at every
// aligned position. The target letters at masked positions are soft masked.
func gappedLetters(rnd *rand.Rand, masked []int) (target Partial, query Bytes) {
	const offset = 42530895
	data := make([]byte, gapped[0][5]-offset)
	for i := range data {
		data[i] = "ACGT"[rnd.Intn(4)]
	}
	query = make(Bytes, 181)
	for j := 0; j < len(gapped[0])-1; j += 2 {
		t, q := gapped[0][j], gapped[1][j]
		n := gapped[0][j+1] - t
		rc := ReverseComplement(nil, data[t-offset:t-offset+n])
		copy(query[q-n:q], rc)
	}
	for _, p := range masked {
		data[p] |= 0x20
	}
	return Partial{Offset: offset, Data: data, Length: chr1Length}, query
}

func (s *S) TestGapped(c *check.C) {
	a := pairwise(
		Seq{ID: "chr1", Length: chr1Length},
		Seq{ID: "NR_111921.1", Length: 181},
		gapped,
	)
	c.Assert(a.Validate(), check.Equals, nil)
	rows, cols := a.Shape()
	c.Check(rows, check.Equals, 2)
	c.Check(cols, check.Equals, 1711)
	c.Check(a.Strand(0), check.Equals, Forward)
	c.Check(a.Strand(1), check.Equals, Reverse)

	counts, err := a.Counts(nil)
	c.Assert(err, check.Equals, nil)
	c.Check(counts.Aligned, check.Equals, 181)
	c.Check(counts.Internal.Deletions, check.Equals, Events{Open: 2, Extend: 1528})
	c.Check(counts.Internal.Deletions.Total(), check.Equals, 1530)
	c.Check(counts.Internal.Insertions, check.Equals, Events{})
	c.Check(counts.Left, check.Equals, Gaps{})
	c.Check(counts.Right, check.Equals, Gaps{})
	c.Check(counts.Gaps(), check.Equals, 1530)

	// Masked positions lie in the first and last aligned runs.
	target, query := gappedLetters(rand.New(rand.NewSource(1)), []int{0, 10, 62, 1668, 1700, 1710})
	b, err := a.WithLetters(0, target)
	c.Assert(err, check.Equals, nil)
	b, err = b.WithLetters(1, query)
	c.Assert(err, check.Equals, nil)
	c.Check(a.Sequences[0].Letters, check.IsNil)

	counts, err = b.Counts(NucleotideTable())
	c.Assert(err, check.Equals, nil, check.Commentf("%v", err))
	c.Check(counts.Compared, check.Equals, true)
	c.Check(counts.Scored, check.Equals, true)
	c.Check(counts.Identities, check.Equals, 181)
	c.Check(counts.Mismatches, check.Equals, 0)
	c.Check(counts.Positives, check.Equals, 175)
	c.Check(counts.Identities-counts.Positives, check.Equals, 6)
	c.Check(counts.Score, check.Equals, 175.0)
	c.Check(counts.Internal.Deletions, check.Equals, Events{Open: 2, Extend: 1528})
}

func (s *S) TestMismatches(c *check.C) {
	a := pairwise(
		Seq{ID: "t", Length: 8, Letters: Bytes("ACGTacgt")},
		Seq{ID: "q", Length: 8, Letters: Bytes("ACCTACGA")},
		[][]int{{0, 8}, {0, 8}},
	)
	counts, err := a.Counts(NucleotideTable())
	c.Assert(err, check.Equals, nil)
	c.Check(counts.Identities, check.Equals, 6)
	c.Check(counts.Mismatches, check.Equals, 2)
	c.Check(counts.Positives, check.Equals, 3)
	c.Check(counts.Score, check.Equals, 3.0-2.0)

	counts, err = a.Counts(nil)
	c.Assert(err, check.Equals, nil)
	c.Check(counts.Identities, check.Equals, 6)
	c.Check(counts.Scored, check.Equals, false)
	c.Check(counts.Positives, check.Equals, 0)
}

func (s *S) TestGapClassification(c *check.C) {
	for _, test := range []struct {
		coords [][]int
		want   Counts
	}{
		{
			coords: [][]int{{0, 5, 15, 20}, {0, 0, 10, 10}},
			want: Counts{
				Aligned: 10,
				Left:    Gaps{Deletions: Events{Open: 1, Extend: 4}},
				Right:   Gaps{Deletions: Events{Open: 1, Extend: 4}},
			},
		},
		{
			coords: [][]int{{0, 10, 10, 20}, {0, 10, 13, 23}},
			want: Counts{
				Aligned:  20,
				Internal: Gaps{Insertions: Events{Open: 1, Extend: 2}},
			},
		},
		{
			// Adjacent deletion runs are a single gap.
			coords: [][]int{{0, 10, 12, 15, 25}, {0, 10, 10, 10, 20}},
			want: Counts{
				Aligned:  20,
				Internal: Gaps{Deletions: Events{Open: 1, Extend: 4}},
			},
		},
		{
			// A deletion followed by an insertion is two gaps.
			coords: [][]int{{0, 10, 12, 12, 22}, {0, 10, 10, 11, 21}},
			want: Counts{
				Aligned: 20,
				Internal: Gaps{
					Insertions: Events{Open: 1},
					Deletions:  Events{Open: 1, Extend: 1},
				},
			},
		},
		{
			// Unequal advances are split into an aligned
			// run and a trailing gap.
			coords: [][]int{{0, 10}, {0, 7}},
			want: Counts{
				Aligned: 7,
				Right:   Gaps{Deletions: Events{Open: 1, Extend: 2}},
			},
		},
		{
			coords: [][]int{{0, 4, 10}, {10, 4, 0}},
			want: Counts{
				Aligned:  8,
				Internal: Gaps{Insertions: Events{Open: 1, Extend: 1}},
				Right:    Gaps{Deletions: Events{Open: 1, Extend: 1}},
			},
		},
		{
			// Without aligned letters all gaps are left gaps.
			coords: [][]int{{0, 0, 5}, {0, 3, 3}},
			want: Counts{
				Left: Gaps{
					Insertions: Events{Open: 1, Extend: 2},
					Deletions:  Events{Open: 1, Extend: 4},
				},
			},
		},
	} {
		a := &Alignment{Coordinates: test.coords}
		got, err := a.Counts(nil)
		c.Check(err, check.Equals, nil)
		c.Check(got, check.DeepEquals, test.want, check.Commentf("coords %v: got:%s", test.coords, utter.Sdump(got)))
	}
}

func (s *S) TestCountsInvariants(c *check.C) {
	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		a := randomAlignment(rnd)
		c.Assert(a.Validate(), check.Equals, nil, check.Commentf("%v", a.Coordinates))
		counts, err := a.Counts(nil)
		c.Assert(err, check.Equals, nil)
		c.Check(counts.Insertions()+counts.Deletions(), check.Equals, counts.Gaps())
		c.Check(counts.Left.Total()+counts.Internal.Total()+counts.Right.Total(), check.Equals, counts.Gaps())
		for _, g := range []Gaps{counts.Left, counts.Internal, counts.Right} {
			for _, e := range []Events{g.Insertions, g.Deletions} {
				if e.Total() > 0 {
					c.Check(e.Open >= 1, check.Equals, true)
				}
				c.Check(e.Extend >= 0, check.Equals, true)
			}
		}
		_, cols := a.Shape()
		c.Check(counts.Aligned+counts.Gaps(), check.Equals, cols)
	}
}

// randomAlignment returns a random pairwise alignment with equal advances
// in aligned runs.
func randomAlignment(rnd *rand.Rand) *Alignment {
	t, q := rnd.Intn(100), rnd.Intn(100)
	coords := [][]int{{t}, {q}}
	for n := rnd.Intn(10) + 1; n > 0; n-- {
		l := rnd.Intn(20) + 1
		switch rnd.Intn(3) {
		case 0:
			t += l
			q += l
		case 1:
			t += l
		case 2:
			q += l
		}
		coords[0] = append(coords[0], t)
		coords[1] = append(coords[1], q)
	}
	return &Alignment{Coordinates: coords}
}

func (s *S) TestValidate(c *check.C) {
	for _, test := range []struct {
		a    *Alignment
		want string
	}{
		{a: &Alignment{Coordinates: [][]int{{0, 10}}}, want: "align: invalid coordinates: 1 rows"},
		{a: &Alignment{Coordinates: [][]int{{}, {}}}, want: "align: invalid coordinates: no columns"},
		{a: &Alignment{Coordinates: [][]int{{0, 10}, {0}}}, want: "align: invalid coordinates: row 1 has 1 columns, want 2"},
		{a: &Alignment{Coordinates: [][]int{{10, 0}, {0, 10}}}, want: "align: invalid coordinates: target decreases at column 1"},
		{a: &Alignment{Coordinates: [][]int{{0, 5, 10}, {0, 5, 0}}}, want: "align: invalid coordinates: row 1 changes direction at column 2"},
		{a: &Alignment{Coordinates: [][]int{{0, 5, 5}, {0, 5, 5}}}, want: "align: invalid coordinates: no row advances between columns 1 and 2"},
		{a: &Alignment{Coordinates: [][]int{{-1, 5}, {0, 6}}}, want: "align: invalid coordinates: row 0 column 0 position -1 out of range"},
		{
			a: &Alignment{
				Sequences:   []Seq{{ID: "t", Length: 100}, {ID: "q", Length: 10}},
				Coordinates: [][]int{{0, 20}, {0, 20}},
			},
			want: "align: invalid coordinates: row 1 column 1 position 20 out of range",
		},
		{
			a: &Alignment{
				Sequences:   []Seq{{ID: "t"}},
				Coordinates: [][]int{{0, 20}, {0, 20}},
			},
			want: "align: invalid coordinates: 2 rows for 1 sequences",
		},
	} {
		err := test.a.Validate()
		c.Check(errors.Is(err, ErrInvalid), check.Equals, true)
		c.Check(err, check.ErrorMatches, test.want)
	}

	// Three way alignments are valid but cannot be counted.
	a := &Alignment{Coordinates: [][]int{{0, 10, 20}, {0, 10, 10}, {30, 20, 10}}}
	c.Check(a.Validate(), check.Equals, nil)
	_, err := a.Counts(nil)
	c.Check(errors.Is(err, ErrNotPairwise), check.Equals, true)
	rows, cols := a.Shape()
	c.Check(rows, check.Equals, 3)
	c.Check(cols, check.Equals, 20)
}

func (s *S) TestLetterErrors(c *check.C) {
	a := pairwise(
		Seq{ID: "t", Length: 8, Letters: Bytes("ACGTNCGT")},
		Seq{ID: "q", Length: 8, Letters: Bytes("ACGTACGT")},
		[][]int{{0, 8}, {0, 8}},
	)
	_, err := a.Counts(NucleotideTable())
	c.Check(err, check.ErrorMatches, `align: substitution matrix has no score for 'N'/'A'`)

	_, err = a.WithLetters(1, Bytes("ACG"))
	c.Check(err, check.ErrorMatches, `align: 3 letters for sequence "q" of length 8`)

	b := *a
	b.Sequences = []Seq{a.Sequences[0], {ID: "q", Length: 8, Letters: Bytes("ACGTACGTA")}}
	_, err = b.Counts(nil)
	c.Check(err, check.ErrorMatches, `align: 9 letters for sequence "q" of length 8`)

	b.Sequences = []Seq{{ID: "t", Length: 8, Letters: Bytes("ACG")}, {ID: "q", Length: 8}}
	_, err = b.Counts(NucleotideTable())
	c.Check(err, check.ErrorMatches, `align: 3 letters for sequence "t" of length 8`)

	b.Sequences = []Seq{
		{ID: "t", Length: 100, Letters: Partial{Offset: 4, Data: []byte("ACGT"), Length: 100}},
		a.Sequences[1],
	}
	_, err = b.Counts(nil)
	c.Check(errors.Is(err, ErrUndefined), check.Equals, true)
}

func (s *S) TestLetters(c *check.C) {
	p := Partial{Offset: 10, Data: []byte("ACGTN"), Length: 100}
	c.Check(p.Len(), check.Equals, 100)
	got, err := p.Slice(11, 14)
	c.Check(err, check.Equals, nil)
	c.Check(string(got), check.Equals, "CGT")
	_, err = p.Slice(9, 12)
	c.Check(errors.Is(err, ErrUndefined), check.Equals, true)
	_, err = p.Slice(14, 16)
	c.Check(errors.Is(err, ErrUndefined), check.Equals, true)

	b := Bytes("ACGT")
	got, err = b.Slice(0, 4)
	c.Check(err, check.Equals, nil)
	c.Check(string(got), check.Equals, "ACGT")
	_, err = b.Slice(2, 5)
	c.Check(errors.Is(err, ErrUndefined), check.Equals, true)

	c.Check(string(ReverseComplement(nil, []byte("AACGTtgcaNRy"))), check.Equals, "rYNtgcaACGTT")
	c.Check(bytes.Equal(ReverseComplement(nil, nil), nil), check.Equals, true)
}

func (s *S) TestTable(c *check.C) {
	t := NucleotideTable()
	for _, test := range []struct {
		a, b byte
		want float64
	}{
		{'A', 'A', 1},
		{'a', 'A', 0},
		{'A', 'a', 0},
		{'a', 'a', 0},
		{'A', 'C', -1},
		{'g', 'T', -1},
	} {
		got, ok := t.Score(test.a, test.b)
		c.Check(ok, check.Equals, true)
		c.Check(got, check.Equals, test.want, check.Commentf("%c/%c", test.a, test.b))
	}
	_, ok := t.Score('N', 'A')
	c.Check(ok, check.Equals, false)

	_, err := NewTable("AC", [][]float64{{1, 2}, {3, 1}})
	c.Check(err, check.ErrorMatches, "align: score matrix not symmetric at 'C'/'A'")
	_, err = NewTable("AA", [][]float64{{1, 0}, {0, 1}})
	c.Check(err, check.ErrorMatches, "align: duplicate letter 'A' in alphabet")
	_, err = NewTable("AC", [][]float64{{1, 0}})
	c.Check(err, check.ErrorMatches, "align: 1 score rows for 2 letters")
}

func (s *S) TestCDS(c *check.C) {
	start, end, ok := (&CDS{Text: "10..1000"}).Range()
	c.Check(ok, check.Equals, true)
	c.Check(start, check.Equals, 10)
	c.Check(end, check.Equals, 1000)
	_, _, ok = (&CDS{Text: "join(1..3,5..9)"}).Range()
	c.Check(ok, check.Equals, false)
	_, _, ok = (*CDS)(nil).Range()
	c.Check(ok, check.Equals, false)
}
