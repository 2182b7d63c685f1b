// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align provides a coordinate model of sequence alignments and
// computes identity, substitution and gap statistics from it.
//
// An alignment over k sequences is described by a k×n matrix of
// coordinates. Each column is a breakpoint and each pair of adjacent
// columns describes a run over which every sequence advances linearly.
// A row that does not advance over a run holds a gap. The first row is
// the target and must not decrease. A query row increases when the query
// is aligned on the forward strand and decreases when it is aligned on
// the reverse strand, in which case the coordinates are forward strand
// positions.
package align

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned for coordinates that do not describe an alignment.
var ErrInvalid = errors.New("align: invalid coordinates")

// Seq is a sequence participating in an alignment.
type Seq struct {
	ID     string
	Length int

	// Letters holds the sequence letters if
	// they are known.
	Letters Letters
}

// Strand is the direction in which a sequence is aligned.
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

func (s Strand) String() string {
	if s == Reverse {
		return "-"
	}
	return "+"
}

// Alignment is an alignment of sequences described by breakpoint
// coordinates.
type Alignment struct {
	// Sequences holds the aligned sequences. The
	// first sequence is the target.
	Sequences []Seq

	// Coordinates holds one row per sequence. All
	// rows have the same length.
	Coordinates [][]int

	Annotations
}

// Annotations holds values carried with an alignment record. They are
// not interpreted by the coordinate model.
type Annotations struct {
	Matches    int
	Mismatches int
	RepMatches int
	NCount     int

	Score      int
	ThickStart int
	ThickEnd   int
	Color      string

	// SeqType is the sequence type of the query
	// payload: 0 for none, 1 for nucleic acid and
	// 2 for amino acid.
	SeqType int

	// Reversed records that the source alignment was
	// reverse complemented into forward target
	// coordinates.
	Reversed bool

	// CDS and Payload are optional format
	// specific extras.
	CDS     *CDS
	Payload *Payload
}

// CDS is a coding region annotation in NCBI "start..end" notation.
type CDS struct {
	Text string
}

// Range returns the one-based inclusive coding region held by the CDS.
// It returns false if the CDS text is not a simple range.
func (c *CDS) Range() (start, end int, ok bool) {
	if c == nil {
		return 0, 0, false
	}
	n, err := fmt.Sscanf(c.Text, "%d..%d", &start, &end)
	if err != nil || n != 2 || start > end {
		return 0, 0, false
	}
	return start, end, true
}

// Payload is the raw letters of the query sequence carried with an
// alignment record.
type Payload struct {
	Letters string
}

// Rows returns the number of sequences in the alignment.
func (a *Alignment) Rows() int { return len(a.Coordinates) }

// Columns returns the number of breakpoint columns in the alignment.
func (a *Alignment) Columns() int {
	if len(a.Coordinates) == 0 {
		return 0
	}
	return len(a.Coordinates[0])
}

// Strand returns the strand of the given row, derived from its first and
// last coordinates.
func (a *Alignment) Strand(row int) Strand {
	r := a.Coordinates[row]
	if len(r) != 0 && r[len(r)-1] < r[0] {
		return Reverse
	}
	return Forward
}

// Bounds returns the lowest and highest position covered by the given row.
func (a *Alignment) Bounds(row int) (start, end int) {
	r := a.Coordinates[row]
	if len(r) == 0 {
		return 0, 0
	}
	start, end = r[0], r[len(r)-1]
	if end < start {
		start, end = end, start
	}
	return start, end
}

// Shape returns the number of rows and the number of alignment columns,
// where the number of alignment columns is the sum over all runs of the
// largest advance of any row.
func (a *Alignment) Shape() (rows, cols int) {
	rows = a.Rows()
	for j := 1; j < a.Columns(); j++ {
		var m int
		for _, r := range a.Coordinates {
			m = max(m, abs(r[j]-r[j-1]))
		}
		cols += m
	}
	return rows, cols
}

// Validate returns an error if the alignment coordinates are not valid.
// Coordinates are valid when there are at least two rows of equal,
// non-zero length matching the number of sequences, no coordinate is
// negative or beyond the length of its sequence, the target row does not
// decrease, each query row is monotonic, and no run leaves every row
// unchanged.
func (a *Alignment) Validate() error {
	rows, cols := a.Rows(), a.Columns()
	switch {
	case rows < 2:
		return fmt.Errorf("%w: %d rows", ErrInvalid, rows)
	case cols == 0:
		return fmt.Errorf("%w: no columns", ErrInvalid)
	case len(a.Sequences) != 0 && len(a.Sequences) != rows:
		return fmt.Errorf("%w: %d rows for %d sequences", ErrInvalid, rows, len(a.Sequences))
	}
	for i, r := range a.Coordinates {
		if len(r) != cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalid, i, len(r), cols)
		}
		var length int
		if len(a.Sequences) != 0 {
			length = a.Sequences[i].Length
		}
		dir := 0
		for j, v := range r {
			if v < 0 || (length > 0 && v > length) {
				return fmt.Errorf("%w: row %d column %d position %d out of range", ErrInvalid, i, j, v)
			}
			if j == 0 {
				continue
			}
			d := sign(v - r[j-1])
			switch {
			case d == 0:
			case i == 0 && d < 0:
				return fmt.Errorf("%w: target decreases at column %d", ErrInvalid, j)
			case dir == 0:
				dir = d
			case d != dir:
				return fmt.Errorf("%w: row %d changes direction at column %d", ErrInvalid, i, j)
			}
		}
	}
	for j := 1; j < cols; j++ {
		still := true
		for _, r := range a.Coordinates {
			if r[j] != r[j-1] {
				still = false
				break
			}
		}
		if still {
			return fmt.Errorf("%w: no row advances between columns %d and %d", ErrInvalid, j-1, j)
		}
	}
	return nil
}

// WithLetters returns a copy of the alignment with the letters of the
// given row replaced by l. The coordinates and annotations are shared
// with the receiver.
func (a *Alignment) WithLetters(row int, l Letters) (*Alignment, error) {
	if row < 0 || row >= len(a.Sequences) {
		return nil, fmt.Errorf("align: no sequence for row %d", row)
	}
	s := a.Sequences[row]
	if l != nil && s.Length > 0 && l.Len() != s.Length {
		return nil, fmt.Errorf("align: %d letters for sequence %q of length %d", l.Len(), s.ID, s.Length)
	}
	b := *a
	b.Sequences = append([]Seq(nil), a.Sequences...)
	b.Sequences[row].Letters = l
	return &b, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
