// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"errors"
	"fmt"
)

// ErrNotPairwise is returned when counts are requested for an alignment
// that does not have exactly two rows.
var ErrNotPairwise = errors.New("align: counts require a pairwise alignment")

// Events holds gap open and extend event counts.
type Events struct {
	Open   int
	Extend int
}

// Total returns the number of gap positions.
func (e Events) Total() int { return e.Open + e.Extend }

// Gaps holds gap events split into insertions, which are query letters
// aligned to no target letter, and deletions, which are target letters
// aligned to no query letter.
type Gaps struct {
	Insertions Events
	Deletions  Events
}

// Total returns the number of gap positions.
func (g Gaps) Total() int { return g.Insertions.Total() + g.Deletions.Total() }

// Counts holds the statistics of a pairwise alignment.
type Counts struct {
	// Aligned is the number of aligned letter pairs.
	Aligned int

	// Identities and Mismatches are only counted when
	// letters are known for both sequences. Letters are
	// compared without regard to case.
	Compared   bool
	Identities int
	Mismatches int

	// Score and Positives are only counted when letters
	// are known and a substitution matrix is provided.
	// Positives is the number of aligned pairs with a
	// positive score.
	Scored    bool
	Score     float64
	Positives int

	// Left and Right hold gaps before the first and after
	// the last aligned letter pair. Internal holds all
	// other gaps.
	Left, Internal, Right Gaps
}

// Gaps returns the total number of gap positions.
func (c Counts) Gaps() int { return c.Left.Total() + c.Internal.Total() + c.Right.Total() }

// Insertions returns the total number of insertion positions.
func (c Counts) Insertions() int {
	return c.Left.Insertions.Total() + c.Internal.Insertions.Total() + c.Right.Insertions.Total()
}

// Deletions returns the total number of deletion positions.
func (c Counts) Deletions() int {
	return c.Left.Deletions.Total() + c.Internal.Deletions.Total() + c.Right.Deletions.Total()
}

type segKind int8

const (
	aligned segKind = iota
	insertion
	deletion
)

// segment is a classified part of a run between two columns.
type segment struct {
	kind segKind
	n    int

	// t and q are the target and query start
	// positions of aligned segments.
	t, q int
}

// segments classifies the runs of a pairwise alignment. A run in which
// both rows advance by different amounts is split into an aligned segment
// of the smaller advance followed by a gap of the remainder.
func (a *Alignment) segments() ([]segment, error) {
	target, query := a.Coordinates[0], a.Coordinates[1]
	var segs []segment
	for j := 1; j < len(target); j++ {
		dt := target[j] - target[j-1]
		dq := abs(query[j] - query[j-1])
		switch {
		case dt < 0:
			return nil, fmt.Errorf("%w: target decreases at column %d", ErrInvalid, j)
		case dt == 0 && dq == 0:
			return nil, fmt.Errorf("%w: no row advances between columns %d and %d", ErrInvalid, j-1, j)
		case dq == 0:
			segs = append(segs, segment{kind: deletion, n: dt})
		case dt == 0:
			segs = append(segs, segment{kind: insertion, n: dq})
		default:
			n := min(dt, dq)
			segs = append(segs, segment{kind: aligned, n: n, t: target[j-1], q: query[j-1]})
			switch {
			case dt > n:
				segs = append(segs, segment{kind: deletion, n: dt - n})
			case dq > n:
				segs = append(segs, segment{kind: insertion, n: dq - n})
			}
		}
	}
	return segs, nil
}

// Counts returns the identity, substitution and gap statistics of a
// pairwise alignment. Identities and mismatches are counted when letters
// are known for both sequences, and substitution scores are summed when m
// is not nil. Query letters of a reverse strand alignment are reverse
// complemented before comparison.
func (a *Alignment) Counts(m Matrix) (Counts, error) {
	if a.Rows() != 2 {
		return Counts{}, fmt.Errorf("%w: %d rows", ErrNotPairwise, a.Rows())
	}
	err := a.Validate()
	if err != nil {
		return Counts{}, err
	}
	segs, err := a.segments()
	if err != nil {
		return Counts{}, err
	}

	for _, s := range a.Sequences {
		if s.Letters != nil && s.Length > 0 && s.Letters.Len() != s.Length {
			return Counts{}, fmt.Errorf("align: %d letters for sequence %q of length %d", s.Letters.Len(), s.ID, s.Length)
		}
	}
	var c Counts
	var tl, ql Letters
	if len(a.Sequences) == 2 {
		tl, ql = a.Sequences[0].Letters, a.Sequences[1].Letters
	}
	if tl != nil && ql != nil {
		c.Compared = true
		c.Scored = m != nil
	}
	reverse := a.Strand(1) == Reverse

	first, last := -1, -1
	for i, s := range segs {
		if s.kind == aligned {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	var buf []byte
	for i := 0; i < len(segs); i++ {
		s := segs[i]
		if s.kind == aligned {
			c.Aligned += s.n
			if !c.Compared {
				continue
			}
			t, err := tl.Slice(s.t, s.t+s.n)
			if err != nil {
				return Counts{}, fmt.Errorf("align: target %q: %w", a.Sequences[0].ID, err)
			}
			var q []byte
			if reverse {
				q, err = ql.Slice(s.q-s.n, s.q)
				if err == nil {
					buf = ReverseComplement(buf[:0], q)
					q = buf
				}
			} else {
				q, err = ql.Slice(s.q, s.q+s.n)
			}
			if err != nil {
				return Counts{}, fmt.Errorf("align: query %q: %w", a.Sequences[1].ID, err)
			}
			err = c.compare(t, q, m)
			if err != nil {
				return Counts{}, err
			}
			continue
		}

		// Merge consecutive gap segments of the same kind into a run.
		n := s.n
		for i+1 < len(segs) && segs[i+1].kind == s.kind {
			i++
			n += segs[i].n
		}
		var g *Gaps
		switch {
		case first < 0 || i < first:
			g = &c.Left
		case i > last:
			g = &c.Right
		default:
			g = &c.Internal
		}
		e := &g.Deletions
		if s.kind == insertion {
			e = &g.Insertions
		}
		e.Open++
		e.Extend += n - 1
	}
	return c, nil
}

func (c *Counts) compare(t, q []byte, m Matrix) error {
	for k := range t {
		a, b := t[k], q[k]
		if a|0x20 == b|0x20 && isLetter(a) || a == b {
			c.Identities++
		} else {
			c.Mismatches++
		}
		if m == nil {
			continue
		}
		s, ok := m.Score(a, b)
		if !ok {
			return fmt.Errorf("align: substitution matrix has no score for %q/%q", a, b)
		}
		c.Score += s
		if s > 0 {
			c.Positives++
		}
	}
	return nil
}

func isLetter(b byte) bool {
	b |= 0x20
	return 'a' <= b && b <= 'z'
}
