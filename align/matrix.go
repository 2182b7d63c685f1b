// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import "fmt"

// Matrix is a substitution score table.
type Matrix interface {
	// Score returns the score for aligning a with b.
	// It returns false if the pair is not in the table.
	Score(a, b byte) (float64, bool)
}

// Table is a symmetric substitution matrix over an alphabet.
type Table struct {
	alphabet string
	index    [256]int16
	scores   [][]float64
}

// NewTable returns a Table over the letters of alphabet with the given
// scores. The scores must be a square symmetric matrix with one row per
// letter of the alphabet.
func NewTable(alphabet string, scores [][]float64) (*Table, error) {
	t := &Table{alphabet: alphabet, scores: scores}
	for i := range t.index {
		t.index[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		if t.index[alphabet[i]] >= 0 {
			return nil, fmt.Errorf("align: duplicate letter %q in alphabet", alphabet[i])
		}
		t.index[alphabet[i]] = int16(i)
	}
	if len(scores) != len(alphabet) {
		return nil, fmt.Errorf("align: %d score rows for %d letters", len(scores), len(alphabet))
	}
	for i, r := range scores {
		if len(r) != len(alphabet) {
			return nil, fmt.Errorf("align: score row %d has %d columns for %d letters", i, len(r), len(alphabet))
		}
		for j := range r[:i] {
			if r[j] != scores[j][i] {
				return nil, fmt.Errorf("align: score matrix not symmetric at %q/%q", alphabet[i], alphabet[j])
			}
		}
	}
	return t, nil
}

// Alphabet returns the letters scored by the table.
func (t *Table) Alphabet() string { return t.alphabet }

// Score returns the score for aligning a with b.
func (t *Table) Score(a, b byte) (float64, bool) {
	i, j := t.index[a], t.index[b]
	if i < 0 || j < 0 {
		return 0, false
	}
	return t.scores[i][j], true
}

// NucleotideTable returns a nucleotide table over "ACGTacgt" that scores
// identical upper case letters 1, identical letters where either is soft
// masked 0, and all other pairs -1. Counting positive scores with this
// table reproduces the matches of a PSL record and the difference between
// identities and positives reproduces its repeat matches.
func NucleotideTable() *Table {
	const alphabet = "ACGTacgt"
	scores := make([][]float64, len(alphabet))
	for i := range scores {
		scores[i] = make([]float64, len(alphabet))
		for j := range scores[i] {
			a, b := alphabet[i], alphabet[j]
			switch {
			case a == b && a < 'a':
				scores[i][j] = 1
			case a|0x20 == b|0x20:
				scores[i][j] = 0
			default:
				scores[i][j] = -1
			}
		}
	}
	t, err := NewTable(alphabet, scores)
	if err != nil {
		panic(err)
	}
	return t
}
