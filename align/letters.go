// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package align

import (
	"errors"
	"fmt"
)

// ErrUndefined is returned when letters are requested for a region of a
// sequence that is not known.
var ErrUndefined = errors.New("align: letters undefined")

// Letters is a source of sequence letters.
type Letters interface {
	// Len returns the length of the sequence.
	Len() int

	// Slice returns the letters in the half-open
	// interval [start, end). The returned slice must
	// not be modified.
	Slice(start, end int) ([]byte, error)
}

// Bytes is a fully known sequence.
type Bytes []byte

// Len returns the length of the sequence.
func (b Bytes) Len() int { return len(b) }

// Slice returns the letters in [start, end).
func (b Bytes) Slice(start, end int) ([]byte, error) {
	if start < 0 || end < start || end > len(b) {
		return nil, fmt.Errorf("%w: [%d,%d) outside [0,%d)", ErrUndefined, start, end, len(b))
	}
	return b[start:end], nil
}

// Partial is a sequence of which only the letters in a window are known.
type Partial struct {
	// Offset is the position of the first
	// letter of Data in the sequence.
	Offset int
	Data   []byte

	// Length is the total length of the sequence.
	Length int
}

// Len returns the length of the sequence.
func (p Partial) Len() int { return p.Length }

// Slice returns the letters in [start, end). It returns an error wrapping
// ErrUndefined if any part of the interval lies outside the known window.
func (p Partial) Slice(start, end int) ([]byte, error) {
	if start < p.Offset || end < start || end > p.Offset+len(p.Data) || end > p.Length {
		return nil, fmt.Errorf("%w: [%d,%d) outside [%d,%d)", ErrUndefined, start, end, p.Offset, p.Offset+len(p.Data))
	}
	return p.Data[start-p.Offset : end-p.Offset], nil
}

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}
	for _, p := range []string{"AT", "CG", "RY", "SS", "WW", "KM", "BV", "DH", "NN"} {
		a, b := p[0], p[1]
		complement[a], complement[b] = b, a
		complement[a|0x20], complement[b|0x20] = b|0x20, a|0x20
	}
	complement['U'], complement['u'] = 'A', 'a'
}

// ReverseComplement appends the reverse complement of the nucleotide
// sequence s to dst. Case is preserved and letters without a complement
// are copied unchanged.
func ReverseComplement(dst, s []byte) []byte {
	for i := len(s) - 1; i >= 0; i-- {
		dst = append(dst, complement[s[i]])
	}
	return dst
}
