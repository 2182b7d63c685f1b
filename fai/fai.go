// Copyright ©2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fai implements FASTA sequence index handling, providing random
// access to the letters of alignment target and query sequences.
package fai

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

const (
	nameField = iota
	lengthField
	startField
	basesField
	bytesField
)

var (
	ErrNonUnique = errors.New("fai: non-unique record name")
	ErrNoSeq     = errors.New("fai: no sequence")
	ErrRange     = errors.New("fai: index out of range")
)

// Index is an FAI index.
type Index map[string]Record

// NewIndex returns a new Index constructed from the FASTA sequence
// in the provided io.Reader.
func NewIndex(fasta io.Reader) (Index, error) {
	br := bufio.NewReader(fasta)
	idx := make(Index)
	var (
		rec    Record
		offset int64
		short  bool
	)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if err != io.EOF {
				return nil, err
			}
			break
		}
		b := bytes.TrimSpace(line)
		switch {
		case len(b) == 0:
		case b[0] == '>':
			if rec.Name != "" {
				idx[rec.Name] = rec
			}
			rec = Record{}
			name := bytes.Fields(b[1:])
			if len(name) == 0 {
				return nil, fmt.Errorf("fai: missing sequence name at %d", offset)
			}
			rec.Name = string(name[0])
			if _, exists := idx[rec.Name]; exists {
				return nil, fmt.Errorf("%w: %s at %d", ErrNonUnique, rec.Name, offset)
			}
			rec.Start = offset + int64(len(line))
			short = false
		default:
			if short {
				return nil, fmt.Errorf("fai: unexpected short line before offset %d", offset)
			}
			switch {
			case rec.BasesPerLine == 0:
				rec.BasesPerLine = len(b)
				rec.BytesPerLine = len(line)
			case len(b) > rec.BasesPerLine || len(line) > rec.BytesPerLine:
				return nil, fmt.Errorf("fai: unexpected long line at offset %d", offset)
			case len(b) < rec.BasesPerLine:
				short = true
			}
			rec.Length += len(b)
		}
		offset += int64(len(line))
		if err == io.EOF {
			break
		}
	}
	if rec.Name != "" {
		idx[rec.Name] = rec
	}
	return idx, nil
}

// Record is a single FAI index record.
type Record struct {
	// Name is the name of the sequence.
	Name string
	// Length is the length of the sequence.
	Length int
	// Start is the starting seek offset of
	// the sequence.
	Start int64
	// BasesPerLine is the number of sequences
	// bases per line.
	BasesPerLine int
	// BytesPerLine is the number of bytes
	// used to represent each line.
	BytesPerLine int
}

// Position returns the seek offset of the sequence position p for the
// given Record.
func (r Record) Position(p int) (int64, error) {
	if p < 0 || r.Length <= p {
		return 0, ErrRange
	}
	return r.position(p), nil
}

func (r Record) position(p int) int64 {
	return r.Start + int64(p/r.BasesPerLine*r.BytesPerLine+p%r.BasesPerLine)
}

// ReadFrom returns an Index from the stream provided by an io.Reader or an
// error. If the input contains non-unique records the error is a
// csv.ParseError wrapping ErrNonUnique.
func ReadFrom(r io.Reader) (Index, error) {
	tr := csv.NewReader(r)
	tr.Comma = '\t'
	tr.FieldsPerRecord = 5
	tr.ReuseRecord = true
	idx := make(Index)
	for line := 1; ; line++ {
		rec, err := tr.Read()
		if err == io.EOF {
			return idx, nil
		}
		if err != nil {
			return nil, err
		}
		name := rec[nameField]
		if _, exists := idx[name]; exists {
			return nil, parseError(line, nameField, ErrNonUnique)
		}
		var ints [5]int64
		for _, f := range []int{lengthField, startField, basesField, bytesField} {
			ints[f], err = strconv.ParseInt(rec[f], 10, 64)
			if err == nil && ints[f] < 0 {
				err = ErrRange
			}
			if err != nil {
				return nil, parseError(line, f, err)
			}
		}
		if ints[basesField] == 0 && ints[lengthField] != 0 {
			return nil, parseError(line, basesField, ErrRange)
		}
		idx[name] = Record{
			Name:         name,
			Length:       int(ints[lengthField]),
			Start:        ints[startField],
			BasesPerLine: int(ints[basesField]),
			BytesPerLine: int(ints[bytesField]),
		}
	}
}

func parseError(line, column int, err error) *csv.ParseError {
	return &csv.ParseError{
		StartLine: line,
		Line:      line,
		Column:    column + 1,
		Err:       err,
	}
}

// WriteTo writes the the given index to w in order of ascending start position.
func WriteTo(w io.Writer, idx Index) error {
	recs := make([]Record, 0, len(idx))
	for _, r := range idx {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })
	bw := bufio.NewWriter(w)
	for _, r := range recs {
		fmt.Fprintf(bw, "%s\t%d\t%d\t%d\t%d\n", r.Name, r.Length, r.Start, r.BasesPerLine, r.BytesPerLine)
	}
	return bw.Flush()
}
