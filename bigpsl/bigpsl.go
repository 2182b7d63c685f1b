// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bigpsl implements reading and writing of bigPsl alignment
// containers and their BED12+13 text form.
package bigpsl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/bbi/align"
)

// Declaration is the autoSql declaration of bigPsl containers. A container
// is only read as bigPsl if its declaration is identical to Declaration.
const Declaration = `table bigPsl
"bigPsl pairwise alignment"
    (
    string chrom;       "Reference sequence chromosome or scaffold"
    uint   chromStart;  "Start position in chromosome"
    uint   chromEnd;    "End position in chromosome"
    string name;        "Name or ID of item, ideally both human readable and unique"
    uint score;         "Score (0-1000)"
    char[1] strand;     "+ or - indicates whether the query aligns to the + or - strand on the reference"
    uint thickStart;    "Start of where display should be thick (start codon)"
    uint thickEnd;      "End of where display should be thick (stop codon)"
    uint reserved;       "RGB value (use R,G,B string in input file)"
    int blockCount;     "Number of blocks"
    int[blockCount] blockSizes; "Comma separated list of block sizes"
    int[blockCount] chromStarts; "Start positions relative to chromStart"

    uint    oChromStart;"Start position in other chromosome"
    uint    oChromEnd;  "End position in other chromosome"
    char[1] oStrand;    "+ or -, - means that psl was reversed into BED-compatible coordinates"
    uint    oChromSize; "Size of other chromosome."
    int[blockCount] oChromStarts; "Start positions relative to oChromStart or from oChromStart+oChromSize depending on strand"

    lstring  oSequence;  "Sequence on other chrom (or edit list, or empty)"
    string   oCDS;       "CDS in NCBI format"

    uint    chromSize;"Size of target chromosome"

    uint match;        "Number of bases matched."
    uint misMatch; " Number of bases that don't match "
    uint repMatch; " Number of bases that match but are part of repeats "
    uint nCount;   " Number of 'N' bases "
    uint seqType;    "0=empty, 1=nucleotide, 2=amino_acid"
    )
`

// NumFields is the number of fields in a bigPsl record.
const NumFields = 25

// DefinedFields is the number of standard BED fields in a bigPsl record.
const DefinedFields = 12

const (
	chromField = iota
	chromStartField
	chromEndField
	nameField
	scoreField
	strandField
	thickStartField
	thickEndField
	reservedField
	blockCountField
	blockSizesField
	chromStartsField
	oChromStartField
	oChromEndField
	oStrandField
	oChromSizeField
	oChromStartsField
	oSequenceField
	oCDSField
	chromSizeField
	matchField
	misMatchField
	repMatchField
	nCountField
	seqTypeField
)

var (
	// ErrNegativeGap is returned when a record has blocks that
	// overlap or are out of order in either sequence.
	ErrNegativeGap = errors.New("bigpsl: negative gap between blocks")

	// ErrUnequalAdvance is returned when an alignment to be
	// encoded has a run in which both sequences advance by
	// different non-zero amounts.
	ErrUnequalAdvance = errors.New("bigpsl: unequal advance in aligned run")

	ErrFieldCount = errors.New("bigpsl: wrong number of fields")
)

// DecodeError is an error decoding a record field.
type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bigpsl: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type decoder struct {
	fields []string
	err    error
}

func (d *decoder) int(i int) int {
	if d.err != nil {
		return 0
	}
	v, err := strconv.Atoi(d.fields[i])
	if err == nil && v < 0 {
		err = errors.New("negative value")
	}
	if err != nil {
		d.err = &DecodeError{Field: fieldName(i), Value: d.fields[i], Err: err}
	}
	return v
}

func (d *decoder) ints(i, n int) []int {
	if d.err != nil {
		return nil
	}
	s := strings.TrimSuffix(d.fields[i], ",")
	if s == "" {
		if n != 0 {
			d.err = &DecodeError{Field: fieldName(i), Value: d.fields[i], Err: fmt.Errorf("want %d values", n)}
		}
		return nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		d.err = &DecodeError{Field: fieldName(i), Value: d.fields[i], Err: fmt.Errorf("have %d values, want %d", len(parts), n)}
		return nil
	}
	v := make([]int, n)
	for j, p := range parts {
		var err error
		v[j], err = strconv.Atoi(p)
		if err == nil && v[j] < 0 {
			err = errors.New("negative value")
		}
		if err != nil {
			d.err = &DecodeError{Field: fieldName(i), Value: d.fields[i], Err: err}
			return nil
		}
	}
	return v
}

func (d *decoder) strand(i int) align.Strand {
	if d.err != nil {
		return 0
	}
	switch d.fields[i] {
	case "+", "":
		return align.Forward
	case "-":
		return align.Reverse
	}
	d.err = &DecodeError{Field: fieldName(i), Value: d.fields[i], Err: errors.New("not + or -")}
	return 0
}

var fieldNames = [NumFields]string{
	"chrom", "chromStart", "chromEnd", "name", "score", "strand",
	"thickStart", "thickEnd", "reserved", "blockCount", "blockSizes", "chromStarts",
	"oChromStart", "oChromEnd", "oStrand", "oChromSize", "oChromStarts",
	"oSequence", "oCDS", "chromSize", "match", "misMatch", "repMatch", "nCount", "seqType",
}

func fieldName(i int) string { return fieldNames[i] }
