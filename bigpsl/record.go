// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigpsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/bbi"
	"github.com/biogo/bbi/align"
)

// Decode returns the alignment described by the fields of a bigPsl record.
//
// Each block contributes a column at its start and at its end. Between
// blocks, a gap in the target is recorded before a gap in the query. For
// reverse strand records the query row holds forward strand positions
// and so decreases.
func Decode(fields []string) (*align.Alignment, error) {
	if len(fields) != NumFields {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrFieldCount, len(fields), NumFields)
	}
	d := decoder{fields: fields}
	tStart := d.int(chromStartField)
	tEnd := d.int(chromEndField)
	n := d.int(blockCountField)
	sizes := d.ints(blockSizesField, n)
	tStarts := d.ints(chromStartsField, n)
	qStart := d.int(oChromStartField)
	qEnd := d.int(oChromEndField)
	qSize := d.int(oChromSizeField)
	qStarts := d.ints(oChromStartsField, n)
	strand := d.strand(strandField)
	reversed := d.strand(oStrandField) == align.Reverse
	a := &align.Alignment{
		Sequences: []align.Seq{
			{ID: fields[chromField], Length: d.int(chromSizeField)},
			{ID: fields[nameField], Length: qSize},
		},
		Annotations: align.Annotations{
			Score:      d.int(scoreField),
			ThickStart: d.int(thickStartField),
			ThickEnd:   d.int(thickEndField),
			Color:      fields[reservedField],
			Matches:    d.int(matchField),
			Mismatches: d.int(misMatchField),
			RepMatches: d.int(repMatchField),
			NCount:     d.int(nCountField),
			SeqType:    d.int(seqTypeField),
			Reversed:   reversed,
		},
	}
	if d.err != nil {
		return nil, d.err
	}
	if n == 0 {
		return nil, &DecodeError{Field: "blockCount", Value: fields[blockCountField], Err: fmt.Errorf("no blocks")}
	}
	if fields[oSequenceField] != "" {
		a.Payload = &align.Payload{Letters: fields[oSequenceField]}
	}
	if fields[oCDSField] != "" {
		a.CDS = &align.CDS{Text: fields[oCDSField]}
	}

	target := make([]int, 0, 2*n)
	query := make([]int, 0, 2*n)
	var t1, q1 int
	for i := 0; i < n; i++ {
		t0 := tStart + tStarts[i]
		var q0 int
		if strand == align.Forward {
			q0 = qStart + qStarts[i]
		} else {
			q0 = qSize - (qSize - qEnd + qStarts[i])
		}
		if i == 0 {
			target = append(target, t0)
			query = append(query, q0)
		} else {
			tgap := t0 - t1
			qgap := q0 - q1
			if strand == align.Reverse {
				qgap = -qgap
			}
			if tgap < 0 || qgap < 0 {
				return nil, fmt.Errorf("%w: block %d of %s at %s:%d", ErrNegativeGap, i, fields[nameField], fields[chromField], t0)
			}
			if tgap > 0 && qgap > 0 {
				target = append(target, t0)
				query = append(query, q1)
			}
			if tgap > 0 || qgap > 0 {
				target = append(target, t0)
				query = append(query, q0)
			} else {
				// Abutting blocks extend the previous run.
				target = target[:len(target)-1]
				query = query[:len(query)-1]
			}
		}
		if sizes[i] == 0 {
			return nil, &DecodeError{Field: "blockSizes", Value: fields[blockSizesField], Err: fmt.Errorf("zero size block %d", i)}
		}
		t1 = t0 + sizes[i]
		q1 = q0 + int(strand)*sizes[i]
		target = append(target, t1)
		query = append(query, q1)
	}
	if t1 != tEnd || target[0] != tStart {
		return nil, fmt.Errorf("bigpsl: blocks of %s span %d-%d, record spans %d-%d", fields[nameField], target[0], t1, tStart, tEnd)
	}
	lo, hi := query[0], q1
	if strand == align.Reverse {
		lo, hi = hi, lo
	}
	if lo != qStart || hi != qEnd {
		return nil, fmt.Errorf("bigpsl: query blocks of %s span %d-%d, record spans %d-%d", fields[nameField], lo, hi, qStart, qEnd)
	}

	a.Coordinates = [][]int{target, query}
	err := a.Validate()
	if err != nil {
		return nil, fmt.Errorf("bigpsl: record %s: %w", fields[nameField], err)
	}
	return a, nil
}

// Encode returns the fields of the bigPsl record describing a. Blocks are
// the maximal runs of columns in which both sequences advance by the same
// non-zero amount. The query strand is derived from the direction of the
// query row.
func Encode(a *align.Alignment) ([]string, error) {
	if a.Rows() != 2 || len(a.Sequences) != 2 {
		return nil, fmt.Errorf("bigpsl: cannot encode alignment with %d rows and %d sequences", a.Rows(), len(a.Sequences))
	}
	err := a.Validate()
	if err != nil {
		return nil, err
	}
	target, query := a.Coordinates[0], a.Coordinates[1]
	strand := a.Strand(1)
	tStart, tEnd := a.Bounds(0)
	qStart, qEnd := a.Bounds(1)
	qSize := a.Sequences[1].Length
	if qSize == 0 {
		return nil, fmt.Errorf("bigpsl: query %s has no length", a.Sequences[1].ID)
	}

	var sizes, tStarts, qStarts []int
	for j := 1; j < len(target); j++ {
		dt := target[j] - target[j-1]
		dq := query[j] - query[j-1]
		if strand == align.Reverse {
			dq = -dq
		}
		switch {
		case dt == 0 || dq == 0:
			continue
		case dt != dq:
			return nil, fmt.Errorf("%w: columns %d-%d advance %d and %d", ErrUnequalAdvance, j-1, j, dt, dq)
		}
		t0, q0 := target[j-1], query[j-1]
		var qRel int
		if strand == align.Forward {
			qRel = q0 - qStart
		} else {
			qRel = qEnd - q0
		}
		// Extend the previous block if this run abuts it in both sequences.
		if k := len(sizes) - 1; k >= 0 && tStart+tStarts[k]+sizes[k] == t0 && qStarts[k]+sizes[k] == qRel {
			sizes[k] += dt
			continue
		}
		sizes = append(sizes, dt)
		tStarts = append(tStarts, t0-tStart)
		qStarts = append(qStarts, qRel)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("bigpsl: alignment of %s has no aligned blocks", a.Sequences[1].ID)
	}

	color := a.Color
	if color == "" {
		color = "0"
	}
	oStrand := "+"
	if a.Reversed {
		oStrand = "-"
	}
	var payload, cds string
	if a.Payload != nil {
		payload = a.Payload.Letters
	}
	if a.CDS != nil {
		cds = a.CDS.Text
	}
	fields := make([]string, NumFields)
	fields[chromField] = a.Sequences[0].ID
	fields[chromStartField] = strconv.Itoa(tStart)
	fields[chromEndField] = strconv.Itoa(tEnd)
	fields[nameField] = a.Sequences[1].ID
	fields[scoreField] = strconv.Itoa(a.Score)
	fields[strandField] = strand.String()
	fields[thickStartField] = strconv.Itoa(a.ThickStart)
	fields[thickEndField] = strconv.Itoa(a.ThickEnd)
	fields[reservedField] = color
	fields[blockCountField] = strconv.Itoa(len(sizes))
	fields[blockSizesField] = joinInts(sizes)
	fields[chromStartsField] = joinInts(tStarts)
	fields[oChromStartField] = strconv.Itoa(qStart)
	fields[oChromEndField] = strconv.Itoa(qEnd)
	fields[oStrandField] = oStrand
	fields[oChromSizeField] = strconv.Itoa(qSize)
	fields[oChromStartsField] = joinInts(qStarts)
	fields[oSequenceField] = payload
	fields[oCDSField] = cds
	fields[chromSizeField] = strconv.Itoa(a.Sequences[0].Length)
	fields[matchField] = strconv.Itoa(a.Matches)
	fields[misMatchField] = strconv.Itoa(a.Mismatches)
	fields[repMatchField] = strconv.Itoa(a.RepMatches)
	fields[nCountField] = strconv.Itoa(a.NCount)
	fields[seqTypeField] = strconv.Itoa(a.SeqType)
	for i, f := range fields {
		if strings.ContainsAny(f, "\t\n\x00") {
			return nil, fmt.Errorf("bigpsl: %s field contains a tab, newline or NUL", fieldName(i))
		}
	}
	return fields, nil
}

// Record returns the container record for a.
func Record(a *align.Alignment) (bbi.Record, error) {
	fields, err := Encode(a)
	if err != nil {
		return bbi.Record{}, err
	}
	start, end := a.Bounds(0)
	return bbi.Record{
		Chrom: fields[chromField],
		Start: start,
		End:   end,
		Rest:  strings.Join(fields[nameField:], "\t"),
	}, nil
}

// FromRecord returns the alignment held by a container record.
func FromRecord(r *bbi.Record) (*align.Alignment, error) {
	fields := make([]string, 3, NumFields)
	fields[chromField] = r.Chrom
	fields[chromStartField] = strconv.Itoa(r.Start)
	fields[chromEndField] = strconv.Itoa(r.End)
	fields = append(fields, r.Fields()...)
	return Decode(fields)
}

func joinInts(v []int) string {
	var b strings.Builder
	for _, n := range v {
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(',')
	}
	return b.String()
}
