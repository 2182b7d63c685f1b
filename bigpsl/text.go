// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigpsl

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/bbi/align"
)

// TextReader reads bigPsl records in their tab-separated text form.
// Blank lines and lines starting with '#' are skipped.
type TextReader struct {
	r    *bufio.Reader
	line int
}

// NewTextReader returns a TextReader reading from r.
func NewTextReader(r io.Reader) *TextReader {
	return &TextReader{r: bufio.NewReader(r)}
}

// Read returns the next alignment. It returns io.EOF when no records
// remain.
func (r *TextReader) Read() (*align.Alignment, error) {
	for {
		b, err := r.r.ReadBytes('\n')
		if len(b) == 0 && err != nil {
			return nil, err
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
		r.line++
		b = bytes.TrimRight(b, "\r\n")
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		a, err := Decode(strings.Split(string(b), "\t"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return a, nil
	}
}

// ReadAll returns all the alignments remaining in r.
func (r *TextReader) ReadAll() ([]*align.Alignment, error) {
	var alns []*align.Alignment
	for {
		a, err := r.Read()
		if err != nil {
			if err == io.EOF {
				return alns, nil
			}
			return alns, err
		}
		alns = append(alns, a)
	}
}

// TextWriter writes bigPsl records in their tab-separated text form.
type TextWriter struct {
	w *bufio.Writer
}

// NewTextWriter returns a TextWriter writing to w. Flush must be called
// after the last record is written.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w)}
}

// Write writes a single alignment.
func (w *TextWriter) Write(a *align.Alignment) error {
	fields, err := Encode(a)
	if err != nil {
		return err
	}
	for i, f := range fields {
		if i != 0 {
			w.w.WriteByte('\t')
		}
		w.w.WriteString(f)
	}
	return w.w.WriteByte('\n')
}

// Flush writes any buffered data to the underlying writer.
func (w *TextWriter) Flush() error { return w.w.Flush() }

// ReadChromSizes reads a two column tab-separated chromosome name and
// length table.
func ReadChromSizes(r io.Reader) (map[string]int, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = 2
	cr.ReuseRecord = true
	sizes := make(map[string]int)
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sizes, nil
			}
			return nil, fmt.Errorf("bigpsl: invalid chromosome sizes: %w", err)
		}
		n, err := strconv.Atoi(rec[1])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bigpsl: invalid length for %s: %q", rec[0], rec[1])
		}
		if _, exists := sizes[rec[0]]; exists {
			return nil, fmt.Errorf("bigpsl: duplicate chromosome %s", rec[0])
		}
		sizes[rec[0]] = n
	}
}
