// Copyright ©2020 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fai

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/biogo/bbi/align"
)

// File is a sequence file with an FAI index. File access is implemented via mmapped
// file memory, so integer indexing limits may impact on access to large files.
type File struct {
	f   *mmap.ReaderAt
	idx Index
}

// OpenFile opens the sequence file at the given path and associates it with
// the specified index. If idx is nil, the index is read from path+".fai"
// when it exists and is otherwise built from the sequence file.
func OpenFile(path string, idx Index) (*File, error) {
	if idx == nil {
		var err error
		idx, err = loadIndex(path)
		if err != nil {
			return nil, err
		}
	}
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f, idx: idx}, nil
}

func loadIndex(path string) (Index, error) {
	f, err := os.Open(path + ".fai")
	if err == nil {
		defer f.Close()
		return ReadFrom(f)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	f, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewIndex(f)
}

// Index returns the index of the file.
func (f *File) Index() Index { return f.idx }

// Close closes the sequence file and releases the index.
// Letters values obtained from f must not be used after Close has been called.
func (f *File) Close() error {
	err := f.f.Close()
	*f = File{}
	return err
}

// Letters returns the complete sequence identified by the given name.
func (f *File) Letters(name string) (*Letters, error) {
	rec, ok := f.idx[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSeq, name)
	}
	return &Letters{f: f.f, rec: rec}, nil
}

// Letters provides random access to the letters of a sequence held by a
// File. It satisfies align.Letters.
type Letters struct {
	rec Record
	f   io.ReaderAt
}

var _ align.Letters = (*Letters)(nil)

// Name returns the name of the sequence.
func (l *Letters) Name() string { return l.rec.Name }

// Len returns the length of the sequence.
func (l *Letters) Len() int { return l.rec.Length }

// Slice returns the letters in [start, end), with line breaks removed.
func (l *Letters) Slice(start, end int) ([]byte, error) {
	if start < 0 || end < start || l.rec.Length < end {
		return nil, fmt.Errorf("%w: [%d,%d) of %s", ErrRange, start, end, l.rec.Name)
	}
	b := make([]byte, end-start)
	for p := start; p < end; {
		n := min(l.rec.BasesPerLine-p%l.rec.BasesPerLine, end-p)
		_, err := l.f.ReadAt(b[p-start:p-start+n], l.rec.position(p))
		if err != nil {
			return nil, fmt.Errorf("fai: failed to read %s: %w", l.rec.Name, err)
		}
		p += n
	}
	return b, nil
}
