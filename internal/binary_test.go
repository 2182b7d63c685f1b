// Copyright ©2026 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func (s *S) TestRoundTrip(c *check.C) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteUint8(0xfe)
	w.WriteUint16(0xbeef)
	w.WriteUint32(0x8789f2eb)
	w.WriteUint64(1 << 40)
	w.WritePadded([]byte("chr1"), 6)
	w.Zero(3)
	c.Assert(w.Err(), check.Equals, nil)
	c.Check(w.N(), check.Equals, int64(1+2+4+8+6+3))
	c.Check(int64(buf.Len()), check.Equals, w.N())

	b := NewBuffer(buf.Bytes())
	c.Check(b.ReadUint8(), check.Equals, uint8(0xfe))
	c.Check(b.ReadUint16(), check.Equals, uint16(0xbeef))
	c.Check(b.ReadUint32(), check.Equals, uint32(0x8789f2eb))
	c.Check(b.ReadUint64(), check.Equals, uint64(1<<40))
	c.Check(string(b.Bytes(6)), check.Equals, "chr1\x00\x00")
	b.Discard(3)
	c.Check(b.Len(), check.Equals, 0)
	c.Check(b.Err(), check.Equals, nil)

	c.Check(b.ReadUint32(), check.Equals, uint32(0))
	c.Check(b.Err(), check.Equals, ErrShort)
}

type failWriter struct{ n int }

func (w *failWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errors.New("full")
	}
	w.n--
	return len(p), nil
}

func (s *S) TestWriterLatches(c *check.C) {
	w := NewWriter(&failWriter{n: 1})
	w.WriteUint32(1)
	c.Check(w.Err(), check.Equals, nil)
	w.WriteUint32(2)
	c.Check(w.Err(), check.ErrorMatches, "full")
	w.WriteUint32(3)
	c.Check(w.N(), check.Equals, int64(4))
}

func (s *S) TestReadAt(c *check.C) {
	r := bytes.NewReader([]byte("abcdef"))
	buf := make([]byte, 4)
	c.Check(ReadAt(r, buf, 2), check.Equals, nil)
	c.Check(string(buf), check.Equals, "cdef")
	c.Check(ReadAt(r, buf, 4), check.Equals, io.ErrUnexpectedEOF)
}
