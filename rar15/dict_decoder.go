// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package rar15

import (
	"github.com/dsnet/golib/errs"
	"github.com/dsnet/rarlegacy/internal"
)

// The dictDecoder implements the circular output window. Every byte produced
// by the decoder is written here, and back-references copy out of the bytes
// that came before.
//
// Produced bytes remain in the window until ReadFlush hands them to the
// caller. The caller must flush before the unread bytes would be overwritten,
// which is when AvailSize drops below the size of the next emission.
type dictDecoder struct {
	hist    []byte // Sliding window history
	wrPos   int    // Current output position in hist
	rdPos   int    // Position in hist of the first unread byte
	total   int64  // Bytes written since Init
	pending int    // Bytes written but not yet flushed
}

func (dd *dictDecoder) Init(size int) {
	if cap(dd.hist) < size {
		dd.hist = make([]byte, size)
	}
	*dd = dictDecoder{hist: dd.hist[:size]}
	clear(dd.hist)
}

// HistSize reports the number of bytes available for back-references.
func (dd *dictDecoder) HistSize() int {
	if dd.total < int64(len(dd.hist)) {
		return int(dd.total)
	}
	return len(dd.hist)
}

// AvailSize reports the number of bytes that may be written before unread
// output is overwritten.
func (dd *dictDecoder) AvailSize() int {
	return len(dd.hist) - dd.pending
}

// WriteByte writes a single byte to the window.
func (dd *dictDecoder) WriteByte(c byte) {
	dd.hist[dd.wrPos] = c
	dd.advance()
}

// WriteCopy copies length bytes starting at dist bytes behind the write
// position. The copy proceeds one byte at a time, so a run may repeat bytes
// it wrote itself when dist < length.
//
// It panics with ErrInvalidBackReference if dist is zero or reaches past the
// output produced so far.
func (dd *dictDecoder) WriteCopy(dist, length int) {
	errs.Assert(dist > 0 && dist <= dd.HistSize(), ErrInvalidBackReference)
	rdPos := dd.wrPos - dist
	if rdPos < 0 {
		rdPos += len(dd.hist)
	}
	for i := 0; i < length; i++ {
		dd.hist[dd.wrPos] = dd.hist[rdPos]
		if rdPos++; rdPos == len(dd.hist) {
			rdPos = 0
		}
		dd.advance()
	}
}

func (dd *dictDecoder) advance() {
	if dd.wrPos++; dd.wrPos == len(dd.hist) {
		dd.wrPos = 0
	}
	dd.total++
	dd.pending++
	if internal.Debug && dd.pending > len(dd.hist) {
		panic("rar15: unread output overwritten")
	}
}

// ReadFlush returns the oldest unread output and marks it as read.
// The returned slice is only valid until the next write, and may hold fewer
// bytes than are unread if the unread region wraps around the window edge.
func (dd *dictDecoder) ReadFlush() []byte {
	n := dd.pending
	if end := len(dd.hist) - dd.rdPos; n > end {
		n = end
	}
	toRead := dd.hist[dd.rdPos : dd.rdPos+n]
	if dd.rdPos += n; dd.rdPos == len(dd.hist) {
		dd.rdPos = 0
	}
	dd.pending -= n
	return toRead
}

// Unread reports the number of bytes written but not yet flushed.
func (dd *dictDecoder) Unread() int { return dd.pending }

// Total reports the number of bytes written since Init.
func (dd *dictDecoder) Total() int64 { return dd.total }

// At returns the byte at the given absolute window position.
func (dd *dictDecoder) At(pos int) byte { return dd.hist[pos] }

// WritePos returns the current write position.
func (dd *dictDecoder) WritePos() int { return dd.wrPos }
