// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package rar15

import (
	"github.com/dsnet/golib/errs"
	"github.com/dsnet/rarlegacy/internal/prefix"
)

// The bitReader pulls bits out of the compressed input most-significant bit
// first. Input bytes are folded into a 32-bit buffer one at a time, each byte
// landing just below the bits that are already buffered. The buffer is kept
// topped up to more than 24 bits whenever input remains, so that a 16-bit
// lookahead is always available to the prefix decoder.
//
// The input is assumed to be fully in memory and is never rewound.
type bitReader struct {
	src     []byte // Compressed input
	offset  int64  // Number of bytes pulled from src
	bufBits uint32 // Buffer to hold some bits, first bit in the MSB
	numBits uint   // Number of valid bits in bufBits
	nbRead  int64  // Number of bits consumed
}

func (br *bitReader) Init(src []byte) {
	*br = bitReader{src: src}
}

// fill pulls bytes from the input until more than 24 bits are buffered or the
// input is exhausted.
func (br *bitReader) fill() {
	for br.numBits <= 24 && br.offset < int64(len(br.src)) {
		br.bufBits |= uint32(br.src[br.offset]) << (24 - br.numBits)
		br.numBits += 8
		br.offset++
	}
}

// Peek returns the next 16 bits of the stream in the lower bits of the result,
// with the next bit in bit 15. Missing bits past the end of the input are
// reported as zeros. It does not consume anything and so is idempotent.
func (br *bitReader) Peek() uint32 {
	br.fill()
	return br.bufBits >> 16
}

// Consume discards the next n bits, where n <= 16.
// It panics with ErrBitstreamExhausted if fewer than n bits remain.
func (br *bitReader) Consume(n uint) {
	br.fill()
	errs.Assert(n <= br.numBits, ErrBitstreamExhausted)
	br.bufBits <<= n
	br.numBits -= n
	br.nbRead += int64(n)
}

// ReadSymbol decodes and consumes the next symbol using the prefix table.
// It panics with ErrCorruptTable if the lookahead does not decode to a
// valid symbol.
func (br *bitReader) ReadSymbol(t *prefix.Table) uint {
	sym, nb, ok := t.Decode(br.Peek())
	errs.Assert(ok, ErrCorruptTable)
	br.Consume(nb)
	return sym
}

// InputOffset reports the number of bytes pulled from the input.
func (br *bitReader) InputOffset() int64 { return br.offset }

// BitsRead reports the number of bits consumed.
func (br *bitReader) BitsRead() int64 { return br.nbRead }

// BitsLeft reports the number of bits that have not been consumed.
func (br *bitReader) BitsLeft() int64 {
	return int64(br.numBits) + 8*(int64(len(br.src))-br.offset)
}
