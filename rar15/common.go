// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package rar15 implements the legacy adaptive Huffman and LZ77 bitstream
// used by early RAR archives.
//
// The stream interleaves two kinds of commands. Literals are decoded as a
// rank through a fixed canonical code and then mapped to a byte value
// through an adaptive table that drifts frequently seen bytes towards the
// lower ranks. Back-references copy short runs out of a circular history
// window. The decoder switches between a literal mode and a run-length mode
// as the stream dictates.
//
// The container layer is out of scope: callers provide the compressed bytes
// of a single file, the unpacked size, and the window size.
package rar15

import (
	"fmt"

	"github.com/dsnet/rarlegacy/internal/prefix"
)

const (
	// MinWindowSize is the smallest window that a Reader accepts.
	// A single decoding step may emit up to maxStepOutput bytes, which must
	// fit in the window alongside unread output.
	MinWindowSize = 2 * maxStepOutput

	// MaxWindowSize is the largest window that a Reader accepts.
	MaxWindowSize = 1 << 22

	maxStepOutput = 4 // Longest emission of a single step

	numSyms = 256 // Size of the literal alphabet

	placementQuota = 0xa1 // Placement count that triggers table correction
	maxCorrections = 1    // Corrections tolerated within a single step

	escapeThreshold = 0x0fff // Lookahead above which rank 0 is the escape code
	escapeValue     = 0x0100 // Two-byte value emitted by the escape code

	modeSwitchLits = 16 // Literals after which literal mode yields

	distExtraBits = 5 // Low distance bits following the distance symbol

	hfSaturate = 0xff // Saturation point of the literal frequency counter
	hfReset    = 0x90 // Value the counter is reset to upon saturation
	hfStep     = 16   // Increment of the counter per literal
)

// Fixed prefix tables of this format variant.
var (
	rankTable = prefix.Table{
		Bounds:  []uint32{0x1000, 0x3000, 0x5000, 0x7000, 0xffff},
		Bases:   []uint32{0, 1, 2, 3, 4, 5},
		MinBits: 0,
		NumSyms: numSyms,
	}
	distTable = prefix.Table{
		Bounds:  []uint32{0x2000, 0x4000, 0x6000, 0x8000},
		Bases:   []uint32{0, 1, 2, 3, 4},
		MinBits: 2,
		NumSyms: numSyms,
	}
)

func init() {
	for _, t := range []*prefix.Table{&rankTable, &distTable} {
		if err := t.Validate(); err != nil {
			panic(err)
		}
	}
}

// Error is the wrapper type for errors specific to this library.
type Error string

func (e Error) Error() string { return "rar15: " + string(e) }
func (e Error) CompressError()  {}

func (e Error) IsCorrupted() bool {
	switch e {
	case ErrInvalidBackReference, ErrCorruptTable, ErrOutputOverrun:
		return true
	}
	return false
}

func (e Error) IsTruncated() bool { return e == ErrBitstreamExhausted }

var (
	// ErrBitstreamExhausted reports that the compressed input ran out before
	// the bits required by the current command were available.
	ErrBitstreamExhausted error = Error("bitstream exhausted")

	// ErrInvalidBackReference reports a back-reference with a zero distance,
	// or one reaching beyond the output produced so far.
	ErrInvalidBackReference error = Error("invalid back-reference")

	// ErrCorruptTable reports a code outside of the prefix tables or a
	// degenerate adaptive table.
	ErrCorruptTable error = Error("corrupt symbol table")

	// ErrOutputOverrun reports that an atomic multi-byte emission would
	// exceed the declared output size.
	ErrOutputOverrun error = Error("output overrun")

	// ErrInvalidConfig reports a ReaderConfig that cannot be used.
	ErrInvalidConfig error = Error("invalid configuration")
)

// DecodeError records the position at which decoding failed.
type DecodeError struct {
	Err          error // The underlying error kind
	InputOffset  int64 // Bytes of compressed input pulled into the bit buffer
	OutputOffset int64 // Bytes of output produced before the failure
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v (input offset %d, output offset %d)", e.Err, e.InputOffset, e.OutputOffset)
}

func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) CompressError() {}

func (e *DecodeError) IsCorrupted() bool {
	err, ok := e.Err.(Error)
	return ok && err.IsCorrupted()
}

func (e *DecodeError) IsTruncated() bool {
	err, ok := e.Err.(Error)
	return ok && err.IsTruncated()
}
