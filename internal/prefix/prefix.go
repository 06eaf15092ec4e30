// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package prefix implements canonical prefix codes described by a table of
// cumulative code-space thresholds.
//
// The codes are not stored as a tree. Instead, the code-space of a 16-bit
// lookahead is partitioned by a short list of monotonically increasing
// boundaries, one per code length class. The number of bits in a code is
// determined by a linear search for the first boundary above the lookahead.
// This is adequate since the tables used by legacy formats are tiny.
package prefix

import (
	"fmt"

	"github.com/dsnet/rarlegacy/internal"
)

// LookaheadBits is the size of the lookahead that Decode operates on.
const LookaheadBits = 16

// lowMask clears the low bits of the lookahead that never take part in the
// boundary comparison.
const lowMask = 0xfff0

// Table is a canonical prefix code.
//
// A lookahead below Bounds[0] is a code of MinBits bits, a lookahead in
// [Bounds[0], Bounds[1]) is a code of MinBits+1 bits, and so on.
// The symbol of a code of n bits is the offset of the code within its class
// plus Bases[n].
type Table struct {
	Bounds  []uint32 // Cumulative code-space thresholds, strictly increasing
	Bases   []uint32 // Starting symbol for each code length
	MinBits uint     // Length of the codes below Bounds[0]
	NumSyms uint     // Size of the alphabet
}

// Decode decodes a single symbol from the 16-bit lookahead v, where the next
// bit in the stream is the most-significant bit of v.
// It returns the symbol and the number of bits the code occupies.
//
// The ok result is false if the lookahead selects a code length with no
// symbol base or produces a symbol outside of the alphabet.
// In that case the bit count is still reported, but the symbol is invalid.
func (t *Table) Decode(v uint32) (sym, nb uint, ok bool) {
	v &= lowMask
	var i int
	for i < len(t.Bounds) && t.Bounds[i] <= v {
		i++
	}
	nb = t.MinBits + uint(i)
	if nb > LookaheadBits || nb >= uint(len(t.Bases)) {
		return 0, nb, false
	}

	var base uint32
	if i > 0 {
		base = t.Bounds[i-1]
	}
	sym = uint((v-base)>>(LookaheadBits-nb)) + uint(t.Bases[nb])
	return sym, nb, sym < t.NumSyms
}

// Encode returns the code for sym, aligned such that the first bit of the
// code is the most-significant bit of a 16-bit lookahead, along with the
// number of bits in the code.
//
// Decode compares the whole lookahead against the boundaries, so the bits
// that follow a short code may take part in selecting it. Such symbols
// cannot be written without constraining the next symbol and are reported
// with ok set to false. Every code returned selects sym regardless of the
// bits that follow, so codes may be concatenated freely.
//
// The formats using these tables are decode-only. This exists so that
// streams can be scripted in tests and tools.
func (t *Table) Encode(sym uint) (code uint32, nb uint, ok bool) {
	for i := 0; i <= len(t.Bounds); i++ {
		nb = t.MinBits + uint(i)
		if nb > LookaheadBits || nb >= uint(len(t.Bases)) {
			break
		}
		base := uint(t.Bases[nb])
		if sym < base {
			continue
		}
		var lo uint32
		if i > 0 {
			lo = t.Bounds[i-1]
		}
		tail := uint32(1)<<(LookaheadBits-nb) - 1
		code = (lo + uint32(sym-base)<<(LookaheadBits-nb)) &^ tail
		if code>>LookaheadBits > 0 {
			continue
		}
		if t.selects(code, sym, nb) && t.selects(code|tail, sym, nb) {
			return code, nb, true
		}
	}
	return 0, 0, false
}

// selects reports whether the lookahead v decodes as sym in nb bits.
// Both the code length and the symbol are monotonic in v, so checking the
// smallest and largest lookahead sharing a code covers the whole range.
func (t *Table) selects(v uint32, sym, nb uint) bool {
	got, gotNB, ok := t.Decode(v)
	return ok && got == sym && gotNB == nb
}

func errorf(f string, args ...interface{}) error {
	return internal.Error("prefix: " + fmt.Sprintf(f, args...))
}

// Validate reports whether the table is well-formed.
func (t *Table) Validate() error {
	if len(t.Bounds) == 0 {
		return errorf("empty boundary table")
	}
	for i, b := range t.Bounds {
		if b > 1<<LookaheadBits {
			return errorf("boundary %d out of range: %#x", i, b)
		}
		if i > 0 && b <= t.Bounds[i-1] {
			return errorf("boundaries not increasing at %d", i)
		}
	}
	if t.MinBits > LookaheadBits {
		return errorf("invalid minimum length: %d", t.MinBits)
	}
	if uint(len(t.Bases)) <= t.MinBits {
		return errorf("no base for minimum length %d", t.MinBits)
	}
	if t.NumSyms == 0 || t.NumSyms > 1<<LookaheadBits {
		return errorf("invalid alphabet size: %d", t.NumSyms)
	}
	return nil
}

// MaxBits returns the length of the longest code that Decode may report as
// valid.
func (t *Table) MaxBits() uint {
	nb := t.MinBits + uint(len(t.Bounds))
	if n := uint(len(t.Bases)) - 1; nb > n {
		nb = n
	}
	if nb > LookaheadBits {
		nb = LookaheadBits
	}
	return nb
}
