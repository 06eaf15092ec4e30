// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package rar15

import (
	"github.com/dsnet/golib/errs"
	"github.com/dsnet/rarlegacy/internal"
)

// symbolTable maps decoded ranks to literal byte values.
//
// Each literal carries a placement count of how often it has been decoded.
// Whenever a literal is decoded, it trades places with the entry whose rank
// equals its updated count. Once any count passes placementQuota, the whole
// table is reset to the identity order. This is a coarse normalization that
// discards all of the accumulated frequency information.
type symbolTable struct {
	syms   [numSyms]byte  // Literal value at each rank
	counts [numSyms]uint8 // Placement count of each literal value
}

func (st *symbolTable) Init() {
	st.Correct()
}

// Lookup returns the literal at the given rank.
func (st *symbolTable) Lookup(rank uint) byte {
	errs.Assert(rank < numSyms, ErrCorruptTable)
	return st.syms[rank]
}

// Promote records that the literal at rank was decoded and reorders the table.
// It reports whether the table was corrected in the process.
func (st *symbolTable) Promote(rank uint) (corrected bool) {
	errs.Assert(rank < numSyms, ErrCorruptTable)
	lit := st.syms[rank]
	for n := 0; ; n++ {
		st.counts[lit]++
		if st.counts[lit] <= placementQuota {
			break
		}

		// A reset count can only trigger another correction if the table is
		// in a state that no sequence of Promote calls can produce.
		errs.Assert(n < maxCorrections, ErrCorruptTable)
		st.Correct()
		rank, corrected = uint(lit), true
	}

	pos := uint(st.counts[lit])
	st.syms[rank], st.syms[pos] = st.syms[pos], st.syms[rank]
	return corrected
}

// Correct resets the table to the identity order and zeroes all counts.
func (st *symbolTable) Correct() {
	st.syms = internal.IdentityLUT
	st.counts = [numSyms]uint8{}
}

// Count returns the placement count of a literal.
func (st *symbolTable) Count(lit byte) uint8 { return st.counts[lit] }
