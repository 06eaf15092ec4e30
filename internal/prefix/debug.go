// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build debug

package prefix

import (
	"fmt"
	"strings"
)

func lenBase10(n int) int { return len(fmt.Sprintf("%d", n)) }
func padBase10(n interface{}, m int) string {
	s := fmt.Sprintf("%d", n)
	if pad := m - len(s); pad > 0 {
		s = strings.Repeat(" ", pad) + s
	}
	return s
}

// String dumps the code-space partition of the table, one line per
// code length, listing the lookahead range and the symbols it covers.
func (t Table) String() string {
	var ss []string
	ss = append(ss, "{")
	maxBits := lenBase10(int(t.MaxBits()))
	for i := 0; i <= len(t.Bounds); i++ {
		nb := t.MinBits + uint(i)
		lo := uint32(0)
		if i > 0 {
			lo = t.Bounds[i-1]
		}
		hi := uint32(1 << LookaheadBits)
		if i < len(t.Bounds) {
			hi = t.Bounds[i]
		}
		if nb > LookaheadBits || nb >= uint(len(t.Bases)) {
			ss = append(ss, fmt.Sprintf("\t%s:  {lookahead: %04x-%04x, invalid},",
				padBase10(nb, maxBits), lo, hi-1))
			continue
		}
		first := uint32(t.Bases[nb])
		last := first + (hi-1-lo)>>(LookaheadBits-nb)
		ss = append(ss, fmt.Sprintf("\t%s:  {lookahead: %04x-%04x, syms: %d-%d},",
			padBase10(nb, maxBits), lo, hi-1, first, last))
	}
	ss = append(ss, fmt.Sprintf("\tnumSyms: %d,", t.NumSyms))
	ss = append(ss, "}")
	return strings.Join(ss, "\n")
}
