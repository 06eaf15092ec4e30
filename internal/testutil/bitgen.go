// Copyright 2016, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package testutil

import (
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var (
	reBin = regexp.MustCompile("^[01]{1,64}$")
	reDec = regexp.MustCompile("^D[0-9]+:[0-9]+$")
	reHex = regexp.MustCompile("^H[0-9]+:[0-9a-fA-F]{1,16}$")
	reRaw = regexp.MustCompile("^X:[0-9a-fA-F]+$")
	reQnt = regexp.MustCompile("[*][0-9]+$")
)

// DecodeBitGen decodes a BitGen formatted string.
//
// The BitGen format allows bit-streams to be generated from a series of tokens
// describing bits in the resulting string. It is designed to aid a human in
// the manual scripting of compressed streams from individual bit-strings,
// while allowing comments to encode authorial intent.
//
// The format consists of a series of tokens separated by white space.
// The '#' character starts a comment that runs to the end of the line.
//
// The first token must be ">>>", which states that bits are packed starting
// with the most-significant bit of each byte. This is the only packing order
// used by the formats in this module.
//
// A token of the pattern "[01]{1,64}" is a bit-string (e.g. 11010), written
// left-most bit first.
//
// A token of the pattern "D[0-9]+:[0-9]+" or "H[0-9]+:[0-9a-fA-F]{1,16}"
// is a decimal or hexadecimal value. The first number is the bit-length
// (0 to 64 bits) and the value is written most-significant bit first.
// The bit-length must be long enough to contain the value.
//
// A token of the pattern "X:[0-9a-fA-F]+" is a sequence of literal bytes.
// It may only be used when the bit-stream is byte-aligned.
//
// A trailing quantifier of the pattern "[*][0-9]+" repeats the token.
//
// If the bit-stream does not end on a byte-aligned edge, then it is padded up
// to the nearest byte with 0 bits.
//
// Example BitGen string:
//	>>>
//	101    # Bit-string
//	H5:1f  # 5-bit hexadecimal value
//	D4:2*2 # 4-bit decimal value, repeated twice
//	X:ff   # Raw byte
//
// Generated output stream (in hexadecimal): "bf22ff"
func DecodeBitGen(str string) ([]byte, error) {
	var toks []string
	for _, s := range strings.Split(str, "\n") {
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		toks = append(toks, strings.Fields(s)...)
	}
	if len(toks) == 0 || toks[0] != ">>>" {
		return nil, errors.New("testutil: unknown stream bit-packing mode")
	}
	toks = toks[1:]

	var bb bitBuffer
	for _, t := range toks {
		rep := 1
		if m := reQnt.FindString(t); m != "" {
			n, err := strconv.Atoi(m[1:])
			if err != nil {
				return nil, errors.New("testutil: invalid quantifier: " + t)
			}
			rep, t = n, t[:len(t)-len(m)]
		}

		var emit func()
		switch {
		case reBin.MatchString(t):
			val, _ := strconv.ParseUint(t, 2, 64)
			n := uint(len(t))
			emit = func() { bb.WriteBits(val, n) }
		case reDec.MatchString(t), reHex.MatchString(t):
			base := 10
			if t[0] == 'H' {
				base = 16
			}
			i := strings.IndexByte(t, ':')
			n, err := strconv.ParseUint(t[1:i], 10, 8)
			if err != nil || n > 64 {
				return nil, errors.New("testutil: invalid bit-length: " + t)
			}
			val, err := strconv.ParseUint(t[i+1:], base, 64)
			if err != nil || (n < 64 && val>>n > 0) {
				return nil, errors.New("testutil: value does not fit: " + t)
			}
			emit = func() { bb.WriteBits(val, uint(n)) }
		case reRaw.MatchString(t):
			b, err := hex.DecodeString(t[2:])
			if err != nil {
				return nil, errors.New("testutil: invalid raw bytes: " + t)
			}
			if bb.n%8 != 0 {
				return nil, errors.New("testutil: raw bytes must be byte-aligned")
			}
			emit = func() {
				bb.b = append(bb.b, b...)
				bb.n += 8 * uint(len(b))
			}
		default:
			return nil, errors.New("testutil: invalid token: " + t)
		}
		for i := 0; i < rep; i++ {
			emit()
		}
	}
	return bb.b, nil
}

// bitBuffer is a MSB-first bit writer.
type bitBuffer struct {
	b []byte
	n uint // Number of bits written
}

func (bb *bitBuffer) WriteBits(v uint64, n uint) {
	for i := n; i > 0; i-- {
		if bb.n%8 == 0 {
			bb.b = append(bb.b, 0)
		}
		if v>>(i-1)&1 > 0 {
			bb.b[len(bb.b)-1] |= 0x80 >> (bb.n % 8)
		}
		bb.n++
	}
}
