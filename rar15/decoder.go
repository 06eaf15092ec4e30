// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package rar15

import (
	"fmt"

	"github.com/dsnet/golib/errs"
	"github.com/dsnet/rarlegacy/internal/prefix"
)

// Mode is the state of the decoder, which determines how a decoded rank
// is interpreted.
type Mode int

const (
	// LiteralMode decodes every rank as a literal through the adaptive table.
	LiteralMode Mode = iota

	// RunLengthMode reserves rank 0 for back-references, the escape code,
	// and the switch back to LiteralMode.
	RunLengthMode

	numModes
)

func (m Mode) String() string {
	switch m {
	case LiteralMode:
		return "literal"
	case RunLengthMode:
		return "run-length"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Stats is a snapshot of the adaptive state of a decoder.
type Stats struct {
	Mode         Mode   // Current decoder mode
	Literals     int    // Literals decoded since the last switch to LiteralMode
	AvgPlacement uint32 // Running average of decoded literal ranks, scaled by 256
	HuffCount    uint32 // Saturating literal frequency counter
	LZCount      uint32 // Counter halved whenever HuffCount saturates
	Corrections  int64  // Number of times the adaptive table was reset
	BackRefs     int64  // Number of back-references copied
	Escapes      int64  // Number of escape codes emitted
}

// decoder performs single steps of the decoding state machine.
// Every step panics with an Error value upon failure.
type decoder struct {
	rd      bitReader
	dict    dictDecoder
	syms    symbolTable
	rankTab *prefix.Table // Prefix code for ranks
	distTab *prefix.Table // Prefix code for back-reference distances
	remain  int64         // Bytes of output still owed

	mode      Mode
	numLits   int    // Literals decoded since entering LiteralMode
	flagCount int    // Pending flag bits; suppresses the switch to RunLengthMode
	avgPlc    uint32 // Exponential average of literal ranks, decay 1/256
	hfCount   uint32 // Saturates at hfSaturate
	lzCount   uint32 // Halved upon saturation of hfCount

	corrections int64
	backRefs    int64
	escapes     int64
}

func (d *decoder) Init(src []byte, outSize int64, winSize int, mode Mode) {
	d.rd.Init(src)
	d.dict.Init(winSize)
	d.syms.Init()
	d.rankTab, d.distTab = &rankTable, &distTable
	d.remain = outSize
	d.mode = mode
	d.numLits, d.flagCount = 0, 0
	d.avgPlc, d.hfCount, d.lzCount = 0, 0, 0
	d.corrections, d.backRefs, d.escapes = 0, 0, 0
}

// Step decodes a single command from the stream.
// The window must have room for maxStepOutput bytes.
func (d *decoder) Step() {
	bitField := d.rd.Peek()
	rank := d.rd.ReadSymbol(d.rankTab)

	if d.mode == RunLengthMode && rank == 0 {
		if bitField > escapeThreshold {
			d.writeEscape()
			return
		}

		bitField = d.rd.Peek()
		d.rd.Consume(1)
		if bitField&0x8000 != 0 {
			d.mode = LiteralMode
			d.numLits = 0
			return
		}

		length := 3
		if bitField&0x4000 != 0 {
			length = 4
		}
		d.rd.Consume(1)
		dist := d.rd.ReadSymbol(d.distTab) << distExtraBits
		dist |= uint(d.rd.Peek() >> (16 - distExtraBits))
		d.rd.Consume(distExtraBits)
		d.writeCopy(int(dist), length)
		return
	}

	d.writeLiteral(rank)
}

// writeLiteral emits the literal at rank and updates the adaptive state.
func (d *decoder) writeLiteral(rank uint) {
	d.dict.WriteByte(d.syms.Lookup(rank))
	d.remain--

	d.avgPlc += uint32(rank)
	d.avgPlc -= d.avgPlc >> 8
	d.hfCount += hfStep
	if d.hfCount > hfSaturate {
		d.hfCount = hfReset
		d.lzCount >>= 1
	}

	if d.syms.Promote(rank) {
		d.corrections++
	}

	d.numLits++
	if d.mode == LiteralMode && d.numLits >= modeSwitchLits && d.flagCount == 0 {
		d.mode = RunLengthMode
	}
}

// writeEscape emits the escape value, high byte first.
// The pair is atomic, so it panics with ErrOutputOverrun rather than emit
// a partial value when only a single byte of output remains.
func (d *decoder) writeEscape() {
	errs.Assert(d.remain >= 2, ErrOutputOverrun)
	d.dict.WriteByte(byte(escapeValue >> 8))
	d.dict.WriteByte(byte(escapeValue & 0xff))
	d.remain -= 2
	d.escapes++
}

// writeCopy copies a back-reference, truncated to the remaining output.
func (d *decoder) writeCopy(dist, length int) {
	if int64(length) > d.remain {
		length = int(d.remain)
	}
	d.dict.WriteCopy(dist, length)
	d.remain -= int64(length)
	d.backRefs++
}

// Stats returns a snapshot of the adaptive state.
func (d *decoder) Stats() Stats {
	return Stats{
		Mode:         d.mode,
		Literals:     d.numLits,
		AvgPlacement: d.avgPlc,
		HuffCount:    d.hfCount,
		LZCount:      d.lzCount,
		Corrections:  d.corrections,
		BackRefs:     d.backRefs,
		Escapes:      d.escapes,
	}
}
