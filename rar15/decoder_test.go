// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package rar15

import (
	"bytes"
	"testing"

	"github.com/dsnet/rarlegacy/internal/prefix"
	"github.com/dsnet/rarlegacy/internal/testutil"
	"github.com/google/go-cmp/cmp"
)

// With the rank table of this format, rank 0 never consumes any bits, so
// the escape code and the switch back to literal mode cannot be produced
// by a stream. These tables make both reachable.
var (
	// escapeTable decodes any lookahead below 0x8000 as rank 0, consuming
	// no bits, so the escape code repeats for as long as output is owed.
	escapeTable = prefix.Table{
		Bounds:  []uint32{0x8000},
		Bases:   []uint32{0, 1},
		MinBits: 0,
		NumSyms: numSyms,
	}

	// switchTable decodes "0000" as rank 0 and all other codes as 5-bit
	// codes for ranks 1 through 30.
	switchTable = prefix.Table{
		Bounds:  []uint32{0x1000},
		Bases:   []uint32{0, 0, 0, 0, 0, 1},
		MinBits: 4,
		NumSyms: numSyms,
	}
)

// stepAll runs the decoder until the output is complete, flushing the window
// whenever it runs out of room. It returns the output and the first error.
func stepAll(d *decoder) ([]byte, error) {
	var out []byte
	err := catch(func() {
		for d.remain > 0 {
			if d.dict.AvailSize() < maxStepOutput {
				out = append(out, d.dict.ReadFlush()...)
			}
			d.Step()
		}
	})
	for d.dict.Unread() > 0 {
		out = append(out, d.dict.ReadFlush()...)
	}
	return out, err
}

func TestDecoderModeSwitch(t *testing.T) {
	var d decoder
	d.Init(make([]byte, 8), 100, 32, LiteralMode)

	for i := 1; i <= modeSwitchLits; i++ {
		if err := catch(d.Step); err != nil {
			t.Fatalf("literal %d, unexpected error: %v", i, err)
		}
		want := LiteralMode
		if i == modeSwitchLits {
			want = RunLengthMode
		}
		if d.mode != want {
			t.Fatalf("literal %d, mode = %v, want %v", i, d.mode, want)
		}
	}

	want := testutil.MustDecodeHex("00010002010003020100040302010005")
	if got := d.dict.ReadFlush(); !bytes.Equal(got, want) {
		t.Errorf("mismatching output:\ngot  %x\nwant %x", got, want)
	}

	// In run-length mode, an all-zero stream is a back-reference of
	// distance 64, which reaches past the 16 bytes produced so far.
	if err := catch(d.Step); err != ErrInvalidBackReference {
		t.Errorf("mismatching error: got %v, want %v", err, ErrInvalidBackReference)
	}
}

func TestDecoderFlagCount(t *testing.T) {
	var d decoder
	d.Init(make([]byte, 8), 20, 32, LiteralMode)
	d.flagCount = 1

	if _, err := stepAll(&d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.mode != LiteralMode {
		t.Errorf("mode = %v, want %v", d.mode, LiteralMode)
	}
	if d.numLits != 20 {
		t.Errorf("numLits = %d, want 20", d.numLits)
	}
}

func TestDecoderEscape(t *testing.T) {
	var d decoder
	d.Init([]byte{0x10, 0x00}, 5, 32, RunLengthMode)
	d.rankTab = &escapeTable

	got, err := stepAll(&d)
	if err != ErrOutputOverrun {
		t.Errorf("mismatching error: got %v, want %v", err, ErrOutputOverrun)
	}
	if want := []byte{0x01, 0x00, 0x01, 0x00}; !bytes.Equal(got, want) {
		t.Errorf("mismatching output: got %x, want %x", got, want)
	}
	if d.escapes != 2 || d.remain != 1 {
		t.Errorf("escapes = %d, remain = %d, want 2 and 1", d.escapes, d.remain)
	}
	if d.rd.BitsRead() != 0 {
		t.Errorf("BitsRead() = %d, want 0", d.rd.BitsRead())
	}

	// An even number of bytes owed is satisfied exactly.
	d.Init([]byte{0x10, 0x00}, 4, 32, RunLengthMode)
	d.rankTab = &escapeTable
	if _, err := stepAll(&d); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Lookaheads up to the threshold are back-references instead.
	d.Init([]byte{0x0f, 0xff}, 4, 32, RunLengthMode)
	d.rankTab = &escapeTable
	if err := catch(d.Step); err != ErrInvalidBackReference {
		t.Errorf("mismatching error: got %v, want %v", err, ErrInvalidBackReference)
	}
	if d.escapes != 0 {
		t.Errorf("escapes = %d, want 0", d.escapes)
	}
}

func TestDecoderSwitchToLiteral(t *testing.T) {
	var d decoder
	src := testutil.MustDecodeBitGen(`>>>
		0000 1 # Rank 0, then a set flag bit
		00011  # Rank 2
		00011  # Rank 2
		0000   # Rank 0, which is a literal in literal mode
	`)
	d.Init(src, 3, 32, RunLengthMode)
	d.rankTab = &switchTable

	if err := catch(d.Step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.mode != LiteralMode || d.numLits != 0 || d.dict.Total() != 0 {
		t.Fatalf("after switch: mode %v, numLits %d, total %d", d.mode, d.numLits, d.dict.Total())
	}
	if got, want := d.rd.BitsRead(), int64(5); got != want {
		t.Errorf("BitsRead() = %d, want %d", got, want)
	}

	got, err := stepAll(&d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := []byte{2, 1, 0}; !bytes.Equal(got, want) {
		t.Errorf("mismatching output: got %v, want %v", got, want)
	}
	if got, want := d.rd.BitsRead(), int64(19); got != want {
		t.Errorf("BitsRead() = %d, want %d", got, want)
	}
	if d.numLits != 3 {
		t.Errorf("numLits = %d, want 3", d.numLits)
	}
}

func TestDecoderCounters(t *testing.T) {
	src := testutil.MustDecodeBitGen(">>> 1111*100") // Rank 12 repeated

	var vectors = []struct {
		outSize int64
		want    Stats
		prefix  string
	}{{
		outSize: 16,
		want: Stats{
			Mode:         RunLengthMode,
			Literals:     16,
			AvgPlacement: 192,
			HuffCount:    hfReset,
			LZCount:      1 << 19,
		},
		prefix: "0c010c02010c0302010c040302010c05",
	}, {
		outSize: 100,
		want: Stats{
			Mode:         RunLengthMode,
			Literals:     100,
			AvgPlacement: 1033,
			HuffCount:    hfReset,
			LZCount:      1 << 7,
		},
		prefix: "0c010c02010c0302010c040302010c0504030201",
	}}

	for i, v := range vectors {
		var d decoder
		d.Init(src, v.outSize, 64, LiteralMode)
		d.lzCount = 1 << 20

		got, err := stepAll(&d)
		if err != nil {
			t.Errorf("test %d, unexpected error: %v", i, err)
			continue
		}
		if want := testutil.MustDecodeHex(v.prefix); !bytes.HasPrefix(got, want) {
			t.Errorf("test %d, mismatching output:\ngot  %x\nwant %x...", i, got, want)
		}
		if diff := cmp.Diff(v.want, d.Stats()); diff != "" {
			t.Errorf("test %d, mismatching stats (-want +got):\n%s", i, diff)
		}
		if got, want := d.rd.BitsRead(), 4*v.outSize; got != want {
			t.Errorf("test %d, BitsRead() = %d, want %d", i, got, want)
		}
	}
}

func TestDecoderHuffCountSaturation(t *testing.T) {
	var d decoder
	d.Init(make([]byte, 8), 1, 32, LiteralMode)
	d.hfCount, d.lzCount = 0xf0, 41

	if err := catch(d.Step); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.hfCount != hfReset || d.lzCount != 20 {
		t.Errorf("hfCount = %#x, lzCount = %d, want %#x and 20", d.hfCount, d.lzCount, hfReset)
	}
}

func TestDecoderCopyClipped(t *testing.T) {
	var d decoder
	d.Init(nil, 6, 32, RunLengthMode)
	for _, c := range []byte("abcd") {
		d.dict.WriteByte(c)
		d.remain--
	}

	d.writeCopy(3, 4)
	if d.remain != 0 || d.backRefs != 1 {
		t.Errorf("remain = %d, backRefs = %d, want 0 and 1", d.remain, d.backRefs)
	}
	if got, want := d.dict.ReadFlush(), []byte("abcdbc"); !bytes.Equal(got, want) {
		t.Errorf("mismatching output: got %q, want %q", got, want)
	}
}

func TestModeString(t *testing.T) {
	var vectors = []struct {
		mode Mode
		want string
	}{
		{LiteralMode, "literal"},
		{RunLengthMode, "run-length"},
		{numModes, "Mode(2)"},
	}
	for _, v := range vectors {
		if got := v.mode.String(); got != v.want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(v.mode), got, v.want)
		}
	}
}
