// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package rar15

import (
	"testing"

	"github.com/dsnet/golib/errs"
	"github.com/dsnet/rarlegacy/internal/prefix"
)

// catch runs f and returns the error it panicked with, if any.
func catch(f func()) (err error) {
	defer errs.Recover(&err)
	f()
	return nil
}

func TestBitReader(t *testing.T) {
	var br bitReader
	br.Init([]byte{0xaa, 0xcc, 0xf0, 0x0f})

	if got, want := br.Peek(), uint32(0xaacc); got != want {
		t.Fatalf("Peek() = %#04x, want %#04x", got, want)
	}
	if got, want := br.Peek(), uint32(0xaacc); got != want {
		t.Fatalf("second Peek() = %#04x, want %#04x", got, want)
	}
	if got, want := br.InputOffset(), int64(4); got != want {
		t.Fatalf("InputOffset() = %d, want %d", got, want)
	}

	var steps = []struct {
		n    uint   // Bits to consume
		peek uint32 // Lookahead afterwards
	}{
		{n: 4, peek: 0xaccf},
		{n: 0, peek: 0xaccf},
		{n: 16, peek: 0x00f0},
		{n: 9, peek: 0xe000},
		{n: 3, peek: 0x0000},
	}
	for i, s := range steps {
		if err := catch(func() { br.Consume(s.n) }); err != nil {
			t.Fatalf("step %d, Consume(%d): unexpected error: %v", i, s.n, err)
		}
		if got := br.Peek(); got != s.peek {
			t.Errorf("step %d, Peek() = %#04x, want %#04x", i, got, s.peek)
		}
	}
	if got, want := br.BitsRead(), int64(32); got != want {
		t.Errorf("BitsRead() = %d, want %d", got, want)
	}
	if err := catch(func() { br.Consume(1) }); err != ErrBitstreamExhausted {
		t.Errorf("Consume past end: got %v, want %v", err, ErrBitstreamExhausted)
	}
}

func TestBitReaderRefill(t *testing.T) {
	var br bitReader
	br.Init([]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc})

	br.Peek()
	if got, want := br.InputOffset(), int64(4); got != want {
		t.Fatalf("InputOffset() = %d, want %d", got, want)
	}

	// Consuming 7 bits leaves 25 buffered bits, which is enough.
	br.Consume(7)
	if got, want := br.Peek(), uint32(0x1a2b); got != want {
		t.Errorf("Peek() = %#04x, want %#04x", got, want)
	}
	if got, want := br.InputOffset(), int64(4); got != want {
		t.Errorf("InputOffset() = %d, want %d", got, want)
	}

	// The next byte lands directly below the 24 remaining bits.
	br.Consume(1)
	if got, want := br.Peek(), uint32(0x3456); got != want {
		t.Errorf("Peek() = %#04x, want %#04x", got, want)
	}
	if got, want := br.InputOffset(), int64(5); got != want {
		t.Errorf("InputOffset() = %d, want %d", got, want)
	}
	if got, want := br.BitsLeft(), int64(40); got != want {
		t.Errorf("BitsLeft() = %d, want %d", got, want)
	}

	br.Consume(16)
	br.Consume(16)
	if got, want := br.Peek(), uint32(0xbc00); got != want {
		t.Errorf("Peek() = %#04x, want %#04x", got, want)
	}
}

func TestBitReaderEmpty(t *testing.T) {
	var br bitReader
	br.Init(nil)

	if got := br.Peek(); got != 0 {
		t.Errorf("Peek() = %#04x, want 0", got)
	}
	if err := catch(func() { br.Consume(0) }); err != nil {
		t.Errorf("Consume(0): unexpected error: %v", err)
	}
	if err := catch(func() { br.Consume(1) }); err != ErrBitstreamExhausted {
		t.Errorf("Consume(1): got %v, want %v", err, ErrBitstreamExhausted)
	}
}

func TestBitReaderSymbol(t *testing.T) {
	var vectors = []struct {
		desc  string
		input []byte
		table *prefix.Table
		sym   uint
		nb    int64
		err   error
	}{
		{desc: "rank 0 consumes nothing", input: []byte{0x0f, 0xff}, table: &rankTable, sym: 0, nb: 0},
		{desc: "rank 1", input: []byte{0x12, 0x34}, table: &rankTable, sym: 1, nb: 1},
		{desc: "rank 2", input: []byte{0x48, 0xd1}, table: &rankTable, sym: 2, nb: 2},
		{desc: "rank 12", input: []byte{0xff, 0xff}, table: &rankTable, sym: 12, nb: 4},
		{desc: "distance 2", input: []byte{0x1f, 0xff}, table: &distTable, sym: 2, nb: 2},
		{desc: "distance 5", input: []byte{0x50, 0x00}, table: &distTable, sym: 5, nb: 4},
		{desc: "distance without base", input: []byte{0x60, 0x00}, table: &distTable, err: ErrCorruptTable},
		{desc: "distance past bounds", input: []byte{0x80, 0x00}, table: &distTable, err: ErrCorruptTable},
		{desc: "truncated code", input: []byte{0xf0}, table: &rankTable, sym: 12, nb: 4},
		{desc: "missing code", input: []byte{}, table: &distTable, err: ErrBitstreamExhausted},
	}

	for i, v := range vectors {
		var br bitReader
		br.Init(v.input)
		var sym uint
		err := catch(func() { sym = br.ReadSymbol(v.table) })
		if err != v.err {
			t.Errorf("test %d (%s), mismatching error: got %v, want %v", i, v.desc, err, v.err)
			continue
		}
		if err != nil {
			continue
		}
		if sym != v.sym {
			t.Errorf("test %d (%s), mismatching symbol: got %d, want %d", i, v.desc, sym, v.sym)
		}
		if br.BitsRead() != v.nb {
			t.Errorf("test %d (%s), mismatching bit count: got %d, want %d", i, v.desc, br.BitsRead(), v.nb)
		}
	}
}
