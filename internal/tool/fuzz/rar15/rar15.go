// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build gofuzz

package rar15

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing/iotest"

	"github.com/dsnet/rarlegacy"
	"github.com/dsnet/rarlegacy/rar15"
)

// Fuzz decodes the input with the output size and initial mode taken from
// the first three bytes. The remainder is the compressed stream.
func Fuzz(data []byte) int {
	if len(data) < 3 {
		return -1
	}
	size := int64(binary.BigEndian.Uint16(data))
	mode := rar15.Mode(data[2] & 1)
	data = data[3:]

	want, werr := decode(data, size, mode, rar15.MaxWindowSize, false)
	got, gerr := decode(data, size, mode, 192, true)

	if !bytes.Equal(got, want) {
		panic("mismatching bytes")
	}
	switch {
	case werr == nil && gerr == nil:
		if int64(len(got)) != size {
			panic("mismatching output size")
		}
		return 1 // Favor valid inputs
	case werr != nil && gerr != nil:
		if werr.Error() != gerr.Error() {
			panic("mismatching errors")
		}
		for _, err := range []error{werr, gerr} {
			if _, ok := err.(rarlegacy.Error); !ok {
				panic(err)
			}
		}
		return 0
	default:
		panic("mismatching error states")
	}
}

// decode decompresses data using the given window, optionally reading a
// single byte at a time.
func decode(data []byte, size int64, mode rar15.Mode, window int, oneByte bool) ([]byte, error) {
	zr, err := rar15.NewReader(data, &rar15.ReaderConfig{
		OutputSize:  size,
		WindowSize:  window,
		InitialMode: mode,
	})
	if err != nil {
		panic(err)
	}
	var r io.Reader = zr
	if oneByte {
		r = iotest.OneByteReader(zr)
	}
	b, err := io.ReadAll(r)
	if cerr := zr.Close(); cerr != err {
		panic("mismatching close error")
	}
	return b, err
}
