// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Decoder unwraps a segment file that was stored with a transport
// compression, such as a test corpus kept in gzip form.
type Decoder func(io.Reader) (io.ReadCloser, error)

// Decoders maps codec names to their decoders.
var Decoders map[string]Decoder

// Extensions maps file extensions to codec names for automatic selection.
var Extensions map[string]string

func RegisterDecoder(name string, dec Decoder, exts ...string) {
	if Decoders == nil {
		Decoders = make(map[string]Decoder)
		Extensions = make(map[string]string)
	}
	Decoders[name] = dec
	for _, ext := range exts {
		Extensions[ext] = name
	}
}

func init() {
	RegisterDecoder("none",
		func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(r), nil
		})
	RegisterDecoder("gzip",
		func(r io.Reader) (io.ReadCloser, error) {
			zr, err := gzip.NewReader(r)
			if err != nil {
				return nil, err
			}
			return zr, nil
		}, ".gz")
	RegisterDecoder("zstd",
		func(r io.Reader) (io.ReadCloser, error) {
			zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
			if err != nil {
				return nil, err
			}
			return zr.IOReadCloser(), nil
		}, ".zst", ".zstd")
	RegisterDecoder("xz",
		func(r io.Reader) (io.ReadCloser, error) {
			zr, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(zr), nil
		}, ".xz")
}

// codecNames returns the registered codec names in sorted order.
func codecNames() string {
	var s []string
	for k := range Decoders {
		s = append(s, k)
	}
	sort.Strings(s)
	return strings.Join(s, ",")
}

// selectCodec resolves the codec to use for the named file.
// The "auto" codec picks one by file extension, falling back to "none".
// It also returns the name with the codec's extension removed.
func selectCodec(codec, name string) (Decoder, string, error) {
	ext := filepath.Ext(name)
	if codec == "auto" {
		codec = "none"
		if c, ok := Extensions[strings.ToLower(ext)]; ok {
			codec = c
		}
	}
	dec, ok := Decoders[codec]
	if !ok {
		return nil, "", errors.Errorf("unknown codec %q (want auto or one of %s)", codec, codecNames())
	}
	if c, ok := Extensions[strings.ToLower(ext)]; ok && c == codec {
		name = strings.TrimSuffix(name, ext)
	}
	return dec, name, nil
}
