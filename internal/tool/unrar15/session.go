// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dsnet/golib/strconv"
	"github.com/dsnet/rarlegacy/internal"
	"github.com/dsnet/rarlegacy/rar15"
	"github.com/pkg/errors"
)

// session decodes a single compressed segment.
type session struct {
	Input  string // Path to the compressed segment
	Output string // Path to write the output to; empty means none
	Codec  Decoder
	Limit  int64 // Maximum number of compressed bytes to load; 0 means all
	Config rar15.ReaderConfig
}

// result describes the outcome of a session.
type result struct {
	Name     string
	Loaded   int64 // Compressed bytes loaded
	Size     int64 // Uncompressed bytes produced
	BitsRead int64
	Sum      uint64 // XXH64 of the uncompressed bytes produced
	Stats    rar15.Stats
	Elapsed  time.Duration
}

// loadSegment reads the compressed bytes of a segment file, unwrapping its
// transport codec. If limit is positive, at most limit bytes are kept.
func loadSegment(name string, dec Decoder, limit int64) ([]byte, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "load segment")
	}
	defer f.Close()

	rd, err := dec(f)
	if err != nil {
		return nil, errors.Wrapf(err, "unwrap segment %s", name)
	}
	defer rd.Close()

	var r io.Reader = rd
	if limit > 0 {
		r = io.LimitReader(rd, limit)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read segment %s", name)
	}
	return b, nil
}

// run decodes the segment and writes out the output. The output is only
// written if decoding succeeded, or if the configuration keeps partial
// output, in which case the decoding error is still returned.
func (s *session) run(stdout io.Writer) (res result, err error) {
	start := time.Now()
	res.Name = s.Input
	src, err := loadSegment(s.Input, s.Codec, s.Limit)
	if err != nil {
		return res, err
	}
	res.Loaded = int64(len(src))

	zr, err := rar15.NewReader(src, &s.Config)
	if err != nil {
		return res, errors.Wrapf(err, "session %s", s.Input)
	}
	var bb bytes.Buffer
	h := xxhash.New()
	_, derr := io.Copy(io.MultiWriter(&bb, h), zr)
	if derr != nil {
		derr = errors.Wrapf(derr, "decode %s", s.Input)
	}
	res.Size, res.Sum = int64(bb.Len()), h.Sum64()
	res.BitsRead, res.Stats = zr.BitsRead(), zr.Stats()
	res.Elapsed = time.Since(start)

	if derr != nil && !s.Config.KeepPartial {
		return res, derr
	}
	if err := s.write(bb.Bytes(), stdout); err != nil {
		return res, err
	}
	return res, derr
}

func (s *session) write(b []byte, stdout io.Writer) error {
	switch s.Output {
	case "":
		return nil
	case "-":
		_, err := stdout.Write(b)
		return errors.Wrap(err, "write output")
	}
	if err := os.MkdirAll(filepath.Dir(s.Output), 0775); err != nil {
		return errors.Wrap(err, "write output")
	}
	return errors.Wrap(os.WriteFile(s.Output, b, 0664), "write output")
}

// String formats the result for verbose logging.
func (r result) String() string {
	var rate float64
	if us := float64(r.Elapsed.Nanoseconds()) / 1e3; us > 0 {
		rate = float64(r.Size) / us
	}
	return fmt.Sprintf("%s: %sB from %sB (%d of %d bytes consumed), %.2f MB/s, "+
		"mode %v, avg placement %d, hf %d, lz %d, %d corrections, %d back-refs, %d escapes",
		r.Name,
		strconv.FormatPrefix(float64(r.Size), strconv.Base1024, 2),
		strconv.FormatPrefix(float64(r.Loaded), strconv.Base1024, 2),
		internal.DivCeil(int(r.BitsRead), 8), r.Loaded, rate,
		r.Stats.Mode, r.Stats.AvgPlacement, r.Stats.HuffCount, r.Stats.LZCount,
		r.Stats.Corrections, r.Stats.BackRefs, r.Stats.Escapes)
}
