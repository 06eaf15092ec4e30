// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package rar15

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dsnet/golib/errs"
)

// maxPrealloc caps the buffer that Unpack allocates up front, since the
// declared output size comes from untrusted headers.
const maxPrealloc = 1 << 20

// ReaderConfig holds the session parameters of a single compressed stream.
// The sizes come from the archive headers; there are no defaults.
type ReaderConfig struct {
	OutputSize  int64 // Declared size of the unpacked data
	WindowSize  int   // Capacity of the history window
	InitialMode Mode  // Mode the decoder starts in

	// KeepPartial makes Unpack return the output produced before an error,
	// instead of discarding it.
	KeepPartial bool

	_ struct{} // Blank field to prevent unkeyed struct literals
}

func (c *ReaderConfig) validate() error {
	switch {
	case c == nil:
		return fmt.Errorf("%w: missing configuration", ErrInvalidConfig)
	case c.OutputSize < 0:
		return fmt.Errorf("%w: negative output size %d", ErrInvalidConfig, c.OutputSize)
	case c.WindowSize < MinWindowSize || c.WindowSize > MaxWindowSize:
		return fmt.Errorf("%w: window size %d outside [%d, %d]",
			ErrInvalidConfig, c.WindowSize, MinWindowSize, MaxWindowSize)
	case c.InitialMode < 0 || c.InitialMode >= numModes:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidConfig, c.InitialMode)
	}
	return nil
}

// Reader decompresses a single stream held in memory.
// It emits exactly OutputSize bytes followed by io.EOF, or the bytes
// produced before the first error followed by a *DecodeError.
type Reader struct {
	InputOffset  int64 // Total number of bytes pulled from the compressed input
	OutputOffset int64 // Total number of bytes emitted from Read

	dec    decoder // Decoding state machine and its window
	toRead []byte  // Uncompressed data ready to be emitted from Read
	err    error   // Persistent error
}

// NewReader returns a Reader that decompresses src.
// The Reader takes ownership of src, which must not be modified afterwards.
func NewReader(src []byte, conf *ReaderConfig) (*Reader, error) {
	zr := new(Reader)
	if err := zr.Reset(src, conf); err != nil {
		return nil, err
	}
	return zr, nil
}

func (zr *Reader) Read(buf []byte) (int, error) {
	for {
		if len(zr.toRead) > 0 {
			cnt := copy(buf, zr.toRead)
			zr.toRead = zr.toRead[cnt:]
			zr.OutputOffset += int64(cnt)
			return cnt, nil
		}
		if zr.dec.dict.Unread() > 0 {
			zr.toRead = zr.dec.dict.ReadFlush()
			continue
		}
		if zr.err != nil {
			return 0, zr.err
		}
		if zr.dec.remain == 0 {
			zr.err = io.EOF
			continue
		}
		zr.decode()
	}
}

// decode performs decoding steps until the output is complete, an error
// occurs, or the window has no room for another step without overwriting
// unread output.
func (zr *Reader) decode() {
	var err error
	func() {
		defer errs.Recover(&err)
		for zr.dec.remain > 0 && zr.dec.dict.AvailSize() >= maxStepOutput {
			zr.dec.Step()
		}
	}()
	zr.InputOffset = zr.dec.rd.InputOffset()
	if err != nil {
		zr.err = &DecodeError{
			Err:          err,
			InputOffset:  zr.InputOffset,
			OutputOffset: zr.dec.dict.Total(),
		}
	}
}

func (zr *Reader) Close() error {
	if zr.err == io.EOF || zr.err == io.ErrClosedPipe {
		zr.toRead = nil // Make sure future reads fail
		zr.err = io.ErrClosedPipe
		return nil
	}
	return zr.err // Return the persistent error
}

// Reset discards the Reader's state and makes it equivalent to the result of
// NewReader, reusing the window buffer where possible.
func (zr *Reader) Reset(src []byte, conf *ReaderConfig) error {
	if err := conf.validate(); err != nil {
		return err
	}
	*zr = Reader{dec: zr.dec}
	zr.dec.Init(src, conf.OutputSize, conf.WindowSize, conf.InitialMode)
	return nil
}

// Remaining reports the number of bytes that are still to be decoded.
func (zr *Reader) Remaining() int64 { return zr.dec.remain }

// BitsRead reports the exact number of compressed bits consumed so far.
func (zr *Reader) BitsRead() int64 { return zr.dec.rd.BitsRead() }

// Stats returns a snapshot of the decoder's adaptive state.
func (zr *Reader) Stats() Stats { return zr.dec.Stats() }

// Unpack decompresses src into a buffer of exactly conf.OutputSize bytes.
//
// If decoding fails, the returned error is a *DecodeError recording where
// the failure occurred. The output produced up to that point is returned
// only if conf.KeepPartial is set.
func Unpack(src []byte, conf *ReaderConfig) ([]byte, error) {
	zr, err := NewReader(src, conf)
	if err != nil {
		return nil, err
	}
	prealloc := conf.OutputSize
	if prealloc > maxPrealloc {
		prealloc = maxPrealloc
	}
	bb := bytes.NewBuffer(make([]byte, 0, prealloc))
	if _, err := bb.ReadFrom(zr); err != nil {
		if conf.KeepPartial {
			return bb.Bytes(), err
		}
		return nil, err
	}
	return bb.Bytes(), nil
}
