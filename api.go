// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package rarlegacy is a collection of decoders for legacy archive
// compression formats.
//
// The decoders only handle the compressed bitstream itself. Parsing of the
// archive container (block boundaries, declared sizes, names, and checksums)
// is left to the caller, which hands each decoder the compressed bytes
// together with the output size and window size found in the headers.
package rarlegacy

// Error is the interface implemented by all errors originating from the
// decoders in this module.
type Error interface {
	error
	CompressError()

	// IsCorrupted reports whether the error was due to malformed input.
	IsCorrupted() bool

	// IsTruncated reports whether the input ended before the declared
	// amount of output could be produced.
	IsTruncated() bool
}
