// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package internal is a collection of helpers shared by the decoders.
//
// For performance reasons, these packages lack strong error checking and
// require that the caller to ensure that strict invariants are kept.
package internal

// Error is the wrapper type for errors specific to this library.
type Error string

func (e Error) Error() string { return "rarlegacy: " + string(e) }

// IdentityLUT returns the input key itself.
var IdentityLUT [256]byte

func init() {
	for i := range IdentityLUT {
		IdentityLUT[i] = uint8(i)
	}
}

// DivCeil divides n by m and rounds up.
func DivCeil(n, m int) int {
	return (n + m - 1) / m
}
