// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build !debug && !gofuzz

package internal

// Debug indicates whether the debug or gofuzz build tag was set.
//
// If set, decoders check internal invariants after every step and
// panic with a descriptive message when one is violated.
const Debug = false
