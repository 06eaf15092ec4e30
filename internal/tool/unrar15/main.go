// Copyright 2026, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command unrar15 decodes the compressed segments of files stored with the
// legacy adaptive Huffman and LZ77 method of early RAR archives.
//
// The archive headers are not parsed. Each input is a file holding the
// compressed bytes of a single archived file, and the parameters found in
// the headers are given by flags.
//
// Example usage:
//	$ go build -o unrar15 .
//	$ ./unrar15 -size 16 -o out.bin segment.bin
//	$ ./unrar15 -size 1Ki -sum -v 'corpus/**/*.seg.gz'
//	$ ./unrar15 -size 4Ki -window 64Ki -threads 8 -o outdir 'corpus/**/*.seg'
//
// Inputs are doublestar patterns. If more than one file matches, or an input
// is a pattern, the output flag names a directory under which the outputs
// are laid out mirroring the inputs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dsnet/golib/strconv"
	"github.com/dsnet/rarlegacy/rar15"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWindow = "4Ki"
	defaultMode   = "run-length"
)

var modes = map[string]rar15.Mode{
	rar15.LiteralMode.String():   rar15.LiteralMode,
	rar15.RunLengthMode.String(): rar15.RunLengthMode,
}

// options holds the parsed command line.
type options struct {
	Inputs  []string
	Output  string
	Codec   string
	Limit   int64
	Config  rar15.ReaderConfig
	Sum     bool
	Threads int
	Verbose bool
}

func parseSize(name, s string) (int64, error) {
	f, err := strconv.ParsePrefix(s, strconv.AutoParse)
	if err != nil || f < 0 || f != float64(int64(f)) {
		return 0, errors.Errorf("invalid -%s: %q", name, s)
	}
	return int64(f), nil
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	f0 := fs.String("size", "", "Declared size of the output (required)")
	f1 := fs.String("window", defaultWindow, "Size of the history window")
	f2 := fs.String("mode", defaultMode, "Initial decoder mode (literal or run-length)")
	f3 := fs.String("codec", "auto", "Transport codec of the segment files (auto, "+codecNames()+")")
	f4 := fs.String("limit", "0", "Maximum number of compressed bytes to load per segment (0 for all)")
	f5 := fs.String("o", "", "Output file, or directory in batch mode; \"-\" for stdout")
	f6 := fs.Bool("keep-partial", false, "Write the output produced before a decoding error")
	f7 := fs.Bool("sum", false, "Print the XXH64 digest of each output")
	f8 := fs.Int("threads", runtime.NumCPU(), "Number of segments to decode in parallel")
	f9 := fs.Bool("v", false, "Log decoder statistics for each segment")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts := &options{
		Inputs:  fs.Args(),
		Output:  *f5,
		Codec:   *f3,
		Sum:     *f7,
		Threads: *f8,
		Verbose: *f9,
	}
	if len(opts.Inputs) == 0 {
		return nil, errors.New("no input segments")
	}
	if *f0 == "" {
		return nil, errors.New("missing -size")
	}
	var err error
	if opts.Config.OutputSize, err = parseSize("size", *f0); err != nil {
		return nil, err
	}
	window, err := parseSize("window", *f1)
	if err != nil {
		return nil, err
	}
	if window < rar15.MinWindowSize || window > rar15.MaxWindowSize {
		return nil, errors.Errorf("invalid -window: %s not within [%d, %d]", *f1, rar15.MinWindowSize, rar15.MaxWindowSize)
	}
	opts.Config.WindowSize = int(window)
	mode, ok := modes[*f2]
	if !ok {
		return nil, errors.Errorf("invalid -mode: %q", *f2)
	}
	opts.Config.InitialMode = mode
	opts.Config.KeepPartial = *f6
	if opts.Limit, err = parseSize("limit", *f4); err != nil {
		return nil, err
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	return opts, nil
}

// planSessions expands the input patterns into sessions.
func planSessions(opts *options) ([]*session, error) {
	type match struct{ path, rel string }
	var matches []match
	var batch bool
	for _, pattern := range opts.Inputs {
		pattern = filepath.ToSlash(pattern)
		if _, err := os.Stat(filepath.FromSlash(pattern)); err == nil {
			matches = append(matches, match{pattern, filepath.Base(pattern)})
			continue
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid pattern %q", pattern)
		}
		batch = true
		base, _ := doublestar.SplitPattern(pattern)
		paths, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "glob %q", pattern)
		}
		if len(paths) == 0 {
			return nil, errors.Errorf("no segments match %q", pattern)
		}
		for _, p := range paths {
			rel, err := filepath.Rel(filepath.FromSlash(base), p)
			if err != nil {
				rel = filepath.Base(p)
			}
			matches = append(matches, match{p, rel})
		}
	}
	batch = batch || len(matches) > 1
	if batch && opts.Output == "-" {
		return nil, errors.New("cannot write multiple outputs to stdout")
	}
	if batch && opts.Output == "" && !opts.Sum {
		return nil, errors.New("batch mode needs an output directory or -sum")
	}

	var sessions []*session
	for _, m := range matches {
		dec, rel, err := selectCodec(opts.Codec, m.rel)
		if err != nil {
			return nil, err
		}
		s := &session{Input: m.path, Codec: dec, Limit: opts.Limit, Config: opts.Config}
		switch {
		case batch && opts.Output != "":
			s.Output = filepath.Join(opts.Output, rel)
		case !batch && opts.Output != "":
			s.Output = opts.Output
		case !batch && !opts.Sum:
			s.Output = "-"
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// runSessions decodes all sessions with at most opts.Threads in flight.
// Every failure is logged and the first one is returned.
func runSessions(sessions []*session, opts *options) error {
	results := make([]result, len(sessions))
	failed := make([]bool, len(sessions))

	var g errgroup.Group
	g.SetLimit(opts.Threads)
	for i, s := range sessions {
		i, s := i, s
		g.Go(func() error {
			res, err := s.run(os.Stdout)
			results[i] = res
			if err != nil {
				failed[i] = true
				log.Printf("%v", err)
			}
			return err
		})
	}
	err := g.Wait()

	for i, res := range results {
		if opts.Verbose {
			log.Print(res)
		}
		if opts.Sum && (!failed[i] || opts.Config.KeepPartial) {
			fmt.Printf("%016x  %s\n", res.Sum, res.Name)
		}
	}
	return err
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("unrar15: ")

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts, err := parseFlags(fs, os.Args[1:])
	if err != nil {
		fs.Usage()
		log.Fatalf("%v", err)
	}
	sessions, err := planSessions(opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := runSessions(sessions, opts); err != nil {
		if len(sessions) > 1 {
			log.Fatalf("%d segments, at least one failed", len(sessions))
		}
		os.Exit(1)
	}
	if opts.Verbose && len(sessions) > 1 {
		log.Printf("decoded %d segments, window %sB, initial mode %v", len(sessions),
			strconv.FormatPrefix(float64(opts.Config.WindowSize), strconv.Base1024, 0), opts.Config.InitialMode)
	}
}
