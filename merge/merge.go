// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package merge concatenates the pipeline's delimited-text tables.
// Per-simulation statistic and prediction files all share a header, so
// building a genome-wide table is plain concatenation with the
// repeated headers dropped. Input order and per-file row order are
// preserved; the combined table's data-row count is the sum of the
// inputs'.
package merge

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// HeaderMode says how the first line of each input is treated.
type HeaderMode int

const (
	// HeaderDedup keeps the first input's header and drops the
	// (identical) headers of the rest. A mismatched header is an
	// error: it means the inputs are not the same kind of table.
	HeaderDedup HeaderMode = iota

	// HeaderNone concatenates every line of every input.
	HeaderNone
)

// Concat merges the named files into w. With HeaderDedup, empty inputs
// (no header at all) are an error; inputs with a header and no data
// rows are fine.
func Concat(w io.Writer, mode HeaderMode, paths ...string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no input files")
	}
	bw := bufio.NewWriter(w)
	var header string
	for i, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = concatOne(bw, f, mode, i == 0, &header)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return bw.Flush()
}

func concatOne(w *bufio.Writer, r io.Reader, mode HeaderMode, first bool, header *string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 64*1024*1024)
	if mode == HeaderDedup {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return fmt.Errorf("missing header")
		}
		h := sc.Text()
		if first {
			*header = h
			if _, err := fmt.Fprintln(w, h); err != nil {
				return err
			}
		} else if h != *header {
			return fmt.Errorf("header %q does not match first input's %q", h, *header)
		}
	}
	for sc.Scan() {
		if _, err := fmt.Fprintln(w, sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ConcatFile merges the named files into a new file at outPath,
// creating parent directories. The output path may not be one of the
// inputs.
func ConcatFile(outPath string, mode HeaderMode, paths ...string) error {
	for _, p := range paths {
		if p == outPath {
			return fmt.Errorf("output %s is also an input", outPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := Concat(f, mode, paths...); err != nil {
		f.Close()
		os.Remove(outPath)
		return err
	}
	return f.Close()
}

// Glob expands a pattern into a sorted input list, requiring at least
// one match so a typo'd pattern fails instead of writing an empty
// table.
func Glob(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %q", pattern)
	}
	sort.Strings(paths)
	return paths, nil
}
