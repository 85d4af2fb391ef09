// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package genome holds the coordinate types and file formats the
// pipeline moves between tools: physical windows and their
// genetic-distance buffers, recombination maps, annotation intervals,
// VCF variants, ancestral sequences, and population assignments.
package genome

import "fmt"

// Region is a half-open physical interval [Left, Right) on a
// chromosome. Positions are 0-based base pairs.
type Region struct {
	Chrom string
	Left  int64
	Right int64
}

func (r Region) Len() int64 {
	return r.Right - r.Left
}

// Contains reports whether pos falls inside the region.
func (r Region) Contains(pos int64) bool {
	return pos >= r.Left && pos < r.Right
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Left, r.Right)
}

// Window is a focal region plus the buffered bounds actually
// simulated. The buffer adds genetic distance on each flank so edge
// effects from the simulation boundary stay out of the focal interval.
//
// Every Window satisfies BLeft ≤ Left < Right ≤ BRight.
type Window struct {
	Region
	BLeft  int64
	BRight int64
}

// Buffered returns the simulated interval including both flanks.
func (w Window) Buffered() Region {
	return Region{Chrom: w.Chrom, Left: w.BLeft, Right: w.BRight}
}

// Valid reports whether the window's coordinates satisfy
// BLeft ≤ Left < Right ≤ BRight.
func (w Window) Valid() bool {
	return w.BLeft <= w.Left && w.Left < w.Right && w.Right <= w.BRight
}
