// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// RecMap is a recombination map in the HapMap genetic-map layout:
// ascending physical positions, a cM/Mb rate that applies from each
// position up to the next, and the cumulative genetic distance in cM.
// The cumulative column is recomputed from the rates on load so the
// two never disagree.
type RecMap struct {
	Chrom string
	pos   []int64
	rate  []float64
	cum   []float64
}

// LoadRecMap reads a HapMap-format genetic map:
//
//	Chromosome	Position(bp)	Rate(cM/Mb)	Map(cM)
//	chr21	9411239	8.9648	0.0
//	...
//
// Columns are whitespace-separated; the header line and an optional
// fourth column are accepted and ignored. Positions must ascend and
// rates must be non-negative.
func LoadRecMap(path string) (*RecMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ParseRecMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseRecMap reads a HapMap-format genetic map from r. See LoadRecMap.
func ParseRecMap(r io.Reader) (*RecMap, error) {
	m := new(RecMap)
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", lineno, len(fields))
		}
		pos, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			if lineno == 1 {
				// Header line.
				continue
			}
			return nil, fmt.Errorf("line %d: bad position %q", lineno, fields[1])
		}
		rate, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad rate %q", lineno, fields[2])
		}
		if rate < 0 {
			return nil, fmt.Errorf("line %d: negative rate %v", lineno, rate)
		}
		if m.Chrom == "" {
			m.Chrom = fields[0]
		} else if m.Chrom != fields[0] {
			return nil, fmt.Errorf("line %d: map mixes chromosomes %s and %s", lineno, m.Chrom, fields[0])
		}
		if n := len(m.pos); n > 0 && pos <= m.pos[n-1] {
			return nil, fmt.Errorf("line %d: position %d does not ascend", lineno, pos)
		}
		m.pos = append(m.pos, pos)
		m.rate = append(m.rate, rate)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m.pos) == 0 {
		return nil, fmt.Errorf("map has no entries")
	}
	m.buildCum()
	return m, nil
}

// NewUniformRecMap returns a map with a single constant rate in cM/Mb
// over [start, end]. Used for engine contigs without an empirical map
// and throughout the tests.
func NewUniformRecMap(chrom string, start, end int64, rate float64) *RecMap {
	m := &RecMap{
		Chrom: chrom,
		pos:   []int64{start, end},
		rate:  []float64{rate, 0},
	}
	m.buildCum()
	return m
}

func (m *RecMap) buildCum() {
	incr := make([]float64, len(m.pos))
	for i := 1; i < len(m.pos); i++ {
		incr[i] = m.rate[i-1] * float64(m.pos[i]-m.pos[i-1]) / 1e6
	}
	floats.CumSum(incr, incr)
	m.cum = incr
}

// Start and End bound the map's coverage. Genetic distance outside
// [Start, End] is zero: the map is flat beyond its ends.
func (m *RecMap) Start() int64 { return m.pos[0] }
func (m *RecMap) End() int64   { return m.pos[len(m.pos)-1] }

// MapCM returns the cumulative genetic distance in centimorgans from
// the map start to pos, interpolating linearly within map segments and
// clamping beyond the ends.
func (m *RecMap) MapCM(pos int64) float64 {
	if pos <= m.pos[0] {
		return 0
	}
	n := len(m.pos)
	if pos >= m.pos[n-1] {
		return m.cum[n-1]
	}
	// Largest i with m.pos[i] <= pos.
	i := sort.Search(n, func(i int) bool { return m.pos[i] > pos }) - 1
	return m.cum[i] + m.rate[i]*float64(pos-m.pos[i])/1e6
}

// DistCM returns the genetic distance in centimorgans between two
// physical positions, a ≤ b.
func (m *RecMap) DistCM(a, b int64) float64 {
	return m.MapCM(b) - m.MapCM(a)
}

// TotalCM is the genetic length of the whole map.
func (m *RecMap) TotalCM() float64 {
	return m.cum[len(m.cum)-1]
}

// BufferLeft finds the position left of edge whose genetic distance to
// edge is targetCM, by bisection on the cumulative-mass function. The
// cumulative map is monotone, so bisection narrows to the base pair
// nearest edge that still carries the full target distance; across
// rate-zero plateaus this picks the admissible position closest to the
// window. When the map holds less than targetCM of mass left of edge
// there is no root, and the map start is returned instead.
func (m *RecMap) BufferLeft(edge int64, targetCM float64) int64 {
	if targetCM <= 0 {
		return edge
	}
	lo := m.Start()
	if edge <= lo {
		return lo
	}
	if m.DistCM(lo, edge) < targetCM {
		return lo
	}
	// Invariant: DistCM(lo, edge) ≥ target, DistCM(hi, edge) < target.
	hi := edge
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if m.DistCM(mid, edge) >= targetCM {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// BufferRight is BufferLeft mirrored: the position right of edge at
// genetic distance targetCM, or the map end when the remaining mass is
// insufficient.
func (m *RecMap) BufferRight(edge int64, targetCM float64) int64 {
	if targetCM <= 0 {
		return edge
	}
	hi := m.End()
	if edge >= hi {
		return hi
	}
	if m.DistCM(edge, hi) < targetCM {
		return hi
	}
	// Invariant: DistCM(edge, lo) < target, DistCM(edge, hi) ≥ target.
	lo := edge
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if m.DistCM(edge, mid) >= targetCM {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi
}

// Buffer builds the window around the focal interval [left, right)
// with targetCM of genetic distance on each flank. Where the map
// cannot supply the target (near chromosome ends) the buffer stops at
// the map boundary; a boundary inside the focal interval clamps to the
// focal edge, so the result always satisfies the window invariant.
func (m *RecMap) Buffer(chrom string, left, right int64, targetCM float64) (Window, error) {
	if left >= right {
		return Window{}, fmt.Errorf("focal window %s:%d-%d is empty", chrom, left, right)
	}
	bleft := m.BufferLeft(left, targetCM)
	if bleft > left {
		bleft = left
	}
	bright := m.BufferRight(right, targetCM)
	if bright < right {
		bright = right
	}
	w := Window{
		Region: Region{Chrom: chrom, Left: left, Right: right},
		BLeft:  bleft,
		BRight: bright,
	}
	if !w.Valid() {
		return Window{}, fmt.Errorf("window %s with buffer [%d, %d) violates the buffer invariant", w.Region, w.BLeft, w.BRight)
	}
	return w, nil
}
