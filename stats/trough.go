// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stats computes the pipeline's summary statistics: per
// sub-window diversity, site-frequency spectra, the detector's input
// and output formats, and a nonparametric breakout scan that flags
// sweep-like troughs in a diversity series without any external tool.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// breakout carries the state of an E-divisive-with-medians scan.
type breakout struct {
	z           []float64
	delta       int
	bestStat    float64
	bestIdx     int
	tau         int
	ta, tb, tab *IntervalTree
}

// normalize rescales a series into [0, 1] in place. A constant series
// would divide by zero; it is left alone (its pairwise differences are
// all zero, which the trees accept).
func normalize(input []float64) []float64 {
	if len(input) == 0 {
		return input
	}
	min, max := input[0], input[0]
	for _, v := range input {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	if max == min {
		return input
	}
	for i, v := range input {
		input[i] = (v - min) / (max - min)
	}
	return input
}

// medianResolution picks the tree depth recommended by the paper:
// max(log2(n), 10).
func medianResolution(l int) int {
	d := 10
	if l := int(math.Ceil(math.Log2(float64(l)))); l > d {
		d = l
	}
	return d
}

// stat computes the scan statistic at the current split, keeping it if
// it beats the best so far.
func (e *breakout) stat(tau2 int) float64 {
	a, b, c := e.ta.Median(), e.tb.Median(), e.tab.Median()
	a, b, c = a*a, b*b, c*c
	stat := 2*c - a - b
	stat *= float64(e.tau*(tau2-e.tau)) / float64(tau2)
	if stat > e.bestStat {
		e.bestStat = stat
		e.bestIdx = e.tau
	}
	return stat
}

// calc runs the approximate E-divisive with medians algorithm from
// https://courses.cit.cornell.edu/nj89/docs/edm.pdf over z, returning
// the best split index and its statistic.
func (e *breakout) calc() (int, float64) {
	normalize(e.z)

	e.bestStat = math.Inf(-1)
	e.tau = e.delta
	tau2 := 2 * e.delta

	d := medianResolution(len(e.z))
	e.ta = NewIntervalTree(d)
	e.tb = NewIntervalTree(d)
	e.tab = NewIntervalTree(d)

	for i := 0; i < e.tau; i++ {
		for j := i + 1; j < e.tau; j++ {
			e.ta.Insert(e.z[i] - e.z[j])
		}
	}
	for i := e.tau; i < tau2; i++ {
		for j := i + 1; j < tau2; j++ {
			e.tb.Insert(e.z[i] - e.z[j])
		}
	}
	for i := 0; i < e.tau; i++ {
		for j := e.tau; j < tau2; j++ {
			e.tab.Insert(e.z[i] - e.z[j])
		}
	}

	tau2 += 1
	for ; tau2 < len(e.z)+1; tau2++ {
		e.tb.Insert(e.z[tau2-1] - e.z[tau2-2])
		e.stat(tau2)
	}

	forward := false
	for e.tau < len(e.z)-e.delta {
		if forward {
			e.forwardUpdate()
		} else {
			e.backwardUpdate()
		}
		forward = !forward
	}

	return e.bestIdx, e.bestStat
}

func (e *breakout) forwardUpdate() {
	tau2 := e.tau + e.delta
	e.tau += 1

	for i := e.tau - e.delta; i < e.tau-1; i++ {
		e.ta.Insert(e.z[i] - e.z[e.tau-1])
	}
	for i := e.tau - e.delta; i < e.tau; i++ {
		e.ta.Remove(e.z[i] - e.z[e.tau-e.delta-1])
	}
	e.ta.Insert(e.z[e.tau-e.delta-1] - e.z[e.tau-e.delta])

	e.tab.Remove(e.z[e.tau-1] - e.z[e.tau-e.delta-1])
	for i := e.tau; i < tau2; i++ {
		e.tab.Remove(e.z[i] - e.z[e.tau-e.delta-1])
		e.tab.Insert(e.z[i] - e.z[e.tau-1])
	}
	for i := e.tau - e.delta; i < e.tau-1; i++ {
		e.tab.Remove(e.z[i] - e.z[e.tau-1])
		e.tab.Insert(e.z[i] - e.z[tau2])
	}
	e.tab.Insert(e.z[e.tau-1] - e.z[tau2])

	for i := e.tau; i < tau2; i++ {
		e.tb.Remove(e.z[i] - e.z[e.tau-1])
		e.tb.Insert(e.z[i] - e.z[tau2])
	}

	tau2 += 1
	for ; tau2 < len(e.z)+1; tau2++ {
		e.tb.Insert(e.z[tau2-1] - e.z[tau2-2])
		e.stat(tau2)
	}
}

func (e *breakout) backwardUpdate() {
	tau2 := e.tau + e.delta
	e.tau += 1

	for i := e.tau - e.delta; i < e.tau-1; i++ {
		e.ta.Insert(e.z[i] - e.z[e.tau-1])
	}
	for i := e.tau - e.delta; i < e.tau; i++ {
		e.ta.Remove(e.z[i] - e.z[e.tau-e.delta-1])
	}
	e.ta.Insert(e.z[e.tau-e.delta-1] - e.z[e.tau-e.delta])

	e.tab.Remove(e.z[e.tau-1] - e.z[e.tau-e.delta-1])
	for i := e.tau; i < tau2; i++ {
		e.tab.Remove(e.z[i] - e.z[e.tau-e.delta-1])
		e.tab.Insert(e.z[i] - e.z[e.tau-1])
	}
	for i := e.tau - e.delta; i < e.tau-1; i++ {
		e.tab.Remove(e.z[i] - e.z[e.tau-1])
		e.tab.Insert(e.z[i] - e.z[tau2])
	}
	e.tab.Insert(e.z[e.tau-1] - e.z[tau2])

	for i := e.tau; i < e.tau+e.delta-1; i++ {
		e.tb.Insert(e.z[e.tau+e.delta-1] - e.z[i])
		e.tb.Remove(e.z[i] - e.z[e.tau-1])
	}

	for tau2 = len(e.z); tau2 >= e.tau+e.delta; tau2-- {
		e.tb.Remove(e.z[tau2-1] - e.z[tau2-2])
		e.stat(tau2)
	}
}

// Breakout finds the strongest distributional break in a series using
// approximate E-divisive with medians. delta is the minimum segment
// length on each side of the break. The input is not modified.
func Breakout(input []float64, delta int) (idx int, stat float64) {
	c := make([]float64, len(input))
	copy(c, input)
	e := &breakout{z: c, delta: delta}
	return e.calc()
}

// Trough runs the breakout scan over a per-sub-window diversity series
// and reports whether the detected break drops into a low-diversity
// segment, the shape a sweep leaves behind. ok is false when the
// series is too short for the given delta or the break rises instead.
func Trough(pi []float64, delta int) (idx int, stat float64, ok bool) {
	if delta < 1 || len(pi) < 2*delta {
		return 0, 0, false
	}
	idx, stat = Breakout(pi, delta)
	if idx <= 0 || idx >= len(pi) {
		return idx, stat, false
	}
	return idx, stat, median(pi[idx:]) < median(pi[:idx])
}

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	return stat.Quantile(0.5, stat.Empirical, s, nil)
}
