// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"
)

// IntervalTree maintains running medians of absolute pairwise
// differences for the breakout scan. Values must lie in [0, 1]; the
// median is approximate with resolution 1/2^depth. The structure is
// the interval tree from the appendix of
// https://courses.cit.cornell.edu/nj89/docs/edm.pdf.
type IntervalTree struct {
	depth  int
	counts []int
}

// NewIntervalTree creates an IntervalTree of the given depth.
func NewIntervalTree(depth int) *IntervalTree {
	if depth < 0 {
		panic("invalid interval tree depth")
	}
	return &IntervalTree{
		depth:  depth,
		counts: make([]int, (1<<(depth+1))-1),
	}
}

// walk adds update to the counts along v's root-to-leaf path.
func (it *IntervalTree) walk(v float64, update int) {
	v = math.Abs(v)
	mid, inc := 0.5, 0.25
	idx := 0
	for i := 0; i <= it.depth; i++ {
		it.counts[idx] += update
		idx = idx*2 + 1
		if v > mid {
			mid += inc
			idx++
		} else {
			mid -= inc
		}
		inc /= 2.
	}
}

// Insert adds an element.
func (it *IntervalTree) Insert(v float64) {
	it.walk(v, 1)
}

// Remove removes an element previously inserted.
func (it *IntervalTree) Remove(v float64) {
	it.walk(v, -1)
}

// Median returns the approximate median of the current elements, or 0
// when the tree is empty.
func (it *IntervalTree) Median() float64 {
	n := it.NumElements()
	if n == 0 {
		return 0
	}
	l, u := 0., 1.
	k := int(math.Ceil(float64(n) / 2.))
	for i := 0; i < len(it.counts); {
		j := 2*i + 1
		if j >= len(it.counts) {
			break
		}
		if it.counts[i] == k {
			// The median straddles this node's children; blend their
			// interval midpoints by weight.
			kf := float64(k)
			a, b := float64(it.counts[j])/kf, float64(it.counts[j+1])/kf
			x := (l + (l+u)/2.) / 2.
			y := (u + (l+u)/2.) / 2.
			return (a*x + b*y) / (a + b)
		}
		if v := it.counts[j]; v >= k {
			i = j
			u = (l + u) / 2.
		} else {
			k -= v
			i = j + 1
			l = (l + u) / 2.
		}
	}
	return (u-l)/2. + l
}

// NumElements returns the number of elements in the tree.
func (it *IntervalTree) NumElements() int {
	return it.counts[0]
}
