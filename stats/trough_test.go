// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math/rand"
	"testing"
)

func TestBreakoutFindsLevelShift(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(11))
	series := make([]float64, 40)
	for i := range series {
		level := 1.0
		if i >= 25 {
			level = 0.2
		}
		series[i] = level + 0.05*rng.Float64()
	}
	idx, stat := Breakout(series, 4)
	if idx < 23 || idx > 27 {
		t.Errorf("Breakout split at %d (stat %f), expected near 25", idx, stat)
	}

	// The scan must not modify its input.
	if series[0] < 0.9 {
		t.Errorf("input series was modified: series[0] = %f", series[0])
	}
}

func TestTrough(t *testing.T) {
	t.Parallel()
	drop := []float64{1, 1.1, 0.9, 1, 1.05, 0.95, 0.1, 0.15, 0.1, 0.12, 0.1, 0.11}
	idx, _, ok := Trough(drop, 2)
	if !ok {
		t.Fatal("Trough(drop) not ok, expected a trough")
	}
	if idx < 5 || idx > 7 {
		t.Errorf("Trough(drop) split at %d, expected near 6", idx)
	}

	rise := []float64{0.1, 0.15, 0.1, 0.12, 0.1, 0.11, 1, 1.1, 0.9, 1, 1.05, 0.95}
	if _, _, ok := Trough(rise, 2); ok {
		t.Error("Trough(rise) ok, expected not ok for a rising series")
	}

	if _, _, ok := Trough([]float64{1, 0.5}, 2); ok {
		t.Error("Trough(short) ok, expected not ok below 2*delta points")
	}
	if _, _, ok := Trough(drop, 0); ok {
		t.Error("Trough(delta=0) ok, expected not ok")
	}
}
