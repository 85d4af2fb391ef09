// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classify

import (
	"math"
	"strings"
	"testing"

	"github.com/popgensims/sweep/common"
)

func testTrainSettings() *common.TrainSettings {
	return &common.TrainSettings{
		Replicates: 3,
		SampleSize: 20,
		Sites:      55000,
		Theta:      50,
		Rho:        40,
		AlphaRange: []float64{100, 2500},
		FreqRange:  []float64{0.01, 0.2},
	}
}

func TestPositions(t *testing.T) {
	for i := 0; i < NumPositions; i++ {
		want := float64(2*i+1) / 22
		if got := Position(i); math.Abs(got-want) > 1e-15 {
			t.Errorf("Position(%d): got %v, want %v", i, got, want)
		}
	}
	if p := Position(0); p <= 0 || p >= 0.5 {
		t.Errorf("first position %v not in (0, 0.5)", p)
	}
	if p := Position(NumPositions - 1); p <= 0.5 || p >= 1 {
		t.Errorf("last position %v not in (0.5, 1)", p)
	}
	if mid := Position(NumPositions / 2); mid != 0.5 {
		t.Errorf("middle position: got %v, want 0.5", mid)
	}
}

func TestTrainPlan(t *testing.T) {
	ts := testTrainSettings()
	entries, err := TrainPlan(ts, 42)
	if err != nil {
		t.Fatal(err)
	}
	// replicates neutral + replicates × 11 positions × 2 sweep classes.
	want := ts.Replicates * (1 + 2*NumPositions)
	if len(entries) != want {
		t.Fatalf("got %d entries, want %d", len(entries), want)
	}
	for i := range entries {
		e := &entries[i]
		switch e.Class {
		case ClassNeutral:
			if e.PosIndex != -1 || e.Alpha != 0 || e.Freq != 0 {
				t.Errorf("neutral entry carries sweep parameters: %+v", e)
			}
		case ClassHard:
			if e.Alpha < ts.AlphaRange[0] || e.Alpha > ts.AlphaRange[1] {
				t.Errorf("hard alpha %v outside range", e.Alpha)
			}
			if e.Freq != 0 {
				t.Errorf("hard entry has a starting frequency: %+v", e)
			}
		case ClassSoft:
			if e.Freq < ts.FreqRange[0] || e.Freq > ts.FreqRange[1] {
				t.Errorf("soft freq %v outside range", e.Freq)
			}
		}
	}

	again, err := TrainPlan(ts, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i := range entries {
		if entries[i] != again[i] {
			t.Fatalf("plan is not deterministic at entry %d: %+v vs %+v", i, entries[i], again[i])
		}
	}

	other, err := TrainPlan(ts, 43)
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].Seed == other[0].Seed {
		t.Error("different campaign seeds produced the same entry seed")
	}
}

func TestTrainPlanValidation(t *testing.T) {
	for _, tc := range []struct {
		name    string
		mutate  func(*common.TrainSettings)
		wantSub string
	}{
		{"NoReps", func(ts *common.TrainSettings) { ts.Replicates = 0 }, "replicates"},
		{"TinySample", func(ts *common.TrainSettings) { ts.SampleSize = 1 }, "sample_size"},
		{"NoSites", func(ts *common.TrainSettings) { ts.Sites = 0 }, "sites"},
		{"BadTheta", func(ts *common.TrainSettings) { ts.Theta = 0 }, "theta"},
		{"BadAlpha", func(ts *common.TrainSettings) { ts.AlphaRange = []float64{5, 5} }, "alpha_range"},
		{"BadFreq", func(ts *common.TrainSettings) { ts.FreqRange = []float64{0.5, 2} }, "freq_range"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ts := testTrainSettings()
			tc.mutate(ts)
			_, err := TrainPlan(ts, 1)
			if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("expected error containing %q, got %v", tc.wantSub, err)
			}
		})
	}
}

func TestSimArgs(t *testing.T) {
	ts := testTrainSettings()

	neutral := &TrainEntry{Class: ClassNeutral, PosIndex: -1, Rep: 0, Seed: 7}
	got := strings.Join(SimArgs(neutral, ts), " ")
	want := "20 1 55000 -t 50 -r 40 -d 7 1"
	if got != want {
		t.Errorf("neutral args:\n got %q\nwant %q", got, want)
	}
	if strings.Contains(got, "-ws") {
		t.Error("neutral args include a sweep event")
	}

	hard := &TrainEntry{Class: ClassHard, PosIndex: 5, Rep: 0, Seed: 7, Alpha: 500}
	got = strings.Join(SimArgs(hard, ts), " ")
	if !strings.Contains(got, "-ws 0") || !strings.Contains(got, "-a 500") ||
		!strings.Contains(got, "-x 0.5") {
		t.Errorf("hard args missing sweep parameters: %q", got)
	}
	if strings.Contains(got, "-f") {
		t.Error("hard args include a starting frequency")
	}

	soft := &TrainEntry{Class: ClassSoft, PosIndex: 0, Rep: 0, Seed: 7, Alpha: 500, Freq: 0.05}
	got = strings.Join(SimArgs(soft, ts), " ")
	if !strings.Contains(got, "-f 0.05") {
		t.Errorf("soft args missing starting frequency: %q", got)
	}
	if !strings.Contains(got, "-x 0.045454545454545456") {
		t.Errorf("soft args position: %q", got)
	}
}

func TestTrainEntryPaths(t *testing.T) {
	n := &TrainEntry{Class: ClassNeutral, PosIndex: -1, Rep: 2}
	if got := n.MSOutPath("/out/train"); got != "/out/train/sims/neutral/r2.msout" {
		t.Errorf("neutral path: got %q", got)
	}
	h := &TrainEntry{Class: ClassHard, PosIndex: 3, Rep: 0}
	if got := h.MSOutPath("/out/train"); got != "/out/train/sims/hard/x3/r0.msout" {
		t.Errorf("hard path: got %q", got)
	}
}
