// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/sim"
)

// planCampaign builds a small campaign over one synthetic chromosome
// with a uniform 1 cM/Mb map, so a 0.1 cM buffer is exactly 100 kb.
func planCampaign(t *testing.T) *common.Campaign {
	t.Helper()
	assets := t.TempDir()
	recmap := "chrT	0	1.0	0.0\nchrT	1000000	0.0	1.0\n"
	if err := os.WriteFile(filepath.Join(assets, "chrT.map"), []byte(recmap), 0644); err != nil {
		t.Fatal(err)
	}
	return &common.Campaign{
		Species:    "HomSap",
		OutputDir:  filepath.Join(t.TempDir(), "out"),
		AssetsDir:  assets,
		Seed:       99,
		Replicates: 2,
		BufferCM:   0.1,
		Subwindows: 4,
		Gridpoints: 5,
		Models: []common.Model{{
			ID: "const", Ne: 10000,
			Populations: []common.Population{{Name: "pop0", Samples: 10}},
		}},
		Annotations:     []common.Annotation{{ID: "exons", Path: "exons.gff"}},
		DFEs:            []string{"Gamma_K17"},
		Coefficients:    []float64{0.01, 0.1},
		TimeMultipliers: []float64{1.0},
		Chromosomes: []common.Chromosome{{
			ID: "chrT", Length: 1000000, RecMap: "chrT.map",
			WindowSize: 500000, WindowStep: 500000,
		}},
	}
}

func TestPlanGridSize(t *testing.T) {
	c := planCampaign(t)
	entries, err := sim.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	// 2 windows × 2 reps × (1 neutral + 1 annot·dfe + 2 coeff·tmult).
	const want = 2 * 2 * (1 + 1 + 2)
	if len(entries) != want {
		t.Fatalf("grid size: got %d entries, want %d", len(entries), want)
	}
	counts := make(map[sim.Scenario]int)
	for i := range entries {
		counts[entries[i].Scenario]++
	}
	if counts[sim.Neutral] != 4 || counts[sim.BGS] != 4 || counts[sim.Sweep] != 8 {
		t.Errorf("scenario counts: %v", counts)
	}
}

func TestPlanBuffersWindows(t *testing.T) {
	entries, err := sim.Plan(planCampaign(t))
	if err != nil {
		t.Fatal(err)
	}
	for i := range entries {
		e := &entries[i]
		if !e.Window.Valid() {
			t.Fatalf("%s: invalid windowing %+v", e, e.Window)
		}
		switch e.Window.Left {
		case 0:
			// At 1 cM/Mb a 0.1 cM buffer is 100 kb; the left edge
			// falls back to the map start.
			if e.Window.BLeft != 0 || e.Window.BRight != 600000 {
				t.Errorf("%s: buffer got [%d, %d], want [0, 600000]", e, e.Window.BLeft, e.Window.BRight)
			}
		case 500000:
			if e.Window.BLeft != 400000 || e.Window.BRight != 1000000 {
				t.Errorf("%s: buffer got [%d, %d], want [400000, 1000000]", e, e.Window.BLeft, e.Window.BRight)
			}
		default:
			t.Errorf("%s: unexpected window left %d", e, e.Window.Left)
		}
	}
}

func TestPlanDeterministic(t *testing.T) {
	c := planCampaign(t)
	a, err := sim.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	b, err := sim.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	if !sim.SameEntries(a, b) {
		t.Error("two plans of the same campaign differ")
	}

	// Different base seed, different per-entry seeds.
	c.Seed++
	d, err := sim.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	if sim.SameEntries(a, d) {
		t.Error("changing the campaign seed did not change entry seeds")
	}

	// Seeds are unique across the grid.
	seen := make(map[int64]bool)
	for i := range a {
		if seen[a[i].Seed] {
			t.Fatalf("duplicate seed %d", a[i].Seed)
		}
		seen[a[i].Seed] = true
	}
}

func TestPlanRequiresRecMap(t *testing.T) {
	c := planCampaign(t)
	c.Chromosomes[0].RecMap = ""
	if _, err := sim.Plan(c); err == nil {
		t.Fatal("expected an error for a chromosome without a recombination map")
	}
}

func TestManifestFileRoundTrip(t *testing.T) {
	c := planCampaign(t)
	entries, err := sim.Plan(c)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(c.OutputDir, "manifest.tsv")
	if err := sim.WriteManifestFile(path, entries); err != nil {
		t.Fatal(err)
	}
	back, err := sim.LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if !sim.SameEntries(entries, back) {
		t.Error("manifest file did not survive the round trip")
	}
}
