// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim_test

import (
	"strings"
	"testing"

	"github.com/popgensims/sweep/sim"
)

func TestSweepTime(t *testing.T) {
	e := sweepEntry()
	const ne = 10000
	t1 := sim.SweepTime(&e, ne)
	t2 := sim.SweepTime(&e, ne)
	if t1 != t2 {
		t.Errorf("draw is not reproducible: %v vs %v", t1, t2)
	}
	if max := e.TimeMult * 4 * ne; t1 <= 0 || t1 >= max {
		t.Errorf("draw %v outside (0, %v)", t1, max)
	}
	e2 := e
	e2.Seed++
	if sim.SweepTime(&e2, ne) == t1 {
		t.Error("different seeds produced the same draw")
	}
}

func TestEngineArgs(t *testing.T) {
	c := planCampaign(t)
	e := sweepEntry()
	e.Model, e.Chrom = "const", "chrT"
	e.Window.Chrom = "chrT"
	e.Window.Left, e.Window.Right = 500000, 1000000
	e.Window.BLeft, e.Window.BRight = 400000, 1000000
	m, err := c.Model("const")
	if err != nil {
		t.Fatal(err)
	}
	meta := sim.BuildMeta(&e, 1234.5)
	args := sim.EngineArgs(&e, c, m, meta, "assets/chrT.map", "", "out/sim.trees")
	argStr := " " + strings.Join(args, " ") + " "

	for _, want := range []string{
		"HomSap --model const",
		"--chrom chrT",
		"--left 400000 --right 1000000",
		"--recmap assets/chrT.map",
		"--seed 9901",
		// Sweep event at the focal midpoint with the drawn end time.
		"--sweep-pos 750000 --sweep-coeff 0.01 --sweep-time 1234.5",
		"--meta windowing.window_left=500000",
		"--meta windowing.bright=1000000",
		"--meta extra.sweep_time=1234.5",
		"--output out/sim.trees",
		" pop0:10 ",
	} {
		if !strings.Contains(argStr, want) {
			t.Errorf("argv missing %q:\n%s", want, argStr)
		}
	}
	if strings.Contains(argStr, "--dfe") || strings.Contains(argStr, "--annot") {
		t.Errorf("sweep argv should not carry DFE flags:\n%s", argStr)
	}
}

func TestEngineArgsBGS(t *testing.T) {
	c := planCampaign(t)
	e := sweepEntry()
	e.Scenario = sim.BGS
	e.Model, e.Chrom = "const", "chrT"
	e.Annot, e.DFE = "exons", "Gamma_K17"
	e.Coeff, e.TimeMult = 0, 0
	m, err := c.Model("const")
	if err != nil {
		t.Fatal(err)
	}
	meta := sim.BuildMeta(&e, 0)
	args := sim.EngineArgs(&e, c, m, meta, "assets/chrT.map", "out/annot.tsv", "out/sim.trees")
	argStr := " " + strings.Join(args, " ") + " "
	if !strings.Contains(argStr, "--dfe Gamma_K17 --annot out/annot.tsv") {
		t.Errorf("argv missing DFE flags:\n%s", argStr)
	}
	if strings.Contains(argStr, "--sweep-pos") {
		t.Errorf("bgs argv should not carry sweep flags:\n%s", argStr)
	}
	if meta.Extra["dfe"] != "Gamma_K17" || meta.Extra["annotation"] != "exons" {
		t.Errorf("sidecar extras missing DFE fields: %v", meta.Extra)
	}
}

func TestBuildMetaNeutral(t *testing.T) {
	e := sweepEntry()
	e.Scenario = sim.Neutral
	e.Coeff, e.TimeMult = 0, 0
	meta := sim.BuildMeta(&e, 0)
	if meta.Extra["scenario"] != "neutral" || meta.Extra["model"] != e.Model {
		t.Errorf("unexpected extras: %v", meta.Extra)
	}
	if _, ok := meta.Extra["sweep_time"]; ok {
		t.Error("neutral sidecar should not record a sweep time")
	}
	if got, want := meta.Window(), e.Window; got != want {
		t.Errorf("windowing: got %+v, want %+v", got, want)
	}
}
