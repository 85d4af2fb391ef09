// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/popgensims/sweep/genome"
	"github.com/popgensims/sweep/sim"
)

func testEntry() *sim.Entry {
	return &sim.Entry{
		Scenario: sim.Neutral, Model: "const", Annot: sim.NoAnnot, DFE: sim.NoDFE,
		Chrom: "chr1",
		Window: genome.Window{
			Region: genome.Region{Chrom: "chr1", Left: 1000, Right: 2000},
			BLeft:  500, BRight: 2500,
		},
	}
}

func TestSubwindows(t *testing.T) {
	r := genome.Region{Chrom: "chr1", Left: 1000, Right: 2003}
	subs := Subwindows(r, 4)
	if len(subs) != 4 {
		t.Fatalf("got %d subwindows, want 4", len(subs))
	}
	if subs[0].Left != r.Left {
		t.Errorf("first left: got %d, want %d", subs[0].Left, r.Left)
	}
	if subs[3].Right != r.Right {
		t.Errorf("last right: got %d, want %d", subs[3].Right, r.Right)
	}
	var total int64
	for i, s := range subs {
		if s.Left >= s.Right {
			t.Errorf("subwindow %d is empty: %v", i, s)
		}
		if i > 0 && s.Left != subs[i-1].Right {
			t.Errorf("subwindow %d does not abut %d", i, i-1)
		}
		total += s.Len()
	}
	if total != r.Len() {
		t.Errorf("lengths sum to %d, want %d", total, r.Len())
	}
}

func TestDiversityShape(t *testing.T) {
	e := testEntry()
	freqs := map[string][]SiteFreq{
		"p0": {{Pos: 1101, X: 3, N: 10}, {Pos: 1601, X: 5, N: 10}},
		"p1": {{Pos: 1301, X: 1, N: 4}},
	}
	const subwindows = 5
	rows, err := Diversity(e, freqs, subwindows)
	if err != nil {
		t.Fatal(err)
	}
	if want := subwindows * 2 * 2; len(rows) != want {
		t.Fatalf("got %d rows, want %d", len(rows), want)
	}
	for _, r := range rows {
		if r.Stat != StatPi && r.Stat != StatSegSites {
			t.Errorf("unexpected statistic %q", r.Stat)
		}
		if r.Left < e.Window.Left || r.Right > e.Window.Right {
			t.Errorf("row interval [%d, %d) outside focal window", r.Left, r.Right)
		}
	}
}

func TestDiversityRejectsShortWindow(t *testing.T) {
	e := testEntry()
	e.Window.Region = genome.Region{Chrom: "chr1", Left: 1000, Right: 1003}
	freqs := map[string][]SiteFreq{
		"p0": {{Pos: 1001, X: 3, N: 10}},
	}
	// 3 bp cannot tile 5 sub-windows; NaN rows must not slip through.
	rows, err := Diversity(e, freqs, 5)
	if err == nil {
		t.Fatalf("expected an error, got %d rows", len(rows))
	}
	for _, r := range rows {
		if math.IsNaN(r.Value) {
			t.Errorf("NaN value in row %+v", r)
		}
	}
}

func TestDiversityValues(t *testing.T) {
	e := testEntry()
	// One site at derived count 3 of 10 haplotypes, landing in the
	// first of two 500 bp sub-windows.
	freqs := map[string][]SiteFreq{
		"p0": {{Pos: 1101, X: 3, N: 10}},
	}
	rows, err := Diversity(e, freqs, 2)
	if err != nil {
		t.Fatal(err)
	}
	wantPi := 2 * 3.0 * 7.0 / (10.0 * 9.0) / 500.0
	got := map[string]float64{}
	for _, r := range rows {
		got[r.Stat+"@"+string(rune('0'+(r.Left-1000)/500))] = r.Value
	}
	if math.Abs(got["pi@0"]-wantPi) > 1e-15 {
		t.Errorf("pi in first subwindow: got %v, want %v", got["pi@0"], wantPi)
	}
	if got["pi@1"] != 0 {
		t.Errorf("pi in second subwindow: got %v, want 0", got["pi@1"])
	}
	if got["segsites@0"] != 1 || got["segsites@1"] != 0 {
		t.Errorf("segsites: got %v, %v, want 1, 0", got["segsites@0"], got["segsites@1"])
	}
}

func TestSpectrumPoolRoundTrip(t *testing.T) {
	a := Spectrum([]SiteFreq{{Pos: 1, X: 1, N: 6}, {Pos: 2, X: 1, N: 6}, {Pos: 3, X: 5, N: 6}}, 6)
	b := Spectrum([]SiteFreq{{Pos: 4, X: 2, N: 6}, {Pos: 5, X: 6, N: 6}}, 6)
	if err := a.Add(b); err != nil {
		t.Fatal(err)
	}
	// The fixed site (x = n) is not counted.
	if a.Segregating() != 4 {
		t.Errorf("segregating: got %d, want 4", a.Segregating())
	}

	var sb strings.Builder
	if err := WriteSFS(&sb, a); err != nil {
		t.Fatal(err)
	}
	want := "1\t2\n2\t1\n3\t0\n4\t0\n5\t1\n"
	if sb.String() != want {
		t.Errorf("spectrum text: got %q, want %q", sb.String(), want)
	}

	back, err := ReadSFS(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if back.N != a.N {
		t.Fatalf("round-trip N: got %d, want %d", back.N, a.N)
	}
	for x := 1; x < a.N; x++ {
		if back.Count[x] != a.Count[x] {
			t.Errorf("count[%d]: got %d, want %d", x, back.Count[x], a.Count[x])
		}
	}
}

func TestSpectrumSkipsMismatchedSampleSizes(t *testing.T) {
	s := Spectrum([]SiteFreq{{Pos: 1, X: 1, N: 6}, {Pos: 2, X: 1, N: 4}}, 6)
	if s.Segregating() != 1 {
		t.Errorf("segregating: got %d, want 1", s.Segregating())
	}
}

func TestPiSeries(t *testing.T) {
	e := testEntry()
	rows := []Row{
		{Entry: *e, Pop: "p0", Stat: StatPi, Value: 0.1},
		{Entry: *e, Pop: "p0", Stat: StatSegSites, Value: 5},
		{Entry: *e, Pop: "p1", Stat: StatPi, Value: 0.9},
		{Entry: *e, Pop: "p0", Stat: StatPi, Value: 0.2},
	}
	got := PiSeries(rows, "p0")
	if len(got) != 2 || got[0] != 0.1 || got[1] != 0.2 {
		t.Errorf("got %v, want [0.1 0.2]", got)
	}
}
