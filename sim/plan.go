// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"math/rand"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/genome"
)

// Plan expands a campaign into its manifest entries. The grid is
// scenario-major: every neutral entry, then every background-selection
// entry (annotations × DFEs), then every sweep entry (coefficients ×
// time multipliers); within a scenario, models, then chromosomes and
// windows in campaign order, then replicates. Per-entry seeds are
// drawn from a single PRNG seeded with the campaign seed in exactly
// this order, so the same campaign always plans the same manifest.
//
// Buffered window bounds are derived here, once per focal window, by
// bisection on each chromosome's recombination map.
func Plan(c *common.Campaign) ([]Entry, error) {
	windows, err := bufferedWindows(c)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(c.Seed))
	var entries []Entry
	appendReps := func(e Entry) {
		for rep := 0; rep < c.Replicates; rep++ {
			e.Rep = rep
			e.Seed = rng.Int63()
			entries = append(entries, e)
		}
	}
	eachWindow := func(f func(chrom string, w genome.Window)) {
		for i := range c.Chromosomes {
			ch := &c.Chromosomes[i]
			for _, w := range windows[ch.ID] {
				f(ch.ID, w)
			}
		}
	}

	for _, m := range c.Models {
		eachWindow(func(chrom string, w genome.Window) {
			appendReps(Entry{
				Scenario: Neutral, Model: m.ID,
				Annot: NoAnnot, DFE: NoDFE,
				Chrom: chrom, Window: w,
			})
		})
	}
	for _, m := range c.Models {
		for _, a := range c.Annotations {
			for _, dfe := range c.DFEs {
				eachWindow(func(chrom string, w genome.Window) {
					appendReps(Entry{
						Scenario: BGS, Model: m.ID,
						Annot: a.ID, DFE: dfe,
						Chrom: chrom, Window: w,
					})
				})
			}
		}
	}
	for _, m := range c.Models {
		for _, s := range c.Coefficients {
			for _, tm := range c.TimeMultipliers {
				eachWindow(func(chrom string, w genome.Window) {
					appendReps(Entry{
						Scenario: Sweep, Model: m.ID,
						Annot: NoAnnot, DFE: NoDFE,
						Coeff: s, TimeMult: tm,
						Chrom: chrom, Window: w,
					})
				})
			}
		}
	}
	return entries, nil
}

func bufferedWindows(c *common.Campaign) (map[string][]genome.Window, error) {
	out := make(map[string][]genome.Window)
	for i := range c.Chromosomes {
		ch := &c.Chromosomes[i]
		if ch.RecMap == "" {
			return nil, fmt.Errorf("chromosome %s: a recombination map is required to derive buffers", ch.ID)
		}
		rm, err := genome.LoadRecMap(c.AssetPath(ch.RecMap))
		if err != nil {
			return nil, err
		}
		for _, ws := range ch.WindowList() {
			w, err := rm.Buffer(ch.ID, ws.Left, ws.Right, c.BufferCM)
			if err != nil {
				return nil, fmt.Errorf("chromosome %s window [%d, %d): %w", ch.ID, ws.Left, ws.Right, err)
			}
			out[ch.ID] = append(out[ch.ID], w)
		}
	}
	return out, nil
}

// SameEntries reports whether two manifests are identical row for row.
// 'plan -check' uses it to verify a manifest on disk still matches the
// campaign that claims it.
func SameEntries(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// A Filter restricts which manifest entries a stage operates on. Zero
// fields mean no restriction; RepHi is inclusive and -1 leaves the
// range open.
type Filter struct {
	Scenario Scenario
	Chrom    string
	RepLo    int
	RepHi    int
}

// Apply returns the entries the filter keeps, preserving order.
func (f Filter) Apply(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if f.Scenario != "" && e.Scenario != f.Scenario {
			continue
		}
		if f.Chrom != "" && e.Chrom != f.Chrom {
			continue
		}
		if e.Rep < f.RepLo {
			continue
		}
		if f.RepHi >= 0 && e.Rep > f.RepHi {
			continue
		}
		out = append(out, e)
	}
	return out
}
