// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Example-asset dimensions. The toy chromosome is small enough to
// simulate in seconds but long enough to hold several focal windows
// with buffers.
const (
	exampleChrom  = "chr1"
	exampleLength = 5_000_000
	mapStep       = 50_000
	baseRate      = 1.0 // cM/Mb
)

// uniformRecMap writes a flat 1 cM/Mb map over the toy chromosome in
// HapMap format: a header then chrom/pos/rate/cumulative rows.
type uniformRecMap struct{}

func (uniformRecMap) Generate(cfg *Config) error {
	return writeMap(filepath.Join(cfg.OutputDir, "recmap.uniform.tsv"), func(pos int64) float64 {
		return baseRate
	})
}

// hotspotRecMap writes a map with recombination hotspots: the base
// rate with 20x spikes at seeded random positions, the structure that
// exercises buffer root-finding on non-uniform mass.
type hotspotRecMap struct{}

func (hotspotRecMap) Generate(cfg *Config) error {
	rng := rand.New(rand.NewSource(cfg.Seed))
	hot := make(map[int64]bool)
	for i := 0; i < 8; i++ {
		hot[rng.Int63n(exampleLength/mapStep)*mapStep] = true
	}
	return writeMap(filepath.Join(cfg.OutputDir, "recmap.hotspot.tsv"), func(pos int64) float64 {
		if hot[pos] {
			return 20 * baseRate
		}
		return baseRate
	})
}

func writeMap(path string, rate func(pos int64) float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "Chromosome\tPosition(bp)\tRate(cM/Mb)\tMap(cM)")
	cum := 0.0
	prev := int64(0)
	prevRate := 0.0
	for pos := int64(0); pos <= exampleLength; pos += mapStep {
		cum += prevRate * float64(pos-prev) / 1e6
		r := rate(pos)
		if pos == exampleLength {
			r = 0
		}
		fmt.Fprintf(w, "%s\t%d\t%g\t%g\n", exampleChrom, pos, r, cum)
		prev, prevRate = pos, r
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// annotTrack writes a toy GFF with exon features at seeded random
// positions, the annotation input for background-selection examples.
type annotTrack struct{}

func (annotTrack) Generate(cfg *Config) error {
	rng := rand.New(rand.NewSource(cfg.Seed))
	f, err := os.Create(filepath.Join(cfg.OutputDir, "annot.gff"))
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "##gff-version 2")
	pos := int64(10_000)
	for i := 0; pos < exampleLength-10_000; i++ {
		length := 200 + rng.Int63n(2_000)
		// GFF coordinates are 1-based inclusive.
		fmt.Fprintf(w, "%s\texample\texon\t%d\t%d\t.\t+\t.\tID \"e%d\"\n",
			exampleChrom, pos+1, pos+length, i)
		pos += length + 5_000 + rng.Int63n(40_000)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// campaignFile writes a complete, commented example campaign tying the
// generated assets together.
type campaignFile struct{}

const exampleCampaign = `# Example campaign over a synthetic 5 Mb chromosome.
# Expand it with 'sweep plan -campaign campaign.yaml'.
species: HomSap
assembly: example

output: out
assets: .

seed: 1729
replicates: 2

# Genetic-distance buffer simulated on each side of a focal window.
buffer_cm: 0.5
# Focal windows split into this many parts for diversity statistics.
subwindows: 11
# Evenly spaced CLR test sites per window.
gridpoints: 21

models:
  - id: constant
    ne: 10000
    populations:
      - name: pop0
        samples: 10

annotations:
  - id: exons
    path: annot.gff
    types: [exon]

dfes:
  - Gamma_K17

selection_coefficients: [0.01, 0.1]
time_multipliers: [0.5, 1.0]

chromosomes:
  - id: chr1
    length: 5000000
    recmap: recmap.uniform.tsv
    windows:
      - {left: 1000000, right: 2000000}
      - {left: 3000000, right: 4000000}

train:
  replicates: 10
  sample_size: 20
  sites: 1100000
  theta: 440
  rho: 440
  alpha_range: [250, 2500]
  freq_range: [0.01, 0.2]
`

func (campaignFile) Generate(cfg *Config) error {
	return os.WriteFile(filepath.Join(cfg.OutputDir, "campaign.yaml"), []byte(exampleCampaign), 0644)
}
