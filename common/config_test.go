// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/popgensims/sweep/common"
)

const testCampaign = `
species: HomSap
assembly: GRCh38
output: results
assets: assets
seed: 12345
replicates: 3
buffer_cm: 0.5
subwindows: 11
gridpoints: 21
models:
  - id: OutOfAfrica_3G09
    ne: 7310
    populations:
      - name: YRI
        samples: 20
      - name: CEU
        samples: 20
annotations:
  - id: exons
    path: annotations/ensembl_havana_exons.gff3
    types: [exon]
dfes: [Gamma_K17]
selection_coefficients: [0.01, 0.1]
time_multipliers: [0.5, 1.0]
chromosomes:
  - id: chr21
    length: 46709983
    recmap: recmaps/genetic_map_chr21.txt
    window_size: 1000000
train:
  replicates: 2000
  sample_size: 208
  sites: 55000
  theta: 220
  rho: 1008
  alpha_range: [250, 2500]
  freq_range: [0.0, 0.2]
  model_dir: model
`

func writeCampaign(t *testing.T, text string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "campaign.yaml")
	if err := os.WriteFile(p, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadCampaign(t *testing.T) {
	c, err := common.LoadCampaign(writeCampaign(t, testCampaign))
	if err != nil {
		t.Fatal(err)
	}
	if c.Species != "HomSap" {
		t.Errorf("species: got %q, want %q", c.Species, "HomSap")
	}
	if len(c.Models) != 1 || len(c.Models[0].Populations) != 2 {
		t.Fatalf("models: got %+v", c.Models)
	}
	if c.Models[0].Populations[1].Name != "CEU" {
		t.Errorf("second population: got %q, want CEU", c.Models[0].Populations[1].Name)
	}
	if c.Models[0].Ne != 7310 {
		t.Errorf("ne: got %v, want 7310", c.Models[0].Ne)
	}
	if c.BufferCM != 0.5 {
		t.Errorf("buffer_cm: got %v, want 0.5", c.BufferCM)
	}
	if got := len(c.Chromosomes[0].WindowList()); got != 46 {
		t.Errorf("derived windows: got %d, want 46", got)
	}
	if c.Train.Replicates != 2000 || c.Train.SampleSize != 208 {
		t.Errorf("train settings: got %+v", c.Train)
	}
}

func TestCampaignWindowList(t *testing.T) {
	ch := common.Chromosome{
		ID:         "chrT",
		Length:     100,
		WindowSize: 30,
		WindowStep: 30,
	}
	ws := ch.WindowList()
	want := []common.WindowSpec{{0, 30}, {30, 60}, {60, 90}}
	if len(ws) != len(want) {
		t.Fatalf("got %d windows, want %d", len(ws), len(want))
	}
	for i := range ws {
		if ws[i] != want[i] {
			t.Errorf("window %d: got %+v, want %+v", i, ws[i], want[i])
		}
	}

	explicit := common.Chromosome{
		ID:      "chrT",
		Length:  100,
		Windows: []common.WindowSpec{{10, 40}},
	}
	if got := explicit.WindowList(); len(got) != 1 || got[0] != (common.WindowSpec{10, 40}) {
		t.Errorf("explicit windows: got %+v", got)
	}
}

func TestCampaignValidation(t *testing.T) {
	bad := func(t *testing.T, mangle func(s string) string, wantSub string) {
		t.Helper()
		_, err := common.LoadCampaign(writeCampaign(t, mangle(testCampaign)))
		if err == nil || !strings.Contains(err.Error(), wantSub) {
			t.Fatalf("expected error containing %q, got %v", wantSub, err)
		}
	}
	t.Run("NoOutput", func(t *testing.T) {
		bad(t, func(s string) string {
			return strings.Replace(s, "output: results", "output: \"\"", 1)
		}, "output directory")
	})
	t.Run("MissingNe", func(t *testing.T) {
		bad(t, func(s string) string {
			return strings.Replace(s, "ne: 7310\n    ", "", 1)
		}, "ne must be positive")
	})
	t.Run("NegativeCoefficient", func(t *testing.T) {
		bad(t, func(s string) string {
			return strings.Replace(s, "[0.01, 0.1]", "[-0.01]", 1)
		}, "sweep coefficients")
	})
	t.Run("WindowOutOfBounds", func(t *testing.T) {
		bad(t, func(s string) string {
			return strings.Replace(s, "window_size: 1000000",
				"windows:\n      - left: 0\n        right: 99999999", 1)
		}, "out of bounds")
	})
	t.Run("WindowShorterThanSubwindows", func(t *testing.T) {
		bad(t, func(s string) string {
			return strings.Replace(s, "window_size: 1000000",
				"windows:\n      - left: 0\n        right: 5", 1)
		}, "shorter than 11 subwindows")
	})
	t.Run("BothWindowForms", func(t *testing.T) {
		bad(t, func(s string) string {
			return strings.Replace(s, "window_size: 1000000",
				"window_size: 1000000\n    windows:\n      - left: 0\n        right: 10", 1)
		}, "not both")
	})
}
