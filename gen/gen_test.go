// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/genome"
)

func generateAll(t *testing.T, dir string, seed int64) {
	t.Helper()
	cfg := &Config{OutputDir: dir, Seed: seed}
	for _, name := range Names() {
		g, err := ByName(name)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.Generate(cfg); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestGeneratedAssetsLoad(t *testing.T) {
	dir := t.TempDir()
	generateAll(t, dir, 1)

	for _, name := range []string{"recmap.uniform.tsv", "recmap.hotspot.tsv"} {
		m, err := genome.LoadRecMap(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if m.Chrom != "chr1" || m.Start() != 0 || m.End() != exampleLength {
			t.Errorf("%s: bounds %s [%d, %d]", name, m.Chrom, m.Start(), m.End())
		}
		if m.TotalCM() <= 0 {
			t.Errorf("%s: no genetic mass", name)
		}
	}

	set, err := genome.LoadAnnots(filepath.Join(dir, "annot.gff"), "exons", "chr1", []string{"exon"})
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() == 0 {
		t.Error("annotation track is empty")
	}

	c, err := common.LoadCampaign(filepath.Join(dir, "campaign.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Chromosomes) != 1 || c.Chromosomes[0].Length != exampleLength {
		t.Errorf("campaign chromosomes: %+v", c.Chromosomes)
	}
}

func TestUniformMapMass(t *testing.T) {
	dir := t.TempDir()
	generateAll(t, dir, 1)
	m, err := genome.LoadRecMap(filepath.Join(dir, "recmap.uniform.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	// 1 cM/Mb over 5 Mb is 5 cM.
	if got := m.TotalCM(); got < 4.999 || got > 5.001 {
		t.Errorf("total mass: got %v cM, want 5", got)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	generateAll(t, a, 7)
	generateAll(t, b, 7)
	for _, name := range []string{"recmap.hotspot.tsv", "annot.gff"} {
		fa, err := os.ReadFile(filepath.Join(a, name))
		if err != nil {
			t.Fatal(err)
		}
		fb, err := os.ReadFile(filepath.Join(b, name))
		if err != nil {
			t.Fatal(err)
		}
		if string(fa) != string(fb) {
			t.Errorf("%s differs between runs with the same seed", name)
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("nope"); err == nil {
		t.Error("expected error for unknown generator")
	}
}
