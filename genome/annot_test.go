// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package genome

import (
	"bytes"
	"strings"
	"testing"
)

const testGFF = `##gff-version 2
chr21	ensembl	exon	1001	1200	.	+	.	ID "e1"
chr21	ensembl	exon	1151	1400	.	+	.	ID "e2"
chr21	ensembl	exon	5001	5100	.	-	.	ID "e3"
chr21	ensembl	CDS	9001	9100	.	+	.	ID "c1"
chr22	ensembl	exon	1001	1100	.	+	.	ID "other"
`

func TestReadAnnots(t *testing.T) {
	set, err := ReadAnnots(strings.NewReader(testGFF), "exons", "chr21", []string{"exon"})
	if err != nil {
		t.Fatal(err)
	}
	// e1 and e2 overlap and merge; the CDS and chr22 features drop.
	if set.Len() != 2 {
		t.Fatalf("intervals: got %d, want 2", set.Len())
	}
	all := set.Clip(Region{Chrom: "chr21", Left: 0, Right: 100_000})
	if len(all) != 2 {
		t.Fatalf("clip all: got %d intervals", len(all))
	}
	// GFF is 1-based inclusive; intervals come back 0-based half-open.
	if all[0].Left != 1000 || all[0].Right != 1400 {
		t.Errorf("merged interval: got [%d, %d), want [1000, 1400)", all[0].Left, all[0].Right)
	}
	if all[1].Left != 5000 || all[1].Right != 5100 {
		t.Errorf("second interval: got [%d, %d), want [5000, 5100)", all[1].Left, all[1].Right)
	}
}

func TestAnnotClip(t *testing.T) {
	set, err := ReadAnnots(strings.NewReader(testGFF), "exons", "chr21", []string{"exon"})
	if err != nil {
		t.Fatal(err)
	}
	t.Run("Intersect", func(t *testing.T) {
		got := set.Clip(Region{Chrom: "chr21", Left: 1100, Right: 5050})
		if len(got) != 2 {
			t.Fatalf("got %d intervals, want 2", len(got))
		}
		if got[0].Left != 1100 || got[0].Right != 1400 {
			t.Errorf("first: got [%d, %d), want [1100, 1400)", got[0].Left, got[0].Right)
		}
		if got[1].Left != 5000 || got[1].Right != 5050 {
			t.Errorf("second: got [%d, %d), want [5000, 5050)", got[1].Left, got[1].Right)
		}
	})
	t.Run("Empty", func(t *testing.T) {
		if got := set.Clip(Region{Chrom: "chr21", Left: 40_000, Right: 50_000}); len(got) != 0 {
			t.Errorf("expected no intervals, got %v", got)
		}
	})
}

func TestMergeRegions(t *testing.T) {
	got := mergeRegions([]Region{
		{Chrom: "c", Left: 10, Right: 20},
		{Chrom: "c", Left: 5, Right: 12},
		{Chrom: "c", Left: 20, Right: 30}, // abuts the first; merges
		{Chrom: "c", Left: 40, Right: 50},
	})
	if len(got) != 2 {
		t.Fatalf("got %d regions, want 2: %v", len(got), got)
	}
	if got[0].Left != 5 || got[0].Right != 30 {
		t.Errorf("first: got [%d, %d), want [5, 30)", got[0].Left, got[0].Right)
	}
	if got[1].Left != 40 || got[1].Right != 50 {
		t.Errorf("second: got [%d, %d), want [40, 50)", got[1].Left, got[1].Right)
	}
}

func TestWriteIntervals(t *testing.T) {
	var buf bytes.Buffer
	err := WriteIntervals(&buf, []Region{
		{Chrom: "c", Left: 100, Right: 200},
		{Chrom: "c", Left: 300, Right: 450},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "100\t200\n300\t450\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
