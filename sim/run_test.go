// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/popgensims/sweep/common"
	"github.com/popgensims/sweep/genome"
)

const runTestGFF = `##gff-version 2
chr1	ensembl	exon	10001	10400	.	+	.	ID "e1"
chr1	ensembl	exon	30001	30200	.	+	.	ID "e2"
`

func annotRunner(t *testing.T) *Runner {
	t.Helper()
	assets := t.TempDir()
	if err := os.WriteFile(filepath.Join(assets, "exons.gff"), []byte(runTestGFF), 0644); err != nil {
		t.Fatal(err)
	}
	return &Runner{
		Campaign: &common.Campaign{
			AssetsDir:   assets,
			Annotations: []common.Annotation{{ID: "exons", Path: "exons.gff", Types: []string{"exon"}}},
		},
	}
}

func bgsEntry(left, right, bleft, bright int64) *Entry {
	return &Entry{
		Scenario: BGS,
		Annot:    "exons",
		Chrom:    "chr1",
		Window: genome.Window{
			Region: genome.Region{Chrom: "chr1", Left: left, Right: right},
			BLeft:  bleft,
			BRight: bright,
		},
	}
}

func TestWriteAnnot(t *testing.T) {
	r := annotRunner(t)
	dir := t.TempDir()
	path, err := r.writeAnnot(bgsEntry(10000, 20000, 9000, 21000), dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// e1 lies inside the buffered region; e2 doesn't.
	if want := "10000\t10400\n"; string(b) != want {
		t.Errorf("intervals: got %q, want %q", b, want)
	}
}

func TestWriteAnnotEmptyIntersection(t *testing.T) {
	r := annotRunner(t)
	dir := t.TempDir()
	// Both exons lie outside the buffered region. The run is still
	// valid: the engine gets an empty intervals file and simulates the
	// contig neutrally.
	path, err := r.writeAnnot(bgsEntry(41000, 50000, 40000, 51000), dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 0 {
		t.Errorf("intervals file: got %q, want empty", b)
	}
}
