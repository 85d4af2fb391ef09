// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trees

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/popgensims/sweep/genome"
)

func testWindow() genome.Window {
	return genome.Window{
		Region: genome.Region{Chrom: "chr21", Left: 20000000, Right: 21000000},
		BLeft:  19553201,
		BRight: 21380044,
	}
}

func TestMetaRoundTrip(t *testing.T) {
	treesPath := filepath.Join(t.TempDir(), "r0.trees")
	extra := map[string]string{
		"model":                 "const",
		"selection_coefficient": "0.01",
		"sweep_time":            "7012.5",
		"seed":                  "184467440",
	}
	if err := WriteMeta(treesPath, NewMeta(testWindow(), extra)); err != nil {
		t.Fatal(err)
	}
	m, err := ReadMeta(treesPath)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Window(), testWindow(); got != want {
		t.Errorf("window did not survive the round trip: got %+v, want %+v", got, want)
	}
	if len(m.Extra) != len(extra) {
		t.Fatalf("expected %d extra entries, got %d", len(extra), len(m.Extra))
	}
	for k, v := range extra {
		if m.Extra[k] != v {
			t.Errorf("extra[%q]: expected %q, got %q", k, v, m.Extra[k])
		}
	}
}

func TestMetaPairs(t *testing.T) {
	m := NewMeta(testWindow(), map[string]string{"seed": "42"})
	pairs := m.Pairs()
	want := []string{
		"extra.seed=42",
		"windowing.bleft=19553201",
		"windowing.bright=21380044",
		"windowing.window_left=20000000",
		"windowing.window_right=21000000",
	}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %d: %v", len(want), len(pairs), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d: expected %q, got %q", i, want[i], pairs[i])
		}
	}
}

func TestWriteMetaRejectsInvalidWindowing(t *testing.T) {
	w := testWindow()
	w.BLeft = w.Right + 1
	err := WriteMeta(filepath.Join(t.TempDir(), "r0.trees"), NewMeta(w, nil))
	if err == nil {
		t.Fatal("expected an error for invalid windowing")
	}
}

func TestReadMetaRejectsInvalidWindowing(t *testing.T) {
	treesPath := filepath.Join(t.TempDir(), "r0.trees")
	body := `{"windowing": {"chrom": "chr21", "window_left": 100, "window_right": 50, "bleft": 0, "bright": 200}}`
	if err := os.WriteFile(MetaPath(treesPath), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadMeta(treesPath)
	if err == nil {
		t.Fatal("expected an error for invalid windowing")
	}
	if !strings.Contains(err.Error(), "bleft") {
		t.Errorf("error should name the violated bound, got: %v", err)
	}
}

func TestWriteMetaLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	treesPath := filepath.Join(dir, "r0.trees")
	if err := WriteMeta(treesPath, NewMeta(testWindow(), nil)); err != nil {
		t.Fatal(err)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 1 || ents[0].Name() != "r0.trees.meta.json" {
		names := make([]string, len(ents))
		for i, e := range ents {
			names[i] = e.Name()
		}
		t.Errorf("expected only the sidecar, found %v", names)
	}
}
