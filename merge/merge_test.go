// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, contents ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(contents))
	for i, c := range contents {
		paths[i] = filepath.Join(dir, "in"+string(rune('a'+i))+".tsv")
		if err := os.WriteFile(paths[i], []byte(c), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func TestConcatDedup(t *testing.T) {
	paths := writeFiles(t,
		"a\tb\n1\t2\n3\t4\n",
		"a\tb\n5\t6\n",
		"a\tb\n",
	)
	var sb strings.Builder
	if err := Concat(&sb, HeaderDedup, paths...); err != nil {
		t.Fatal(err)
	}
	want := "a\tb\n1\t2\n3\t4\n5\t6\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}

func TestConcatPreservesOrderAndCount(t *testing.T) {
	paths := writeFiles(t,
		"h\nr1\nr2\n",
		"h\nr3\n",
		"h\nr4\nr5\nr6\n",
	)
	var sb strings.Builder
	if err := Concat(&sb, HeaderDedup, paths...); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	if len(lines) != 1+6 {
		t.Fatalf("got %d lines, want 7", len(lines))
	}
	for i, want := range []string{"h", "r1", "r2", "r3", "r4", "r5", "r6"} {
		if lines[i] != want {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want)
		}
	}
}

func TestConcatHeaderMismatch(t *testing.T) {
	paths := writeFiles(t, "a\tb\n1\t2\n", "a\tc\n3\t4\n")
	var sb strings.Builder
	err := Concat(&sb, HeaderDedup, paths...)
	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("expected header mismatch error, got %v", err)
	}
}

func TestConcatMissingHeader(t *testing.T) {
	paths := writeFiles(t, "h\n1\n", "")
	var sb strings.Builder
	err := Concat(&sb, HeaderDedup, paths...)
	if err == nil || !strings.Contains(err.Error(), "missing header") {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestConcatNone(t *testing.T) {
	paths := writeFiles(t, "1\n2\n", "3\n")
	var sb strings.Builder
	if err := Concat(&sb, HeaderNone, paths...); err != nil {
		t.Fatal(err)
	}
	if sb.String() != "1\n2\n3\n" {
		t.Errorf("got %q", sb.String())
	}
}

func TestConcatFileRejectsOutputAsInput(t *testing.T) {
	paths := writeFiles(t, "h\n1\n")
	err := ConcatFile(paths[0], HeaderDedup, paths...)
	if err == nil || !strings.Contains(err.Error(), "also an input") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestGlob(t *testing.T) {
	paths := writeFiles(t, "h\n1\n", "h\n2\n")
	dir := filepath.Dir(paths[0])
	got, err := Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != paths[0] || got[1] != paths[1] {
		t.Errorf("got %v, want %v", got, paths)
	}
	if _, err := Glob(filepath.Join(dir, "*.nope")); err == nil {
		t.Error("expected error for empty glob")
	}
}
