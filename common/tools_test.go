// Copyright 2024 The Sweep Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package common_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/popgensims/sweep/common"
)

func TestToolFileMarshalTOML(t *testing.T) {
	before := common.ToolFile{
		Tools: []*common.Tool{
			&common.Tool{
				Name: common.ToolEngine,
				Bin:  "/usr/local/bin/slim-engine",
				// The unmarshaler propagates the environment, so to
				// make sure this works, also seed from the environment.
				Env: common.ConfigEnv{common.NewEnvFromEnviron()},
			},
			&common.Tool{
				Name: common.ToolClassifier,
				Bin:  "python3",
				Args: []string{"/opt/diploSHIC/diploSHIC.py"},
			},
		},
	}
	b, err := common.ToolFileMarshalTOML(&before)
	if err != nil {
		t.Fatal(err)
	}
	var after common.ToolFile
	if err := toml.Unmarshal(b, &after); err != nil {
		t.Fatal(err)
	}
	if l := len(after.Tools); l != len(before.Tools) {
		t.Fatalf("unexpected number of tools: got %d, want %d", l, len(before.Tools))
	}
	for i := range after.Tools {
		tb, ta := before.Tools[i], after.Tools[i]
		if tb.Name != ta.Name {
			t.Fatalf("unexpected name: got %s, want %s", ta.Name, tb.Name)
		}
		if tb.Bin != ta.Bin {
			t.Fatalf("unexpected bin: got %s, want %s", ta.Bin, tb.Bin)
		}
		if len(tb.Args) != len(ta.Args) {
			t.Fatalf("unexpected args: got %v, want %v", ta.Args, tb.Args)
		}
		if tb.Env.Env != nil {
			compareEnvs(t, tb.Env.Env, ta.Env.Env)
		}
	}
}

func TestLoadToolFile(t *testing.T) {
	write := func(t *testing.T, text string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "tools.toml")
		if err := os.WriteFile(p, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	t.Run("Valid", func(t *testing.T) {
		tf, err := common.LoadToolFile(write(t, `
[[tool]]
  name = "engine"
  bin = "/usr/local/bin/slim-engine"
  env = ["OMP_NUM_THREADS=1"]

[[tool]]
  name = "detector"
  bin = "SweepFinder2"
`))
		if err != nil {
			t.Fatal(err)
		}
		eng, err := tf.Tool(common.ToolEngine)
		if err != nil {
			t.Fatal(err)
		}
		if v, ok := eng.ExecEnv().Lookup("OMP_NUM_THREADS"); !ok || v != "1" {
			t.Errorf("expected OMP_NUM_THREADS=1 in engine env, got %q, %v", v, ok)
		}
		if _, err := tf.Tool(common.ToolClassifier); err == nil {
			t.Error("expected an error looking up an undefined tool")
		}
	})
	t.Run("UnknownName", func(t *testing.T) {
		_, err := common.LoadToolFile(write(t, `
[[tool]]
  name = "aligner"
  bin = "bwa"
`))
		if err == nil || !strings.Contains(err.Error(), "unknown tool") {
			t.Fatalf("expected unknown-tool error, got %v", err)
		}
	})
	t.Run("Duplicate", func(t *testing.T) {
		_, err := common.LoadToolFile(write(t, `
[[tool]]
  name = "engine"
  bin = "a"

[[tool]]
  name = "engine"
  bin = "b"
`))
		if err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Fatalf("expected duplicate-tool error, got %v", err)
		}
	})
	t.Run("MissingBin", func(t *testing.T) {
		_, err := common.LoadToolFile(write(t, `
[[tool]]
  name = "engine"
`))
		if err == nil || !strings.Contains(err.Error(), "no bin") {
			t.Fatalf("expected missing-bin error, got %v", err)
		}
	})
}

func compareEnvs(t *testing.T, a, b *common.Env) {
	t.Helper()

	aIndex := makeEnvIndex(a)
	bIndex := makeEnvIndex(b)
	for aKey, aVal := range aIndex {
		if bVal, ok := bIndex[aKey]; !ok {
			t.Errorf("%s in A but not B", aKey)
		} else if aVal != bVal {
			t.Errorf("%s has value %s A but %s in B", aKey, aVal, bVal)
		}
	}
	for bKey := range bIndex {
		if _, ok := aIndex[bKey]; !ok {
			t.Errorf("%s in B but not A", bKey)
		}
	}
}

func makeEnvIndex(a *common.Env) map[string]string {
	index := make(map[string]string)
	for _, s := range a.Collapse() {
		d := strings.IndexRune(s, '=')
		index[s[:d]] = s[d+1:]
	}
	return index
}
